// Package server exposes the screening pipeline over HTTP. One request
// carries one image; the response carries the accepted detections, a
// class histogram and the slide-level diagnosis.
package server

import (
	"bytes"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cytoscreen/go-screening/detection"
	"github.com/cytoscreen/go-screening/detector"
	"github.com/cytoscreen/go-screening/slides"
)

// ModelInfo describes the loaded model to clients.
type ModelInfo struct {
	ModelPath    string            `json:"model_path"`
	InputSize    int               `json:"input_size"`
	Classes      []string          `json:"classes"`
	NumClasses   int               `json:"num_classes"`
	Descriptions map[string]string `json:"class_descriptions,omitempty"`
}

// Server wires the detector, decision config and aggregator behind the
// HTTP surface.
type Server struct {
	Detector      detector.Detector
	Config        detection.Config
	Aggregator    *slides.Aggregator
	Info          ModelInfo
	ConfThreshold float32
	Logger        zerolog.Logger

	// MaxUploadBytes caps upload size; 0 means 32 MiB.
	MaxUploadBytes int64
}

// Box is one accepted detection in a classify response, corner origin
// plus width and height in original image pixels.
type Box struct {
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	Width   float32 `json:"width"`
	Height  float32 `json:"height"`
	Label   string  `json:"label"`
	Score   float32 `json:"score"`
	ClassID int     `json:"class_id"`
}

// ClassifyResponse is the full per-image screening result.
type ClassifyResponse struct {
	TotalDetections int                `json:"total_detections"`
	Boxes           []Box              `json:"boxes"`
	ClassSummary    map[string]int     `json:"class_summary"`
	Slide           slides.SlideResult `json:"slide"`
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", s.healthz)
	engine.GET("/model-info", s.modelInfo)

	v1 := engine.Group("/v1")
	{
		v1.POST("/classify", s.classify)
		v1.POST("/classify-upload", s.classifyUpload)
	}

	return engine
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) modelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.Info)
}

// classify accepts the raw image bytes as the request body.
func (s *Server) classify(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, s.maxUploadBytes()))
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image body is required"})
		return
	}
	s.screen(c, data, c.GetHeader("X-Slide-Name"))
}

// classifyUpload accepts a multipart form with the image in the "file"
// field.
func (s *Server) classifyUpload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxUploadBytes()))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reading upload failed"})
		return
	}
	s.screen(c, data, header.Filename)
}

func (s *Server) screen(c *gin.Context, data []byte, name string) {
	if name == "" {
		name = "upload"
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported or corrupt image"})
		return
	}

	raw, err := s.Detector.Detect(c.Request.Context(), img, s.ConfThreshold)
	if err != nil {
		s.Logger.Error().Err(err).Str("image", name).Msg("inference failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "inference failed"})
		return
	}

	decisions, rejects := detection.DecideAll(raw, s.Config)
	for _, rejectErr := range rejects {
		s.Logger.Warn().Err(rejectErr).Str("image", name).Msg("detection rejected")
	}

	accepted := detection.Accepted(decisions)
	resp := ClassifyResponse{
		TotalDetections: len(accepted),
		Boxes:           make([]Box, 0, len(accepted)),
		ClassSummary:    make(map[string]int),
		Slide:           s.Aggregator.Aggregate(name, decisions),
	}
	for _, d := range accepted {
		resp.Boxes = append(resp.Boxes, Box{
			X:       d.Box.X1,
			Y:       d.Box.Y1,
			Width:   d.Box.Width(),
			Height:  d.Box.Height(),
			Label:   d.ClassName,
			Score:   d.Confidence,
			ClassID: d.ClassID,
		})
		resp.ClassSummary[d.ClassName]++
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) maxUploadBytes() int64 {
	if s.MaxUploadBytes > 0 {
		return s.MaxUploadBytes
	}
	return 32 << 20
}
