package main

import (
	"context"
	"flag"
	"image"
	"time"

	"github.com/cytoscreen/go-screening/detection"
	"github.com/cytoscreen/go-screening/detector"
	"github.com/cytoscreen/go-screening/logging"
	"github.com/cytoscreen/go-screening/server"
	"github.com/cytoscreen/go-screening/slides"
)

func main() {
	var (
		addr          = flag.String("addr", ":8080", "HTTP listen address")
		modelPath     = flag.String("model", "", "Path to ONNX model file")
		libraryPath   = flag.String("ort-lib", "", "Path to onnxruntime shared library")
		configPath    = flag.String("config", "", "Path to threshold configuration file")
		inputSize     = flag.Int("input-size", 640, "Square model input resolution")
		confThreshold = flag.Float64("conf", 0.25, "Objectness confidence threshold")
		verbose       = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	logger := logging.NewConsole(*verbose)

	if *modelPath == "" {
		logger.Fatal().Msg("model path is required (-model)")
	}

	cfg := detection.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = detection.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("loading threshold configuration")
		}
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid threshold configuration")
	}
	for _, class := range cfg.MissingThresholds() {
		logger.Warn().Str("class", class).
			Float32("fallback", cfg.DefaultThreshold).
			Msg("class has no explicit threshold")
	}

	det, err := detector.NewONNX(detector.ONNXConfig{
		ModelPath:   *modelPath,
		LibraryPath: *libraryPath,
		InputSize:   *inputSize,
		NumClasses:  len(cfg.Classes),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("loading model")
	}
	defer det.Close()

	// One throwaway inference so the first real request does not pay the
	// session warmup cost.
	warmupStart := time.Now()
	blank := image.NewRGBA(image.Rect(0, 0, *inputSize, *inputSize))
	if _, err := det.Detect(context.Background(), blank, float32(*confThreshold)); err != nil {
		logger.Fatal().Err(err).Msg("model warmup failed")
	}
	logger.Info().Dur("elapsed", time.Since(warmupStart)).Msg("model warmed up")

	srv := &server.Server{
		Detector:   det,
		Config:     cfg,
		Aggregator: slides.New(slides.DefaultRules()),
		Info: server.ModelInfo{
			ModelPath:    *modelPath,
			InputSize:    *inputSize,
			Classes:      cfg.Classes,
			NumClasses:   len(cfg.Classes),
			Descriptions: detection.ClassDescriptions,
		},
		ConfThreshold: float32(*confThreshold),
		Logger:        logger,
	}

	logger.Info().Str("addr", *addr).Str("model", *modelPath).Msg("serving")
	if err := srv.Router().Run(*addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
