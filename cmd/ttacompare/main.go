package main

import (
	"context"
	"flag"
	"image"
	"os"
	"path/filepath"

	"github.com/cytoscreen/go-screening/detection"
	"github.com/cytoscreen/go-screening/detector"
	"github.com/cytoscreen/go-screening/logging"
	"github.com/cytoscreen/go-screening/report"
	"github.com/cytoscreen/go-screening/tta"
	"github.com/cytoscreen/go-screening/util"
)

func main() {
	var (
		imageDir      = flag.String("images", "", "Directory of test images")
		modelPath     = flag.String("model", "", "Path to ONNX model file")
		libraryPath   = flag.String("ort-lib", "", "Path to onnxruntime shared library")
		outputPath    = flag.String("output", "./tta_summary.json", "Output file for the comparison summary")
		inputSize     = flag.Int("input-size", 640, "Square model input resolution")
		confThreshold = flag.Float64("conf", 0.25, "Objectness confidence threshold")
		maxImages     = flag.Int("max-images", 0, "Limit the number of images (0 = all)")
		verbose       = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	logger := logging.NewConsole(*verbose)

	if *imageDir == "" {
		logger.Fatal().Msg("image directory is required (-images)")
	}
	if *modelPath == "" {
		logger.Fatal().Msg("model path is required (-model)")
	}

	det, err := detector.NewONNX(detector.ONNXConfig{
		ModelPath:   *modelPath,
		LibraryPath: *libraryPath,
		InputSize:   *inputSize,
		NumClasses:  len(detection.BethesdaClasses),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("loading model")
	}
	defer det.Close()

	paths, err := util.ListImages(*imageDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("listing images")
	}
	if *maxImages > 0 && len(paths) > *maxImages {
		paths = paths[:*maxImages]
	}
	if len(paths) == 0 {
		logger.Fatal().Str("dir", *imageDir).Msg("no images found")
	}

	// Warmup so the first measured run is not paying session startup.
	blank := image.NewRGBA(image.Rect(0, 0, *inputSize, *inputSize))
	if _, err := det.Detect(context.Background(), blank, float32(*confThreshold)); err != nil {
		logger.Fatal().Err(err).Msg("model warmup failed")
	}

	logger.Info().Int("images", len(paths)).Msg("starting comparison")

	evaluator := tta.Evaluator{
		Detector:      det,
		ConfThreshold: float32(*confThreshold),
		Logger:        logger,
	}
	results, failures, err := evaluator.EvaluateDataset(context.Background(), paths,
		func(ctx context.Context, path string) (image.Image, error) {
			return util.LoadImage(path)
		})
	if err != nil {
		logger.Fatal().Err(err).Msg("comparison aborted")
	}

	summary := tta.Summarize(results)

	if dir := filepath.Dir(*outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal().Err(err).Msg("creating output directory")
		}
	}
	if err := report.WriteJSON(*outputPath, map[string]any{
		"results": results,
		"summary": summary,
	}); err != nil {
		logger.Fatal().Err(err).Msg("writing summary")
	}

	logger.Info().
		Int("compared", len(results)).
		Int("failed", len(failures)).
		Float64("avg_time_ratio", summary.AvgTimeRatio).
		Str("speed", summary.Recommendation.SpeedAssessment).
		Str("recommendation", summary.Recommendation.Verdict).
		Str("output", *outputPath).
		Msg("comparison complete")
}
