package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cytoscreen/go-screening/detection"
	"github.com/cytoscreen/go-screening/detector"
	"github.com/cytoscreen/go-screening/evaluation"
	"github.com/cytoscreen/go-screening/logging"
	"github.com/cytoscreen/go-screening/report"
	"github.com/cytoscreen/go-screening/slides"
	"github.com/cytoscreen/go-screening/util"
)

func main() {
	var (
		imageDir      = flag.String("images", "", "Directory of evaluation images")
		labelDir      = flag.String("labels", "", "Directory of YOLO label files (defaults to the image directory)")
		modelPath     = flag.String("model", "", "Path to ONNX model file")
		libraryPath   = flag.String("ort-lib", "", "Path to onnxruntime shared library")
		configPath    = flag.String("config", "", "Path to threshold configuration file")
		outputDir     = flag.String("output", "./evaluation_results", "Output directory for reports")
		inputSize     = flag.Int("input-size", 640, "Square model input resolution")
		confThreshold = flag.Float64("conf", 0.25, "Objectness confidence threshold")
		iouThreshold  = flag.Float64("iou", 0.5, "IoU threshold for matching")
		workers       = flag.Int("workers", 0, "Concurrent image workers (0 = GOMAXPROCS)")
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

	paths, err := util.ListImages(*imageDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("listing images")
	}
	if len(paths) == 0 {
		logger.Fatal().Str("dir", *imageDir).Msg("no images found")
	}
	logger.Info().Int("images", len(paths)).Msg("starting evaluation")

	// fetch runs on multiple evaluator workers; the slide tallies are
	// shared and need the lock.
	var (
		mu           sync.Mutex
		slideResults []slides.SlideResult
		allDecisions []detection.ClassDecision
		aggregator   = slides.New(slides.DefaultRules())
	)

	fetch := func(ctx context.Context, path string) (evaluation.ImageSample, error) {
		img, err := util.LoadImage(path)
		if err != nil {
			return evaluation.ImageSample{}, err
		}

		raw, err := det.Detect(ctx, img, float32(*confThreshold))
		if err != nil {
			return evaluation.ImageSample{}, err
		}

		decisions, rejects := detection.DecideAll(raw, cfg)
		for _, rejectErr := range rejects {
			logger.Warn().Err(rejectErr).Str("image", path).Msg("detection rejected")
		}

		accepted := detection.Accepted(decisions)
		preds := make([]evaluation.Prediction, 0, len(accepted))
		for _, d := range accepted {
			preds = append(preds, evaluation.Prediction{
				Box:     d.Box,
				ClassID: d.ClassID,
				Score:   d.Confidence,
			})
		}

		bounds := img.Bounds()
		gts, err := evaluation.LoadLabels(util.LabelPathFor(path, *labelDir), bounds.Dx(), bounds.Dy())
		if err != nil {
			return evaluation.ImageSample{}, err
		}

		mu.Lock()
		slideResults = append(slideResults, aggregator.Aggregate(filepath.Base(path), decisions))
		allDecisions = append(allDecisions, decisions...)
		mu.Unlock()

		return evaluation.ImageSample{
			Name:        filepath.Base(path),
			Predictions: preds,
			GroundTruth: gts,
		}, nil
	}

	evaluator := evaluation.Evaluator{
		Classes:      cfg.Classes,
		IoUThreshold: *iouThreshold,
		Workers:      *workers,
		Logger:       logger,
	}
	result, err := evaluator.Evaluate(context.Background(), paths, fetch)
	if err != nil {
		logger.Fatal().Err(err).Msg("evaluation aborted")
	}

	// Worker completion order varies run to run.
	sort.Slice(slideResults, func(a, b int) bool { return slideResults[a].Name < slideResults[b].Name })

	map5095 := evaluation.MeanAveragePrecisionOverThresholds(
		result.Samples, len(cfg.Classes), evaluation.IoUThresholdRange(0.5, 0.95, 0.05))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("creating output directory")
	}

	writes := []struct {
		name string
		fn   func(string) error
	}{
		{"class_metrics.csv", func(p string) error { return report.WriteClassMetricsCSV(p, result.Metrics) }},
		{"slide_results.csv", func(p string) error { return report.WriteSlideResultsCSV(p, slideResults) }},
		{"map.json", func(p string) error {
			return report.WriteJSON(p, map[string]any{
				"map50":    result.MAP50,
				"map50_95": map5095,
			})
		}},
		{"decision_summary.json", func(p string) error { return report.WriteJSON(p, report.SummarizeDecisions(allDecisions)) }},
		{"slide_summary.json", func(p string) error { return report.WriteJSON(p, slides.Summarize(slideResults)) }},
	}
	for _, w := range writes {
		path := filepath.Join(*outputDir, w.name)
		if err := w.fn(path); err != nil {
			logger.Fatal().Err(err).Str("file", path).Msg("writing report")
		}
	}

	logger.Info().
		Int("evaluated", len(result.Samples)).
		Int("failed", len(result.Failures)).
		Float64("map50", result.MAP50.MAP).
		Str("output", *outputDir).
		Msg("evaluation complete")
}
