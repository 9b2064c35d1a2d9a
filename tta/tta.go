// Package tta compares regular single-pass detection against a
// multi-view ensemble over geometric transforms, measuring the latency
// cost against the stability of detection counts. Transformed results
// are not mapped back into original coordinates; only counts and class
// histograms are aggregated.
package tta

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cytoscreen/go-screening/detection"
	"github.com/cytoscreen/go-screening/detector"
	"github.com/cytoscreen/go-screening/images"
)

// ComparisonResult holds the regular-vs-ensemble comparison for one
// image. Box counts on the ensemble side are arithmetic means over all
// transforms, identity included, so they are fractional.
type ComparisonResult struct {
	Image string `json:"image"`

	RegularBoxes       int            `json:"regular_boxes"`
	RegularTime        time.Duration  `json:"regular_time"`
	RegularClassCounts map[string]int `json:"regular_class_counts"`

	TTABoxes       float64            `json:"tta_boxes"`
	TTATime        time.Duration      `json:"tta_time"`
	TTAClassCounts map[string]float64 `json:"tta_class_counts"`

	// TimeRatio is total ensemble time over regular time, 0 when the
	// regular pass took no measurable time.
	TimeRatio          float64 `json:"time_ratio"`
	DetectionDelta     float64 `json:"detection_diff"`
	DetectionChangePct float64 `json:"detection_change_pct"`
}

// ImageStatus records a per-image detector failure during a batch run.
type ImageStatus struct {
	Image string `json:"image"`
	Err   error  `json:"-"`
}

// Evaluator drives the comparison. Zero values pick up defaults from
// WithDefaults.
type Evaluator struct {
	Detector      detector.Detector
	Transforms    []images.Transform
	ConfThreshold float32
	Classes       []string
	Logger        zerolog.Logger
}

// WithDefaults fills unset fields: the standard transform set, a 0.25
// confidence threshold and the Bethesda class list.
func (e Evaluator) WithDefaults() Evaluator {
	if len(e.Transforms) == 0 {
		e.Transforms = images.DefaultTransforms()
	}
	if e.ConfThreshold == 0 {
		e.ConfThreshold = 0.25
	}
	if len(e.Classes) == 0 {
		e.Classes = detection.BethesdaClasses
	}
	return e
}

// CompareImage runs the detector once on the original image, then once
// per transform (identity again included), and reduces the runs into a
// ComparisonResult. A detector failure aborts this image only.
func (e Evaluator) CompareImage(ctx context.Context, name string, img image.Image) (ComparisonResult, error) {
	e = e.WithDefaults()

	regularBoxes, regularCounts, regularTime, err := e.timedDetect(ctx, img)
	if err != nil {
		return ComparisonResult{}, errors.Wrapf(err, "regular pass on %s", name)
	}

	var (
		ttaTime    time.Duration
		totalBoxes int
		sumCounts  = make(map[string]int)
	)
	for _, tf := range e.Transforms {
		boxes, counts, elapsed, err := e.timedDetect(ctx, tf.Apply(img))
		if err != nil {
			return ComparisonResult{}, errors.Wrapf(err, "transform %s on %s", tf.Name, name)
		}
		ttaTime += elapsed
		totalBoxes += boxes
		for class, n := range counts {
			sumCounts[class] += n
		}
	}

	numTransforms := float64(len(e.Transforms))
	avgBoxes := float64(totalBoxes) / numTransforms
	avgCounts := make(map[string]float64, len(sumCounts))
	for class, n := range sumCounts {
		avgCounts[class] = float64(n) / numTransforms
	}

	result := ComparisonResult{
		Image:              name,
		RegularBoxes:       regularBoxes,
		RegularTime:        regularTime,
		RegularClassCounts: regularCounts,
		TTABoxes:           avgBoxes,
		TTATime:            ttaTime,
		TTAClassCounts:     avgCounts,
	}
	if regularTime > 0 {
		result.TimeRatio = ttaTime.Seconds() / regularTime.Seconds()
	}
	result.DetectionDelta = abs(avgBoxes - float64(regularBoxes))
	if regularBoxes > 0 {
		result.DetectionChangePct = result.DetectionDelta / float64(regularBoxes) * 100
	}
	return result, nil
}

// ImageFunc fetches one image by name for EvaluateDataset.
type ImageFunc func(ctx context.Context, name string) (image.Image, error)

// EvaluateDataset compares every named image sequentially. Runs stay
// sequential so per-call wall time keeps meaning. Detector failures are
// scoped per image and returned alongside the successful comparisons.
func (e Evaluator) EvaluateDataset(ctx context.Context, names []string, fetch ImageFunc) ([]ComparisonResult, []ImageStatus, error) {
	e = e.WithDefaults()

	var (
		results  []ComparisonResult
		failures []ImageStatus
	)
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return results, failures, err
		}

		img, err := fetch(ctx, name)
		if err == nil {
			var result ComparisonResult
			result, err = e.CompareImage(ctx, name, img)
			if err == nil {
				results = append(results, result)
				e.Logger.Debug().
					Str("image", name).
					Int("progress", i+1).
					Int("total", len(names)).
					Float64("time_ratio", result.TimeRatio).
					Msg("compared image")
				continue
			}
		}
		e.Logger.Warn().Err(err).Str("image", name).Msg("image comparison failed")
		failures = append(failures, ImageStatus{Image: name, Err: err})
	}
	return results, failures, nil
}

func (e Evaluator) timedDetect(ctx context.Context, img image.Image) (int, map[string]int, time.Duration, error) {
	start := time.Now()
	dets, err := e.Detector.Detect(ctx, img, e.ConfThreshold)
	elapsed := time.Since(start)
	if err != nil {
		return 0, nil, 0, err
	}

	counts := make(map[string]int)
	for _, det := range dets {
		counts[e.className(det)]++
	}
	return len(dets), counts, elapsed, nil
}

// className picks the histogram bucket for a raw detection: highest raw
// class score when the vector is present, the model-provided class id
// otherwise.
func (e Evaluator) className(det detection.RawDetection) string {
	id := det.ClassID
	if len(det.ClassScores) > 0 {
		id = 0
		for i, s := range det.ClassScores {
			if s > det.ClassScores[id] {
				id = i
			}
		}
	}
	if id >= 0 && id < len(e.Classes) {
		return e.Classes[id]
	}
	return "unknown"
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
