package tta

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cytoscreen/go-screening/detection"
	"github.com/cytoscreen/go-screening/detector"
	"github.com/cytoscreen/go-screening/images"
)

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 64, 48))
}

// fixedDetector returns n detections of the given class after a fixed
// artificial delay.
func fixedDetector(n, classID int, delay time.Duration) detector.Func {
	return func(ctx context.Context, img image.Image, conf float32) ([]detection.RawDetection, error) {
		time.Sleep(delay)
		dets := make([]detection.RawDetection, n)
		for i := range dets {
			dets[i] = detection.RawDetection{
				Box:        images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10},
				Objectness: 0.9,
				ClassID:    classID,
			}
		}
		return dets, nil
	}
}

func TestCompareImage_StableDetector(t *testing.T) {
	e := Evaluator{Detector: fixedDetector(10, 4, 2*time.Millisecond)}

	result, err := e.CompareImage(context.Background(), "slide_001.png", testImage())
	require.NoError(t, err)

	assert.Equal(t, 10, result.RegularBoxes)
	// All four transform runs return 10 boxes, so the mean is exact.
	assert.InDelta(t, 10.0, result.TTABoxes, 1e-9)
	assert.InDelta(t, 0.0, result.DetectionDelta, 1e-9)
	assert.InDelta(t, 0.0, result.DetectionChangePct, 1e-9)

	// Four timed calls against one: the ratio should land near 4.
	assert.Greater(t, result.TimeRatio, 1.0)

	assert.Equal(t, 10, result.RegularClassCounts["HSIL"])
	assert.InDelta(t, 10.0, result.TTAClassCounts["HSIL"], 1e-9)
}

func TestCompareImage_CountDrift(t *testing.T) {
	// Identity sees 8 boxes; each transformed view sees 12.
	calls := 0
	e := Evaluator{Detector: detector.Func(func(ctx context.Context, img image.Image, conf float32) ([]detection.RawDetection, error) {
		calls++
		n := 12
		if calls == 1 || calls == 2 {
			// First call is the regular pass, second the ensemble's own
			// identity run.
			n = 8
		}
		dets := make([]detection.RawDetection, n)
		for i := range dets {
			dets[i] = detection.RawDetection{ClassID: 0, Box: images.Rect{X2: 5, Y2: 5}}
		}
		return dets, nil
	})}

	result, err := e.CompareImage(context.Background(), "img", testImage())
	require.NoError(t, err)
	require.Equal(t, 5, calls)

	assert.Equal(t, 8, result.RegularBoxes)
	// (8 + 12 + 12 + 12) / 4 = 11
	assert.InDelta(t, 11.0, result.TTABoxes, 1e-9)
	assert.InDelta(t, 3.0, result.DetectionDelta, 1e-9)
	assert.InDelta(t, 37.5, result.DetectionChangePct, 1e-9)
}

func TestCompareImage_ZeroRegularBoxes(t *testing.T) {
	e := Evaluator{Detector: fixedDetector(0, 0, 0)}

	result, err := e.CompareImage(context.Background(), "blank", testImage())
	require.NoError(t, err)
	assert.Zero(t, result.RegularBoxes)
	assert.Zero(t, result.DetectionChangePct)
}

func TestCompareImage_DetectorFailure(t *testing.T) {
	boom := errors.New("session lost")
	e := Evaluator{Detector: detector.Func(func(ctx context.Context, img image.Image, conf float32) ([]detection.RawDetection, error) {
		return nil, boom
	})}

	_, err := e.CompareImage(context.Background(), "img", testImage())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestEvaluateDataset_ScopesFailures(t *testing.T) {
	e := Evaluator{Detector: fixedDetector(5, 1, 0)}

	fetch := func(ctx context.Context, name string) (image.Image, error) {
		if name == "corrupt.png" {
			return nil, errors.New("decode failed")
		}
		return testImage(), nil
	}

	results, failures, err := e.EvaluateDataset(context.Background(),
		[]string{"a.png", "corrupt.png", "b.png"}, fetch)
	require.NoError(t, err)

	require.Len(t, results, 2)
	require.Len(t, failures, 1)
	assert.Equal(t, "corrupt.png", failures[0].Image)
	assert.Equal(t, "a.png", results[0].Image)
	assert.Equal(t, "b.png", results[1].Image)
}

func TestEvaluateDataset_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := Evaluator{Detector: fixedDetector(1, 0, 0)}
	_, _, err := e.EvaluateDataset(ctx, []string{"a.png"}, func(ctx context.Context, name string) (image.Image, error) {
		return testImage(), nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize_Recommendations(t *testing.T) {
	tests := []struct {
		name       string
		ratio      float64
		assessment string
		verdict    string
	}{
		{"well past the interactive budget", 4.0, "VERY SLOW", "NOT RECOMMENDED"},
		{"just past the hard limit", 3.6, "VERY SLOW", "NOT RECOMMENDED"},
		{"batch territory", 3.0, "SLOW", "USE ONLY FOR BATCH PROCESSING"},
		{"boundary stays batch-free", 2.5, "MODERATE", "CONSIDER FOR CRITICAL CASES"},
		{"cheap enough to consider", 1.8, "MODERATE", "CONSIDER FOR CRITICAL CASES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := Summarize([]ComparisonResult{{TimeRatio: tt.ratio}})
			assert.Equal(t, tt.assessment, summary.Recommendation.SpeedAssessment)
			assert.Equal(t, tt.verdict, summary.Recommendation.Verdict)
			assert.NotEmpty(t, summary.Recommendation.Reasoning)
		})
	}
}

func TestSummarize_Totals(t *testing.T) {
	results := []ComparisonResult{
		{
			RegularBoxes: 10, RegularTime: 1 * time.Second,
			TTABoxes: 10, TTATime: 4 * time.Second,
			TimeRatio: 4.0, DetectionChangePct: 0,
		},
		{
			RegularBoxes: 20, RegularTime: 1 * time.Second,
			TTABoxes: 22, TTATime: 2 * time.Second,
			TimeRatio: 2.0, DetectionChangePct: 10,
		},
	}

	summary := Summarize(results)
	assert.Equal(t, 2, summary.NumImages)
	assert.Equal(t, 2*time.Second, summary.TotalRegularTime)
	assert.Equal(t, 6*time.Second, summary.TotalTTATime)
	assert.Equal(t, 30, summary.TotalRegularBoxes)
	assert.InDelta(t, 32.0, summary.TotalTTABoxes, 1e-9)
	assert.InDelta(t, 3.0, summary.AvgTimeRatio, 1e-9)
	assert.InDelta(t, 5.0, summary.AvgDetectionChange, 1e-9)
	// Average ratio 3.0 sits in the batch-only band.
	assert.Equal(t, "USE ONLY FOR BATCH PROCESSING", summary.Recommendation.Verdict)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)
	assert.Zero(t, summary.NumImages)
	assert.Zero(t, summary.AvgTimeRatio)
	// No data reads as no slowdown.
	assert.Equal(t, "MODERATE", summary.Recommendation.SpeedAssessment)
}
