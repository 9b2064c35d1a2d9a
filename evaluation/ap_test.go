package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cytoscreen/go-screening/images"
)

func TestAveragePrecision_PerfectDetector(t *testing.T) {
	samples := []ImageSample{
		{
			Name: "slide-1",
			Predictions: []Prediction{
				{Box: images.Rect{X1: 10, Y1: 10, X2: 50, Y2: 50}, ClassID: 4, Score: 0.9},
			},
			GroundTruth: []GroundTruth{
				{Box: images.Rect{X1: 12, Y1: 12, X2: 48, Y2: 48}, ClassID: 4},
			},
		},
	}

	ap := AveragePrecision(samples, 4, 0.5)
	assert.InDelta(t, 1.0, ap, 1e-9)
}

func TestAveragePrecision_NoGroundTruthScoresZero(t *testing.T) {
	samples := []ImageSample{
		{
			Name: "slide-1",
			Predictions: []Prediction{
				{Box: images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}, ClassID: 2, Score: 0.9},
			},
		},
	}

	assert.Zero(t, AveragePrecision(samples, 2, 0.5))
}

func TestAveragePrecision_NoPredictionsScoresZero(t *testing.T) {
	samples := []ImageSample{
		{
			Name: "slide-1",
			GroundTruth: []GroundTruth{
				{Box: images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}, ClassID: 2},
			},
		},
	}

	assert.Zero(t, AveragePrecision(samples, 2, 0.5))
}

func TestAveragePrecision_Bounded(t *testing.T) {
	// A noisy mix of hits and misses across two images: AP must stay in
	// [0, 1] regardless.
	box := func(off float32) images.Rect {
		return images.Rect{X1: off, Y1: off, X2: off + 30, Y2: off + 30}
	}
	samples := []ImageSample{
		{
			Name: "slide-1",
			Predictions: []Prediction{
				{Box: box(0), ClassID: 0, Score: 0.95},
				{Box: box(300), ClassID: 0, Score: 0.85},
				{Box: box(1), ClassID: 0, Score: 0.40},
			},
			GroundTruth: []GroundTruth{
				{Box: box(1), ClassID: 0},
				{Box: box(100), ClassID: 0},
			},
		},
		{
			Name: "slide-2",
			Predictions: []Prediction{
				{Box: box(100), ClassID: 0, Score: 0.70},
			},
			GroundTruth: []GroundTruth{
				{Box: box(101), ClassID: 0},
			},
		},
	}

	for _, iou := range []float64{0.3, 0.5, 0.75, 0.95} {
		ap := AveragePrecision(samples, 0, iou)
		assert.GreaterOrEqual(t, ap, 0.0, "iou %v", iou)
		assert.LessOrEqual(t, ap, 1.0, "iou %v", iou)
	}
}

func TestElevenPointAP_InterpolatesMaxPrecision(t *testing.T) {
	// Precision recovers after a dip; the interpolation takes the max
	// precision at recall >= t, so the dip is smoothed away.
	points := []PrecisionRecallPoint{
		{Precision: 1.0, Recall: 0.5},
		{Precision: 0.5, Recall: 0.5},
		{Precision: 0.66, Recall: 1.0},
	}

	ap := elevenPointAP(points)
	// Levels 0.0-0.5 see max precision 1.0 (6 levels); levels 0.6-1.0 see
	// 0.66 (5 levels).
	expected := (6*1.0 + 5*0.66) / 11.0
	assert.InDelta(t, expected, ap, 1e-9)
}

func TestMeanAveragePrecision_AveragesAllClasses(t *testing.T) {
	samples := []ImageSample{
		{
			Name: "slide-1",
			Predictions: []Prediction{
				{Box: images.Rect{X1: 10, Y1: 10, X2: 50, Y2: 50}, ClassID: 4, Score: 0.9},
			},
			GroundTruth: []GroundTruth{
				{Box: images.Rect{X1: 12, Y1: 12, X2: 48, Y2: 48}, ClassID: 4},
			},
		},
	}

	result := MeanAveragePrecision(samples, 6, 0.5)
	require.Len(t, result.PerClassAP, 6)
	assert.InDelta(t, 1.0, result.PerClassAP[4], 1e-9)

	// Five classes without ground truth score 0 but still divide the
	// average: 1.0 / 6.
	assert.InDelta(t, 1.0/6.0, result.MAP, 1e-9)
}

func TestMeanAveragePrecisionOverThresholds(t *testing.T) {
	samples := []ImageSample{
		{
			Name: "slide-1",
			Predictions: []Prediction{
				{Box: images.Rect{X1: 10, Y1: 10, X2: 50, Y2: 50}, ClassID: 0, Score: 0.9},
			},
			GroundTruth: []GroundTruth{
				{Box: images.Rect{X1: 12, Y1: 12, X2: 48, Y2: 48}, ClassID: 0},
			},
		},
	}

	thresholds := IoUThresholdRange(0.5, 0.95, 0.05)
	require.Len(t, thresholds, 10)

	// The pair overlaps at IoU 0.81: a hit for thresholds up to 0.80,
	// a miss beyond.
	m := MeanAveragePrecisionOverThresholds(samples, 1, thresholds)
	assert.InDelta(t, 7.0/10.0, m, 1e-9)

	assert.Zero(t, MeanAveragePrecisionOverThresholds(samples, 1, nil))
}
