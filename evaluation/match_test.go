package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cytoscreen/go-screening/images"
)

func TestMatchImage_SingleTruePositive(t *testing.T) {
	preds := []Prediction{
		{Box: images.Rect{X1: 10, Y1: 10, X2: 50, Y2: 50}, ClassID: 4, Score: 0.9},
	}
	gts := []GroundTruth{
		{Box: images.Rect{X1: 12, Y1: 12, X2: 48, Y2: 48}, ClassID: 4},
	}

	// IoU of the pair is 1296/1600 = 0.81, comfortably above 0.5.
	iou := images.CalculateIoU(preds[0].Box, gts[0].Box)
	assert.InDelta(t, 0.81, iou, 0.001)

	match := MatchImage(preds, gts, 0.5)
	require.Len(t, match.Hits, 1)
	assert.True(t, match.Hits[0].TP)
	assert.Equal(t, &MatchCounts{TP: 1, FP: 0, FN: 0}, match.Counts[4])
}

func TestMatchImage_ClassMismatchIsFalsePositive(t *testing.T) {
	preds := []Prediction{
		{Box: images.Rect{X1: 10, Y1: 10, X2: 50, Y2: 50}, ClassID: 1, Score: 0.9},
	}
	gts := []GroundTruth{
		{Box: images.Rect{X1: 10, Y1: 10, X2: 50, Y2: 50}, ClassID: 4},
	}

	match := MatchImage(preds, gts, 0.5)
	assert.Equal(t, &MatchCounts{TP: 0, FP: 1, FN: 0}, match.Counts[1])
	assert.Equal(t, &MatchCounts{TP: 0, FP: 0, FN: 1}, match.Counts[4])
}

func TestMatchImage_GroundTruthClaimedOnce(t *testing.T) {
	// Two predictions over the same box: the higher-confidence one claims
	// it, the other becomes a false positive.
	preds := []Prediction{
		{Box: images.Rect{X1: 10, Y1: 10, X2: 50, Y2: 50}, ClassID: 0, Score: 0.6},
		{Box: images.Rect{X1: 11, Y1: 11, X2: 51, Y2: 51}, ClassID: 0, Score: 0.9},
	}
	gts := []GroundTruth{
		{Box: images.Rect{X1: 10, Y1: 10, X2: 50, Y2: 50}, ClassID: 0},
	}

	match := MatchImage(preds, gts, 0.5)
	require.Len(t, match.Hits, 2)

	// Hits come back in confidence-descending order.
	assert.InDelta(t, 0.9, float64(match.Hits[0].Score), 1e-6)
	assert.True(t, match.Hits[0].TP)
	assert.False(t, match.Hits[1].TP)
	assert.Equal(t, &MatchCounts{TP: 1, FP: 1, FN: 0}, match.Counts[0])
}

func TestMatchImage_BestIoUWins(t *testing.T) {
	// One prediction, two candidate boxes; the higher-overlap one is
	// matched, the other ends up a false negative.
	preds := []Prediction{
		{Box: images.Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}, ClassID: 0, Score: 0.8},
	}
	gts := []GroundTruth{
		{Box: images.Rect{X1: 40, Y1: 40, X2: 140, Y2: 140}, ClassID: 0},
		{Box: images.Rect{X1: 5, Y1: 5, X2: 105, Y2: 105}, ClassID: 0},
	}

	match := MatchImage(preds, gts, 0.5)
	assert.Equal(t, &MatchCounts{TP: 1, FP: 0, FN: 1}, match.Counts[0])
}

func TestMatchImage_BelowThresholdIsFalsePositive(t *testing.T) {
	preds := []Prediction{
		{Box: images.Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}, ClassID: 0, Score: 0.8},
	}
	gts := []GroundTruth{
		{Box: images.Rect{X1: 80, Y1: 80, X2: 180, Y2: 180}, ClassID: 0},
	}

	match := MatchImage(preds, gts, 0.5)
	assert.Equal(t, &MatchCounts{TP: 0, FP: 1, FN: 1}, match.Counts[0])
}

func TestMatchImage_EmptyInputs(t *testing.T) {
	match := MatchImage(nil, nil, 0.5)
	assert.Empty(t, match.Hits)
	assert.Empty(t, match.Counts)

	// Predictions without any ground truth: all false positives.
	preds := []Prediction{
		{Box: images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}, ClassID: 2, Score: 0.7},
	}
	match = MatchImage(preds, nil, 0.5)
	assert.Equal(t, &MatchCounts{TP: 0, FP: 1, FN: 0}, match.Counts[2])

	// Ground truth without predictions: all false negatives.
	gts := []GroundTruth{
		{Box: images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}, ClassID: 3},
	}
	match = MatchImage(nil, gts, 0.5)
	assert.Equal(t, &MatchCounts{TP: 0, FP: 0, FN: 1}, match.Counts[3])
}

func TestMatchCounts_Merge(t *testing.T) {
	a := MatchCounts{TP: 1, FP: 2, FN: 3}
	b := MatchCounts{TP: 4, FP: 5, FN: 6}

	left := a
	left.Merge(b)
	right := b
	right.Merge(a)

	assert.Equal(t, left, right, "fold must be commutative")
	assert.Equal(t, MatchCounts{TP: 5, FP: 7, FN: 9}, left)
}
