package evaluation

import "sort"

// PrecisionRecallPoint is one point on a class's precision-recall curve,
// produced while sweeping confidence-sorted predictions and consumed only
// by the AP interpolation.
type PrecisionRecallPoint struct {
	Precision float64
	Recall    float64
}

// AveragePrecision computes the 11-point interpolated AP for one class
// across the whole batch.
//
// All of the class's predictions are pooled, sorted by confidence
// descending, and swept while accumulating tp/fp; the recall denominator
// is fixed up front to the total ground-truth count for the class. A
// class with no predictions or no ground-truth instances scores 0.
func AveragePrecision(samples []ImageSample, classID int, iouThreshold float64) float64 {
	var hits []ScoredHit
	totalGT := 0

	// Matching is per image: a prediction can only claim boxes in its own
	// image, so per-image outcomes pool into a global sweep unchanged.
	for _, sample := range samples {
		match := MatchImage(sample.Predictions, sample.GroundTruth, iouThreshold)
		for _, hit := range match.Hits {
			if hit.ClassID == classID {
				hits = append(hits, hit)
			}
		}
		totalGT += match.GTCount[classID]
	}

	if len(hits) == 0 || totalGT == 0 {
		return 0.0
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })

	points := make([]PrecisionRecallPoint, 0, len(hits))
	tp, fp := 0, 0
	for _, hit := range hits {
		if hit.TP {
			tp++
		} else {
			fp++
		}
		points = append(points, PrecisionRecallPoint{
			Precision: float64(tp) / float64(tp+fp),
			Recall:    float64(tp) / float64(totalGT),
		})
	}

	return elevenPointAP(points)
}

// elevenPointAP interpolates a precision-recall curve at the 11 recall
// levels {0.0, 0.1, ..., 1.0}: for each level take the maximum precision
// observed at any point whose recall reaches it (0 if none), then average.
func elevenPointAP(points []PrecisionRecallPoint) float64 {
	ap := 0.0
	for i := 0; i <= 10; i++ {
		t := float64(i) / 10.0
		p := 0.0
		for _, pt := range points {
			if pt.Recall >= t && pt.Precision > p {
				p = pt.Precision
			}
		}
		ap += p / 11.0
	}
	return ap
}

// MAPResult holds mAP at a single IoU threshold together with its
// per-class components.
type MAPResult struct {
	IoUThreshold float64   `json:"iou_threshold"`
	MAP          float64   `json:"map"`
	PerClassAP   []float64 `json:"per_class_ap"`
}

// MeanAveragePrecision computes AP for every class at one IoU threshold
// and averages over all of them. Classes absent from the ground truth
// score AP 0 and still count in the average; this deliberately
// understates performance on rare classes rather than hiding them.
func MeanAveragePrecision(samples []ImageSample, numClasses int, iouThreshold float64) MAPResult {
	result := MAPResult{
		IoUThreshold: iouThreshold,
		PerClassAP:   make([]float64, numClasses),
	}
	if numClasses == 0 {
		return result
	}

	sum := 0.0
	for classID := 0; classID < numClasses; classID++ {
		ap := AveragePrecision(samples, classID, iouThreshold)
		result.PerClassAP[classID] = ap
		sum += ap
	}
	result.MAP = sum / float64(numClasses)
	return result
}

// MeanAveragePrecisionOverThresholds repeats the whole mAP pipeline per
// IoU threshold and averages the results, e.g. thresholds 0.5 to 0.95 in
// steps of 0.05 for a COCO-style mAP50-95.
func MeanAveragePrecisionOverThresholds(samples []ImageSample, numClasses int, thresholds []float64) float64 {
	if len(thresholds) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, t := range thresholds {
		sum += MeanAveragePrecision(samples, numClasses, t).MAP
	}
	return sum / float64(len(thresholds))
}

// IoUThresholdRange builds the conventional threshold sweep [lo, hi] with
// the given step, inclusive of both ends.
func IoUThresholdRange(lo, hi, step float64) []float64 {
	var out []float64
	for t := lo; t <= hi+1e-9; t += step {
		out = append(out, t)
	}
	return out
}
