package evaluation

// ClassMetrics holds accumulated match counts and the derived scores for
// one class across an image batch.
type ClassMetrics struct {
	Class     string  `json:"class"`
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
	FN        int     `json:"fn"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// ComputeClassMetrics matches every sample and reduces the per-image
// counts into per-class precision, recall and F1. A metric whose
// denominator is zero is defined as zero.
//
// Arguments:
//   - samples: The image batch (predictions plus ground truth per image).
//   - classes: Class names in detector index order.
//   - iouThreshold: Minimum IoU for a prediction to match a box.
//
// Returns:
//   - []ClassMetrics: One entry per class, in class index order.
func ComputeClassMetrics(samples []ImageSample, classes []string, iouThreshold float64) []ClassMetrics {
	totals := make([]MatchCounts, len(classes))

	for _, sample := range samples {
		match := MatchImage(sample.Predictions, sample.GroundTruth, iouThreshold)
		for classID, counts := range match.Counts {
			if classID >= 0 && classID < len(classes) {
				totals[classID].Merge(*counts)
			}
		}
	}

	metrics := make([]ClassMetrics, len(classes))
	for i, name := range classes {
		p, r, f1 := precisionRecallF1(totals[i].TP, totals[i].FP, totals[i].FN)
		metrics[i] = ClassMetrics{
			Class:     name,
			TP:        totals[i].TP,
			FP:        totals[i].FP,
			FN:        totals[i].FN,
			Precision: p,
			Recall:    r,
			F1:        f1,
		}
	}
	return metrics
}

func precisionRecallF1(tp, fp, fn int) (precision, recall, f1 float64) {
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}
