package tta

import "time"

// Recommendation is the operator-facing verdict on whether the ensemble
// is worth its latency cost.
type Recommendation struct {
	SpeedAssessment string   `json:"speed_assessment"`
	Verdict         string   `json:"recommendation"`
	Reasoning       []string `json:"reasoning"`
}

// TTASummary aggregates a batch of per-image comparisons.
type TTASummary struct {
	NumImages          int            `json:"num_images"`
	TotalRegularTime   time.Duration  `json:"total_regular_time"`
	TotalTTATime       time.Duration  `json:"total_tta_time"`
	AvgTimeRatio       float64        `json:"avg_time_ratio"`
	TotalRegularBoxes  int            `json:"total_regular_boxes"`
	TotalTTABoxes      float64        `json:"total_tta_boxes"`
	AvgDetectionChange float64        `json:"avg_detection_change"`
	Recommendation     Recommendation `json:"recommendation"`
}

// Summarize folds per-image comparisons into batch totals and attaches
// the latency recommendation.
func Summarize(results []ComparisonResult) TTASummary {
	summary := TTASummary{NumImages: len(results)}

	var ratioSum, changeSum float64
	for _, r := range results {
		summary.TotalRegularTime += r.RegularTime
		summary.TotalTTATime += r.TTATime
		summary.TotalRegularBoxes += r.RegularBoxes
		summary.TotalTTABoxes += r.TTABoxes
		ratioSum += r.TimeRatio
		changeSum += r.DetectionChangePct
	}
	if len(results) > 0 {
		summary.AvgTimeRatio = ratioSum / float64(len(results))
		summary.AvgDetectionChange = changeSum / float64(len(results))
	}

	summary.Recommendation = recommend(summary.AvgTimeRatio)
	return summary
}

// recommend applies the fixed latency policy. The thresholds are an
// operational decision about interactive vs batch use, not a tunable.
func recommend(avgSlowdown float64) Recommendation {
	switch {
	case avgSlowdown > 3.5:
		return Recommendation{
			SpeedAssessment: "VERY SLOW",
			Verdict:         "NOT RECOMMENDED",
			Reasoning: []string{
				"multi-view ensemble adds significant latency",
				"not suitable for real-time inference",
				"could be used for offline batch processing only",
			},
		}
	case avgSlowdown > 2.5:
		return Recommendation{
			SpeedAssessment: "SLOW",
			Verdict:         "USE ONLY FOR BATCH PROCESSING",
			Reasoning: []string{
				"multi-view ensemble is moderately slow",
				"not ideal for interactive use",
				"acceptable for batch processing",
			},
		}
	default:
		return Recommendation{
			SpeedAssessment: "MODERATE",
			Verdict:         "CONSIDER FOR CRITICAL CASES",
			Reasoning: []string{
				"slowdown is moderate",
				"could be acceptable for high-stakes cases",
				"trade-off between speed and stability",
			},
		}
	}
}
