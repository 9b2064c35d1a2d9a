package report

import (
	"github.com/cytoscreen/go-screening/detection"
)

// ClassBreakdown splits one class's detections into all candidates
// that passed the objectness gate and those whose confidence also
// cleared the class threshold.
type ClassBreakdown struct {
	All      int `json:"all"`
	Accepted int `json:"accepted"`
}

// EvaluationSummary describes how the decision layer treated a batch
// of detections.
type EvaluationSummary struct {
	TotalDetections    int                       `json:"total_detections"`
	AcceptedDetections int                       `json:"accepted_detections"`
	AcceptanceRate     float64                   `json:"acceptance_rate"`
	PerClass           map[string]ClassBreakdown `json:"per_class"`
}

// SummarizeDecisions tallies acceptance statistics over a batch of
// class decisions.
func SummarizeDecisions(decisions []detection.ClassDecision) EvaluationSummary {
	summary := EvaluationSummary{
		TotalDetections: len(decisions),
		PerClass:        make(map[string]ClassBreakdown),
	}

	for _, d := range decisions {
		breakdown := summary.PerClass[d.ClassName]
		breakdown.All++
		if d.Accepted {
			breakdown.Accepted++
			summary.AcceptedDetections++
		}
		summary.PerClass[d.ClassName] = breakdown
	}

	if summary.TotalDetections > 0 {
		summary.AcceptanceRate = float64(summary.AcceptedDetections) / float64(summary.TotalDetections)
	}
	return summary
}
