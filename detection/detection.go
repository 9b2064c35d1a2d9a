// Package detection - per-detection acceptance decisioning.
//
// A detector emits raw candidate regions with an objectness score and a
// per-class score vector. This package turns one raw detection into an
// accept/reject decision in two independent stages: first "is it a cell
// at all" (objectness gate), then "what kind of cell" (per-class
// confidence against a per-class threshold).
package detection

import "github.com/cytoscreen/go-screening/images"

// RawDetection is one candidate region as produced by a detector
// invocation. It is immutable and owned by the call that produced it.
type RawDetection struct {
	// Box is the candidate region in pixel coordinates.
	Box images.Rect `json:"box"`

	// Objectness estimates whether the region contains anything of
	// interest at all, independent of class, in [0, 1].
	Objectness float32 `json:"objectness"`

	// ClassScores holds one raw (not yet normalized) score per known
	// class. It may be empty when the detector only exposes a single
	// best class; see ClassID.
	ClassScores []float32 `json:"class_scores,omitempty"`

	// ClassID is the detector-reported best class, used only as a
	// fallback when ClassScores is empty.
	ClassID int `json:"class_id"`
}

// ClassDecision is the decisioned form of a RawDetection. Computed fresh
// per detection, never mutated.
type ClassDecision struct {
	Box        images.Rect `json:"box"`
	ClassID    int         `json:"class_id"`
	ClassName  string      `json:"class_name"`
	Objectness float32     `json:"objectness"`

	// Confidence is the softmax-normalized probability of the arg-max
	// class (or the objectness itself on the single-class fallback path).
	Confidence float32 `json:"confidence"`

	// ThresholdUsed is the per-class acceptance threshold the confidence
	// was checked against.
	ThresholdUsed float32 `json:"threshold_used"`

	// Accepted holds (objectness >= objectness threshold) AND
	// (confidence >= ThresholdUsed).
	Accepted bool `json:"accepted"`
}
