// Package evaluation - spatial matching of predictions against ground
// truth and the metrics derived from it (per-class precision/recall/F1,
// 11-point interpolated Average Precision and mAP).
package evaluation

import "github.com/cytoscreen/go-screening/images"

// Prediction is one accepted detection entering evaluation.
type Prediction struct {
	Box     images.Rect `json:"box"`
	ClassID int         `json:"class_id"`
	Score   float32     `json:"score"`
}

// GroundTruth is one annotated box for an image, supplied externally and
// read-only.
type GroundTruth struct {
	Box     images.Rect `json:"box"`
	ClassID int         `json:"class_id"`
}

// ImageSample pairs one image's predictions with its ground truth.
type ImageSample struct {
	Name        string        `json:"name"`
	Predictions []Prediction  `json:"predictions"`
	GroundTruth []GroundTruth `json:"ground_truth"`
}
