// Package detector - the detection source consumed by the screening
// pipeline. The model itself is a black box behind the Detector
// interface; this package also ships a thin ONNX Runtime adapter for
// YOLO-family cytology models.
package detector

import (
	"context"
	"image"

	"github.com/cytoscreen/go-screening/detection"
)

// Detector yields raw candidate regions for one image. Implementations
// must be safe for concurrent use; the consistency evaluator invokes one
// several times per image.
type Detector interface {
	// Detect runs the model on img, keeping only candidates whose
	// objectness reaches confThreshold. Failures propagate as hard
	// errors for the image; callers scope them per item.
	Detect(ctx context.Context, img image.Image, confThreshold float32) ([]detection.RawDetection, error)
}

// Func adapts a plain function to the Detector interface.
type Func func(ctx context.Context, img image.Image, confThreshold float32) ([]detection.RawDetection, error)

// Detect implements Detector.
func (f Func) Detect(ctx context.Context, img image.Image, confThreshold float32) ([]detection.RawDetection, error) {
	return f(ctx, img, confThreshold)
}
