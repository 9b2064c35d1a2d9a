package detection

import (
	"fmt"

	"github.com/cytoscreen/go-screening/images"
)

// ShapeError reports detector output that cannot be interpreted: a class
// score vector of the wrong length, or a box with non-positive extent.
// Such a detection is rejected rather than silently coerced; the image it
// came from continues processing with its remaining detections.
type ShapeError struct {
	Detail string
}

func (e *ShapeError) Error() string {
	return "malformed detection: " + e.Detail
}

func errScoreCount(want, got int) *ShapeError {
	return &ShapeError{
		Detail: fmt.Sprintf("class score vector has %d entries, model has %d classes", got, want),
	}
}

func errBadBox(box images.Rect) *ShapeError {
	return &ShapeError{
		Detail: fmt.Sprintf("box (%.1f, %.1f, %.1f, %.1f) has non-positive extent",
			box.X1, box.Y1, box.X2, box.Y2),
	}
}
