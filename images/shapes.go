// Package images - geometry and transform utilities shared by the
// screening pipeline.
package images

// Rect is a lightweight axis-aligned bounding box in pixel coordinates,
// corner-form with X1 < X2 and Y1 < Y2.
type Rect struct {
	X1, Y1, X2, Y2 float32
}

// Width returns the horizontal extent of the box.
func (r Rect) Width() float32 { return r.X2 - r.X1 }

// Height returns the vertical extent of the box.
func (r Rect) Height() float32 { return r.Y2 - r.Y1 }

// Area returns the area of the box in square pixels.
func (r Rect) Area() float32 { return r.Width() * r.Height() }

// Valid reports whether the box has positive extent on both axes.
func (r Rect) Valid() bool { return r.X2 > r.X1 && r.Y2 > r.Y1 }

// CalculateIoU computes the Intersection over Union of two boxes.
//
// IoU = Area of Intersection / Area of Union, a value in [0, 1] used to
// decide whether a predicted box matches a ground-truth box. Identical
// boxes score 1.0; disjoint boxes score 0.0 (non-overlapping pairs never
// produce negative intersection areas).
//
// Arguments:
//   - r: The first rectangle.
//   - o: The other rectangle to compare against.
//
// Returns:
//   - float64: The IoU score between 0.0 and 1.0.
func CalculateIoU(r, o Rect) float64 {
	// Intersection corners: the overlap starts at the later of the two
	// starts and ends at the earlier of the two ends.
	ix1 := max(r.X1, o.X1)
	iy1 := max(r.Y1, o.Y1)
	ix2 := min(r.X2, o.X2)
	iy2 := min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := float64(interW) * float64(interH)

	// Inclusion-exclusion: Union(A, B) = Area(A) + Area(B) - Intersection(A, B).
	unionArea := float64(r.Area()) + float64(o.Area()) - interArea
	if unionArea <= 0 {
		return 0.0
	}

	return interArea / unionArea
}

// FromCenterForm converts a normalized center-form box (cx, cy, w, h in
// image-fraction units, as written by YOLO label files) to a pixel
// corner-form Rect for the given image dimensions.
func FromCenterForm(cx, cy, w, h float32, imageWidth, imageHeight int) Rect {
	fw := float32(imageWidth)
	fh := float32(imageHeight)
	return Rect{
		X1: (cx - w/2) * fw,
		Y1: (cy - h/2) * fh,
		X2: (cx + w/2) * fw,
		Y2: (cy + h/2) * fh,
	}
}
