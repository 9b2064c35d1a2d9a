package images

import (
	"image"

	"github.com/disintegration/imaging"
)

// Transform is an invertible geometric view of an image, applied before a
// detector call during multi-view consistency evaluation. Results are not
// re-aligned back into original coordinates; only counts and class
// histograms are compared across views.
type Transform struct {
	// Name identifies the transform in results and logs.
	Name string
	// Apply produces the transformed image. The input is never mutated.
	Apply func(img image.Image) image.Image
}

// Identity is the no-op transform; its detector run is the "regular"
// baseline every augmented run is compared against.
var Identity = Transform{
	Name:  "original",
	Apply: func(img image.Image) image.Image { return img },
}

// DefaultTransforms returns the standard multi-view set: identity,
// horizontal flip, vertical flip and a 90 degree rotation.
func DefaultTransforms() []Transform {
	return []Transform{
		Identity,
		{
			Name:  "flip_horizontal",
			Apply: func(img image.Image) image.Image { return imaging.FlipH(img) },
		},
		{
			Name:  "flip_vertical",
			Apply: func(img image.Image) image.Image { return imaging.FlipV(img) },
		},
		{
			Name:  "rotate_90",
			Apply: func(img image.Image) image.Image { return imaging.Rotate90(img) },
		},
	}
}
