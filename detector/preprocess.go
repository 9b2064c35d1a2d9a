package detector

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// prepareInput fills the model input tensor with the image resized to
// size x size, channel-planar RGB, pixel values scaled to [0, 1].
func prepareInput(img image.Image, dst *ort.Tensor[float32], size int) error {
	data := dst.GetData()
	channelSize := size * size
	if len(data) < channelSize*3 {
		return errors.Errorf("input tensor holds %d floats, needs %d", len(data), channelSize*3)
	}
	red := data[0:channelSize]
	green := data[channelSize : channelSize*2]
	blue := data[channelSize*2 : channelSize*3]

	img = resize.Resize(uint(size), uint(size), img, resize.Lanczos3)

	i := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
			i++
		}
	}
	return nil
}
