package detector

import (
	"sort"

	"github.com/cytoscreen/go-screening/detection"
	"github.com/cytoscreen/go-screening/images"
)

// decodeOutput converts the flat model output into raw detections. Each
// row is [cx, cy, w, h, objectness, class scores...], box coordinates in
// model-input pixels. Rows below confThreshold are dropped and the rest
// are mapped back onto the original image.
func decodeOutput(data []float32, numClasses, inputSize, imageWidth, imageHeight int, confThreshold float32) []detection.RawDetection {
	cols := 5 + numClasses
	if cols <= 5 || len(data) < cols {
		return nil
	}
	rows := len(data) / cols

	scaleX := float32(imageWidth) / float32(inputSize)
	scaleY := float32(imageHeight) / float32(inputSize)

	var dets []detection.RawDetection
	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]

		objectness := row[4]
		if objectness < confThreshold {
			continue
		}

		cx := row[0] * scaleX
		cy := row[1] * scaleY
		w := row[2] * scaleX
		h := row[3] * scaleY

		box := images.Rect{
			X1: clamp(cx-w/2, 0, float32(imageWidth)),
			Y1: clamp(cy-h/2, 0, float32(imageHeight)),
			X2: clamp(cx+w/2, 0, float32(imageWidth)),
			Y2: clamp(cy+h/2, 0, float32(imageHeight)),
		}
		if !box.Valid() {
			continue
		}

		scores := make([]float32, numClasses)
		copy(scores, row[5:])

		dets = append(dets, detection.RawDetection{
			Box:         box,
			Objectness:  objectness,
			ClassScores: scores,
		})
	}
	return dets
}

// suppressOverlaps is greedy non-maximum suppression by objectness.
func suppressOverlaps(dets []detection.RawDetection, iouThreshold float64) []detection.RawDetection {
	if len(dets) <= 1 {
		return dets
	}

	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Objectness > dets[j].Objectness
	})

	kept := make([]detection.RawDetection, 0, len(dets))
	for _, candidate := range dets {
		overlaps := false
		for _, k := range kept {
			if images.CalculateIoU(candidate.Box, k.Box) > iouThreshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
