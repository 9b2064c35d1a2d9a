package evaluation

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/cytoscreen/go-screening/images"
)

// LoadLabels reads a YOLO-format ground-truth file: one whitespace-
// separated line per box, `classId cx cy w h`, all coordinates normalized
// to image-fraction units. Boxes are denormalized against the given image
// dimensions and converted from center-form to corner-form, so they are
// directly comparable to detector output.
//
// Arguments:
//   - path: The label file to read.
//   - imageWidth: Pixel width of the labeled image.
//   - imageHeight: Pixel height of the labeled image.
//
// Returns:
//   - []GroundTruth: The parsed boxes, in file order.
//   - error: An error if the file cannot be read or a line is malformed.
func LoadLabels(path string, imageWidth, imageHeight int) ([]GroundTruth, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening label file")
	}
	defer f.Close()

	var boxes []GroundTruth
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 5 {
			return nil, errors.Errorf("%s:%d: expected 5 fields, got %d", path, lineNo, len(fields))
		}

		classID, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d: class id", path, lineNo)
		}

		coords := make([]float32, 4)
		for i, field := range fields[1:] {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d: coordinate %d", path, lineNo, i)
			}
			coords[i] = float32(v)
		}

		boxes = append(boxes, GroundTruth{
			Box:     images.FromCenterForm(coords[0], coords[1], coords[2], coords[3], imageWidth, imageHeight),
			ClassID: classID,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading label file")
	}

	return boxes, nil
}
