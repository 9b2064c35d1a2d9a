package util

import (
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ListImages reads the names of all image files in a directory, sorted
// by file name.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []string: Sorted image file paths.
// - error: Error if the directory cannot be read.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading image directory %s", dir)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".bmp":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// LoadImage decodes one image file.
//
// Arguments:
// - path: Path to the image file.
//
// Returns:
// - image.Image: The decoded image.
// - error: Error if the file cannot be read or decoded.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return img, nil
}

// LabelPathFor maps an image path to its annotation file: the image
// stem with a .txt extension inside labelDir. When labelDir is empty
// the label sits next to the image.
func LabelPathFor(imagePath, labelDir string) string {
	base := filepath.Base(imagePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if labelDir == "" {
		labelDir = filepath.Dir(imagePath)
	}
	return filepath.Join(labelDir, stem+".txt")
}
