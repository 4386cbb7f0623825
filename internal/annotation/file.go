package annotation

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/roipatch/internal/fsutil"
)

// ReadFile reads and decodes the annotation file at path. A malformed line
// is reported as a *MalformedRecordError carrying path.
func ReadFile(path string) ([]image.Point, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator's dataset
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation file: %w", err)
	}
	return DecodeFile(path, data)
}

// DecodeFile decodes data that was read from path.
func DecodeFile(path string, data []byte) ([]image.Point, error) {
	centers, err := Decode(string(data))
	if err != nil {
		var mre *MalformedRecordError
		if errors.As(err, &mre) {
			mre.Path = path
		}
		return nil, err
	}
	return centers, nil
}

// WriteFile writes centers to path, replacing any existing file atomically.
func WriteFile(path string, centers []image.Point) error {
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, Encode(centers))
		return err
	})
}

// PathFor returns the annotation file path for imagePath inside dir:
// the image's base name with FileExt.
func PathFor(dir, imagePath string) string {
	return filepath.Join(dir, BaseName(imagePath)+FileExt)
}

// BaseName returns the file name of path without directory and without its
// last extension. "scan.01.tiff" becomes "scan.01".
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
