package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// AmbiguousBaseNameError is returned by Scan when two files in the same
// directory share a base name, e.g. "img1.tif" and "img1.tiff".
type AmbiguousBaseNameError struct {
	Dir      string
	BaseName string
	Files    []string
}

// Error implements error.
func (e *AmbiguousBaseNameError) Error() string {
	return fmt.Sprintf("ambiguous base name %q in %s: %s", e.BaseName, e.Dir, strings.Join(e.Files, ", "))
}

// extFolder folds extensions so ".TIFF" matches ".tiff". Only extensions
// are folded; base names stay exactly as they are on disk.
var extFolder = cases.Fold()

// Scan lists the regular files in dir whose extension matches one of exts
// and returns a map from base name to file name. Extensions are compared
// case-insensitively and must include the leading dot.
func Scan(dir string, exts []string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	wanted := make([]string, len(exts))
	for i, e := range exts {
		wanted[i] = extFolder.String(e)
	}

	files := make(map[string]string)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext == "" || !slices.Contains(wanted, extFolder.String(ext)) {
			continue
		}

		base := strings.TrimSuffix(name, ext)
		if prev, ok := files[base]; ok {
			dup := []string{prev, name}
			slices.Sort(dup)
			return nil, &AmbiguousBaseNameError{Dir: dir, BaseName: base, Files: dup}
		}
		files[base] = name
	}
	return files, nil
}

// Names returns the sorted keys of a Scan result.
func Names(files map[string]string) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
