// Package dataset matches annotation files to source images by base name.
//
// Pairing is all or nothing: when the two sides do not list exactly the
// same base names, no pair is produced and the caller must stop before
// extracting anything.
package dataset

import (
	"fmt"
	"slices"
	"strings"
)

// MismatchError reports base names present on only one side.
// Both slices are sorted.
type MismatchError struct {
	// MissingInAnnotations are image base names without an annotation file.
	MissingInAnnotations []string

	// MissingInImages are annotation base names without a source image.
	MissingInImages []string
}

// Error implements error with one itemised line per side.
func (e *MismatchError) Error() string {
	var sb strings.Builder
	sb.WriteString("file name mismatch between annotations and images")
	fmt.Fprintf(&sb, "\n  missing annotation files (%d): %s", len(e.MissingInAnnotations), formatNames(e.MissingInAnnotations))
	fmt.Fprintf(&sb, "\n  missing images (%d): %s", len(e.MissingInImages), formatNames(e.MissingInImages))
	return sb.String()
}

func formatNames(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// Pair returns the base names common to annotations and images, sorted
// lexicographically. Names are compared byte for byte with no case folding
// or Unicode normalization. Duplicates in either input are ignored.
//
// If the two sets differ, Pair returns a *MismatchError and no names.
func Pair(annotations, images []string) ([]string, error) {
	a := toSet(annotations)
	i := toSet(images)

	missingInA := difference(i, a)
	missingInI := difference(a, i)
	if len(missingInA) > 0 || len(missingInI) > 0 {
		return nil, &MismatchError{
			MissingInAnnotations: missingInA,
			MissingInImages:      missingInI,
		}
	}

	common := make([]string, 0, len(a))
	for name := range a {
		common = append(common, name)
	}
	slices.Sort(common)
	return common, nil
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// difference returns the sorted elements of a that are not in b.
func difference(a, b map[string]struct{}) []string {
	out := make([]string, 0)
	for name := range a {
		if _, ok := b[name]; !ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
