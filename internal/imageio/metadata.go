package imageio

import (
	"strconv"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// MetadataTags are the EXIF tags copied into pair reports.
var MetadataTags = []string{"Make", "Model", "DateTime", "Orientation"}

// ReadMetadata extracts the tags in MetadataTags from image bytes.
// Images without EXIF data yield an empty map.
func ReadMetadata(data []byte) map[string]string {
	meta := make(map[string]string)

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return meta
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return meta
	}

	for _, entry := range entries {
		if !isMetadataTag(entry.TagName) {
			continue
		}
		if _, seen := meta[entry.TagName]; seen {
			// IFD0 comes first; thumbnails repeat some tags.
			continue
		}
		meta[entry.TagName] = strings.TrimSpace(entry.Formatted)
	}
	return meta
}

func isMetadataTag(name string) bool {
	for _, t := range MetadataTags {
		if t == name {
			return true
		}
	}
	return false
}

// Orientation returns the EXIF orientation recorded in meta, or 1 when absent.
func Orientation(meta map[string]string) int {
	v, ok := meta["Orientation"]
	if !ok {
		return 1
	}
	// go-exif formats single-element arrays as "[6]".
	v = strings.Trim(v, "[] ")
	n, err := strconv.Atoi(v)
	if err != nil {
		return 1
	}
	return n
}
