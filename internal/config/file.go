package config

// AnnotateSection holds the annotate defaults of the configuration file.
type AnnotateSection struct {
	// SquareSize is the side length of overlay squares.
	SquareSize int `yaml:"square_size,omitempty"`

	// OverlayExt is the extension of the annotated overlay image, e.g. ".png".
	OverlayExt string `yaml:"overlay_ext,omitempty"`

	// Color is the overlay outline color as "#rrggbb".
	Color string `yaml:"color,omitempty"`

	// Thickness is the overlay outline width in pixels.
	Thickness int `yaml:"thickness,omitempty"`
}

// ExtractSection holds the extract defaults of the configuration file.
type ExtractSection struct {
	// CropSize is the side length of extracted patches.
	CropSize int `yaml:"crop_size,omitempty"`

	// ImageExts are the source image extensions to pair.
	ImageExts []string `yaml:"image_exts,omitempty"`

	// AnnotationExt is the extension of coordinate files.
	AnnotationExt string `yaml:"annotation_ext,omitempty"`

	// Batch is the number of pairs processed concurrently.
	Batch int `yaml:"batch,omitempty"`

	// TIFFCompression is "deflate" or "none".
	TIFFCompression string `yaml:"tiff_compression,omitempty"`

	// History enables the run history database. Unset means enabled.
	History *bool `yaml:"history,omitempty"`
}

// File represents the structure of the .roipatch configuration file.
// Zero values mean "not set" and leave the built-in defaults in place.
type File struct {
	Annotate AnnotateSection `yaml:"annotate,omitempty"`
	Extract  ExtractSection  `yaml:"extract,omitempty"`
}
