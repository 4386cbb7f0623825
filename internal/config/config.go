package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/nao1215/roipatch/internal/imageio"
	"github.com/nao1215/roipatch/internal/patch"
)

// Default configuration values.
const (
	// DefaultCropSize is the side length of extracted patches.
	// It is independent of the square size used while annotating.
	DefaultCropSize = patch.DefaultCropSize

	// DefaultOverlayExt is the extension of the annotated overlay image.
	DefaultOverlayExt = ".png"

	// DefaultColor is the outline color of overlay squares.
	DefaultColor = "#0000ff"

	// DefaultThickness is the outline width of overlay squares in pixels.
	DefaultThickness = imageio.DefaultThickness

	// DefaultAnnotationExt is the extension of coordinate files.
	DefaultAnnotationExt = ".txt"

	// DefaultImageExt is the extension of source images searched for by extract.
	DefaultImageExt = ".tiff"

	// DefaultBatchSize processes pairs one at a time.
	DefaultBatchSize = 1

	// DefaultTIFFCompression is the compression used for TIFF patches.
	DefaultTIFFCompression = imageio.CompressionDeflate

	// AppName is the application name used for XDG directory paths.
	AppName = "roipatch"
)

// Config holds all configuration options for roipatch.
// It is populated from defaults, then the configuration file, then
// explicitly set command-line flags, and passed down to the commands.
type Config struct {
	// Verbose enables debug level logging.
	Verbose bool

	// ConfigFilePath is the path given with --config, if any.
	ConfigFilePath string

	// OutputDir is where annotate writes the coordinate file and overlay
	// image, and where extract writes patches.
	OutputDir string

	// ImagePath is the image to annotate.
	ImagePath string

	// SquareSize is the side length of the overlay squares drawn while
	// annotating. There is no default; it must come from a flag or the
	// configuration file.
	SquareSize int

	// EventsFile is the file click events are read from. Empty means stdin.
	EventsFile string

	// Resume seeds the session with the centers of an existing coordinate file.
	Resume bool

	// OverlayExt selects the format of the annotated overlay image.
	OverlayExt string

	// Color is the overlay outline color as "#rrggbb".
	Color string

	// Thickness is the overlay outline width in pixels.
	Thickness int

	// AnnotationDir is the directory of coordinate files read by extract.
	AnnotationDir string

	// ImageDir is the directory of source images read by extract.
	ImageDir string

	// CropSize is the side length of extracted patches.
	CropSize int

	// ImageExts are the source image extensions extract pairs with
	// coordinate files. Matching is case-insensitive.
	ImageExts []string

	// AnnotationExt is the extension of coordinate files.
	AnnotationExt string

	// BatchSize is the number of pairs processed concurrently.
	BatchSize int

	// TIFFCompression is "deflate" or "none".
	TIFFCompression string

	// JSONReport selects the JSON run report. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects the Markdown run report.
	MarkdownReport bool

	// ReportFile writes the run report to a file instead of stdout.
	ReportFile string

	// SaveHistory stores each extract run in the history database.
	SaveHistory bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/roipatch on Linux).
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		OverlayExt:      DefaultOverlayExt,
		Color:           DefaultColor,
		Thickness:       DefaultThickness,
		CropSize:        DefaultCropSize,
		ImageExts:       []string{DefaultImageExt},
		AnnotationExt:   DefaultAnnotationExt,
		BatchSize:       DefaultBatchSize,
		TIFFCompression: DefaultTIFFCompression,
		SaveHistory:     true,
		DBDir:           XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for roipatch.
// On Linux: ~/.local/share/roipatch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for roipatch.
// On Linux: ~/.config/roipatch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// NormalizeExt returns ext with a leading dot, or "" for an empty ext.
func NormalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

// ApplyFile copies every value set in f onto c.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}

	a := f.Annotate
	if a.SquareSize != 0 {
		c.SquareSize = a.SquareSize
	}
	if a.OverlayExt != "" {
		c.OverlayExt = a.OverlayExt
	}
	if a.Color != "" {
		c.Color = a.Color
	}
	if a.Thickness != 0 {
		c.Thickness = a.Thickness
	}

	e := f.Extract
	if e.CropSize != 0 {
		c.CropSize = e.CropSize
	}
	if len(e.ImageExts) > 0 {
		c.ImageExts = e.ImageExts
	}
	if e.AnnotationExt != "" {
		c.AnnotationExt = e.AnnotationExt
	}
	if e.Batch != 0 {
		c.BatchSize = e.Batch
	}
	if e.TIFFCompression != "" {
		c.TIFFCompression = e.TIFFCompression
	}
	if e.History != nil {
		c.SaveHistory = *e.History
	}
}

// ValidateAnnotate checks the options used by the annotate command.
// Extensions are normalized in place.
func (c *Config) ValidateAnnotate() error {
	if c.ImagePath == "" {
		return ErrNoImage
	}
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}
	if c.SquareSize <= 0 {
		return ErrInvalidSquareSize
	}
	if c.Thickness <= 0 {
		return ErrInvalidThickness
	}
	if _, err := imageio.ParseColor(c.Color); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidColor, err)
	}
	c.OverlayExt = NormalizeExt(c.OverlayExt)
	if c.OverlayExt == "" {
		c.OverlayExt = DefaultOverlayExt
	}
	return nil
}

// ValidateExtract checks the options used by the extract command.
// Extensions are normalized in place.
func (c *Config) ValidateExtract() error {
	if c.AnnotationDir == "" {
		return ErrNoAnnotationDir
	}
	if c.ImageDir == "" {
		return ErrNoImageDir
	}
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}
	for _, dir := range []string{c.AnnotationDir, c.ImageDir} {
		if err := requireDir(dir); err != nil {
			return err
		}
	}
	if c.CropSize <= 0 {
		return ErrInvalidCropSize
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if _, err := imageio.ParseCompression(c.TIFFCompression); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCompression, err)
	}

	exts := make([]string, 0, len(c.ImageExts))
	for _, e := range c.ImageExts {
		if e = NormalizeExt(e); e != "" {
			exts = append(exts, e)
		}
	}
	if len(exts) == 0 {
		return ErrNoImageExt
	}
	c.ImageExts = exts

	c.AnnotationExt = NormalizeExt(c.AnnotationExt)
	if c.AnnotationExt == "" {
		c.AnnotationExt = DefaultAnnotationExt
	}
	return nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDirNotFound, path)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}
	return nil
}
