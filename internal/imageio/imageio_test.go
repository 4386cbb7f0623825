package imageio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/nao1215/roipatch/internal/model"
)

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// gradient returns a w x h image whose pixels encode their coordinates.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 7, A: 255}) //nolint:gosec // small test sizes
		}
	}
	return img
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

// TestLoad tests image loading and its error type.
func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("decodes png", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "img.png")
		writePNG(t, path, gradient(30, 20))

		src, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if src.Width() != 30 || src.Height() != 20 {
			t.Errorf("expected 30x20, got %dx%d", src.Width(), src.Height())
		}
		if len(src.Data) == 0 {
			t.Error("expected raw bytes to be kept")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "missing.tiff")
		_, err := Load(path)

		var le *ImageLoadError
		if !errors.As(err, &le) {
			t.Fatalf("expected ImageLoadError, got %v", err)
		}
		if le.Path != path {
			t.Errorf("expected path %q, got %q", path, le.Path)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected wrapped ErrNotExist, got %v", err)
		}
	})

	t.Run("corrupt data", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.tiff")
		if err := os.WriteFile(path, []byte("not an image"), 0o600); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		_, err := Load(path)
		var le *ImageLoadError
		if !errors.As(err, &le) {
			t.Fatalf("expected ImageLoadError, got %v", err)
		}
	})
}

// TestWriteFile tests encoding by extension.
func TestWriteFile(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{".tiff", ".tif", ".png", ".TIFF"} {
		t.Run("round trip "+ext, func(t *testing.T) {
			t.Parallel()

			src := gradient(16, 12)
			path := filepath.Join(t.TempDir(), "out"+ext)
			if err := WriteFile(path, src, DefaultEncodeOptions()); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}

			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if got.Image.Bounds() != src.Bounds() {
				t.Fatalf("bounds %v, want %v", got.Image.Bounds(), src.Bounds())
			}
			if c := color.NRGBAModel.Convert(got.Image.At(5, 3)).(color.NRGBA); c != src.NRGBAAt(5, 3) {
				t.Errorf("pixel (5,3) = %v, want %v", c, src.NRGBAAt(5, 3))
			}
		})
	}

	t.Run("uncompressed tiff", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "raw.tiff")
		if err := WriteFile(path, gradient(8, 8), EncodeOptions{TIFFCompression: tiff.Uncompressed}); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		if _, err := Load(path); err != nil {
			t.Errorf("Load failed: %v", err)
		}
	})

	t.Run("unknown extension", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "out.xyz")
		if err := WriteFile(path, gradient(4, 4), DefaultEncodeOptions()); err == nil {
			t.Fatal("expected error for unknown extension")
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected no file to be left behind, stat err = %v", err)
		}
	})
}

// TestCrop tests that crops copy the requested pixels.
func TestCrop(t *testing.T) {
	t.Parallel()

	src := gradient(50, 40)
	got := Crop(src, image.Rect(10, 5, 20, 25))

	if got.Bounds() != image.Rect(0, 0, 10, 20) {
		t.Fatalf("unexpected bounds %v", got.Bounds())
	}
	if got.NRGBAAt(0, 0) != src.NRGBAAt(10, 5) {
		t.Errorf("origin pixel = %v, want %v", got.NRGBAAt(0, 0), src.NRGBAAt(10, 5))
	}
	if got.NRGBAAt(9, 19) != src.NRGBAAt(19, 24) {
		t.Errorf("last pixel = %v, want %v", got.NRGBAAt(9, 19), src.NRGBAAt(19, 24))
	}
}

// TestParseCompression tests compression names.
func TestParseCompression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    tiff.CompressionType
		wantErr bool
	}{
		{"", tiff.Deflate, false},
		{"deflate", tiff.Deflate, false},
		{"NONE", tiff.Uncompressed, false},
		{"lzw", tiff.Uncompressed, true},
	}
	for _, tt := range tests {
		t.Run("input "+tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseCompression(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedCompression) {
					t.Errorf("expected ErrUnsupportedCompression, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseCompression(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
}

// TestParseColor tests hex color parsing.
func TestParseColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{in: "#0000ff", want: color.NRGBA{B: 255, A: 255}},
		{in: "ff8000", want: color.NRGBA{R: 255, G: 128, A: 255}},
		{in: " #FFFFFF ", want: white},
		{in: "#fff", wantErr: true},
		{in: "#gggggg", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run("input "+tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseColor(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidColor) {
					t.Errorf("expected ErrInvalidColor, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseColor(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
}

// TestComposite tests overlay drawing.
func TestComposite(t *testing.T) {
	t.Parallel()

	blue := DefaultColor
	overlay := model.Overlay{
		Size: 8,
		Squares: []model.Square{
			{Center: image.Pt(10, 10), TopLeft: image.Pt(6, 6), BottomRight: image.Pt(14, 14)},
		},
	}

	t.Run("draws outline and leaves interior", func(t *testing.T) {
		t.Parallel()

		base := solid(20, 20, white)
		got := Composite(base, overlay, blue, 1)

		for _, p := range []image.Point{{6, 6}, {10, 6}, {14, 14}, {6, 12}, {14, 9}} {
			if got.NRGBAAt(p.X, p.Y) != blue {
				t.Errorf("expected outline at %v, got %v", p, got.NRGBAAt(p.X, p.Y))
			}
		}
		for _, p := range []image.Point{{10, 10}, {7, 7}, {15, 15}, {5, 6}} {
			if got.NRGBAAt(p.X, p.Y) != white {
				t.Errorf("expected untouched pixel at %v, got %v", p, got.NRGBAAt(p.X, p.Y))
			}
		}
	})

	t.Run("base image is not modified", func(t *testing.T) {
		t.Parallel()

		base := solid(20, 20, white)
		_ = Composite(base, overlay, blue, 2)
		if base.NRGBAAt(6, 6) != white {
			t.Error("base image was modified")
		}
	})

	t.Run("empty overlay reproduces base", func(t *testing.T) {
		t.Parallel()

		base := gradient(20, 20)
		_ = Composite(base, overlay, blue, 2)
		got := Composite(base, model.Overlay{Size: 8}, blue, 2)
		if !bytes.Equal(got.Pix, base.Pix) {
			t.Error("expected redraw without squares to match base")
		}
	})

	t.Run("thickness widens stroke", func(t *testing.T) {
		t.Parallel()

		got := Composite(solid(20, 20, white), overlay, blue, 2)
		if got.NRGBAAt(10, 5) != blue || got.NRGBAAt(10, 6) != blue {
			t.Error("expected two pixel stroke on top edge")
		}
		if got.NRGBAAt(10, 7) != white {
			t.Error("stroke is wider than requested")
		}
	})

	t.Run("squares past the edge are clipped", func(t *testing.T) {
		t.Parallel()

		edge := model.Overlay{Size: 8, Squares: []model.Square{
			{Center: image.Pt(0, 0), TopLeft: image.Pt(-4, -4), BottomRight: image.Pt(4, 4)},
		}}
		got := Composite(solid(10, 10, white), edge, blue, 1)
		if got.NRGBAAt(4, 0) != blue || got.NRGBAAt(0, 4) != blue {
			t.Error("expected visible part of the square to be drawn")
		}
	})
}

// TestReadMetadata tests EXIF extraction on images without EXIF.
func TestReadMetadata(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(4, 4)); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}

	meta := ReadMetadata(buf.Bytes())
	if len(meta) != 0 {
		t.Errorf("expected no tags, got %v", meta)
	}
	if got := Orientation(meta); got != 1 {
		t.Errorf("expected default orientation 1, got %d", got)
	}
}

// TestOrientation tests orientation parsing.
func TestOrientation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  int
	}{
		{"1", 1},
		{"[6]", 6},
		{"8", 8},
		{"garbage", 1},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			if got := Orientation(map[string]string{"Orientation": tt.value}); got != tt.want {
				t.Errorf("Orientation(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}
