package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default CropSize is 640", func(t *testing.T) {
		t.Parallel()
		if cfg.CropSize != 640 {
			t.Errorf("expected CropSize to be 640, got %d", cfg.CropSize)
		}
	})

	t.Run("default SquareSize is unset", func(t *testing.T) {
		t.Parallel()
		if cfg.SquareSize != 0 {
			t.Errorf("expected SquareSize to be 0, got %d", cfg.SquareSize)
		}
	})

	t.Run("default image extension is .tiff", func(t *testing.T) {
		t.Parallel()
		if !slices.Equal(cfg.ImageExts, []string{".tiff"}) {
			t.Errorf("expected [.tiff], got %v", cfg.ImageExts)
		}
	})

	t.Run("default overlay is blue png with thickness 2", func(t *testing.T) {
		t.Parallel()
		if cfg.OverlayExt != ".png" || cfg.Color != "#0000ff" || cfg.Thickness != 2 {
			t.Errorf("unexpected overlay defaults %q %q %d", cfg.OverlayExt, cfg.Color, cfg.Thickness)
		}
	})

	t.Run("default BatchSize is 1", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 1 {
			t.Errorf("expected BatchSize to be 1, got %d", cfg.BatchSize)
		}
	})

	t.Run("history is enabled in the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveHistory {
			t.Error("expected SaveHistory to be true")
		}
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})
}

func validAnnotateConfig() *Config {
	cfg := NewConfig()
	cfg.ImagePath = "img1.tiff"
	cfg.OutputDir = "out"
	cfg.SquareSize = 64
	return cfg
}

// TestConfigValidateAnnotate tests annotate validation.
func TestConfigValidateAnnotate(t *testing.T) {
	t.Parallel()

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()

		if err := validAnnotateConfig().ValidateAnnotate(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"missing image", func(c *Config) { c.ImagePath = "" }, ErrNoImage},
		{"missing output", func(c *Config) { c.OutputDir = "" }, ErrNoOutputDir},
		{"zero square size", func(c *Config) { c.SquareSize = 0 }, ErrInvalidSquareSize},
		{"negative square size", func(c *Config) { c.SquareSize = -3 }, ErrInvalidSquareSize},
		{"zero thickness", func(c *Config) { c.Thickness = 0 }, ErrInvalidThickness},
		{"bad color", func(c *Config) { c.Color = "blue" }, ErrInvalidColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validAnnotateConfig()
			tt.modify(cfg)
			err := cfg.ValidateAnnotate()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, ErrInputSelection) {
				t.Errorf("expected error to wrap ErrInputSelection, got %v", err)
			}
		})
	}

	t.Run("overlay extension is normalized", func(t *testing.T) {
		t.Parallel()

		cfg := validAnnotateConfig()
		cfg.OverlayExt = "jpg"
		if err := cfg.ValidateAnnotate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.OverlayExt != ".jpg" {
			t.Errorf("expected .jpg, got %q", cfg.OverlayExt)
		}
	})
}

func validExtractConfig(t *testing.T) *Config {
	t.Helper()
	root := t.TempDir()
	cfg := NewConfig()
	cfg.AnnotationDir = filepath.Join(root, "ann")
	cfg.ImageDir = filepath.Join(root, "img")
	cfg.OutputDir = filepath.Join(root, "out")
	for _, d := range []string{cfg.AnnotationDir, cfg.ImageDir} {
		if err := os.Mkdir(d, 0o750); err != nil {
			t.Fatalf("mkdir failed: %v", err)
		}
	}
	return cfg
}

// TestConfigValidateExtract tests extract validation.
func TestConfigValidateExtract(t *testing.T) {
	t.Parallel()

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()

		if err := validExtractConfig(t).ValidateExtract(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"missing annotations", func(c *Config) { c.AnnotationDir = "" }, ErrNoAnnotationDir},
		{"missing images", func(c *Config) { c.ImageDir = "" }, ErrNoImageDir},
		{"missing output", func(c *Config) { c.OutputDir = "" }, ErrNoOutputDir},
		{"nonexistent image dir", func(c *Config) { c.ImageDir = filepath.Join(c.ImageDir, "nope") }, ErrDirNotFound},
		{"zero crop size", func(c *Config) { c.CropSize = 0 }, ErrInvalidCropSize},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"json and markdown", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"no image extensions", func(c *Config) { c.ImageExts = []string{" "} }, ErrNoImageExt},
		{"unknown compression", func(c *Config) { c.TIFFCompression = "lzw" }, ErrInvalidCompression},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validExtractConfig(t)
			tt.modify(cfg)
			err := cfg.ValidateExtract()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, ErrInputSelection) {
				t.Errorf("expected error to wrap ErrInputSelection, got %v", err)
			}
		})
	}

	t.Run("file given as directory", func(t *testing.T) {
		t.Parallel()

		cfg := validExtractConfig(t)
		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, nil, 0o600); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		cfg.AnnotationDir = file
		if err := cfg.ValidateExtract(); !errors.Is(err, ErrNotDirectory) {
			t.Errorf("expected ErrNotDirectory, got %v", err)
		}
	})

	t.Run("extensions are normalized", func(t *testing.T) {
		t.Parallel()

		cfg := validExtractConfig(t)
		cfg.ImageExts = []string{"tif", ".tiff", ""}
		cfg.AnnotationExt = "txt"
		if err := cfg.ValidateExtract(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(cfg.ImageExts, []string{".tif", ".tiff"}) {
			t.Errorf("unexpected ImageExts %v", cfg.ImageExts)
		}
		if cfg.AnnotationExt != ".txt" {
			t.Errorf("unexpected AnnotationExt %q", cfg.AnnotationExt)
		}
	})
}

// TestApplyFile tests merging the configuration file into a Config.
func TestApplyFile(t *testing.T) {
	t.Parallel()

	t.Run("set values override defaults", func(t *testing.T) {
		t.Parallel()

		history := false
		cfg := NewConfig()
		cfg.ApplyFile(&File{
			Annotate: AnnotateSection{SquareSize: 64, Color: "#ff0000"},
			Extract: ExtractSection{
				CropSize:        256,
				ImageExts:       []string{".png"},
				Batch:           4,
				TIFFCompression: "none",
				History:         &history,
			},
		})

		if cfg.SquareSize != 64 || cfg.Color != "#ff0000" {
			t.Errorf("annotate section not applied: %d %q", cfg.SquareSize, cfg.Color)
		}
		if cfg.CropSize != 256 || cfg.BatchSize != 4 || cfg.TIFFCompression != "none" {
			t.Errorf("extract section not applied: %+v", cfg)
		}
		if !slices.Equal(cfg.ImageExts, []string{".png"}) {
			t.Errorf("unexpected ImageExts %v", cfg.ImageExts)
		}
		if cfg.SaveHistory {
			t.Error("expected history to be disabled")
		}
	})

	t.Run("zero values keep defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(&File{})
		if cfg.CropSize != DefaultCropSize || cfg.Thickness != DefaultThickness || !cfg.SaveHistory {
			t.Errorf("defaults changed: %+v", cfg)
		}
		cfg.ApplyFile(nil)
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.roipatch")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".roipatch")
		content := `annotate:
  square_size: 48
  overlay_ext: .jpg
extract:
  crop_size: 320
  image_exts: [.tif, .tiff]
  batch: 2
  history: false
`
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Annotate.SquareSize != 48 || cf.Annotate.OverlayExt != ".jpg" {
			t.Errorf("unexpected annotate section %+v", cf.Annotate)
		}
		if cf.Extract.CropSize != 320 || cf.Extract.Batch != 2 {
			t.Errorf("unexpected extract section %+v", cf.Extract)
		}
		if !slices.Equal(cf.Extract.ImageExts, []string{".tif", ".tiff"}) {
			t.Errorf("unexpected image_exts %v", cf.Extract.ImageExts)
		}
		if cf.Extract.History == nil || *cf.Extract.History {
			t.Error("expected history: false to be loaded")
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".roipatch")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestLoad tests config discovery and merging.
func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("explicit file is applied", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("extract:\n  crop_size: 128\n"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.CropSize != 128 {
			t.Errorf("expected crop size 128, got %d", cfg.CropSize)
		}
		if cfg.ConfigFilePath != configPath {
			t.Errorf("expected ConfigFilePath %q, got %q", configPath, cfg.ConfigFilePath)
		}
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		t.Parallel()

		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("annotate: {}"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})

	t.Run("searches the XDG config directory last", func(t *testing.T) {
		t.Parallel()

		paths := configSearchPaths()
		if len(paths) == 0 {
			t.Fatal("expected search paths")
		}
		want := filepath.Join(XDGConfigDir(), DefaultConfigFile)
		if got := paths[len(paths)-1]; got != want {
			t.Errorf("last search path = %q, want %q", got, want)
		}
		if slices.Index(paths, want) != len(paths)-1 {
			t.Errorf("XDG path must appear once, at the end: %v", paths)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{"data": XDGDataDir(), "config": XDGConfigDir()} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if !strings.HasSuffix(dir, AppName) {
				t.Errorf("expected %s dir to end with %q, got %q", name, AppName, dir)
			}
		})
	}
}

// TestNormalizeExt tests extension normalization.
func TestNormalizeExt(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":       "",
		"tiff":   ".tiff",
		".tiff":  ".tiff",
		" .PNG ": ".PNG",
	}
	for in, want := range tests {
		t.Run("input "+in, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeExt(in); got != want {
				t.Errorf("NormalizeExt(%q) = %q, want %q", in, got, want)
			}
		})
	}
}
