package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/roipatch/internal/annotation"
	"github.com/nao1215/roipatch/internal/config"
	"github.com/nao1215/roipatch/internal/imageio"
	"github.com/nao1215/roipatch/internal/roi"
)

// NewAnnotateCmd creates the annotate command.
func NewAnnotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Mark ROI centers on an image",
		Long: `Annotate reads click events for one image and keeps the ordered list of
ROI centers. Every change redraws all squares on a clean copy of the image.
"save" writes <output>/<name>.txt and <output>/<name><overlay-ext>.

Events are read one per line from stdin or --events:
  primary X Y     add a center (fractional positions are truncated)
  primary -       a click that missed the image (ignored)
  secondary       remove the most recent center
  save            write the coordinate file and the annotated image
  quit            stop

Examples:
  # Annotate interactively
  roipatch annotate --image scans/img1.tiff --output ann --size 64

  # Replay recorded clicks
  roipatch annotate -i scans/img1.tiff -o ann -s 64 --events clicks.txt

  # Continue a saved session
  roipatch annotate -i scans/img1.tiff -o ann -s 64 --resume`,
		Args: cobra.NoArgs,
		RunE: runAnnotateCmd,
	}

	cmd.Flags().StringP("image", "i", "", "Image to annotate")
	cmd.Flags().StringP("output", "o", "", "Directory for the coordinate file and annotated image")
	cmd.Flags().IntP("size", "s", 0, "Side length of the ROI squares in pixels")
	cmd.Flags().StringP("events", "e", "", "Read events from file instead of stdin")
	cmd.Flags().Bool("resume", false, "Start from the centers in an existing coordinate file")
	cmd.Flags().String("overlay-ext", config.DefaultOverlayExt, "Format of the annotated image")
	cmd.Flags().String("color", config.DefaultColor, "Square outline color (#rrggbb)")
	cmd.Flags().Int("thickness", config.DefaultThickness, "Square outline width in pixels")

	return cmd
}

// runAnnotateCmd executes the annotate command.
func runAnnotateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildAnnotateConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateAnnotate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := setupLogger(cmd, cfg.Verbose)
	if err != nil {
		return err
	}

	src, err := imageio.Load(cfg.ImagePath)
	if err != nil {
		return err
	}
	outlineColor, err := imageio.ParseColor(cfg.Color)
	if err != nil {
		return err
	}

	store, err := resumeStore(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	session, err := roi.NewSession(roi.SessionOptions{
		Bounds:     src.Image.Bounds(),
		SquareSize: cfg.SquareSize,
		OutputDir:  cfg.OutputDir,
		BaseName:   annotation.BaseName(cfg.ImagePath),
		OverlayExt: cfg.OverlayExt,
		Canvas:     newImageCanvas(src.Image, outlineColor, cfg.Thickness, out),
		Store:      store,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	logger.Info("annotation session started",
		"image", cfg.ImagePath,
		"width", src.Width(),
		"height", src.Height(),
		"square_size", cfg.SquareSize,
		"centers", store.Len(),
	)

	events, closeEvents, err := openEvents(cmd, cfg.EventsFile)
	if err != nil {
		return err
	}
	defer closeEvents()

	loop := &eventLoop{session: session, out: out, logger: logger}
	return loop.run(events)
}

// buildAnnotateConfig creates a Config from the configuration file and
// explicitly set flags.
func buildAnnotateConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	f := &flagSetter{cmd: cmd}
	f.String("image", &cfg.ImagePath)
	f.String("output", &cfg.OutputDir)
	f.Int("size", &cfg.SquareSize)
	f.String("events", &cfg.EventsFile)
	f.Bool("resume", &cfg.Resume)
	f.String("overlay-ext", &cfg.OverlayExt)
	f.String("color", &cfg.Color)
	f.Int("thickness", &cfg.Thickness)
	if f.err != nil {
		return nil, f.err
	}
	return cfg, nil
}

// resumeStore returns the store a session starts from. With --resume the
// existing coordinate file is loaded; a missing file starts empty.
func resumeStore(cfg *config.Config) (*roi.Store, error) {
	if !cfg.Resume {
		return roi.NewStore(), nil
	}

	path := annotation.PathFor(cfg.OutputDir, cfg.ImagePath)
	centers, err := annotation.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return roi.NewStore(), nil
		}
		return nil, fmt.Errorf("failed to resume from %s: %w", path, err)
	}
	return roi.NewStoreFrom(centers), nil
}

// openEvents returns the event source: the named file, or the command's
// input when path is empty.
func openEvents(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path) //nolint:gosec // user-provided events file
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open events file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
