package pipeline

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/roipatch/internal/annotation"
	"github.com/nao1215/roipatch/internal/imageio"
	"github.com/nao1215/roipatch/internal/model"
	"github.com/nao1215/roipatch/internal/patch"
)

// Step names as they appear in reports.
const (
	StepLoadImage         = "load-image"
	StepReadMetadata      = "read-metadata"
	StepDecodeAnnotations = "decode-annotations"
	StepCropPatches       = "crop-patches"
	StepCommitPatches     = "commit-patches"
)

// LoadImageStep decodes the source image of the pair.
// A failure is reported as *imageio.ImageLoadError.
type LoadImageStep struct{}

// NewLoadImageStep creates a new image loading step.
func NewLoadImageStep() *LoadImageStep {
	return &LoadImageStep{}
}

// Name returns the step name.
func (s *LoadImageStep) Name() string {
	return StepLoadImage
}

// Do executes the image loading step.
func (s *LoadImageStep) Do(_ context.Context, job *Job) error {
	src, err := imageio.Load(job.Report.ImagePath)
	if err != nil {
		return err
	}
	job.Source = src
	job.Report.Width = src.Width()
	job.Report.Height = src.Height()
	return nil
}

// ReadMetadataStep copies selected EXIF tags of the source image into the
// report. Missing EXIF data is not an error.
type ReadMetadataStep struct {
	logger *slog.Logger
}

// NewReadMetadataStep creates a new metadata step.
func NewReadMetadataStep(logger *slog.Logger) *ReadMetadataStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadMetadataStep{logger: logger}
}

// Name returns the step name.
func (s *ReadMetadataStep) Name() string {
	return StepReadMetadata
}

// Do executes the metadata step.
func (s *ReadMetadataStep) Do(_ context.Context, job *Job) error {
	if job.Source == nil {
		return fmt.Errorf("%s: no source image loaded", StepReadMetadata)
	}
	meta := imageio.ReadMetadata(job.Source.Data)
	for k, v := range meta {
		job.Report.Metadata[k] = v
	}

	// Centers refer to the stored pixel grid, not the displayed one.
	if o := imageio.Orientation(meta); o != 1 {
		s.logger.Warn("image has non-default EXIF orientation; coordinates use the stored pixel grid",
			"pair", job.Report.BaseName,
			"orientation", o,
		)
	}
	return nil
}

// DecodeAnnotationsStep reads the annotation file, records its digest and
// decodes the centers. A malformed file fails the pair with
// *annotation.MalformedRecordError.
type DecodeAnnotationsStep struct{}

// NewDecodeAnnotationsStep creates a new annotation decoding step.
func NewDecodeAnnotationsStep() *DecodeAnnotationsStep {
	return &DecodeAnnotationsStep{}
}

// Name returns the step name.
func (s *DecodeAnnotationsStep) Name() string {
	return StepDecodeAnnotations
}

// Do executes the annotation decoding step.
func (s *DecodeAnnotationsStep) Do(_ context.Context, job *Job) error {
	path := job.Report.AnnotationPath
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the dataset scan
	if err != nil {
		return fmt.Errorf("failed to read annotation file %s: %w", path, err)
	}

	sum := sha3.Sum256(data)
	job.Report.AnnotationDigest = hex.EncodeToString(sum[:])

	centers, err := annotation.DecodeFile(path, data)
	if err != nil {
		return err
	}
	job.Report.Centers = centers
	return nil
}

// CropPatchesStep cuts one patch per center and writes it into a staging
// directory inside the output directory.
type CropPatchesStep struct {
	cropSize   int
	encodeOpts imageio.EncodeOptions
	logger     *slog.Logger
}

// CropPatchesStepOption configures a CropPatchesStep.
type CropPatchesStepOption func(*CropPatchesStep)

// WithCropEncodeOptions sets how patches are encoded.
func WithCropEncodeOptions(opts imageio.EncodeOptions) CropPatchesStepOption {
	return func(s *CropPatchesStep) {
		s.encodeOpts = opts
	}
}

// WithCropLogger sets a custom logger for the crop step.
func WithCropLogger(logger *slog.Logger) CropPatchesStepOption {
	return func(s *CropPatchesStep) {
		s.logger = logger
	}
}

// NewCropPatchesStep creates a new crop step with the given patch side length.
// Non-positive sizes fall back to patch.DefaultCropSize.
func NewCropPatchesStep(cropSize int, opts ...CropPatchesStepOption) *CropPatchesStep {
	if cropSize <= 0 {
		cropSize = patch.DefaultCropSize
	}
	s := &CropPatchesStep{
		cropSize:   cropSize,
		encodeOpts: imageio.DefaultEncodeOptions(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CropPatchesStep) Name() string {
	return StepCropPatches
}

// Do executes the crop step. Centers are processed strictly in file order;
// patch numbering follows the position in the file even when a patch is
// skipped for being empty.
func (s *CropPatchesStep) Do(_ context.Context, job *Job) error {
	if job.Source == nil {
		return fmt.Errorf("%s: no source image loaded", StepCropPatches)
	}
	report := job.Report

	if err := os.MkdirAll(job.OutputDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", job.OutputDir, err)
	}
	staging, err := os.MkdirTemp(job.OutputDir, ".staging-"+report.BaseName+"-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	job.StagingDir = staging

	ext := filepath.Ext(report.ImagePath)
	w, h := job.Source.Width(), job.Source.Height()
	report.Patches = make([]model.PatchRecord, 0, len(report.Centers))

	for idx, c := range report.Centers {
		box := patch.Compute(c, s.cropSize, w, h)
		rec := model.PatchRecord{
			Index:   idx + 1,
			Center:  c,
			Name:    patch.Name(report.BaseName, idx, ext),
			Box:     box.Rect,
			Clamped: box.Clamped,
			Empty:   box.Empty(),
		}
		report.Patches = append(report.Patches, rec)

		if rec.Empty {
			s.logger.Warn("center lies outside the image; patch skipped",
				"pair", report.BaseName,
				"index", rec.Index,
				"x", c.X,
				"y", c.Y,
			)
			continue
		}

		img := imageio.Crop(job.Source.Image, box.Rect)
		if err := imageio.WriteFile(filepath.Join(staging, rec.Name), img, s.encodeOpts); err != nil {
			return fmt.Errorf("failed to write patch %s: %w", rec.Name, err)
		}
	}
	return nil
}

// CommitPatchesStep moves staged patches into the output directory.
// A patch that replaces a file from an earlier run first moves that file
// into the staging directory. If a move fails, the patches already moved
// for the pair are removed and the replaced files are put back.
type CommitPatchesStep struct{}

// NewCommitPatchesStep creates a new commit step.
func NewCommitPatchesStep() *CommitPatchesStep {
	return &CommitPatchesStep{}
}

// Name returns the step name.
func (s *CommitPatchesStep) Name() string {
	return StepCommitPatches
}

// committedPatch is one patch moved into the output directory.
type committedPatch struct {
	dst    string
	backup string // previous file at dst, or "" if there was none
}

// Do executes the commit step.
func (s *CommitPatchesStep) Do(_ context.Context, job *Job) error {
	if job.StagingDir == "" {
		return fmt.Errorf("%s: nothing staged", StepCommitPatches)
	}

	committed := make([]committedPatch, 0, len(job.Report.Patches))
	for _, rec := range job.Report.Patches {
		if rec.Empty {
			continue
		}
		c, err := commitPatch(job.StagingDir, job.OutputDir, rec.Name)
		if err != nil {
			rollback(committed)
			return fmt.Errorf("failed to commit patch %s: %w", rec.Name, err)
		}
		committed = append(committed, c)
	}

	if err := job.Cleanup(); err != nil {
		return err
	}
	job.Report.Status = model.StatusExtracted
	return nil
}

// commitPatch moves name from staging to outputDir, keeping any file it
// replaces in staging under a ".prev" suffix.
func commitPatch(staging, outputDir, name string) (committedPatch, error) {
	c := committedPatch{dst: filepath.Join(outputDir, name)}

	if _, err := os.Lstat(c.dst); err == nil {
		c.backup = filepath.Join(staging, name+".prev")
		if err := os.Rename(c.dst, c.backup); err != nil {
			return committedPatch{}, fmt.Errorf("failed to move aside %s: %w", c.dst, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return committedPatch{}, err
	}

	if err := os.Rename(filepath.Join(staging, name), c.dst); err != nil {
		if c.backup != "" {
			_ = os.Rename(c.backup, c.dst) //nolint:errcheck // best-effort restore
		}
		return committedPatch{}, err
	}
	return c, nil
}

// rollback undoes committed moves in reverse order.
func rollback(committed []committedPatch) {
	for i := len(committed) - 1; i >= 0; i-- {
		c := committed[i]
		_ = os.Remove(c.dst) //nolint:errcheck // best-effort rollback
		if c.backup != "" {
			_ = os.Rename(c.backup, c.dst) //nolint:errcheck // best-effort restore
		}
	}
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// CropSize is the side length of each patch.
	CropSize int

	// EncodeOptions controls how patches are written.
	EncodeOptions imageio.EncodeOptions

	// Logger receives step warnings.
	Logger *slog.Logger
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineCropSize sets the patch side length.
func WithPipelineCropSize(size int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CropSize = size
	}
}

// WithPipelineEncodeOptions sets how patches are encoded.
func WithPipelineEncodeOptions(opts imageio.EncodeOptions) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.EncodeOptions = opts
	}
}

// WithPipelineStepLogger sets the logger passed to the steps.
func WithPipelineStepLogger(logger *slog.Logger) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Logger = logger
	}
}

// DefaultPipeline creates a pipeline with the five extraction steps in order.
func DefaultPipeline(pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		CropSize:      patch.DefaultCropSize,
		EncodeOptions: imageio.DefaultEncodeOptions(),
		Logger:        slog.Default(),
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p.AddSteps(
		NewLoadImageStep(),
		NewReadMetadataStep(cfg.Logger),
		NewDecodeAnnotationsStep(),
		NewCropPatchesStep(cfg.CropSize,
			WithCropEncodeOptions(cfg.EncodeOptions),
			WithCropLogger(cfg.Logger),
		),
		NewCommitPatchesStep(),
	)

	return p
}
