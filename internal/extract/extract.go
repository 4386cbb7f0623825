// Package extract runs patch extraction over a directory of coordinate
// files and a directory of source images.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/nao1215/roipatch/internal/config"
	"github.com/nao1215/roipatch/internal/dataset"
	"github.com/nao1215/roipatch/internal/imageio"
	"github.com/nao1215/roipatch/internal/model"
	"github.com/nao1215/roipatch/internal/pipeline"
)

// ProgressFunc is called once per finished pair with its 1-based
// completion count and the number of pairs in the run.
type ProgressFunc func(pair *model.PairReport, done, total int)

// Extractor pairs coordinate files with images and cuts patches.
type Extractor struct {
	cfg      *config.Config
	logger   *slog.Logger
	progress ProgressFunc
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used by the extractor and its pipelines.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithProgress registers a callback for finished pairs.
// Calls are serialized.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Extractor) {
		e.progress = fn
	}
}

// New creates an Extractor for cfg.
func New(cfg *config.Config, opts ...Option) *Extractor {
	e := &Extractor{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Plan validates the configuration, pairs the two directories and returns
// one pending job per pair in lexicographic base name order.
// Nothing is written.
func (e *Extractor) Plan() ([]*pipeline.Job, error) {
	if err := e.cfg.ValidateExtract(); err != nil {
		return nil, err
	}

	annotations, err := dataset.Scan(e.cfg.AnnotationDir, []string{e.cfg.AnnotationExt})
	if err != nil {
		return nil, fmt.Errorf("failed to scan annotation directory: %w", err)
	}
	images, err := dataset.Scan(e.cfg.ImageDir, e.cfg.ImageExts)
	if err != nil {
		return nil, fmt.Errorf("failed to scan image directory: %w", err)
	}

	names, err := dataset.Pair(dataset.Names(annotations), dataset.Names(images))
	if err != nil {
		return nil, err
	}

	jobs := make([]*pipeline.Job, 0, len(names))
	for _, name := range names {
		report := model.NewPairReport(name,
			filepath.Join(e.cfg.AnnotationDir, annotations[name]),
			filepath.Join(e.cfg.ImageDir, images[name]),
		)
		jobs = append(jobs, pipeline.NewJob(report, e.cfg.OutputDir))
	}
	return jobs, nil
}

// Run extracts patches for every pair.
//
// Configuration and pairing errors are returned before any output is
// written, with a nil report. Per-pair problems are recorded in the
// report and do not stop the run. When ctx is cancelled, Run returns
// ctx.Err() together with the partial report.
func (e *Extractor) Run(ctx context.Context) (*model.RunReport, error) {
	jobs, err := e.Plan()
	if err != nil {
		return nil, err
	}

	compression, err := imageio.ParseCompression(e.cfg.TIFFCompression)
	if err != nil {
		return nil, err
	}
	encodeOpts := imageio.EncodeOptions{TIFFCompression: compression}

	run := model.NewRunReport(e.cfg.AnnotationDir, e.cfg.ImageDir, e.cfg.OutputDir,
		e.cfg.CropSize, e.cfg.BatchSize)

	e.logger.Info("starting extraction",
		"pairs", len(jobs),
		"crop_size", e.cfg.CropSize,
		"batch", e.cfg.BatchSize,
		"output", e.cfg.OutputDir,
	)

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.DefaultPipeline(
				[]pipeline.Option{pipeline.WithLogger(e.logger)},
				pipeline.WithPipelineCropSize(e.cfg.CropSize),
				pipeline.WithPipelineEncodeOptions(encodeOpts),
				pipeline.WithPipelineStepLogger(e.logger),
			)
		},
		pipeline.WithConcurrency(e.cfg.BatchSize),
		pipeline.WithBatchLogger(e.logger),
	)

	results := make([]*model.PairReport, len(jobs))
	var mu sync.Mutex
	done := 0
	err = bp.ProcessBatchWithCallback(ctx, jobs, func(report *model.PairReport, index int) {
		results[index] = report

		mu.Lock()
		defer mu.Unlock()
		done++
		if e.progress != nil {
			e.progress(report, done, len(jobs))
		}
	})

	run.Pairs = results
	run.FinishedAt = time.Now()
	if err != nil {
		run.Cancelled = true
		e.logger.Warn("extraction cancelled",
			"extracted", run.CountByStatus(model.StatusExtracted),
			"cancelled", run.CountByStatus(model.StatusCancelled),
		)
		return run, err
	}

	e.logger.Info("extraction finished",
		"extracted", run.CountByStatus(model.StatusExtracted),
		"skipped", run.CountByStatus(model.StatusSkipped),
		"failed", run.CountByStatus(model.StatusFailed),
		"patches", run.TotalPatches(),
		"elapsed", run.Elapsed().Round(time.Millisecond),
	)
	return run, nil
}
