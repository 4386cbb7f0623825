package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/roipatch/internal/model"
)

// DefaultConcurrency is the number of pairs processed at once when no
// concurrency is configured.
const DefaultConcurrency = 1

// BatchProcessor runs one pipeline per pair with bounded concurrency.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each pair.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of pairs processed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of pairs processed at once.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// Concurrency returns the configured concurrency limit.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessBatch runs every job and returns their reports in input order.
//
// A failing pair never stops the others; its error is recorded in its
// report. Once ctx is cancelled, jobs that have not started are marked
// cancelled without running, and ProcessBatch returns ctx.Err() together
// with the complete report slice.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []*Job) ([]*model.PairReport, error) {
	results := make([]*model.PairReport, len(jobs))
	err := bp.ProcessBatchWithCallback(ctx, jobs, func(report *model.PairReport, index int) {
		// Each index is written by exactly one goroutine.
		results[index] = report
	})
	return results, err
}

// ProcessBatchWithCallback runs every job and calls callback with each
// finished report and its index in jobs. The callback runs on the worker
// goroutine and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	jobs []*Job,
	callback func(report *model.PairReport, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_pairs", len(jobs),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			defer func() {
				if err := job.Cleanup(); err != nil {
					bp.logger.Warn("cleanup failed", "pair", job.Report.BaseName, "error", err)
				}
			}()

			if err := ctx.Err(); err != nil {
				job.Report.Fail(model.StatusCancelled, err)
				callback(job.Report, i)
				return nil
			}

			bp.logger.Info("processing pair",
				"pair", job.Report.BaseName,
				"index", i+1,
				"total", len(jobs),
			)

			p := bp.pipelineFactory()
			if err := p.Execute(ctx, job); err != nil {
				bp.logger.Warn("pair not extracted",
					"pair", job.Report.BaseName,
					"status", job.Report.Status.String(),
					"error", err,
				)
			} else {
				bp.logger.Info("pair extracted",
					"pair", job.Report.BaseName,
					"patches", job.Report.WrittenPatches(),
				)
			}

			callback(job.Report, i)
			return nil
		})
	}

	// Workers never return errors; failures live in the reports.
	_ = g.Wait() //nolint:errcheck // always nil

	bp.logger.Info("batch processing complete",
		"total_pairs", len(jobs),
		"elapsed", time.Since(startTime),
	)

	return ctx.Err()
}
