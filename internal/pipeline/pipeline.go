package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/roipatch/internal/imageio"
	"github.com/nao1215/roipatch/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each one reading what earlier steps
// stored on the job.
type Step interface {
	// Do executes the step. A returned error stops the pipeline and
	// decides the final status of the pair.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging and reports.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence for one pair.
//
// The context is checked before each step, never during one. On error the
// pair report is marked with the status matching the error (see StatusFor)
// and the error is returned. When every step succeeds the pair is marked
// extracted.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	report := job.Report

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"pair", report.BaseName,
				"reason", ctx.Err(),
			)
			report.Fail(model.StatusCancelled, ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"pair", report.BaseName,
		)

		if err := step.Do(ctx, job); err != nil {
			status := StatusFor(err)
			p.logger.Warn("step failed",
				"step", step.Name(),
				"pair", report.BaseName,
				"status", status.String(),
				"error", err,
			)
			report.Fail(status, err)
			return err
		}

		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	if report.Status == model.StatusPending {
		report.Status = model.StatusExtracted
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// StatusFor maps a step error to the status the pair ends in.
// Unreadable images skip the pair, cancellation cancels it and every
// other error fails it.
func StatusFor(err error) model.PairStatus {
	var loadErr *imageio.ImageLoadError
	switch {
	case err == nil:
		return model.StatusExtracted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return model.StatusCancelled
	case errors.As(err, &loadErr):
		return model.StatusSkipped
	default:
		return model.StatusFailed
	}
}
