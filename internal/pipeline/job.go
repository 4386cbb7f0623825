package pipeline

import (
	"fmt"
	"os"

	"github.com/nao1215/roipatch/internal/imageio"
	"github.com/nao1215/roipatch/internal/model"
)

// Job carries one dataset pair through the pipeline.
type Job struct {
	// Report receives the results of every step.
	Report *model.PairReport

	// OutputDir is where committed patches end up.
	OutputDir string

	// Source is the decoded image, set by LoadImageStep.
	Source *imageio.Source

	// StagingDir holds patches written by CropPatchesStep until they are
	// committed. It is empty before cropping and after a commit.
	StagingDir string
}

// NewJob creates a job for the given pair.
func NewJob(report *model.PairReport, outputDir string) *Job {
	return &Job{
		Report:    report,
		OutputDir: outputDir,
	}
}

// Cleanup removes the staging directory, if any, and releases the decoded image.
// It is safe to call more than once.
func (j *Job) Cleanup() error {
	j.Source = nil
	if j.StagingDir == "" {
		return nil
	}
	dir := j.StagingDir
	j.StagingDir = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove staging directory %s: %w", dir, err)
	}
	return nil
}
