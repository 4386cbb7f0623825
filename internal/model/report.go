package model

import (
	"image"
	"time"
)

// PatchRecord describes one patch cut from a source image.
type PatchRecord struct {
	// Index is the 1-based position of the center in the annotation file.
	Index int `json:"index"`

	// Center is the ROI center the patch was cut around.
	Center image.Point `json:"center"`

	// Name is the output file name, e.g. "img1_patch_3.tiff".
	Name string `json:"name"`

	// Box is the crop box in source image coordinates (Max exclusive).
	Box image.Rectangle `json:"box"`

	// Clamped is true when the box was cut short by an image edge.
	Clamped bool `json:"clamped"`

	// Empty is true when the center lies so far outside the image that
	// nothing could be cut. Empty patches are not written.
	Empty bool `json:"empty,omitempty"`
}

// PairReport collects everything known about one annotation/image pair.
type PairReport struct {
	// BaseName is the join key shared by the annotation file and the image.
	BaseName string `json:"base_name"`

	// AnnotationPath is the path of the coordinate file.
	AnnotationPath string `json:"annotation_path"`

	// ImagePath is the path of the source image.
	ImagePath string `json:"image_path"`

	// Width and Height are the decoded source image dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// AnnotationDigest is the hex SHA3-256 digest of the annotation file.
	AnnotationDigest string `json:"annotation_digest,omitempty"`

	// Centers are the decoded ROI centers in file order.
	Centers []image.Point `json:"centers,omitempty"`

	// Patches has one entry per center, in the same order.
	Patches []PatchRecord `json:"patches,omitempty"`

	// Metadata holds selected EXIF tags of the source image.
	Metadata map[string]string `json:"metadata,omitempty"`

	// Status is the outcome of the pair.
	Status PairStatus `json:"status"`

	// Error is the error that stopped the pair, if any.
	Error error `json:"-"`

	// ErrorMessage is Error rendered as text for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`
}

// NewPairReport creates a pending report for the given pair.
func NewPairReport(baseName, annotationPath, imagePath string) *PairReport {
	return &PairReport{
		BaseName:       baseName,
		AnnotationPath: annotationPath,
		ImagePath:      imagePath,
		Status:         StatusPending,
		Metadata:       make(map[string]string),
		PerformedSteps: make([]string, 0),
	}
}

// Fail records err and status on the report.
func (r *PairReport) Fail(status PairStatus, err error) {
	r.Status = status
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// WrittenPatches returns the number of non-empty patches.
func (r *PairReport) WrittenPatches() int {
	n := 0
	for _, p := range r.Patches {
		if !p.Empty {
			n++
		}
	}
	return n
}

// RunReport is the result of one extraction run.
type RunReport struct {
	// ID is the history database identifier, zero if not stored.
	ID int64 `json:"id,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	AnnotationDir string `json:"annotation_dir"`
	ImageDir      string `json:"image_dir"`
	OutputDir     string `json:"output_dir"`

	CropSize    int `json:"crop_size"`
	Concurrency int `json:"concurrency"`

	// Pairs are ordered lexicographically by base name.
	Pairs []*PairReport `json:"pairs"`

	// Cancelled is true when the run stopped before every pair finished.
	Cancelled bool `json:"cancelled,omitempty"`
}

// NewRunReport creates an empty report stamped with the current time.
func NewRunReport(annotationDir, imageDir, outputDir string, cropSize, concurrency int) *RunReport {
	return &RunReport{
		StartedAt:     time.Now(),
		AnnotationDir: annotationDir,
		ImageDir:      imageDir,
		OutputDir:     outputDir,
		CropSize:      cropSize,
		Concurrency:   concurrency,
		Pairs:         make([]*PairReport, 0),
	}
}

// CountByStatus returns how many pairs ended in status s.
func (r *RunReport) CountByStatus(s PairStatus) int {
	n := 0
	for _, p := range r.Pairs {
		if p != nil && p.Status == s {
			n++
		}
	}
	return n
}

// TotalPatches returns the number of patch files written by the run.
func (r *RunReport) TotalPatches() int {
	n := 0
	for _, p := range r.Pairs {
		if p != nil && p.Status == StatusExtracted {
			n += p.WrittenPatches()
		}
	}
	return n
}

// HasFailures reports whether any pair did not end as extracted.
func (r *RunReport) HasFailures() bool {
	for _, p := range r.Pairs {
		if p == nil || p.Status != StatusExtracted {
			return true
		}
	}
	return false
}

// Elapsed returns the run duration.
func (r *RunReport) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
