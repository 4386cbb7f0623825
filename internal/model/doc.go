// Package model defines the data structures shared across roipatch.
//
// This package contains the following main types:
//   - Square and Overlay: the drawable view derived from a set of ROI centers
//   - PairStatus: the outcome of extracting one annotation/image pair
//   - PatchRecord: one written (or skipped) patch
//   - PairReport: everything known about one pair after extraction
//   - RunReport: the result of a whole extraction run
//
// The annotation, extraction, report and database packages all use these
// types, so they live in their own package to avoid import cycles.
// Reports are serializable to JSON for report output and history storage.
package model
