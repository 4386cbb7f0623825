package model

import (
	"encoding/json"
	"fmt"
)

// PairStatus is the outcome of extracting patches for one dataset pair.
type PairStatus int

const (
	// StatusPending means the pair has not been processed yet.
	StatusPending PairStatus = iota

	// StatusExtracted means every patch of the pair was written.
	StatusExtracted

	// StatusSkipped means the source image could not be loaded.
	StatusSkipped

	// StatusFailed means the annotation file was malformed or a patch
	// could not be written. No patch of the pair is left in the output.
	StatusFailed

	// StatusCancelled means the run was cancelled before the pair's
	// patches were committed.
	StatusCancelled
)

// String returns the lower-case name of the status.
func (s PairStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusExtracted:
		return "extracted"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParsePairStatus converts the output of String back into a PairStatus.
func ParsePairStatus(s string) (PairStatus, error) {
	for _, st := range []PairStatus{StatusPending, StatusExtracted, StatusSkipped, StatusFailed, StatusCancelled} {
		if st.String() == s {
			return st, nil
		}
	}
	return StatusPending, fmt.Errorf("unknown pair status %q", s)
}

// MarshalJSON encodes the status as its string name.
func (s PairStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status written by MarshalJSON.
func (s *PairStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	st, err := ParsePairStatus(str)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
