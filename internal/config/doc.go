// Package config provides configuration structures and utilities for roipatch.
// It defines the defaults for annotation and extraction, the .roipatch YAML
// file layout, and the validation that turns bad operator input into
// ErrInputSelection errors.
package config
