// Package main provides the entry point for the roipatch CLI.
//
// roipatch marks region-of-interest centers on full-resolution images and
// cuts fixed-size square patches around them for training datasets.
//
// Usage:
//
//	roipatch annotate --image scan.tiff --output ann --size 64
//	roipatch extract --annotations ann --images scans --output patches
//
// See --help for all available options.
package main

// main is the entry point for roipatch.
func main() {
	Execute()
}
