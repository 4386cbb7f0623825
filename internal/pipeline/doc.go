// Package pipeline runs the per-pair extraction steps.
//
// Each dataset pair is processed by its own Pipeline: the source image is
// loaded, its EXIF tags are read, the annotation file is decoded, patches are
// cropped into a staging directory and finally committed to the output
// directory. A BatchProcessor runs one pipeline per pair with bounded
// concurrency using errgroup and keeps results in input order.
//
// Cancellation is checked between steps. Because patches only reach the
// output directory in the last step, a pair interrupted earlier leaves no
// files behind.
package pipeline
