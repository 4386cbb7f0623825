// Package log builds the slog loggers used by roipatch.
//
// Loggers write text (or JSON) at warn level by default and debug level in
// verbose mode. The PathHandler wrapper rewrites paths under the user's home
// directory to "~/..." so logs can be shared without exposing account names.
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Warn("patch skipped", "image", "/home/alice/data/img1.tiff")
//	// level=WARN msg="patch skipped" image=~/data/img1.tiff
package log
