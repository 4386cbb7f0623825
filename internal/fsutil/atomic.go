// Package fsutil provides small file system helpers shared by the writers
// in roipatch.
package fsutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultFileMode is the permission used for files written by roipatch.
const DefaultFileMode = 0o644

// WriteAtomic writes path by calling write on a temporary file in the same
// directory and renaming it over path once write and Close succeed.
// Readers never observe a partially written file; on error the temporary
// file is removed and any existing file at path is left untouched.
func WriteAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()        //nolint:errcheck // already failing
			_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err = tmp.Chmod(DefaultFileMode); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to rename into %s: %w", path, err)
	}
	return nil
}
