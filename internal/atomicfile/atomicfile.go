// Package atomicfile writes a file by staging it next to its final path and
// renaming it into place, so a write failure midway never leaves a partial
// or truncated file at the destination path.
//
// Grounded on spec.md §7's propagation policy for the assembler pipeline
// ("partial object files must not be written (atomic: write to temp then
// rename)") — the teacher itself writes output with a plain os.WriteFile,
// having no analogous durability requirement of its own.
package atomicfile

import (
	"os"
	"path/filepath"
)

// Write stages data in a temp file in the same directory as path (so the
// final rename is on the same filesystem) and renames it to path only after
// the write and close both succeed. On any failure the temp file is removed
// and path is left untouched.
func Write(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
