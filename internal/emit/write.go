package emit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked means another run holds the output lock.
var ErrLocked = errors.New("output is locked by another run")

// EmitError is a fatal failure producing the output file.
type EmitError struct {
	Path string
	Op   string
	Err  error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("emit %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *EmitError) Unwrap() error { return e.Err }

// Write renders show and replaces path atomically.
func Write(path string, show Show) error {
	data, err := Marshal(show)
	if err != nil {
		return &EmitError{Path: path, Op: "render", Err: err}
	}
	return WriteFile(path, data)
}

// WriteFile replaces path with data under <path>.lock. The data goes to a
// temp file in the same directory which is synced and renamed into place,
// so readers see either the old or the new document, never a partial one.
func WriteFile(path string, data []byte) error {
	if path == "" {
		return &EmitError{Path: path, Op: "validate", Err: errors.New("output path is empty")}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &EmitError{Path: path, Op: "create directory", Err: err}
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return &EmitError{Path: path, Op: "lock", Err: err}
	}
	if !locked {
		return &EmitError{Path: path, Op: "lock", Err: ErrLocked}
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &EmitError{Path: path, Op: "create temp file", Err: err}
	}
	tmpPath := tmp.Name()
	fail := func(op string, err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return &EmitError{Path: path, Op: op, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync temp file", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail("chmod temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &EmitError{Path: path, Op: "close temp file", Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &EmitError{Path: path, Op: "rename", Err: err}
	}
	return nil
}
