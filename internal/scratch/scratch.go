// Package scratch manages uniquely named temporary files that live for the
// duration of a single request or recording.
package scratch

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const DefaultPrefix = "flyvoice_"

type Dir struct {
	path   string
	prefix string
	logger *slog.Logger
}

func NewDir(path string, logger *slog.Logger) *Dir {
	if path == "" {
		path = os.TempDir()
	}
	return &Dir{path: path, prefix: DefaultPrefix, logger: logger}
}

func (d *Dir) Path() string {
	return d.path
}

// Create opens a new file named <prefix><uuid><ext>. Sidecar files that an
// engine writes next to it (same name plus a suffix) are removed by Release.
func (d *Dir) Create(ext string) (*File, error) {
	if err := os.MkdirAll(d.path, 0o700); err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := d.prefix + strings.ReplaceAll(uuid.NewString(), "-", "") + ext
	path := filepath.Join(d.path, name)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating scratch file: %w", err)
	}

	return &File{File: f, path: path, logger: d.logger}, nil
}

// Sweep removes files left behind by a previous process.
func (d *Dir) Sweep() (int, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading scratch dir: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), d.prefix) {
			continue
		}
		path := filepath.Join(d.path, e.Name())
		if err := os.Remove(path); err != nil {
			d.logger.Warn("removing stale scratch file", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// File is an open scratch file. Release is safe to call more than once.
type File struct {
	*os.File
	path   string
	logger *slog.Logger

	once sync.Once
	err  error
}

func (f *File) Path() string {
	return f.path
}

// Fill copies r into the file and closes it so another process can read it.
func (f *File) Fill(r io.Reader) (int64, error) {
	n, err := io.Copy(f.File, r)
	if err != nil {
		return n, fmt.Errorf("writing scratch file: %w", err)
	}
	if err := f.File.Close(); err != nil {
		return n, fmt.Errorf("closing scratch file: %w", err)
	}
	return n, nil
}

// Release closes and deletes the file and any sidecars named <path>.*.
func (f *File) Release() error {
	f.once.Do(func() {
		_ = f.File.Close()

		var errs []error
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}

		sidecars, _ := filepath.Glob(f.path + ".*")
		for _, s := range sidecars {
			if err := os.Remove(s); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
		}

		f.err = errors.Join(errs...)
		if f.err != nil {
			f.logger.Error("releasing scratch file", "path", f.path, "error", f.err)
		}
	})
	return f.err
}
