// Package adapter contains the filesystem and persistence adapters used by
// the ndfkit engine.
package adapter

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

// SourceExt is the extension of description files.
const SourceExt = ".ndf"

// SourceFSAdapter hides direct os access from the domain layer so editing
// logic can be tested without touching the disk.
type SourceFSAdapter interface {
	// Walk traverses root. When recursive is false only the root directory
	// itself is visited.
	Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error

	// FindSources expands files and directories into the description files
	// they contain, sorted and without duplicates.
	FindSources(ctx context.Context, roots []m.Path, recursive bool) ([]m.Path, error)

	// ReadFile loads a file from disk.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// WriteFileAtomic replaces path with content. The content goes to a
	// temporary file in the same directory first; path is only replaced once
	// that file is complete.
	WriteFileAtomic(ctx context.Context, path m.Path, content []byte) error

	// HashFile returns the SHA-256 fingerprint of the file at path.
	HashFile(path m.Path) (string, error)

	// FileInfo returns metadata for a path.
	FileInfo(path m.Path) (os.FileInfo, error)
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalSourceFSAdapter implements SourceFSAdapter on the local disk.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Walk iterates over files under root, optionally descending into subdirectories.
func (a *LocalSourceFSAdapter) Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && !recursive && path != rootStr {
			return filepath.SkipDir
		}

		return fn(path, info, nil)
	})
}

// FindSources implements SourceFSAdapter.
func (a *LocalSourceFSAdapter) FindSources(ctx context.Context, roots []m.Path, recursive bool) ([]m.Path, error) {
	seen := map[m.Path]bool{}

	var out []m.Path

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(string(root))
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}

		if !info.IsDir() {
			if !seen[root] {
				seen[root] = true
				out = append(out, root)
			}

			continue
		}

		err = a.Walk(root, recursive, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}

			if info.IsDir() || !strings.EqualFold(filepath.Ext(path), SourceExt) {
				return nil
			}

			p := m.Path(path)
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	slices.Sort(out)
	slog.Debug("found sources", "roots", len(roots), "files", len(out))

	return out, nil
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(ctx context.Context, path m.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return os.ReadFile(string(path))
}

// WriteFileAtomic implements SourceFSAdapter. An existing file keeps its
// permissions.
func (a *LocalSourceFSAdapter) WriteFileAtomic(ctx context.Context, path m.Path, content []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := string(path)
	mode := os.FileMode(0o644)

	if info, statErr := os.Stat(target); statErr == nil {
		mode = info.Mode().Perm()
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return statErr
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err = os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	if err = os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("replace %s: %w", target, err)
	}

	slog.Debug("wrote file", "path", target, "bytes", len(content))

	return nil
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}
