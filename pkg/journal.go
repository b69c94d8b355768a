// Package pkg holds general purpose helpers used by ndfkit.
package pkg

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const frameHeader = 4

// Journal is an append-only file of items of type T. Each item is stored
// as its own length-prefixed gob frame, so a journal can be reopened and
// extended by later processes.
type Journal[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Get(index uint64) (T, error)
	Range(f func(index uint64, item T) error) error
	Truncate() error
	Close() error
}

type journalImpl[T any] struct {
	path   string
	file   *os.File
	mu     sync.Mutex
	length uint64
}

// OpenJournal opens or creates the journal at path. A partially written
// trailing frame left by an interrupted process is dropped.
func OpenJournal[T any](path string) (Journal[T], error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			slog.Error("failed to create journal directory", "path", dir, "error", err)
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		slog.Error("failed to open journal", "path", path, "error", err)
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	j := &journalImpl[T]{path: path, file: file}

	good, count, err := scanFrames(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	if err := file.Truncate(good); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to trim journal: %w", err)
	}

	if _, err := file.Seek(good, io.SeekStart); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to seek journal: %w", err)
	}

	j.length = count
	slog.Debug("opened journal", "path", path, "length", count)

	return j, nil
}

// scanFrames returns the offset just past the last complete frame and the
// number of complete frames.
func scanFrames(file *os.File) (int64, uint64, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return 0, 0, fmt.Errorf("failed to seek journal: %w", err)
	}

	r := bufio.NewReader(file)

	var (
		offset int64
		count  uint64
		header [frameHeader]byte
	)

	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return offset, count, nil
		}

		size := int64(binary.BigEndian.Uint32(header[:]))
		if _, err := io.CopyN(io.Discard, r, size); err != nil {
			slog.Warn("dropping truncated journal frame", "path", file.Name(), "index", count)
			return offset, count, nil
		}

		offset += frameHeader + size
		count++
	}
}

func encodeFrame[T any](item T) ([]byte, error) {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(item); err != nil {
		return nil, err
	}

	frame := make([]byte, frameHeader, frameHeader+body.Len())
	binary.BigEndian.PutUint32(frame, uint32(body.Len()))

	return append(frame, body.Bytes()...), nil
}

// Append implements Journal.
func (j *journalImpl[T]) Append(item T) error {
	return j.AppendBatch([]T{item})
}

// AppendBatch implements Journal. The batch is written with a single write
// so readers never observe half of it.
func (j *journalImpl[T]) AppendBatch(items []T) error {
	var buf bytes.Buffer

	for i, item := range items {
		frame, err := encodeFrame(item)
		if err != nil {
			slog.Error("failed to encode item", "path", j.path, "index", i, "error", err)
			return fmt.Errorf("failed to encode item: %w", err)
		}

		buf.Write(frame)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return errors.New("journal is closed")
	}

	if _, err := j.file.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write journal", "path", j.path, "error", err)
		return fmt.Errorf("failed to write journal: %w", err)
	}

	j.length += uint64(len(items))
	slog.Debug("appended to journal", "path", j.path, "count", len(items), "length", j.length)

	return nil
}

// Path implements Journal.
func (j *journalImpl[T]) Path() string {
	return j.path
}

// Len implements Journal.
func (j *journalImpl[T]) Len() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.length
}

// Get implements Journal.
func (j *journalImpl[T]) Get(index uint64) (T, error) {
	var (
		found T
		hit   bool
	)

	err := j.Range(func(i uint64, item T) error {
		if i == index {
			found, hit = item, true
			return errStop
		}

		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		var zero T
		return zero, err
	}

	if !hit {
		var zero T

		slog.Warn("get index out of bounds", "path", j.path, "index", index)

		return zero, fmt.Errorf("index %d out of bounds (length %d)", index, j.Len())
	}

	return found, nil
}

var errStop = errors.New("stop")

// Range implements Journal.
func (j *journalImpl[T]) Range(fn func(index uint64, item T) error) error {
	j.mu.Lock()
	length := j.length
	j.mu.Unlock()

	file, err := os.Open(j.path)
	if err != nil {
		slog.Error("failed to open journal for range", "path", j.path, "error", err)
		return fmt.Errorf("failed to open journal: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close journal", "path", j.path, "error", err)
		}
	}()

	r := bufio.NewReader(file)

	var header [frameHeader]byte

	for i := range length {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return fmt.Errorf("failed to read frame %d: %w", i, err)
		}

		body := make([]byte, binary.BigEndian.Uint32(header[:]))
		if _, err := io.ReadFull(r, body); err != nil {
			return fmt.Errorf("failed to read frame %d: %w", i, err)
		}

		var item T
		if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&item); err != nil {
			slog.Error("failed to decode item during range", "path", j.path, "index", i, "error", err)
			return fmt.Errorf("failed to decode item at index %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

// Truncate implements Journal.
func (j *journalImpl[T]) Truncate() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return errors.New("journal is closed")
	}

	if err := j.file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate journal: %w", err)
	}

	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek journal: %w", err)
	}

	j.length = 0
	slog.Debug("truncated journal", "path", j.path)

	return nil
}

// Close implements Journal.
func (j *journalImpl[T]) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}

	err := j.file.Close()
	j.file = nil

	if err != nil {
		slog.Error("failed to close journal", "path", j.path, "error", err)
		return err
	}

	slog.Debug("closed journal", "path", j.path, "length", j.length)

	return nil
}
