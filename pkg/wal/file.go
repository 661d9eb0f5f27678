package wal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"walkv/pkg/dberrors"
	"walkv/pkg/types"
)

// FileLog stores one JSON-encoded transaction per line in a single file.
// Every Append is flushed and fsynced before it returns.
type FileLog struct {
	mu       sync.Mutex
	file     *os.File
	writer   *bufio.Writer
	filePath string
}

// OpenFile opens or creates the log at path. An existing log is never
// truncated.
func OpenFile(path string) (*FileLog, error) {
	if path == "" {
		return nil, fmt.Errorf("empty WAL path")
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create WAL directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAL file: %w", err)
	}

	return &FileLog{
		file:     file,
		writer:   bufio.NewWriter(file),
		filePath: path,
	}, nil
}

// Path returns the location of the backing file.
func (w *FileLog) Path() string {
	return w.filePath
}

func (w *FileLog) Append(tx types.Transaction) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return dberrors.ErrClosed
	}

	line, err := types.EncodeTransaction(tx)
	if err != nil {
		return fmt.Errorf("failed to encode WAL entry: %w", err)
	}
	line = append(line, '\n')

	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("failed to write WAL entry: %w: %w", dberrors.ErrIO, err)
	}
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush WAL: %w: %w", dberrors.ErrIO, err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync WAL: %w: %w", dberrors.ErrIO, err)
	}

	return nil
}

// Replay rewinds the file and decodes it line by line. A line that fails to
// decode ends the sequence: byte offsets after a corrupt record are not
// trusted. The lock is not held while yielding; records appended
// mid-iteration may or may not be observed.
func (w *FileLog) Replay() iter.Seq2[types.Transaction, error] {
	return func(yield func(types.Transaction, error) bool) {
		w.mu.Lock()
		file := w.file
		w.mu.Unlock()

		if file == nil {
			yield(types.Transaction{}, dberrors.ErrClosed)
			return
		}

		if _, err := file.Seek(0, io.SeekStart); err != nil {
			yield(types.Transaction{}, fmt.Errorf("failed to rewind WAL: %w: %w", dberrors.ErrIO, err))
			return
		}

		reader := bufio.NewReader(file)
		for lineNo := 1; ; lineNo++ {
			line, err := reader.ReadBytes('\n')
			if len(line) > 0 {
				tx, derr := types.DecodeTransaction(line)
				if derr != nil {
					yield(types.Transaction{}, fmt.Errorf("failed to decode WAL line %d: %w: %w", lineNo, dberrors.ErrDecode, derr))
					return
				}
				if !yield(tx, nil) {
					return
				}
			}

			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield(types.Transaction{}, fmt.Errorf("failed to read WAL entry: %w: %w", dberrors.ErrIO, err))
				}
				return
			}
		}
	}
}

func (w *FileLog) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}

	// a failed append may leave bytes in the buffer; they were never
	// acknowledged, so they are dropped rather than flushed here
	w.writer = nil
	err := w.file.Close()
	w.file = nil
	if err != nil {
		return fmt.Errorf("failed to close WAL file: %w", err)
	}

	return nil
}
