// Package wal implements the write-ahead log: an append-only, ordered record
// of transactions that is written before a transaction takes effect and read
// back from the start to rebuild state after a restart.
package wal

import (
	"fmt"
	"iter"
	"log/slog"

	"walkv/pkg/config"
	"walkv/pkg/types"
)

// Log is implemented by every backend.
type Log interface {
	// Append persists tx. A nil error means the record is durable for the
	// backend's durability domain; only then may the transaction be applied.
	Append(tx types.Transaction) error

	// Replay yields every appended transaction in append order, starting
	// from the first one on every new iteration. An element carrying an
	// error is the last one produced.
	Replay() iter.Seq2[types.Transaction, error]

	// Close releases the backing storage. It is safe to call more than once.
	Close() error
}

// Open builds the backend selected by cfg. Backends that log use logger.
func Open(cfg config.WALConfig, logger *slog.Logger) (Log, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendFile:
		return OpenFile(cfg.Path)
	case config.BackendPebble:
		return OpenPebble(cfg.Path, WithPebbleLogger(logger))
	default:
		return nil, fmt.Errorf("unsupported WAL backend %q", cfg.Backend)
	}
}
