package wal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/cockroachdb/pebble"

	"walkv/pkg/dberrors"
	"walkv/pkg/types"
)

var (
	txKeyPrefix = []byte("tx/")
	txKeyEnd    = []byte("tx0") // '0' sorts right after '/'
)

// PebbleLog stores transactions in a pebble database, one key per record.
// Keys are the append position, not the transaction id, so the log stays
// append-only even if the same id is written twice.
type PebbleLog struct {
	db     *pebble.DB
	next   uint64
	logger *slog.Logger
}

type PebbleOption func(*PebbleLog)

func WithPebbleLogger(l *slog.Logger) PebbleOption {
	return func(w *PebbleLog) {
		if l != nil {
			w.logger = l
		}
	}
}

// OpenPebble opens or creates the pebble database in dir.
func OpenPebble(dir string, opts ...PebbleOption) (*PebbleLog, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty WAL dir")
	}

	w := &PebbleLog{logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}

	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble WAL: %w: %w", dberrors.ErrIO, err)
	}

	next, err := lastPosition(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	w.db = db
	w.next = next

	w.logger.Info("pebble WAL opened", "dir", dir, "next_position", next)

	return w, nil
}

func lastPosition(db *pebble.DB) (pos uint64, err error) {
	it, err := db.NewIter(&pebble.IterOptions{
		LowerBound: txKeyPrefix,
		UpperBound: txKeyEnd,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan pebble WAL: %w: %w", dberrors.ErrIO, err)
	}
	defer func() {
		if cerr := it.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close pebble WAL iterator: %w: %w", dberrors.ErrIO, cerr))
		}
	}()

	if !it.Last() {
		if ierr := it.Error(); ierr != nil {
			return 0, fmt.Errorf("failed to scan pebble WAL: %w: %w", dberrors.ErrIO, ierr)
		}
		return 0, nil
	}

	last, err := parseKey(it.Key())
	if err != nil {
		return 0, err
	}

	return last + 1, nil
}

func (w *PebbleLog) Append(tx types.Transaction) error {
	if w.db == nil {
		return dberrors.ErrClosed
	}

	val, err := types.EncodeTransaction(tx)
	if err != nil {
		return fmt.Errorf("failed to encode WAL entry: %w", err)
	}

	if err := w.db.Set(keyFor(w.next), val, pebble.Sync); err != nil {
		return fmt.Errorf("failed to write WAL entry: %w: %w", dberrors.ErrIO, err)
	}
	w.next++

	return nil
}

func (w *PebbleLog) Replay() iter.Seq2[types.Transaction, error] {
	return func(yield func(types.Transaction, error) bool) {
		if w.db == nil {
			yield(types.Transaction{}, dberrors.ErrClosed)
			return
		}

		it, err := w.db.NewIter(&pebble.IterOptions{
			LowerBound: txKeyPrefix,
			UpperBound: txKeyEnd,
		})
		if err != nil {
			yield(types.Transaction{}, fmt.Errorf("failed to open WAL iterator: %w: %w", dberrors.ErrIO, err))
			return
		}
		defer func() {
			if cerr := it.Close(); cerr != nil {
				w.logger.Warn("failed to close pebble WAL iterator", "error", cerr)
			}
		}()

		for it.First(); it.Valid(); it.Next() {
			tx, derr := types.DecodeTransaction(it.Value())
			if derr != nil {
				yield(types.Transaction{}, fmt.Errorf("failed to decode WAL key %x: %w: %w", it.Key(), dberrors.ErrDecode, derr))
				return
			}
			if !yield(tx, nil) {
				return
			}
		}

		if err := it.Error(); err != nil {
			yield(types.Transaction{}, fmt.Errorf("failed to read WAL entry: %w: %w", dberrors.ErrIO, err))
		}
	}
}

func (w *PebbleLog) Close() error {
	if w.db == nil {
		return nil
	}

	err := w.db.Close()
	w.db = nil
	if err != nil {
		return fmt.Errorf("failed to close pebble WAL: %w", err)
	}

	return nil
}

func keyFor(pos uint64) []byte {
	key := make([]byte, len(txKeyPrefix)+8)
	copy(key, txKeyPrefix)
	binary.BigEndian.PutUint64(key[len(txKeyPrefix):], pos)
	return key
}

func parseKey(key []byte) (uint64, error) {
	if !bytes.HasPrefix(key, txKeyPrefix) || len(key) != len(txKeyPrefix)+8 {
		return 0, fmt.Errorf("unexpected WAL key %x: %w", key, dberrors.ErrDecode)
	}
	return binary.BigEndian.Uint64(key[len(txKeyPrefix):]), nil
}
