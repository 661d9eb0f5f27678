package wal

import (
	"iter"

	"walkv/pkg/dberrors"
	"walkv/pkg/types"
)

// MemoryLog keeps transactions in process memory only. Its contents are lost
// when the process exits; it is meant for tests and for runs where
// durability across restarts is not wanted.
type MemoryLog struct {
	data   []types.Transaction
	closed bool
}

func NewMemory() *MemoryLog {
	return &MemoryLog{}
}

func (m *MemoryLog) Append(tx types.Transaction) error {
	if m.closed {
		return dberrors.ErrClosed
	}
	m.data = append(m.data, tx)
	return nil
}

func (m *MemoryLog) Replay() iter.Seq2[types.Transaction, error] {
	return func(yield func(types.Transaction, error) bool) {
		if m.closed {
			yield(types.Transaction{}, dberrors.ErrClosed)
			return
		}
		for i := 0; i < len(m.data); i++ {
			if !yield(m.data[i], nil) {
				return
			}
		}
	}
}

// Len returns the number of retained transactions.
func (m *MemoryLog) Len() int {
	return len(m.data)
}

// Close drops the retained transactions.
func (m *MemoryLog) Close() error {
	m.closed = true
	m.data = nil
	return nil
}
