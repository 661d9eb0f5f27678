package clock

import "sync/atomic"

// Sequence hands out transaction ids. Val is the id the next transaction
// will get. It only moves forward, one committed id at a time.
type Sequence struct {
	next atomic.Uint64
}

func NewSequence(first uint64) *Sequence {
	s := &Sequence{}
	s.next.Store(first)
	return s
}

func (s *Sequence) Val() uint64 {
	return s.next.Load()
}

// Next commits the current id and returns the one after it.
func (s *Sequence) Next() uint64 {
	return s.next.Add(1)
}
