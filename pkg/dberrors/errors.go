package dberrors

import "errors"

var (
	// ErrIO reports a storage read, write, flush or sync failure.
	ErrIO = errors.New("walkv: io failure")
	// ErrDecode reports a log record that could not be parsed during replay.
	ErrDecode = errors.New("walkv: decode failure")
	// ErrSequencingViolation reports a replayed transaction whose id is ahead
	// of the expected next id.
	ErrSequencingViolation = errors.New("walkv: sequencing violation")
	// ErrPoisoned is returned by a server that refused work after a failed append.
	ErrPoisoned = errors.New("walkv: server poisoned")
	ErrClosed   = errors.New("walkv: closed")
)
