// Package server ties the write-ahead log and the key-value state together.
//
// Every command becomes a transaction that is appended to the log before it
// is applied, so any state a caller can observe has a durable record behind
// it. Recover rebuilds the state from the log after a restart.
package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"walkv/pkg/clock"
	"walkv/pkg/dberrors"
	"walkv/pkg/metrics"
	"walkv/pkg/query"
	"walkv/pkg/state"
	"walkv/pkg/types"
	"walkv/pkg/wal"
)

type iSequence interface {
	Val() uint64
	Next() uint64
}

// Server is not safe for concurrent use.
type Server struct {
	id     string
	seq    iSequence
	log    wal.Log
	state  *state.State
	logger *slog.Logger
	mc     metrics.Collector

	// set after a failed append; every later call fails with it
	poisoned error
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func WithMetrics(c metrics.Collector) Option {
	return func(s *Server) { s.mc = c }
}

// New takes exclusive ownership of log. The state starts empty and the next
// transaction id is 0; call Recover to load what the log already holds.
func New(log wal.Log, opts ...Option) *Server {
	s := &Server{
		id:     uuid.NewString(),
		seq:    clock.NewSequence(0),
		log:    log,
		state:  state.New(),
		logger: slog.Default(),
		mc:     metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("server_id", s.id)

	return s
}

// Execute parses q and runs it. Unparseable input runs as a Nop.
func (s *Server) Execute(q string) (types.Result, error) {
	return s.ExecuteCommand(query.Parse(q))
}

// ExecuteCommand appends cmd as the next transaction and applies it.
//
// The id is only consumed once the append succeeded. A failed append leaves
// the state untouched and poisons the server: the record may be partially
// on disk, so no further writes are accepted from this instance.
func (s *Server) ExecuteCommand(cmd types.Command) (types.Result, error) {
	if s.poisoned != nil {
		return types.Result{}, s.poisoned
	}

	tx := types.Transaction{
		ID:      s.seq.Val(),
		Command: cmd,
	}

	start := time.Now()
	if err := s.log.Append(tx); err != nil {
		s.mc.IncCounter(metrics.AppendErrorsTotal, nil, 1)
		s.poisoned = fmt.Errorf("%w: append of transaction %d failed: %w", dberrors.ErrPoisoned, tx.ID, err)
		s.logger.Error("failed to append transaction, refusing further writes",
			"tx_id", tx.ID,
			"command", cmd.Kind.String(),
			"error", err,
		)
		return types.Result{}, s.poisoned
	}
	s.mc.ObserveHistogram(metrics.AppendDuration, nil, time.Since(start).Seconds())

	next := s.seq.Next()
	res := s.state.Apply(tx)

	s.mc.IncCounter(metrics.TransactionsTotal, map[string]string{"command": cmd.Kind.String()}, 1)
	s.mc.SetGauge(metrics.NextTransactionID, nil, float64(next))
	s.mc.SetGauge(metrics.StateKeys, nil, float64(s.state.Len()))
	s.logger.Debug("transaction committed", "tx_id", tx.ID, "command", cmd.Kind.String())

	return res, nil
}

// NextID returns the id the next transaction will get.
func (s *Server) NextID() uint64 {
	return s.seq.Val()
}

// State returns the in-memory view. Callers must treat it as read-only.
func (s *Server) State() *state.State {
	return s.state
}

// Log returns the write-ahead log the server owns.
func (s *Server) Log() wal.Log {
	return s.log
}

// Close releases the log. It is safe to call on a poisoned server.
func (s *Server) Close() error {
	if err := s.log.Close(); err != nil {
		return fmt.Errorf("failed to close WAL: %w", err)
	}
	return nil
}
