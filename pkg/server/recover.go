package server

import (
	"fmt"

	"walkv/pkg/dberrors"
	"walkv/pkg/metrics"
)

// Report summarizes one Recover run.
type Report struct {
	Applied uint64
	Skipped uint64
}

// Recover replays the log into the state, reconciling each transaction id
// against the next expected id:
//
//   - id below it was already applied and is skipped;
//   - id equal to it is applied and the expected id advances;
//   - id above it means the log has a gap and recovery fails with
//     dberrors.ErrSequencingViolation.
//
// A replay failure aborts recovery with that error. Transactions applied
// before the failure stay applied. Recover never appends, so running it
// again on the same server applies nothing new.
func (s *Server) Recover() (Report, error) {
	var rep Report

	if s.poisoned != nil {
		return rep, s.poisoned
	}

	s.logger.Info("recovery started", "next_tx_id", s.seq.Val())

	for tx, err := range s.log.Replay() {
		if err != nil {
			s.logger.Error("recovery aborted, failed to replay WAL", "error", err, "applied", rep.Applied)
			return rep, fmt.Errorf("failed to replay WAL: %w", err)
		}

		expected := s.seq.Val()
		switch {
		case tx.ID < expected:
			rep.Skipped++
			s.mc.IncCounter(metrics.RecoverySkippedTotal, nil, 1)
			s.logger.Debug("skipping already applied transaction", "tx_id", tx.ID, "next_tx_id", expected)
		case tx.ID > expected:
			s.logger.Error("recovery aborted, gap in WAL", "tx_id", tx.ID, "next_tx_id", expected)
			return rep, fmt.Errorf("%w: loaded transaction %d, expected %d", dberrors.ErrSequencingViolation, tx.ID, expected)
		default:
			s.state.Apply(tx)
			s.seq.Next()
			rep.Applied++
			s.mc.IncCounter(metrics.RecoveryAppliedTotal, nil, 1)
		}
	}

	s.mc.SetGauge(metrics.NextTransactionID, nil, float64(s.seq.Val()))
	s.mc.SetGauge(metrics.StateKeys, nil, float64(s.state.Len()))
	s.logger.Info("recovery finished",
		"applied", rep.Applied,
		"skipped", rep.Skipped,
		"next_tx_id", s.seq.Val(),
	)

	return rep, nil
}
