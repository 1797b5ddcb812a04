package submitter

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/oleksandr-ch/measurement-chain/internal/pkg/contxt"
	"github.com/oleksandr-ch/measurement-chain/internal/pkg/ledger"
	"github.com/oleksandr-ch/measurement-chain/internal/pkg/model"
)

type sequencer interface {
	Next(ctx context.Context) (uint64, error)
	Reset()
}

type ledgerClient interface {
	Submit(ctx context.Context, sequence uint64, m *model.Measurement) (*ledger.Receipt, error)
}

const defaultQueueSize = 1024

// Submitter mirrors appended measurements to the external ledger. Appends
// enqueue and move on; a worker drains the queue so a slow or dead ledger
// can never block or fail local writes. Failures are logged, not retried;
// the sequencer cache is reset so the next attempt re-syncs from ground
// truth.
type Submitter struct {
	queue   chan *model.Measurement
	seq     sequencer
	client  ledgerClient
	logger  *zap.Logger
	timeout time.Duration
}

func New(client ledgerClient, seq sequencer) *Submitter {
	return &Submitter{
		queue:   make(chan *model.Measurement, defaultQueueSize),
		seq:     seq,
		client:  client,
		logger:  zap.L(),
		timeout: 30 * time.Second,
	}
}

// Publish enqueues a measurement for submission. Never blocks: when the
// queue is full the measurement is dropped with a warning, the local ledger
// remains the source of truth.
func (s *Submitter) Publish(_ context.Context, m *model.Measurement) {
	select {
	case s.queue <- m:
	default:
		s.logger.Warn("submission queue full, dropping measurement",
			zap.Int64("measurement_id", m.ID))
	}
}

// Run drains the queue until ctx is cancelled.
func (s *Submitter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-s.queue:
			s.dispatch(m)
		}
	}
}

func (s *Submitter) dispatch(m *model.Measurement) {
	// detached: the spawning request has long since returned
	ctx := contxt.Detached(s.timeout)

	seq, err := s.seq.Next(ctx)
	if err != nil {
		s.logger.Error("failed to allocate sequence number",
			zap.Int64("measurement_id", m.ID), zap.Error(err))
		return
	}

	receipt, err := s.client.Submit(ctx, seq, m)
	if err != nil {
		s.seq.Reset()
		s.logger.Error("ledger submission failed",
			zap.Int64("measurement_id", m.ID),
			zap.Uint64("sequence", seq),
			zap.Error(err))
		return
	}

	s.logger.Info("measurement submitted to ledger",
		zap.Int64("measurement_id", m.ID),
		zap.Uint64("sequence", seq),
		zap.String("tx_hash", receipt.TxHash))
}
