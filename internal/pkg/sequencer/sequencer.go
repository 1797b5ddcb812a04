package sequencer

import (
	"context"
	"fmt"
	"sync"
)

// SequenceSource is the external ledger's authoritative view of how many
// submissions are already pending for our account. The next free sequence
// number equals that count.
type SequenceSource interface {
	PendingSequence(ctx context.Context) (uint64, error)
}

// Sequencer hands out external ledger sequence numbers. It caches the next
// number in memory behind a mutex so concurrent submitters never reuse or
// skip one; the cache is lazily filled from the source on first use and
// after every Reset.
type Sequencer struct {
	mu          sync.Mutex
	source      SequenceSource
	next        uint64
	initialized bool
}

func New(source SequenceSource) *Sequencer {
	return &Sequencer{source: source}
}

// Next returns the next sequence number, strictly increasing and gap-free
// across concurrent callers.
func (s *Sequencer) Next(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		pending, err := s.source.PendingSequence(ctx)
		if err != nil {
			return 0, fmt.Errorf("sync sequence from ledger: %w", err)
		}
		s.next = pending
		s.initialized = true
	}

	seq := s.next
	s.next++
	return seq, nil
}

// Reset drops the cached state. Called after any submission failure so the
// next allocation re-queries ground truth instead of perpetuating a bad
// offset. A crash between Next and a successful submit can still leave a gap
// in the external ledger; that is an accepted trade-off.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = false
}
