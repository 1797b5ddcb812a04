package publisher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleksandr-ch/measurement-chain/internal/pkg/model"
)

type recordingSink struct {
	seen []int64
}

func (s *recordingSink) Publish(_ context.Context, m *model.Measurement) {
	s.seen = append(s.seen, m.ID)
}

func TestRegisterPublisher_RejectsDuplicates(t *testing.T) {
	require.NoError(t, RegisterPublisher("dup-test", &recordingSink{}))
	assert.ErrorIs(t, RegisterPublisher("dup-test", &recordingSink{}), errAlreadyRegistered)
}

func TestPublishMeasurement_FansOutToAllSinks(t *testing.T) {
	first := &recordingSink{}
	second := &recordingSink{}
	require.NoError(t, RegisterPublisher("fanout-first", first))
	require.NoError(t, RegisterPublisher("fanout-second", second))

	PublishMeasurement(context.Background(), &model.Measurement{ID: 42})

	assert.Contains(t, first.seen, int64(42))
	assert.Contains(t, second.seen, int64(42))
}
