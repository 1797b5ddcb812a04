package publisher

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/oleksandr-ch/measurement-chain/internal/pkg/model"
)

var errAlreadyRegistered = errors.New("publisher already registered")

var registeredPublishers = make(map[string]publisher)

// publisher is a fan-out sink for freshly appended measurements. Sinks must
// not block: the external submitter queues internally and the websocket
// broadcaster drops slow clients.
type publisher interface {
	Publish(ctx context.Context, m *model.Measurement)
}

func RegisterPublisher(name string, p publisher) error {
	if _, ok := registeredPublishers[name]; ok {
		return errAlreadyRegistered
	}
	registeredPublishers[name] = p
	return nil
}

// PublishMeasurement hands a newly appended measurement to every registered
// sink. Called after the local append committed; sink failures are the
// sink's own problem and never reach the append path.
func PublishMeasurement(ctx context.Context, m *model.Measurement) {
	for name, p := range registeredPublishers {
		p.Publish(ctx, m)
		zap.L().Debug("published measurement",
			zap.Int64("measurement_id", m.ID), zap.String("publisher", name))
	}
}
