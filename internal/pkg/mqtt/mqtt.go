package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/oleksandr-ch/measurement-chain/internal/pkg/model"
)

type measurementService interface {
	CreateMeasurement(ctx context.Context, c model.CreateMeasurement) (*model.Measurement, error)
}

// Ingest subscribes to a measurement topic and appends each published
// reading through the same pipeline the HTTP handler uses. Bad payloads are
// logged and dropped; a sensor publishing garbage must not stop the
// subscription.
type Ingest struct {
	client  paho_mqtt.Client
	svc     measurementService
	topic   string
	timeout time.Duration
	logger  *zap.Logger
}

func New(client paho_mqtt.Client, svc measurementService, topic string) *Ingest {
	return &Ingest{
		client:  client,
		svc:     svc,
		topic:   topic,
		timeout: 30 * time.Second,
		logger:  zap.L(),
	}
}

func (s *Ingest) Connect() error {
	token := s.client.Connect()
	if res := token.WaitTimeout(time.Second * 5); !res {
		if err := token.Error(); err != nil {
			return err
		}
		return errors.New("unable to connect in time")
	}
	return token.Error()
}

// Subscribe starts consuming readings from the configured topic.
func (s *Ingest) Subscribe() error {
	token := s.client.Subscribe(s.topic, 1, s.onMessage)
	if res := token.WaitTimeout(time.Second * 5); !res {
		if err := token.Error(); err != nil {
			return err
		}
		return errors.New("unable to subscribe in time")
	}
	return token.Error()
}

func (s *Ingest) Close() error {
	s.client.Disconnect(250)
	return nil
}

func (s *Ingest) onMessage(_ paho_mqtt.Client, msg paho_mqtt.Message) {
	var c model.CreateMeasurement
	if err := json.Unmarshal(msg.Payload(), &c); err != nil {
		s.logger.Warn("dropping malformed mqtt measurement",
			zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	m, err := s.svc.CreateMeasurement(ctx, c)
	if err != nil {
		s.logger.Warn("rejected mqtt measurement",
			zap.String("topic", msg.Topic()),
			zap.Int64("sensor_id", c.SensorID),
			zap.Error(err))
		return
	}
	s.logger.Debug("appended mqtt measurement",
		zap.Int64("measurement_id", m.ID), zap.Int64("sensor_id", m.SensorID))
}
