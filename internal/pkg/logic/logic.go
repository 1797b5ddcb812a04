package logic

import (
	"context"

	"github.com/oleksandr-ch/measurement-chain/internal/pkg/model"
	"github.com/oleksandr-ch/measurement-chain/internal/pkg/publisher"
	"github.com/oleksandr-ch/measurement-chain/internal/pkg/verifier"
)

type database interface {
	Append(ctx context.Context, c model.CreateMeasurement) (*model.Measurement, error)
	List(ctx context.Context, filter model.ListFilter) (model.Measurements, error)
	Get(ctx context.Context, id int64) (*model.Measurement, error)
	Update(ctx context.Context, id int64, u model.UpdateMeasurement) (*model.Measurement, error)
	Delete(ctx context.Context, id int64) error
}

type chainVerifier interface {
	Verify(ctx context.Context) (*verifier.Report, error)
}

// Service ties validation, the ledger store and the post-append fan-out
// together. Both ingest paths (HTTP and MQTT) go through it, so every
// appended measurement ends up published to the external submitter and the
// live stream regardless of how it arrived.
type Service struct {
	db       database
	verifier chainVerifier
}

func NewService(db database, v chainVerifier) *Service {
	return &Service{
		db:       db,
		verifier: v,
	}
}

// CreateMeasurement validates, appends to the chain and fans the stored
// record out to the registered publishers. The fan-out is fire-and-forget;
// by the time it runs the append is committed and the caller gets the stored
// record whatever the downstream sinks do.
func (s *Service) CreateMeasurement(ctx context.Context, c model.CreateMeasurement) (*model.Measurement, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	m, err := s.db.Append(ctx, c)
	if err != nil {
		return nil, err
	}

	publisher.PublishMeasurement(ctx, m)
	return m, nil
}

func (s *Service) ListMeasurements(ctx context.Context, filter model.ListFilter) (model.Measurements, error) {
	return s.db.List(ctx, filter)
}

func (s *Service) GetMeasurement(ctx context.Context, id int64) (*model.Measurement, error) {
	return s.db.Get(ctx, id)
}

// UpdateMeasurement changes value/metadata only. The record's chain hashes
// are intentionally left as appended, so the verifier will flag the record
// afterwards; updates are an operator tool, not part of the chain.
func (s *Service) UpdateMeasurement(ctx context.Context, id int64, u model.UpdateMeasurement) (*model.Measurement, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return s.db.Update(ctx, id, u)
}

func (s *Service) DeleteMeasurement(ctx context.Context, id int64) error {
	return s.db.Delete(ctx, id)
}

func (s *Service) VerifyChain(ctx context.Context) (*verifier.Report, error) {
	return s.verifier.Verify(ctx)
}
