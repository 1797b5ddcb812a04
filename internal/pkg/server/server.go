package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/oleksandr-ch/measurement-chain/internal/pkg/model"
	"github.com/oleksandr-ch/measurement-chain/internal/pkg/verifier"
)

type measurementService interface {
	CreateMeasurement(ctx context.Context, c model.CreateMeasurement) (*model.Measurement, error)
	ListMeasurements(ctx context.Context, filter model.ListFilter) (model.Measurements, error)
	GetMeasurement(ctx context.Context, id int64) (*model.Measurement, error)
	UpdateMeasurement(ctx context.Context, id int64, u model.UpdateMeasurement) (*model.Measurement, error)
	DeleteMeasurement(ctx context.Context, id int64) error
	VerifyChain(ctx context.Context) (*verifier.Report, error)
}

type server struct {
	svc       measurementService
	stream    http.Handler
	logger    *zap.Logger
	apiSecret string
}

// New builds the HTTP surface. stream may be nil when the live tail is
// disabled; apiSecret empty means mutating endpoints are open.
func New(svc measurementService, stream http.Handler, apiSecret string) *server {
	return &server{svc: svc, stream: stream, logger: zap.L(), apiSecret: apiSecret}
}

func (s *server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/measurements/", s.createMeasurement).Methods(http.MethodPost)
	r.HandleFunc("/measurements/", s.listMeasurements).Methods(http.MethodGet)
	if s.stream != nil {
		r.Handle("/measurements/stream", s.stream).Methods(http.MethodGet)
	}
	r.HandleFunc("/measurements/{id:[0-9]+}", s.getMeasurement).Methods(http.MethodGet)
	r.HandleFunc("/measurements/{id:[0-9]+}", s.authorized(s.updateMeasurement)).Methods(http.MethodPut)
	r.HandleFunc("/measurements/{id:[0-9]+}", s.authorized(s.deleteMeasurement)).Methods(http.MethodDelete)
	r.HandleFunc("/blockchain/verify", s.verifyChain).Methods(http.MethodGet)

	return r
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "measurement-service",
	})
}

func (s *server) createMeasurement(w http.ResponseWriter, r *http.Request) {
	payload, err := unmarshalPayload[model.CreateMeasurement](r)
	if err != nil {
		handleError(w, s.logger, &model.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	m, err := s.svc.CreateMeasurement(r.Context(), *payload)
	if err != nil {
		handleError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *server) listMeasurements(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		handleError(w, s.logger, err)
		return
	}

	measurements, err := s.svc.ListMeasurements(r.Context(), filter)
	if err != nil {
		handleError(w, s.logger, err)
		return
	}
	if measurements == nil {
		measurements = model.Measurements{}
	}
	writeJSON(w, http.StatusOK, measurements)
}

func (s *server) getMeasurement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, s.logger, err)
		return
	}

	m, err := s.svc.GetMeasurement(r.Context(), id)
	if err != nil {
		handleError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *server) updateMeasurement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, s.logger, err)
		return
	}

	payload, err := unmarshalPayload[model.UpdateMeasurement](r)
	if err != nil {
		handleError(w, s.logger, &model.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	m, err := s.svc.UpdateMeasurement(r.Context(), id, *payload)
	if err != nil {
		handleError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *server) deleteMeasurement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, s.logger, err)
		return
	}

	if err := s.svc.DeleteMeasurement(r.Context(), id); err != nil {
		handleError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) verifyChain(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.VerifyChain(r.Context())
	if err != nil {
		handleError(w, s.logger, err)
		return
	}

	if report.Status == verifier.StatusCorrupted {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": report.Status,
			"errors": report.Errors,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": report.Status,
		"length": report.Length,
	})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, &model.ValidationError{Field: "id", Reason: "must be an integer"}
	}
	return id, nil
}

func handleError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var validationErr *model.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": validationErr.Error()})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "measurement not found"})
	default:
		logger.Error("internal error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "database error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func unmarshalPayload[T any](r *http.Request) (*T, error) {
	var out T
	if err := json.NewDecoder(r.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
