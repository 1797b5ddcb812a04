package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/oleksandr-ch/measurement-chain/internal/pkg/model"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// parseListFilter reads the query parameters of GET /measurements/.
func parseListFilter(r *http.Request) (model.ListFilter, error) {
	filter := model.ListFilter{Limit: model.DefaultListLimit}
	q := r.URL.Query()

	if v := q.Get("skip"); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil || skip < 0 {
			return filter, &model.ValidationError{Field: "skip", Reason: "must be a non-negative integer"}
		}
		filter.Skip = skip
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return filter, &model.ValidationError{Field: "limit", Reason: "must be a positive integer"}
		}
		filter.Limit = limit
	}
	if v := q.Get("sensorId"); v != "" {
		sensorID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, &model.ValidationError{Field: "sensorId", Reason: "must be an integer"}
		}
		filter.SensorID = lo.ToPtr(sensorID)
	}
	if v := q.Get("startDate"); v != "" {
		ts, err := parseDate(v)
		if err != nil {
			return filter, &model.ValidationError{Field: "startDate", Reason: "must be an RFC3339 timestamp or YYYY-MM-DD"}
		}
		filter.StartDate = lo.ToPtr(ts)
	}
	if v := q.Get("endDate"); v != "" {
		ts, err := parseDate(v)
		if err != nil {
			return filter, &model.ValidationError{Field: "endDate", Reason: "must be an RFC3339 timestamp or YYYY-MM-DD"}
		}
		filter.EndDate = lo.ToPtr(ts)
	}
	if v := q.Get("location"); v != "" {
		filter.Location = lo.ToPtr(v)
	}

	return filter, nil
}

func parseDate(value string) (time.Time, error) {
	var (
		ts  time.Time
		err error
	)
	for _, layout := range dateLayouts {
		if ts, err = time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}
