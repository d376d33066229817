// Package dashboard aggregates per-vessel request analytics.
package dashboard

import (
	"context"

	"github.com/harborline/fleetd/internal/app/storage"
	"github.com/harborline/fleetd/internal/errors"
	"github.com/harborline/fleetd/internal/logging"
)

// TypeCount is a request count for one request type, with display metadata.
type TypeCount struct {
	TypeID string `json:"typeId"`
	Name   string `json:"name"`
	Label  string `json:"label"`
	Color  string `json:"color"`
	Count  int    `json:"count"`
}

// Summary is the dashboard payload for one vessel.
type Summary struct {
	TotalRequests int            `json:"totalRequests"`
	ByStatus      map[string]int `json:"byStatus"`
	ByType        []TypeCount    `json:"byType"`
}

// Service computes dashboard summaries.
type Service struct {
	store storage.RequestStore
	log   *logging.Logger
}

// New creates the dashboard service.
func New(store storage.RequestStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("dashboard")
	}
	return &Service{store: store, log: log}
}

// Summary returns request totals grouped by status and by type. Types with no
// requests still appear with a zero count so widgets render the full taxonomy.
func (s *Service) Summary(ctx context.Context, vesselID string) (Summary, error) {
	total, err := s.store.CountRequests(ctx, vesselID, "")
	if err != nil {
		return Summary{}, errors.Internal("count requests", err)
	}
	byStatus, err := s.store.CountRequestsByStatus(ctx, vesselID)
	if err != nil {
		return Summary{}, errors.Internal("count requests by status", err)
	}
	byTypeID, err := s.store.CountRequestsByType(ctx, vesselID)
	if err != nil {
		return Summary{}, errors.Internal("count requests by type", err)
	}
	types, err := s.store.ListRequestTypes(ctx, vesselID)
	if err != nil {
		return Summary{}, errors.Internal("list request types", err)
	}

	byType := make([]TypeCount, 0, len(types))
	for _, rt := range types {
		byType = append(byType, TypeCount{
			TypeID: rt.ID,
			Name:   rt.Name,
			Label:  rt.Label,
			Color:  rt.Color,
			Count:  byTypeID[rt.ID],
		})
	}

	return Summary{TotalRequests: total, ByStatus: byStatus, ByType: byType}, nil
}
