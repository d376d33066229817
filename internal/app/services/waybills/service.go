// Package waybills resolves shipment tracking through the logistics provider.
package waybills

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/harborline/fleetd/internal/app/domain/waybill"
	"github.com/harborline/fleetd/internal/app/metrics"
	"github.com/harborline/fleetd/internal/errors"
	"github.com/harborline/fleetd/internal/logging"
	"github.com/harborline/fleetd/internal/logistics"
)

// Service answers waybill tracking lookups.
type Service struct {
	tracker logistics.Tracker
	log     *logging.Logger
}

// New creates the waybills service. A nil tracker means no provider is
// configured; Track then answers NotConfigured.
func New(tracker logistics.Tracker, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("waybills")
	}
	return &Service{tracker: tracker, log: log}
}

// Track validates the kind and queries the provider.
func (s *Service) Track(ctx context.Context, kind, trackingNumber string) (waybill.Waybill, error) {
	k, err := waybill.ParseKind(kind)
	if err != nil {
		return waybill.Waybill{}, errors.Validation("waybill type must be air or parcel")
	}
	if trackingNumber == "" {
		return waybill.Waybill{}, errors.Validation("tracking number is required")
	}
	if s.tracker == nil {
		return waybill.Waybill{}, errors.NotConfigured("waybill tracking is not configured")
	}

	start := time.Now()
	wb, err := s.tracker.Track(ctx, k, trackingNumber)
	if err != nil {
		if stderrors.Is(err, logistics.ErrNotFound) {
			metrics.RecordWaybillLookup(string(k), "not_found", time.Since(start))
			return waybill.Waybill{}, errors.NotFound("waybill not found")
		}
		metrics.RecordWaybillLookup(string(k), "error", time.Since(start))
		s.log.WithContext(ctx).WithError(err).WithField("tracking_number", trackingNumber).Error("logistics provider lookup failed")
		return waybill.Waybill{}, errors.Internal("track waybill", err)
	}
	metrics.RecordWaybillLookup(string(k), "ok", time.Since(start))
	return wb, nil
}
