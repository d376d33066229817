// Package requests implements the requisition listing, creation and
// request-type taxonomy.
package requests

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/harborline/fleetd/internal/app/domain/request"
	"github.com/harborline/fleetd/internal/app/storage"
	"github.com/harborline/fleetd/internal/errors"
	"github.com/harborline/fleetd/internal/logging"
)

// Service manages requests and request types for a vessel.
type Service struct {
	store storage.RequestStore
	log   *logging.Logger
}

// New creates the requests service.
func New(store storage.RequestStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("requests")
	}
	return &Service{store: store, log: log}
}

// List returns one page of the vessel's requests, newest first. A non-empty
// typeName that matches no request type yields an empty page with a zero
// total, not an error.
func (s *Service) List(ctx context.Context, vesselID string, rows, page int, typeName string) ([]request.Request, request.Page, error) {
	if rows <= 0 {
		return nil, request.Page{}, errors.Validation("rows must be a positive integer")
	}
	if page <= 0 {
		return nil, request.Page{}, errors.Validation("page must be a positive integer")
	}

	typeID := ""
	if typeName != "" {
		rt, err := s.store.GetRequestTypeByName(ctx, vesselID, strings.ToUpper(typeName))
		if err != nil {
			if stderrors.Is(err, storage.ErrNotFound) {
				return []request.Request{}, request.NewPage(page, rows, 0), nil
			}
			return nil, request.Page{}, errors.Internal("resolve request type", err)
		}
		typeID = rt.ID
	}

	total, err := s.store.CountRequests(ctx, vesselID, typeID)
	if err != nil {
		return nil, request.Page{}, errors.Internal("count requests", err)
	}

	items, err := s.store.ListRequests(ctx, vesselID, typeID, rows, (page-1)*rows)
	if err != nil {
		return nil, request.Page{}, errors.Internal("list requests", err)
	}
	return items, request.NewPage(page, rows, total), nil
}

// Create records a new pending request under the given type name.
func (s *Service) Create(ctx context.Context, vesselID, createdBy, typeName, title string) (request.Request, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return request.Request{}, errors.Validation("title is required")
	}

	rt, err := s.store.GetRequestTypeByName(ctx, vesselID, strings.ToUpper(strings.TrimSpace(typeName)))
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return request.Request{}, errors.Validation("unknown request type")
		}
		return request.Request{}, errors.Internal("resolve request type", err)
	}

	created, err := s.store.CreateRequest(ctx, request.Request{
		VesselID:  vesselID,
		TypeID:    rt.ID,
		Title:     title,
		Status:    request.StatusPending,
		CreatedBy: createdBy,
	})
	if err != nil {
		return request.Request{}, errors.Internal("create request", err)
	}
	return created, nil
}

// ListTypes returns the vessel's request types in creation order.
func (s *Service) ListTypes(ctx context.Context, vesselID string) ([]request.Type, error) {
	types, err := s.store.ListRequestTypes(ctx, vesselID)
	if err != nil {
		return nil, errors.Internal("list request types", err)
	}
	return types, nil
}

// CreateType adds a request type. Names are uppercased; a case-insensitive
// collision within the vessel is a Conflict and creates nothing.
func (s *Service) CreateType(ctx context.Context, vesselID, name, label, color string) (request.Type, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return request.Type{}, errors.Validation("name is required")
	}

	created, err := s.store.CreateRequestType(ctx, request.Type{
		VesselID: vesselID,
		Name:     name,
		Label:    label,
		Color:    color,
	})
	if err != nil {
		if stderrors.Is(err, storage.ErrDuplicate) {
			return request.Type{}, errors.Conflict("request type already exists")
		}
		return request.Type{}, errors.Internal("create request type", err)
	}
	return created, nil
}
