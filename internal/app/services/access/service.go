// Package access resolves vessel names to memberships. Every vessel-scoped
// operation goes through Resolve; internal vessel IDs never cross the API
// boundary.
package access

import (
	"context"
	stderrors "errors"

	"github.com/harborline/fleetd/internal/app/domain/crew"
	"github.com/harborline/fleetd/internal/app/domain/vessel"
	"github.com/harborline/fleetd/internal/app/storage"
	"github.com/harborline/fleetd/internal/errors"
	"github.com/harborline/fleetd/internal/logging"
)

// Service resolves access to vessels.
type Service struct {
	vessels storage.VesselStore
	crews   storage.CrewStore
	log     *logging.Logger
}

// New creates the access service.
func New(vessels storage.VesselStore, crews storage.CrewStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("access")
	}
	return &Service{vessels: vessels, crews: crews, log: log}
}

// Resolve maps a vessel name to the caller's active membership. The vessel
// must exist and the user must hold an active membership in it.
func (s *Service) Resolve(ctx context.Context, userID, vesselName string) (crew.Membership, vessel.Vessel, error) {
	v, err := s.vessels.GetVesselByName(ctx, vesselName)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return crew.Membership{}, vessel.Vessel{}, errors.NotFound("vessel not found")
		}
		return crew.Membership{}, vessel.Vessel{}, errors.Internal("resolve vessel", err)
	}

	m, err := s.crews.GetMembershipByUser(ctx, userID, v.ID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			s.log.WithContext(ctx).WithFields(map[string]interface{}{
				"vessel": vesselName,
				"user":   userID,
			}).Warn("access denied: no membership")
			return crew.Membership{}, vessel.Vessel{}, errors.Forbidden("no access to vessel")
		}
		return crew.Membership{}, vessel.Vessel{}, errors.Internal("resolve membership", err)
	}
	if m.Access != crew.AccessActive {
		return crew.Membership{}, vessel.Vessel{}, errors.Forbidden("membership is inactive")
	}
	return m, v, nil
}

// ResolveRole resolves access and additionally requires the given role.
func (s *Service) ResolveRole(ctx context.Context, userID, vesselName string, role crew.Role) (crew.Membership, vessel.Vessel, error) {
	m, v, err := s.Resolve(ctx, userID, vesselName)
	if err != nil {
		return crew.Membership{}, vessel.Vessel{}, err
	}
	if m.Role != role {
		return crew.Membership{}, vessel.Vessel{}, errors.Forbidden("insufficient role")
	}
	return m, v, nil
}
