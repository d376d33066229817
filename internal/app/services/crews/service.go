// Package crews lists vessel members and removes memberships.
package crews

import (
	"context"
	stderrors "errors"

	"github.com/harborline/fleetd/internal/app/domain/crew"
	"github.com/harborline/fleetd/internal/app/services/access"
	"github.com/harborline/fleetd/internal/app/storage"
	"github.com/harborline/fleetd/internal/errors"
	"github.com/harborline/fleetd/internal/logging"
)

// Service manages vessel crews.
type Service struct {
	crews  storage.CrewStore
	users  storage.UserStore
	access *access.Service
	log    *logging.Logger
}

// New creates the crews service.
func New(crews storage.CrewStore, users storage.UserStore, accessSvc *access.Service, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("crews")
	}
	return &Service{crews: crews, users: users, access: accessSvc, log: log}
}

// Members returns the vessel's members joined with their profiles.
func (s *Service) Members(ctx context.Context, vesselID string) ([]crew.Member, error) {
	members, err := s.crews.ListMembers(ctx, vesselID)
	if err != nil {
		return nil, errors.Internal("list members", err)
	}
	return members, nil
}

// Remove deletes a membership. The acting user must hold an active supplier
// membership in the vessel, the target must belong to the same vessel, and
// self-removal is rejected. Any invitation row left for the removed member is
// cleaned up best-effort.
func (s *Service) Remove(ctx context.Context, actingUserID, vesselName, membershipID string) (crew.Membership, error) {
	_, v, err := s.access.ResolveRole(ctx, actingUserID, vesselName, crew.RoleSupplier)
	if err != nil {
		return crew.Membership{}, err
	}

	target, err := s.crews.GetMembership(ctx, membershipID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return crew.Membership{}, errors.NotFound("membership not found")
		}
		return crew.Membership{}, errors.Internal("resolve membership", err)
	}
	if target.VesselID != v.ID || target.Access != crew.AccessActive {
		return crew.Membership{}, errors.NotFound("membership not found")
	}
	if target.UserID == actingUserID {
		return crew.Membership{}, errors.InvalidOperation("cannot remove your own membership")
	}

	if err := s.crews.DeleteMembership(ctx, target.ID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return crew.Membership{}, errors.NotFound("membership not found")
		}
		return crew.Membership{}, errors.Internal("delete membership", err)
	}

	if u, err := s.users.GetUser(ctx, target.UserID); err == nil {
		if err := s.crews.DeleteInvitation(ctx, v.ID, u.Email); err != nil && !stderrors.Is(err, storage.ErrNotFound) {
			s.log.WithContext(ctx).WithError(err).Warn("invitation cleanup failed after member removal")
		}
	}

	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"vessel":     v.ID,
		"membership": target.ID,
		"removed_by": actingUserID,
	}).Info("membership removed")
	return target, nil
}
