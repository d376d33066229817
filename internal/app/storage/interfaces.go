package storage

import (
	"context"
	"errors"
	"time"

	"github.com/harborline/fleetd/internal/app/domain/crew"
	"github.com/harborline/fleetd/internal/app/domain/request"
	"github.com/harborline/fleetd/internal/app/domain/user"
	"github.com/harborline/fleetd/internal/app/domain/vessel"
)

// Sentinel errors shared by all store implementations.
var (
	ErrNotFound  = errors.New("storage: not found")
	ErrDuplicate = errors.New("storage: duplicate")
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
}

// VesselStore persists vessels.
type VesselStore interface {
	CreateVessel(ctx context.Context, v vessel.Vessel) (vessel.Vessel, error)
	GetVessel(ctx context.Context, id string) (vessel.Vessel, error)
	GetVesselByName(ctx context.Context, name string) (vessel.Vessel, error)
}

// CrewStore persists memberships and invitations. AcceptInvitation is the
// single transactional entry point that consumes an invitation while creating
// the membership; the two writes are never observable separately.
type CrewStore interface {
	CreateMembership(ctx context.Context, m crew.Membership) (crew.Membership, error)
	GetMembership(ctx context.Context, id string) (crew.Membership, error)
	GetMembershipByUser(ctx context.Context, userID, vesselID string) (crew.Membership, error)
	ListMembers(ctx context.Context, vesselID string) ([]crew.Member, error)
	DeleteMembership(ctx context.Context, id string) error

	CreateInvitation(ctx context.Context, inv crew.Invitation) (crew.Invitation, error)
	// GetPendingInvitation returns the pending, unexpired invitation matching
	// the email and code, or ErrNotFound.
	GetPendingInvitation(ctx context.Context, email, code string, now time.Time) (crew.Invitation, error)
	// AcceptInvitation atomically creates the membership and flips the
	// invitation from pending to accepted. It returns ErrNotFound when the
	// invitation is no longer pending or has expired, and ErrDuplicate when
	// the user already holds a membership in the vessel.
	AcceptInvitation(ctx context.Context, invitationID string, m crew.Membership) (crew.Membership, error)
	// DeleteInvitation removes every invitation row for the vessel and email,
	// whatever the status, and returns ErrNotFound when there is none.
	DeleteInvitation(ctx context.Context, vesselID, email string) error
}

// RequestStore persists requests and the per-vessel request-type taxonomy.
type RequestStore interface {
	CreateRequest(ctx context.Context, req request.Request) (request.Request, error)
	// ListRequests returns vessel-scoped requests ordered by creation time
	// descending. An empty typeID disables type filtering.
	ListRequests(ctx context.Context, vesselID, typeID string, limit, offset int) ([]request.Request, error)
	CountRequests(ctx context.Context, vesselID, typeID string) (int, error)
	CountRequestsByType(ctx context.Context, vesselID string) (map[string]int, error)
	CountRequestsByStatus(ctx context.Context, vesselID string) (map[string]int, error)

	CreateRequestType(ctx context.Context, rt request.Type) (request.Type, error)
	GetRequestTypeByName(ctx context.Context, vesselID, name string) (request.Type, error)
	ListRequestTypes(ctx context.Context, vesselID string) ([]request.Type, error)
}
