package crew

import (
	"fmt"
	"strings"
	"time"
)

// Role is a member's function aboard a vessel. Supplier is the privileged
// role: it may invite and remove members.
type Role string

const (
	RoleSupplier Role = "supplier"
	RoleOfficer  Role = "officer"
	RoleCrew     Role = "crew"
)

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleSupplier:
		return RoleSupplier, nil
	case RoleOfficer:
		return RoleOfficer, nil
	case RoleCrew:
		return RoleCrew, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Access is a membership's access status.
type Access string

const (
	AccessActive   Access = "active"
	AccessInactive Access = "inactive"
)

// InvitationStatus tracks the single-use invitation lifecycle. An invitation
// transitions pending -> accepted exactly once and never reverts.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
)

// InvitationTTL is how long an issued invitation code stays redeemable.
const InvitationTTL = 10 * 24 * time.Hour

// Membership links a user to a vessel with a role. At most one membership
// exists per (user, vessel) pair.
type Membership struct {
	ID        string
	UserID    string
	VesselID  string
	Role      Role
	Access    Access
	InvitedBy string
	JoinedAt  time.Time
}

// Invitation is a time-boxed, single-use offer of a role-scoped membership to
// an email address.
type Invitation struct {
	ID        string
	Email     string
	VesselID  string
	Role      Role
	Code      string `json:"-"`
	Status    InvitationStatus
	InvitedBy string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Member is a membership joined with the member's profile, for listings.
type Member struct {
	Membership
	Name        string
	Email       string
	Institution string
}
