// Package invitations manages the single-use crew invitation lifecycle.
package invitations

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/harborline/fleetd/internal/app/domain/crew"
	"github.com/harborline/fleetd/internal/app/metrics"
	"github.com/harborline/fleetd/internal/app/storage"
	"github.com/harborline/fleetd/internal/errors"
	"github.com/harborline/fleetd/internal/logging"
	"github.com/harborline/fleetd/internal/mailer"
)

// Service issues and redeems crew invitations.
type Service struct {
	vessels storage.VesselStore
	crews   storage.CrewStore
	users   storage.UserStore
	mail    mailer.Sender
	log     *logging.Logger
	now     func() time.Time
}

// New creates the invitations service. A nil mail sender disables delivery.
func New(vessels storage.VesselStore, crews storage.CrewStore, users storage.UserStore, mail mailer.Sender, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("invitations")
	}
	if mail == nil {
		mail = mailer.NewNoop(log)
	}
	return &Service{
		vessels: vessels,
		crews:   crews,
		users:   users,
		mail:    mail,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func newCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Invite creates a pending invitation for the email and notifies the invitee.
// The notification is best-effort: a delivery failure is logged and the
// invitation stands.
func (s *Service) Invite(ctx context.Context, email, vesselName string, role crew.Role, invitedBy string) (crew.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return crew.Invitation{}, errors.Validation("email is required")
	}

	v, err := s.vessels.GetVesselByName(ctx, vesselName)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return crew.Invitation{}, errors.NotFound("vessel not found")
		}
		return crew.Invitation{}, errors.Internal("resolve vessel", err)
	}

	code, err := newCode()
	if err != nil {
		return crew.Invitation{}, errors.Internal("generate invitation code", err)
	}

	inv, err := s.crews.CreateInvitation(ctx, crew.Invitation{
		Email:     email,
		VesselID:  v.ID,
		Role:      role,
		Code:      code,
		Status:    crew.InvitationPending,
		InvitedBy: invitedBy,
		ExpiresAt: s.now().Add(crew.InvitationTTL),
	})
	if err != nil {
		if stderrors.Is(err, storage.ErrDuplicate) {
			return crew.Invitation{}, errors.Conflict("a pending invitation already exists for this email")
		}
		return crew.Invitation{}, errors.Internal("create invitation", err)
	}

	subject := fmt.Sprintf("You have been invited to join %s", v.Name)
	body := fmt.Sprintf("Use code %s to join %s as %s. The code expires on %s.",
		code, v.Name, role, inv.ExpiresAt.Format(time.RFC1123))
	if err := s.mail.Send(ctx, email, subject, body); err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("email", email).Warn("invitation email delivery failed")
	}
	metrics.RecordInvitationEvent("issued")
	return inv, nil
}

// Accept redeems a code for the user. Any miss, an unknown user, a consumed
// code or an expired one, collapses into the same InvalidCode answer.
func (s *Service) Accept(ctx context.Context, code, userID string) (crew.Membership, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return crew.Membership{}, errors.InvalidCode("invitation code is required")
	}

	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return crew.Membership{}, errors.InvalidCode("invalid invitation code")
		}
		return crew.Membership{}, errors.Internal("resolve user", err)
	}

	inv, err := s.crews.GetPendingInvitation(ctx, u.Email, code, s.now())
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			metrics.RecordInvitationEvent("rejected")
			return crew.Membership{}, errors.InvalidCode("invalid invitation code")
		}
		return crew.Membership{}, errors.Internal("resolve invitation", err)
	}

	m, err := s.crews.AcceptInvitation(ctx, inv.ID, crew.Membership{
		UserID:    u.ID,
		VesselID:  inv.VesselID,
		Role:      inv.Role,
		Access:    crew.AccessActive,
		InvitedBy: inv.InvitedBy,
	})
	if err != nil {
		switch {
		case stderrors.Is(err, storage.ErrNotFound):
			// Lost the race to a concurrent accept.
			return crew.Membership{}, errors.InvalidCode("invalid invitation code")
		case stderrors.Is(err, storage.ErrDuplicate):
			return crew.Membership{}, errors.Conflict("user is already a member of this vessel")
		default:
			return crew.Membership{}, errors.Internal("accept invitation", err)
		}
	}

	metrics.RecordInvitationEvent("accepted")
	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"user":   u.ID,
		"vessel": inv.VesselID,
		"role":   string(inv.Role),
	}).Info("invitation accepted")
	return m, nil
}
