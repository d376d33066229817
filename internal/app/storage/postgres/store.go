package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/harborline/fleetd/internal/app/domain/crew"
	"github.com/harborline/fleetd/internal/app/domain/request"
	"github.com/harborline/fleetd/internal/app/domain/user"
	"github.com/harborline/fleetd/internal/app/domain/vessel"
	"github.com/harborline/fleetd/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.VesselStore = (*Store)(nil)
var _ storage.CrewStore = (*Store)(nil)
var _ storage.RequestStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// mapErr translates driver errors into storage sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return storage.ErrDuplicate
	}
	return err
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fleet_users (id, email, password_hash, name, institution, contact, email_confirmed, confirm_code, reset_code, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Institution, u.Contact, u.EmailConfirmed, u.ConfirmCode, u.ResetCode, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	u.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE fleet_users
		SET password_hash = $2, name = $3, institution = $4, contact = $5,
		    email_confirmed = $6, confirm_code = $7, reset_code = $8, updated_at = $9
		WHERE id = $1
	`, u.ID, u.PasswordHash, u.Name, u.Institution, u.Contact, u.EmailConfirmed, u.ConfirmCode, u.ResetCode, u.UpdatedAt)
	if err != nil {
		return user.User{}, mapErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.User{}, storage.ErrNotFound
	}
	return u, nil
}

const userColumns = `id, email, password_hash, name, institution, contact, email_confirmed, confirm_code, reset_code, created_at, updated_at`

func scanUser(row *sql.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Institution, &u.Contact,
		&u.EmailConfirmed, &u.ConfirmCode, &u.ResetCode, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return user.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM fleet_users WHERE id = $1
	`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM fleet_users WHERE email = lower($1)
	`, email))
}

// --- VesselStore ------------------------------------------------------------

func (s *Store) CreateVessel(ctx context.Context, v vessel.Vessel) (vessel.Vessel, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fleet_vessels (id, name, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, v.ID, v.Name, v.OwnerID, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return vessel.Vessel{}, mapErr(err)
	}
	return v, nil
}

func scanVessel(row *sql.Row) (vessel.Vessel, error) {
	var v vessel.Vessel
	err := row.Scan(&v.ID, &v.Name, &v.OwnerID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return vessel.Vessel{}, mapErr(err)
	}
	return v, nil
}

func (s *Store) GetVessel(ctx context.Context, id string) (vessel.Vessel, error) {
	return scanVessel(s.db.QueryRowContext(ctx, `
		SELECT id, name, owner_id, created_at, updated_at FROM fleet_vessels WHERE id = $1
	`, id))
}

func (s *Store) GetVesselByName(ctx context.Context, name string) (vessel.Vessel, error) {
	return scanVessel(s.db.QueryRowContext(ctx, `
		SELECT id, name, owner_id, created_at, updated_at FROM fleet_vessels WHERE lower(name) = lower($1)
	`, name))
}

// --- CrewStore --------------------------------------------------------------

func (s *Store) CreateMembership(ctx context.Context, m crew.Membership) (crew.Membership, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.JoinedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fleet_memberships (id, user_id, vessel_id, role, access, invited_by, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.UserID, m.VesselID, m.Role, m.Access, m.InvitedBy, m.JoinedAt)
	if err != nil {
		return crew.Membership{}, mapErr(err)
	}
	return m, nil
}

func scanMembership(row *sql.Row) (crew.Membership, error) {
	var m crew.Membership
	err := row.Scan(&m.ID, &m.UserID, &m.VesselID, &m.Role, &m.Access, &m.InvitedBy, &m.JoinedAt)
	if err != nil {
		return crew.Membership{}, mapErr(err)
	}
	return m, nil
}

const membershipColumns = `id, user_id, vessel_id, role, access, invited_by, joined_at`

func (s *Store) GetMembership(ctx context.Context, id string) (crew.Membership, error) {
	return scanMembership(s.db.QueryRowContext(ctx, `
		SELECT `+membershipColumns+` FROM fleet_memberships WHERE id = $1
	`, id))
}

func (s *Store) GetMembershipByUser(ctx context.Context, userID, vesselID string) (crew.Membership, error) {
	return scanMembership(s.db.QueryRowContext(ctx, `
		SELECT `+membershipColumns+` FROM fleet_memberships WHERE user_id = $1 AND vessel_id = $2
	`, userID, vesselID))
}

func (s *Store) ListMembers(ctx context.Context, vesselID string) ([]crew.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.user_id, m.vessel_id, m.role, m.access, m.invited_by, m.joined_at,
		       u.name, u.email, u.institution
		FROM fleet_memberships m
		JOIN fleet_users u ON u.id = m.user_id
		WHERE m.vessel_id = $1
		ORDER BY m.joined_at
	`, vesselID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	result := make([]crew.Member, 0)
	for rows.Next() {
		var member crew.Member
		if err := rows.Scan(&member.ID, &member.UserID, &member.VesselID, &member.Role, &member.Access,
			&member.InvitedBy, &member.JoinedAt, &member.Name, &member.Email, &member.Institution); err != nil {
			return nil, mapErr(err)
		}
		result = append(result, member)
	}
	return result, rows.Err()
}

func (s *Store) DeleteMembership(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM fleet_memberships WHERE id = $1
	`, id)
	if err != nil {
		return mapErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CreateInvitation(ctx context.Context, inv crew.Invitation) (crew.Invitation, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	inv.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fleet_invitations (id, email, vessel_id, role, code, status, invited_by, expires_at, created_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $9)
	`, inv.ID, inv.Email, inv.VesselID, inv.Role, inv.Code, inv.Status, inv.InvitedBy, inv.ExpiresAt, inv.CreatedAt)
	if err != nil {
		return crew.Invitation{}, mapErr(err)
	}
	return inv, nil
}

func (s *Store) GetPendingInvitation(ctx context.Context, email, code string, now time.Time) (crew.Invitation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, vessel_id, role, code, status, invited_by, expires_at, created_at
		FROM fleet_invitations
		WHERE email = lower($1) AND code = $2 AND status = 'pending' AND expires_at > $3
	`, email, code, now)

	var inv crew.Invitation
	err := row.Scan(&inv.ID, &inv.Email, &inv.VesselID, &inv.Role, &inv.Code, &inv.Status,
		&inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt)
	if err != nil {
		return crew.Invitation{}, mapErr(err)
	}
	return inv, nil
}

// AcceptInvitation marks the invitation accepted and inserts the membership in
// one transaction. The conditional UPDATE is the guard: a zero row count means
// the invitation was already consumed or has expired.
func (s *Store) AcceptInvitation(ctx context.Context, invitationID string, m crew.Membership) (crew.Membership, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return crew.Membership{}, mapErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE fleet_invitations
		SET status = 'accepted'
		WHERE id = $1 AND status = 'pending' AND expires_at > $2
	`, invitationID, time.Now().UTC())
	if err != nil {
		return crew.Membership{}, mapErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return crew.Membership{}, storage.ErrNotFound
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.JoinedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fleet_memberships (id, user_id, vessel_id, role, access, invited_by, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.UserID, m.VesselID, m.Role, m.Access, m.InvitedBy, m.JoinedAt)
	if err != nil {
		return crew.Membership{}, mapErr(err)
	}

	if err := tx.Commit(); err != nil {
		return crew.Membership{}, mapErr(err)
	}
	return m, nil
}

func (s *Store) DeleteInvitation(ctx context.Context, vesselID, email string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM fleet_invitations WHERE vessel_id = $1 AND email = lower($2)
	`, vesselID, email)
	if err != nil {
		return mapErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- RequestStore -----------------------------------------------------------

func (s *Store) CreateRequest(ctx context.Context, req request.Request) (request.Request, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fleet_requests (id, vessel_id, type_id, title, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, req.ID, req.VesselID, req.TypeID, req.Title, req.Status, req.CreatedBy, req.CreatedAt)
	if err != nil {
		return request.Request{}, mapErr(err)
	}
	return req, nil
}

func (s *Store) ListRequests(ctx context.Context, vesselID, typeID string, limit, offset int) ([]request.Request, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vessel_id, type_id, title, status, created_by, created_at
		FROM fleet_requests
		WHERE vessel_id = $1 AND ($2 = '' OR type_id = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, vesselID, typeID, limit, offset)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	result := make([]request.Request, 0)
	for rows.Next() {
		var req request.Request
		if err := rows.Scan(&req.ID, &req.VesselID, &req.TypeID, &req.Title, &req.Status,
			&req.CreatedBy, &req.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func (s *Store) CountRequests(ctx context.Context, vesselID, typeID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM fleet_requests
		WHERE vessel_id = $1 AND ($2 = '' OR type_id = $2)
	`, vesselID, typeID).Scan(&count)
	if err != nil {
		return 0, mapErr(err)
	}
	return count, nil
}

func (s *Store) countGrouped(ctx context.Context, query, vesselID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, query, vesselID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return nil, mapErr(err)
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

func (s *Store) CountRequestsByType(ctx context.Context, vesselID string) (map[string]int, error) {
	return s.countGrouped(ctx, `
		SELECT type_id, COUNT(*) FROM fleet_requests
		WHERE vessel_id = $1
		GROUP BY type_id
	`, vesselID)
}

func (s *Store) CountRequestsByStatus(ctx context.Context, vesselID string) (map[string]int, error) {
	return s.countGrouped(ctx, `
		SELECT status, COUNT(*) FROM fleet_requests
		WHERE vessel_id = $1
		GROUP BY status
	`, vesselID)
}

func (s *Store) CreateRequestType(ctx context.Context, rt request.Type) (request.Type, error) {
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	rt.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fleet_request_types (id, vessel_id, name, label, color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rt.ID, rt.VesselID, rt.Name, rt.Label, rt.Color, rt.CreatedAt)
	if err != nil {
		return request.Type{}, mapErr(err)
	}
	return rt, nil
}

func (s *Store) GetRequestTypeByName(ctx context.Context, vesselID, name string) (request.Type, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, vessel_id, name, label, color, created_at
		FROM fleet_request_types
		WHERE vessel_id = $1 AND name = $2
	`, vesselID, name)

	var rt request.Type
	err := row.Scan(&rt.ID, &rt.VesselID, &rt.Name, &rt.Label, &rt.Color, &rt.CreatedAt)
	if err != nil {
		return request.Type{}, mapErr(err)
	}
	return rt, nil
}

func (s *Store) ListRequestTypes(ctx context.Context, vesselID string) ([]request.Type, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vessel_id, name, label, color, created_at
		FROM fleet_request_types
		WHERE vessel_id = $1
		ORDER BY created_at
	`, vesselID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	result := make([]request.Type, 0)
	for rows.Next() {
		var rt request.Type
		if err := rows.Scan(&rt.ID, &rt.VesselID, &rt.Name, &rt.Label, &rt.Color, &rt.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		result = append(result, rt)
	}
	return result, rows.Err()
}
