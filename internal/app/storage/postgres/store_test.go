package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/harborline/fleetd/internal/app/domain/crew"
	"github.com/harborline/fleetd/internal/app/domain/request"
	"github.com/harborline/fleetd/internal/app/domain/user"
	"github.com/harborline/fleetd/internal/app/domain/vessel"
	"github.com/harborline/fleetd/internal/app/storage"
	"github.com/harborline/fleetd/internal/platform/migrations"
)

func TestGetUserNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM fleet_users WHERE id =").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	store := New(db)
	if _, err := store.GetUser(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRequestsQueryShape(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "vessel_id", "type_id", "title", "status", "created_by", "created_at"}).
		AddRow("r2", "v1", "t1", "oil filters", request.StatusPending, "u1", now).
		AddRow("r1", "v1", "t1", "rope", request.StatusDelivered, "u1", now.Add(-time.Hour))

	mock.ExpectQuery("SELECT .+ FROM fleet_requests").
		WithArgs("v1", "t1", 10, 20).
		WillReturnRows(rows)

	store := New(db)
	got, err := store.ListRequests(context.Background(), "v1", "t1", 10, 20)
	if err != nil {
		t.Fatalf("list requests: %v", err)
	}
	if len(got) != 2 || got[0].ID != "r2" {
		t.Fatalf("unexpected page: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateInvitationDuplicatePending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	// The partial unique index on (vessel_id, lower(email)) WHERE pending
	// surfaces as a unique violation on the second insert.
	mock.ExpectExec("INSERT INTO fleet_invitations").
		WillReturnError(&pq.Error{Code: "23505"})

	store := New(db)
	_, err = store.CreateInvitation(context.Background(), crew.Invitation{
		Email:    "dup@harborline.test",
		VesselID: "v1",
		Role:     crew.RoleCrew,
		Code:     "c0de",
		Status:   crew.InvitationPending,
	})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for pending collision, got %v", err)
	}
}

func TestAcceptInvitationConsumed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE fleet_invitations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	store := New(db)
	_, err = store.AcceptInvitation(context.Background(), "inv1", crew.Membership{UserID: "u1", VesselID: "v1"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for consumed invitation, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAcceptInvitationCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE fleet_invitations").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO fleet_memberships").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := New(db)
	m, err := store.AcceptInvitation(context.Background(), "inv1", crew.Membership{UserID: "u1", VesselID: "v1", Role: crew.RoleCrew, Access: crew.AccessActive})
	if err != nil {
		t.Fatalf("accept invitation: %v", err)
	}
	if m.ID == "" {
		t.Fatal("expected generated membership id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	store := New(db)

	u, err := store.CreateUser(ctx, user.User{Email: "integration@harborline.test", PasswordHash: "x", Name: "Int"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	v, err := store.CreateVessel(ctx, vessel.Vessel{Name: "MV Integration", OwnerID: u.ID})
	if err != nil {
		t.Fatalf("create vessel: %v", err)
	}

	if _, err := store.CreateMembership(ctx, crew.Membership{UserID: u.ID, VesselID: v.ID, Role: crew.RoleSupplier, Access: crew.AccessActive, InvitedBy: u.ID}); err != nil {
		t.Fatalf("create membership: %v", err)
	}

	rt, err := store.CreateRequestType(ctx, request.Type{VesselID: v.ID, Name: "DECK", Label: "Deck", Color: "#0055aa"})
	if err != nil {
		t.Fatalf("create request type: %v", err)
	}

	if _, err := store.CreateRequest(ctx, request.Request{VesselID: v.ID, TypeID: rt.ID, Title: "mooring line", Status: request.StatusPending, CreatedBy: u.ID}); err != nil {
		t.Fatalf("create request: %v", err)
	}

	count, err := store.CountRequests(ctx, v.ID, "")
	if err != nil {
		t.Fatalf("count requests: %v", err)
	}
	if count < 1 {
		t.Fatalf("expected at least one request, got %d", count)
	}

	inv := crew.Invitation{
		Email:     "bosun@harborline.test",
		VesselID:  v.ID,
		Role:      crew.RoleCrew,
		Code:      "integration-code",
		Status:    crew.InvitationPending,
		InvitedBy: u.ID,
		ExpiresAt: time.Now().Add(crew.InvitationTTL),
	}
	if _, err := store.CreateInvitation(ctx, inv); err != nil {
		t.Fatalf("create invitation: %v", err)
	}
	if _, err := store.CreateInvitation(ctx, inv); !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for second pending invitation, got %v", err)
	}
	if err := store.DeleteInvitation(ctx, v.ID, inv.Email); err != nil {
		t.Fatalf("delete invitation: %v", err)
	}
}
