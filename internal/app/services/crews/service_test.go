package crews

import (
	"context"
	"testing"

	"github.com/harborline/fleetd/internal/app/domain/crew"
	"github.com/harborline/fleetd/internal/app/domain/user"
	"github.com/harborline/fleetd/internal/app/domain/vessel"
	"github.com/harborline/fleetd/internal/app/services/access"
	"github.com/harborline/fleetd/internal/app/storage/memory"
	"github.com/harborline/fleetd/internal/errors"
)

type fixture struct {
	store    *memory.Store
	svc      *Service
	supplier user.User
	deckhand user.User
	vessel   vessel.Vessel
	deckMem  crew.Membership
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	svc := New(store, store, access.New(store, store, nil), nil)
	ctx := context.Background()

	supplier, _ := store.CreateUser(ctx, user.User{Email: "supplier@harborline.test", Name: "Sam"})
	deckhand, _ := store.CreateUser(ctx, user.User{Email: "deck@harborline.test", Name: "Dana"})
	v, _ := store.CreateVessel(ctx, vessel.Vessel{Name: "MV Aurora", OwnerID: supplier.ID})
	store.CreateMembership(ctx, crew.Membership{UserID: supplier.ID, VesselID: v.ID, Role: crew.RoleSupplier, Access: crew.AccessActive})
	dm, _ := store.CreateMembership(ctx, crew.Membership{UserID: deckhand.ID, VesselID: v.ID, Role: crew.RoleCrew, Access: crew.AccessActive})

	return fixture{store: store, svc: svc, supplier: supplier, deckhand: deckhand, vessel: v, deckMem: dm}
}

func TestMembersIncludesProfiles(t *testing.T) {
	f := newFixture(t)

	members, err := f.svc.Members(context.Background(), f.vessel.ID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	for _, m := range members {
		if m.Email == "" || m.Name == "" {
			t.Fatalf("member profile not joined: %+v", m)
		}
	}
}

func TestRemoveBySupplier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	removed, err := f.svc.Remove(ctx, f.supplier.ID, "MV Aurora", f.deckMem.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.ID != f.deckMem.ID {
		t.Fatalf("unexpected removed membership: %+v", removed)
	}

	members, _ := f.svc.Members(ctx, f.vessel.ID)
	if len(members) != 1 {
		t.Fatalf("expected 1 member after removal, got %d", len(members))
	}
}

func TestRemoveRequiresSupplierRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Remove(context.Background(), f.deckhand.ID, "MV Aurora", f.deckMem.ID)
	if !errors.Is(err, errors.CodeForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestRemoveSelfRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	supplierMem, err := f.store.GetMembershipByUser(ctx, f.supplier.ID, f.vessel.ID)
	if err != nil {
		t.Fatalf("lookup supplier membership: %v", err)
	}

	_, err = f.svc.Remove(ctx, f.supplier.ID, "MV Aurora", supplierMem.ID)
	if !errors.Is(err, errors.CodeInvalidOperation) {
		t.Fatalf("expected InvalidOperation, got %v", err)
	}

	members, _ := f.svc.Members(ctx, f.vessel.ID)
	if len(members) != 2 {
		t.Fatalf("self-removal must leave memberships unchanged, got %d", len(members))
	}
}

func TestRemoveUnknownMembership(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Remove(context.Background(), f.supplier.ID, "MV Aurora", "missing")
	if !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestRemoveMembershipFromOtherVessel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, _ := f.store.CreateVessel(ctx, vessel.Vessel{Name: "MV Boreas", OwnerID: f.supplier.ID})
	stranger, _ := f.store.CreateUser(ctx, user.User{Email: "stranger@harborline.test"})
	strangerMem, _ := f.store.CreateMembership(ctx, crew.Membership{UserID: stranger.ID, VesselID: other.ID, Role: crew.RoleCrew, Access: crew.AccessActive})

	_, err := f.svc.Remove(ctx, f.supplier.ID, "MV Aurora", strangerMem.ID)
	if !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("cross-vessel removal should look like NotFound, got %v", err)
	}
}

func TestRemoveCleansUpInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.CreateInvitation(ctx, crew.Invitation{
		Email:    f.deckhand.Email,
		VesselID: f.vessel.ID,
		Role:     crew.RoleCrew,
		Code:     "c1",
		Status:   crew.InvitationAccepted,
	})

	if _, err := f.svc.Remove(ctx, f.supplier.ID, "MV Aurora", f.deckMem.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := f.store.DeleteInvitation(ctx, f.vessel.ID, f.deckhand.Email); err == nil {
		t.Fatal("invitation should already be gone")
	}
}
