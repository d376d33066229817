package requests

import (
	"context"
	"fmt"
	"testing"

	"github.com/harborline/fleetd/internal/app/storage/memory"
	"github.com/harborline/fleetd/internal/errors"
)

func seed(t *testing.T, svc *Service, vesselID string, n int) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.CreateType(ctx, vesselID, "deck", "Deck", "#0055aa"); err != nil {
		t.Fatalf("seed type: %v", err)
	}
	for i := 0; i < n; i++ {
		if _, err := svc.Create(ctx, vesselID, "u1", "DECK", fmt.Sprintf("item %d", i)); err != nil {
			t.Fatalf("seed request %d: %v", i, err)
		}
	}
}

func TestListPaginationPartition(t *testing.T) {
	svc := New(memory.New(), nil)
	seed(t, svc, "v1", 25)
	ctx := context.Background()

	seen := make(map[string]bool)
	for page := 1; page <= 3; page++ {
		items, meta, err := svc.List(ctx, "v1", 10, page, "")
		if err != nil {
			t.Fatalf("list page %d: %v", page, err)
		}
		want := 10
		if page == 3 {
			want = 5
		}
		if len(items) != want {
			t.Fatalf("page %d: expected %d items, got %d", page, want, len(items))
		}
		if meta.TotalCount != 25 || meta.TotalPages != 3 {
			t.Fatalf("page %d: bad metadata %+v", page, meta)
		}
		if meta.HasNextPage != (page < 3) || meta.HasPreviousPage != (page > 1) {
			t.Fatalf("page %d: bad page flags %+v", page, meta)
		}
		for _, item := range items {
			if seen[item.ID] {
				t.Fatalf("request %s on two pages", item.ID)
			}
			seen[item.ID] = true
		}
	}

	items, meta, err := svc.List(ctx, "v1", 10, 4, "")
	if err != nil {
		t.Fatalf("list page 4: %v", err)
	}
	if len(items) != 0 || meta.TotalCount != 25 {
		t.Fatalf("page past end should be empty with stable total, got %d items %+v", len(items), meta)
	}
}

func TestListRejectsNonPositiveRowsAndPage(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	if _, _, err := svc.List(ctx, "v1", 0, 1, ""); !errors.Is(err, errors.CodeValidation) {
		t.Fatalf("rows=0 should be a validation error, got %v", err)
	}
	if _, _, err := svc.List(ctx, "v1", 10, -1, ""); !errors.Is(err, errors.CodeValidation) {
		t.Fatalf("page=-1 should be a validation error, got %v", err)
	}
}

func TestListUnknownTypeIsSoftMiss(t *testing.T) {
	svc := New(memory.New(), nil)
	seed(t, svc, "v1", 3)

	items, meta, err := svc.List(context.Background(), "v1", 10, 1, "ENGINE")
	if err != nil {
		t.Fatalf("list with unknown type: %v", err)
	}
	if len(items) != 0 || meta.TotalCount != 0 {
		t.Fatalf("unknown type should yield empty page, got %d items %+v", len(items), meta)
	}
}

func TestListTypeFilterIsCaseInsensitive(t *testing.T) {
	svc := New(memory.New(), nil)
	seed(t, svc, "v1", 3)

	items, meta, err := svc.List(context.Background(), "v1", 10, 1, "deck")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 || meta.TotalCount != 3 {
		t.Fatalf("lowercase filter should match uppercased type, got %d items %+v", len(items), meta)
	}
}

func TestCreateRequiresKnownType(t *testing.T) {
	svc := New(memory.New(), nil)

	_, err := svc.Create(context.Background(), "v1", "u1", "ENGINE", "piston rings")
	if !errors.Is(err, errors.CodeValidation) {
		t.Fatalf("unknown type should be a validation error, got %v", err)
	}
}

func TestCreateTypeCollision(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	if _, err := svc.CreateType(ctx, "v1", "engine", "Engine", "#cc0000"); err != nil {
		t.Fatalf("create type: %v", err)
	}
	if _, err := svc.CreateType(ctx, "v1", "Engine", "Engine again", "#00cc00"); !errors.Is(err, errors.CodeConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}

	types, err := svc.ListTypes(ctx, "v1")
	if err != nil {
		t.Fatalf("list types: %v", err)
	}
	if len(types) != 1 {
		t.Fatalf("collision must not create a row, have %d types", len(types))
	}
	if types[0].Name != "ENGINE" {
		t.Fatalf("name should be uppercased, got %q", types[0].Name)
	}
}
