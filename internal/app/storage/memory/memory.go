package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harborline/fleetd/internal/app/domain/crew"
	"github.com/harborline/fleetd/internal/app/domain/request"
	"github.com/harborline/fleetd/internal/app/domain/user"
	"github.com/harborline/fleetd/internal/app/domain/vessel"
	"github.com/harborline/fleetd/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu            sync.RWMutex
	nextID        int64
	users         map[string]user.User
	usersByEmail  map[string]string
	vessels       map[string]vessel.Vessel
	vesselsByName map[string]string
	memberships   map[string]crew.Membership
	invitations   map[string]crew.Invitation
	requests      map[string]request.Request
	requestTypes  map[string]request.Type
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.VesselStore = (*Store)(nil)
var _ storage.CrewStore = (*Store)(nil)
var _ storage.RequestStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:        1,
		users:         make(map[string]user.User),
		usersByEmail:  make(map[string]string),
		vessels:       make(map[string]vessel.Vessel),
		vesselsByName: make(map[string]string),
		memberships:   make(map[string]crew.Membership),
		invitations:   make(map[string]crew.Invitation),
		requests:      make(map[string]request.Request),
		requestTypes:  make(map[string]request.Type),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(u.Email)
	if _, exists := s.usersByEmail[key]; exists {
		return user.User{}, storage.ErrDuplicate
	}
	if u.ID == "" {
		u.ID = s.nextIDLocked()
	} else if _, exists := s.users[u.ID]; exists {
		return user.User{}, storage.ErrDuplicate
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = u
	s.usersByEmail[key] = u.ID
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}

	u.Email = original.Email
	u.CreatedAt = original.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[normalizeEmail(email)]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

// VesselStore implementation --------------------------------------------------

func (s *Store) CreateVessel(_ context.Context, v vessel.Vessel) (vessel.Vessel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(v.Name))
	if _, exists := s.vesselsByName[key]; exists {
		return vessel.Vessel{}, storage.ErrDuplicate
	}
	if v.ID == "" {
		v.ID = s.nextIDLocked()
	} else if _, exists := s.vessels[v.ID]; exists {
		return vessel.Vessel{}, storage.ErrDuplicate
	}

	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	s.vessels[v.ID] = v
	s.vesselsByName[key] = v.ID
	return v, nil
}

func (s *Store) GetVessel(_ context.Context, id string) (vessel.Vessel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vessels[id]
	if !ok {
		return vessel.Vessel{}, storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) GetVesselByName(_ context.Context, name string) (vessel.Vessel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.vesselsByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return vessel.Vessel{}, storage.ErrNotFound
	}
	return s.vessels[id], nil
}

// CrewStore implementation ----------------------------------------------------

func (s *Store) CreateMembership(_ context.Context, m crew.Membership) (crew.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createMembershipLocked(m)
}

func (s *Store) createMembershipLocked(m crew.Membership) (crew.Membership, error) {
	for _, existing := range s.memberships {
		if existing.UserID == m.UserID && existing.VesselID == m.VesselID {
			return crew.Membership{}, storage.ErrDuplicate
		}
	}
	if m.ID == "" {
		m.ID = s.nextIDLocked()
	} else if _, exists := s.memberships[m.ID]; exists {
		return crew.Membership{}, storage.ErrDuplicate
	}

	m.JoinedAt = time.Now().UTC()
	s.memberships[m.ID] = m
	return m, nil
}

func (s *Store) GetMembership(_ context.Context, id string) (crew.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.memberships[id]
	if !ok {
		return crew.Membership{}, storage.ErrNotFound
	}
	return m, nil
}

func (s *Store) GetMembershipByUser(_ context.Context, userID, vesselID string) (crew.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.memberships {
		if m.UserID == userID && m.VesselID == vesselID {
			return m, nil
		}
	}
	return crew.Membership{}, storage.ErrNotFound
}

func (s *Store) ListMembers(_ context.Context, vesselID string) ([]crew.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]crew.Member, 0)
	for _, m := range s.memberships {
		if m.VesselID != vesselID {
			continue
		}
		member := crew.Member{Membership: m}
		if u, ok := s.users[m.UserID]; ok {
			member.Name = u.Name
			member.Email = u.Email
			member.Institution = u.Institution
		}
		result = append(result, member)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].JoinedAt.Equal(result[j].JoinedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].JoinedAt.Before(result[j].JoinedAt)
	})
	return result, nil
}

func (s *Store) DeleteMembership(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.memberships[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.memberships, id)
	return nil
}

func (s *Store) CreateInvitation(_ context.Context, inv crew.Invitation) (crew.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(inv.Email)
	for _, existing := range s.invitations {
		if existing.VesselID == inv.VesselID && normalizeEmail(existing.Email) == key && existing.Status == crew.InvitationPending {
			return crew.Invitation{}, storage.ErrDuplicate
		}
	}
	if inv.ID == "" {
		inv.ID = s.nextIDLocked()
	} else if _, exists := s.invitations[inv.ID]; exists {
		return crew.Invitation{}, storage.ErrDuplicate
	}

	inv.CreatedAt = time.Now().UTC()
	s.invitations[inv.ID] = inv
	return inv, nil
}

func (s *Store) GetPendingInvitation(_ context.Context, email, code string, now time.Time) (crew.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := normalizeEmail(email)
	for _, inv := range s.invitations {
		if normalizeEmail(inv.Email) == key && inv.Code == code &&
			inv.Status == crew.InvitationPending && inv.ExpiresAt.After(now) {
			return inv, nil
		}
	}
	return crew.Invitation{}, storage.ErrNotFound
}

func (s *Store) AcceptInvitation(_ context.Context, invitationID string, m crew.Membership) (crew.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invitations[invitationID]
	if !ok || inv.Status != crew.InvitationPending || !inv.ExpiresAt.After(time.Now().UTC()) {
		return crew.Membership{}, storage.ErrNotFound
	}

	created, err := s.createMembershipLocked(m)
	if err != nil {
		return crew.Membership{}, err
	}

	inv.Status = crew.InvitationAccepted
	s.invitations[invitationID] = inv
	return created, nil
}

func (s *Store) DeleteInvitation(_ context.Context, vesselID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(email)
	deleted := false
	for id, inv := range s.invitations {
		if inv.VesselID == vesselID && normalizeEmail(inv.Email) == key {
			delete(s.invitations, id)
			deleted = true
		}
	}
	if !deleted {
		return storage.ErrNotFound
	}
	return nil
}

// RequestStore implementation -------------------------------------------------

func (s *Store) CreateRequest(_ context.Context, req request.Request) (request.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.ID == "" {
		req.ID = s.nextIDLocked()
	} else if _, exists := s.requests[req.ID]; exists {
		return request.Request{}, storage.ErrDuplicate
	}

	req.CreatedAt = time.Now().UTC()
	s.requests[req.ID] = req
	return req, nil
}

func (s *Store) listRequestsLocked(vesselID, typeID string) []request.Request {
	result := make([]request.Request, 0)
	for _, req := range s.requests {
		if req.VesselID != vesselID {
			continue
		}
		if typeID != "" && req.TypeID != typeID {
			continue
		}
		result = append(result, req)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *Store) ListRequests(_ context.Context, vesselID, typeID string, limit, offset int) ([]request.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.listRequestsLocked(vesselID, typeID)
	if offset >= len(all) {
		return []request.Request{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) CountRequests(_ context.Context, vesselID, typeID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listRequestsLocked(vesselID, typeID)), nil
}

func (s *Store) CountRequestsByType(_ context.Context, vesselID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, req := range s.requests {
		if req.VesselID == vesselID {
			counts[req.TypeID]++
		}
	}
	return counts, nil
}

func (s *Store) CountRequestsByStatus(_ context.Context, vesselID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, req := range s.requests {
		if req.VesselID == vesselID {
			counts[req.Status]++
		}
	}
	return counts, nil
}

func (s *Store) CreateRequestType(_ context.Context, rt request.Type) (request.Type, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.requestTypes {
		if existing.VesselID == rt.VesselID && existing.Name == rt.Name {
			return request.Type{}, storage.ErrDuplicate
		}
	}
	if rt.ID == "" {
		rt.ID = s.nextIDLocked()
	} else if _, exists := s.requestTypes[rt.ID]; exists {
		return request.Type{}, storage.ErrDuplicate
	}

	rt.CreatedAt = time.Now().UTC()
	s.requestTypes[rt.ID] = rt
	return rt, nil
}

func (s *Store) GetRequestTypeByName(_ context.Context, vesselID, name string) (request.Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rt := range s.requestTypes {
		if rt.VesselID == vesselID && rt.Name == name {
			return rt, nil
		}
	}
	return request.Type{}, storage.ErrNotFound
}

func (s *Store) ListRequestTypes(_ context.Context, vesselID string) ([]request.Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]request.Type, 0)
	for _, rt := range s.requestTypes {
		if rt.VesselID == vesselID {
			result = append(result, rt)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
