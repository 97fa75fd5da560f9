package invitation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/collab-backend-go/internal/domain/invitation"
	"github.com/cmlabs-hris/collab-backend-go/internal/domain/project"
	"github.com/cmlabs-hris/collab-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/validator"
)

// memStore backs every fake repository so a fake transaction can snapshot
// and restore invites and memberships together.
type memStore struct {
	mu       sync.Mutex
	invites  map[string]invitation.Invitation
	members  map[[2]string]bool
	projects map[string]project.Project
	users    map[string]user.User

	ensureErr      error
	ensureCalls    int
	upsertCalls    int
	deleteExpiredN int
}

func newMemStore() *memStore {
	return &memStore{
		invites:  map[string]invitation.Invitation{},
		members:  map[[2]string]bool{},
		projects: map[string]project.Project{},
		users:    map[string]user.User{},
	}
}

func (s *memStore) addUser(id, email string) user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user.User{ID: id, Email: email}
	s.users[id] = u
	return u
}

func (s *memStore) addProject(id, ownerID, name, slug string) project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := project.Project{ID: id, OwnerID: ownerID, Name: name, Slug: slug}
	s.projects[id] = p
	return p
}

func (s *memStore) putInvite(inv invitation.Invitation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites[inv.ID] = inv
}

func (s *memStore) inviteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invites)
}

func (s *memStore) inviteFor(projectID, email string) (invitation.Invitation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invites {
		if inv.ProjectID == projectID && inv.Email == email {
			return inv, true
		}
	}
	return invitation.Invitation{}, false
}

func (s *memStore) isMember(projectID, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[[2]string{projectID, userID}]
}

func (s *memStore) memberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

func (s *memStore) withDetails(inv invitation.Invitation) invitation.InvitationWithDetails {
	p := s.projects[inv.ProjectID]
	d := invitation.InvitationWithDetails{Invitation: inv, ProjectName: p.Name, ProjectSlug: p.Slug}
	if u, ok := s.users[inv.InvitedByID]; ok {
		d.Inviter = &invitation.Inviter{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
	}
	return d
}

// fakeTx serializes transactions and rolls back invites and memberships when
// fn fails.
type fakeTx struct {
	mu    sync.Mutex
	store *memStore
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.store.mu.Lock()
	invites := make(map[string]invitation.Invitation, len(t.store.invites))
	for k, v := range t.store.invites {
		invites[k] = v
	}
	members := make(map[[2]string]bool, len(t.store.members))
	for k, v := range t.store.members {
		members[k] = v
	}
	t.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.store.mu.Lock()
		t.store.invites = invites
		t.store.members = members
		t.store.mu.Unlock()
		return err
	}
	return nil
}

type fakeInvitationRepo struct{ s *memStore }

func (r *fakeInvitationRepo) Upsert(_ context.Context, inv invitation.Invitation) (invitation.Invitation, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.upsertCalls++

	var existing *invitation.Invitation
	for id, other := range r.s.invites {
		if other.ProjectID == inv.ProjectID && other.Email == inv.Email {
			cp := r.s.invites[id]
			existing = &cp
			continue
		}
		if other.Token == inv.Token {
			return invitation.Invitation{}, false, invitation.ErrTokenConflict
		}
	}

	if existing != nil {
		existing.Token = inv.Token
		existing.ExpiresAt = inv.ExpiresAt
		existing.InvitedByID = inv.InvitedByID
		existing.AcceptedAt = nil
		r.s.invites[existing.ID] = *existing
		return *existing, false, nil
	}

	r.s.invites[inv.ID] = inv
	return inv, true, nil
}

func (r *fakeInvitationRepo) GetByTokenWithDetails(_ context.Context, tok string) (invitation.InvitationWithDetails, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.invites {
		if inv.Token == tok {
			return r.s.withDetails(inv), nil
		}
	}
	return invitation.InvitationWithDetails{}, invitation.ErrInvitationNotFound
}

func (r *fakeInvitationRepo) GetByIDAndEmail(_ context.Context, id, email string) (invitation.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invites[id]
	if !ok || inv.Email != email {
		return invitation.Invitation{}, invitation.ErrInvitationNotFound
	}
	return inv, nil
}

func (r *fakeInvitationRepo) GetByProjectAndEmail(_ context.Context, projectID, email string) (invitation.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.invites {
		if inv.ProjectID == projectID && inv.Email == email {
			return inv, nil
		}
	}
	return invitation.Invitation{}, invitation.ErrInvitationNotFound
}

func (r *fakeInvitationRepo) ListPendingByEmail(_ context.Context, email string, now time.Time) ([]invitation.InvitationWithDetails, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []invitation.InvitationWithDetails
	for _, inv := range r.s.invites {
		if inv.Email == email && inv.AcceptedAt == nil && inv.ExpiresAt.After(now) {
			out = append(out, r.s.withDetails(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (r *fakeInvitationRepo) Delete(_ context.Context, id, tok string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invites[id]
	if !ok || inv.Token != tok {
		return invitation.ErrInvitationNotFound
	}
	delete(r.s.invites, id)
	return nil
}

func (r *fakeInvitationRepo) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, inv := range r.s.invites {
		if !inv.ExpiresAt.After(cutoff) {
			delete(r.s.invites, id)
			n++
		}
	}
	return n, nil
}

type fakeProjectRepo struct{ s *memStore }

func (r *fakeProjectRepo) GetOwnedBySlug(_ context.Context, ownerID, slug string) (project.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.projects {
		if p.OwnerID == ownerID && p.Slug == slug {
			return p, nil
		}
	}
	return project.Project{}, project.ErrProjectNotFound
}

func (r *fakeProjectRepo) IsMember(_ context.Context, projectID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.projects[projectID]; ok && p.OwnerID == userID {
		return true, nil
	}
	return r.s.members[[2]string{projectID, userID}], nil
}

func (r *fakeProjectRepo) EnsureMembership(_ context.Context, projectID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.ensureCalls++
	if r.s.ensureErr != nil {
		return r.s.ensureErr
	}
	r.s.members[[2]string{projectID, userID}] = true
	return nil
}

func (r *fakeProjectRepo) Create(_ context.Context, p project.Project) (project.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.projects[p.ID] = p
	return p, nil
}

type fakeUserRepo struct{ s *memStore }

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if validator.NormalizeEmail(u.Email) == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[u.ID] = u
	return u, nil
}

type sentInvite struct {
	To, InviterEmail, ProjectName, Link string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentInvite
	err  error
}

func (n *fakeNotifier) SendProjectInvitation(_ context.Context, to, inviterEmail, projectName, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentInvite{To: to, InviterEmail: inviterEmail, ProjectName: projectName, Link: link})
	return n.err
}
