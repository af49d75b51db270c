// Package memory is an in-memory repository.Store for tests and single-node
// development. All maps are guarded by one mutex; the dataset is tiny.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/velvetlabs/brandsso/internal/domain/repository"
)

type Store struct {
	mu sync.RWMutex

	coreUsers  map[string]*repository.CoreUser  // by id
	brandUsers map[string]*repository.BrandUser // by id
	clients    map[string]*repository.Client    // by id
	sessions   map[string]*repository.Session   // by core_user_id
	authCodes  map[string]*repository.AuthCode  // by code_hash
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		coreUsers:  map[string]*repository.CoreUser{},
		brandUsers: map[string]*repository.BrandUser{},
		clients:    map[string]*repository.Client{},
		sessions:   map[string]*repository.Session{},
		authCodes:  map[string]*repository.AuthCode{},
	}
}

func (s *Store) CoreUsers() repository.CoreUsers   { return (*coreUsers)(s) }
func (s *Store) BrandUsers() repository.BrandUsers { return (*brandUsers)(s) }
func (s *Store) Clients() repository.Clients       { return (*clients)(s) }
func (s *Store) Sessions() repository.Sessions     { return (*sessions)(s) }
func (s *Store) AuthCodes() repository.AuthCodes   { return (*authCodes)(s) }

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close()                     {}

func strptr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// --- core users ---

type coreUsers Store

func (r *coreUsers) GetByEmail(_ context.Context, email string) (*repository.CoreUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.coreUsers {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			cp.PasswordHash = strptr(u.PasswordHash)
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *coreUsers) GetByID(_ context.Context, id string) (*repository.CoreUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.coreUsers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	cp.PasswordHash = strptr(u.PasswordHash)
	return &cp, nil
}

func (r *coreUsers) Create(_ context.Context, in repository.CreateCoreUserInput) (*repository.CoreUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.coreUsers {
		if strings.EqualFold(u.Email, in.Email) {
			return nil, repository.ErrConflict
		}
	}
	now := time.Now().UTC()
	u := &repository.CoreUser{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: strptr(in.PasswordHash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.coreUsers[u.ID] = u
	cp := *u
	cp.PasswordHash = strptr(u.PasswordHash)
	return &cp, nil
}

// --- brand users ---

type brandUsers Store

func (r *brandUsers) GetByID(_ context.Context, id string) (*repository.BrandUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.brandUsers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	cp.CoreUserID = strptr(u.CoreUserID)
	cp.LegacyPasswordHash = strptr(u.LegacyPasswordHash)
	return &cp, nil
}

func (r *brandUsers) Get(_ context.Context, coreUserID, brandID string) (*repository.BrandUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getLocked(coreUserID, brandID)
}

func (r *brandUsers) getLocked(coreUserID, brandID string) (*repository.BrandUser, error) {
	for _, u := range r.brandUsers {
		if u.CoreUserID != nil && *u.CoreUserID == coreUserID && u.BrandID == brandID {
			cp := *u
			cp.CoreUserID = strptr(u.CoreUserID)
			cp.LegacyPasswordHash = strptr(u.LegacyPasswordHash)
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *brandUsers) FindOrCreate(_ context.Context, coreUserID, brandID string, defaults repository.BrandUserDefaults) (*repository.BrandUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, err := r.getLocked(coreUserID, brandID); err == nil {
		return u, nil
	}
	now := time.Now().UTC()
	cid := coreUserID
	u := &repository.BrandUser{
		ID:         uuid.NewString(),
		CoreUserID: &cid,
		BrandID:    brandID,
		Email:      defaults.Email,
		Role:       defaults.Role,
		Credits:    defaults.Credits,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.brandUsers[u.ID] = u
	return r.getLocked(coreUserID, brandID)
}

func (r *brandUsers) GetLegacyByEmail(_ context.Context, email string) (*repository.BrandUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matches []*repository.BrandUser
	for _, u := range r.brandUsers {
		if u.CoreUserID == nil && strings.EqualFold(u.Email, email) {
			matches = append(matches, u)
		}
	}
	if len(matches) == 0 {
		return nil, repository.ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	cp := *matches[0]
	cp.LegacyPasswordHash = strptr(matches[0].LegacyPasswordHash)
	return &cp, nil
}

func (r *brandUsers) Adopt(_ context.Context, brandUserID, coreUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.brandUsers[brandUserID]
	if !ok || u.CoreUserID != nil {
		return repository.ErrNotFound
	}
	cid := coreUserID
	u.CoreUserID = &cid
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// SeedBrandUser inserts a raw row, bypassing provisioning. Test helper.
func (s *Store) SeedBrandUser(u repository.BrandUser) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := u
	s.brandUsers[cp.ID] = &cp
	return cp.ID
}

// --- clients ---

type clients Store

func (r *clients) Get(_ context.Context, id string) (*repository.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	cp.RedirectURIs = append([]string(nil), c.RedirectURIs...)
	cp.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	return &cp, nil
}

func (r *clients) Upsert(_ context.Context, c *repository.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	cp.RedirectURIs = append([]string(nil), c.RedirectURIs...)
	cp.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	now := time.Now().UTC()
	if old, ok := r.clients[c.ID]; ok {
		cp.CreatedAt = old.CreatedAt
	} else {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	r.clients[cp.ID] = &cp
	return nil
}

// --- sessions ---

type sessions Store

func (r *sessions) Upsert(_ context.Context, in repository.UpsertSessionInput) (*repository.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	s, ok := r.sessions[in.CoreUserID]
	if !ok {
		s = &repository.Session{ID: uuid.NewString(), CoreUserID: in.CoreUserID, CreatedAt: now}
		r.sessions[in.CoreUserID] = s
	}
	s.TokenHash = in.TokenHash
	s.LookupKey = in.LookupKey
	s.ExpiresAt = in.ExpiresAt
	s.LastUsedAt = now
	s.Revoked = false
	cp := *s
	return &cp, nil
}

func (r *sessions) CandidatesByLookupKey(_ context.Context, lookupKey string) ([]repository.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	now := time.Now().UTC()
	var out []repository.Session
	for _, s := range r.sessions {
		if s.LookupKey == lookupKey && !s.Revoked && s.ExpiresAt.After(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *sessions) Revoke(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID == id {
			s.Revoked = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *sessions) Touch(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID == id {
			s.LastUsedAt = at
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- auth codes ---

type authCodes Store

func (r *authCodes) Create(_ context.Context, in repository.CreateAuthCodeInput) (*repository.AuthCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &repository.AuthCode{
		ID:              uuid.NewString(),
		CodeHash:        in.CodeHash,
		ClientID:        in.ClientID,
		BrandID:         in.BrandID,
		CoreUserID:      in.CoreUserID,
		Challenge:       in.Challenge,
		ChallengeMethod: in.ChallengeMethod,
		RedirectURI:     in.RedirectURI,
		Scope:           in.Scope,
		State:           in.State,
		ExpiresAt:       in.ExpiresAt,
		CreatedAt:       time.Now().UTC(),
	}
	r.authCodes[c.CodeHash] = c
	cp := *c
	return &cp, nil
}

func (r *authCodes) Consume(_ context.Context, codeHash string, now time.Time) (*repository.AuthCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.authCodes[codeHash]
	if !ok || c.Used || !c.ExpiresAt.After(now) {
		return nil, repository.ErrNotFound
	}
	c.Used = true
	cp := *c
	return &cp, nil
}
