package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/backoffice/internal/models"
	"github.com/hongminglow/backoffice/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps tenants, users and stock movements in process memory.
type Store struct {
	mu        sync.RWMutex
	users     map[string]models.User
	byEmail   map[string]string
	movements map[string][]models.StockMovement
	revoked   map[string]time.Time
	now       func() time.Time
}

// New returns a store loaded with tenants.
func New(tenants ...storage.Tenant) *Store {
	s := &Store{
		users:     map[string]models.User{},
		byEmail:   map[string]string{},
		movements: map[string][]models.StockMovement{},
		revoked:   map[string]time.Time{},
		now:       time.Now,
	}
	for _, t := range tenants {
		for _, u := range t.Users {
			u.CompanyID = t.Company.ID
			u.Company = t.Company
			u.Plan = t.Plan.Clone()
			if u.CreatedAt.IsZero() {
				u.CreatedAt = s.now().UTC()
			}
			s.users[u.ID] = u
			s.byEmail[strings.ToLower(u.Email)] = u.ID
		}
	}
	return s
}

// FindByEmail fetches a user by email address, case-insensitively.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id].Clone(), nil
}

// FindByID fetches a user by id.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u.Clone(), nil
}

// ListStockMovements returns the tenant's movements, newest first.
func (s *Store) ListStockMovements(ctx context.Context, companyID, kind string) ([]models.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.movements[companyID]
	out := make([]models.StockMovement, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		if kind == "" || rows[i].Kind == kind {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

// CreateStockMovement stores a movement for its tenant and assigns id and timestamp.
func (s *Store) CreateStockMovement(ctx context.Context, m models.StockMovement) (models.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.NewString()
	m.CreatedAt = s.now().UTC()
	s.movements[m.CompanyID] = append(s.movements[m.CompanyID], m)
	return m, nil
}

// RevokeToken records a token id until it would have expired anyway.
func (s *Store) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = expiresAt
	return nil
}

// IsTokenRevoked reports whether tokenID was revoked.
func (s *Store) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revoked[tokenID]
	return ok, nil
}
