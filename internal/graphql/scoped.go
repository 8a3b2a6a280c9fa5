package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/hongminglow/backoffice/internal/logging"
	"github.com/hongminglow/backoffice/internal/models/dto"
)

// Session is the read side of the session that scoped operations are attributed to.
type Session interface {
	// Credentials returns the bearer token and tenant id from one consistent snapshot.
	// ok is false unless the session is authenticated.
	Credentials() (token, companyID string, ok bool)
	// Reject reports that the backend refused token.
	Reject(token string)
}

// Scoped stamps every data operation with the current tenant. It is the only path to the
// transport for tenant data.
type Scoped struct {
	client  *Client
	session Session
	cache   *expirable.LRU[string, json.RawMessage]
	logger  *zap.Logger

	// mu orders cache writes against Clear. epoch advances on every Clear so results of
	// requests issued before a purge are never cached after it.
	mu    sync.Mutex
	epoch uint64
}

// ScopedOption customizes a Scoped executor.
type ScopedOption func(*Scoped)

// WithQueryCache keeps up to size query results for ttl. Mutations and Clear purge it.
func WithQueryCache(size int, ttl time.Duration) ScopedOption {
	return func(s *Scoped) {
		if size > 0 && ttl > 0 {
			s.cache = expirable.NewLRU[string, json.RawMessage](size, nil, ttl)
		}
	}
}

// WithScopedLogger attaches a logger.
func WithScopedLogger(l *zap.Logger) ScopedOption {
	return func(s *Scoped) { s.logger = logging.OrNop(l) }
}

// NewScoped binds the transport to a session.
func NewScoped(client *Client, session Session, opts ...ScopedOption) *Scoped {
	s := &Scoped{client: client, session: session, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExecuteQuery runs a read operation scoped to the session tenant.
func (s *Scoped) ExecuteQuery(ctx context.Context, op Operation, vars map[string]any) (json.RawMessage, error) {
	return s.run(ctx, op, vars, false)
}

// ExecuteMutation runs a write operation scoped to the session tenant.
func (s *Scoped) ExecuteMutation(ctx context.Context, op Operation, vars map[string]any) (json.RawMessage, error) {
	return s.run(ctx, op, vars, true)
}

// Clear drops every cached query result, including results of requests still in flight.
func (s *Scoped) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	if s.cache != nil {
		s.cache.Purge()
	}
}

func (s *Scoped) run(ctx context.Context, op Operation, vars map[string]any, mutation bool) (json.RawMessage, error) {
	token, companyID, ok := s.session.Credentials()
	if !ok || companyID == "" || token == "" {
		s.logger.Error("scoped operation issued without tenant context", zap.String("operation", op.Name), zap.Stack("stack"))
		return nil, ErrNoTenantContext
	}

	scoped := make(map[string]any, len(vars)+1)
	for k, v := range vars {
		scoped[k] = v
	}
	scoped[dto.VarCompanyID] = companyID

	key := ""
	if !mutation && s.cache != nil {
		key = cacheKey(op, token, scoped)
		if key != "" {
			if hit, found := s.cache.Get(key); found {
				return hit, nil
			}
		}
	}

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	data, err := s.client.execute(ctx, token, op, scoped)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			s.session.Reject(token)
		}
		return nil, err
	}

	switch {
	case mutation:
		s.Clear()
	case key != "":
		s.mu.Lock()
		if s.epoch == epoch {
			s.cache.Add(key, data)
		}
		s.mu.Unlock()
	}
	return data, nil
}

// cacheKey binds a result to the token that fetched it, so a later session on the same
// company never reads it.
func cacheKey(op Operation, token string, vars map[string]any) string {
	encoded, err := json.Marshal(vars)
	if err != nil {
		return ""
	}
	return op.Name + "\x00" + token + "\x00" + string(encoded)
}
