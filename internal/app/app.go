// Package app wires the session layer into one explicitly owned object with an Init/Dispose
// lifecycle. Components receive what they need from it instead of reaching for globals.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hongminglow/backoffice/internal/config"
	"github.com/hongminglow/backoffice/internal/entitlement"
	"github.com/hongminglow/backoffice/internal/graphql"
	"github.com/hongminglow/backoffice/internal/inventory"
	"github.com/hongminglow/backoffice/internal/localstore"
	"github.com/hongminglow/backoffice/internal/logging"
	"github.com/hongminglow/backoffice/internal/session"
)

// App is the long-lived context shared by every front end.
type App struct {
	Session   *session.Manager
	Gate      *entitlement.Gate
	Scoped    *graphql.Scoped
	Inventory *inventory.Service
	Logger    *zap.Logger

	store *localstore.Store
}

// Option customizes Init.
type Option func(*options)

type options struct {
	logger *zap.Logger
	store  *localstore.Store
}

// WithLogger attaches a logger to every component.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStore replaces the configured local store.
func WithStore(s *localstore.Store) Option {
	return func(o *options) { o.store = s }
}

// Init builds the components and restores any persisted session.
func Init(ctx context.Context, cfg config.Client, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrNop(o.logger)

	store := o.store
	if store == nil {
		var err error
		store, err = localstore.Open(cfg.TokenStore, cfg.TokenPath)
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
	}

	client := graphql.NewClient(cfg.APIURL,
		graphql.WithTimeout(cfg.RequestTimeout),
		graphql.WithLogger(logger.Named("graphql")),
	)
	manager := session.New(client, store,
		session.WithLogger(logger.Named("session")),
		session.WithProfileRetry(cfg.ProfileRetries, cfg.RetryBackoff),
		session.WithServerLogout(true, cfg.RequestTimeout),
	)
	scoped := graphql.NewScoped(client, manager,
		graphql.WithQueryCache(cfg.CacheSize, cfg.CacheTTL),
		graphql.WithScopedLogger(logger.Named("scoped")),
	)
	manager.RegisterClearer(scoped)
	gate := entitlement.NewGate(manager)

	a := &App{
		Session:   manager,
		Gate:      gate,
		Scoped:    scoped,
		Inventory: inventory.NewService(scoped, gate),
		Logger:    logger,
		store:     store,
	}
	if err := manager.Restore(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return a, nil
}

// Dispose waits for background work and releases the local store. The persisted session is
// kept; call Session.Logout first to end it.
func (a *App) Dispose() error {
	a.Session.Wait()
	a.Scoped.Clear()
	return a.store.Close()
}
