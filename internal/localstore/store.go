// Package localstore persists the session credential on the local machine so a session
// survives process restarts.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Keys held in durable storage.
const (
	KeyToken    = "token"
	KeyTenantID = "company_id"
)

// ErrNotFound indicates the key is not present.
var ErrNotFound = errors.New("localstore: key not found")

// Backend is a durable string key/value store.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Store exposes the session keys on top of a Backend.
type Store struct {
	backend Backend
}

// New wraps a backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Open builds a Store for the configured backend kind: "file", "sqlite" or "memory".
func Open(kind, path string) (*Store, error) {
	var (
		backend Backend
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "file":
		backend, err = NewFileBackend(path)
	case "sqlite":
		backend, err = NewSQLiteBackend(path)
	case "memory":
		backend = NewMemoryBackend()
	default:
		return nil, fmt.Errorf("localstore: unknown backend %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return New(backend), nil
}

// Token returns the persisted bearer token or ErrNotFound.
func (s *Store) Token(ctx context.Context) (string, error) {
	return s.get(ctx, KeyToken)
}

// SaveToken persists the bearer token.
func (s *Store) SaveToken(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("localstore: empty token")
	}
	return s.backend.Set(ctx, KeyToken, token)
}

// TenantID returns the cached company id or ErrNotFound.
func (s *Store) TenantID(ctx context.Context) (string, error) {
	return s.get(ctx, KeyTenantID)
}

// SaveTenantID caches the company id for fast-path checks before the profile loads.
func (s *Store) SaveTenantID(ctx context.Context, companyID string) error {
	if strings.TrimSpace(companyID) == "" {
		return errors.New("localstore: empty company id")
	}
	return s.backend.Set(ctx, KeyTenantID, companyID)
}

// Clear removes every session key.
func (s *Store) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx, KeyToken, KeyTenantID)
}

// Close releases backend resources.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	v, err := s.backend.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", ErrNotFound
	}
	return v, nil
}
