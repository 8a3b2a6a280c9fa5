package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAll(t *testing.T) map[string]func() *Store {
	t.Helper()
	dir := t.TempDir()
	mem := NewMemoryBackend()
	return map[string]func() *Store{
		"memory": func() *Store { return New(mem) },
		"file": func() *Store {
			s, err := Open("file", filepath.Join(dir, "session.json"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func() *Store {
			s, err := Open("sqlite", filepath.Join(dir, "session.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestStoreSurvivesReopenAndClears(t *testing.T) {
	ctx := context.Background()
	for name, open := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			_, err := s.Token(ctx)
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.SaveToken(ctx, "tok-1"))
			require.NoError(t, s.SaveTenantID(ctx, "c-1"))
			require.NoError(t, s.Close())

			s = open()
			defer s.Close()
			tok, err := s.Token(ctx)
			require.NoError(t, err)
			assert.Equal(t, "tok-1", tok)
			tenant, err := s.TenantID(ctx)
			require.NoError(t, err)
			assert.Equal(t, "c-1", tenant)

			require.NoError(t, s.Clear(ctx))
			_, err = s.Token(ctx)
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.TenantID(ctx)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreRejectsEmptyValues(t *testing.T) {
	s := New(NewMemoryBackend())
	assert.Error(t, s.SaveToken(context.Background(), " "))
	assert.Error(t, s.SaveTenantID(context.Background(), ""))
}

func TestFileBackendPermissionsAndRemoval(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s, err := Open("file", path)
	require.NoError(t, err)

	require.NoError(t, s.SaveToken(ctx, "tok"))
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	require.NoError(t, s.Clear(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("keychain", "")
	assert.Error(t, err)
}
