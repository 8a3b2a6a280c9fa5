package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/backoffice/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret-that-is-long-enough!", "backoffice", time.Hour)
	token, err := tm.Generate(models.User{ID: "u-1", Email: "ana@acme.test", CompanyID: "c-1"})
	require.NoError(t, err)

	claims, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "c-1", claims.CompanyID)
	assert.Equal(t, "ana@acme.test", claims.Email)
	assert.NotEmpty(t, claims.ID)

	again, err := tm.Generate(models.User{ID: "u-1", CompanyID: "c-1"})
	require.NoError(t, err)
	other, err := tm.Parse(again)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, other.ID)
}

func TestGenerateRequiresTenant(t *testing.T) {
	tm := NewTokenManager("secret", "backoffice", time.Hour)
	_, err := tm.Generate(models.User{ID: "u-1"})
	require.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", "backoffice", time.Minute)
	issued := time.Now().Add(-2 * time.Hour)
	tm.now = func() time.Time { return issued }
	token, err := tm.Generate(models.User{ID: "u-1", CompanyID: "c-1"})
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignIssuerAndSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", "other", time.Hour)
	token, err := issuer.Generate(models.User{ID: "u-1", CompanyID: "c-1"})
	require.NoError(t, err)

	_, err = NewTokenManager("secret-a", "backoffice", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = NewTokenManager("secret-b", "other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = NewTokenManager("secret-a", "other", time.Hour).Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
