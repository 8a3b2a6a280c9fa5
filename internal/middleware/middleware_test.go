package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/backoffice/internal/auth"
	"github.com/hongminglow/backoffice/internal/metrics"
	"github.com/hongminglow/backoffice/internal/models"
	"github.com/hongminglow/backoffice/internal/models/dto"
)

type revocations struct {
	ids map[string]bool
	err error
}

func (r revocations) IsTokenRevoked(_ context.Context, id string) (bool, error) {
	return r.ids[id], r.err
}

func claimsEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := ClaimsFrom(r.Context()); ok {
			_, _ = w.Write([]byte(claims.CompanyID))
			return
		}
		_, _ = w.Write([]byte("anonymous"))
	})
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "backoffice", time.Hour)
	token, err := tokens.Generate(models.User{ID: "u-1", CompanyID: "c-1"})
	require.NoError(t, err)
	claims, err := tokens.Parse(token)
	require.NoError(t, err)

	cases := []struct {
		name    string
		header  string
		revoked revocations
		want    string
	}{
		{"no header", "", revocations{}, "anonymous"},
		{"valid", "Bearer " + token, revocations{}, "c-1"},
		{"lowercase scheme", "bearer " + token, revocations{}, "c-1"},
		{"wrong scheme", "Basic " + token, revocations{}, "anonymous"},
		{"garbage", "Bearer nope", revocations{}, "anonymous"},
		{"revoked", "Bearer " + token, revocations{ids: map[string]bool{claims.ID: true}}, "anonymous"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := Authenticate(tokens, tc.revoked, zap.NewNop(), claimsEcho(t))
			req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Body.String())
		})
	}
}

func TestAuthenticateRevocationLookupFailure(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "backoffice", time.Hour)
	token, err := tokens.Generate(models.User{ID: "u-1", CompanyID: "c-1"})
	require.NoError(t, err)

	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true })
	h := Authenticate(tokens, revocations{err: errors.New("db down")}, zap.NewNop(), next)

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, reached)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), dto.CodeInternal)
	assert.NotContains(t, rec.Body.String(), dto.CodeUnauthenticated)
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := CORS([]string{"https://app.example.com"}, next)

	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	req.Header.Set("Origin", "https://APP.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://APP.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardNeverGrantsCredentials(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := CORS([]string{"*"}, next)

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))

	// OPTIONS without a requested method is not a preflight and reaches the API
	req = httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestLoggingRecordsStatus(t *testing.T) {
	m := metrics.New()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadRequest) })
	rec := httptest.NewRecorder()
	Logging(zap.NewNop(), m, next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `backoffice_http_request_duration_seconds_count{path="/graphql",status="4xx"} 1`)
}
