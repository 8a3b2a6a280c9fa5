package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/backoffice/internal/auth"
	"github.com/hongminglow/backoffice/internal/metrics"
	"github.com/hongminglow/backoffice/internal/middleware"
	"github.com/hongminglow/backoffice/internal/models"
	"github.com/hongminglow/backoffice/internal/models/dto"
	"github.com/hongminglow/backoffice/internal/storage"
	"github.com/hongminglow/backoffice/internal/storage/postgres"
)

// TestPostgresIntegration exercises login, profile and tenant-scoped stock operations against a live database.
func TestPostgresIntegration(t *testing.T) {
	if os.Getenv("RUN_DB_INTEGRATION") != "true" {
		t.Skip("set RUN_DB_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, dbURL)
	require.NoError(t, err)
	defer store.Close()

	tenants, err := storage.DemoTenants(demoPassword)
	require.NoError(t, err)
	require.NoError(t, store.Seed(ctx, tenants))
	// seeding twice must be idempotent
	require.NoError(t, store.Seed(ctx, tenants))

	tokens := auth.NewTokenManager("integration-secret", "backoffice", time.Hour)
	mux := http.NewServeMux()
	NewGraphQLHandler(store, tokens, metrics.New(), zap.NewNop()).Register(mux)
	api := &testAPI{t: t, handler: middleware.Authenticate(tokens, store, zap.NewNop(), mux), tokens: tokens}

	token, user := api.login("admin@acme.test")
	assert.Equal(t, storage.StableID("company", "acme"), user.CompanyID)
	require.NotEmpty(t, user.Plan.Modules)
	assert.Equal(t, models.ModuleDashboard, user.Plan.Modules[0].Key)

	status, out := api.do(token, "CreateStockEntry", map[string]any{
		dto.VarCompanyID: user.CompanyID,
		"input":          map[string]any{"product": "integration-" + time.Now().Format(time.RFC3339Nano), "quantity": 1, "kind": "entry"},
	})
	require.Equal(t, http.StatusOK, status, out.Errors)

	status, _ = api.do(token, "StockEntries", map[string]any{dto.VarCompanyID: storage.StableID("company", "beta")})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.do(token, "Logout", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = api.do(token, "Me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
		"../../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
