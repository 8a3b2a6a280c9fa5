package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hongminglow/backoffice/internal/config"
	"github.com/hongminglow/backoffice/internal/server"
	"github.com/hongminglow/backoffice/internal/storage"
	"github.com/hongminglow/backoffice/internal/storage/memory"
)

func setup(t *testing.T, tokenStore string) {
	t.Helper()
	tenants, err := storage.DemoTenants("demo1234")
	require.NoError(t, err)
	srv := httptest.NewServer(server.Handler(config.Server{
		Storage:     "memory",
		JWTSecret:   "cli-test-secret",
		JWTIssuer:   "backoffice",
		JWTTTL:      time.Hour,
		CORSOrigins: []string{"*"},
	}, memory.New(tenants...), zap.NewNop()))
	t.Cleanup(srv.Close)

	t.Setenv("CONFIG_PATH", "")
	t.Setenv("BACKOFFICE_API_URL", srv.URL+"/graphql")
	t.Setenv("BACKOFFICE_TOKEN_STORE", tokenStore)
	t.Setenv("BACKOFFICE_TOKEN_PATH", filepath.Join(t.TempDir(), "session.db"))
	t.Setenv("BACKOFFICE_RETRY_BACKOFF", "1ms")
	t.Setenv("BACKOFFICE_PASSWORD", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), args, &out, &errOut)
	return out.String(), err
}

func TestLoginStatusLogout(t *testing.T) {
	for _, kind := range []string{"file", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			setup(t, kind)

			out, err := run(t, "status")
			require.NoError(t, err)
			assert.Contains(t, out, "Not signed in.")

			out, err = run(t, "login", "--email", "admin@acme.test", "--password", "demo1234")
			require.NoError(t, err)
			assert.Contains(t, out, "Signed in as Ana Souza")
			assert.Contains(t, out, "Default view: dashboard")

			out, err = run(t, "status", "-o", "json")
			require.NoError(t, err)
			var view statusView
			require.NoError(t, json.Unmarshal([]byte(out), &view))
			assert.Equal(t, "authenticated", view.Status)
			assert.Equal(t, storage.StableID("company", "acme"), view.Company.ID)
			assert.Contains(t, view.Modules, "estoque")
			assert.NotContains(t, view.Modules, "fiscal")

			out, err = run(t, "status", "-o", "yaml")
			require.NoError(t, err)
			var fromYAML statusView
			require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
			assert.Equal(t, view, fromYAML)

			out, err = run(t, "logout")
			require.NoError(t, err)
			assert.Contains(t, out, "Signed out.")

			out, err = run(t, "status", "-o", "json")
			require.NoError(t, err)
			assert.JSONEq(t, `{"status":"anonymous"}`, out)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	setup(t, "memory")

	_, err := run(t, "login", "--email", "admin@acme.test")
	assert.EqualError(t, err, "--email and --password are required")

	_, err = run(t, "login", "--email", "admin@acme.test", "--password", "wrong-password")
	assert.EqualError(t, err, "login failed: invalid email or password")

	t.Setenv("BACKOFFICE_API_URL", "http://127.0.0.1:1/graphql")
	_, err = run(t, "login", "--email", "admin@acme.test", "--password", "demo1234")
	assert.EqualError(t, err, "login failed: connection error")
}

func TestOpenAndModules(t *testing.T) {
	setup(t, "file")

	out, err := run(t, "open", "estoque")
	require.NoError(t, err)
	assert.Equal(t, "no accessible modules\n", out)

	_, err = run(t, "login", "--email", "admin@acme.test", "--password", "demo1234")
	require.NoError(t, err)

	out, err = run(t, "open", "fiscal")
	require.NoError(t, err)
	assert.Equal(t, "fiscal is not available on your plan\nopening dashboard\n", out)

	out, err = run(t, "open", "estoque")
	require.NoError(t, err)
	assert.Equal(t, "opening estoque\n", out)

	out, err = run(t, "modules")
	require.NoError(t, err)
	assert.Regexp(t, `fiscal\s+Fiscal\s+upgrade required`, out)
	assert.Regexp(t, `estoque\s+Estoque\s+available`, out)
}

func TestStockCommands(t *testing.T) {
	setup(t, "file")

	_, err := run(t, "stock", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available for this session")

	t.Setenv("BACKOFFICE_PASSWORD", "demo1234")
	_, err = run(t, "login", "--email", "gerente@beta.test")
	require.NoError(t, err)

	out, err := run(t, "stock", "add", "--product", "Cimento", "--quantity", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded entry: 7 x Cimento")

	_, err = run(t, "stock", "add", "--product", "Cimento", "--quantity", "0")
	require.Error(t, err)

	out, err = run(t, "stock", "list", "--kind", "entry")
	require.NoError(t, err)
	assert.Contains(t, out, "Cimento")
}
