package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hongminglow/backoffice/internal/models"
	"github.com/hongminglow/backoffice/internal/session"
)

type staticSource struct{ snap session.Session }

func (s staticSource) Snapshot() session.Session { return s.snap }

func authenticated(modules ...models.Module) staticSource {
	return staticSource{snap: session.Session{
		Status: session.StatusAuthenticated,
		Token:  "tok",
		User: &models.User{
			ID:        "u-1",
			CompanyID: "c-1",
			Plan:      models.Plan{ID: "p-1", Name: "Pro", Modules: modules},
			Permissions: []models.ModulePermissions{
				{ModuleKey: models.ModuleEstoque, Permissions: []string{models.ActionView, models.ActionCreate}},
				{ModuleKey: models.ModuleFiscal, Permissions: []string{models.ActionView}},
			},
		},
	}}
}

func mod(key string, active bool, actions ...string) models.Module {
	return models.Module{Key: key, Name: key, IsActive: active, Actions: actions}
}

func TestHasModuleAccess(t *testing.T) {
	cases := []struct {
		name   string
		source staticSource
		want   bool
	}{
		{"anonymous", staticSource{snap: session.Session{Status: session.StatusAnonymous}}, false},
		{"authenticating", staticSource{snap: session.Session{Status: session.StatusAuthenticating}}, false},
		{"error", staticSource{snap: session.Session{Status: session.StatusError, Err: "connection error"}}, false},
		{"listed inactive", authenticated(mod(models.ModuleEstoque, false)), false},
		{"not listed", authenticated(mod(models.ModuleVendas, true)), false},
		{"listed active", authenticated(mod(models.ModuleEstoque, true)), true},
		{"empty plan", authenticated(), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewGate(tc.source).HasModuleAccess(models.ModuleEstoque))
		})
	}
}

func TestResolveFallsBackToDashboard(t *testing.T) {
	gate := NewGate(authenticated(
		mod(models.ModuleDashboard, true),
		mod(models.ModuleEstoque, true),
		mod(models.ModuleFiscal, false),
	))

	assert.False(t, gate.HasModuleAccess(models.ModuleFiscal))
	key, ok := gate.Resolve(models.ModuleFiscal)
	assert.True(t, ok)
	assert.Equal(t, models.ModuleDashboard, key)

	key, ok = gate.Resolve(models.ModuleEstoque)
	assert.True(t, ok)
	assert.Equal(t, models.ModuleEstoque, key)
}

func TestResolveFollowsPriorityWithoutDashboard(t *testing.T) {
	gate := NewGate(authenticated(
		mod(models.ModuleRelatorios, true),
		mod(models.ModuleEstoque, true),
		mod(models.ModuleFiscal, false),
	))

	key, ok := gate.Resolve(models.ModuleFiscal)
	assert.True(t, ok)
	assert.Equal(t, models.ModuleEstoque, key)

	key, ok = gate.Resolve("")
	assert.True(t, ok)
	assert.Equal(t, models.ModuleEstoque, key)
}

func TestResolveNoAccessibleModules(t *testing.T) {
	for _, source := range []staticSource{
		{snap: session.Session{Status: session.StatusAnonymous}},
		authenticated(mod(models.ModuleEstoque, false)),
		authenticated(mod("custom", true)),
	} {
		key, ok := NewGate(source).Resolve(models.ModuleDashboard)
		assert.False(t, ok)
		assert.Empty(t, key)
	}
}

func TestResolveAcceptsModulesOutsidePriority(t *testing.T) {
	gate := NewGate(authenticated(mod("crm", true)))
	key, ok := gate.Resolve("crm")
	assert.True(t, ok)
	assert.Equal(t, "crm", key)
}

func TestAccessibleModules(t *testing.T) {
	gate := NewGate(authenticated(
		mod("crm", true),
		mod(models.ModuleFiscal, true),
		mod(models.ModuleVendas, false),
		mod(models.ModuleDashboard, true),
	))
	assert.Equal(t, []string{models.ModuleDashboard, models.ModuleFiscal, "crm"}, gate.AccessibleModules())
	assert.Nil(t, NewGate(staticSource{}).AccessibleModules())
}

func TestCan(t *testing.T) {
	gate := NewGate(authenticated(
		mod(models.ModuleEstoque, true),
		mod(models.ModuleFiscal, true, models.ActionExport),
		mod(models.ModuleVendas, true),
	))

	assert.True(t, gate.Can(models.ModuleEstoque, models.ActionCreate))
	assert.False(t, gate.Can(models.ModuleEstoque, models.ActionDelete), "not granted to the user")
	assert.False(t, gate.Can(models.ModuleFiscal, models.ActionView), "plan restricts fiscal to export")
	assert.False(t, gate.Can(models.ModuleVendas, models.ActionView), "no permissions for vendas")
	assert.False(t, NewGate(staticSource{}).Can(models.ModuleEstoque, models.ActionView))
}

func TestGateFollowsLiveSession(t *testing.T) {
	src := &switchingSource{}
	gate := NewGate(src)
	assert.False(t, gate.HasModuleAccess(models.ModuleEstoque))

	src.snap = authenticated(mod(models.ModuleEstoque, true)).snap
	assert.True(t, gate.HasModuleAccess(models.ModuleEstoque))

	src.snap = session.Session{Status: session.StatusAnonymous}
	assert.False(t, gate.HasModuleAccess(models.ModuleEstoque))
}

type switchingSource struct{ snap session.Session }

func (s *switchingSource) Snapshot() session.Session { return s.snap }
