// Package entitlement decides which functional modules the current session may use.
package entitlement

import (
	"slices"

	"github.com/hongminglow/backoffice/internal/models"
	"github.com/hongminglow/backoffice/internal/session"
)

// DefaultPriority is the fixed fallback order used when the selected module is not accessible.
var DefaultPriority = []string{
	models.ModuleDashboard,
	models.ModuleEstoque,
	models.ModuleVendas,
	models.ModuleFinanceiro,
	models.ModuleFiscal,
	models.ModuleRelatorios,
}

// Source provides session snapshots.
type Source interface {
	Snapshot() session.Session
}

// Gate answers module access questions from the session's plan. It never mutates the session.
type Gate struct {
	source   Source
	priority []string
}

// NewGate builds a gate using DefaultPriority.
func NewGate(source Source) *Gate {
	return &Gate{source: source, priority: slices.Clone(DefaultPriority)}
}

// HasModuleAccess reports whether the plan lists moduleKey as active. It is false for any
// session that is not authenticated.
func (g *Gate) HasModuleAccess(moduleKey string) bool {
	return hasAccess(g.source.Snapshot(), moduleKey)
}

// Resolve returns requested when it is accessible, otherwise the first accessible module in
// priority order. ok is false when nothing is accessible.
func (g *Gate) Resolve(requested string) (string, bool) {
	snap := g.source.Snapshot()
	if requested != "" && hasAccess(snap, requested) {
		return requested, true
	}
	for _, key := range g.priority {
		if hasAccess(snap, key) {
			return key, true
		}
	}
	return "", false
}

// AccessibleModules lists every accessible module: priority modules first, then any other
// active plan modules in plan order.
func (g *Gate) AccessibleModules() []string {
	snap := g.source.Snapshot()
	if !snap.Authenticated() {
		return nil
	}
	var out []string
	for _, key := range g.priority {
		if hasAccess(snap, key) {
			out = append(out, key)
		}
	}
	for _, m := range snap.User.Plan.Modules {
		if m.IsActive && !slices.Contains(out, m.Key) {
			out = append(out, m.Key)
		}
	}
	return out
}

// Can reports whether the session may perform action inside moduleKey: the module must be
// accessible, the user's permissions for it must include action, and the plan must not
// restrict the module to other actions.
func (g *Gate) Can(moduleKey, action string) bool {
	snap := g.source.Snapshot()
	if !hasAccess(snap, moduleKey) {
		return false
	}
	if !slices.Contains(snap.User.PermissionsFor(moduleKey), action) {
		return false
	}
	m, _ := snap.User.Plan.Module(moduleKey)
	return m.AllowsAction(action)
}

func hasAccess(snap session.Session, moduleKey string) bool {
	if !snap.Authenticated() {
		return false
	}
	for _, m := range snap.User.Plan.Modules {
		if m.Key == moduleKey && m.IsActive {
			return true
		}
	}
	return false
}
