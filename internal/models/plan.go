package models

import "slices"

// Plan is the tenant's subscription plan and the modules it unlocks.
type Plan struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Modules []Module `json:"modules" validate:"dive"`
}

// Module is one functional area listed in a plan.
type Module struct {
	Key      string   `json:"module_key" validate:"required"`
	Name     string   `json:"name"`
	IsActive bool     `json:"isActive"`
	Actions  []string `json:"actions,omitempty"`
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	out := p
	if p.Modules != nil {
		out.Modules = make([]Module, len(p.Modules))
		for i, m := range p.Modules {
			m.Actions = append([]string(nil), m.Actions...)
			out.Modules[i] = m
		}
	}
	return out
}

// Equal reports whether both plans list the same modules with the same state and actions.
func (p Plan) Equal(other Plan) bool {
	return p.ID == other.ID && p.Name == other.Name &&
		slices.EqualFunc(p.Modules, other.Modules, func(a, b Module) bool {
			return a.Key == b.Key && a.Name == b.Name && a.IsActive == b.IsActive && slices.Equal(a.Actions, b.Actions)
		})
}

// Module returns the plan entry for key, if listed.
func (p Plan) Module(key string) (Module, bool) {
	for _, m := range p.Modules {
		if m.Key == key {
			return m, true
		}
	}
	return Module{}, false
}

// AllowsAction reports whether the module restricts actions and, if so, includes action.
func (m Module) AllowsAction(action string) bool {
	if len(m.Actions) == 0 {
		return true
	}
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}
