package models

import "time"

// User captures application-facing fields for an authenticated identity.
type User struct {
	ID           string              `json:"id" validate:"required"`
	Name         string              `json:"name"`
	Email        string              `json:"email" validate:"required"`
	Role         string              `json:"role"`
	CompanyID    string              `json:"companyId" validate:"required"`
	Company      Company             `json:"company"`
	Plan         Plan                `json:"plan"`
	Permissions  []ModulePermissions `json:"permissions" validate:"dive"`
	PasswordHash string              `json:"-"`
	CreatedAt    time.Time           `json:"created_at,omitempty"`
}

// Company is the tenant a user belongs to.
type Company struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	TradeName string `json:"tradeName,omitempty"`
	TaxID     string `json:"taxId,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Clone returns a deep copy so snapshots handed to readers cannot alias session state.
func (u User) Clone() User {
	out := u
	out.Plan = u.Plan.Clone()
	if u.Permissions != nil {
		out.Permissions = make([]ModulePermissions, len(u.Permissions))
		for i, p := range u.Permissions {
			out.Permissions[i] = ModulePermissions{
				ModuleKey:   p.ModuleKey,
				Permissions: append([]string(nil), p.Permissions...),
			}
		}
	}
	return out
}

// PermissionsFor returns the action rights granted for a module key.
func (u User) PermissionsFor(moduleKey string) []string {
	for _, p := range u.Permissions {
		if p.ModuleKey == moduleKey {
			return p.Permissions
		}
	}
	return nil
}
