package storage

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/backoffice/internal/models"
)

// Tenant groups a company with its plan and users for seeding.
type Tenant struct {
	Company models.Company
	Plan    models.Plan
	Users   []models.User
}

// StableID derives a deterministic id so repeated seeding stays idempotent.
func StableID(kind, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("backoffice:"+kind+":"+name)).String()
}

// DemoTenants returns two tenants with different plans. Every user gets password.
func DemoTenants(password string) ([]Tenant, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	all := []string{models.ActionView, models.ActionCreate, models.ActionEdit, models.ActionDelete, models.ActionExport}

	acme := Tenant{
		Company: models.Company{
			ID:        StableID("company", "acme"),
			Name:      "Acme Ferragens Ltda",
			TradeName: "Acme",
			TaxID:     "12.345.678/0001-90",
			Email:     "contato@acme.test",
		},
		Plan: models.Plan{
			ID:   StableID("plan", "pro"),
			Name: "Pro",
			Modules: []models.Module{
				{Key: models.ModuleDashboard, Name: "Dashboard", IsActive: true},
				{Key: models.ModuleEstoque, Name: "Estoque", IsActive: true},
				{Key: models.ModuleVendas, Name: "Vendas", IsActive: true},
				{Key: models.ModuleFinanceiro, Name: "Financeiro", IsActive: true},
				{Key: models.ModuleFiscal, Name: "Fiscal", IsActive: false},
				{Key: models.ModuleRelatorios, Name: "Relatórios", IsActive: true, Actions: []string{models.ActionView, models.ActionExport}},
			},
		},
	}
	acme.Users = []models.User{
		{
			ID:           StableID("user", "admin@acme.test"),
			Name:         "Ana Souza",
			Email:        "admin@acme.test",
			Role:         models.RoleAdmin,
			PasswordHash: string(hash),
			Permissions: []models.ModulePermissions{
				{ModuleKey: models.ModuleDashboard, Permissions: []string{models.ActionView}},
				{ModuleKey: models.ModuleEstoque, Permissions: all},
				{ModuleKey: models.ModuleVendas, Permissions: all},
				{ModuleKey: models.ModuleFinanceiro, Permissions: all},
				{ModuleKey: models.ModuleRelatorios, Permissions: all},
			},
		},
		{
			ID:           StableID("user", "operador@acme.test"),
			Name:         "Bruno Lima",
			Email:        "operador@acme.test",
			Role:         models.RoleOperator,
			PasswordHash: string(hash),
			Permissions: []models.ModulePermissions{
				{ModuleKey: models.ModuleEstoque, Permissions: []string{models.ActionView, models.ActionCreate}},
			},
		},
	}

	beta := Tenant{
		Company: models.Company{
			ID:   StableID("company", "beta"),
			Name: "Beta Comércio ME",
		},
		Plan: models.Plan{
			ID:   StableID("plan", "basico"),
			Name: "Básico",
			Modules: []models.Module{
				{Key: models.ModuleEstoque, Name: "Estoque", IsActive: true},
				{Key: models.ModuleFiscal, Name: "Fiscal", IsActive: false},
			},
		},
	}
	beta.Users = []models.User{
		{
			ID:           StableID("user", "gerente@beta.test"),
			Name:         "Carla Dias",
			Email:        "gerente@beta.test",
			Role:         models.RoleManager,
			PasswordHash: string(hash),
			Permissions: []models.ModulePermissions{
				{ModuleKey: models.ModuleEstoque, Permissions: []string{models.ActionView, models.ActionCreate, models.ActionEdit}},
			},
		},
	}

	tenants := []Tenant{acme, beta}
	for i := range tenants {
		for j := range tenants[i].Users {
			u := &tenants[i].Users[j]
			u.CompanyID = tenants[i].Company.ID
			u.Company = tenants[i].Company
			u.Plan = tenants[i].Plan.Clone()
		}
	}
	return tenants, nil
}
