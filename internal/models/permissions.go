package models

const (
	RoleAdmin    = "admin"
	RoleManager  = "gerente"
	RoleOperator = "operador"
)

// Module keys shared by navigation and feature areas.
const (
	ModuleDashboard  = "dashboard"
	ModuleEstoque    = "estoque"
	ModuleVendas     = "vendas"
	ModuleFinanceiro = "financeiro"
	ModuleFiscal     = "fiscal"
	ModuleRelatorios = "relatorios"
)

// Common action names used in ModulePermissions.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionExport = "export"
)

// ModulePermissions lists fine-grained action rights within one module.
type ModulePermissions struct {
	ModuleKey   string   `json:"module_key" validate:"required"`
	Permissions []string `json:"permissions"`
}
