package handlers

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/hongminglow/backoffice/internal/auth"
	"github.com/hongminglow/backoffice/internal/models"
	"github.com/hongminglow/backoffice/internal/models/dto"
)

func (h *GraphQLHandler) stockEntries(ctx context.Context, vars map[string]any, claims *auth.Claims) (any, error) {
	if err := h.requireModule(ctx, claims, models.ActionView); err != nil {
		return nil, err
	}
	kind, _ := stringVar(vars, "kind")
	if kind != "" && kind != models.StockEntry && kind != models.StockExit {
		return nil, fail(http.StatusOK, dto.CodeBadRequest, "kind must be entry or exit")
	}
	return h.store.ListStockMovements(ctx, claims.CompanyID, kind)
}

func (h *GraphQLHandler) createStockEntry(ctx context.Context, vars map[string]any, claims *auth.Claims) (any, error) {
	if err := h.requireModule(ctx, claims, models.ActionCreate); err != nil {
		return nil, err
	}
	var in dto.StockMovementInput
	if err := decodeVar(vars, "input", &in); err != nil {
		return nil, err
	}
	in.Product = strings.TrimSpace(in.Product)
	if err := h.validate.Struct(in); err != nil {
		return nil, fail(http.StatusOK, dto.CodeBadRequest, "invalid stock movement")
	}
	return h.store.CreateStockMovement(ctx, models.StockMovement{
		CompanyID: claims.CompanyID,
		Product:   in.Product,
		Quantity:  in.Quantity,
		Kind:      in.Kind,
	})
}

// requireModule enforces the plan and the user's action rights for the stock module.
func (h *GraphQLHandler) requireModule(ctx context.Context, claims *auth.Claims, action string) error {
	user, err := h.currentUser(ctx, claims)
	if err != nil {
		return err
	}
	m, ok := user.Plan.Module(models.ModuleEstoque)
	if !ok || !m.IsActive {
		return fail(http.StatusForbidden, dto.CodeForbidden, "module not included in plan")
	}
	if !slices.Contains(user.PermissionsFor(models.ModuleEstoque), action) || !m.AllowsAction(action) {
		return fail(http.StatusForbidden, dto.CodeForbidden, "action not permitted")
	}
	return nil
}
