// Package inventory is the stock feature area. It reaches tenant data only through the
// scoped executor, so every operation it issues carries the session tenant.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hongminglow/backoffice/internal/graphql"
	"github.com/hongminglow/backoffice/internal/models"
	"github.com/hongminglow/backoffice/internal/models/dto"
)

var (
	StockEntriesQuery = graphql.Operation{
		Name:  "StockEntries",
		Query: `query StockEntries($companyId: ID!, $kind: String) { stockEntries(companyId: $companyId, kind: $kind) { id companyId product quantity kind createdAt } }`,
	}
	CreateStockEntryMutation = graphql.Operation{
		Name:  "CreateStockEntry",
		Query: `mutation CreateStockEntry($companyId: ID!, $input: StockMovementInput!) { createStockEntry(companyId: $companyId, input: $input) { id companyId product quantity kind createdAt } }`,
	}
)

var (
	ErrModuleUnavailable = errors.New("inventory: module not included in plan")
	ErrNotPermitted      = errors.New("inventory: action not permitted")
	ErrInvalidInput      = errors.New("inventory: invalid stock movement")
)

// Executor issues tenant-scoped operations.
type Executor interface {
	ExecuteQuery(ctx context.Context, op graphql.Operation, vars map[string]any) (json.RawMessage, error)
	ExecuteMutation(ctx context.Context, op graphql.Operation, vars map[string]any) (json.RawMessage, error)
}

// Gate is the entitlement check consulted before every operation.
type Gate interface {
	HasModuleAccess(moduleKey string) bool
	Can(moduleKey, action string) bool
}

type Service struct {
	exec     Executor
	gate     Gate
	validate *validator.Validate
}

func NewService(exec Executor, gate Gate) *Service {
	return &Service{exec: exec, gate: gate, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// List returns the tenant's stock movements, optionally filtered by kind.
func (s *Service) List(ctx context.Context, kind string) ([]models.StockMovement, error) {
	if err := s.authorize(models.ActionView); err != nil {
		return nil, err
	}
	vars := map[string]any{}
	if kind = strings.TrimSpace(kind); kind != "" {
		if kind != models.StockEntry && kind != models.StockExit {
			return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
		}
		vars["kind"] = kind
	}
	raw, err := s.exec.ExecuteQuery(ctx, StockEntriesQuery, vars)
	if err != nil {
		return nil, err
	}
	var out struct {
		StockEntries []models.StockMovement `json:"stockEntries"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", StockEntriesQuery.Name, graphql.ErrMalformed, err)
	}
	return out.StockEntries, nil
}

// Record creates a stock entry or exit for the tenant.
func (s *Service) Record(ctx context.Context, in dto.StockMovementInput) (models.StockMovement, error) {
	if err := s.authorize(models.ActionCreate); err != nil {
		return models.StockMovement{}, err
	}
	in.Product = strings.TrimSpace(in.Product)
	if err := s.validate.Struct(in); err != nil {
		return models.StockMovement{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	raw, err := s.exec.ExecuteMutation(ctx, CreateStockEntryMutation, map[string]any{"input": in})
	if err != nil {
		return models.StockMovement{}, err
	}
	var out struct {
		CreateStockEntry models.StockMovement `json:"createStockEntry"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.StockMovement{}, fmt.Errorf("%s: %w: %w", CreateStockEntryMutation.Name, graphql.ErrMalformed, err)
	}
	return out.CreateStockEntry, nil
}

func (s *Service) authorize(action string) error {
	if !s.gate.HasModuleAccess(models.ModuleEstoque) {
		return ErrModuleUnavailable
	}
	if !s.gate.Can(models.ModuleEstoque, action) {
		return fmt.Errorf("%w: %s", ErrNotPermitted, action)
	}
	return nil
}
