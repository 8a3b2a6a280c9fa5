package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hongminglow/backoffice/internal/auth"
	"github.com/hongminglow/backoffice/internal/http/respond"
	"github.com/hongminglow/backoffice/internal/logging"
	"github.com/hongminglow/backoffice/internal/metrics"
	"github.com/hongminglow/backoffice/internal/middleware"
	"github.com/hongminglow/backoffice/internal/models/dto"
	"github.com/hongminglow/backoffice/internal/storage"
)

const maxRequestBody = 1 << 20

// operationError is a resolver failure reported in the errors list.
type operationError struct {
	status  int
	code    string
	message string
}

func (e *operationError) Error() string { return e.code + ": " + e.message }

func fail(status int, code, message string) error {
	return &operationError{status: status, code: code, message: message}
}

var (
	errUnauthenticated = fail(http.StatusUnauthorized, dto.CodeUnauthenticated, "authentication required")
	errTenantMismatch  = fail(http.StatusForbidden, dto.CodeForbidden, "operation not permitted for this company")
)

type resolveFunc func(ctx context.Context, vars map[string]any, claims *auth.Claims) (any, error)

type resolver struct {
	// field is the key the result is returned under in data.
	field string
	// authenticated operations require a verified bearer token.
	authenticated bool
	// scoped operations additionally require companyId to match the token tenant.
	scoped bool
	fn     resolveFunc
}

// GraphQLHandler serves POST /graphql, dispatching on operationName.
type GraphQLHandler struct {
	store     storage.Store
	tokens    *auth.TokenManager
	metrics   *metrics.Metrics
	logger    *zap.Logger
	validate  *validator.Validate
	resolvers map[string]resolver
}

// NewGraphQLHandler constructs the handler with the auth and inventory operations.
func NewGraphQLHandler(store storage.Store, tokens *auth.TokenManager, m *metrics.Metrics, logger *zap.Logger) *GraphQLHandler {
	h := &GraphQLHandler{
		store:    store,
		tokens:   tokens,
		metrics:  m,
		logger:   logging.OrNop(logger),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	h.resolvers = map[string]resolver{
		"Login":            {field: "login", fn: h.login},
		"Me":               {field: "me", authenticated: true, fn: h.me},
		"Logout":           {field: "logout", authenticated: true, fn: h.logout},
		"StockEntries":     {field: "stockEntries", authenticated: true, scoped: true, fn: h.stockEntries},
		"CreateStockEntry": {field: "createStockEntry", authenticated: true, scoped: true, fn: h.createStockEntry},
	}
	return h
}

// Register attaches the endpoint to the mux.
func (h *GraphQLHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/graphql", h.handle)
}

func (h *GraphQLHandler) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.GraphQLRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, dto.CodeBadRequest, "invalid JSON payload")
		return
	}
	name := strings.TrimSpace(req.OperationName)
	res, ok := h.resolvers[name]
	if !ok {
		h.metrics.Operation("unknown", dto.CodeBadRequest)
		respond.Error(w, http.StatusBadRequest, dto.CodeBadRequest, "unknown operation")
		return
	}

	claims, authenticated := middleware.ClaimsFrom(r.Context())
	var err error
	switch {
	case res.authenticated && !authenticated:
		err = errUnauthenticated
	case res.scoped:
		err = h.checkTenant(name, req.Variables, claims)
	}
	var data any
	if err == nil {
		data, err = res.fn(r.Context(), req.Variables, claims)
	}
	if err != nil {
		h.writeError(w, name, err)
		return
	}
	h.metrics.Operation(name, "OK")
	respond.Data(w, map[string]any{res.field: data})
}

// checkTenant refuses scoped operations whose companyId is missing or names another tenant.
func (h *GraphQLHandler) checkTenant(op string, vars map[string]any, claims *auth.Claims) error {
	companyID, _ := stringVar(vars, dto.VarCompanyID)
	if companyID != "" && companyID == claims.CompanyID {
		return nil
	}
	h.metrics.TenantMismatch()
	h.logger.Warn("scoped operation tenant mismatch",
		zap.String("operation", op),
		zap.String("token_company_id", claims.CompanyID),
		zap.String("requested_company_id", companyID),
		zap.String("user_id", claims.Subject),
	)
	return errTenantMismatch
}

func (h *GraphQLHandler) writeError(w http.ResponseWriter, op string, err error) {
	var opErr *operationError
	if !errors.As(err, &opErr) {
		h.logger.Error("operation failed", zap.String("operation", op), zap.Error(err))
		opErr = &operationError{status: http.StatusInternalServerError, code: dto.CodeInternal, message: "internal error"}
	}
	h.metrics.Operation(op, opErr.code)
	respond.Error(w, opErr.status, opErr.code, opErr.message)
}

func stringVar(vars map[string]any, key string) (string, bool) {
	v, ok := vars[key].(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// decodeVar re-encodes a loosely typed variable into a fixed-shape struct.
func decodeVar(vars map[string]any, key string, out any) error {
	v, ok := vars[key]
	if !ok || v == nil {
		return fail(http.StatusOK, dto.CodeBadRequest, key+" is required")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fail(http.StatusOK, dto.CodeBadRequest, key+" is malformed")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fail(http.StatusOK, dto.CodeBadRequest, key+" is malformed")
	}
	return nil
}
