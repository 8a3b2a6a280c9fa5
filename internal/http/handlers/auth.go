package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/backoffice/internal/auth"
	"github.com/hongminglow/backoffice/internal/models"
	"github.com/hongminglow/backoffice/internal/models/dto"
	"github.com/hongminglow/backoffice/internal/storage"
)

var errInvalidCredentials = fail(http.StatusOK, dto.CodeInvalidCredentials, "invalid email or password")

func (h *GraphQLHandler) login(ctx context.Context, vars map[string]any, _ *auth.Claims) (any, error) {
	var req dto.LoginRequest
	req.Email, _ = stringVar(vars, "email")
	req.Password, _ = vars["password"].(string)
	if req.Email == "" || req.Password == "" {
		h.metrics.Login("invalid")
		return nil, fail(http.StatusOK, dto.CodeBadRequest, "email and password are required")
	}

	user, err := h.store.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// keep timing uniform for unknown emails
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			h.metrics.Login("invalid")
			return nil, errInvalidCredentials
		}
		h.metrics.Login("error")
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.metrics.Login("invalid")
		return nil, errInvalidCredentials
	}
	token, err := h.tokens.Generate(user)
	if err != nil {
		h.metrics.Login("error")
		return nil, err
	}
	h.metrics.Login("success")
	h.logger.Info("login", zap.String("user_id", user.ID), zap.String("company_id", user.CompanyID))
	return dto.LoginResponse{Token: token, User: user}, nil
}

func (h *GraphQLHandler) me(ctx context.Context, _ map[string]any, claims *auth.Claims) (any, error) {
	user, err := h.currentUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (h *GraphQLHandler) logout(ctx context.Context, _ map[string]any, claims *auth.Claims) (any, error) {
	expiresAt := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := h.store.RevokeToken(ctx, claims.ID, expiresAt); err != nil {
		return nil, err
	}
	return true, nil
}

// currentUser loads the token's user and refuses tokens whose tenant no longer matches.
func (h *GraphQLHandler) currentUser(ctx context.Context, claims *auth.Claims) (models.User, error) {
	user, err := h.store.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, errUnauthenticated
		}
		return models.User{}, err
	}
	if user.CompanyID != claims.CompanyID {
		h.logger.Warn("token tenant differs from user tenant", zap.String("user_id", user.ID))
		return models.User{}, errUnauthenticated
	}
	return user, nil
}

var dummyHash = func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
}()
