package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/backoffice/internal/auth"
	"github.com/hongminglow/backoffice/internal/http/respond"
	"github.com/hongminglow/backoffice/internal/logging"
	"github.com/hongminglow/backoffice/internal/models/dto"
)

type claimsKey struct{}

// RevocationChecker reports server-side logouts.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Authenticate attaches verified token claims to the request context. Requests without a
// usable bearer token pass through unauthenticated; handlers decide what requires a session.
// When revocation cannot be checked the request fails with 503 instead of being treated as
// signed out.
func Authenticate(tokens *auth.TokenManager, revoked RevocationChecker, logger *zap.Logger, next http.Handler) http.Handler {
	logger = logging.OrNop(logger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := BearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		isRevoked, err := revoked.IsTokenRevoked(r.Context(), claims.ID)
		if err != nil {
			logger.Error("check token revocation", zap.String("token_id", claims.ID), zap.Error(err))
			respond.Error(w, http.StatusServiceUnavailable, dto.CodeInternal, "token verification unavailable")
			return
		}
		if isRevoked {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// WithClaims returns a context carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFrom returns the verified claims of the request, if any.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok && claims != nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
