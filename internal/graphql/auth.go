package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hongminglow/backoffice/internal/models"
	"github.com/hongminglow/backoffice/internal/models/dto"
)

const userFields = `id name email role companyId
	company { id name tradeName taxId email phone }
	plan { id name modules { module_key name isActive actions } }
	permissions { module_key permissions }`

var (
	LoginMutation = Operation{
		Name:  "Login",
		Query: `mutation Login($email: String!, $password: String!) { login(email: $email, password: $password) { token user { ` + userFields + ` } } }`,
	}
	MeQuery = Operation{
		Name:  "Me",
		Query: `query Me { me { ` + userFields + ` } }`,
	}
	LogoutMutation = Operation{
		Name:  "Logout",
		Query: `mutation Logout { logout }`,
	}
)

// Login exchanges credentials for a bearer token. A backend rejection is returned as
// *OperationError; connectivity problems match ErrTransport.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	raw, err := c.execute(ctx, "", LoginMutation, map[string]any{
		"email":    strings.TrimSpace(email),
		"password": password,
	})
	if err != nil {
		return "", err
	}
	var out struct {
		Login dto.LoginResponse `json:"login"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%s: %w: %w", LoginMutation.Name, ErrMalformed, err)
	}
	if strings.TrimSpace(out.Login.Token) == "" {
		return "", fmt.Errorf("%s: %w: missing token", LoginMutation.Name, ErrMalformed)
	}
	return out.Login.Token, nil
}

// Profile fetches the current user for token and validates it. Any token rejection,
// including a missing profile, matches ErrUnauthenticated.
func (c *Client) Profile(ctx context.Context, token string) (models.User, error) {
	if strings.TrimSpace(token) == "" {
		return models.User{}, fmt.Errorf("%s: %w", MeQuery.Name, ErrUnauthenticated)
	}
	raw, err := c.execute(ctx, token, MeQuery, nil)
	if err != nil {
		var opErr *OperationError
		if errors.As(err, &opErr) && !errors.Is(err, ErrUnauthenticated) {
			// Any backend-side refusal of the profile is indistinguishable from no session.
			return models.User{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
		return models.User{}, err
	}
	var out dto.MeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.User{}, fmt.Errorf("%s: %w: %w", MeQuery.Name, ErrMalformed, err)
	}
	if err := ValidateUser(out.User); err != nil {
		return models.User{}, fmt.Errorf("%s: %w: %w", MeQuery.Name, ErrMalformed, err)
	}
	return out.User, nil
}

// Invalidate asks the backend to end the server side of the session.
func (c *Client) Invalidate(ctx context.Context, token string) error {
	_, err := c.execute(ctx, token, LogoutMutation, nil)
	return err
}
