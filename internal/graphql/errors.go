package graphql

import (
	"errors"
	"strings"

	"github.com/hongminglow/backoffice/internal/models/dto"
)

var (
	// ErrTransport marks network and server availability failures; callers may retry.
	ErrTransport = errors.New("graphql: connection error")
	// ErrUnauthenticated means the backend rejected the bearer token.
	ErrUnauthenticated = errors.New("graphql: not authenticated")
	// ErrForbidden means the backend refused the operation for this tenant.
	ErrForbidden = errors.New("graphql: forbidden")
	// ErrMalformed means the response could not be decoded or failed validation.
	ErrMalformed = errors.New("graphql: malformed response")
	// ErrNoTenantContext is returned when a scoped operation is attempted without an
	// authenticated tenant. It always indicates a caller defect.
	ErrNoTenantContext = errors.New("graphql: no tenant context for scoped operation")
)

// OperationError carries the error list returned by the backend for one operation.
type OperationError struct {
	Operation string
	Code      string
	Messages  []string
}

func (e *OperationError) Error() string {
	return e.Operation + ": " + strings.Join(e.Messages, "; ")
}

// Unwrap maps well-known codes to the package sentinels.
func (e *OperationError) Unwrap() error {
	switch e.Code {
	case dto.CodeUnauthenticated:
		return ErrUnauthenticated
	case dto.CodeForbidden:
		return ErrForbidden
	default:
		return nil
	}
}

func newOperationError(op string, errs []dto.GraphQLError) *OperationError {
	out := &OperationError{Operation: op}
	for _, e := range errs {
		if msg := strings.TrimSpace(e.Message); msg != "" {
			out.Messages = append(out.Messages, msg)
		}
		if out.Code == "" || e.Extensions.Code == dto.CodeUnauthenticated {
			out.Code = e.Extensions.Code
		}
	}
	if len(out.Messages) == 0 {
		out.Messages = []string{"request failed"}
	}
	return out
}
