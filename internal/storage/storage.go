package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/backoffice/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// Store captures persistence operations needed by handlers. Every stock operation takes the
// tenant explicitly and never reads or writes another tenant's rows.
type Store interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	ListStockMovements(ctx context.Context, companyID, kind string) ([]models.StockMovement, error)
	CreateStockMovement(ctx context.Context, movement models.StockMovement) (models.StockMovement, error)
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}
