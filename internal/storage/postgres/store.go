package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hongminglow/backoffice/internal/models"
	"github.com/hongminglow/backoffice/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for tenants, users and stock movements.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS plan_modules (
			plan_id TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
			module_key TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			actions TEXT[] NOT NULL DEFAULT '{}',
			position INT NOT NULL DEFAULT 0,
			PRIMARY KEY (plan_id, module_key)
		);`,
		`CREATE TABLE IF NOT EXISTS companies (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			trade_name TEXT NOT NULL DEFAULT '',
			tax_id TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			plan_id TEXT REFERENCES plans(id)
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL REFERENCES companies(id),
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'operador',
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique_idx ON users (lower(email));`,
		`CREATE TABLE IF NOT EXISTS user_permissions (
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			module_key TEXT NOT NULL,
			permissions TEXT[] NOT NULL DEFAULT '{}',
			position INT NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, module_key)
		);`,
		`CREATE TABLE IF NOT EXISTS stock_movements (
			id UUID PRIMARY KEY,
			company_id TEXT NOT NULL REFERENCES companies(id),
			product TEXT NOT NULL,
			quantity BIGINT NOT NULL CHECK (quantity > 0),
			kind TEXT NOT NULL CHECK (kind IN ('entry', 'exit')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS stock_movements_company_idx ON stock_movements (company_id, created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS revoked_tokens (
			token_id TEXT PRIMARY KEY,
			expires_at TIMESTAMPTZ NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// Seed upserts tenants, their plans and users in one transaction.
func (s *Store) Seed(ctx context.Context, tenants []storage.Tenant) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, t := range tenants {
			if _, err := tx.Exec(ctx,
				`INSERT INTO plans (id, name) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
				t.Plan.ID, t.Plan.Name); err != nil {
				return fmt.Errorf("seed plan %s: %w", t.Plan.Name, err)
			}
			for i, m := range t.Plan.Modules {
				if _, err := tx.Exec(ctx, `
					INSERT INTO plan_modules (plan_id, module_key, name, is_active, actions, position)
					VALUES ($1, $2, $3, $4, $5, $6)
					ON CONFLICT (plan_id, module_key) DO UPDATE
					SET name = EXCLUDED.name, is_active = EXCLUDED.is_active, actions = EXCLUDED.actions, position = EXCLUDED.position`,
					t.Plan.ID, m.Key, m.Name, m.IsActive, nonNil(m.Actions), i); err != nil {
					return fmt.Errorf("seed module %s: %w", m.Key, err)
				}
			}
			c := t.Company
			if _, err := tx.Exec(ctx, `
				INSERT INTO companies (id, name, trade_name, tax_id, email, phone, plan_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (id) DO UPDATE
				SET name = EXCLUDED.name, trade_name = EXCLUDED.trade_name, tax_id = EXCLUDED.tax_id,
					email = EXCLUDED.email, phone = EXCLUDED.phone, plan_id = EXCLUDED.plan_id`,
				c.ID, c.Name, c.TradeName, c.TaxID, c.Email, c.Phone, t.Plan.ID); err != nil {
				return fmt.Errorf("seed company %s: %w", c.Name, err)
			}
			for _, u := range t.Users {
				if _, err := tx.Exec(ctx, `
					INSERT INTO users (id, company_id, name, email, role, password_hash)
					VALUES ($1, $2, $3, $4, $5, $6)
					ON CONFLICT (id) DO UPDATE
					SET company_id = EXCLUDED.company_id, name = EXCLUDED.name, email = EXCLUDED.email,
						role = EXCLUDED.role, password_hash = EXCLUDED.password_hash`,
					u.ID, c.ID, u.Name, u.Email, u.Role, u.PasswordHash); err != nil {
					var pgErr *pgconn.PgError
					if errors.As(err, &pgErr) && pgErr.Code == "23505" {
						return fmt.Errorf("seed user %s: %w", u.Email, storage.ErrAlreadyExists)
					}
					return fmt.Errorf("seed user %s: %w", u.Email, err)
				}
				for i, p := range u.Permissions {
					if _, err := tx.Exec(ctx, `
						INSERT INTO user_permissions (user_id, module_key, permissions, position)
						VALUES ($1, $2, $3, $4)
						ON CONFLICT (user_id, module_key) DO UPDATE
						SET permissions = EXCLUDED.permissions, position = EXCLUDED.position`,
						u.ID, p.ModuleKey, nonNil(p.Permissions), i); err != nil {
						return fmt.Errorf("seed permissions %s/%s: %w", u.Email, p.ModuleKey, err)
					}
				}
			}
		}
		return nil
	})
}

const userColumns = `
	u.id, u.name, u.email, u.role, u.password_hash, u.created_at,
	c.id, c.name, c.trade_name, c.tax_id, c.email, c.phone,
	COALESCE(p.id, ''), COALESCE(p.name, '')
	FROM users u
	JOIN companies c ON c.id = u.company_id
	LEFT JOIN plans p ON p.id = c.plan_id`

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` WHERE lower(u.email) = lower($1);`, strings.TrimSpace(email))
	return s.loadUser(ctx, row)
}

// FindByID fetches a user by id.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` WHERE u.id = $1;`, id)
	return s.loadUser(ctx, row)
}

// ListStockMovements returns the tenant's movements, newest first.
func (s *Store) ListStockMovements(ctx context.Context, companyID, kind string) ([]models.StockMovement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, company_id, product, quantity, kind, created_at
		FROM stock_movements
		WHERE company_id = $1 AND ($2::text = '' OR kind = $2::text)
		ORDER BY created_at DESC;`, companyID, kind)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.StockMovement, error) {
		var m models.StockMovement
		err := row.Scan(&m.ID, &m.CompanyID, &m.Product, &m.Quantity, &m.Kind, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan stock movements: %w", err)
	}
	return out, nil
}

// CreateStockMovement inserts a movement for its tenant.
func (s *Store) CreateStockMovement(ctx context.Context, m models.StockMovement) (models.StockMovement, error) {
	const query = `
		INSERT INTO stock_movements (id, company_id, product, quantity, kind)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text, company_id, product, quantity, kind, created_at;`
	var out models.StockMovement
	err := s.pool.QueryRow(ctx, query, uuid.New(), m.CompanyID, m.Product, m.Quantity, m.Kind).
		Scan(&out.ID, &out.CompanyID, &out.Product, &out.Quantity, &out.Kind, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.StockMovement{}, fmt.Errorf("create stock movement: %w", storage.ErrNotFound)
		}
		return models.StockMovement{}, fmt.Errorf("create stock movement: %w", err)
	}
	return out, nil
}

// RevokeToken records a token id until it expires and prunes expired entries.
func (s *Store) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < NOW();`); err != nil {
			return fmt.Errorf("prune revoked tokens: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO revoked_tokens (token_id, expires_at) VALUES ($1, $2) ON CONFLICT (token_id) DO NOTHING;`,
			tokenID, expiresAt); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
		return nil
	})
}

// IsTokenRevoked reports whether tokenID was revoked.
func (s *Store) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1);`, tokenID).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

func (s *Store) loadUser(ctx context.Context, row pgx.Row) (models.User, error) {
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, err
	}
	if user.Plan.ID != "" {
		rows, err := s.pool.Query(ctx, `
			SELECT module_key, name, is_active, actions
			FROM plan_modules WHERE plan_id = $1 ORDER BY position, module_key;`, user.Plan.ID)
		if err != nil {
			return models.User{}, fmt.Errorf("load plan modules: %w", err)
		}
		user.Plan.Modules, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Module, error) {
			var m models.Module
			err := row.Scan(&m.Key, &m.Name, &m.IsActive, &m.Actions)
			return m, err
		})
		if err != nil {
			return models.User{}, fmt.Errorf("scan plan modules: %w", err)
		}
	}
	rows, err := s.pool.Query(ctx, `
		SELECT module_key, permissions
		FROM user_permissions WHERE user_id = $1 ORDER BY position, module_key;`, user.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("load permissions: %w", err)
	}
	user.Permissions, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ModulePermissions, error) {
		var p models.ModulePermissions
		err := row.Scan(&p.ModuleKey, &p.Permissions)
		return p, err
	})
	if err != nil {
		return models.User{}, fmt.Errorf("scan permissions: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	c := &user.Company
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.PasswordHash, &user.CreatedAt,
		&c.ID, &c.Name, &c.TradeName, &c.TaxID, &c.Email, &c.Phone,
		&user.Plan.ID, &user.Plan.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	user.CompanyID = c.ID
	return user, nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
