package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/quickbite/cart-service/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

// NewRepositoryWithDB wraps an already-open connection, used by tests.
func NewRepositoryWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) RunMigrations(migrationsDirPath string) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "cart_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) GetCartByUserID(ctx context.Context, userID int64) (*domain.Cart, error) {
	query := `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`

	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart by user id: %w", err)
	}

	return &cart, nil
}

// CreateCart inserts the user's one durable cart row. A concurrent create for
// the same user resolves to the already-existing row instead of an error.
func (r *Repository) CreateCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	query := `INSERT INTO carts (id, user_id, created_at, updated_at)
	          VALUES ($1, $2, NOW(), NOW())
	          RETURNING id, user_id, created_at, updated_at`

	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, query, uuid.New(), userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return r.GetCartByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("insert cart: %w", err)
	}

	return &cart, nil
}

func (r *Repository) GetLines(ctx context.Context, cartID uuid.UUID) ([]domain.CartLine, error) {
	query := `SELECT id, cart_id, menu_id, quantity FROM cart_lines WHERE cart_id = $1`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if e2 := rows.Scan(&line.ID, &line.CartID, &line.MenuID, &line.Quantity); e2 != nil {
			return nil, fmt.Errorf("scan cart line row: %w", e2)
		}
		lines = append(lines, line)
	}

	if e2 := rows.Err(); e2 != nil {
		return nil, fmt.Errorf("row iteration error: %w", e2)
	}

	return lines, nil
}

// ReplaceLines swaps the cart's whole line set in one transaction: delete all,
// bulk insert. It is a full replace, not a diff.
func (r *Repository) ReplaceLines(ctx context.Context, cartID uuid.UUID, items []domain.CartItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace lines: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("delete cart lines: %w", err)
	}

	if len(items) > 0 {
		stmt, prepErr := tx.PrepareContext(ctx,
			`INSERT INTO cart_lines (id, cart_id, menu_id, quantity) VALUES ($1, $2, $3, $4)`)
		if prepErr != nil {
			err = prepErr
			return fmt.Errorf("prepare insert cart line: %w", err)
		}
		defer stmt.Close()

		for _, item := range items {
			if _, err = stmt.ExecContext(ctx, uuid.New(), cartID, item.MenuID, item.Quantity); err != nil {
				return fmt.Errorf("insert cart line: %w", err)
			}
		}
	}

	if _, err = tx.ExecContext(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace lines: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
