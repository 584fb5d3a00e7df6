package catalog

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrProductNotFound = errors.New("product not found")

type RepoInterface interface {
	GetAllProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	GetOffers(ctx context.Context) ([]domain.Offer, error)
	Close() error
}

type Repository struct {
	db *sql.DB
}

// NewRepository opens the SQLite catalog at dbPath. ":memory:" gives a private
// in-memory catalog, used by tests.
func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: an in-memory database exists per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

// RunMigrations applies the embedded schema and seed migrations.
func (r *Repository) RunMigrations() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *Repository) GetAllProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, category, description, price, image_url, created_at
		FROM products
		ORDER BY CAST(id AS INTEGER), id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	query := `
		SELECT id, name, category, description, price, image_url, created_at
		FROM products
		WHERE id = ?
	`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrProductNotFound
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (domain.Product, error) {
	var (
		p         domain.Product
		createdAt string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.Price, &p.ImageURL, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, err
	}
	if err != nil {
		return p, fmt.Errorf("failed to scan product: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return p, fmt.Errorf("product %s: %w", p.ID, err)
	}
	return p, nil
}

// GetOffers returns every offer in catalog order, whatever its status. Order
// matters: the first applicable active offer is the one applied.
func (r *Repository) GetOffers(ctx context.Context) ([]domain.Offer, error) {
	query := `
		SELECT id, name, description, mechanism, value, code, starts_at, ends_at, status,
		       usage_count, usage_limit, minimum_order_amount, applicable_products, created_at
		FROM offers
		ORDER BY position, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		var (
			o                         domain.Offer
			mechanism, status         string
			startsAt, endsAt, created string
			usageLimit                sql.NullInt64
			minimum                   decimal.NullDecimal
			applicable                string
		)
		err := rows.Scan(&o.ID, &o.Name, &o.Description, &mechanism, &o.Value, &o.Code,
			&startsAt, &endsAt, &status, &o.UsageCount, &usageLimit, &minimum, &applicable, &created)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}

		if o.Mechanism, err = domain.ParseMechanism(mechanism); err != nil {
			return nil, fmt.Errorf("offer %s: %w", o.ID, err)
		}
		o.Status = domain.OfferStatus(status)
		if usageLimit.Valid {
			limit := int(usageLimit.Int64)
			o.UsageLimit = &limit
		}
		if minimum.Valid {
			o.MinimumOrderAmount = &minimum.Decimal
		}
		if err := json.Unmarshal([]byte(applicable), &o.ApplicableProducts); err != nil {
			return nil, fmt.Errorf("offer %s: invalid applicable products: %w", o.ID, err)
		}
		if o.StartsAt, err = parseTime(startsAt); err != nil {
			return nil, fmt.Errorf("offer %s: %w", o.ID, err)
		}
		if o.EndsAt, err = parseTime(endsAt); err != nil {
			return nil, fmt.Errorf("offer %s: %w", o.ID, err)
		}
		if o.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("offer %s: %w", o.ID, err)
		}
		offers = append(offers, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return offers, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
