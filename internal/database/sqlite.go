package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/config"
	"storefront-service/internal/domain"
	"storefront-service/internal/repository"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// timeLayout is fixed width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB is the transactional store. Reads made through its repositories run
// outside any unit; WithinUnit binds the repositories to one transaction.
type DB struct {
	db     *sql.DB
	logger *zap.Logger
	stores
}

type stores struct {
	catalog *CatalogStore
	carts   *CartStore
	orders  *OrderStore
}

func newStores(q dbtx) stores {
	return stores{
		catalog: &CatalogStore{q: q},
		carts:   &CartStore{q: q},
		orders:  &OrderStore{q: q},
	}
}

func (s stores) Catalog() repository.CatalogRepository { return s.catalog }
func (s stores) Carts() repository.CartRepository      { return s.carts }
func (s stores) Orders() repository.OrderRepository    { return s.orders }

// NewDB opens the database and initializes the schema.
// Transactions start with BEGIN IMMEDIATE so concurrent writers queue on the
// database lock instead of failing on lock upgrade.
func NewDB(cfg *config.Config, logger *zap.Logger) (*DB, error) {
	busyTimeout := cfg.SQLiteBusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = 5000
	}
	dsn := fmt.Sprintf("%s?_txlock=immediate&_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=1",
		cfg.SQLitePath, busyTimeout)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.SQLiteMaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 4
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sdb := &DB{
		db:     db,
		logger: logger,
		stores: newStores(db),
	}

	if err := sdb.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return sdb, nil
}

// initSchema creates the database schema
func (d *DB) initSchema() error {
	schema := `
	-- Catalog items: stock is the only column written by cart and order operations
	CREATE TABLE IF NOT EXISTS catalog_items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		colors TEXT NOT NULL DEFAULT '[]',
		sizes TEXT NOT NULL DEFAULT '[]',
		stock INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		images TEXT NOT NULL DEFAULT '[]',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK(stock >= 0),
		CHECK(is_active IN (0, 1))
	);

	-- Carts: at most one active cart per customer
	CREATE TABLE IF NOT EXISTS carts (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		total_price TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Cart line items: product_id has no foreign key, products may be removed by catalog administration
	CREATE TABLE IF NOT EXISTS cart_items (
		id TEXT PRIMARY KEY,
		cart_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		selected_color TEXT NOT NULL DEFAULT '',
		selected_size TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL,
		FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE,
		UNIQUE(cart_id, product_id),
		CHECK(quantity >= 1)
	);

	-- Orders
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		customer_id TEXT,
		customer_name TEXT NOT NULL,
		customer_phone TEXT NOT NULL,
		order_type TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		cancellation_reason TEXT NOT NULL DEFAULT '',
		verified_at TEXT,
		cancelled_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK(status IN ('pending', 'verified', 'cancelled', 'completed')),
		CHECK(order_type IN ('registered', 'guest'))
	);

	-- Order line items: snapshot written once at order creation
	CREATE TABLE IF NOT EXISTS order_items (
		order_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		image_url TEXT,
		image_public_id TEXT,
		selected_color TEXT NOT NULL DEFAULT '',
		selected_size TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL,
		subtotal TEXT NOT NULL,
		PRIMARY KEY (order_id, position),
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
		CHECK(quantity >= 1)
	);

	-- Indexes for performance
	CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_active_customer ON carts(customer_id) WHERE status = 'active';
	CREATE INDEX IF NOT EXISTS idx_catalog_items_category ON catalog_items(category);
	CREATE INDEX IF NOT EXISTS idx_cart_items_cart_id ON cart_items(cart_id);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id);
	CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
	`

	_, err := d.db.Exec(schema)
	return err
}

// WithinUnit runs fn in one transaction. The transaction is rolled back when
// fn returns an error or panics, and committed otherwise.
func (d *DB) WithinUnit(ctx context.Context, fn func(ctx context.Context, unit repository.Unit) error) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				d.logger.Error("Failed to roll back transaction after panic", zap.Error(rbErr))
			}
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				d.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
			}
			d.logger.Debug("Transaction rolled back", zap.Error(err))
			return
		}
		if cmErr := tx.Commit(); cmErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cmErr)
		}
	}()

	return fn(ctx, newStores(tx))
}

// Ping checks the database connection
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// isCheckViolation reports whether err is a CHECK constraint failure
func isCheckViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck
	}
	return false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	if t, err := time.Parse(timeLayout, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

func parseNullTime(value sql.NullString) *time.Time {
	if !value.Valid || value.String == "" {
		return nil
	}
	t := parseTime(value.String)
	return &t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

// notFoundOr maps sql.ErrNoRows onto a domain error
func notFoundOr(err error, notFound *domain.DomainError, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
