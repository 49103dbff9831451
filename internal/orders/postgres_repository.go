package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
	_ "github.com/lib/pq"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
)

// PostgresRepository implements OrderRepository and EventSource on postgres.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(cred *Credentials) (*PostgresRepository, error) {
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
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
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

// CreateOrder inserts the order header, every line and the order.created
// outbox event in one transaction. A header is never committed without its
// lines.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const insertOrder = `INSERT INTO orders
		(id, order_number, seller_id, customer_name, customer_phone, delivery_address,
		 payment_method_id, total_minor, currency, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())`

	_, insertErr := tx.ExecContext(ctx, insertOrder,
		order.ID,
		order.OrderNumber,
		order.SellerID,
		order.CustomerName,
		order.CustomerPhone,
		order.DeliveryAddress,
		order.PaymentMethodID,
		order.TotalMinor,
		order.Currency,
		order.Notes,
		order.Status)
	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrderNumber
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}

	const insertLine = `INSERT INTO order_items
		(order_id, catalog_item_id, name, unit_price_minor, quantity, subtotal_minor)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, line := range order.Lines {
		if _, err := tx.ExecContext(ctx, insertLine,
			order.ID,
			line.CatalogItemID,
			line.Name,
			line.UnitPriceMinor,
			line.Quantity,
			line.SubtotalMinor,
		); err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err := insertOutboxEvent(ctx, tx, order.ID, EventOrderCreated, order); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	const query = `SELECT id, order_number, seller_id, customer_name, customer_phone,
		delivery_address, payment_method_id, total_minor, currency, notes, status,
		created_at, updated_at
		FROM orders WHERE id = $1`

	var order domain.Order
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.SellerID,
		&order.CustomerName,
		&order.CustomerPhone,
		&order.DeliveryAddress,
		&order.PaymentMethodID,
		&order.TotalMinor,
		&order.Currency,
		&order.Notes,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	if order.Lines, err = r.loadLines(ctx, order.ID); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *PostgresRepository) ListOrdersBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	const query = `SELECT id, order_number, seller_id, customer_name, customer_phone,
		delivery_address, payment_method_id, total_minor, currency, notes, status,
		created_at, updated_at
		FROM orders WHERE seller_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("query orders by seller: %w", err)
	}
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.OrderNumber,
			&order.SellerID,
			&order.CustomerName,
			&order.CustomerPhone,
			&order.DeliveryAddress,
			&order.PaymentMethodID,
			&order.TotalMinor,
			&order.Currency,
			&order.Notes,
			&order.Status,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		out = append(out, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, order := range out {
		if order.Lines, err = r.loadLines(ctx, order.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateStatus moves the order from -> to as a compare-and-set. The WHERE
// clause carries the expected current status, so a caller holding a stale
// read loses the race instead of overwriting the winner.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const update = `UPDATE orders SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`

	result, err := tx.ExecContext(ctx, update, id, from, to)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check order existence: %w", err)
		}
		if !exists {
			return ErrOrderNotFound
		}
		return ErrStatusConflict
	}

	payload := map[string]interface{}{
		"order_id":   id,
		"old_status": from,
		"new_status": to,
	}
	if err := insertOutboxEvent(ctx, tx, id, EventOrderStatusChanged, payload); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}
	return nil
}

func (r *PostgresRepository) loadLines(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error) {
	const query = `SELECT catalog_item_id, name, unit_price_minor, quantity, subtotal_minor
		FROM order_items WHERE order_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.CatalogItemID,
			&line.Name,
			&line.UnitPriceMinor,
			&line.Quantity,
			&line.SubtotalMinor,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	const insert = `INSERT INTO orders_outbox (aggregate_id, event_type, payload)
		VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, insert, orderID.String(), eventType, data); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	const query = `SELECT id, aggregate_id, event_type, payload, created_at
		FROM orders_outbox WHERE processed_at IS NULL ORDER BY id LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (r *PostgresRepository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE orders_outbox SET processed_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
