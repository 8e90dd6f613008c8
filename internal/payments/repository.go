package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrPaymentNotFound indicates the payment does not exist.
var ErrPaymentNotFound = errors.New("payments: payment not found")

// Payment is one gateway transaction for a tenant's subscription.
type Payment struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	OrderID     string
	PaymentID   string
	Signature   string
	AmountPaise int64
	Currency    string
	Status      string // created, captured, failed
	Plan        string
	Method      string
	CreatedAt   time.Time
}

// Querier is the subset of pgx used by repository methods.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists payments in Postgres.
type Repository struct {
	pool Querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool Querier) *Repository {
	if pool == nil {
		panic("payments: pgx pool required")
	}
	return &Repository{pool: pool}
}

const paymentColumns = `
	id, tenant_id, order_id, payment_id, signature, amount_paise,
	currency, status, plan, method, created_at
`

// CreatePending records a freshly opened order.
func (r *Repository) CreatePending(ctx context.Context, p *Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Currency == "" {
		p.Currency = "INR"
	}
	if p.Status == "" {
		p.Status = "created"
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payments (
			id, tenant_id, order_id, payment_id, signature, amount_paise,
			currency, status, plan, method
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, p.ID, p.TenantID, p.OrderID, p.PaymentID, p.Signature, p.AmountPaise,
		p.Currency, p.Status, p.Plan, p.Method)
	if err != nil {
		return fmt.Errorf("payments: insert payment: %w", err)
	}
	return nil
}

// GetByOrderID loads the payment opened for a gateway order.
func (r *Repository) GetByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID)
	return scanPayment(row)
}

// MarkCaptured records the gateway payment id, method and signature for a
// captured order.
func (r *Repository) MarkCaptured(ctx context.Context, orderID, paymentID, method, signature string) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE payments
		SET payment_id = $2, method = $3, signature = $4, status = 'captured'
		WHERE order_id = $1
		RETURNING `+paymentColumns, orderID, paymentID, method, signature)
	return scanPayment(row)
}

// MarkFailed records a failed order.
func (r *Repository) MarkFailed(ctx context.Context, orderID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = 'failed' WHERE order_id = $1
	`, orderID)
	if err != nil {
		return fmt.Errorf("payments: mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.TenantID, &p.OrderID, &p.PaymentID, &p.Signature,
		&p.AmountPaise, &p.Currency, &p.Status, &p.Plan, &p.Method,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payments: scan payment: %w", err)
	}
	return &p, nil
}
