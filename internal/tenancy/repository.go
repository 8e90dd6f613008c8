package tenancy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrTenantNotFound indicates no tenant is registered for the lookup key.
var ErrTenantNotFound = errors.New("tenancy: tenant not found")

// Querier is the subset of pgx used by repository methods. Both a pool and
// an open transaction satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxPool adds transaction support on top of Querier.
type PgxPool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository persists tenants in Postgres.
type Repository struct {
	pool PgxPool
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool PgxPool) *Repository {
	if pool == nil {
		panic("tenancy: pgx pool required")
	}
	return &Repository{pool: pool}
}

// Begin opens a transaction for callers that need to scope several writes
// (conversation commit + booking insert) to one atomic operation.
func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const tenantColumns = `
	id, name, industry, address, business_hours, whatsapp_number,
	admin_email, admin_password_hash, flow_state, plan, is_active,
	trial_ends_at, paid_until, chat_used, chat_limit, created_at, updated_at
`

// Create inserts a new tenant row.
func (r *Repository) Create(ctx context.Context, t *Tenant) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.ChatLimit == 0 {
		t.ChatLimit = t.Plan.ChatLimit()
	}
	query := `
		INSERT INTO tenants (
			id, name, industry, address, business_hours, whatsapp_number,
			admin_email, admin_password_hash, flow_state, plan, is_active,
			trial_ends_at, paid_until, chat_used, chat_limit
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`
	_, err := r.pool.Exec(ctx, query,
		t.ID, t.Name, string(t.Industry), t.Address, t.BusinessHours,
		t.WhatsAppNumber, t.AdminEmail, t.AdminPasswordHash, t.FlowState,
		string(t.Plan), t.IsActive, t.TrialEndsAt, t.PaidUntil, t.ChatUsed,
		t.ChatLimit,
	)
	if err != nil {
		return fmt.Errorf("tenancy: insert tenant: %w", err)
	}
	return nil
}

// GetByID loads a tenant by primary key.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

// GetByAdminEmail loads the tenant owning a dashboard login email.
func (r *Repository) GetByAdminEmail(ctx context.Context, email string) (*Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE admin_email = $1`, email)
	return scanTenant(row)
}

// GetByWhatsAppNumber loads the tenant registered for a WhatsApp number.
func (r *Repository) GetByWhatsAppNumber(ctx context.Context, number string) (*Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE whatsapp_number = $1`, number)
	return scanTenant(row)
}

// GetByWhatsAppNumberForUpdate loads the tenant with a row lock inside q's
// transaction. The lock serializes concurrent messages for the same tenant
// so conversation state is read-then-written in arrival order.
func (r *Repository) GetByWhatsAppNumberForUpdate(ctx context.Context, q Querier, number string) (*Tenant, error) {
	if q == nil {
		q = r.pool
	}
	row := q.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE whatsapp_number = $1 FOR UPDATE`, number)
	return scanTenant(row)
}

// CommitConversation durably records the tenant's new conversation state
// and usage counter. Runs inside the caller's transaction when q is one.
func (r *Repository) CommitConversation(ctx context.Context, q Querier, id uuid.UUID, flowState string, chatUsed int) error {
	if q == nil {
		q = r.pool
	}
	tag, err := q.Exec(ctx, `
		UPDATE tenants
		SET flow_state = $2, chat_used = $3, updated_at = now()
		WHERE id = $1
	`, id, flowState, chatUsed)
	if err != nil {
		return fmt.Errorf("tenancy: commit conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// SetActive soft-enables or soft-disables a tenant.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tenants SET is_active = $2, updated_at = now() WHERE id = $1
	`, id, active)
	if err != nil {
		return fmt.Errorf("tenancy: set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// ActivatePlan switches the tenant to a paid plan after a verified payment.
// Usage resets with the new cycle.
func (r *Repository) ActivatePlan(ctx context.Context, q Querier, id uuid.UUID, plan Plan, paidUntil time.Time) error {
	if q == nil {
		q = r.pool
	}
	tag, err := q.Exec(ctx, `
		UPDATE tenants
		SET plan = $2, chat_limit = $3, chat_used = 0, paid_until = $4,
			is_active = TRUE, updated_at = now()
		WHERE id = $1
	`, id, string(plan), plan.ChatLimit(), paidUntil)
	if err != nil {
		return fmt.Errorf("tenancy: activate plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// List returns all tenants ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context) ([]Tenant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("tenancy: list tenants: %w", err)
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tenancy: list tenants: %w", err)
	}
	return out, nil
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var (
		t        Tenant
		industry string
		plan     string
	)
	err := row.Scan(
		&t.ID, &t.Name, &industry, &t.Address, &t.BusinessHours,
		&t.WhatsAppNumber, &t.AdminEmail, &t.AdminPasswordHash, &t.FlowState,
		&plan, &t.IsActive, &t.TrialEndsAt, &t.PaidUntil, &t.ChatUsed,
		&t.ChatLimit, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("tenancy: scan tenant: %w", err)
	}
	t.Industry = ParseIndustry(industry)
	t.Plan = ParsePlan(plan)
	return &t, nil
}
