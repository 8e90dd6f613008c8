package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrBookingNotFound indicates the booking does not exist.
	ErrBookingNotFound = errors.New("bookings: booking not found")
	// ErrInvalidTransition indicates a disallowed status change.
	ErrInvalidTransition = errors.New("bookings: invalid status transition")
)

// Querier is the subset of pgx used by repository methods. Both a pool and
// an open transaction satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists bookings in Postgres.
type Repository struct {
	pool Querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool Querier) *Repository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Repository{pool: pool}
}

const bookingColumns = `
	id, tenant_id, customer_phone, customer_name, booking_date,
	booking_time, status, source, reminder_day_sent, reminder_hour_sent,
	created_at, updated_at
`

// Create inserts a booking row. Runs inside the caller's transaction when q
// is one, so booking creation commits atomically with the conversation
// state change.
func (r *Repository) Create(ctx context.Context, q Querier, b *Booking) error {
	if q == nil {
		q = r.pool
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = StatusPending
	}
	if b.Source == "" {
		b.Source = SourceWhatsApp
	}
	query := `
		INSERT INTO bookings (
			id, tenant_id, customer_phone, customer_name, booking_date,
			booking_time, status, source
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	_, err := q.Exec(ctx, query,
		b.ID, b.TenantID, b.CustomerPhone, b.CustomerName, b.Date, b.Time,
		string(b.Status), b.Source,
	)
	if err != nil {
		return fmt.Errorf("bookings: insert booking: %w", err)
	}
	return nil
}

// PendingSlotExists reports whether the tenant already holds a pending
// booking for the exact date+time slot.
func (r *Repository) PendingSlotExists(ctx context.Context, q Querier, tenantID uuid.UUID, date, timeOfDay string) (bool, error) {
	if q == nil {
		q = r.pool
	}
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE tenant_id = $1 AND booking_date = $2 AND booking_time = $3
				AND status = 'pending'
		)
	`, tenantID, date, timeOfDay).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("bookings: check slot: %w", err)
	}
	return exists, nil
}

// GetByID loads one booking.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanBooking(row)
}

// UpdateStatus applies a status change after checking the transition is
// allowed against the currently stored status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (*Booking, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+bookingColumns, id, string(next))
	return scanBooking(row)
}

// ListForTenant returns the tenant's bookings, newest first.
func (r *Repository) ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("bookings: list for tenant: %w", err)
	}
	return collectBookings(rows)
}

// ListPendingUnreminded returns pending bookings that still owe at least
// one reminder. Start-time windows are computed by the caller because
// date/time are stored in their user-facing string forms.
func (r *Repository) ListPendingUnreminded(ctx context.Context) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE status = 'pending'
			AND (reminder_day_sent = FALSE OR reminder_hour_sent = FALSE)
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("bookings: list unreminded: %w", err)
	}
	return collectBookings(rows)
}

// MarkReminded records which reminder windows have fired for the booking.
func (r *Repository) MarkReminded(ctx context.Context, id uuid.UUID, daySent, hourSent bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET reminder_day_sent = reminder_day_sent OR $2,
			reminder_hour_sent = reminder_hour_sent OR $3,
			updated_at = now()
		WHERE id = $1
	`, id, daySent, hourSent)
	if err != nil {
		return fmt.Errorf("bookings: mark reminded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// CountByStatus returns per-status booking counts for a tenant.
func (r *Repository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[Status]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM bookings
		WHERE tenant_id = $1
		GROUP BY status
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("bookings: count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("bookings: count by status: %w", err)
		}
		counts[ParseStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: count by status: %w", err)
	}
	return counts, nil
}

// CountCreatedSince returns how many bookings the tenant received at or
// after the cutoff.
func (r *Repository) CountCreatedSince(ctx context.Context, tenantID uuid.UUID, cutoff string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE tenant_id = $1 AND created_at >= $2::timestamptz
	`, tenantID, cutoff).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("bookings: count created since: %w", err)
	}
	return n, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b      Booking
		status string
	)
	err := row.Scan(
		&b.ID, &b.TenantID, &b.CustomerPhone, &b.CustomerName, &b.Date,
		&b.Time, &status, &b.Source, &b.ReminderDaySent, &b.ReminderHourSent,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: scan booking: %w", err)
	}
	b.Status = ParseStatus(status)
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	defer rows.Close()
	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate rows: %w", err)
	}
	return out, nil
}
