package bookings

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bizflowhq/bizflow-platform/pkg/logging"
)

var bookingsTracer = otel.Tracer("bizflow.internal.bookings")

// Service wraps the repository with logging and tracing for booking
// lifecycle operations that happen outside the conversation transaction.
type Service struct {
	repo   *Repository
	logger *logging.Logger
}

// NewService constructs a bookings service.
func NewService(repo *Repository, logger *logging.Logger) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Cancel moves a pending booking to cancelled.
func (s *Service) Cancel(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("bizflow.booking_id", bookingID.String()))

	row, err := s.repo.UpdateStatus(ctx, bookingID, StatusCancelled)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("booking cancelled", "booking_id", bookingID, "tenant_id", row.TenantID)
	return row, nil
}

// Complete marks a pending booking completed.
func (s *Service) Complete(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.complete")
	defer span.End()
	span.SetAttributes(attribute.String("bizflow.booking_id", bookingID.String()))

	row, err := s.repo.UpdateStatus(ctx, bookingID, StatusCompleted)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("booking completed", "booking_id", bookingID, "tenant_id", row.TenantID)
	return row, nil
}

// MarkNoShow marks a pending booking as a no-show.
func (s *Service) MarkNoShow(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.no_show")
	defer span.End()
	span.SetAttributes(attribute.String("bizflow.booking_id", bookingID.String()))

	row, err := s.repo.UpdateStatus(ctx, bookingID, StatusNoShow)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("booking marked no-show", "booking_id", bookingID, "tenant_id", row.TenantID)
	return row, nil
}
