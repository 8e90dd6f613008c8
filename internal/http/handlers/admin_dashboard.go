package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bizflowhq/bizflow-platform/internal/bookings"
	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
	"github.com/bizflowhq/bizflow-platform/pkg/logging"
)

// AdminDashboardHandler serves the tenant-facing dashboard API. Every
// endpoint is scoped to the tenant carried by the request's JWT.
type AdminDashboardHandler struct {
	tenants  *tenancy.Repository
	bookings *bookings.Repository
	service  *bookings.Service
	logger   *logging.Logger
}

// NewAdminDashboardHandler creates a new admin dashboard handler.
func NewAdminDashboardHandler(tenants *tenancy.Repository, repo *bookings.Repository, service *bookings.Service, logger *logging.Logger) *AdminDashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminDashboardHandler{
		tenants:  tenants,
		bookings: repo,
		service:  service,
		logger:   logger,
	}
}

// DashboardOverviewResponse contains the main dashboard metrics.
type DashboardOverviewResponse struct {
	TenantID       string         `json:"tenant_id"`
	BusinessName   string         `json:"business_name"`
	Plan           string         `json:"plan"`
	Bookings       BookingMetrics `json:"bookings"`
	Usage          UsageMetrics   `json:"usage"`
	ConversionRate float64        `json:"conversion_rate"`
}

// BookingMetrics breaks down bookings by lifecycle status.
type BookingMetrics struct {
	Pending      int64 `json:"pending"`
	Cancelled    int64 `json:"cancelled"`
	Completed    int64 `json:"completed"`
	NoShow       int64 `json:"no_show"`
	CreatedToday int64 `json:"created_today"`
	Upcoming     int64 `json:"upcoming"`
}

// UsageMetrics reports chat allowance consumption for the billing cycle.
type UsageMetrics struct {
	ChatUsed  int `json:"chat_used"`
	ChatLimit int `json:"chat_limit"`
}

// Overview returns the dashboard summary for the authenticated tenant.
func (h *AdminDashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.authedTenant(w, r)
	if !ok {
		return
	}

	counts, err := h.bookings.CountByStatus(r.Context(), tenant.ID)
	if err != nil {
		h.logger.Error("dashboard counts failed", "error", err, "tenant_id", tenant.ID)
		http.Error(w, "failed to load metrics", http.StatusInternalServerError)
		return
	}
	midnight := time.Now().UTC().Truncate(24 * time.Hour).Format(time.RFC3339)
	createdToday, err := h.bookings.CountCreatedSince(r.Context(), tenant.ID, midnight)
	if err != nil {
		h.logger.Error("dashboard today count failed", "error", err, "tenant_id", tenant.ID)
		http.Error(w, "failed to load metrics", http.StatusInternalServerError)
		return
	}

	metrics := BookingMetrics{
		Pending:      counts[bookings.StatusPending],
		Cancelled:    counts[bookings.StatusCancelled],
		Completed:    counts[bookings.StatusCompleted],
		NoShow:       counts[bookings.StatusNoShow],
		CreatedToday: createdToday,
		Upcoming:     counts[bookings.StatusPending],
	}
	var conversion float64
	if tenant.ChatUsed > 0 {
		total := metrics.Pending + metrics.Completed
		conversion = float64(total) / float64(tenant.ChatUsed) * 100
	}

	writeJSON(w, http.StatusOK, DashboardOverviewResponse{
		TenantID:       tenant.ID.String(),
		BusinessName:   tenant.Name,
		Plan:           string(tenant.Plan),
		Bookings:       metrics,
		Usage:          UsageMetrics{ChatUsed: tenant.ChatUsed, ChatLimit: tenant.ChatLimit},
		ConversionRate: conversion,
	})
}

type bookingItem struct {
	ID            string `json:"id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	Source        string `json:"source"`
	CreatedAt     string `json:"created_at"`
}

// ListBookings returns the tenant's bookings, newest first.
func (h *AdminDashboardHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.authedTenant(w, r)
	if !ok {
		return
	}
	list, err := h.bookings.ListForTenant(r.Context(), tenant.ID)
	if err != nil {
		h.logger.Error("list bookings failed", "error", err, "tenant_id", tenant.ID)
		http.Error(w, "failed to load bookings", http.StatusInternalServerError)
		return
	}
	items := make([]bookingItem, 0, len(list))
	for i := range list {
		items = append(items, toBookingItem(&list[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": items})
}

// CancelBooking cancels one of the tenant's pending bookings.
func (h *AdminDashboardHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.authedTenant(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return
	}
	existing, err := h.bookings.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "booking not found", http.StatusNotFound)
		return
	}
	if existing.TenantID != tenant.ID {
		// Do not leak whether the id exists for another tenant.
		http.Error(w, "booking not found", http.StatusNotFound)
		return
	}
	updated, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		if errors.Is(err, bookings.ErrInvalidTransition) {
			http.Error(w, "booking is not pending", http.StatusConflict)
			return
		}
		h.logger.Error("cancel booking failed", "error", err, "booking_id", id)
		http.Error(w, "failed to cancel booking", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toBookingItem(updated))
}

// ExportBookingsCSV streams the tenant's bookings as a CSV download.
func (h *AdminDashboardHandler) ExportBookingsCSV(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.authedTenant(w, r)
	if !ok {
		return
	}
	list, err := h.bookings.ListForTenant(r.Context(), tenant.ID)
	if err != nil {
		h.logger.Error("export bookings failed", "error", err, "tenant_id", tenant.ID)
		http.Error(w, "failed to load bookings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "bookings.csv"))
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "customer_name", "customer_phone", "date", "time", "status", "source", "created_at"})
	for i := range list {
		b := &list[i]
		_ = cw.Write([]string{
			b.ID.String(), b.CustomerName, b.CustomerPhone, b.Date, b.Time,
			string(b.Status), b.Source, b.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
}

func (h *AdminDashboardHandler) authedTenant(w http.ResponseWriter, r *http.Request) (*tenancy.Tenant, bool) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant context", http.StatusUnauthorized)
		return nil, false
	}
	id, err := uuid.Parse(tenantID)
	if err != nil {
		http.Error(w, "invalid tenant id", http.StatusUnauthorized)
		return nil, false
	}
	tenant, err := h.tenants.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "tenant not found", http.StatusNotFound)
		return nil, false
	}
	return tenant, true
}

func toBookingItem(b *bookings.Booking) bookingItem {
	return bookingItem{
		ID:            b.ID.String(),
		CustomerName:  b.CustomerName,
		CustomerPhone: b.CustomerPhone,
		Date:          b.Date,
		Time:          b.Time,
		Status:        string(b.Status),
		Source:        b.Source,
		CreatedAt:     b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
