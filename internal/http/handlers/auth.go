package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bizflowhq/bizflow-platform/internal/http/middleware"
	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
	"github.com/bizflowhq/bizflow-platform/pkg/logging"
)

// AuthHandler exchanges dashboard credentials for a JWT.
type AuthHandler struct {
	tenants  *tenancy.Repository
	secret   string
	tokenTTL time.Duration
	logger   *logging.Logger
}

// NewAuthHandler creates an auth handler. A zero ttl defaults to 24 hours.
func NewAuthHandler(tenants *tenancy.Repository, secret string, ttl time.Duration, logger *logging.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthHandler{tenants: tenants, secret: secret, tokenTTL: ttl, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TenantID  string `json:"tenant_id"`
	ExpiresIn int64  `json:"expires_in"`
}

// Login verifies the tenant's admin credentials and returns a bearer token.
// Wrong email and wrong password produce the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	tenant, err := h.tenants.GetByAdminEmail(r.Context(), email)
	if err != nil || tenant.AdminPasswordHash == "" {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(tenant.AdminPasswordHash), []byte(req.Password)); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := middleware.IssueAdminToken(h.secret, tenant.ID.String(), h.tokenTTL)
	if err != nil {
		h.logger.Error("issue admin token failed", "error", err, "tenant_id", tenant.ID)
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	h.logger.Info("dashboard login", "tenant_id", tenant.ID)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		TenantID:  tenant.ID.String(),
		ExpiresIn: int64(h.tokenTTL.Seconds()),
	})
}
