// Package tenancy holds the tenant (business) model and its persistence.
package tenancy

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Industry is the closed set of business categories a tenant can register
// as. It selects the menu and services copy shown to WhatsApp customers.
type Industry string

const (
	IndustryGym        Industry = "gym"
	IndustrySalon      Industry = "salon"
	IndustryRestaurant Industry = "restaurant"
	IndustryClinic     Industry = "clinic"
	IndustryRealEstate Industry = "realestate"
	IndustryOther      Industry = "other"
)

// ParseIndustry maps a stored category string to a known Industry,
// defaulting to IndustryOther for anything unrecognized.
func ParseIndustry(value string) Industry {
	switch Industry(strings.ToLower(strings.TrimSpace(value))) {
	case IndustryGym:
		return IndustryGym
	case IndustrySalon:
		return IndustrySalon
	case IndustryRestaurant:
		return IndustryRestaurant
	case IndustryClinic:
		return IndustryClinic
	case IndustryRealEstate:
		return IndustryRealEstate
	default:
		return IndustryOther
	}
}

// Plan is a subscription tier. The tier caps how many WhatsApp chats the
// tenant's assistant may handle per billing cycle.
type Plan string

const (
	PlanTrial   Plan = "trial"
	PlanStarter Plan = "starter"
	PlanPro     Plan = "pro"
)

// ChatLimit returns the monthly chat allowance for the plan.
func (p Plan) ChatLimit() int {
	switch p {
	case PlanStarter:
		return 1000
	case PlanPro:
		return 5000
	default:
		return 100
	}
}

// ParsePlan maps a stored plan string to a known Plan, defaulting to trial.
func ParsePlan(value string) Plan {
	switch Plan(strings.ToLower(strings.TrimSpace(value))) {
	case PlanStarter:
		return PlanStarter
	case PlanPro:
		return PlanPro
	default:
		return PlanTrial
	}
}

// Tenant is one subscribing business. Exactly one tenant exists per
// WhatsApp number; tenants are soft-disabled, never hard-deleted.
type Tenant struct {
	ID             uuid.UUID
	Name           string
	Industry       Industry
	Address        string
	BusinessHours  string
	WhatsAppNumber string
	AdminEmail     string

	// AdminPasswordHash is the bcrypt hash used for dashboard login. Empty
	// means the tenant has no dashboard access yet.
	AdminPasswordHash string

	// FlowState is the persisted conversation state. It is stored as the
	// raw string and interpreted by the conversation engine.
	FlowState string

	Plan        Plan
	IsActive    bool
	TrialEndsAt *time.Time
	PaidUntil   *time.Time

	ChatUsed  int
	ChatLimit int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OverLimit reports whether the tenant has exhausted its chat allowance.
func (t *Tenant) OverLimit() bool {
	return t.ChatUsed >= t.ChatLimit
}
