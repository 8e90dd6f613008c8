package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	// Twilio WhatsApp channel
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioWhatsAppFrom  string
	TwilioWebhookURL    string
	TwilioRetryAttempts int
	TwilioRetryDelay    time.Duration

	// Phone normalization: 10-digit numbers are assumed domestic and get
	// this prefix.
	DefaultCountryCode string

	// Razorpay billing
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string

	// SendGrid email
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SupportEmail      string

	// Redis (webhook dedupe)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Admin API
	AdminJWTSecret string

	// Reminder worker
	ReminderInterval time.Duration
	TenantTimezone   string

	// Rate limiting (requests/sec, burst) for the webhook surface
	WebhookRateLimit float64
	WebhookRateBurst int

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsAppFrom:  getEnv("TWILIO_WHATSAPP_FROM", ""),
		TwilioWebhookURL:    getEnv("TWILIO_WEBHOOK_URL", ""),
		TwilioRetryAttempts: getEnvAsInt("TWILIO_RETRY_ATTEMPTS", 3),
		TwilioRetryDelay:    getEnvAsDuration("TWILIO_RETRY_DELAY", 2*time.Second),

		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "91"),

		RazorpayKeyID:         getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:     getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayWebhookSecret: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "noreply@bizflowai.online"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "BizFlow AI"),
		SupportEmail:      getEnv("SUPPORT_EMAIL", "support@bizflowai.online"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		ReminderInterval: getEnvAsDuration("REMINDER_INTERVAL", 5*time.Minute),
		TenantTimezone:   getEnv("TENANT_TIMEZONE", "Asia/Kolkata"),

		WebhookRateLimit: getEnvAsFloat("WEBHOOK_RATE_LIMIT", 2),
		WebhookRateBurst: getEnvAsInt("WEBHOOK_RATE_BURST", 10),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
