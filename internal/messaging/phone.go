package messaging

import "strings"

// NormalizePhone reduces a WhatsApp sender address to a consistent
// digit-only form with a country-code prefix. The "whatsapp:" scheme and
// any formatting characters are stripped; bare 10-digit numbers are
// assumed domestic and get the default country code prepended.
func NormalizePhone(value, defaultCountryCode string) string {
	value = strings.TrimPrefix(strings.TrimSpace(value), "whatsapp:")
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 && defaultCountryCode != "" {
		return defaultCountryCode + digits
	}
	return digits
}

// WhatsAppAddress renders a normalized number back into the channel
// addressing scheme used for outbound sends.
func WhatsAppAddress(normalized string) string {
	if normalized == "" {
		return ""
	}
	return "whatsapp:+" + normalized
}
