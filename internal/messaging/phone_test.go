package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"whatsapp scheme with plus", "whatsapp:+919876543210", "919876543210"},
		{"bare ten digits gets country code", "9876543210", "919876543210"},
		{"formatted number", "+91 98765-43210", "919876543210"},
		{"already normalized", "919876543210", "919876543210"},
		{"foreign number untouched", "whatsapp:+14155238886", "14155238886"},
		{"whitespace", "  whatsapp:+919876543210  ", "919876543210"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.input, "91"))
		})
	}
}

func TestNormalizePhoneWithoutDefaultCountryCode(t *testing.T) {
	assert.Equal(t, "9876543210", NormalizePhone("9876543210", ""))
}

func TestWhatsAppAddress(t *testing.T) {
	assert.Equal(t, "whatsapp:+919876543210", WhatsAppAddress("919876543210"))
	assert.Equal(t, "", WhatsAppAddress(""))
}
