package messaging

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookURL = "https://example.com/webhook/whatsapp"

func signedRequest(t *testing.T, authToken string, form url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	payload := buildSignaturePayload(testWebhookURL, form)
	req.Header.Set("X-Twilio-Signature", computeSignature(payload, authToken))
	return req
}

func TestValidateTwilioSignature(t *testing.T) {
	form := url.Values{
		"MessageSid": {"SM123"},
		"From":       {"whatsapp:+919876543210"},
		"Body":       {"hi"},
	}

	req := signedRequest(t, "token", form)
	assert.True(t, ValidateTwilioSignature(req, "token", testWebhookURL))
}

func TestValidateTwilioSignatureRejects(t *testing.T) {
	form := url.Values{"Body": {"hi"}}

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		assert.False(t, ValidateTwilioSignature(req, "token", testWebhookURL))
	})

	t.Run("wrong token", func(t *testing.T) {
		req := signedRequest(t, "other-token", form)
		assert.False(t, ValidateTwilioSignature(req, "token", testWebhookURL))
	})

	t.Run("tampered body", func(t *testing.T) {
		req := signedRequest(t, "token", form)
		tampered := url.Values{"Body": {"transfer money"}}
		req.Body = httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(tampered.Encode())).Body
		assert.False(t, ValidateTwilioSignature(req, "token", testWebhookURL))
	})
}

func TestBuildSignaturePayloadSortsKeys(t *testing.T) {
	form := url.Values{
		"Zebra": {"z"},
		"Alpha": {"a"},
		"Mid":   {"m"},
	}
	payload := buildSignaturePayload("https://example.com/hook", form)
	assert.Equal(t, "https://example.com/hookAlphaaMidmZebraz", payload)
}

func TestParseInbound(t *testing.T) {
	form := url.Values{
		"MessageSid": {"SM123"},
		"AccountSid": {"AC456"},
		"From":       {"whatsapp:+919876543210"},
		"To":         {"whatsapp:+14155238886"},
		"Body":       {"1"},
	}
	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	inbound, err := ParseInbound(req)
	require.NoError(t, err)
	assert.Equal(t, "SM123", inbound.MessageSid)
	assert.Equal(t, "whatsapp:+919876543210", inbound.From)
	assert.Equal(t, "whatsapp:+14155238886", inbound.To)
	assert.Equal(t, "1", inbound.Body)
}

func TestWriteTwiML(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteTwiML(rec, http.StatusOK, "hello there")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<Response><Message>hello there</Message></Response>")
}

func TestWriteTwiMLEmptyMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteTwiML(rec, http.StatusOK, "")
	assert.Contains(t, rec.Body.String(), "<Response></Response>")
}
