package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signWebhookPayload(secret, svixID, svixTimestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%s.%s.%s", svixID, svixTimestamp, string(body))))
	return "v1," + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature_Valid(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")

	body := []byte(`{"type":"user.created","data":{"id":"user_abc"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", strings.NewReader(string(body)))
	req.Header.Set("svix-id", "msg_123")
	req.Header.Set("svix-timestamp", "1700000000")
	req.Header.Set("svix-signature", signWebhookPayload("whsec_test", "msg_123", "1700000000", body))

	assert.True(t, verifyWebhookSignature(req, body))
}

func TestVerifyWebhookSignature_WrongSecret(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")

	body := []byte(`{"type":"user.created"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", strings.NewReader(string(body)))
	req.Header.Set("svix-id", "msg_123")
	req.Header.Set("svix-timestamp", "1700000000")
	req.Header.Set("svix-signature", signWebhookPayload("whsec_other", "msg_123", "1700000000", body))

	assert.False(t, verifyWebhookSignature(req, body))
}

func TestVerifyWebhookSignature_MissingHeaders(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")

	body := []byte(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", strings.NewReader(string(body)))

	assert.False(t, verifyWebhookSignature(req, body))
}

func TestVerifyWebhookSignature_TamperedBody(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")

	body := []byte(`{"type":"user.created"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", strings.NewReader(string(body)))
	req.Header.Set("svix-id", "msg_123")
	req.Header.Set("svix-timestamp", "1700000000")
	req.Header.Set("svix-signature", signWebhookPayload("whsec_test", "msg_123", "1700000000", body))

	tampered := []byte(`{"type":"user.deleted"}`)
	assert.False(t, verifyWebhookSignature(req, tampered))
}
