package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReference_Format(t *testing.T) {
	ref := GenerateReference("abc-123")

	assert.True(t, strings.HasPrefix(ref, "GIG_ABC-123_"))
	assert.Equal(t, ref, strings.ToUpper(ref))

	parts := strings.Split(ref, "_")
	require.Len(t, parts, 4)
	assert.Len(t, parts[3], 13)
}

func TestGenerateReference_Distinct(t *testing.T) {
	a := GenerateReference("order")
	b := GenerateReference("order")
	assert.NotEqual(t, a, b)
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success"}`)
	secret := "whsec_test"

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, VerifySignature(body, signature, secret))
	assert.False(t, VerifySignature(body, signature, "wrong-secret"))
	assert.False(t, VerifySignature(body, "deadbeef", secret))
	assert.False(t, VerifySignature(body, "", secret))
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{
		"event": "charge.success",
		"data": {
			"reference": "GIG_X_1_ABC",
			"amount": 500000,
			"status": "success",
			"channel": "bank_transfer",
			"currency": "NGN",
			"customer": {"email": "payer@example.com"}
		}
	}`)

	data, err := ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, EventChargeSuccess, data.Event)
	assert.Equal(t, "GIG_X_1_ABC", data.Data.Reference)
	assert.Equal(t, int64(500000), data.Data.Amount)
	assert.Equal(t, "payer@example.com", data.Data.Customer.Email)
}

func TestParseWebhook_InvalidJSON(t *testing.T) {
	_, err := ParseWebhook([]byte(`{not json`))
	assert.Error(t, err)
}

func TestIsValidEvent(t *testing.T) {
	assert.True(t, IsValidEvent(EventChargeSuccess))
	assert.True(t, IsValidEvent(EventChargeFailed))
	assert.True(t, IsValidEvent(EventTransferSuccess))
	assert.True(t, IsValidEvent(EventTransferFailed))
	assert.False(t, IsValidEvent("subscription.create"))
	assert.False(t, IsValidEvent(""))
}
