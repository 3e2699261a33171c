package paystack

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Webhook events the platform reacts to. Anything else is rejected.
const (
	EventChargeSuccess   = "charge.success"
	EventChargeFailed    = "charge.failed"
	EventTransferSuccess = "transfer.success"
	EventTransferFailed  = "transfer.failed"
)

// SignatureHeader carries the HMAC of the raw webhook body.
const SignatureHeader = "x-paystack-signature"

var allowedEvents = map[string]bool{
	EventChargeSuccess:   true,
	EventChargeFailed:    true,
	EventTransferSuccess: true,
	EventTransferFailed:  true,
}

// IsValidEvent reports whether the event name is on the allow-list.
func IsValidEvent(event string) bool {
	return allowedEvents[event]
}

// WebhookData is the vendor-defined callback payload.
type WebhookData struct {
	Event string      `json:"event"`
	Data  WebhookBody `json:"data"`
}

// WebhookBody is the nested data object of a webhook event. Amount is
// in kobo, the minor unit of NGN, which the platform treats as equal to
// its own cents.
type WebhookBody struct {
	Reference       string          `json:"reference"`
	Amount          int64           `json:"amount"`
	Status          string          `json:"status"`
	GatewayResponse string          `json:"gateway_response"`
	PaidAt          string          `json:"paid_at"`
	Channel         string          `json:"channel"`
	Currency        string          `json:"currency"`
	Customer        WebhookCustomer `json:"customer"`
}

// WebhookCustomer identifies the payer.
type WebhookCustomer struct {
	Email        string `json:"email"`
	CustomerCode string `json:"customer_code"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone"`
}

// ParseWebhook decodes a raw webhook body.
func ParseWebhook(body []byte) (*WebhookData, error) {
	var data WebhookData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("paystack: cannot parse webhook body: %w", err)
	}
	return &data, nil
}

// VerifySignature checks the HMAC-SHA512 hex digest of the raw body
// against the signature header value.
func VerifySignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

const referenceAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateReference produces a payment reference for an order. The
// format is GIG_<orderID>_<unix millis>_<random token>, upper-cased.
// Uniqueness rests on the timestamp plus the random token.
func GenerateReference(orderID string) string {
	ref := fmt.Sprintf("GIG_%s_%d_%s", orderID, time.Now().UnixMilli(), randomToken(13))
	return strings.ToUpper(ref)
}

// randomToken returns n random base36 characters.
func randomToken(n int) string {
	var sb strings.Builder
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is
			// broken; fall back to a timestamp-derived character.
			idx = big.NewInt(time.Now().UnixNano() % int64(len(referenceAlphabet)))
		}
		sb.WriteByte(referenceAlphabet[idx.Int64()])
	}
	return sb.String()
}

// AccountDetails are the static bank-transfer instructions returned by
// payment initiation.
type AccountDetails struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	Instructions  string `json:"instructions"`
}

// NewAccountDetails builds the manual-transfer instructions from config.
func NewAccountDetails(accountNumber, accountName string) AccountDetails {
	return AccountDetails{
		BankName:      "Paystack",
		AccountNumber: accountNumber,
		AccountName:   accountName,
		Instructions:  "Please include your order reference in the transfer description",
	}
}
