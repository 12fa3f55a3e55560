package payments

import (
	"fmt"
	"time"
)

// Kind distinguishes payment-initiation sessions from account-access sessions.
type Kind string

const (
	KindPayment Kind = "payment"
	KindAccess  Kind = "access"
)

// Local lifecycle states. A status query may overwrite these verbatim with
// whatever status string the upstream reports; the upstream is authoritative
// once consulted, so callers must not assume monotonic transitions between
// polls.
const (
	StatusPending    = "pending"
	StatusAuthorized = "authorized"
	StatusFailed     = "failed"
)

// Correlation token prefixes. The token travels to the bank as the `state`
// parameter and comes back on the redirect, so the prefix is what lets the
// callback handler tell payment sessions from access sessions.
const (
	TokenPrefixPayment = "payment_"
	TokenPrefixAccess  = "access_"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Session tracks a single bank flow from creation through redirect to
// authorization or failure. Creditor details are set at creation and never
// mutated afterwards; only Status and AuthCode change over the lifecycle.
type Session struct {
	ID                string    `json:"id"`
	Kind              Kind      `json:"kind"`
	Status            string    `json:"status"`
	Amount            string    `json:"amount,omitempty"`
	Currency          string    `json:"currency,omitempty"`
	CreditorIBAN      string    `json:"creditorIban,omitempty"`
	CreditorName      string    `json:"creditorName,omitempty"`
	Reference         string    `json:"reference,omitempty"`
	BankName          string    `json:"bankName,omitempty"`
	BankCountry       string    `json:"bankCountry,omitempty"`
	AuthCode          string    `json:"authCode,omitempty"`
	CorrelationToken  string    `json:"correlationToken,omitempty"`
	UpstreamSessionID string    `json:"upstreamSessionId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// newCorrelationToken builds an opaque, type-prefixed token unique per session.
// A time-based suffix is sufficient at single-process, low-volume scale.
func newCorrelationToken(kind Kind) string {
	prefix := TokenPrefixPayment
	if kind == KindAccess {
		prefix = TokenPrefixAccess
	}
	return fmt.Sprintf("%s%d", prefix, NowTimeFunc().UnixNano())
}
