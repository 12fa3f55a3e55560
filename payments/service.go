package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// SettlementCurrency is the fixed currency for all initiated payments.
const SettlementCurrency = "EUR"

// DefaultReference is the remittance text used when the caller omits one.
const DefaultReference = "Payment"

// accessValidityDays is the account-access consent window requested from the
// bank, expressed upstream as a calendar date.
const accessValidityDays = 90

// Caller issues authenticated calls to the open-banking API. Satisfied by
// *upstream.Client; tests substitute a recording fake.
type Caller interface {
	Call(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// Service is the payment orchestrator. It coordinates session creation,
// status reconciliation, and callback ingestion against the session repo.
// The repo lock is never held across an upstream call: a session is read,
// the network call made, and the store updated in a second critical section.
// Two concurrent status queries for the same id may each overwrite state
// (last-writer-wins); both derive from the same upstream source of truth.
type Service struct {
	upstream    Caller
	repo        Repo
	validator   *Validator
	redirectURL string
}

// NewService creates the orchestrator. redirectURL is where the bank sends
// the end user back after the authorization step.
func NewService(upstreamClient Caller, repo Repo, redirectURL string) *Service {
	return &Service{
		upstream:    upstreamClient,
		repo:        repo,
		validator:   NewValidator(),
		redirectURL: redirectURL,
	}
}

// PaymentRequest is the broker-side payment creation request. Amount accepts
// both JSON numbers and decimal strings from the frontend.
type PaymentRequest struct {
	Amount       json.Number `json:"amount"`
	CreditorIBAN string      `json:"creditorIban"`
	CreditorName string      `json:"creditorName"`
	Reference    string      `json:"reference,omitempty"`
	BankName     string      `json:"bankName"`
	BankCountry  string      `json:"bankCountry"`
}

// PaymentResult carries everything the frontend needs to continue the flow.
type PaymentResult struct {
	PaymentID string
	AuthURL   string
	Session   Session
}

// AccessRequest starts an account-access (AIS) flow at a chosen bank.
type AccessRequest struct {
	BankName    string `json:"bankName"`
	BankCountry string `json:"bankCountry"`
}

// AccessResult is the redirect target for an account-access flow.
type AccessResult struct {
	AuthURL   string
	SessionID string
}

// CallbackOutcome tells the callback handler what to render. The redirect
// always gets a terminal page, so there is no error return here.
type CallbackOutcome struct {
	Success          bool
	PaymentID        string
	ErrorCode        string
	ErrorDescription string
}

// Upstream wire shapes. One fixed contract, documented in DESIGN.md.
type aspsp struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

type paymentInitiation struct {
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	CreditorName string `json:"creditor_name"`
	CreditorIBAN string `json:"creditor_iban"`
	Reference    string `json:"reference"`
	State        string `json:"state"`
	RedirectURL  string `json:"redirect_url"`
	ASPSP        aspsp  `json:"aspsp"`
}

type sessionInitiated struct {
	PaymentID string `json:"payment_id"`
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

type accessInitiation struct {
	Access struct {
		ValidUntil string `json:"valid_until"`
	} `json:"access"`
	State       string `json:"state"`
	RedirectURL string `json:"redirect_url"`
	ASPSP       aspsp  `json:"aspsp"`
}

// CreatePayment validates the request, initiates a payment session at the
// upstream, and persists a pending Session. The session is keyed by the
// upstream payment id, falling back to the local correlation token when the
// upstream omits one so a partially-failed creation response still leaves a
// trackable session.
func (s *Service) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if err := s.validator.ValidatePaymentRequest(req); err != nil {
		return nil, err
	}

	reference := req.Reference
	if reference == "" {
		reference = DefaultReference
	}
	token := newCorrelationToken(KindPayment)

	raw, err := s.upstream.Call(ctx, http.MethodPost, "/payments", paymentInitiation{
		Amount:       req.Amount.String(),
		Currency:     SettlementCurrency,
		CreditorName: req.CreditorName,
		CreditorIBAN: req.CreditorIBAN,
		Reference:    reference,
		State:        token,
		RedirectURL:  s.redirectURL,
		ASPSP:        aspsp{Name: req.BankName, Country: req.BankCountry},
	})
	if err != nil {
		return nil, err
	}

	var initiated sessionInitiated
	if err := json.Unmarshal(raw, &initiated); err != nil {
		return nil, fmt.Errorf("[Service CreatePayment] unexpected upstream response: %w", err)
	}

	id := initiated.PaymentID
	if id == "" {
		id = token
	}

	session := Session{
		ID:                id,
		Kind:              KindPayment,
		Status:            StatusPending,
		Amount:            req.Amount.String(),
		Currency:          SettlementCurrency,
		CreditorIBAN:      req.CreditorIBAN,
		CreditorName:      req.CreditorName,
		Reference:         reference,
		BankName:          req.BankName,
		BankCountry:       req.BankCountry,
		CorrelationToken:  token,
		UpstreamSessionID: initiated.SessionID,
		CreatedAt:         NowTimeFunc(),
	}
	if err := s.repo.Upsert(id, session); err != nil {
		return nil, fmt.Errorf("[Service CreatePayment] failed to store session: %w", err)
	}

	log.Info().
		Str("paymentId", id).
		Str("bank", req.BankName).
		Str("country", req.BankCountry).
		Msg("payment session created")

	return &PaymentResult{PaymentID: id, AuthURL: initiated.URL, Session: session}, nil
}

// CreateAccessConnection starts an account-access flow with a fixed 90-day
// consent window. No local Session is persisted: access flows are
// fire-and-forget redirects, only payment sessions are tracked locally.
func (s *Service) CreateAccessConnection(ctx context.Context, req AccessRequest) (*AccessResult, error) {
	if err := s.validator.ValidateAccessRequest(req); err != nil {
		return nil, err
	}

	token := newCorrelationToken(KindAccess)
	body := accessInitiation{
		State:       token,
		RedirectURL: s.redirectURL,
		ASPSP:       aspsp{Name: req.BankName, Country: req.BankCountry},
	}
	body.Access.ValidUntil = NowTimeFunc().AddDate(0, 0, accessValidityDays).Format("2006-01-02")

	raw, err := s.upstream.Call(ctx, http.MethodPost, "/auth", body)
	if err != nil {
		return nil, err
	}

	var initiated sessionInitiated
	if err := json.Unmarshal(raw, &initiated); err != nil {
		return nil, fmt.Errorf("[Service CreateAccessConnection] unexpected upstream response: %w", err)
	}

	sessionID := initiated.SessionID
	if sessionID == "" {
		sessionID = token
	}

	log.Info().
		Str("sessionId", sessionID).
		Str("bank", req.BankName).
		Msg("access connection started")

	return &AccessResult{AuthURL: initiated.URL, SessionID: sessionID}, nil
}

// GetStatus returns the tracked session, best-effort reconciled against the
// upstream. When the session carries an upstream session id, the upstream is
// re-queried and a reported status string replaces local state verbatim.
// Reconciliation is advisory: a re-query failure is logged and swallowed and
// the last-known local state returned.
func (s *Service) GetStatus(ctx context.Context, id string) (Session, error) {
	session, err := s.repo.Get(id)
	if err != nil {
		return Session{}, err
	}
	if session.UpstreamSessionID == "" {
		return session, nil
	}

	raw, err := s.upstream.Call(ctx, http.MethodGet, "/payments/"+url.PathEscape(session.UpstreamSessionID), nil)
	if err != nil {
		log.Warn().Err(err).Str("paymentId", id).Msg("status reconciliation failed, returning last-known state")
		return session, nil
	}

	var reported struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &reported); err != nil || reported.Status == "" {
		return session, nil
	}

	session.Status = reported.Status
	if err := s.repo.Upsert(id, session); err != nil {
		return Session{}, fmt.Errorf("[Service GetStatus] failed to store session: %w", err)
	}
	return session, nil
}

// ListPayments returns every locally tracked session.
func (s *Service) ListPayments() []Session {
	return s.repo.List()
}

// HandleCallback ingests the bank redirect. An error parameter short-circuits
// to a failure outcome without any lookup: error callbacks may carry a state
// for a session that never reached pending with a resolvable id. A payment
// token that matches a session transitions it to authorized and records the
// authorization code once; replays are no-ops. An unmatched token is an
// orphan callback: accepted, nothing mutated, the user still gets a terminal
// page.
func (s *Service) HandleCallback(code, state, errorCode, errorDescription string) CallbackOutcome {
	if errorCode != "" {
		log.Info().
			Str("error", errorCode).
			Str("description", errorDescription).
			Msg("bank callback reported failure")
		return CallbackOutcome{
			Success:          false,
			ErrorCode:        errorCode,
			ErrorDescription: errorDescription,
		}
	}

	outcome := CallbackOutcome{Success: true}
	if !strings.HasPrefix(state, TokenPrefixPayment) {
		return outcome
	}

	session, err := s.repo.FindByToken(state)
	if err != nil {
		// Orphan callback: the redirect must still see a confirmation page.
		log.Warn().Str("state", state).Msg("callback matched no tracked session")
		return outcome
	}

	if session.Status != StatusAuthorized {
		session.Status = StatusAuthorized
		session.AuthCode = code
		if err := s.repo.Upsert(session.ID, session); err != nil {
			log.Error().Err(err).Str("paymentId", session.ID).Msg("failed to store authorized session")
			return outcome
		}
		log.Info().Str("paymentId", session.ID).Msg("payment authorized")
	}
	outcome.PaymentID = session.ID
	return outcome
}

// GetBanks lists the banks available in a two-letter country code, normalized
// upper-case. The upstream response is passed through untouched.
func (s *Service) GetBanks(ctx context.Context, country string) (json.RawMessage, error) {
	country = strings.ToUpper(strings.TrimSpace(country))
	return s.upstream.Call(ctx, http.MethodGet, "/aspsps?country="+url.QueryEscape(country), nil)
}
