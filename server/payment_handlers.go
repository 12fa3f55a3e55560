package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jrsteele09/go-payment-broker/payments"
	"github.com/jrsteele09/go-payment-broker/upstream"
)

// IndexHandler serves the embedded frontend page
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := StreamFile(w, r, "index.html"); err != nil {
			logError("GET", "/", err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
		}
	}
}

// BanksHandler lists the banks available in a country. The upstream response
// is passed through untouched.
func (s *Server) BanksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		banks, err := s.payments.GetBanks(r.Context(), r.PathValue("country"))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(banks)
	}
}

// CreatePaymentHandler initiates a payment session and returns the bank
// authorization URL the frontend must redirect the user to.
func (s *Server) CreatePaymentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req payments.PaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}

		result, err := s.payments.CreatePayment(r.Context(), req)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":   true,
			"paymentId": result.PaymentID,
			"authUrl":   result.AuthURL,
			"payment":   result.Session,
		})
	}
}

// PaymentStatusHandler returns a tracked session, reconciled best-effort
// against the upstream.
func (s *Server) PaymentStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.payments.GetStatus(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(session)
	}
}

// ListPaymentsHandler returns every locally tracked session
func (s *Server) ListPaymentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(s.payments.ListPayments())
	}
}

// ConnectHandler starts an account-access flow at the chosen bank
func (s *Server) ConnectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req payments.AccessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}

		result, err := s.payments.CreateAccessConnection(r.Context(), req)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":   true,
			"authUrl":   result.AuthURL,
			"sessionId": result.SessionID,
		})
	}
}

// HealthHandler reports liveness
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// writeServiceError maps orchestrator errors to the API error envelope.
// Validation faults are caller-fixable (400), unknown sessions are 404, and
// everything else (upstream rejection, unreachable upstream, signing fault)
// is a 500 with the detail logged rather than leaked.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *payments.ValidationError
	var upstreamErr *upstream.Error

	switch {
	case errors.As(err, &validationErr):
		writeJSONError(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, payments.ErrSessionNotFound):
		writeJSONError(w, "payment not found", http.StatusNotFound)
	case errors.As(err, &upstreamErr):
		logError(r.Method, r.URL.Path, err.Error())
		writeJSONError(w, "upstream banking API error", http.StatusInternalServerError)
	default:
		logError(r.Method, r.URL.Path, err.Error())
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}

// writeJSONError writes the API error envelope
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
