package server

import (
	"net/http"
)

// CallbackPageData contains data for rendering the terminal callback pages
type CallbackPageData struct {
	PaymentID        string
	AuthCode         string
	ErrorCode        string
	ErrorDescription string
}

// CallbackHandler is the bank redirect target. The end user lands here after
// the authorization step and cannot retry an API call, so the handler always
// answers 200 with a human-readable confirmation or failure page, whatever
// the server-side bookkeeping did.
func (s *Server) CallbackHandler() http.HandlerFunc {
	successTmpl, err := ParseTemplate("callback_success.html")
	if err != nil {
		panic("Failed to parse callback success template: " + err.Error())
	}
	failureTmpl, err := ParseTemplate("callback_error.html")
	if err != nil {
		panic("Failed to parse callback error template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		outcome := s.payments.HandleCallback(
			query.Get("code"),
			query.Get("state"),
			query.Get("error"),
			query.Get("error_description"),
		)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		if !outcome.Success {
			data := CallbackPageData{
				ErrorCode:        outcome.ErrorCode,
				ErrorDescription: outcome.ErrorDescription,
			}
			if err := failureTmpl.Execute(w, data); err != nil {
				logError("GET", RouteCallback, err.Error())
			}
			return
		}

		data := CallbackPageData{
			PaymentID: outcome.PaymentID,
			AuthCode:  query.Get("code"),
		}
		if err := successTmpl.Execute(w, data); err != nil {
			logError("GET", RouteCallback, err.Error())
		}
	}
}
