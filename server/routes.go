package server

import (
	"net/http"
	"strings"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET /{$}", s.IndexHandler())

	// Broker API, consumed by the frontend
	s.RegisterRouteHandler("GET "+RouteAPIBanks, ChainMiddleware(s.BanksHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIPayments, ChainMiddleware(s.CreatePaymentHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIPaymentID, ChainMiddleware(s.PaymentStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIPayments, ChainMiddleware(s.ListPaymentsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIConnect, ChainMiddleware(s.ConnectHandler(), s.APIMiddleware()...))

	// Bank redirect target: always renders a terminal confirmation page
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET /{file}", ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleware()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError("GET", filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
