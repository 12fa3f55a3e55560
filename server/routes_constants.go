package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Bank redirect target
	RouteCallback = "/callback"

	// API Routes
	RouteAPIBanks     = "/api/banks/{country}"
	RouteAPIPayments  = "/api/payments"
	RouteAPIPaymentID = "/api/payments/{id}"
	RouteAPIConnect   = "/api/connect"

	// Liveness
	RouteHealth = "/health"
)
