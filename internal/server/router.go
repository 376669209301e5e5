package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seatwise-systems/seatwise/internal/handlers"
	"github.com/seatwise-systems/seatwise/internal/httputil"
	"github.com/seatwise-systems/seatwise/internal/middleware"
	"github.com/seatwise-systems/seatwise/internal/models"
)

// NewRouter constructs a ServeMux with the registry API routes registered.
// Uses Go 1.22+ method routing for explicit path matching.
func NewRouter(accounts *handlers.AccountHandler, events *handlers.EventHandler, auth *middleware.AuthMiddleware) http.Handler {
	mux := http.NewServeMux()

	// Accounts and authentication
	mux.HandleFunc("POST /api/v1/accounts", accounts.Create)
	mux.HandleFunc("POST /api/v1/auth/login", accounts.Login)

	// Event catalog. Reads are public; writes require the provider role.
	mux.HandleFunc("GET /api/v1/events", events.List)
	mux.HandleFunc("GET /api/v1/events/{id}", events.Get)
	mux.HandleFunc("POST /api/v1/events", auth.RequireRole(string(models.RoleProvider))(events.Create))
	mux.HandleFunc("PUT /api/v1/events/{id}", auth.RequireRole(string(models.RoleProvider))(events.Update))
	mux.HandleFunc("DELETE /api/v1/events/{id}", auth.RequireRole(string(models.RoleProvider))(events.Delete))

	// Registration surface
	mux.HandleFunc("POST /api/v1/events/{id}/register", auth.RequireAuth(events.Register))
	mux.HandleFunc("DELETE /api/v1/events/{id}/register", auth.RequireAuth(events.Unregister))
	mux.HandleFunc("GET /api/v1/events/{id}/registrations/count", events.RegistrationCount)

	// Health check and metrics
	mux.HandleFunc("GET /healthz", healthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
