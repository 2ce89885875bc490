package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	httpSwagger "github.com/swaggo/http-swagger"

	"waitlist/internal/delivery/http/controllers"
	"waitlist/internal/delivery/http/helpers"
	"waitlist/internal/delivery/http/middleware"
	"waitlist/internal/domain"
)

// RouterConfig carries the controllers and switches NewRouter wires together.
type RouterConfig struct {
	Logger        *slog.Logger
	TokenVerifier domain.TokenVerifier
	Waitlists     *controllers.WaitlistController
	Entries       *controllers.EntryController
	Auth          *controllers.AuthController
	// Verification is registered under VerifyPrefix when non-nil.
	Verification *controllers.VerificationController
	VerifyPrefix string
	Metrics      http.Handler
	Health       func(ctx context.Context) error
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(cfg.TokenVerifier, cfg.Logger)

	// Public
	mux.HandleFunc("POST /waitlists/{key}/entries", cfg.Waitlists.Join)
	mux.HandleFunc("POST /auth/token", cfg.Auth.Token)
	if cfg.Verification != nil {
		mux.HandleFunc("GET "+verifyPattern(cfg.VerifyPrefix), cfg.Verification.Verify)
	}

	// Operator
	mux.HandleFunc("POST /waitlists", auth(cfg.Waitlists.CreateWaitlist))
	mux.HandleFunc("GET /waitlists", auth(cfg.Waitlists.ListWaitlists))
	mux.HandleFunc("GET /waitlists/{key}", auth(cfg.Waitlists.GetWaitlist))
	mux.HandleFunc("POST /waitlists/{key}/activate", auth(cfg.Waitlists.ActivateWaitlist))
	mux.HandleFunc("POST /waitlists/{key}/deactivate", auth(cfg.Waitlists.DeactivateWaitlist))
	mux.HandleFunc("GET /waitlists/{key}/stats", auth(cfg.Waitlists.GetStats))
	mux.HandleFunc("GET /waitlists/{key}/entries", auth(cfg.Waitlists.ListEntries))
	mux.HandleFunc("GET /waitlists/{key}/entries/lookup", auth(cfg.Waitlists.LookupEntry))
	mux.HandleFunc("GET /entries/{id}", auth(cfg.Entries.GetEntry))
	mux.HandleFunc("POST /entries/{id}/invite", auth(cfg.Entries.InviteEntry))
	mux.HandleFunc("POST /entries/{id}/reject", auth(cfg.Entries.RejectEntry))
	mux.HandleFunc("POST /entries/{id}/verification", auth(cfg.Entries.SendVerification))

	// Ops
	mux.HandleFunc("GET /healthz", healthHandler(cfg.Health))
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

func verifyPattern(prefix string) string {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		return "/verify/{token}"
	}
	return prefix + "/verify/{token}"
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeInternalError, "storage unavailable")
				return
			}
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
