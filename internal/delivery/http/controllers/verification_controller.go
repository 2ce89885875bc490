package controllers

import (
	"log/slog"
	"net/http"
	"net/url"

	"waitlist/internal/domain"
)

const (
	verificationParam   = "waitlist_verification"
	verificationSuccess = "success"
	verificationFailed  = "failed"

	verifiedMessage = "Your email address has been verified."
	failedMessage   = "This verification link is invalid or has already been used."
)

// VerificationController serves the public link sent in verification emails.
type VerificationController struct {
	Logger      *slog.Logger
	Entries     domain.EntryService
	RedirectURL string
}

func NewVerificationController(logger *slog.Logger, entries domain.EntryService, redirectURL string) *VerificationController {
	if redirectURL == "" {
		redirectURL = "/"
	}
	return &VerificationController{
		Logger:      logger,
		Entries:     entries,
		RedirectURL: redirectURL,
	}
}

// Verify godoc
// @Summary Verify an email address
// @Description Consumes a verification token and redirects to the configured page with waitlist_verification=success or failed and a message.
// @Tags verification
// @Param token path string true "Verification token"
// @Success 302 "Redirect to the configured page"
// @Router /waitlist/verify/{token} [get]
func (c *VerificationController) Verify(w http.ResponseWriter, r *http.Request) {
	entry, found, err := c.Entries.Verify(r.Context(), r.PathValue("token"))
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	if err != nil || !found {
		http.Redirect(w, r, c.redirect(verificationFailed, failedMessage), http.StatusFound)
		return
	}
	c.Logger.InfoContext(r.Context(), "email verified", "entry_id", entry.ID)
	http.Redirect(w, r, c.redirect(verificationSuccess, verifiedMessage), http.StatusFound)
}

func (c *VerificationController) redirect(result, message string) string {
	u, err := url.Parse(c.RedirectURL)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set(verificationParam, result)
	q.Set("message", message)
	u.RawQuery = q.Encode()
	return u.String()
}
