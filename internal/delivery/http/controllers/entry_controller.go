package controllers

import (
	"log/slog"
	"net/http"

	"waitlist/internal/delivery/http/helpers"
	"waitlist/internal/domain"
)

type EntryController struct {
	Logger  *slog.Logger
	Entries domain.EntryService
}

func NewEntryController(logger *slog.Logger, entries domain.EntryService) *EntryController {
	return &EntryController{
		Logger:  logger,
		Entries: entries,
	}
}

// GetEntry godoc
// @Summary Get an entry
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 200 {object} controllers.EntrySuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /entries/{id} [get]
func (c *EntryController) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := c.Entries.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, entry)
}

// InviteEntry godoc
// @Summary Invite an entry
// @Description Moves a pending entry to invited and, when configured, sends the invitation email and creates the external invitation. Fails with unverified_entry when verification is required and the email is not verified. If the external invitation cannot be created the entry stays invited and the response is 502 with the entry in data.
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 200 {object} controllers.EntrySuccessResponse "data contains the invited entry"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: unverified_entry (entry in data) or invalid_transition"
// @Failure 502 {object} helpers.APIResponse "error.code: invitation_failed"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /entries/{id}/invite [post]
func (c *EntryController) InviteEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := c.Entries.Invite(r.Context(), r.PathValue("id"))
	if err != nil {
		if entry != nil {
			c.Logger.WarnContext(r.Context(), "entry invited without external invitation", "entry_id", entry.ID, "err", err)
			helpers.WriteJSON(w, http.StatusBadGateway, entry, &helpers.APIError{
				Code:    helpers.ErrCodeInvitationFailed,
				Message: "entry invited but the external invitation could not be created",
			})
			return
		}
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, entry)
}

// RejectEntry godoc
// @Summary Reject an entry
// @Description Moves a pending entry to rejected. No notification is sent.
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 200 {object} controllers.EntrySuccessResponse "data contains the rejected entry"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /entries/{id}/reject [post]
func (c *EntryController) RejectEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := c.Entries.Reject(r.Context(), r.PathValue("id"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, entry)
}

// SendVerification godoc
// @Summary Resend the verification email
// @Description Emails the verification link, reusing the outstanding token or generating one when the entry has none.
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 202 {object} controllers.EntrySuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already verified)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /entries/{id}/verification [post]
func (c *EntryController) SendVerification(w http.ResponseWriter, r *http.Request) {
	entry, err := c.Entries.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	updated, err := c.Entries.SendVerification(r.Context(), entry)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusAccepted, updated)
}
