package controllers

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"waitlist/internal/delivery/http/helpers"
	"waitlist/internal/domain"
)

// emailRegex matches a simple email format (local@domain with at least one dot in domain).
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CreateWaitlistRequest is the request body for POST /waitlists.
type CreateWaitlistRequest struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// Validate implements Validator.
func (c CreateWaitlistRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(c.Slug) == "" {
		errs = append(errs, "slug is required")
	}
	return errs
}

// WaitlistSuccessResponse is the success envelope for endpoints returning one waitlist.
type WaitlistSuccessResponse struct {
	Data  *domain.Waitlist  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// JoinWaitlistRequest is the request body for POST /waitlists/{key}/entries.
type JoinWaitlistRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"metadata"`
}

// Validate implements Validator.
func (j JoinWaitlistRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(j.Name) == "" {
		errs = append(errs, "name is required")
	}
	email := strings.TrimSpace(j.Email)
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegex.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	return errs
}

// EntrySuccessResponse is the success envelope for endpoints returning one entry.
type EntrySuccessResponse struct {
	Data  *domain.Entry     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListEntriesResponse is the data payload for GET /waitlists/{key}/entries.
type ListEntriesResponse struct {
	Items      []*domain.Entry        `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

type WaitlistController struct {
	Logger    *slog.Logger
	Waitlists domain.WaitlistService
}

func NewWaitlistController(logger *slog.Logger, waitlists domain.WaitlistService) *WaitlistController {
	return &WaitlistController{
		Logger:    logger,
		Waitlists: waitlists,
	}
}

// CreateWaitlist godoc
// @Summary Create a waitlist
// @Description Creates a named waitlist. The slug must be unique, lowercase, and must not look like a UUID. is_active defaults to true.
// @Tags waitlists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateWaitlistRequest true "Waitlist data"
// @Success 201 {object} controllers.WaitlistSuccessResponse "data contains the created waitlist"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (slug taken)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /waitlists [post]
func (c *WaitlistController) CreateWaitlist(w http.ResponseWriter, r *http.Request) {
	var req CreateWaitlistRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	wl, err := c.Waitlists.Create(r.Context(), req.Name, req.Slug, req.Description, active)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, wl)
}

// ListWaitlists godoc
// @Summary List waitlists
// @Description Returns every waitlist ordered by creation time. The default waitlist appears once it has been used.
// @Tags waitlists
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains an array of waitlists"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /waitlists [get]
func (c *WaitlistController) ListWaitlists(w http.ResponseWriter, r *http.Request) {
	lists, err := c.Waitlists.List(r.Context())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	if lists == nil {
		lists = []*domain.Waitlist{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, lists)
}

// GetWaitlist godoc
// @Summary Get a waitlist
// @Description Resolves key as the default slug, a waitlist id, or a slug.
// @Tags waitlists
// @Produce json
// @Security BearerAuth
// @Param key path string true "Waitlist slug or id"
// @Success 200 {object} controllers.WaitlistSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /waitlists/{key} [get]
func (c *WaitlistController) GetWaitlist(w http.ResponseWriter, r *http.Request) {
	scope, ok := c.scope(w, r)
	if !ok {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, scope.Waitlist())
}

// ActivateWaitlist godoc
// @Summary Activate a waitlist
// @Description Marks the waitlist active so the public join endpoint accepts entries.
// @Tags waitlists
// @Produce json
// @Security BearerAuth
// @Param key path string true "Waitlist slug or id"
// @Success 200 {object} controllers.WaitlistSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /waitlists/{key}/activate [post]
func (c *WaitlistController) ActivateWaitlist(w http.ResponseWriter, r *http.Request) {
	wl, err := c.Waitlists.Activate(r.Context(), r.PathValue("key"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, wl)
}

// DeactivateWaitlist godoc
// @Summary Deactivate a waitlist
// @Description Marks the waitlist inactive. Existing entries are kept; the public join endpoint refuses new ones.
// @Tags waitlists
// @Produce json
// @Security BearerAuth
// @Param key path string true "Waitlist slug or id"
// @Success 200 {object} controllers.WaitlistSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /waitlists/{key}/deactivate [post]
func (c *WaitlistController) DeactivateWaitlist(w http.ResponseWriter, r *http.Request) {
	wl, err := c.Waitlists.Deactivate(r.Context(), r.PathValue("key"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, wl)
}

// GetStats godoc
// @Summary Waitlist counters
// @Description Returns total, pending and invited entry counts for the waitlist.
// @Tags waitlists
// @Produce json
// @Security BearerAuth
// @Param key path string true "Waitlist slug or id"
// @Success 200 {object} helpers.APIResponse "data contains total, pending and invited"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /waitlists/{key}/stats [get]
func (c *WaitlistController) GetStats(w http.ResponseWriter, r *http.Request) {
	scope, ok := c.scope(w, r)
	if !ok {
		return
	}
	stats, err := scope.Stats(r.Context())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}

// Join godoc
// @Summary Join a waitlist
// @Description Public endpoint. Adds a pending entry to the waitlist. The email is normalized to lower case; joining twice with the same email fails with 409. When verification is enabled a verification email is sent.
// @Tags entries
// @Accept json
// @Produce json
// @Param key path string true "Waitlist slug or id"
// @Param body body JoinWaitlistRequest true "Registrant"
// @Success 201 {object} controllers.EntrySuccessResponse "data contains the created entry"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (waitlist inactive)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already joined)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /waitlists/{key}/entries [post]
func (c *WaitlistController) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinWaitlistRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	scope, ok := c.scope(w, r)
	if !ok {
		return
	}
	if !scope.Waitlist().IsActive {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "waitlist is not accepting entries")
		return
	}
	entry, err := scope.Add(r.Context(), req.Name, req.Email, req.Metadata)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, entry)
}

// ListEntries godoc
// @Summary List waitlist entries
// @Description Paginated entries for one waitlist. status=pending is oldest first, status=invited is most recently invited first, anything else is newest first.
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param key path string true "Waitlist slug or id"
// @Param status query string false "all, pending, invited or rejected"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /waitlists/{key}/entries [get]
func (c *WaitlistController) ListEntries(w http.ResponseWriter, r *http.Request) {
	status := helpers.ParseStatusFilter(r)
	params := helpers.ParsePagination(r)
	scope, ok := c.scope(w, r)
	if !ok {
		return
	}
	entries, total, err := scope.Page(r.Context(), status, params)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	if entries == nil {
		entries = []*domain.Entry{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEntriesResponse{
		Items:      entries,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// LookupEntry godoc
// @Summary Find an entry by email
// @Description Looks up the entry for an email address within one waitlist.
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param key path string true "Waitlist slug or id"
// @Param email query string true "Email address"
// @Success 200 {object} controllers.EntrySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /waitlists/{key}/entries/lookup [get]
func (c *WaitlistController) LookupEntry(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "email is required")
		return
	}
	scope, ok := c.scope(w, r)
	if !ok {
		return
	}
	entry, err := scope.GetByEmail(r.Context(), email)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	if entry == nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "entry not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, entry)
}

func (c *WaitlistController) scope(w http.ResponseWriter, r *http.Request) (domain.WaitlistScope, bool) {
	scope, err := c.Waitlists.For(r.Context(), r.PathValue("key"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return nil, false
	}
	return scope, true
}
