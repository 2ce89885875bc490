package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlist/internal/delivery/http/helpers"
	"waitlist/internal/domain"
	"waitlist/internal/repository/memory"
	"waitlist/internal/services"
)

func newWaitlistController(t *testing.T) (*WaitlistController, domain.EntryService, *http.ServeMux) {
	t.Helper()
	store := memory.NewStore()
	opts := services.Options{AutoSendInvitation: false}
	entries := services.NewEntryService(testLogger, store.Entries(), nil, nil, nil, opts, nil)
	waitlists := services.NewWaitlistService(testLogger, store.Waitlists(), store.Entries(), entries, opts)
	c := NewWaitlistController(testLogger, waitlists)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /waitlists", c.CreateWaitlist)
	mux.HandleFunc("GET /waitlists", c.ListWaitlists)
	mux.HandleFunc("GET /waitlists/{key}", c.GetWaitlist)
	mux.HandleFunc("POST /waitlists/{key}/activate", c.ActivateWaitlist)
	mux.HandleFunc("POST /waitlists/{key}/deactivate", c.DeactivateWaitlist)
	mux.HandleFunc("GET /waitlists/{key}/stats", c.GetStats)
	mux.HandleFunc("POST /waitlists/{key}/entries", c.Join)
	mux.HandleFunc("GET /waitlists/{key}/entries", c.ListEntries)
	mux.HandleFunc("GET /waitlists/{key}/entries/lookup", c.LookupEntry)
	return c, entries, mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestWaitlistController_CreateWaitlist(t *testing.T) {
	_, _, mux := newWaitlistController(t)

	rr := do(mux, http.MethodPost, "/waitlists", `{"name":"Beta","slug":"beta","description":"Closed beta"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var wl domain.Waitlist
	assert.Nil(t, decodeEnvelope(t, rr, &wl))
	assert.Equal(t, "beta", wl.Slug)
	assert.True(t, wl.IsActive)

	rr = do(mux, http.MethodPost, "/waitlists", `{"name":"Beta","slug":"beta"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(mux, http.MethodPost, "/waitlists", `{"name":"Bad","slug":"Not A Slug"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(mux, http.MethodPost, "/waitlists", `{"slug":"nameless"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(mux, http.MethodGet, "/waitlists", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var lists []*domain.Waitlist
	decodeEnvelope(t, rr, &lists)
	assert.Len(t, lists, 1)
}

func TestWaitlistController_Join(t *testing.T) {
	_, _, mux := newWaitlistController(t)

	rr := do(mux, http.MethodPost, "/waitlists/default/entries", `{"name":"Ada","email":"Ada@Example.com","metadata":{"source":"hn"}}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var e domain.Entry
	assert.Nil(t, decodeEnvelope(t, rr, &e))
	assert.Equal(t, "ada@example.com", e.Email)
	assert.Equal(t, domain.StatusPending, e.Status)
	assert.Equal(t, "hn", e.Metadata["source"])

	rr = do(mux, http.MethodPost, "/waitlists/default/entries", `{"name":"Ada","email":"ada@example.com"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(mux, http.MethodPost, "/waitlists/default/entries", `{"name":"Ada","email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(mux, http.MethodPost, "/waitlists/missing/entries", `{"name":"Ada","email":"ada@example.com"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWaitlistController_Join_inactive_waitlist(t *testing.T) {
	_, _, mux := newWaitlistController(t)
	require.Equal(t, http.StatusCreated, do(mux, http.MethodPost, "/waitlists", `{"name":"Beta","slug":"beta","is_active":false}`).Code)

	rr := do(mux, http.MethodPost, "/waitlists/beta/entries", `{"name":"Ada","email":"ada@example.com"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, helpers.ErrCodeForbidden, decodeEnvelope(t, rr, nil).Code)

	require.Equal(t, http.StatusOK, do(mux, http.MethodPost, "/waitlists/beta/activate", "").Code)
	rr = do(mux, http.MethodPost, "/waitlists/beta/entries", `{"name":"Ada","email":"ada@example.com"}`)
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = do(mux, http.MethodPost, "/waitlists/beta/deactivate", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var wl domain.Waitlist
	decodeEnvelope(t, rr, &wl)
	assert.False(t, wl.IsActive)
}

func TestWaitlistController_ListEntries_and_stats(t *testing.T) {
	_, entries, mux := newWaitlistController(t)
	var ids []string
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		rr := do(mux, http.MethodPost, "/waitlists/default/entries", `{"name":"N","email":"`+email+`"}`)
		require.Equal(t, http.StatusCreated, rr.Code)
		var e domain.Entry
		decodeEnvelope(t, rr, &e)
		ids = append(ids, e.ID)
	}
	_, err := entries.Invite(context.Background(), ids[1])
	require.NoError(t, err)

	rr := do(mux, http.MethodGet, "/waitlists/default/entries?status=pending&page=1&page_size=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var page ListEntriesResponse
	assert.Nil(t, decodeEnvelope(t, rr, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a@example.com", page.Items[0].Email)
	assert.Equal(t, helpers.PaginationMeta{Page: 1, PageSize: 1, Total: 2, TotalPages: 2}, page.Pagination)

	rr = do(mux, http.MethodGet, "/waitlists/default/entries?status=all", "")
	require.Equal(t, http.StatusOK, rr.Code)
	decodeEnvelope(t, rr, &page)
	assert.Equal(t, 3, page.Pagination.Total)

	rr = do(mux, http.MethodGet, "/waitlists/default/entries?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(mux, http.MethodGet, "/waitlists/default/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var stats domain.WaitlistStats
	decodeEnvelope(t, rr, &stats)
	assert.Equal(t, domain.WaitlistStats{Total: 3, Pending: 2, Invited: 1}, stats)
}

func TestWaitlistController_LookupEntry(t *testing.T) {
	_, _, mux := newWaitlistController(t)
	require.Equal(t, http.StatusCreated, do(mux, http.MethodPost, "/waitlists/default/entries", `{"name":"Ada","email":"ada@example.com"}`).Code)

	rr := do(mux, http.MethodGet, "/waitlists/default/entries/lookup?email=ADA@example.com", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var e domain.Entry
	decodeEnvelope(t, rr, &e)
	assert.Equal(t, "ada@example.com", e.Email)

	rr = do(mux, http.MethodGet, "/waitlists/default/entries/lookup?email=zed@example.com", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(mux, http.MethodGet, "/waitlists/default/entries/lookup", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWaitlistController_GetWaitlist(t *testing.T) {
	_, _, mux := newWaitlistController(t)

	rr := do(mux, http.MethodGet, "/waitlists/default", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var wl domain.Waitlist
	decodeEnvelope(t, rr, &wl)
	assert.Equal(t, "default", wl.Slug)

	rr = do(mux, http.MethodGet, "/waitlists/"+wl.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(mux, http.MethodGet, "/waitlists/unknown", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
