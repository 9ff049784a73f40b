package handler

import (
	"net/http"
	"strconv"

	"venuepoint-terminal/internal/journal"
	"venuepoint-terminal/pkg/apierror"
	"venuepoint-terminal/pkg/response"
)

// JournalHandler exposes the local transaction journal.
type JournalHandler struct {
	repo journal.Repository
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(repo journal.Repository) *JournalHandler {
	return &JournalHandler{repo: repo}
}

// List handles GET /journal?page=&limit=
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		response.Error(w, apierror.ServiceUnavailable("journal is not configured"))
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	entries, total, err := h.repo.List(r.Context(), limit, (page-1)*limit)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to read journal"))
		return
	}

	response.JSONWithMeta(w, http.StatusOK, entries, page, limit, total)
}
