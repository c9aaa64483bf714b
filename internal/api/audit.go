package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/itembridge/internal/audit"
)

// handleListAudit returns activity log entries, most recent first.
//
// Query parameters: action, item_id, limit, offset.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeJSON(w, http.StatusOK, audit.ListResult{Entries: []audit.Entry{}})
		return
	}

	filter := audit.Filter{
		Action: r.URL.Query().Get("action"),
	}
	if raw := r.URL.Query().Get("item_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, "invalid item_id")
			return
		}
		filter.ItemID = id
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, "invalid offset")
			return
		}
		filter.Offset = n
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing activity log failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// recordActivity appends an activity log entry. Failures are logged
// but never fail the request that triggered them.
func (s *Server) recordActivity(r *http.Request, action string, itemID int, itemName string, details map[string]any) {
	if s.audit == nil {
		return
	}
	entry := &audit.Entry{
		Action:   action,
		ItemID:   itemID,
		ItemName: itemName,
		Source:   "api",
		Details:  details,
	}
	if err := s.audit.Create(r.Context(), entry); err != nil {
		s.logger.Error("recording activity failed", "error", err, "action", action)
	}
}
