package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/itembridge/internal/audit"
	"github.com/nerrad567/itembridge/internal/driver"
	"github.com/nerrad567/itembridge/internal/item"
)

// handleListItems returns snapshots of every registered item.
func (s *Server) handleListItems(w http.ResponseWriter, _ *http.Request) {
	snapshots := s.driver.Snapshots()
	writeJSON(w, http.StatusOK, map[string]any{
		"items": snapshots,
		"count": len(snapshots),
	})
}

// handleCreateItem registers a new item from the request body. A body
// without a qos field gets the configured default; an explicit qos,
// including 0, is kept as sent.
func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		item.Item
		QoS *int `json:"qos"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	rec := req.Item
	switch {
	case req.QoS == nil:
		rec.QoS = s.defaultQoS
	case *req.QoS < 0 || *req.QoS > 2:
		s.writeDriverError(w, fmt.Errorf("%w: got %d", item.ErrInvalidQoS, *req.QoS))
		return
	default:
		rec.QoS = byte(*req.QoS)
	}

	created, err := s.driver.AddItem(r.Context(), rec)
	if err != nil {
		s.writeDriverError(w, err)
		return
	}
	s.recordActivity(r, audit.ActionCreate, created.ID, created.Name, map[string]any{
		"kind": string(created.Kind),
	})
	writeJSON(w, http.StatusCreated, created)
}

// handleGetItem returns the snapshot for a single item.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	snapshot, err := s.driver.Snapshot(id)
	if err != nil {
		s.writeDriverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// handleUpdateItem applies a partial update to an item's configuration.
//
// The request body is merged over the current record, so callers only
// send the fields they want to change. Name and kind are immutable.
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	current, err := s.driver.Item(id)
	if err != nil {
		s.writeDriverError(w, err)
		return
	}

	next := current
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		writeBadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	updated, err := s.driver.UpdateItem(r.Context(), id, next)
	if err != nil {
		s.writeDriverError(w, err)
		return
	}
	s.recordActivity(r, audit.ActionUpdate, updated.ID, updated.Name, nil)
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteItem removes an item and releases its identity slots.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	// Capture the name before the record is gone.
	name := ""
	if rec, err := s.driver.Item(id); err == nil {
		name = rec.Name
	}

	if err := s.driver.RemoveItem(r.Context(), id); err != nil {
		s.writeDriverError(w, err)
		return
	}
	s.recordActivity(r, audit.ActionDelete, id, name, nil)
	w.WriteHeader(http.StatusNoContent)
}

// commandRequest is the body accepted by the per-item command endpoint.
type commandRequest struct {
	Action string `json:"action"`
	Value  string `json:"value,omitempty"`
}

// handleItemCommand executes a command against an item.
//
// Supported actions: "on" and "off" for relays, "press" for buttons,
// "set" (with a value) for variables.
func (s *Server) handleItemCommand(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	var err error
	switch req.Action {
	case "on":
		err = s.driver.TurnOn(id)
	case "off":
		err = s.driver.TurnOff(id)
	case "press":
		err = s.driver.Press(id)
	case "set":
		err = s.driver.SetVariable(id, req.Value)
	default:
		writeBadRequest(w, fmt.Sprintf("unknown action %q", req.Action))
		return
	}
	if err != nil {
		s.writeDriverError(w, err)
		return
	}

	name := ""
	if rec, recErr := s.driver.Item(id); recErr == nil {
		name = rec.Name
	}
	details := map[string]any{"action": req.Action}
	if req.Action == "set" {
		details["value"] = req.Value
	}
	s.recordActivity(r, audit.ActionCommand, id, name, details)

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// itemID parses the {id} URL parameter, writing a 400 response on failure.
func itemID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeBadRequest(w, fmt.Sprintf("invalid item id %q", raw))
		return 0, false
	}
	return id, true
}

// writeDriverError maps driver and item errors onto HTTP status codes.
func (s *Server) writeDriverError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, driver.ErrNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, driver.ErrDuplicateName):
		writeConflict(w, err.Error())
	case errors.Is(err, driver.ErrNameImmutable),
		errors.Is(err, driver.ErrKindImmutable),
		errors.Is(err, item.ErrNotCommandable),
		errors.Is(err, item.ErrNoCommandTopic),
		errors.Is(err, item.ErrInvalidItem),
		errors.Is(err, item.ErrInvalidName),
		errors.Is(err, item.ErrUnknownKind),
		errors.Is(err, item.ErrInvalidQoS),
		errors.Is(err, item.ErrInvalidOptimistic),
		errors.Is(err, item.ErrInvalidSensorType),
		errors.Is(err, item.ErrInvalidUnit):
		writeBadRequest(w, err.Error())
	default:
		s.logger.Error("item operation failed", "error", err)
		writeInternalError(w, "internal server error")
	}
}
