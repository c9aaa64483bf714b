package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/nerrad567/itembridge/internal/audit"
	"github.com/nerrad567/itembridge/internal/driver"
	"github.com/nerrad567/itembridge/internal/infrastructure/logging"
	"github.com/nerrad567/itembridge/internal/item"
)

// fakeDriver is an in-memory Driver implementation for handler tests.
type fakeDriver struct {
	items    map[int]item.Item
	nextID   int
	status   string
	commands []string
	setErr   error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		items:  make(map[int]item.Item),
		nextID: 1000,
		status: "Connected",
	}
}

func (f *fakeDriver) AddItem(_ context.Context, rec item.Item) (item.Item, error) {
	if err := item.Validate(&rec); err != nil {
		return item.Item{}, err
	}
	for _, existing := range f.items {
		if existing.Name == rec.Name {
			return item.Item{}, driver.ErrDuplicateName
		}
	}
	rec.ID = f.nextID
	f.nextID++
	f.items[rec.ID] = rec
	return rec, nil
}

func (f *fakeDriver) UpdateItem(_ context.Context, id int, rec item.Item) (item.Item, error) {
	current, ok := f.items[id]
	if !ok {
		return item.Item{}, driver.ErrNotFound
	}
	if rec.Name != current.Name {
		return item.Item{}, driver.ErrNameImmutable
	}
	if rec.Kind != current.Kind {
		return item.Item{}, driver.ErrKindImmutable
	}
	rec.ID = id
	f.items[id] = rec
	return rec, nil
}

func (f *fakeDriver) RemoveItem(_ context.Context, id int) error {
	if _, ok := f.items[id]; !ok {
		return driver.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeDriver) Item(id int) (item.Item, error) {
	rec, ok := f.items[id]
	if !ok {
		return item.Item{}, driver.ErrNotFound
	}
	return rec, nil
}

func (f *fakeDriver) Snapshot(id int) (item.Snapshot, error) {
	rec, ok := f.items[id]
	if !ok {
		return item.Snapshot{}, driver.ErrNotFound
	}
	return item.Snapshot{Item: rec, State: "unknown"}, nil
}

func (f *fakeDriver) Snapshots() []item.Snapshot {
	out := make([]item.Snapshot, 0, len(f.items))
	for _, rec := range f.items {
		out = append(out, item.Snapshot{Item: rec, State: "unknown"})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item.ID < out[j].Item.ID })
	return out
}

func (f *fakeDriver) TurnOn(id int) error  { return f.command(id, "on") }
func (f *fakeDriver) TurnOff(id int) error { return f.command(id, "off") }
func (f *fakeDriver) Press(id int) error   { return f.command(id, "press") }
func (f *fakeDriver) Status() string       { return f.status }

func (f *fakeDriver) SetVariable(id int, value string) error {
	if err := f.command(id, "set="+value); err != nil {
		return err
	}
	return nil
}

func (f *fakeDriver) command(id int, action string) error {
	if _, ok := f.items[id]; !ok {
		return driver.ErrNotFound
	}
	if f.setErr != nil {
		return f.setErr
	}
	f.commands = append(f.commands, action)
	return nil
}

func newTestServer(t *testing.T) (*Server, *fakeDriver) {
	t.Helper()
	drv := newFakeDriver()
	server, err := New(Deps{
		Logger:  logging.Default(),
		Driver:  drv,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return server, drv
}

func doRequest(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	server.buildRouter().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
}

func TestStatus(t *testing.T) {
	server, drv := newTestServer(t)
	drv.status = "Connecting"
	drv.items[1000] = item.Item{ID: 1000, Name: "door", Kind: item.KindContact}

	rec := doRequest(t, server, http.MethodGet, "/api/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["status"] != "Connecting" {
		t.Errorf("driver status = %v, want Connecting", body["status"])
	}
	if body["items"] != float64(1) {
		t.Errorf("items = %v, want 1", body["items"])
	}
}

func TestCreateItem(t *testing.T) {
	server, drv := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/items",
		`{"name": "porch", "kind": "relay", "command_topic": "porch/cmd"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var created item.Item
	decodeBody(t, rec, &created)
	if created.ID != 1000 {
		t.Errorf("ID = %d, want 1000", created.ID)
	}
	if _, ok := drv.items[created.ID]; !ok {
		t.Error("item not stored in driver")
	}
}

func TestCreateItem_DefaultQoS(t *testing.T) {
	drv := newFakeDriver()
	server, err := New(Deps{
		Logger:     logging.Default(),
		Driver:     drv,
		Version:    "test",
		DefaultQoS: 1,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// No qos in the body: the configured default applies.
	rec := doRequest(t, server, http.MethodPost, "/api/v1/items",
		`{"name": "porch", "kind": "relay", "command_topic": "porch/cmd"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created item.Item
	decodeBody(t, rec, &created)
	if created.QoS != 1 {
		t.Errorf("QoS = %d, want default 1", created.QoS)
	}

	// An explicit qos of 0 is a choice, not an omission.
	rec = doRequest(t, server, http.MethodPost, "/api/v1/items",
		`{"name": "hall", "kind": "relay", "qos": 0, "command_topic": "hall/cmd"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &created)
	if created.QoS != 0 {
		t.Errorf("QoS = %d, want explicit 0", created.QoS)
	}
}

func TestCreateItem_ValidationErrors(t *testing.T) {
	server, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{`, http.StatusBadRequest},
		{"missing name", `{"kind": "relay"}`, http.StatusBadRequest},
		{"unknown kind", `{"name": "x", "kind": "dimmer"}`, http.StatusBadRequest},
		{"bad qos", `{"name": "x", "kind": "relay", "qos": 3}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, server, http.MethodPost, "/api/v1/items", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d, body %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCreateItem_DuplicateName(t *testing.T) {
	server, _ := newTestServer(t)

	body := `{"name": "porch", "kind": "relay"}`
	if rec := doRequest(t, server, http.MethodPost, "/api/v1/items", body); rec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", rec.Code)
	}

	rec := doRequest(t, server, http.MethodPost, "/api/v1/items", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}

	var apiErr Error
	decodeBody(t, rec, &apiErr)
	if apiErr.Code != CodeConflict {
		t.Errorf("error code = %q, want %q", apiErr.Code, CodeConflict)
	}
}

func TestGetItem(t *testing.T) {
	server, drv := newTestServer(t)
	drv.items[1000] = item.Item{ID: 1000, Name: "door", Kind: item.KindContact}

	rec := doRequest(t, server, http.MethodGet, "/api/v1/items/1000", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var snapshot item.Snapshot
	decodeBody(t, rec, &snapshot)
	if snapshot.Item.Name != "door" {
		t.Errorf("name = %q, want door", snapshot.Item.Name)
	}
}

func TestGetItem_NotFound(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/items/42", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetItem_InvalidID(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/items/porch", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdateItem_PartialMerge(t *testing.T) {
	server, drv := newTestServer(t)
	drv.items[1000] = item.Item{
		ID: 1000, Name: "porch", Kind: item.KindRelay,
		StateTopic: "porch/state", CommandTopic: "porch/cmd",
	}

	rec := doRequest(t, server, http.MethodPatch, "/api/v1/items/1000",
		`{"state_topic": "porch/status"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var updated item.Item
	decodeBody(t, rec, &updated)
	if updated.StateTopic != "porch/status" {
		t.Errorf("StateTopic = %q, want porch/status", updated.StateTopic)
	}
	if updated.CommandTopic != "porch/cmd" {
		t.Errorf("CommandTopic = %q, fields outside the patch must survive", updated.CommandTopic)
	}
}

func TestUpdateItem_ImmutableFields(t *testing.T) {
	server, drv := newTestServer(t)
	drv.items[1000] = item.Item{ID: 1000, Name: "porch", Kind: item.KindRelay}

	tests := []struct {
		name string
		body string
	}{
		{"rename", `{"name": "hallway"}`},
		{"rekind", `{"kind": "contact"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, server, http.MethodPatch, "/api/v1/items/1000", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestDeleteItem(t *testing.T) {
	server, drv := newTestServer(t)
	drv.items[1000] = item.Item{ID: 1000, Name: "porch", Kind: item.KindRelay}

	rec := doRequest(t, server, http.MethodDelete, "/api/v1/items/1000", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if _, ok := drv.items[1000]; ok {
		t.Error("item still present after delete")
	}

	rec = doRequest(t, server, http.MethodDelete, "/api/v1/items/1000", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestItemCommand(t *testing.T) {
	server, drv := newTestServer(t)
	drv.items[1000] = item.Item{ID: 1000, Name: "porch", Kind: item.KindRelay}

	tests := []struct {
		body string
		want string
	}{
		{`{"action": "on"}`, "on"},
		{`{"action": "off"}`, "off"},
		{`{"action": "press"}`, "press"},
		{`{"action": "set", "value": "42"}`, "set=42"},
	}
	for _, tt := range tests {
		rec := doRequest(t, server, http.MethodPost, "/api/v1/items/1000/command", tt.body)
		if rec.Code != http.StatusOK {
			t.Fatalf("command %s status = %d, body %s", tt.body, rec.Code, rec.Body.String())
		}
	}
	if got := strings.Join(drv.commands, ","); got != "on,off,press,set=42" {
		t.Errorf("commands = %q", got)
	}
}

func TestItemCommand_Errors(t *testing.T) {
	server, drv := newTestServer(t)
	drv.items[1000] = item.Item{ID: 1000, Name: "porch", Kind: item.KindRelay}

	rec := doRequest(t, server, http.MethodPost, "/api/v1/items/1000/command",
		`{"action": "toggle"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown action status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doRequest(t, server, http.MethodPost, "/api/v1/items/9999/command",
		`{"action": "on"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing item status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	drv.setErr = item.ErrNoCommandTopic
	rec = doRequest(t, server, http.MethodPost, "/api/v1/items/1000/command",
		`{"action": "on"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("no command topic status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestListItems(t *testing.T) {
	server, drv := newTestServer(t)
	drv.items[1001] = item.Item{ID: 1001, Name: "hall", Kind: item.KindRelay}
	drv.items[1000] = item.Item{ID: 1000, Name: "door", Kind: item.KindContact}

	rec := doRequest(t, server, http.MethodGet, "/api/v1/items", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Items []item.Snapshot `json:"items"`
		Count int             `json:"count"`
	}
	decodeBody(t, rec, &body)
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2", body.Count)
	}
	if body.Items[0].Item.ID != 1000 || body.Items[1].Item.ID != 1001 {
		t.Error("items not ordered by id")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/health", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	rr := httptest.NewRecorder()
	server.buildRouter().ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "caller-supplied" {
		t.Errorf("X-Request-ID = %q, want caller-supplied", got)
	}
}

func TestBodySizeLimit(t *testing.T) {
	server, _ := newTestServer(t)

	oversized := `{"name": "` + strings.Repeat("a", maxRequestBodySize+1) + `", "kind": "relay"}`
	rec := doRequest(t, server, http.MethodPost, "/api/v1/items", oversized)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Deps{Driver: newFakeDriver()}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: logging.Default()}); err == nil {
		t.Error("New() without driver should fail")
	}
}

func TestWriteDriverError_Unmapped(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.writeDriverError(rec, errors.New("disk on fire"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	var apiErr Error
	if err := json.NewDecoder(rec.Body).Decode(&apiErr); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if strings.Contains(apiErr.Error, "disk on fire") {
		t.Error("internal error detail leaked to client")
	}
}

// fakeAudit records activity entries in memory.
type fakeAudit struct {
	entries []audit.Entry
}

func (f *fakeAudit) Create(_ context.Context, entry *audit.Entry) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAudit) List(_ context.Context, _ audit.Filter) (*audit.ListResult, error) {
	out := make([]audit.Entry, len(f.entries))
	copy(out, f.entries)
	return &audit.ListResult{Entries: out, Total: len(out)}, nil
}

func TestMutationsRecordActivity(t *testing.T) {
	drv := newFakeDriver()
	rec := &fakeAudit{}
	server, err := New(Deps{
		Logger: logging.Default(),
		Driver: drv,
		Audit:  rec,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	doRequest(t, server, http.MethodPost, "/api/v1/items",
		`{"name": "porch", "kind": "relay"}`)
	doRequest(t, server, http.MethodPost, "/api/v1/items/1000/command",
		`{"action": "on"}`)
	doRequest(t, server, http.MethodDelete, "/api/v1/items/1000", "")

	if len(rec.entries) != 3 {
		t.Fatalf("recorded %d entries, want 3", len(rec.entries))
	}
	wantActions := []string{audit.ActionCreate, audit.ActionCommand, audit.ActionDelete}
	for i, want := range wantActions {
		if rec.entries[i].Action != want {
			t.Errorf("entry %d action = %q, want %q", i, rec.entries[i].Action, want)
		}
	}
	if rec.entries[0].ItemName != "porch" {
		t.Errorf("create entry name = %q, want porch", rec.entries[0].ItemName)
	}

	resp := doRequest(t, server, http.MethodGet, "/api/v1/audit", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("audit list status = %d", resp.Code)
	}
	var result audit.ListResult
	decodeBody(t, resp, &result)
	if result.Total != 3 {
		t.Errorf("audit total = %d, want 3", result.Total)
	}
}

func TestListAudit_WithoutRepository(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/audit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var result audit.ListResult
	decodeBody(t, rec, &result)
	if result.Entries == nil || len(result.Entries) != 0 {
		t.Errorf("entries = %v, want empty", result.Entries)
	}
}
