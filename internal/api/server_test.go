package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/drowned-chart/internal/engine"
	"github.com/talgya/drowned-chart/internal/entropy"
	"github.com/talgya/drowned-chart/internal/persistence"
	"github.com/talgya/drowned-chart/internal/provisions"
	"github.com/talgya/drowned-chart/internal/ship"
	"github.com/talgya/drowned-chart/internal/world"
)

const testKey = "helm-secret"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st := engine.NewState(1234, world.DefaultGenConfig(), engine.DefaultStart())
	st.Bilge = 0
	eng := engine.New(st, world.DefaultGenConfig(), entropy.Fixed(0.5))
	return NewServer(eng, nil, persistence.DefaultSlot, 0, testKey)
}

func post(t *testing.T, h http.Handler, path, key string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s.Handler(), "/api/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, "Hove-to", out["mode"])
	assert.Equal(t, "Day 1, 08:00", out["sim_time"])
	assert.Equal(t, "S", out["heading"])
	assert.Equal(t, false, out["lost"])
	assert.NotContains(t, out, "entropy_pool")
}

func TestStatusReportsEntropyPool(t *testing.T) {
	s := newTestServer(t)
	s.Eng.RNG = entropy.NewClient("random-org-key")
	out := decode(t, get(t, s.Handler(), "/api/v1/status"))
	assert.EqualValues(t, 0, out["entropy_pool"])
}

func TestHelmAuth(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	assert.Equal(t, http.StatusUnauthorized, post(t, h, "/api/v1/advance", "", advanceRequest{Hours: 1}).Code)
	assert.Equal(t, http.StatusUnauthorized, post(t, h, "/api/v1/advance", "wrong", advanceRequest{Hours: 1}).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, get(t, h, "/api/v1/advance").Code)

	s.AdminKey = ""
	assert.Equal(t, http.StatusForbidden, post(t, s.Handler(), "/api/v1/advance", testKey, advanceRequest{Hours: 1}).Code)
}

func TestAdvance(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := post(t, h, "/api/v1/advance", testKey, advanceRequest{Hours: 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "Day 1, 12:00", out["sim_time"])
	assert.Equal(t, 12, s.Eng.State.Hour)

	assert.Equal(t, http.StatusBadRequest, post(t, h, "/api/v1/advance", testKey, advanceRequest{Hours: 0}).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, "/api/v1/advance", testKey, advanceRequest{Hours: MaxAdvanceHours + 1}).Code)
}

func TestAdvanceAfterLoss(t *testing.T) {
	s := newTestServer(t)
	s.Eng.State.Mode = engine.ModeLost
	rec := post(t, s.Handler(), "/api/v1/advance", testKey, advanceRequest{Hours: 1})
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestAdvanceRateLimit(t *testing.T) {
	s := newTestServer(t)
	s.AdvancePerMinute = 1
	h := s.Handler()

	assert.Equal(t, http.StatusOK, post(t, h, "/api/v1/advance", testKey, advanceRequest{Hours: 1}).Code)
	rec := post(t, h, "/api/v1/advance", testKey, advanceRequest{Hours: 1})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func advanceFrom(t *testing.T, h http.Handler, forwarded string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/advance", strings.NewReader(`{"hours":1}`))
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("X-Forwarded-For", forwarded)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestAdvanceRateLimitIgnoresForwardedFor(t *testing.T) {
	s := newTestServer(t)
	s.AdvancePerMinute = 1
	h := s.Handler()

	assert.Equal(t, http.StatusOK, advanceFrom(t, h, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, advanceFrom(t, h, "10.0.0.2"))
}

func TestAdvanceRateLimitBehindTrustedProxy(t *testing.T) {
	s := newTestServer(t)
	s.AdvancePerMinute = 1
	s.TrustProxy = true
	h := s.Handler()

	assert.Equal(t, http.StatusOK, advanceFrom(t, h, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, advanceFrom(t, h, "10.0.0.2, 192.0.2.1"))
	assert.Equal(t, http.StatusTooManyRequests, advanceFrom(t, h, "10.0.0.1"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "[2001:db8::1]:4242"
	r.Header.Set("X-Forwarded-For", "10.0.0.9")
	assert.Equal(t, "2001:db8::1", clientIP(r, false))
	assert.Equal(t, "10.0.0.9", clientIP(r, true))

	r.Header.Del("X-Forwarded-For")
	assert.Equal(t, "2001:db8::1", clientIP(r, true))
}

func TestCommands(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := post(t, h, "/api/v1/command", testKey, commandRequest{Action: "steer", Heading: "e"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, world.East, s.Eng.State.Heading)

	assert.Equal(t, http.StatusBadRequest, post(t, h, "/api/v1/command", testKey, commandRequest{Action: "steer", Heading: "up"}).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, "/api/v1/command", testKey, commandRequest{Action: "dance"}).Code)

	// No port at sea.
	assert.Equal(t, http.StatusUnprocessableEntity, post(t, h, "/api/v1/command", testKey, commandRequest{Action: "hear_rumor"}).Code)

	rec = post(t, h, "/api/v1/command", testKey, commandRequest{Action: "note", Label: "kelp bed"})
	require.Equal(t, http.StatusOK, rec.Code)
	mark := decode(t, rec)["mark"].(map[string]any)
	assert.Equal(t, "kelp bed", mark["name"])

	rec = post(t, h, "/api/v1/command", testKey, commandRequest{Action: "make_sail"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, engine.ModeUnderway, s.Eng.State.Mode)

	rec = post(t, h, "/api/v1/command", testKey, commandRequest{Action: "pump"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBuild(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := post(t, h, "/api/v1/build", testKey, buildRequest{Action: "remove", X: 4, Y: 7})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = post(t, h, "/api/v1/build", testKey, buildRequest{Action: "place", X: 40, Y: 40, Block: "hull"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = post(t, h, "/api/v1/build", testKey, buildRequest{Action: "melt"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The starter plank is unsealed; one canvas seals it.
	s.Eng.State.Materials.Add(provisions.Canvas, 1)
	rec = post(t, h, "/api/v1/build", testKey, buildRequest{Action: "caulk", X: 4, Y: 8})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, s.Eng.State.Ship.Get(4, 8).Sealed)
}

func TestBuildReportsFallenBlocks(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	s.Eng.State.Materials.Add(provisions.Timber, 2)

	for _, x := range []int{3, 2} {
		rec := post(t, h, "/api/v1/build", testKey, buildRequest{Action: "place", X: x, Y: 7, Block: ship.Plank})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := post(t, h, "/api/v1/build", testKey, buildRequest{Action: "remove", X: 3, Y: 7})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.EqualValues(t, 1, out["dropped"])
	effects := out["effects"].([]any)
	require.Len(t, effects, 1)
	assert.Equal(t, string(engine.EffectDetached), effects[0].(map[string]any)["kind"])
}

func TestChartAndShip(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := get(t, h, "/api/v1/chart")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Contains(t, out, "estimated")
	assert.Contains(t, out, "marks")

	rec = get(t, h, "/api/v1/ship")
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode(t, rec)
	grid := out["grid"].(map[string]any)
	assert.EqualValues(t, 9, grid["width"])

	rec = get(t, h, "/api/v1/islands")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestEventsLimit(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 10; i++ {
		s.Eng.Events = append(s.Eng.Events, engine.Event{Tick: uint64(i), Description: "x", Category: "sea"})
	}
	s.Eng.Events = append(s.Eng.Events, engine.Event{Tick: 99, Description: "land", Category: "discovery"})

	var events []engine.Event
	rec := get(t, s.Handler(), "/api/v1/events?limit=3")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 3)
	assert.Equal(t, uint64(99), events[2].Tick)

	rec = get(t, s.Handler(), "/api/v1/events?category=discovery")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "land", events[0].Description)
}

func TestSnapshotAndNewVoyage(t *testing.T) {
	s := newTestServer(t)
	db, err := persistence.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s.DB = db
	h := s.Handler()

	rec := post(t, h, "/api/v1/snapshot", testKey, struct{}{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	has, err := db.HasSave(persistence.DefaultSlot)
	require.NoError(t, err)
	assert.True(t, has)

	rec = get(t, h, "/api/v1/saves")
	var saves []persistence.SaveInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saves))
	assert.Len(t, saves, 1)

	// Disabled until a builder is wired.
	assert.Equal(t, http.StatusNotImplemented, post(t, h, "/api/v1/voyage", testKey, struct{}{}).Code)

	oldRun := s.Eng.State.RunID
	s.NewVoyage = func() *engine.State {
		return engine.NewState(99, world.DefaultGenConfig(), engine.DefaultStart())
	}
	rec = post(t, h, "/api/v1/voyage", testKey, struct{}{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEqual(t, oldRun, s.Eng.State.RunID)
	assert.Equal(t, int32(99), s.Eng.State.WorldSeed)

	has, err = db.HasSave(persistence.DefaultSlot)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSnapshotExportAndImport(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	// No directory configured.
	assert.Equal(t, http.StatusNotImplemented, post(t, h, "/api/v1/snapshot?export=first", testKey, struct{}{}).Code)

	dir := t.TempDir()
	s.ExportDir = dir
	_, err := s.Eng.AdvanceTime(3, engine.AdvanceOptions{})
	require.NoError(t, err)
	want := s.Eng.State

	rec := post(t, h, "/api/v1/snapshot?export=../../first", testKey, struct{}{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "first.zst", decode(t, rec)["export"])
	assert.FileExists(t, filepath.Join(dir, "first.zst"))

	s.NewVoyage = func() *engine.State {
		return engine.NewState(99, world.DefaultGenConfig(), engine.DefaultStart())
	}
	require.Equal(t, http.StatusOK, post(t, h, "/api/v1/voyage", testKey, struct{}{}).Code)
	require.NotEqual(t, want.RunID, s.Eng.State.RunID)

	rec = post(t, h, "/api/v1/voyage?import=first.zst", testKey, struct{}{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := s.Eng.State
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Day, got.Day)
	assert.Equal(t, want.Hour, got.Hour)
	assert.InDelta(t, want.X, got.X, 1e-9)

	assert.Equal(t, http.StatusNotFound, post(t, h, "/api/v1/voyage?import=missing", testKey, struct{}{}).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, "/api/v1/snapshot?export=..", testKey, struct{}{}).Code)
}

func TestStreamRelaysAdvances(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.count() == 1 }, time.Second, 10*time.Millisecond)

	s.mu.Lock()
	_, err = s.Eng.AdvanceTime(2, engine.AdvanceOptions{})
	s.mu.Unlock()
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg streamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "advance", msg.Type)
	assert.Equal(t, 10, msg.Hour)
	assert.Equal(t, 2, msg.Result.Hours)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(engine.ErrBusy))
	assert.Equal(t, http.StatusGone, statusFor(engine.ErrLost))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(ship.ErrKeel))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(provisions.ErrShort))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
