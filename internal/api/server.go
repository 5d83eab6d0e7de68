// Package api provides the HTTP API for a running voyage.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (the helm).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sasha-s/go-deadlock"

	"github.com/talgya/drowned-chart/internal/engine"
	"github.com/talgya/drowned-chart/internal/entropy"
	"github.com/talgya/drowned-chart/internal/nav"
	"github.com/talgya/drowned-chart/internal/persistence"
	"github.com/talgya/drowned-chart/internal/provisions"
	"github.com/talgya/drowned-chart/internal/savegame"
	"github.com/talgya/drowned-chart/internal/ship"
	"github.com/talgya/drowned-chart/internal/world"
)

// MaxAdvanceHours caps a single /advance request.
const MaxAdvanceHours = 72

// Server serves one voyage over HTTP. Every engine access goes through mu.
type Server struct {
	Eng      *engine.Engine
	DB       *persistence.DB // optional
	Slot     string
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// AdvancePerMinute limits /advance per client. Zero disables the limit.
	AdvancePerMinute int
	// TrustProxy keys the limit on X-Forwarded-For. Only set it behind a
	// reverse proxy that overwrites the header.
	TrustProxy bool

	// ExportDir holds save files for /snapshot?export= and /voyage?import=.
	// Empty disables both.
	ExportDir string

	// NewVoyage builds a fresh state for POST /api/v1/voyage. Nil disables it.
	NewVoyage func() *engine.State

	mu  deadlock.Mutex
	hub *hub
}

// NewServer wires a server around eng and starts relaying advance results
// to stream subscribers. Any OnAdvance hook already set keeps running first.
func NewServer(eng *engine.Engine, db *persistence.DB, slot string, port int, adminKey string) *Server {
	s := &Server{
		Eng:      eng,
		DB:       db,
		Slot:     slot,
		Port:     port,
		AdminKey: adminKey,
		hub:      newHub(),
	}
	prev := eng.OnAdvance
	eng.OnAdvance = func(st *engine.State, res engine.Result) {
		if prev != nil {
			prev(st, res)
		}
		s.hub.broadcast(streamMessage{Type: "advance", Day: st.Day, Hour: st.Hour, Mode: st.Mode, Result: res})
	}
	return s
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	if s.hub == nil {
		s.hub = newHub()
	}
	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/state", s.handleState)
	mux.HandleFunc("/api/v1/ship", s.handleShip)
	mux.HandleFunc("/api/v1/chart", s.handleChart)
	mux.HandleFunc("/api/v1/islands", s.handleIslands)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/saves", s.handleSaves)
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Helm endpoints (POST, require bearer token).
	advance := s.handleAdvance
	if s.AdvancePerMinute > 0 {
		rl := NewRateLimiter(s.AdvancePerMinute, time.Minute)
		rl.TrustProxy = s.TrustProxy
		advance = RateLimitMiddleware(rl, advance)
	}
	mux.HandleFunc("/api/v1/advance", s.adminOnly(advance))
	mux.HandleFunc("/api/v1/command", s.adminOnly(s.handleCommand))
	mux.HandleFunc("/api/v1/build", s.adminOnly(s.handleBuild))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("/api/v1/voyage", s.adminOnly(s.handleVoyage))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "advance_limit", s.AdvancePerMinute)

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require POST with bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "helm endpoints disabled (no DROWNED_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// statusFor maps engine and ship errors onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, engine.ErrLost):
		return http.StatusGone
	case errors.Is(err, engine.ErrUnavailable),
		errors.Is(err, provisions.ErrShort),
		errors.Is(err, ship.ErrOutOfBounds),
		errors.Is(err, ship.ErrOccupied),
		errors.Is(err, ship.ErrEmpty),
		errors.Is(err, ship.ErrUnknownBlock),
		errors.Is(err, ship.ErrNoNeighbor),
		errors.Is(err, ship.ErrNeedsStay),
		errors.Is(err, ship.ErrCost),
		errors.Is(err, ship.ErrKeel),
		errors.Is(err, ship.ErrNotHull),
		errors.Is(err, ship.ErrSealed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.Eng.State
	stats := st.Ship.Stats()
	estX, estY := s.Eng.EstimatedPosition()
	out := map[string]any{
		"name":          "The Drowned Chart",
		"run_id":        st.RunID,
		"tick":          engine.Tick(st.Day, st.Hour),
		"sim_time":      engine.SimTime(st.Day, st.Hour),
		"watch":         engine.Watch(st.Hour),
		"mode":          st.Mode,
		"heading":       st.Heading.String(),
		"speed":         st.Speed,
		"scene":         st.Scene,
		"location":      st.LocationName,
		"estimated_x":   estX,
		"estimated_y":   estY,
		"nav_error":     st.NavError,
		"bilge":         st.Bilge,
		"hull":          stats.CurHull,
		"max_hull":      stats.MaxHull,
		"food":          st.Food.Total(),
		"water":         st.Water.Total(),
		"crew":          st.Crew,
		"weather":       st.Weather.Category,
		"beaufort":      st.Weather.Beaufort,
		"terminal":      st.Terminal,
		"lost":          st.Lost(),
		"busy":          s.Eng.Busy(),
		"stream_conns":  s.hub.count(),
		"discoveries":   len(st.Chart.Discovered),
		"can_sun_sight": s.Eng.CanSunSight(),
		"can_star_fix":  s.Eng.CanStarFix(),
	}
	if c, ok := s.Eng.RNG.(*entropy.Client); ok {
		out["entropy_pool"] = c.Pooled()
	}
	writeJSON(w, out)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.Eng.State)
}

func (s *Server) handleShip(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.Eng.State.Ship
	writeJSON(w, map[string]any{
		"grid":      g.Snapshot(),
		"stats":     g.Stats(),
		"materials": s.Eng.State.Materials,
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.Eng.State
	c := st.Chart
	marks := make([]nav.Mark, 0, len(c.Marks))
	for _, m := range c.Marks {
		marks = append(marks, *m)
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].ID < marks[j].ID })

	estX, estY := s.Eng.EstimatedPosition()
	writeJSON(w, map[string]any{
		"estimated": nav.Point{X: estX, Y: estY},
		"nav_error": st.NavError,
		"marks":     marks,
		"fog":       c.FogKeys(),
		"explored":  c.Explored,
		"rumors":    c.Rumors,
		"trail":     st.Trail,
	})
}

func (s *Server) handleIslands(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]nav.Discovery, 0, len(s.Eng.State.Chart.Discovered))
	for _, d := range s.Eng.State.Chart.Discovered {
		found = append(found, d)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	writeJSON(w, found)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	s.mu.Lock()
	runID := s.Eng.State.RunID
	events := append([]engine.Event(nil), s.Eng.Events...)
	s.mu.Unlock()

	// Archived events outlive the in-memory ring.
	if r.URL.Query().Get("source") == "db" && s.DB != nil {
		archived, err := s.DB.RecentEvents(runID, limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, archived)
		return
	}

	if category := r.URL.Query().Get("category"); category != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

func (s *Server) handleSaves(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSON(w, []persistence.SaveInfo{})
		return
	}
	saves, err := s.DB.ListSaves()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, saves)
}

type advanceRequest struct {
	Hours     int  `json:"hours"`
	SkipScene bool `json:"skip_scene"`
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Hours < 1 || req.Hours > MaxAdvanceHours {
		http.Error(w, fmt.Sprintf("hours must be 1-%d", MaxAdvanceHours), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.Eng.AdvanceTime(req.Hours, engine.AdvanceOptions{SkipScene: req.SkipScene})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.outcome(res))
}

// outcome bundles a result with the post-advance headline numbers.
func (s *Server) outcome(res engine.Result) map[string]any {
	st := s.Eng.State
	return map[string]any{
		"result":   res,
		"sim_time": engine.SimTime(st.Day, st.Hour),
		"mode":     st.Mode,
		"scene":    st.Scene,
		"bilge":    st.Bilge,
		"lost":     st.Lost(),
	}
}

type commandRequest struct {
	Action   string `json:"action"`
	Heading  string `json:"heading,omitempty"`
	Maneuver string `json:"maneuver,omitempty"`
	Label    string `json:"label,omitempty"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	eng := s.Eng
	var (
		res   engine.Result
		extra = map[string]any{}
		err   error
	)
	switch req.Action {
	case "make_sail", "weigh_anchor":
		err = eng.MakeSail()
		res.Scene = eng.State.Scene
	case "heave_to":
		err = eng.HeaveTo()
		res.Scene = eng.State.Scene
	case "drop_anchor":
		err = eng.DropAnchor()
		res.Scene = eng.State.Scene
	case "wait":
		res, err = eng.Wait()
	case "steer":
		dir, ok := world.ParseDirection(strings.ToUpper(req.Heading))
		if !ok {
			http.Error(w, "unknown heading: "+req.Heading, http.StatusBadRequest)
			return
		}
		res, err = eng.Steer(dir, engine.Maneuver(req.Maneuver))
	case "pump":
		res, err = eng.PumpBilge()
	case "fish":
		res, err = eng.Fish()
	case "sun_sight":
		res, err = eng.TakeSunSight()
	case "star_fix":
		res, err = eng.TakeStarFix()
	case "patch_hull":
		res, err = eng.PatchHull()
	case "adjust_rigging":
		res, err = eng.AdjustRigging()
	case "scavenge":
		res, err = eng.Scavenge()
	case "hear_rumor":
		var rumor nav.Rumor
		rumor, err = eng.HearRumor()
		extra["rumor"] = rumor
		res.Scene = eng.State.Scene
	case "note":
		if strings.TrimSpace(req.Label) == "" {
			http.Error(w, "label required", http.StatusBadRequest)
			return
		}
		var m *nav.Mark
		m, err = eng.AddChartNote(req.Label)
		extra["mark"] = m
		res.Scene = eng.State.Scene
	default:
		http.Error(w, "unknown action: "+req.Action, http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	out := s.outcome(res)
	for k, v := range extra {
		out[k] = v
	}
	slog.Info("helm command", "action", req.Action, "time", engine.SimTime(eng.State.Day, eng.State.Hour))
	writeJSON(w, out)
}

type buildRequest struct {
	Action string `json:"action"` // place, remove, caulk
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Block  string `json:"block,omitempty"`
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		dropped int
		effects []engine.Effect
		err     error
	)
	switch req.Action {
	case "place":
		err = s.Eng.Build(req.X, req.Y, req.Block)
	case "remove":
		dropped, effects, err = s.Eng.Dismantle(req.X, req.Y)
	case "caulk":
		err = s.Eng.Caulk(req.X, req.Y)
	default:
		http.Error(w, "unknown build action: "+req.Action, http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if effects == nil {
		effects = []engine.Effect{}
	}
	g := s.Eng.State.Ship
	writeJSON(w, map[string]any{
		"dropped":   dropped,
		"effects":   effects,
		"stats":     g.Stats(),
		"materials": s.Eng.State.Materials,
	})
}

// Save writes the voyage to its slot under the server lock.
func (s *Server) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Server) saveLocked() error {
	if s.DB == nil {
		return errors.New("no database configured")
	}
	st := s.Eng.State
	if st.Lost() {
		return engine.ErrLost
	}
	return s.DB.SaveVoyage(s.Slot, st, s.Eng.DrainEvents())
}

// errNoExportDir is returned when export or import is asked for but no
// directory is configured.
var errNoExportDir = errors.New("save export disabled (no export_dir set)")

// exportPath resolves a client-supplied save name inside ExportDir. Only the
// final path element is kept.
func (s *Server) exportPath(name string) (string, error) {
	if s.ExportDir == "" {
		return "", errNoExportDir
	}
	base := filepath.Base(name)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid save name %q", name)
	}
	if filepath.Ext(base) == "" {
		base += ".zst"
	}
	return filepath.Join(s.ExportDir, base), nil
}

// handleSnapshot forces a save of the current voyage. With ?export=<name>
// the voyage is also written to a file under ExportDir.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	export := r.URL.Query().Get("export")
	if s.DB == nil && export == "" {
		http.Error(w, "no database configured", http.StatusServiceUnavailable)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.Eng.State
	out := map[string]any{"sim_time": engine.SimTime(st.Day, st.Hour)}

	if s.DB != nil {
		if err := s.saveLocked(); err != nil {
			writeError(w, err)
			return
		}
		slog.Info("manual snapshot saved", "slot", s.Slot, "time", engine.SimTime(st.Day, st.Hour))
		out["status"] = "saved"
		out["slot"] = s.Slot
	}

	if export != "" {
		path, err := s.exportPath(export)
		switch {
		case errors.Is(err, errNoExportDir):
			http.Error(w, err.Error(), http.StatusNotImplemented)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case st.Lost():
			writeError(w, engine.ErrLost)
			return
		}
		if err := savegame.WriteFile(path, savegame.Capture(st)); err != nil {
			slog.Error("save export failed", "path", path, "error", err)
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}
		slog.Info("voyage exported", "path", path)
		out["status"] = "saved"
		out["export"] = filepath.Base(path)
	}
	writeJSON(w, out)
}

// handleVoyage abandons the current voyage and starts a new one. With
// ?import=<name> the new voyage is read from a file under ExportDir.
func (s *Server) handleVoyage(w http.ResponseWriter, r *http.Request) {
	importName := r.URL.Query().Get("import")
	if s.NewVoyage == nil && importName == "" {
		http.Error(w, "new voyages disabled", http.StatusNotImplemented)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var next *engine.State
	if importName != "" {
		path, err := s.exportPath(importName)
		switch {
		case errors.Is(err, errNoExportDir):
			http.Error(w, err.Error(), http.StatusNotImplemented)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		doc, err := savegame.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "no such save: "+filepath.Base(path), http.StatusNotFound)
			return
		}
		if err == nil {
			next, err = savegame.Restore(doc, s.Eng.State.Chart.Cfg)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		if next.Lost() {
			writeError(w, engine.ErrLost)
			return
		}
	} else {
		next = s.NewVoyage()
	}

	if s.DB != nil {
		if err := s.DB.DeleteSave(s.Slot); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	if err := s.Eng.Reset(next); err != nil {
		writeError(w, err)
		return
	}
	st := s.Eng.State
	if importName != "" && s.DB != nil {
		if err := s.DB.SaveVoyage(s.Slot, st, nil); err != nil {
			slog.Error("imported voyage save failed", "error", err)
		}
	}
	slog.Info("new voyage", "run", st.RunID, "seed", st.WorldSeed, "imported", importName != "")
	writeJSON(w, map[string]any{
		"run_id":     st.RunID,
		"world_seed": st.WorldSeed,
		"sim_time":   engine.SimTime(st.Day, st.Hour),
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
