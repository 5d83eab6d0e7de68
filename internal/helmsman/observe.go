// Package helmsman implements an autopilot for a running voyage.
// It observes the ship via the API, decides on one helm action with
// fixed rules, and acts through the bearer-protected helm endpoints.
package helmsman

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/drowned-chart/internal/crew"
)

// Snapshot holds all data collected during an observation cycle.
type Snapshot struct {
	Status Status    `json:"status"`
	Ship   ShipView  `json:"ship"`
	Chart  ChartView `json:"chart"`
}

// Status mirrors GET /api/v1/status.
type Status struct {
	RunID       string    `json:"run_id"`
	Tick        uint64    `json:"tick"`
	SimTime     string    `json:"sim_time"`
	Mode        string    `json:"mode"`
	Heading     string    `json:"heading"`
	Speed       float64   `json:"speed"`
	Scene       string    `json:"scene"`
	Location    string    `json:"location"`
	EstimatedX  float64   `json:"estimated_x"`
	EstimatedY  float64   `json:"estimated_y"`
	NavError    float64   `json:"nav_error"`
	Bilge       float64   `json:"bilge"`
	Hull        int       `json:"hull"`
	MaxHull     int       `json:"max_hull"`
	Food        float64   `json:"food"`
	Water       float64   `json:"water"`
	Weather     string    `json:"weather"`
	Beaufort    int       `json:"beaufort"`
	Lost        bool      `json:"lost"`
	Busy        bool      `json:"busy"`
	CanSunSight bool      `json:"can_sun_sight"`
	CanStarFix  bool      `json:"can_star_fix"`
	Crew        crew.Crew `json:"crew"`
}

// ShipView mirrors the parts of GET /api/v1/ship the helmsman reads.
type ShipView struct {
	Materials map[string]int `json:"materials"`
	Stats     struct {
		PumpRate float64 `json:"pump_rate"`
		LeakRate float64 `json:"leak_rate"`
	} `json:"stats"`
}

// Mark mirrors one chart mark.
type Mark struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Pale      bool    `json:"pale"`
	EstX      float64 `json:"est_x"`
	EstY      float64 `json:"est_y"`
	Error     float64 `json:"error"`
	Scavenged bool    `json:"scavenged"`
	Confirmed bool    `json:"confirmed"`
}

// ChartView mirrors GET /api/v1/chart.
type ChartView struct {
	NavError float64 `json:"nav_error"`
	Marks    []Mark  `json:"marks"`
}

// Observer fetches voyage state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches status, ship and chart.
func (o *Observer) Observe() (*Snapshot, error) {
	snap := &Snapshot{}

	if err := o.fetchJSON("/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON("/api/v1/ship", &snap.Ship); err != nil {
		return nil, fmt.Errorf("fetch ship: %w", err)
	}
	if err := o.fetchJSON("/api/v1/chart", &snap.Chart); err != nil {
		return nil, fmt.Errorf("fetch chart: %w", err)
	}
	return snap, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(path string, target any) error {
	resp, err := o.HTTPClient.Get(o.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
