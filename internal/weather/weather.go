// Package weather rolls the wind and glass hour by hour, and can seed a new
// voyage from real conditions reported by OpenWeatherMap.
package weather

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/talgya/drowned-chart/internal/world"
)

const owmURL = "https://api.openweathermap.org/data/2.5/weather"

// Client fetches weather data from OpenWeatherMap.
type Client struct {
	apiKey   string
	location string
	endpoint string
	client   *http.Client

	mu          sync.Mutex
	cached      *Conditions
	cachedAt    time.Time
	cacheTTL    time.Duration
	lastFailAt  time.Time
	failBackoff time.Duration
}

// NewClient creates a weather API client. Returns nil if apiKey is empty.
func NewClient(apiKey, location string) *Client {
	if apiKey == "" {
		return nil
	}
	if location == "" {
		location = "Reykjavik,IS"
	}
	return &Client{
		apiKey:   apiKey,
		location: location,
		endpoint: owmURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		cacheTTL: 5 * time.Minute,
	}
}

// Conditions holds parsed weather data from the API.
type Conditions struct {
	Description string  `json:"description"`
	WindSpeed   float64 `json:"wind_speed"` // m/s
	WindDeg     float64 `json:"wind_deg"`   // direction the wind blows from
	Pressure    float64 `json:"pressure"`   // hPa
	IsStorm     bool    `json:"is_storm"`
}

// Fetch retrieves current conditions, using the cache if fresh.
func (c *Client) Fetch() (*Conditions, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.cachedAt) < c.cacheTTL {
		return c.cached, nil
	}

	// Backoff on repeated failures (up to 10 minutes).
	if c.failBackoff > 0 && time.Since(c.lastFailAt) < c.failBackoff {
		if c.cached != nil {
			return c.cached, nil
		}
		return nil, fmt.Errorf("weather API backoff (%s remaining)", c.failBackoff-time.Since(c.lastFailAt))
	}

	conditions, err := c.fetchFromAPI()
	if err != nil {
		c.lastFailAt = time.Now()
		if c.failBackoff == 0 {
			c.failBackoff = 1 * time.Minute
		} else if c.failBackoff < 10*time.Minute {
			c.failBackoff *= 2
		}
		if c.cached != nil {
			return c.cached, nil
		}
		return nil, err
	}

	c.cached = conditions
	c.cachedAt = time.Now()
	c.failBackoff = 0
	return conditions, nil
}

func (c *Client) fetchFromAPI() (*Conditions, error) {
	apiURL := fmt.Sprintf("%s?q=%s&appid=%s&units=metric", c.endpoint, url.QueryEscape(c.location), c.apiKey)

	resp, err := c.client.Get(apiURL)
	if err != nil {
		return nil, fmt.Errorf("weather API call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API error %d: %s", resp.StatusCode, string(body))
	}

	var owm struct {
		Main struct {
			Pressure float64 `json:"pressure"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   float64 `json:"deg"`
		} `json:"wind"`
	}

	if err := json.Unmarshal(body, &owm); err != nil {
		return nil, fmt.Errorf("parse weather: %w", err)
	}

	conditions := &Conditions{
		WindSpeed: owm.Wind.Speed,
		WindDeg:   owm.Wind.Deg,
		Pressure:  owm.Main.Pressure,
	}
	if len(owm.Weather) > 0 {
		conditions.Description = owm.Weather[0].Description
		main := strings.ToLower(owm.Weather[0].Main)
		conditions.IsStorm = main == "thunderstorm" || conditions.WindSpeed > 15
	}

	slog.Debug("weather fetched", "wind", conditions.WindSpeed, "pressure", conditions.Pressure, "desc", conditions.Description)
	return conditions, nil
}

// knotsPerMS converts metres per second to knots.
const knotsPerMS = 1.94384

// Apply seeds s from real conditions: wind speed and direction, and the
// glass. A nil c leaves s unchanged.
func Apply(s *State, c *Conditions) {
	if c == nil {
		return
	}
	s.WindSpeed = clamp(c.WindSpeed*knotsPerMS, 0, MaxWind)
	s.WindDir = world.Direction(int(c.WindDeg/45+0.5) % 8)
	if c.Pressure > 0 {
		s.Baro = clamp(c.Pressure, MinBaro, MaxBaro)
		s.BaroTarget = s.Baro
	}
	s.Classify()
}
