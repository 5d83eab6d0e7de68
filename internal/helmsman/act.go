package helmsman

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Outcome is the headline of a helm response.
type Outcome struct {
	SimTime string `json:"sim_time"`
	Mode    string `json:"mode"`
	Scene   string `json:"scene"`
	Lost    bool   `json:"lost"`
	Result  struct {
		Hours     int    `json:"hours"`
		Encounter string `json:"encounter"`
		Terminal  string `json:"terminal"`
	} `json:"result"`
}

// Actor executes decisions via the helm API.
type Actor struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

// NewActor creates an Actor targeting the given API base URL with admin auth.
func NewActor(baseURL, adminKey string) *Actor {
	return &Actor{
		BaseURL:  baseURL,
		AdminKey: adminKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Act sends a decision to the matching helm endpoint.
func (a *Actor) Act(d Decision) (*Outcome, error) {
	switch d.Action {
	case ActionAdvance:
		return a.post("/api/v1/advance", map[string]int{"hours": d.Hours})
	case ActionCommand:
		if d.Command == nil {
			return nil, fmt.Errorf("command decision without a command")
		}
		return a.post("/api/v1/command", d.Command)
	}
	return nil, fmt.Errorf("nothing to send for action %q", d.Action)
}

func (a *Actor) post(path string, payload any) (*Outcome, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", path, err)
	}

	req, err := http.NewRequest("POST", a.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.AdminKey)

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s failed (%d): %s", path, resp.StatusCode, string(respBody))
	}

	var out Outcome
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
