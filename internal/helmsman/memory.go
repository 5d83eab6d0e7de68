package helmsman

import (
	"encoding/json"
	"log/slog"
	"os"
)

const maxRecords = 20

// CycleRecord captures what happened in a single helmsman cycle.
type CycleRecord struct {
	Tick      uint64 `json:"tick"`
	Action    string `json:"action"` // command name, "advance" or "none"
	Level     string `json:"level"`
	Rationale string `json:"rationale,omitempty"`
}

// CycleMemory manages a ring of recent cycle records.
type CycleMemory struct {
	Records []CycleRecord `json:"records"`
	path    string
}

// LoadMemory reads the memory file from disk. Returns empty memory if not
// found or unreadable. An empty path keeps memory in-process only.
func LoadMemory(path string) *CycleMemory {
	mem := &CycleMemory{path: path}
	if path == "" {
		return mem
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mem
	}
	if err := json.Unmarshal(data, mem); err != nil {
		slog.Warn("helmsman memory corrupted, starting fresh", "error", err)
		return &CycleMemory{path: path}
	}
	return mem
}

// Save writes the memory to disk.
func (m *CycleMemory) Save() {
	if m.path == "" {
		return
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		slog.Error("failed to marshal helmsman memory", "error", err)
		return
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		slog.Error("failed to write helmsman memory", "error", err)
	}
}

// Record adds a cycle record, trimming to maxRecords.
func (m *CycleMemory) Record(r CycleRecord) {
	m.Records = append(m.Records, r)
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// Streak counts how many of the most recent records carry action.
func (m *CycleMemory) Streak(action string) int {
	if m == nil {
		return 0
	}
	n := 0
	for i := len(m.Records) - 1; i >= 0 && m.Records[i].Action == action; i-- {
		n++
	}
	return n
}

// ActionName is the label a decision is remembered under.
func (d Decision) ActionName() string {
	if d.Action == ActionCommand && d.Command != nil {
		return d.Command.Action
	}
	return d.Action
}
