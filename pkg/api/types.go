package api

import (
	"time"

	"github.com/ssargent/ersave/pkg/save"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind     string
	Port     int
	APIKey   string // empty disables authentication
	SavePath string // save file served and watched
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status      string    `json:"status"`
	SavePath    string    `json:"save_path"`
	LoadedAt    time.Time `json:"loaded_at,omitempty"`
	Platform    string    `json:"platform,omitempty"`
	ActiveSlots int       `json:"active_slots"`
	LoadError   string    `json:"load_error,omitempty"`
}

// CharacterResponse is one listed character. Slot is 1-based.
type CharacterResponse struct {
	Slot  int        `json:"slot"`
	Name  string     `json:"name"`
	Map   string     `json:"map"`
	MapID save.MapID `json:"map_id"`
	Level uint32     `json:"level"`
}

// IssueResponse describes one detected issue
type IssueResponse struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// IssuesResponse is the detection report of one slot. Slot is 1-based.
type IssuesResponse struct {
	Slot        int             `json:"slot"`
	Issues      []IssueResponse `json:"issues"`
	Unavailable []string        `json:"unavailable,omitempty"`
	TailError   string          `json:"tail_error,omitempty"`
}

// ChecksumMismatch is one digest that does not match its data
type ChecksumMismatch struct {
	Section  string `json:"section"` // "slot N" or "common"
	Stored   string `json:"stored"`
	Computed string `json:"computed"`
}

// ChecksumResponse is the integrity report of the loaded save
type ChecksumResponse struct {
	Checked    bool               `json:"checked"` // false on layouts without digests
	Valid      bool               `json:"valid"`
	Mismatches []ChecksumMismatch `json:"mismatches"`
}
