// Package plugin discovers external plugin executables and delivers
// committed letters to them.
package plugin

import "encoding/json"

// ActionType is the action sent for every committed letter.
const ActionType = "type"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// Supports reports whether the plugin declares action.
func (m Manifest) Supports(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is written to a plugin's stdin as a single JSON document.
type Request struct {
	Action  string `json:"action"`
	Letter  string `json:"letter,omitempty"`
	Session string `json:"session,omitempty"`
}

// Response is read back from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
