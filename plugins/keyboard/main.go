// Package main provides a keyboard plugin for macOS.
// It types each committed letter into the focused application via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string `json:"action"`
	Letter  string `json:"letter"`
	Session string `json:"session"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	switch req.Action {
	case "type":
		if err := typeLetter(req.Letter); err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	writeSuccessResponse()
}

// typeLetter sends a single letter as a keystroke, lowercased so it types
// without shift.
func typeLetter(letter string) error {
	if utf8.RuneCountInString(letter) != 1 {
		return fmt.Errorf("letter must be a single character, got %q", letter)
	}
	return runAppleScript(buildKeystrokeScript(cases.Lower(language.Und).String(letter)))
}

// buildKeystrokeScript generates an AppleScript that types key.
func buildKeystrokeScript(key string) string {
	key = strings.ReplaceAll(key, `\`, `\\`)
	key = strings.ReplaceAll(key, `"`, `\"`)
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
