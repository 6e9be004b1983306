package main

import "testing"

func TestBuildKeystrokeScript(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"a", `tell application "System Events" to keystroke "a"`},
		{`"`, `tell application "System Events" to keystroke "\""`},
		{`\`, `tell application "System Events" to keystroke "\\"`},
	}

	for _, tt := range tests {
		if got := buildKeystrokeScript(tt.key); got != tt.want {
			t.Errorf("buildKeystrokeScript(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestTypeLetter_RejectsNonLetters(t *testing.T) {
	for _, in := range []string{"", "AB"} {
		if err := typeLetter(in); err == nil {
			t.Errorf("typeLetter(%q) should fail", in)
		}
	}
}
