package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingPlugin installs a plugin that appends each request to a log file.
func recordingPlugin(t *testing.T, dir, name string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	pluginDir := writeManifest(t, dir, Manifest{Name: name, Executable: "run.sh", Actions: []string{ActionType}})
	logPath := filepath.Join(pluginDir, "requests.log")
	script := "#!/bin/sh\ncat >> " + logPath + "\necho >> " + logPath + "\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(pluginDir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return logPath
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	dir := t.TempDir()
	logPath := recordingPlugin(t, dir, "recorder")

	manager := NewManager(dir, nil)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}

	d, err := NewDispatcher(manager, NewExecutor(5*time.Second), []string{"recorder"}, nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	d.Start()
	for _, r := range "HEY" {
		d.Send(Letter{Letter: r, Session: "s1"})
	}
	d.Stop()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("plugin never ran: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 requests, got %d: %q", len(lines), data)
	}
	for i, want := range []string{"H", "E", "Y"} {
		if !strings.Contains(lines[i], `"letter":"`+want+`"`) || !strings.Contains(lines[i], `"action":"type"`) {
			t.Errorf("request %d = %s, want letter %s", i, lines[i], want)
		}
	}
	if d.Dropped() != 0 {
		t.Errorf("expected no drops, got %d", d.Dropped())
	}
}

func newRecordingDispatcher(t *testing.T) (*Dispatcher, string) {
	t.Helper()
	dir := t.TempDir()
	logPath := recordingPlugin(t, dir, "recorder")

	manager := NewManager(dir, nil)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}
	d, err := NewDispatcher(manager, NewExecutor(5*time.Second), []string{"recorder"}, nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d, logPath
}

func deliveredLines(t *testing.T, logPath string) int {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if errors.Is(err, os.ErrNotExist) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return 0
	}
	return len(strings.Split(trimmed, "\n"))
}

func TestDispatcher_SendAfterStopIsDropped(t *testing.T) {
	d, logPath := newRecordingDispatcher(t)
	d.Start()
	d.Send(Letter{Letter: 'A', Session: "s1"})
	d.Stop()

	d.Send(Letter{Letter: 'B', Session: "s1"})

	if got := deliveredLines(t, logPath); got != 1 {
		t.Errorf("expected 1 delivered letter, got %d", got)
	}
	if d.Dropped() != 1 {
		t.Errorf("expected the late letter to count as dropped, got %d", d.Dropped())
	}
}

func TestDispatcher_StopDuringSendsLosesNothing(t *testing.T) {
	d, logPath := newRecordingDispatcher(t)
	d.Start()

	const senders = 20
	var wg sync.WaitGroup
	release := make(chan struct{})
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-release
			d.Send(Letter{Letter: rune('A' + i), Session: "s1"})
		}(i)
	}
	close(release)
	d.Stop()
	wg.Wait()

	// Every letter is either delivered before Stop returns or counted as dropped.
	if got := deliveredLines(t, logPath) + d.Dropped(); got != senders {
		t.Errorf("delivered + dropped = %d, want %d", got, senders)
	}
}

func TestNewDispatcher_Validation(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, Manifest{Name: "mute", Executable: "mute", Actions: []string{"volume"}})

	manager := NewManager(dir, nil)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}
	executor := NewExecutor(time.Second)

	if _, err := NewDispatcher(manager, executor, []string{"missing"}, nil); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
	if _, err := NewDispatcher(manager, executor, []string{"mute"}, nil); err == nil {
		t.Error("expected error for a plugin without the type action")
	}

	d, err := NewDispatcher(manager, executor, nil, nil)
	if err != nil {
		t.Fatalf("empty dispatcher: %v", err)
	}
	d.Stop()
	d.Send(Letter{Letter: 'A'})
}
