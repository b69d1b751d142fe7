package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogNoOpBeforeInit(t *testing.T) {
	// No Init call in this test process state: Log must not panic even
	// though no writer is configured. We can't easily guarantee global
	// ordering against other tests in this package, so instead verify
	// directly that a nil writer is silently tolerated.
	mu.Lock()
	out = nil
	file = nil
	mu.Unlock()

	Error("test", "should not panic: %d", 1)
}

func TestInitLevelFromEnv(t *testing.T) {
	t.Setenv("LASR_LOG", "debug")
	path := filepath.Join(t.TempDir(), "log.txt")
	got, err := Init(path)
	defer Close()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got != path {
		t.Fatalf("Init returned %q, want %q", got, path)
	}

	Debug("comp", "visible at debug")
	Trace("comp", "not visible, trace is above debug")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "visible at debug") {
		t.Errorf("expected debug line to be written, got: %q", text)
	}
	if strings.Contains(text, "not visible") {
		t.Errorf("expected trace line to be gated out at debug level, got: %q", text)
	}
	if !strings.Contains(text, "[DEBUG] comp:") {
		t.Errorf("expected level/component tag in log line, got: %q", text)
	}
}

func TestInitDefaultsToWarnOnUnrecognizedLevel(t *testing.T) {
	t.Setenv("LASR_LOG", "not-a-real-level")
	path := filepath.Join(t.TempDir(), "log.txt")
	if _, err := Init(path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Close()

	Info("comp", "info should be gated out at warn")
	Warn("comp", "warn should be visible")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if strings.Contains(text, "info should be gated out") {
		t.Errorf("expected info to be gated out when level defaults to warn, got: %q", text)
	}
	if !strings.Contains(text, "warn should be visible") {
		t.Errorf("expected warn line to be written, got: %q", text)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	if _, err := Init(path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
}

func TestDefaultPathUsesXDGCacheHome(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdgcache")
	got := DefaultPath()
	want := filepath.Join("/tmp/xdgcache", "lasr", "log.txt")
	if got != want {
		t.Fatalf("DefaultPath() = %q, want %q", got, want)
	}
}
