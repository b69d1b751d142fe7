package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/lasr/internal/tui/action"
)

func TestDefaultResolvesKeyBindings(t *testing.T) {
	cfg := Default()
	a, ok := cfg.Resolve(action.KeyChord{Name: "esc"})
	if !ok || a != action.Exit {
		t.Fatalf("Resolve(esc) = %v, %v, want Exit, true", a, ok)
	}
	a, ok = cfg.Resolve(action.KeyChord{Control: true, Name: "w"})
	if !ok || a != action.DeleteWord {
		t.Fatalf("Resolve(c-w) = %v, %v, want DeleteWord, true", a, ok)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.MaxFileBytes != defaultMaxFileBytes {
		t.Fatalf("MaxFileBytes = %d, want default %d", cfg.Search.MaxFileBytes, defaultMaxFileBytes)
	}
	if !cfg.AutoPairs {
		t.Fatal("expected AutoPairs default to be true")
	}
}

func TestLoadMergesOverridesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lasr.toml")
	content := `
threads = 4
auto_pairs = false

[search]
max_file_bytes = 1024
respect_gitignore = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Threads != 4 {
		t.Errorf("Threads = %d, want 4", cfg.Threads)
	}
	if cfg.AutoPairs {
		t.Error("AutoPairs = true, want false (overridden)")
	}
	if cfg.Search.MaxFileBytes != 1024 {
		t.Errorf("MaxFileBytes = %d, want 1024", cfg.Search.MaxFileBytes)
	}
	if cfg.Search.RespectGitignore {
		t.Error("RespectGitignore = true, want false (overridden)")
	}
	// Keys were absent from the file; defaults must still resolve.
	if _, ok := cfg.Resolve(action.KeyChord{Name: "esc"}); !ok {
		t.Error("expected default key bindings to survive a partial config file")
	}
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("not = [valid"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed TOML")
	}
}

func TestValidateRejectsNegativeThreads(t *testing.T) {
	cfg := Default()
	cfg.Threads = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for negative Threads")
	}
}

func TestValidateRejectsNegativeMaxFileBytes(t *testing.T) {
	cfg := Default()
	cfg.Search.MaxFileBytes = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for negative Search.MaxFileBytes")
	}
}

func TestValidateRejectsUnknownAction(t *testing.T) {
	cfg := Default()
	cfg.Keys["c-q"] = "not_a_real_action"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unknown action name")
	}
}

func TestValidateRejectsUnparseableChord(t *testing.T) {
	cfg := Default()
	cfg.Keys["not-a-chord"] = "exit"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unparseable key chord")
	}
}

func TestWorkerCountZeroMeansAuto(t *testing.T) {
	cfg := Default()
	cfg.Threads = 0
	if cfg.WorkerCount() <= 0 {
		t.Fatalf("WorkerCount() = %d, want a positive auto-selected value", cfg.WorkerCount())
	}
	cfg.Threads = 3
	if cfg.WorkerCount() != 3 {
		t.Fatalf("WorkerCount() = %d, want 3", cfg.WorkerCount())
	}
}

func TestDumpRoundTrips(t *testing.T) {
	cfg := Default()
	out, err := cfg.Dump()
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	path := filepath.Join(t.TempDir(), "dumped.toml")
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		t.Fatalf("write dumped config: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load(dumped): %v", err)
	}
	if reloaded.Theme != cfg.Theme || reloaded.Search.MaxFileBytes != cfg.Search.MaxFileBytes {
		t.Fatalf("reloaded config %+v does not match original %+v", reloaded, cfg)
	}
}
