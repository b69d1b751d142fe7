// Package config loads the startup struct the engine and UI are configured
// from: thread count, auto-pairs, theme, key bindings, and the initial
// ignore-case state. Format is TOML, following the layout of the teacher's
// own config package (a plain struct plus a Validate/defaults pass) but a
// different source format, since lasr.toml is the format the spec names.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/lasr/internal/lasrerr"
	"github.com/standardbeagle/lasr/internal/tui/action"
)

// SearchConfig holds the FileMatcher/FileEnumerator tuning fields that sit
// outside the core {find, replace} query itself (spec.md §4.2/§6).
type SearchConfig struct {
	// MaxFileBytes caps how large a file FileMatcher will read; larger files
	// are skipped with SkipTooLarge. 0 means no cap.
	MaxFileBytes int64    `toml:"max_file_bytes"`
	Include      []string `toml:"include"`
	Exclude      []string `toml:"exclude"`
	// RespectGitignore controls whether FileEnumerator honors each
	// directory's own .gitignore while walking.
	RespectGitignore bool `toml:"respect_gitignore"`
}

// Config is the effective startup struct, per spec.md §6 ConfigSource.
type Config struct {
	Threads           int               `toml:"threads"`
	AutoPairs         bool              `toml:"auto_pairs"`
	Theme             string            `toml:"theme"`
	IgnoreCaseInitial bool              `toml:"ignore_case_initial"`
	Keys              map[string]string `toml:"keys"`
	Search            SearchConfig      `toml:"search"`

	resolvedKeys map[action.KeyChord]action.Action
}

// defaultMaxFileBytes is the out-of-the-box size cap: large enough for any
// ordinary source file, small enough to keep a stray binary or data dump
// from blowing up preview latency.
const defaultMaxFileBytes = 16 * 1024 * 1024

// Default returns the built-in default configuration, matching what
// --dump-config prints.
func Default() *Config {
	cfg := &Config{
		Threads:           0,
		AutoPairs:         true,
		Theme:             "default",
		IgnoreCaseInitial: false,
		Keys:              defaultKeyMap(),
		Search: SearchConfig{
			MaxFileBytes:     defaultMaxFileBytes,
			RespectGitignore: true,
		},
	}
	cfg.resolveKeys()
	return cfg
}

func defaultKeyMap() map[string]string {
	return map[string]string{
		"esc":       "exit",
		"enter":     "confirm",
		"tab":       "toggle_search_replace",
		// Ctrl-I is indistinguishable from Tab in terminal input (both send
		// 0x09), so it can never resolve to this chord; bind the reachable
		// Alt-i instead.
		"a-i":       "toggle_ignore_case",
		"left":      "cursor_left",
		"right":     "cursor_right",
		"home":      "cursor_home",
		"end":       "cursor_end",
		"delete":    "delete_char",
		"backspace": "delete_char_backward",
		"c-w":       "delete_word",
		"c-k":       "delete_to_end_of_line",
		"c-u":       "delete_line",
	}
}

// Load reads a TOML config file at path, falling back to defaults for any
// field the file doesn't set. A missing file is not an error: the default
// config is returned as-is. A malformed file is a ConfigError (fatal, per
// spec.md §7).
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, lasrerr.New(lasrerr.KindConfig, "read_config", err).WithPath(path)
	}

	// Decode into a copy so defaults remain for fields absent from the file.
	decoded := *cfg
	decoded.Keys = nil
	if err := toml.Unmarshal(data, &decoded); err != nil {
		return nil, lasrerr.New(lasrerr.KindConfig, "parse_config", err).WithPath(path)
	}
	if decoded.Keys == nil {
		decoded.Keys = defaultKeyMap()
	}
	decoded.resolveKeys()
	if err := decoded.Validate(); err != nil {
		return nil, lasrerr.New(lasrerr.KindConfig, "validate_config", err).WithPath(path)
	}
	return &decoded, nil
}

// Validate checks the config for internally inconsistent values. The open
// question in spec.md §9 (what happens when two bindings target the same
// chord) resolves itself before Validate ever runs: Keys is a
// map[string]string, so the TOML decoder can only ever hold one action per
// chord string — the last one it assigned during decode. There is no
// conflict left to detect or report; the config format makes it
// unrepresentable.
func (c *Config) Validate() error {
	if c.Threads < 0 {
		return fmt.Errorf("threads must be >= 0, got %d", c.Threads)
	}
	if c.Search.MaxFileBytes < 0 {
		return fmt.Errorf("search.max_file_bytes must be >= 0, got %d", c.Search.MaxFileBytes)
	}
	for chord, act := range c.Keys {
		if _, ok := action.Parse(act); !ok {
			return fmt.Errorf("key %q bound to unknown action %q", chord, act)
		}
		if _, err := action.ParseChord(chord); err != nil {
			return fmt.Errorf("invalid key chord %q: %w", chord, err)
		}
	}
	return nil
}

func (c *Config) resolveKeys() {
	c.resolvedKeys = make(map[action.KeyChord]action.Action, len(c.Keys))
	for chord, act := range c.Keys {
		kc, err := action.ParseChord(chord)
		if err != nil {
			continue
		}
		a, ok := action.Parse(act)
		if !ok {
			continue
		}
		c.resolvedKeys[kc] = a
	}
}

// Resolve looks up the Action bound to a chord, per spec.md §6 KeyInput.
func (c *Config) Resolve(chord action.KeyChord) (action.Action, bool) {
	a, ok := c.resolvedKeys[chord]
	return a, ok
}

// WorkerCount resolves the configured thread count to a concrete worker
// count, treating 0 as "auto-select based on available parallelism" per
// spec.md §5.
func (c *Config) WorkerCount() int {
	if c.Threads > 0 {
		return c.Threads
	}
	return runtime.NumCPU()
}

// Dump serializes the effective config back to TOML, for --dump-config.
func (c *Config) Dump() (string, error) {
	out, err := toml.Marshal(struct {
		Threads           int               `toml:"threads"`
		AutoPairs         bool              `toml:"auto_pairs"`
		Theme             string            `toml:"theme"`
		IgnoreCaseInitial bool              `toml:"ignore_case_initial"`
		Keys              map[string]string `toml:"keys"`
		Search            SearchConfig      `toml:"search"`
	}{c.Threads, c.AutoPairs, c.Theme, c.IgnoreCaseInitial, c.Keys, c.Search})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/lasr/lasr.toml, defaulting to
// ~/.config/lasr/lasr.toml, per spec.md §6.
func DefaultConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "lasr", "lasr.toml")
}
