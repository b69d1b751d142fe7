package action

import (
	"fmt"
	"strconv"
	"strings"
)

// KeyChord is a parsed key combination: `[c-][a-]<name>`, per spec.md §6.
type KeyChord struct {
	Control bool
	Alt     bool
	Name    string
}

var specialNames = map[string]bool{
	"backspace": true, "enter": true, "left": true, "right": true,
	"up": true, "down": true, "home": true, "end": true,
	"pageup": true, "pagedown": true, "tab": true, "backtab": true,
	"delete": true, "insert": true, "esc": true,
}

func isFunctionKey(name string) bool {
	if len(name) < 2 || name[0] != 'f' {
		return false
	}
	n, err := strconv.Atoi(name[1:])
	return err == nil && n >= 0 && n <= 12
}

// ParseChord parses a chord string like "c-a-left" or "x" or "f5".
func ParseChord(s string) (KeyChord, error) {
	var kc KeyChord
	rest := s
	for {
		switch {
		case strings.HasPrefix(rest, "c-"):
			kc.Control = true
			rest = rest[2:]
		case strings.HasPrefix(rest, "a-"):
			kc.Alt = true
			rest = rest[2:]
		default:
			goto done
		}
	}
done:
	if rest == "" {
		return kc, fmt.Errorf("empty key name in chord %q", s)
	}
	if specialNames[rest] || isFunctionKey(rest) {
		kc.Name = rest
		return kc, nil
	}
	// A digit or a single printable rune.
	if len([]rune(rest)) == 1 {
		kc.Name = rest
		return kc, nil
	}
	return kc, fmt.Errorf("unrecognized key name %q in chord %q", rest, s)
}

func (kc KeyChord) String() string {
	var b strings.Builder
	if kc.Control {
		b.WriteString("c-")
	}
	if kc.Alt {
		b.WriteString("a-")
	}
	b.WriteString(kc.Name)
	return b.String()
}
