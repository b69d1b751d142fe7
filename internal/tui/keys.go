package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/standardbeagle/lasr/internal/tui/action"
)

// specialKeyNames maps Bubble Tea's named key types to the chord grammar's
// special names (spec.md §6).
var specialKeyNames = map[tea.KeyType]string{
	tea.KeyBackspace: "backspace",
	tea.KeyEnter:     "enter",
	tea.KeyLeft:      "left",
	tea.KeyRight:     "right",
	tea.KeyUp:        "up",
	tea.KeyDown:      "down",
	tea.KeyHome:      "home",
	tea.KeyEnd:       "end",
	tea.KeyPgUp:      "pageup",
	tea.KeyPgDown:    "pagedown",
	tea.KeyTab:       "tab",
	tea.KeyShiftTab:  "backtab",
	tea.KeyDelete:    "delete",
	tea.KeyInsert:    "insert",
	tea.KeyEsc:       "esc",
	tea.KeyCtrlA:     "a",
	tea.KeyCtrlB:     "b",
	tea.KeyCtrlC:     "c",
	tea.KeyCtrlD:     "d",
	tea.KeyCtrlE:     "e",
	tea.KeyCtrlF:     "f",
	tea.KeyCtrlG:     "g",
	tea.KeyCtrlH:     "h",
	tea.KeyCtrlJ:     "j",
	tea.KeyCtrlK:     "k",
	tea.KeyCtrlL:     "l",
	tea.KeyCtrlN:     "n",
	tea.KeyCtrlO:     "o",
	tea.KeyCtrlP:     "p",
	tea.KeyCtrlQ:     "q",
	tea.KeyCtrlR:     "r",
	tea.KeyCtrlS:     "s",
	tea.KeyCtrlT:     "t",
	tea.KeyCtrlU:     "u",
	tea.KeyCtrlV:     "v",
	tea.KeyCtrlW:     "w",
	tea.KeyCtrlX:     "x",
	tea.KeyCtrlY:     "y",
	tea.KeyCtrlZ:     "z",
}

// ctrlKeyNames marks the KeyCtrl* message types: these always resolve to a
// chord with Control true and a bare letter name.
var ctrlKeyNames = map[tea.KeyType]bool{
	tea.KeyCtrlA: true, tea.KeyCtrlB: true, tea.KeyCtrlC: true, tea.KeyCtrlD: true,
	tea.KeyCtrlE: true, tea.KeyCtrlF: true, tea.KeyCtrlG: true, tea.KeyCtrlH: true,
	tea.KeyCtrlJ: true, tea.KeyCtrlK: true, tea.KeyCtrlL: true, tea.KeyCtrlN: true,
	tea.KeyCtrlO: true, tea.KeyCtrlP: true, tea.KeyCtrlQ: true, tea.KeyCtrlR: true,
	tea.KeyCtrlS: true, tea.KeyCtrlT: true, tea.KeyCtrlU: true, tea.KeyCtrlV: true,
	tea.KeyCtrlW: true, tea.KeyCtrlX: true, tea.KeyCtrlY: true, tea.KeyCtrlZ: true,
}

// chordFromKeyMsg converts a Bubble Tea key event into the chord grammar of
// spec.md §6, or reports ok=false for events with no chord representation
// (wide/unrecognized multi-rune sequences). Printable runes are reported
// through isRune instead, since InsertRune bypasses the action/chord layer
// entirely (action.InsertChar is parameterized, per its doc comment).
func chordFromKeyMsg(msg tea.KeyMsg) (chord action.KeyChord, isRune bool, r rune, ok bool) {
	if msg.Alt {
		if name, known := specialKeyNames[msg.Type]; known {
			return action.KeyChord{Alt: true, Name: name}, false, 0, true
		}
		if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
			return action.KeyChord{Alt: true, Name: string(msg.Runes[0])}, false, 0, true
		}
		return action.KeyChord{}, false, 0, false
	}

	if ctrlKeyNames[msg.Type] {
		return action.KeyChord{Control: true, Name: specialKeyNames[msg.Type]}, false, 0, true
	}

	if name, known := specialKeyNames[msg.Type]; known {
		return action.KeyChord{Name: name}, false, 0, true
	}

	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		return action.KeyChord{}, true, msg.Runes[0], true
	}

	if msg.Type == tea.KeySpace {
		return action.KeyChord{}, true, ' ', true
	}

	return action.KeyChord{}, false, 0, false
}
