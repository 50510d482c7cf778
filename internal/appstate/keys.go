package appstate

import (
	"unicode"

	"golang.org/x/mobile/event/key"
)

// KeyShortcut describes a keyboard combination that triggers an action.
// Printable keys match on Rune, others on Code.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// Action names bound to keys and toolbar buttons.
const (
	actionToolRect   = "tool-rect"
	actionToolPen    = "tool-pen"
	actionToolCrop   = "tool-crop"
	actionConfirm    = "confirm"
	actionCancel     = "cancel"
	actionUndo       = "undo"
	actionPaste      = "paste"
	actionCapture    = "capture"
	actionSave       = "save"
	actionCopy       = "copy"
	actionReset      = "reset"
	actionAnalyze    = "analyze"
	actionSubdivide  = "subdivide"
	actionSelectAll  = "select-all"
	actionLesson     = "lesson"
	actionLessonType = "lesson-type"
	actionPro        = "pro"
	actionAgeUp      = "age-up"
	actionAgeDown    = "age-down"
	actionWidthUp    = "width-up"
	actionWidthDown  = "width-down"
	actionQuit       = "quit"
)

// shortcutList groups the keys bound to one action.
type shortcutList []KeyShortcut

var bindings = []struct {
	action string
	keys   shortcutList
}{
	{actionToolRect, shortcutList{{Rune: 'r'}}},
	{actionToolPen, shortcutList{{Rune: 'p'}}},
	{actionToolCrop, shortcutList{{Rune: 'c'}}},
	{actionConfirm, shortcutList{{Code: key.CodeReturnEnter}}},
	{actionCancel, shortcutList{{Code: key.CodeEscape}}},
	{actionUndo, shortcutList{{Rune: 'z', Modifiers: key.ModControl}}},
	{actionPaste, shortcutList{{Rune: 'v', Modifiers: key.ModControl}}},
	{actionSave, shortcutList{{Rune: 's', Modifiers: key.ModControl}}},
	{actionCopy, shortcutList{{Rune: 'c', Modifiers: key.ModControl}}},
	{actionCapture, shortcutList{{Rune: 'k'}}},
	{actionReset, shortcutList{{Rune: 'n'}}},
	{actionAnalyze, shortcutList{{Rune: 'a'}}},
	{actionSubdivide, shortcutList{{Rune: 'd'}}},
	{actionSelectAll, shortcutList{{Rune: 'a', Modifiers: key.ModControl}}},
	{actionLesson, shortcutList{{Rune: 'g'}}},
	{actionLessonType, shortcutList{{Rune: 't'}}},
	{actionPro, shortcutList{{Rune: 'm'}}},
	{actionAgeUp, shortcutList{{Rune: '+'}, {Rune: '='}}},
	{actionAgeDown, shortcutList{{Rune: '-'}}},
	{actionWidthUp, shortcutList{{Rune: ']'}}},
	{actionWidthDown, shortcutList{{Rune: '['}}},
	{actionQuit, shortcutList{{Rune: 'q'}}},
}

var keyBindings = map[KeyShortcut]string{}

func init() {
	for _, b := range bindings {
		for _, k := range b.keys {
			keyBindings[k] = b.action
		}
	}
}

// shortcutFor normalises a key press. Letter keys are matched by their code
// so control combinations work whatever rune the driver reports.
func shortcutFor(e key.Event) KeyShortcut {
	mods := e.Modifiers & key.ModControl
	r := unicode.ToLower(e.Rune)
	if e.Code >= key.CodeA && e.Code <= key.CodeZ {
		r = 'a' + rune(e.Code-key.CodeA)
	}
	if r > 0 && unicode.IsPrint(r) {
		return KeyShortcut{Rune: r, Modifiers: mods}
	}
	return KeyShortcut{Code: e.Code, Modifiers: mods}
}

// lookupAction returns the action bound to e. Colour keys 1-9 select a
// palette entry and are reported as ("color", index).
func lookupAction(e key.Event) (string, int, bool) {
	if e.Direction != key.DirPress {
		return "", 0, false
	}
	ks := shortcutFor(e)
	if ks.Modifiers == 0 && ks.Rune >= '1' && ks.Rune <= '9' {
		return "color", int(ks.Rune - '1'), true
	}
	action, ok := keyBindings[ks]
	return action, 0, ok
}
