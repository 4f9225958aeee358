package viewstate

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Actions triggered by keyboard shortcuts.
const (
	ActionNewFolder  = "new-folder"
	ActionSearch     = "search"
	ActionUpload     = "upload"
	ActionDelete     = "delete-selection"
	ActionCloseModal = "close-modal"
	ActionInbox      = "open-inbox"
)

// Shortcut binds a normalized key combination to an action.
type Shortcut struct {
	Combo       string
	Display     string
	Action      string
	Description string
}

// Shortcuts lists the dashboard key bindings. "Mod" stands for Ctrl or
// Meta.
var Shortcuts = []Shortcut{
	{Combo: "Alt+N", Display: "Alt+N", Action: ActionNewFolder, Description: "Create a new folder"},
	{Combo: "Mod+K", Display: "Ctrl/Meta+K", Action: ActionSearch, Description: "Open search"},
	{Combo: "Alt+U", Display: "Alt+U", Action: ActionUpload, Description: "Upload files"},
	{Combo: "Delete", Display: "Delete", Action: ActionDelete, Description: "Delete the selected item"},
	{Combo: "Escape", Display: "Escape", Action: ActionCloseModal, Description: "Close the open dialog"},
	{Combo: "Alt+I", Display: "Alt+I", Action: ActionInbox, Description: "Open the inbox"},
}

var modifierOrder = []string{"Mod", "Alt", "Shift"}

// NormalizeCombo canonicalizes a key combination: modifiers in a fixed
// order, Ctrl and Meta folded into Mod, key names capitalized.
func NormalizeCombo(combo string) string {
	var mods []string
	key := ""
	for _, part := range strings.Split(combo, "+") {
		p := strings.ToLower(strings.TrimSpace(part))
		switch p {
		case "":
			continue
		case "ctrl", "control", "meta", "cmd", "command", "mod":
			p = "Mod"
		case "alt", "option", "opt":
			p = "Alt"
		case "shift":
			p = "Shift"
		case "del", "delete":
			key = "Delete"
			continue
		case "esc", "escape":
			key = "Escape"
			continue
		default:
			r, size := utf8.DecodeRuneInString(p)
			key = string(unicode.ToUpper(r)) + p[size:]
			continue
		}
		if !slices.Contains(mods, p) {
			mods = append(mods, p)
		}
	}
	slices.SortFunc(mods, func(a, b string) int {
		return slices.Index(modifierOrder, a) - slices.Index(modifierOrder, b)
	})
	if key != "" {
		mods = append(mods, key)
	}
	return strings.Join(mods, "+")
}

// Lookup finds the shortcut bound to combo.
func Lookup(combo string) (Shortcut, bool) {
	norm := NormalizeCombo(combo)
	for _, s := range Shortcuts {
		if s.Combo == norm {
			return s, true
		}
	}
	return Shortcut{}, false
}

// Apply returns the view state after action runs. Delete only opens the
// confirmation when a file is selected.
func (s State) Apply(action string) State {
	switch action {
	case ActionNewFolder:
		s.Modal, s.FileID = ModalNewFolder, ""
	case ActionSearch:
		s.Modal, s.FileID = ModalSearch, ""
	case ActionUpload:
		s.Modal, s.FileID = ModalUpload, ""
	case ActionInbox:
		s.Modal, s.FileID = ModalInbox, ""
	case ActionCloseModal:
		s.Modal, s.FileID = "", ""
	case ActionDelete:
		if s.FileID != "" {
			s.Modal = ModalDelete
		}
	}
	return s
}
