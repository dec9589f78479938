// Package keymap maps key chords onto editor actions. Bindings are a
// plain chord-to-action table; the dispatcher adds the one routing rule
// the table cannot express, that an open modal captures dismissal first.
package keymap

// Action is one dispatchable editor command.
type Action int

const (
	ActionNone Action = iota
	ActionSave
	ActionSaveAll
	ActionQuickOpen
	ActionCloseTab
	ActionNextTab
	ActionToggleSidebar
	ActionRefreshTree
	ActionRunActive
	ActionToggleHelp
	ActionDismiss
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionSave:
		return "save"
	case ActionSaveAll:
		return "save all"
	case ActionQuickOpen:
		return "quick open"
	case ActionCloseTab:
		return "close tab"
	case ActionNextTab:
		return "next tab"
	case ActionToggleSidebar:
		return "toggle sidebar"
	case ActionRefreshTree:
		return "refresh tree"
	case ActionRunActive:
		return "run file"
	case ActionToggleHelp:
		return "help"
	case ActionDismiss:
		return "dismiss"
	case ActionQuit:
		return "quit"
	}
	return "none"
}

// Binding pairs a key chord with its action, in help-display order.
type Binding struct {
	Chord  string
	Action Action
}

// Map resolves key chords for the workspace.
type Map struct {
	bindings []Binding
	byChord  map[string]Action
}

// Default returns the stock bindings.
func Default() *Map {
	return New([]Binding{
		{"ctrl+s", ActionSave},
		{"alt+s", ActionSaveAll},
		{"ctrl+p", ActionQuickOpen},
		{"ctrl+w", ActionCloseTab},
		{"ctrl+right", ActionNextTab},
		{"ctrl+b", ActionToggleSidebar},
		{"f5", ActionRefreshTree},
		{"ctrl+r", ActionRunActive},
		{"ctrl+h", ActionToggleHelp},
		{"esc", ActionDismiss},
		{"ctrl+c", ActionQuit},
	})
}

// New builds a map from explicit bindings. Later bindings win on chord
// collisions.
func New(bindings []Binding) *Map {
	m := &Map{bindings: bindings, byChord: make(map[string]Action, len(bindings))}
	for _, b := range bindings {
		m.byChord[b.Chord] = b.Action
	}
	return m
}

// Context carries the UI state the dispatcher routes on.
type Context struct {
	// ModalOpen means a transient surface (palette, help, rename prompt)
	// has focus.
	ModalOpen bool
}

// Dispatch resolves a key chord to an action. With a modal open only
// dismissal fires; every other chord passes through to the modal as
// ActionNone so typing "ctrl+s" into a filename prompt never saves.
// Unbound chords are ActionNone and reach the focused widget unchanged.
func (m *Map) Dispatch(chord string, ctx Context) Action {
	action, ok := m.byChord[chord]
	if !ok {
		return ActionNone
	}
	if ctx.ModalOpen {
		if action == ActionDismiss || action == ActionQuit {
			return action
		}
		return ActionNone
	}
	return action
}

// Bindings returns all bindings in display order for the help surface.
func (m *Map) Bindings() []Binding {
	return m.bindings
}

// Chord returns the chord bound to action, or "" when unbound.
func (m *Map) Chord(action Action) string {
	for _, b := range m.bindings {
		if b.Action == action {
			return b.Chord
		}
	}
	return ""
}
