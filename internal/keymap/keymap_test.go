package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchDefaults(t *testing.T) {
	m := Default()

	assert.Equal(t, ActionSave, m.Dispatch("ctrl+s", Context{}))
	assert.Equal(t, ActionQuickOpen, m.Dispatch("ctrl+p", Context{}))
	assert.Equal(t, ActionSaveAll, m.Dispatch("alt+s", Context{}))
	assert.Equal(t, ActionNone, m.Dispatch("x", Context{}))
}

func TestModalCapturesEverythingButDismiss(t *testing.T) {
	m := Default()
	modal := Context{ModalOpen: true}

	assert.Equal(t, ActionDismiss, m.Dispatch("esc", modal))
	assert.Equal(t, ActionQuit, m.Dispatch("ctrl+c", modal))

	// Typing a bound chord into a modal must not trigger the editor action.
	assert.Equal(t, ActionNone, m.Dispatch("ctrl+s", modal))
	assert.Equal(t, ActionNone, m.Dispatch("ctrl+w", modal))
}

func TestDismissWithNoModalStillFires(t *testing.T) {
	m := Default()
	assert.Equal(t, ActionDismiss, m.Dispatch("esc", Context{}))
}

func TestCollisionLastBindingWins(t *testing.T) {
	m := New([]Binding{
		{"ctrl+s", ActionSave},
		{"ctrl+s", ActionSaveAll},
	})
	assert.Equal(t, ActionSaveAll, m.Dispatch("ctrl+s", Context{}))
}

func TestChordLookup(t *testing.T) {
	m := Default()
	assert.Equal(t, "ctrl+p", m.Chord(ActionQuickOpen))
	assert.Equal(t, "", m.Chord(Action(99)))
}
