// Package keys maps key events to TUI actions.
package keys

import "github.com/gdamore/tcell/v2"

// Global scopes a binding to every page.
const Global = ""

// Binding ties a key to an action. Key is tcell.KeyRune for printable keys,
// in which case Rune selects the character.
type Binding struct {
	Key    tcell.Key
	Rune   rune
	Hint   string
	Hidden bool
	Run    func()
}

// Matches reports whether ev triggers the binding.
func (b Binding) Matches(ev *tcell.EventKey) bool {
	if ev.Key() != b.Key {
		return false
	}
	return b.Key != tcell.KeyRune || ev.Rune() == b.Rune
}

// Keymap holds bindings per page in registration order.
type Keymap struct {
	scopes map[string][]Binding
}

// NewKeymap returns an empty keymap.
func NewKeymap() *Keymap {
	return &Keymap{scopes: make(map[string][]Binding)}
}

// Bind registers b on page, or on every page when page is Global.
func (k *Keymap) Bind(page string, b Binding) {
	k.scopes[page] = append(k.scopes[page], b)
}

// Hints lists the visible hints for page: page bindings first, then global
// ones.
func (k *Keymap) Hints(page string) []string {
	var hints []string
	for _, b := range k.lookup(page) {
		if !b.Hidden && b.Hint != "" {
			hints = append(hints, b.Hint)
		}
	}
	return hints
}

// Dispatch runs the first binding on page matching ev. Page bindings shadow
// global ones.
func (k *Keymap) Dispatch(page string, ev *tcell.EventKey) bool {
	for _, b := range k.lookup(page) {
		if b.Matches(ev) {
			if b.Run != nil {
				b.Run()
			}
			return true
		}
	}
	return false
}

func (k *Keymap) lookup(page string) []Binding {
	if page == Global {
		return k.scopes[Global]
	}
	out := make([]Binding, 0, len(k.scopes[page])+len(k.scopes[Global]))
	out = append(out, k.scopes[page]...)
	return append(out, k.scopes[Global]...)
}
