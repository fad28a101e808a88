// Package keybind provides a process-wide key event bus. Mounted form
// sessions subscribe a listener for their save shortcut and release it when
// they are unmounted.
package keybind

import (
	"fmt"
	"strings"
	"sync"
)

// Event is a single key press with its modifier state.
type Event struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Alt   bool   `json:"alt,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
}

// Listener receives dispatched key events. Implementations must not block.
type Listener interface {
	HandleKey(Event) bool
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(Event) bool

func (f ListenerFunc) HandleKey(ev Event) bool {
	return f(ev)
}

// Combo is a parsed key combination such as "ctrl+s".
type Combo struct {
	Key   string
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
}

// ParseCombo parses "ctrl+s", "Ctrl+Shift+P" or "meta+s". The final segment
// is the key; the others are modifiers.
func ParseCombo(raw string) (Combo, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(raw)), "+")
	var combo Combo
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return Combo{}, fmt.Errorf("keybind: invalid combo %q", raw)
		}
		if i == len(parts)-1 {
			combo.Key = part
			break
		}
		switch part {
		case "ctrl", "control":
			combo.Ctrl = true
		case "alt", "option":
			combo.Alt = true
		case "shift":
			combo.Shift = true
		case "meta", "cmd", "super":
			combo.Meta = true
		default:
			return Combo{}, fmt.Errorf("keybind: unknown modifier %q in %q", part, raw)
		}
	}
	return combo, nil
}

// MustParseCombo mirrors ParseCombo but panics on error.
func MustParseCombo(raw string) Combo {
	combo, err := ParseCombo(raw)
	if err != nil {
		panic(err)
	}
	return combo
}

// Matches reports whether ev is exactly this combination. Keys compare
// case-insensitively.
func (c Combo) Matches(ev Event) bool {
	return strings.EqualFold(strings.TrimSpace(ev.Key), c.Key) &&
		ev.Ctrl == c.Ctrl && ev.Alt == c.Alt && ev.Shift == c.Shift && ev.Meta == c.Meta
}

func (c Combo) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "ctrl")
	}
	if c.Alt {
		parts = append(parts, "alt")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	if c.Meta {
		parts = append(parts, "meta")
	}
	return strings.Join(append(parts, c.Key), "+")
}

// Bus dispatches key events synchronously to every subscribed listener.
type Bus struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[uint64]Listener
	order     []uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[uint64]Listener)}
}

var defaultBus = NewBus()

// Default returns the process-wide bus.
func Default() *Bus {
	return defaultBus
}

// Subscribe registers l and returns the function that releases it. Release
// is idempotent.
func (b *Bus) Subscribe(l Listener) (release func()) {
	if l == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[id] = l
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, id)
	for i, candidate := range b.order {
		if candidate == id {
			b.order = append(b.order[:i:i], b.order[i+1:]...)
			break
		}
	}
}

// Len reports the number of subscribed listeners.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Dispatch delivers ev to all listeners in subscription order and returns how
// many of them handled it.
func (b *Bus) Dispatch(ev Event) int {
	b.mu.RLock()
	listeners := make([]Listener, 0, len(b.order))
	for _, id := range b.order {
		listeners = append(listeners, b.listeners[id])
	}
	b.mu.RUnlock()

	handled := 0
	for _, l := range listeners {
		if l.HandleKey(ev) {
			handled++
		}
	}
	return handled
}
