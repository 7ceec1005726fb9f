package common

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidKeyChord = errors.New("invalid key chord")

// KeyChord is a key pressed together with a set of held modifiers, e.g. Alt+J.
type KeyChord struct {
	Key  uint32
	Mods KeyMod
}

var modifierNames = map[string]KeyMod{
	"shift":   ModShift,
	"ctrl":    ModControl,
	"control": ModControl,
	"alt":     ModAlt,
	"super":   ModSuper,
	"cmd":     ModSuper,
}

var namedKeys = map[string]uint32{
	"space":     KeySpace,
	"backspace": KeyBackspace,
	"esc":       KeyEsc,
	"escape":    KeyEsc,
}

// ParseKeyChord parses a chord such as "alt+j" or "ctrl+shift+F". Modifier and key names are
// case-insensitive. Letters and digits map to their ASCII codes, matching GLFW.
//
// Parameters:
//   - s: the chord text
//
// Returns:
//   - KeyChord: the parsed chord
//   - error: ErrInvalidKeyChord if s names no key, several keys or an unknown key
func ParseKeyChord(s string) (KeyChord, error) {
	var c KeyChord
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if mod, ok := modifierNames[part]; ok && i < len(parts)-1 {
			c.Mods |= mod
			continue
		}
		if i != len(parts)-1 {
			return KeyChord{}, fmt.Errorf("%w: %q: %q is not a modifier", ErrInvalidKeyChord, s, part)
		}
		key, ok := keyCode(part)
		if !ok {
			return KeyChord{}, fmt.Errorf("%w: %q: unknown key %q", ErrInvalidKeyChord, s, part)
		}
		c.Key = key
	}
	return c, nil
}

func keyCode(name string) (uint32, bool) {
	if k, ok := namedKeys[name]; ok {
		return k, true
	}
	if len(name) != 1 {
		return 0, false
	}
	switch ch := name[0]; {
	case ch >= 'a' && ch <= 'z':
		return uint32(ch - 'a' + 'A'), true
	case ch >= '0' && ch <= '9':
		return uint32(ch), true
	}
	return 0, false
}

// Matches reports whether a key event with the given held modifiers triggers the chord. Every
// chord modifier must be held; others may be held too.
func (c KeyChord) Matches(key uint32, mods KeyMod) bool {
	return key == c.Key && mods.Has(c.Mods)
}

func (c KeyChord) String() string {
	var parts []string
	for _, m := range []struct {
		mod  KeyMod
		name string
	}{{ModControl, "ctrl"}, {ModShift, "shift"}, {ModAlt, "alt"}, {ModSuper, "super"}} {
		if c.Mods.Has(m.mod) {
			parts = append(parts, m.name)
		}
	}
	key := ""
	for name, code := range namedKeys {
		if code == c.Key && len(name) > len(key) {
			key = name
		}
	}
	if key == "" {
		key = strings.ToLower(string(rune(c.Key)))
	}
	return strings.Join(append(parts, key), "+")
}
