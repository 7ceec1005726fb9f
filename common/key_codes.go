package common

// Key codes match GLFW: printable keys use their uppercase ASCII value, others GLFW's own
// numbering. ParseKeyChord accepts any letter or digit; the constants name the keys the engine
// refers to directly.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeySpace     = 32
	Key7         = 55
	KeyB         = 66
	KeyF         = 70
	KeyJ         = 74
	KeyEsc       = 256
	KeyBackspace = 259
)

// KeyMod is a bitmask of modifier keys held during a key event.
// Values match glfw.ModifierKey.
type KeyMod uint32

const (
	ModShift   KeyMod = 0x0001
	ModControl KeyMod = 0x0002
	ModAlt     KeyMod = 0x0004
	ModSuper   KeyMod = 0x0008
)

// Has reports whether every modifier in want is held.
func (m KeyMod) Has(want KeyMod) bool {
	return m&want == want
}
