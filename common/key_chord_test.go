package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyChord(t *testing.T) {
	tests := []struct {
		in   string
		want KeyChord
	}{
		{"alt+j", KeyChord{Key: KeyJ, Mods: ModAlt}},
		{" Ctrl + Shift + F ", KeyChord{Key: KeyF, Mods: ModControl | ModShift}},
		{"7", KeyChord{Key: Key7}},
		{"super+space", KeyChord{Key: KeySpace, Mods: ModSuper}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKeyChord(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeyChordErrors(t *testing.T) {
	for _, in := range []string{"", "alt", "alt+", "j+alt", "alt+f13", "ctrl+alt+jk"} {
		_, err := ParseKeyChord(in)
		assert.ErrorIs(t, err, ErrInvalidKeyChord, in)
	}
}

func TestKeyChordMatches(t *testing.T) {
	c, err := ParseKeyChord("alt+j")
	require.NoError(t, err)

	assert.True(t, c.Matches(KeyJ, ModAlt))
	assert.False(t, c.Matches(KeyJ, 0))
	assert.False(t, c.Matches(KeyJ, ModShift))
	assert.False(t, c.Matches(KeyB, ModAlt))
	assert.True(t, c.Matches(KeyJ, ModAlt|ModShift))
	// caps lock and num lock bits
	assert.True(t, c.Matches(KeyJ, ModAlt|0x0010|0x0020))
}

func TestKeyChordString(t *testing.T) {
	assert.Equal(t, "alt+j", KeyChord{Key: KeyJ, Mods: ModAlt}.String())
	assert.Equal(t, "ctrl+shift+escape", KeyChord{Key: KeyEsc, Mods: ModShift | ModControl}.String())
}
