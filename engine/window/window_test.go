package window

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/stretchr/testify/assert"
)

func headlessWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{mu: &sync.Mutex{}, closeOnEscape: true}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func TestKeyEventForwardsModifiers(t *testing.T) {
	w := headlessWindow()
	var down, up []common.KeyChord
	w.SetKeyDownCallback(func(key uint32, mods common.KeyMod) { down = append(down, common.KeyChord{Key: key, Mods: mods}) })
	w.SetKeyUpCallback(func(key uint32, mods common.KeyMod) { up = append(up, common.KeyChord{Key: key, Mods: mods}) })

	assert.False(t, w.keyEvent(common.KeyJ, common.ModAlt, true))
	assert.False(t, w.keyEvent(common.KeyJ, common.ModAlt, false))

	assert.Equal(t, []common.KeyChord{{Key: common.KeyJ, Mods: common.ModAlt}}, down)
	assert.Equal(t, []common.KeyChord{{Key: common.KeyJ, Mods: common.ModAlt}}, up)
}

func TestEscapeCloses(t *testing.T) {
	w := headlessWindow()
	called := false
	w.SetKeyDownCallback(func(uint32, common.KeyMod) { called = true })

	assert.True(t, w.keyEvent(common.KeyEsc, 0, true))
	assert.False(t, called)

	w = headlessWindow(WithCloseOnEscape(false))
	w.SetKeyDownCallback(func(uint32, common.KeyMod) { called = true })
	assert.False(t, w.keyEvent(common.KeyEsc, 0, true))
	assert.True(t, called)
}

func TestSetSizeNotifiesResize(t *testing.T) {
	w := headlessWindow(WithSize(640, 480))
	wd, ht := w.Size()
	assert.Equal(t, 640, wd)
	assert.Equal(t, 480, ht)

	var got [2]int
	w.SetResizeCallback(func(width, height int) { got = [2]int{width, height} })
	w.setSize(800, 600)
	assert.Equal(t, [2]int{800, 600}, got)
	wd, ht = w.Size()
	assert.Equal(t, 800, wd)
	assert.Equal(t, 600, ht)
}

func TestUninitializedWindow(t *testing.T) {
	w := headlessWindow()
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.ErrorIs(t, w.Close(), ErrNotInitialized)
}
