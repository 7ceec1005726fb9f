package framegraph

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
)

var (
	// ErrInvalidDescriptor is returned by CreateTexture for descriptors that cannot be allocated.
	ErrInvalidDescriptor = texture.ErrInvalidDescriptor

	// ErrUnresolvedHandle is returned when a handle is resolved outside a pass that declared it.
	ErrUnresolvedHandle = errors.New("handle not declared by the executing pass")

	// ErrStaleHandle is returned when a pass writes or reads through a superseded version.
	ErrStaleHandle = errors.New("handle version has been superseded")

	// ErrDepthConflict is returned when a pass binds depth twice or mixes depth write with a read
	// of the same texture.
	ErrDepthConflict = errors.New("conflicting depth buffer access")

	// ErrInvalidHandle is returned for zero handles, handles from another frame and transient
	// textures used outside the pass that created them.
	ErrInvalidHandle = errors.New("invalid handle")

	// ErrNoRenderFunc is returned when a pass is closed without a render function.
	ErrNoRenderFunc = errors.New("pass has no render function")

	// ErrFrameNotBegun is returned when passes are added or executed outside Begin/EndFrame.
	ErrFrameNotBegun = errors.New("frame graph has no open frame")
)
