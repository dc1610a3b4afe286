package kms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommit(t *testing.T) {
	m := testMode(1920, 1080, 60)
	crtc := &Crtc{ID: 30}
	fb := &Framebuffer{ID: 100, Handle: 1, Width: 1920, Height: 1080}
	conn := &Connector{ID: 10}

	t.Run("binds one connector at origin", func(t *testing.T) {
		f := newFakeDriver()
		require.NoError(t, Commit(f, crtc, fb, conn, m))

		require.NotNil(t, f.lastSet)
		assert.Equal(t, uint32(30), f.lastSet.crtcID)
		assert.Equal(t, uint32(100), f.lastSet.fbID)
		assert.Zero(t, f.lastSet.x)
		assert.Zero(t, f.lastSet.y)
		assert.Equal(t, []uint32{10}, f.lastSet.connectors)
		assert.Equal(t, m, f.lastSet.mode)
	})

	t.Run("failure", func(t *testing.T) {
		f := newFakeDriver()
		f.setCrtcErr = errors.New("EBUSY")

		err := Commit(f, crtc, fb, conn, m)
		assert.ErrorIs(t, err, ErrModeSet)
		assert.ErrorContains(t, err, "1920x1080@60Hz")
	})
}
