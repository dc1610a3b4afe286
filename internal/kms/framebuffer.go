package kms

import (
	"fmt"

	"github.com/bnema/modeset/internal/logger"
)

const (
	// BitsPerPixel of every dumb buffer we allocate
	BitsPerPixel = 32
	// ColorDepth used when registering the buffer (XRGB8888)
	ColorDepth = 24
)

// AllocateFramebuffer creates a dumb buffer the size of m and registers it as
// a framebuffer. If registration fails the buffer is still returned, with a
// zero ID, so the caller can destroy it.
func AllocateFramebuffer(drv Driver, m Mode) (*Framebuffer, error) {
	width, height := uint32(m.Width), uint32(m.Height)

	buf, err := drv.CreateBuffer(width, height, BitsPerPixel)
	if err != nil {
		return nil, fmt.Errorf("%w %dx%d: %w", ErrBufferAllocation, width, height, err)
	}
	fb := &Framebuffer{
		Handle: buf.Handle,
		Pitch:  buf.Pitch,
		Size:   buf.Size,
		Width:  width,
		Height: height,
	}
	logger.Debug("Created dumb buffer", "handle", fb.Handle, "pitch", fb.Pitch, "size", fb.Size)

	id, err := drv.RegisterFramebuffer(width, height, ColorDepth, BitsPerPixel, buf.Pitch, buf.Handle)
	if err != nil {
		return fb, fmt.Errorf("%w for buffer %d: %w", ErrFramebufferRegistration, buf.Handle, err)
	}
	fb.ID = id
	logger.Debug("Registered framebuffer", "fb", id)
	return fb, nil
}
