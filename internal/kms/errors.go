package kms

import "errors"

// Each stage of a run fails with exactly one of these. Callers match them with
// errors.Is; the wrapped message carries the object ids and the OS error text.
var (
	ErrOpen                    = errors.New("cannot open device")
	ErrResourceQuery           = errors.New("cannot get DRM resources")
	ErrNoConnector             = errors.New("no connected connector found")
	ErrNoEncoder               = errors.New("no encoder found for connector")
	ErrNoCrtc                  = errors.New("no CRTC found")
	ErrBufferAllocation        = errors.New("cannot create dumb buffer")
	ErrFramebufferRegistration = errors.New("cannot create framebuffer")
	ErrModeSet                 = errors.New("cannot set CRTC")
)
