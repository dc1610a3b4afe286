package kms

import "fmt"

// Commit scans fb out on crtc at (0,0), driving conn alone with mode m
func Commit(drv Driver, crtc *Crtc, fb *Framebuffer, conn *Connector, m Mode) error {
	if err := drv.SetCrtc(crtc.ID, fb.ID, 0, 0, []uint32{conn.ID}, &m); err != nil {
		return fmt.Errorf("%w %d to %s: %w", ErrModeSet, crtc.ID, m, err)
	}
	return nil
}
