package kms

import (
	"errors"
	"fmt"

	"github.com/bnema/modeset/internal/logger"
)

// Session walks one card from open to mode set and owns every handle acquired
// on the way. Steps must be called in order; Teardown may be called at any
// point and releases exactly what the reached stage holds.
type Session struct {
	path string
	open Opener

	stage     Stage
	drv       Driver
	resources *Resources
	connector *Connector
	encoder   *Encoder
	crtc      *Crtc
	mode      Mode
	fb        *Framebuffer
}

// NewSession prepares a session for the card at path
func NewSession(path string, open Opener) *Session {
	if open == nil {
		open = OpenDriver
	}
	return &Session{path: path, open: open}
}

// Stage returns the last completed step
func (s *Session) Stage() Stage {
	return s.stage
}

// Driver returns the open card, nil before Open
func (s *Session) Driver() Driver {
	return s.drv
}

// Resources returns the loaded snapshot, nil before LoadResources
func (s *Session) Resources() *Resources {
	return s.resources
}

// Pipeline returns the selection made so far, nil before a connector is chosen
func (s *Session) Pipeline() *Pipeline {
	if s.connector == nil {
		return nil
	}
	return &Pipeline{
		Connector: s.connector,
		Encoder:   s.encoder,
		Crtc:      s.crtc,
		Mode:      s.mode,
	}
}

// Framebuffer returns the allocated framebuffer, nil before allocation
func (s *Session) Framebuffer() *Framebuffer {
	return s.fb
}

func (s *Session) expect(want Stage) error {
	if s.stage != want {
		return fmt.Errorf("kms: session at stage %s, want %s", s.stage, want)
	}
	return nil
}

// Open opens the card
func (s *Session) Open() error {
	if err := s.expect(StageUnopened); err != nil {
		return err
	}
	drv, err := s.open(s.path)
	if err != nil {
		if !errors.Is(err, ErrOpen) {
			err = fmt.Errorf("%w %s: %w", ErrOpen, s.path, err)
		}
		return err
	}
	s.drv = drv
	s.stage = StageOpened
	logger.Debug("Opened device", "path", s.path)
	return nil
}

// LoadResources takes the resource snapshot
func (s *Session) LoadResources() error {
	if err := s.expect(StageOpened); err != nil {
		return err
	}
	res, err := LoadResources(s.drv)
	if err != nil {
		return err
	}
	s.resources = res
	s.stage = StageResourcesLoaded
	return nil
}

// SelectPipeline chooses connector, encoder, CRTC and mode. Each accepted
// object is owned by the session as soon as it is chosen, so a later failure
// still leaves the earlier ones for Teardown.
func (s *Session) SelectPipeline() (*Pipeline, error) {
	if err := s.expect(StageResourcesLoaded); err != nil {
		return nil, err
	}

	conn, err := SelectConnector(s.drv, s.resources)
	if err != nil {
		return nil, err
	}
	s.connector = conn
	s.stage = StageConnectorChosen

	enc, err := SelectEncoder(s.drv, conn)
	if err != nil {
		return nil, err
	}
	s.encoder = enc
	s.stage = StageEncoderChosen

	crtc, err := SelectCrtc(s.drv, s.resources, enc)
	if err != nil {
		return nil, err
	}
	s.crtc = crtc
	s.stage = StageCrtcChosen

	m, ok := SelectMode(conn.Modes)
	if !ok {
		return nil, fmt.Errorf("%w: connector %d has no mode with a visible area", ErrNoConnector, conn.ID)
	}
	s.mode = m
	s.stage = StageModeChosen
	logger.Info("Selected mode", "mode", m.String(), "connector", conn.Name(), "crtc", crtc.ID)

	return s.Pipeline(), nil
}

// AllocateFramebuffer creates and registers a framebuffer for the chosen mode
func (s *Session) AllocateFramebuffer() (*Framebuffer, error) {
	if err := s.expect(StageModeChosen); err != nil {
		return nil, err
	}
	fb, err := AllocateFramebuffer(s.drv, s.mode)
	if fb != nil {
		s.fb = fb
		s.stage = StageBufferCreated
	}
	if err != nil {
		return nil, err
	}
	s.stage = StageFramebufferReady
	return fb, nil
}

// Commit programs the selected pipeline
func (s *Session) Commit() error {
	if err := s.expect(StageFramebufferReady); err != nil {
		return err
	}
	logger.Info("Setting mode", "mode", s.mode.String())
	if err := Commit(s.drv, s.crtc, s.fb, s.connector, s.mode); err != nil {
		return err
	}
	s.stage = StageModeSet
	logger.Info("Mode set successfully")
	return nil
}

// Run performs every step up to the mode set and stops at the first failure.
// It does not tear down; callers defer Teardown.
func (s *Session) Run() error {
	if err := s.Open(); err != nil {
		return err
	}
	if err := s.LoadResources(); err != nil {
		return err
	}
	if _, err := s.SelectPipeline(); err != nil {
		return err
	}
	if _, err := s.AllocateFramebuffer(); err != nil {
		return err
	}
	return s.Commit()
}

// Teardown releases everything the session holds, newest first: framebuffer
// registration, dumb buffer, CRTC, encoder, connector, resources, device.
// Release failures do not stop the sequence and are returned joined. Calling
// Teardown again is a no-op.
func (s *Session) Teardown() error {
	var errs []error

	switch s.stage {
	case StageModeSet, StageFramebufferReady:
		if s.fb != nil && s.fb.ID != 0 {
			if err := s.drv.RemoveFramebuffer(s.fb.ID); err != nil {
				logger.Warn("Failed to remove framebuffer", "fb", s.fb.ID, "err", err)
				errs = append(errs, fmt.Errorf("remove framebuffer %d: %w", s.fb.ID, err))
			}
			s.fb.ID = 0
		}
		fallthrough
	case StageBufferCreated:
		if s.fb != nil && s.fb.Handle != 0 {
			if err := s.drv.DestroyBuffer(s.fb.Handle); err != nil {
				logger.Warn("Failed to destroy dumb buffer", "handle", s.fb.Handle, "err", err)
				errs = append(errs, fmt.Errorf("destroy buffer %d: %w", s.fb.Handle, err))
			}
			s.fb.Handle = 0
		}
		s.fb = nil
		fallthrough
	case StageModeChosen, StageCrtcChosen:
		s.mode = Mode{}
		if s.crtc != nil {
			s.drv.ReleaseCrtc(s.crtc)
			s.crtc = nil
		}
		fallthrough
	case StageEncoderChosen:
		if s.encoder != nil {
			s.drv.ReleaseEncoder(s.encoder)
			s.encoder = nil
		}
		fallthrough
	case StageConnectorChosen:
		if s.connector != nil {
			s.drv.ReleaseConnector(s.connector)
			s.connector = nil
		}
		fallthrough
	case StageResourcesLoaded:
		if s.resources != nil {
			s.drv.ReleaseResources(s.resources)
			s.resources = nil
		}
		fallthrough
	case StageOpened:
		if s.drv != nil {
			if err := s.drv.Close(); err != nil {
				logger.Warn("Failed to close device", "path", s.path, "err", err)
				errs = append(errs, fmt.Errorf("close %s: %w", s.path, err))
			}
			s.drv = nil
		}
	}

	if s.stage != StageUnopened {
		logger.Debug("Teardown complete", "from", s.stage)
	}
	s.stage = StageUnopened
	return errors.Join(errs...)
}
