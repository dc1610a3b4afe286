package cmd

import (
	"errors"
	"fmt"

	"github.com/bnema/modeset/internal/kms"
)

// stubCard is a one-output card that logs every call
type stubCard struct {
	connection kms.ConnectionState
	calls      []string
	held       int
}

func newStubCard() *stubCard {
	return &stubCard{connection: kms.StateConnected}
}

func (s *stubCard) opener(paths *[]string) kms.Opener {
	return func(path string) (kms.Driver, error) {
		*paths = append(*paths, path)
		return s, nil
	}
}

func (s *stubCard) log(format string, args ...interface{}) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *stubCard) Version() (kms.DriverVersion, error) {
	return kms.DriverVersion{Name: "stub", Major: 1, Minor: 2, Patch: 3}, nil
}

func (s *stubCard) ListResources() (*kms.Resources, error) {
	s.log("ListResources")
	s.held++
	return &kms.Resources{Connectors: []uint32{10}, Encoders: []uint32{20}, Crtcs: []uint32{30}}, nil
}

func (s *stubCard) GetConnector(id uint32) (*kms.Connector, error) {
	s.log("GetConnector %d", id)
	if id != 10 {
		return nil, errors.New("no such connector")
	}
	s.held++
	return &kms.Connector{
		ID:         10,
		Type:       11,
		TypeID:     1,
		Connection: s.connection,
		EncoderID:  20,
		Encoders:   []uint32{20},
		Modes: []kms.Mode{
			{Name: "1280x720", Width: 1280, Height: 720, Refresh: 60},
			{Name: "1920x1080", Width: 1920, Height: 1080, Refresh: 60},
		},
	}, nil
}

func (s *stubCard) GetEncoder(id uint32) (*kms.Encoder, error) {
	s.log("GetEncoder %d", id)
	if id != 20 {
		return nil, errors.New("no such encoder")
	}
	s.held++
	return &kms.Encoder{ID: 20, PossibleCrtcs: 0b1}, nil
}

func (s *stubCard) GetCrtc(id uint32) (*kms.Crtc, error) {
	s.log("GetCrtc %d", id)
	if id != 30 {
		return nil, errors.New("no such crtc")
	}
	s.held++
	return &kms.Crtc{ID: 30}, nil
}

func (s *stubCard) CreateBuffer(width, height, bpp uint32) (kms.DumbBuffer, error) {
	s.log("CreateBuffer %dx%d@%d", width, height, bpp)
	s.held++
	return kms.DumbBuffer{Handle: 1, Pitch: width * bpp / 8, Size: uint64(width*bpp/8) * uint64(height)}, nil
}

func (s *stubCard) RegisterFramebuffer(width, height uint32, depth, bpp uint8, pitch, handle uint32) (uint32, error) {
	s.log("RegisterFramebuffer %dx%d", width, height)
	s.held++
	return 100, nil
}

func (s *stubCard) SetCrtc(crtcID, fbID, x, y uint32, connectors []uint32, mode *kms.Mode) error {
	s.log("SetCrtc %d fb=%d %s", crtcID, fbID, mode)
	return nil
}

func (s *stubCard) RemoveFramebuffer(fbID uint32) error {
	s.log("RemoveFramebuffer %d", fbID)
	s.held--
	return nil
}

func (s *stubCard) DestroyBuffer(handle uint32) error {
	s.log("DestroyBuffer %d", handle)
	s.held--
	return nil
}

func (s *stubCard) ReleaseConnector(c *kms.Connector) { s.held-- }
func (s *stubCard) ReleaseEncoder(e *kms.Encoder)     { s.held-- }
func (s *stubCard) ReleaseCrtc(c *kms.Crtc)           { s.held-- }
func (s *stubCard) ReleaseResources(r *kms.Resources) { s.held-- }

func (s *stubCard) Close() error {
	s.log("Close")
	return nil
}

func (s *stubCard) called(prefix string) int {
	n := 0
	for _, c := range s.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}
