package kms

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/NeowayLabs/drm"
	drmmode "github.com/NeowayLabs/drm/mode"

	"github.com/bnema/modeset/internal/logger"
)

// Card is a Driver talking to a real DRM card node
type Card struct {
	file *os.File
	path string
}

// Path returns the device node the card was opened from
func (c *Card) Path() string {
	return c.path
}

// Close closes the device node. Only the first call has an effect.
func (c *Card) Close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}

func (c *Card) Version() (DriverVersion, error) {
	v, err := drm.GetVersion(c.file)
	if err != nil {
		return DriverVersion{}, err
	}
	return DriverVersion{
		Name:  v.Name,
		Desc:  v.Desc,
		Date:  v.Date,
		Major: v.Major,
		Minor: v.Minor,
		Patch: v.Patch,
	}, nil
}

func (c *Card) ListResources() (*Resources, error) {
	res, err := drmmode.GetResources(c.file)
	if err != nil {
		return nil, err
	}
	return &Resources{
		Framebuffers: res.Fbs,
		Crtcs:        res.Crtcs,
		Connectors:   res.Connectors,
		Encoders:     res.Encoders,
		MinWidth:     res.MinWidth,
		MaxWidth:     res.MaxWidth,
		MinHeight:    res.MinHeight,
		MaxHeight:    res.MaxHeight,
	}, nil
}

func (c *Card) GetConnector(id uint32) (*Connector, error) {
	conn, err := drmmode.GetConnector(c.file, id)
	if err != nil {
		return nil, err
	}

	// The library always hands the kernel room for one mode, so a connector
	// without modes comes back with a single zeroed entry.
	modes := make([]Mode, 0, len(conn.Modes))
	for _, info := range conn.Modes {
		if info == (drmmode.Info{}) {
			continue
		}
		modes = append(modes, fromInfo(info))
	}

	return &Connector{
		ID:         conn.ID,
		Type:       ConnectorType(conn.Type),
		TypeID:     conn.TypeID,
		Connection: ConnectionState(conn.Connection),
		EncoderID:  conn.EncoderID,
		Encoders:   conn.Encoders,
		Modes:      modes,
		WidthMM:    conn.Width,
		HeightMM:   conn.Height,
	}, nil
}

func (c *Card) GetEncoder(id uint32) (*Encoder, error) {
	enc, err := drmmode.GetEncoder(c.file, id)
	if err != nil {
		return nil, err
	}
	return &Encoder{
		ID:            enc.ID,
		Type:          enc.Type,
		CrtcID:        enc.CrtcID,
		PossibleCrtcs: CrtcMask(enc.PossibleCrtcs),
	}, nil
}

func (c *Card) GetCrtc(id uint32) (*Crtc, error) {
	crtc, err := drmmode.GetCrtc(c.file, id)
	if err != nil {
		return nil, err
	}
	out := &Crtc{
		ID:            crtc.ID,
		FramebufferID: crtc.BufferID,
		X:             crtc.X,
		Y:             crtc.Y,
	}
	if crtc.ModeValid != 0 {
		m := fromInfo(crtc.Mode)
		out.Mode = &m
	}
	return out, nil
}

func (c *Card) CreateBuffer(width, height, bpp uint32) (DumbBuffer, error) {
	if width > math.MaxUint16 || height > math.MaxUint16 {
		return DumbBuffer{}, fmt.Errorf("size %dx%d out of range", width, height)
	}
	if !drm.HasDumbBuffer(c.file) {
		return DumbBuffer{}, errors.New("driver does not support dumb buffers")
	}
	fb, err := drmmode.CreateFB(c.file, uint16(width), uint16(height), bpp)
	if err != nil {
		return DumbBuffer{}, err
	}
	return DumbBuffer{Handle: fb.Handle, Pitch: fb.Pitch, Size: fb.Size}, nil
}

func (c *Card) RegisterFramebuffer(width, height uint32, depth, bpp uint8, pitch, handle uint32) (uint32, error) {
	if width > math.MaxUint16 || height > math.MaxUint16 {
		return 0, fmt.Errorf("size %dx%d out of range", width, height)
	}
	return drmmode.AddFB(c.file, uint16(width), uint16(height), depth, bpp, pitch, handle)
}

func (c *Card) SetCrtc(crtcID, fbID, x, y uint32, connectors []uint32, mode *Mode) error {
	var first *uint32
	if len(connectors) > 0 {
		first = &connectors[0]
	}
	var info *drmmode.Info
	if mode != nil {
		i := toInfo(*mode)
		info = &i
	}
	return drmmode.SetCrtc(c.file, crtcID, fbID, x, y, first, len(connectors), info)
}

func (c *Card) RemoveFramebuffer(fbID uint32) error {
	return drmmode.RmFB(c.file, fbID)
}

func (c *Card) DestroyBuffer(handle uint32) error {
	return drmmode.DestroyDumb(c.file, handle)
}

// The kernel keeps no per-query state, so releasing only drops our copies.

func (c *Card) ReleaseConnector(conn *Connector) {
	logger.Debug("Releasing connector", "id", conn.ID)
	conn.Modes = nil
	conn.Encoders = nil
}

func (c *Card) ReleaseEncoder(enc *Encoder) {
	logger.Debug("Releasing encoder", "id", enc.ID)
}

func (c *Card) ReleaseCrtc(crtc *Crtc) {
	logger.Debug("Releasing CRTC", "id", crtc.ID)
	crtc.Mode = nil
}

func (c *Card) ReleaseResources(res *Resources) {
	logger.Debug("Releasing resources")
	res.Framebuffers = nil
	res.Crtcs = nil
	res.Connectors = nil
	res.Encoders = nil
}

func fromInfo(info drmmode.Info) Mode {
	name, _, _ := bytes.Cut(info.Name[:], []byte{0})
	return Mode{
		Name:       string(name),
		Clock:      info.Clock,
		Refresh:    info.Vrefresh,
		Flags:      info.Flags,
		Type:       info.Type,
		Width:      info.Hdisplay,
		HsyncStart: info.HsyncStart,
		HsyncEnd:   info.HsyncEnd,
		Htotal:     info.Htotal,
		Hskew:      info.Hskew,
		Height:     info.Vdisplay,
		VsyncStart: info.VsyncStart,
		VsyncEnd:   info.VsyncEnd,
		Vtotal:     info.Vtotal,
		Vscan:      info.Vscan,
	}
}

func toInfo(m Mode) drmmode.Info {
	info := drmmode.Info{
		Clock:      m.Clock,
		Vrefresh:   m.Refresh,
		Flags:      m.Flags,
		Type:       m.Type,
		Hdisplay:   m.Width,
		HsyncStart: m.HsyncStart,
		HsyncEnd:   m.HsyncEnd,
		Htotal:     m.Htotal,
		Hskew:      m.Hskew,
		Vdisplay:   m.Height,
		VsyncStart: m.VsyncStart,
		VsyncEnd:   m.VsyncEnd,
		Vtotal:     m.Vtotal,
		Vscan:      m.Vscan,
	}
	copy(info.Name[:len(info.Name)-1], m.Name)
	return info
}
