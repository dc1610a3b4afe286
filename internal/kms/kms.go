// Package kms picks a display pipeline on a DRM card and programs a mode on it
// through the kernel mode-setting interface
package kms

import "fmt"

// ConnectionState mirrors the kernel's connector connection field
type ConnectionState uint8

const (
	StateConnected    ConnectionState = 1
	StateDisconnected ConnectionState = 2
	StateUnknown      ConnectionState = 3
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ConnectorType is the DRM_MODE_CONNECTOR_* value of a connector
type ConnectorType uint32

var connectorTypeNames = []string{
	"Unknown", "VGA", "DVI-I", "DVI-D", "DVI-A", "Composite", "SVIDEO", "LVDS",
	"Component", "DIN", "DP", "HDMI-A", "HDMI-B", "TV", "eDP", "Virtual", "DSI",
	"DPI", "Writeback", "SPI", "USB",
}

func (t ConnectorType) String() string {
	if int(t) < len(connectorTypeNames) {
		return connectorTypeNames[t]
	}
	return "Unknown"
}

// Mode is a display timing. It is a plain value; nothing needs releasing.
type Mode struct {
	Name    string
	Clock   uint32
	Refresh uint32
	Flags   uint32
	Type    uint32

	Width, HsyncStart, HsyncEnd, Htotal, Hskew  uint16
	Height, VsyncStart, VsyncEnd, Vtotal, Vscan uint16
}

// Area is the visible pixel count of the mode
func (m Mode) Area() int {
	return int(m.Width) * int(m.Height)
}

func (m Mode) String() string {
	return fmt.Sprintf("%dx%d@%dHz", m.Width, m.Height, m.Refresh)
}

// Resources is one snapshot of the object ids a card exposes. Objects queried
// through these ids are only meaningful while the snapshot is held.
type Resources struct {
	Framebuffers []uint32
	Crtcs        []uint32
	Connectors   []uint32
	Encoders     []uint32

	MinWidth, MaxWidth   uint32
	MinHeight, MaxHeight uint32
}

// Connector is a physical output port
type Connector struct {
	ID         uint32
	Type       ConnectorType
	TypeID     uint32
	Connection ConnectionState
	// EncoderID is the currently bound encoder, 0 if none
	EncoderID uint32
	Encoders  []uint32
	Modes     []Mode

	WidthMM, HeightMM uint32
}

// Name returns the conventional connector name, e.g. HDMI-A-1
func (c *Connector) Name() string {
	return fmt.Sprintf("%s-%d", c.Type, c.TypeID)
}

// Usable reports whether the connector can be selected for output
func (c *Connector) Usable() bool {
	return c.Connection == StateConnected && len(c.Modes) > 0
}

// Encoder converts pixel data into the signal format of a connector
type Encoder struct {
	ID   uint32
	Type uint32
	// CrtcID is the currently bound CRTC, 0 if none
	CrtcID        uint32
	PossibleCrtcs CrtcMask
}

// Crtc is a scanout timing controller
type Crtc struct {
	ID            uint32
	FramebufferID uint32
	X, Y          uint32
	// Mode is nil when the CRTC has no valid mode
	Mode *Mode
}

// DumbBuffer is a driver allocated pixel buffer without acceleration
type DumbBuffer struct {
	Handle uint32
	Pitch  uint32
	Size   uint64
}

// Framebuffer is a dumb buffer plus the id it was registered under. ID is 0
// while the buffer is not registered.
type Framebuffer struct {
	ID     uint32
	Handle uint32
	Pitch  uint32
	Size   uint64
	Width  uint32
	Height uint32
}

// Pipeline is the selected set of objects for one output
type Pipeline struct {
	Connector *Connector
	Encoder   *Encoder
	Crtc      *Crtc
	Mode      Mode
}

// DriverVersion identifies the kernel driver behind a card
type DriverVersion struct {
	Name  string
	Desc  string
	Date  string
	Major int32
	Minor int32
	Patch int32
}

func (v DriverVersion) String() string {
	return fmt.Sprintf("%s %d.%d.%d", v.Name, v.Major, v.Minor, v.Patch)
}
