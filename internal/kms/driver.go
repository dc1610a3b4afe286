package kms

// Driver is the kernel mode-setting interface of one open card. Every call is
// a blocking request; nothing here is safe for concurrent use.
//
// The Release methods drop a queried object. They do not talk to the kernel,
// but callers still pair every successful Get with exactly one Release.
type Driver interface {
	ListResources() (*Resources, error)
	GetConnector(id uint32) (*Connector, error)
	GetEncoder(id uint32) (*Encoder, error)
	GetCrtc(id uint32) (*Crtc, error)

	CreateBuffer(width, height, bpp uint32) (DumbBuffer, error)
	RegisterFramebuffer(width, height uint32, depth, bpp uint8, pitch, handle uint32) (uint32, error)
	SetCrtc(crtcID, fbID, x, y uint32, connectors []uint32, mode *Mode) error
	RemoveFramebuffer(fbID uint32) error
	DestroyBuffer(handle uint32) error

	ReleaseConnector(c *Connector)
	ReleaseEncoder(e *Encoder)
	ReleaseCrtc(c *Crtc)
	ReleaseResources(r *Resources)

	Close() error
}

// Versioner is implemented by drivers that can name the kernel driver behind
// the card.
type Versioner interface {
	Version() (DriverVersion, error)
}

// Opener opens the card at path
type Opener func(path string) (Driver, error)
