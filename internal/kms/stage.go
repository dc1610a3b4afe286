package kms

// Stage is the last step a Session completed. Everything acquired up to and
// including that step is what Teardown releases.
type Stage int

const (
	StageUnopened Stage = iota
	StageOpened
	StageResourcesLoaded
	StageConnectorChosen
	StageEncoderChosen
	StageCrtcChosen
	StageModeChosen
	// StageBufferCreated means a dumb buffer exists but is not registered yet,
	// either in between the two calls or because registration failed.
	StageBufferCreated
	StageFramebufferReady
	StageModeSet
)

func (s Stage) String() string {
	switch s {
	case StageUnopened:
		return "unopened"
	case StageOpened:
		return "opened"
	case StageResourcesLoaded:
		return "resources-loaded"
	case StageConnectorChosen:
		return "connector-chosen"
	case StageEncoderChosen:
		return "encoder-chosen"
	case StageCrtcChosen:
		return "crtc-chosen"
	case StageModeChosen:
		return "mode-chosen"
	case StageBufferCreated:
		return "buffer-created"
	case StageFramebufferReady:
		return "framebuffer-ready"
	case StageModeSet:
		return "mode-set"
	default:
		return "invalid"
	}
}
