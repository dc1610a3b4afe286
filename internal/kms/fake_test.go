package kms

import (
	"errors"
	"fmt"
	"sort"
)

var errNoEnt = errors.New("no such object")

type setCrtcCall struct {
	crtcID, fbID, x, y uint32
	connectors         []uint32
	mode               Mode
}

// fakeDriver records every call and counts outstanding acquisitions so tests
// can check that each object is released exactly once.
type fakeDriver struct {
	resources  *Resources
	connectors map[uint32]*Connector
	encoders   map[uint32]*Encoder
	crtcs      map[uint32]*Crtc

	listErr     error
	createErr   error
	registerErr error
	setCrtcErr  error
	rmFBErr     error
	closeErr    error

	pitch      uint32
	nextHandle uint32
	nextFB     uint32

	calls      []string
	live       map[string]int
	violations []string
	lastSet    *setCrtcCall
	created    [][3]uint32
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		resources:  &Resources{},
		connectors: map[uint32]*Connector{},
		encoders:   map[uint32]*Encoder{},
		crtcs:      map[uint32]*Crtc{},
		live:       map[string]int{},
		nextHandle: 1,
		nextFB:     100,
	}
}

func (f *fakeDriver) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeDriver) acquire(key string) {
	f.live[key]++
}

func (f *fakeDriver) release(key string) {
	if f.live[key] <= 0 {
		f.violations = append(f.violations, "release without acquire: "+key)
		return
	}
	f.live[key]--
	if f.live[key] == 0 {
		delete(f.live, key)
	}
}

// outstanding lists acquisitions that were never released
func (f *fakeDriver) outstanding() []string {
	var out []string
	for k := range f.live {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (f *fakeDriver) called(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (f *fakeDriver) opener() Opener {
	return func(path string) (Driver, error) {
		f.record("Open %s", path)
		f.acquire("device")
		return f, nil
	}
}

func (f *fakeDriver) ListResources() (*Resources, error) {
	f.record("ListResources")
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.acquire("resources")
	r := *f.resources
	return &r, nil
}

func (f *fakeDriver) GetConnector(id uint32) (*Connector, error) {
	f.record("GetConnector %d", id)
	c, ok := f.connectors[id]
	if !ok {
		return nil, errNoEnt
	}
	f.acquire(fmt.Sprintf("connector:%d", id))
	cp := *c
	return &cp, nil
}

func (f *fakeDriver) GetEncoder(id uint32) (*Encoder, error) {
	f.record("GetEncoder %d", id)
	e, ok := f.encoders[id]
	if !ok {
		return nil, errNoEnt
	}
	f.acquire(fmt.Sprintf("encoder:%d", id))
	cp := *e
	return &cp, nil
}

func (f *fakeDriver) GetCrtc(id uint32) (*Crtc, error) {
	f.record("GetCrtc %d", id)
	c, ok := f.crtcs[id]
	if !ok {
		return nil, errNoEnt
	}
	f.acquire(fmt.Sprintf("crtc:%d", id))
	cp := *c
	return &cp, nil
}

func (f *fakeDriver) CreateBuffer(width, height, bpp uint32) (DumbBuffer, error) {
	f.record("CreateBuffer %dx%d@%d", width, height, bpp)
	f.created = append(f.created, [3]uint32{width, height, bpp})
	if f.createErr != nil {
		return DumbBuffer{}, f.createErr
	}
	h := f.nextHandle
	f.nextHandle++
	f.acquire(fmt.Sprintf("buffer:%d", h))
	pitch := f.pitch
	if pitch == 0 {
		pitch = width * bpp / 8
	}
	return DumbBuffer{Handle: h, Pitch: pitch, Size: uint64(pitch) * uint64(height)}, nil
}

func (f *fakeDriver) RegisterFramebuffer(width, height uint32, depth, bpp uint8, pitch, handle uint32) (uint32, error) {
	f.record("RegisterFramebuffer %dx%d depth=%d bpp=%d pitch=%d handle=%d", width, height, depth, bpp, pitch, handle)
	if f.registerErr != nil {
		return 0, f.registerErr
	}
	id := f.nextFB
	f.nextFB++
	f.acquire(fmt.Sprintf("fb:%d", id))
	return id, nil
}

func (f *fakeDriver) SetCrtc(crtcID, fbID, x, y uint32, connectors []uint32, mode *Mode) error {
	f.record("SetCrtc %d fb=%d", crtcID, fbID)
	f.lastSet = &setCrtcCall{
		crtcID:     crtcID,
		fbID:       fbID,
		x:          x,
		y:          y,
		connectors: append([]uint32(nil), connectors...),
		mode:       *mode,
	}
	return f.setCrtcErr
}

func (f *fakeDriver) RemoveFramebuffer(fbID uint32) error {
	f.record("RemoveFramebuffer %d", fbID)
	f.release(fmt.Sprintf("fb:%d", fbID))
	return f.rmFBErr
}

func (f *fakeDriver) DestroyBuffer(handle uint32) error {
	f.record("DestroyBuffer %d", handle)
	f.release(fmt.Sprintf("buffer:%d", handle))
	return nil
}

func (f *fakeDriver) ReleaseConnector(c *Connector) {
	f.record("ReleaseConnector %d", c.ID)
	f.release(fmt.Sprintf("connector:%d", c.ID))
}

func (f *fakeDriver) ReleaseEncoder(e *Encoder) {
	f.record("ReleaseEncoder %d", e.ID)
	f.release(fmt.Sprintf("encoder:%d", e.ID))
}

func (f *fakeDriver) ReleaseCrtc(c *Crtc) {
	f.record("ReleaseCrtc %d", c.ID)
	f.release(fmt.Sprintf("crtc:%d", c.ID))
}

func (f *fakeDriver) ReleaseResources(r *Resources) {
	f.record("ReleaseResources")
	f.release("resources")
}

func (f *fakeDriver) Close() error {
	f.record("Close")
	f.release("device")
	return f.closeErr
}

func testMode(w, h uint16, refresh uint32) Mode {
	return Mode{
		Name:    fmt.Sprintf("%dx%d", w, h),
		Clock:   148500,
		Refresh: refresh,
		Width:   w,
		Height:  h,
		Htotal:  w + 280,
		Vtotal:  h + 45,
	}
}

// singleOutputCard is one connected connector advertising 1920x1080 and
// 1280x720, an unbound encoder able to drive the only CRTC.
func singleOutputCard() *fakeDriver {
	f := newFakeDriver()
	f.resources = &Resources{
		Connectors: []uint32{10},
		Encoders:   []uint32{20},
		Crtcs:      []uint32{30},
	}
	f.connectors[10] = &Connector{
		ID:         10,
		Type:       11,
		TypeID:     1,
		Connection: StateConnected,
		Encoders:   []uint32{20},
		Modes:      []Mode{testMode(1920, 1080, 60), testMode(1280, 720, 60)},
	}
	f.encoders[20] = &Encoder{ID: 20, PossibleCrtcs: 0b1}
	f.crtcs[30] = &Crtc{ID: 30}
	return f
}
