package kms

// CrtcMask is an encoder's possible_crtcs bitmask. Bit i refers to the i-th
// CRTC id in the resource listing, not to a CRTC object id.
type CrtcMask uint32

// Compatible reports whether the CRTC at listing index i can be driven.
func (m CrtcMask) Compatible(i int) bool {
	if i < 0 || i >= 32 {
		return false
	}
	return m&(1<<uint(i)) != 0
}

// Any reports whether at least one CRTC can be driven. It says nothing about
// whether that CRTC is free.
func (m CrtcMask) Any() bool {
	return m != 0
}

// Indices returns the set bit positions in ascending order.
func (m CrtcMask) Indices() []int {
	var out []int
	for i := 0; i < 32; i++ {
		if m.Compatible(i) {
			out = append(out, i)
		}
	}
	return out
}
