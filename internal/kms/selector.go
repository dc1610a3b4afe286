package kms

import (
	"fmt"

	"github.com/bnema/modeset/internal/logger"
)

// SelectConnector returns the first connector in listing order that is
// connected and advertises at least one mode. Every other queried connector is
// released before returning.
func SelectConnector(drv Driver, res *Resources) (*Connector, error) {
	for _, id := range res.Connectors {
		conn, err := drv.GetConnector(id)
		if err != nil {
			logger.Debug("Skipping connector", "id", id, "err", err)
			continue
		}
		if conn.Usable() {
			logger.Debug("Accepted connector", "id", id, "name", conn.Name(), "modes", len(conn.Modes))
			return conn, nil
		}
		logger.Debug("Rejected connector", "id", id, "name", conn.Name(),
			"state", conn.Connection, "modes", len(conn.Modes))
		drv.ReleaseConnector(conn)
	}
	return nil, fmt.Errorf("%w among %d connectors", ErrNoConnector, len(res.Connectors))
}

// SelectEncoder returns the encoder currently bound to conn. When none is
// bound, or the bound one cannot be queried, it returns the first candidate
// encoder able to drive any CRTC at all. Whether that CRTC is obtainable is
// left to SelectCrtc.
func SelectEncoder(drv Driver, conn *Connector) (*Encoder, error) {
	if conn.EncoderID != 0 {
		enc, err := drv.GetEncoder(conn.EncoderID)
		if err == nil {
			logger.Debug("Using bound encoder", "id", enc.ID)
			return enc, nil
		}
		logger.Debug("Bound encoder unavailable", "id", conn.EncoderID, "err", err)
	}

	for _, id := range conn.Encoders {
		enc, err := drv.GetEncoder(id)
		if err != nil {
			logger.Debug("Skipping encoder", "id", id, "err", err)
			continue
		}
		if enc.PossibleCrtcs.Any() {
			logger.Debug("Accepted encoder", "id", id, "possible_crtcs", fmt.Sprintf("%#x", uint32(enc.PossibleCrtcs)))
			return enc, nil
		}
		logger.Debug("Rejected encoder", "id", id)
		drv.ReleaseEncoder(enc)
	}
	return nil, fmt.Errorf("%w %d", ErrNoEncoder, conn.ID)
}

// SelectCrtc returns the CRTC bound to enc, or else the first CRTC in listing
// order that enc can drive and that can be queried. A bound CRTC that fails
// to query is not replaced.
func SelectCrtc(drv Driver, res *Resources, enc *Encoder) (*Crtc, error) {
	if enc.CrtcID != 0 {
		crtc, err := drv.GetCrtc(enc.CrtcID)
		if err != nil {
			return nil, fmt.Errorf("%w: bound CRTC %d: %w", ErrNoCrtc, enc.CrtcID, err)
		}
		logger.Debug("Using bound CRTC", "id", crtc.ID)
		return crtc, nil
	}

	for i, id := range res.Crtcs {
		if !enc.PossibleCrtcs.Compatible(i) {
			continue
		}
		crtc, err := drv.GetCrtc(id)
		if err != nil {
			logger.Debug("Skipping CRTC", "index", i, "id", id, "err", err)
			continue
		}
		logger.Debug("Accepted CRTC", "index", i, "id", id)
		return crtc, nil
	}
	return nil, fmt.Errorf("%w for encoder %d", ErrNoCrtc, enc.ID)
}

// SelectMode returns the mode with the largest visible area. On equal area
// the earliest mode wins. ok is false when no mode has a non-zero area.
func SelectMode(modes []Mode) (best Mode, ok bool) {
	largest := 0
	for _, m := range modes {
		if area := m.Area(); area > largest {
			best = m
			largest = area
			ok = true
		}
	}
	return best, ok
}
