package kms

import (
	"fmt"

	"github.com/bnema/modeset/internal/logger"
)

// LoadResources queries the card's resource listing once
func LoadResources(drv Driver) (*Resources, error) {
	res, err := drv.ListResources()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceQuery, err)
	}
	logger.Debug("Loaded resources",
		"connectors", len(res.Connectors),
		"encoders", len(res.Encoders),
		"crtcs", len(res.Crtcs))
	return res, nil
}

// Inventory is a detached copy of every object a resource snapshot lists
type Inventory struct {
	Connectors []Connector
	Encoders   []Encoder
	Crtcs      []Crtc
	// Failed maps object ids whose query failed to the error text
	Failed map[uint32]string
}

// TakeInventory queries every connector, encoder and CRTC in res. Each object
// is copied and released before the next query. Failed queries are recorded
// and skipped.
func TakeInventory(drv Driver, res *Resources) *Inventory {
	inv := &Inventory{Failed: map[uint32]string{}}

	for _, id := range res.Connectors {
		conn, err := drv.GetConnector(id)
		if err != nil {
			inv.Failed[id] = err.Error()
			continue
		}
		c := *conn
		c.Modes = append([]Mode(nil), conn.Modes...)
		c.Encoders = append([]uint32(nil), conn.Encoders...)
		inv.Connectors = append(inv.Connectors, c)
		drv.ReleaseConnector(conn)
	}

	for _, id := range res.Encoders {
		enc, err := drv.GetEncoder(id)
		if err != nil {
			inv.Failed[id] = err.Error()
			continue
		}
		inv.Encoders = append(inv.Encoders, *enc)
		drv.ReleaseEncoder(enc)
	}

	for _, id := range res.Crtcs {
		crtc, err := drv.GetCrtc(id)
		if err != nil {
			inv.Failed[id] = err.Error()
			continue
		}
		c := *crtc
		if crtc.Mode != nil {
			m := *crtc.Mode
			c.Mode = &m
		}
		inv.Crtcs = append(inv.Crtcs, c)
		drv.ReleaseCrtc(crtc)
	}

	return inv
}
