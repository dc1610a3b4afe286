package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bnema/modeset/internal/kms"
)

// Report is the inspect output for one card
type Report struct {
	Device         string            `json:"device" yaml:"device"`
	Driver         string            `json:"driver,omitempty" yaml:"driver,omitempty"`
	Connectors     []ConnectorInfo   `json:"connectors" yaml:"connectors"`
	Encoders       []EncoderInfo     `json:"encoders" yaml:"encoders"`
	Crtcs          []CrtcInfo        `json:"crtcs" yaml:"crtcs"`
	Failed         map[uint32]string `json:"failed,omitempty" yaml:"failed,omitempty"`
	Selection      *SelectionInfo    `json:"selection,omitempty" yaml:"selection,omitempty"`
	SelectionError string            `json:"selection_error,omitempty" yaml:"selection_error,omitempty"`
}

// ConnectorInfo represents a single connector
type ConnectorInfo struct {
	ID        uint32   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	State     string   `json:"state" yaml:"state"`
	EncoderID uint32   `json:"encoder_id" yaml:"encoder_id"`
	Encoders  []uint32 `json:"encoders" yaml:"encoders"`
	Modes     []string `json:"modes" yaml:"modes"`
	WidthMM   uint32   `json:"width_mm" yaml:"width_mm"`
	HeightMM  uint32   `json:"height_mm" yaml:"height_mm"`
}

// EncoderInfo represents a single encoder
type EncoderInfo struct {
	ID            uint32 `json:"id" yaml:"id"`
	CrtcID        uint32 `json:"crtc_id" yaml:"crtc_id"`
	PossibleCrtcs []int  `json:"possible_crtc_indices" yaml:"possible_crtc_indices"`
}

// CrtcInfo represents a single CRTC
type CrtcInfo struct {
	ID            uint32 `json:"id" yaml:"id"`
	FramebufferID uint32 `json:"fb_id" yaml:"fb_id"`
	Mode          string `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// SelectionInfo is the pipeline a mode set would use
type SelectionInfo struct {
	Connector   string `json:"connector" yaml:"connector"`
	ConnectorID uint32 `json:"connector_id" yaml:"connector_id"`
	EncoderID   uint32 `json:"encoder_id" yaml:"encoder_id"`
	CrtcID      uint32 `json:"crtc_id" yaml:"crtc_id"`
	Mode        string `json:"mode" yaml:"mode"`
}

// NewReport flattens an inventory and an optional selection. Pass the
// selection error instead of a pipeline when selection failed.
func NewReport(device string, version *kms.DriverVersion, inv *kms.Inventory, p *kms.Pipeline, selErr error) *Report {
	r := &Report{
		Device:     device,
		Connectors: []ConnectorInfo{},
		Encoders:   []EncoderInfo{},
		Crtcs:      []CrtcInfo{},
	}
	if version != nil {
		r.Driver = version.String()
	}

	if inv != nil {
		for i := range inv.Connectors {
			c := &inv.Connectors[i]
			info := ConnectorInfo{
				ID:        c.ID,
				Name:      c.Name(),
				State:     c.Connection.String(),
				EncoderID: c.EncoderID,
				Encoders:  c.Encoders,
				Modes:     make([]string, len(c.Modes)),
				WidthMM:   c.WidthMM,
				HeightMM:  c.HeightMM,
			}
			for j, m := range c.Modes {
				info.Modes[j] = m.String()
			}
			r.Connectors = append(r.Connectors, info)
		}
		for _, e := range inv.Encoders {
			r.Encoders = append(r.Encoders, EncoderInfo{
				ID:            e.ID,
				CrtcID:        e.CrtcID,
				PossibleCrtcs: e.PossibleCrtcs.Indices(),
			})
		}
		for _, c := range inv.Crtcs {
			info := CrtcInfo{ID: c.ID, FramebufferID: c.FramebufferID}
			if c.Mode != nil {
				info.Mode = c.Mode.String()
			}
			r.Crtcs = append(r.Crtcs, info)
		}
		if len(inv.Failed) > 0 {
			r.Failed = inv.Failed
		}
	}

	switch {
	case selErr != nil:
		r.SelectionError = selErr.Error()
	case p != nil && p.Connector != nil && p.Encoder != nil && p.Crtc != nil:
		r.Selection = &SelectionInfo{
			Connector:   p.Connector.Name(),
			ConnectorID: p.Connector.ID,
			EncoderID:   p.Encoder.ID,
			CrtcID:      p.Crtc.ID,
			Mode:        p.Mode.String(),
		}
	}

	return r
}

// Render writes the report as text, json or yaml
func (r *Report) Render(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		_, err := io.WriteString(w, r.Text())
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (must be text, json or yaml)", format)
	}
}

// Text renders the report for a terminal
func (r *Report) Text() string {
	var b strings.Builder

	title := r.Device
	if r.Driver != "" {
		title += " " + SubtleStyle.Render("("+r.Driver+")")
	}
	b.WriteString(HeaderStyle.Render(title) + "\n")

	b.WriteString(SubheaderStyle.Render("Connectors") + "\n")
	for _, c := range r.Connectors {
		active := r.Selection != nil && r.Selection.ConnectorID == c.ID
		status := fmt.Sprintf("%d %s %s, encoder %d, %d modes", c.ID, c.Name, c.State, c.EncoderID, len(c.Modes))
		b.WriteString("  " + FormatStatus(c.State == "connected", status) + "\n")
		for j, m := range c.Modes {
			b.WriteString("  " + FormatListItem(m, active && r.Selection.Mode == m && j == firstIndex(c.Modes, m)) + "\n")
		}
	}

	b.WriteString(SubheaderStyle.Render("Encoders") + "\n")
	for _, e := range r.Encoders {
		line := fmt.Sprintf("%d crtc %d, possible crtc indices %v", e.ID, e.CrtcID, e.PossibleCrtcs)
		b.WriteString(FormatListItem(line, r.Selection != nil && r.Selection.EncoderID == e.ID) + "\n")
	}

	b.WriteString(SubheaderStyle.Render("CRTCs") + "\n")
	for _, c := range r.Crtcs {
		mode := c.Mode
		if mode == "" {
			mode = "no mode"
		}
		line := fmt.Sprintf("%d fb %d, %s", c.ID, c.FramebufferID, mode)
		b.WriteString(FormatListItem(line, r.Selection != nil && r.Selection.CrtcID == c.ID) + "\n")
	}

	if len(r.Failed) > 0 {
		ids := make([]int, 0, len(r.Failed))
		for id := range r.Failed {
			ids = append(ids, int(id))
		}
		sort.Ints(ids)
		b.WriteString(SubheaderStyle.Render("Failed queries") + "\n")
		for _, id := range ids {
			b.WriteString("  " + WarningStyle.Render(fmt.Sprintf("%d: %s", id, r.Failed[uint32(id)])) + "\n")
		}
	}

	b.WriteString("\n")
	switch {
	case r.Selection != nil:
		s := r.Selection
		b.WriteString(BoxStyle.Render(fmt.Sprintf("Would select %s (connector %d) via encoder %d on CRTC %d at %s",
			s.Connector, s.ConnectorID, s.EncoderID, s.CrtcID, s.Mode)) + "\n")
	case r.SelectionError != "":
		b.WriteString(ErrorStyle.Render("No usable pipeline: "+r.SelectionError) + "\n")
	}

	return b.String()
}

func firstIndex(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}
