// Package molecule defines the viewer enumerations and the request/response
// structures shared by the application, CLI and HTTP layers. No domain logic
// lives here, only plain data types that any layer may import.
package molecule

import (
	"fmt"

	"github.com/turtacn/molview/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// SelectionMode
// ─────────────────────────────────────────────────────────────────────────────

// SelectionMode decides what a pick means and how many atoms a selection may hold.
type SelectionMode string

const (
	SelectionIdentify SelectionMode = "identify"
	SelectionDistance SelectionMode = "distance"
	SelectionRotation SelectionMode = "rotation"
	SelectionTorsion  SelectionMode = "torsion"
)

// MaxAtoms is the selection capacity for the mode.
func (m SelectionMode) MaxAtoms() int {
	switch m {
	case SelectionDistance:
		return 2
	case SelectionRotation:
		return 3
	case SelectionTorsion:
		return 4
	default:
		return 1
	}
}

// RequiresChain reports whether picks must extend a bonded path.
func (m SelectionMode) RequiresChain() bool {
	return m == SelectionRotation || m == SelectionTorsion
}

// IsValid reports whether m is a known selection mode.
func (m SelectionMode) IsValid() bool {
	switch m {
	case SelectionIdentify, SelectionDistance, SelectionRotation, SelectionTorsion:
		return true
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// RenderMode / ColorMode / RadiusMode
// ─────────────────────────────────────────────────────────────────────────────

// RenderMode controls which object kinds are drawn.
type RenderMode string

const (
	RenderBallAndStick RenderMode = "ball_and_stick"
	RenderSpaceFill    RenderMode = "space_fill"
	RenderSticks       RenderMode = "sticks"
)

// IsValid reports whether m is a known render mode.
func (m RenderMode) IsValid() bool {
	return m == RenderBallAndStick || m == RenderSpaceFill || m == RenderSticks
}

// ShowsAtoms is false only for sticks.
func (m RenderMode) ShowsAtoms() bool { return m != RenderSticks }

// ShowsBonds is false only for space-fill.
func (m RenderMode) ShowsBonds() bool { return m != RenderSpaceFill }

// ColorMode selects the colouring scheme.
type ColorMode string

const (
	ColorCPK       ColorMode = "cpk"
	ColorAminoAcid ColorMode = "amino_acid"
)

// IsValid reports whether m is a known colour mode.
func (m ColorMode) IsValid() bool {
	return m == ColorCPK || m == ColorAminoAcid
}

// RadiusMode selects how atom display radii are derived.
type RadiusMode string

const (
	RadiusAccurate RadiusMode = "accurate"
	RadiusReduced  RadiusMode = "reduced"
	RadiusUniform  RadiusMode = "uniform"
)

// IsValid reports whether m is a known radius mode.
func (m RadiusMode) IsValid() bool {
	return m == RadiusAccurate || m == RadiusReduced || m == RadiusUniform
}

// ─────────────────────────────────────────────────────────────────────────────
// DTOs
// ─────────────────────────────────────────────────────────────────────────────

// AtomDTO is the transport view of an atom at one frame.
type AtomDTO struct {
	Serial  int     `json:"serial"`
	Element string  `json:"element"`
	Name    string  `json:"name"`
	ResName string  `json:"res_name,omitempty"`
	ChainID string  `json:"chain_id,omitempty"`
	ResSeq  string  `json:"res_seq,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Radius  float64 `json:"radius"`
	Color   string  `json:"color"`
}

// BondDTO is the transport view of a bond at one frame.
type BondDTO struct {
	Atom1  int     `json:"atom1"`
	Atom2  int     `json:"atom2"`
	Order  int     `json:"order"`
	Length float64 `json:"length"`
	Color  string  `json:"color"`
}

// MoleculeSummary describes a loaded molecule.
type MoleculeSummary struct {
	IDCode         string    `json:"id_code,omitempty"`
	Classification string    `json:"classification,omitempty"`
	DepDate        string    `json:"dep_date,omitempty"`
	Title          string    `json:"title,omitempty"`
	Compound       string    `json:"compound,omitempty"`
	NumAtoms       int       `json:"num_atoms"`
	NumBonds       int       `json:"num_bonds"`
	Frames         []int     `json:"frames"`
	Atoms          []AtomDTO `json:"atoms,omitempty"`
	Bonds          []BondDTO `json:"bonds,omitempty"`
}

// SessionDTO is the state of a viewer session.
type SessionDTO struct {
	ID            common.ID        `json:"id"`
	CreatedAt     common.Timestamp `json:"created_at"`
	SelectionMode SelectionMode    `json:"selection_mode"`
	RenderMode    RenderMode       `json:"render_mode"`
	ColorMode     ColorMode        `json:"color_mode"`
	Frame         int              `json:"frame"`
	Selected      []int            `json:"selected"`
	Info          string           `json:"info"`
	Molecule      MoleculeSummary  `json:"molecule"`
}

// CreateSessionRequest opens a session from inline PDB text or a source URI.
type CreateSessionRequest struct {
	PDB           string        `json:"pdb,omitempty"`
	Source        string        `json:"source,omitempty"`
	SelectionMode SelectionMode `json:"selection_mode,omitempty"`
}

// Validate checks that exactly one input is given.
func (r CreateSessionRequest) Validate() error {
	if (r.PDB == "") == (r.Source == "") {
		return fmt.Errorf("exactly one of pdb or source must be set")
	}
	if r.SelectionMode != "" && !r.SelectionMode.IsValid() {
		return fmt.Errorf("unknown selection mode %q", r.SelectionMode)
	}
	return nil
}

// UpdateModeRequest changes any subset of the session modes.
type UpdateModeRequest struct {
	SelectionMode SelectionMode `json:"selection_mode,omitempty"`
	RenderMode    RenderMode    `json:"render_mode,omitempty"`
	ColorMode     ColorMode     `json:"color_mode,omitempty"`
	Frame         *int          `json:"frame,omitempty"`
}

// Validate rejects unknown mode names.
func (r UpdateModeRequest) Validate() error {
	if r.SelectionMode != "" && !r.SelectionMode.IsValid() {
		return fmt.Errorf("unknown selection mode %q", r.SelectionMode)
	}
	if r.RenderMode != "" && !r.RenderMode.IsValid() {
		return fmt.Errorf("unknown render mode %q", r.RenderMode)
	}
	if r.ColorMode != "" && !r.ColorMode.IsValid() {
		return fmt.Errorf("unknown color mode %q", r.ColorMode)
	}
	if r.Frame != nil && *r.Frame < 0 {
		return fmt.Errorf("frame must be >= 0")
	}
	return nil
}

// PickRequest picks either by atom serial or by screen coordinate.
type PickRequest struct {
	Serial *int     `json:"serial,omitempty"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
}

// Validate requires a serial or a full coordinate pair.
func (r PickRequest) Validate() error {
	if r.Serial != nil {
		return nil
	}
	if r.X == nil || r.Y == nil {
		return fmt.Errorf("either serial or both x and y must be set")
	}
	return nil
}

// PickResponse reports the effect of a pick.
type PickResponse struct {
	Outcome  string `json:"outcome"`
	Selected []int  `json:"selected"`
	Info     string `json:"info"`
}

//Personal.AI order the ending
