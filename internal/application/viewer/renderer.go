// Package viewer drives a loaded molecule: it feeds a render backend,
// translates picks into selection changes and reports measurements on the
// selected atoms.
package viewer

import (
	"context"
	"io"

	"github.com/turtacn/molview/internal/domain/molecule"
)

// PickEvent is a pointer position in screen coordinates.
type PickEvent struct {
	X, Y float64
}

// Renderer is the drawing backend the viewer talks to. Implementations own
// the visual state; the viewer only tells them what exists and what is
// selected.
type Renderer interface {
	// Reset forgets every object previously added.
	Reset()
	AddRenderableObject(obj molecule.Renderable)
	// Render redraws the scene.
	Render()
	Select(obj molecule.Renderable)
	Deselect(obj molecule.Renderable)
	DeselectAll()
	// GetSelectedObject hit-tests the scene.
	GetSelectedObject(ev PickEvent) (molecule.Renderable, bool)
}

// FrameSetter is implemented by renderers that draw a specific frame.
type FrameSetter interface {
	SetFrame(frame int)
}

// Parser builds molecules from structure text.
type Parser interface {
	Parse(text string) (*molecule.Molecule, error)
	ParseReader(r io.Reader) (*molecule.Molecule, error)
}

// Fetcher opens structure data by URI.
type Fetcher interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Metrics receives pick outcomes. *prometheus.ViewerMetrics satisfies it.
type Metrics interface {
	RecordPick(mode, outcome string)
}

type nopMetrics struct{}

func (nopMetrics) RecordPick(string, string) {}

//Personal.AI order the ending
