package molecule

import (
	"fmt"

	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// Options carries the display settings that shape how atoms and bonds are
// built. It is passed explicitly to every Molecule; there is no global
// configuration.
type Options struct {
	RadiusMode         mtypes.RadiusMode
	RadiusScale        float64
	ColorMode          mtypes.ColorMode
	RenderMode         mtypes.RenderMode
	EstimateBondOrders bool
}

// DefaultOptions returns the stock viewer settings.
func DefaultOptions() Options {
	return Options{
		RadiusMode:         mtypes.RadiusReduced,
		RadiusScale:        1.0,
		ColorMode:          mtypes.ColorCPK,
		RenderMode:         mtypes.RenderBallAndStick,
		EstimateBondOrders: true,
	}
}

// Validate rejects unknown modes and non-positive scales.
func (o Options) Validate() error {
	if !o.RadiusMode.IsValid() {
		return fmt.Errorf("unknown radius mode %q", o.RadiusMode)
	}
	if o.RadiusScale <= 0 {
		return fmt.Errorf("radius scale must be positive, got %v", o.RadiusScale)
	}
	if !o.ColorMode.IsValid() {
		return fmt.Errorf("unknown color mode %q", o.ColorMode)
	}
	if !o.RenderMode.IsValid() {
		return fmt.Errorf("unknown render mode %q", o.RenderMode)
	}
	return nil
}

//Personal.AI order the ending
