package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/molview/internal/application/viewer"
	"github.com/turtacn/molview/internal/domain/molecule"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// measureResult is the output of measure.
type measureResult struct {
	Source     string   `json:"source"`
	Mode       string   `json:"mode"`
	Serials    []int    `json:"serials"`
	Value      float64  `json:"value"`
	Unit       string   `json:"unit,omitempty"`
	Elements   []string `json:"elements"`
	Name       string   `json:"name,omitempty"`
	Degenerate bool     `json:"degenerate,omitempty"`
	Text       string   `json:"text"`
}

func (r measureResult) String() string { return r.Text }

func (r measureResult) TableHeaders() []string {
	return []string{"Mode", "Atoms", "Elements", "Value"}
}

func (r measureResult) TableRows() [][]string {
	value := strconv.FormatFloat(r.Value, 'f', 4, 64)
	if r.Unit != "" {
		value += " " + r.Unit
	}
	if r.Mode == string(mtypes.SelectionIdentify) {
		value = r.Name
	}
	return [][]string{{r.Mode, joinInts(r.Serials), fmt.Sprint(r.Elements), value}}
}

func unitFor(mode mtypes.SelectionMode) string {
	switch mode {
	case mtypes.SelectionDistance:
		return "nm"
	case mtypes.SelectionRotation, mtypes.SelectionTorsion:
		return "degrees"
	}
	return ""
}

func newMeasureCmd() *cobra.Command {
	var (
		mode  string
		frame int
	)
	cmd := &cobra.Command{
		Use:   "measure <source> <serial>...",
		Short: "Identify an atom or measure a distance, angle or torsion",
		Long: "Pick atoms by serial number and print the measurement the viewer would show.\n" +
			"One atom identifies it, two give a distance, three a bond angle and four a\n" +
			"torsion. Angle and torsion chains must follow bonds.",
		Example: "  molview measure 1crn.pdb 1 2\n  molview measure 1crn.pdb 1,2,3,4",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			serials, err := parseSerials(args[1:])
			if err != nil {
				return err
			}
			sel := mtypes.SelectionMode(mode)
			if mode == "" {
				if sel, err = modeForCount(len(serials)); err != nil {
					return err
				}
			}

			a, err := newApp(cmd, appMetrics{})
			if err != nil {
				return err
			}
			opts := a.cc.Config.ViewerOptions()
			opts.SelectionMode = sel
			opts.Selectable = true
			opts.AutoCenter = false
			v, _, err := a.newViewer(cmd, args[0], a.cc.Config.RasterOptions(), opts)
			if err != nil {
				return err
			}
			if err := v.SetSelectionMode(sel); err != nil {
				return err
			}
			if frame != molecule.DefaultFrame {
				if err := v.SetFrame(frame); err != nil {
					return err
				}
			}

			m, err := pickAll(v, serials)
			if err != nil {
				return err
			}
			return PrintResult(cmd, toMeasureResult(args[0], v, m))
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "selection mode (identify, distance, rotation, torsion); default from the number of atoms")
	cmd.Flags().IntVar(&frame, "frame", molecule.DefaultFrame, "frame (MODEL) to measure in")
	return cmd
}

func toMeasureResult(src string, v *viewer.Viewer, m viewer.Measurement) measureResult {
	return measureResult{
		Source:     src,
		Mode:       string(m.Mode),
		Serials:    v.Selected(),
		Value:      m.Value,
		Unit:       unitFor(m.Mode),
		Elements:   m.Elements,
		Name:       m.Name,
		Degenerate: m.Degenerate,
		Text:       m.Text(),
	}
}

//Personal.AI order the ending
