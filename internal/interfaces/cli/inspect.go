package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/molview/internal/application/session"
	"github.com/turtacn/molview/internal/domain/molecule"
	"github.com/turtacn/molview/pkg/errors"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// inspectResult is the output of inspect.
type inspectResult struct {
	Source string `json:"source"`
	mtypes.MoleculeSummary
}

func (r inspectResult) String() string {
	var b strings.Builder
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "%-15s %s\n", k+":", v)
		}
	}
	row("Source", r.Source)
	row("ID", r.IDCode)
	row("Classification", r.Classification)
	row("Deposited", r.DepDate)
	row("Title", r.Title)
	row("Compound", r.Compound)
	row("Atoms", strconv.Itoa(r.NumAtoms))
	row("Bonds", strconv.Itoa(r.NumBonds))
	row("Frames", joinInts(r.Frames))
	for _, a := range r.Atoms {
		fmt.Fprintf(&b, "  %5d %-2s %-3s %s%s %8.3f %8.3f %8.3f\n", a.Serial, a.Element, a.ResName, a.ChainID, a.ResSeq, a.X, a.Y, a.Z)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r inspectResult) TableHeaders() []string {
	return []string{"Serial", "Element", "Name", "Residue", "Chain", "X", "Y", "Z", "Bonds"}
}

func (r inspectResult) TableRows() [][]string {
	degree := make(map[int]int)
	for _, b := range r.Bonds {
		degree[b.Atom1]++
		degree[b.Atom2]++
	}
	rows := make([][]string, 0, len(r.Atoms))
	for _, a := range r.Atoms {
		rows = append(rows, []string{
			strconv.Itoa(a.Serial), a.Element, a.Name,
			strings.TrimSpace(a.ResName + " " + a.ResSeq), a.ChainID,
			fmt.Sprintf("%.3f", a.X), fmt.Sprintf("%.3f", a.Y), fmt.Sprintf("%.3f", a.Z),
			strconv.Itoa(degree[a.Serial]),
		})
	}
	return rows
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}

func newInspectCmd() *cobra.Command {
	var (
		withAtoms bool
		frame     int
	)
	cmd := &cobra.Command{
		Use:   "inspect <source>",
		Short: "Parse a structure and print its header and size",
		Long: "Parse a PDB structure and print its header records and atom and bond counts.\n" +
			"<source> is a file path, a file://, http(s):// or s3:// URI, or - for stdin.\n" +
			"With --output table the atoms are listed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, appMetrics{})
			if err != nil {
				return err
			}
			mol, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			if mol.NumAtoms() > 0 && !mol.HasFrame(frame) {
				return errors.InvalidParam(fmt.Sprintf("frame %d not present; frames are %s", frame, joinInts(mol.Frames())))
			}
			res := inspectResult{
				Source:          args[0],
				MoleculeSummary: session.Summarize(mol, frame, withAtoms || wantsTable(cmd)),
			}
			a.cc.Logger.Debug("structure inspected", logFields(mol)...)
			return PrintResult(cmd, res)
		},
	}
	cmd.Flags().BoolVar(&withAtoms, "atoms", false, "include atoms and bonds")
	cmd.Flags().IntVar(&frame, "frame", molecule.DefaultFrame, "frame (MODEL) whose coordinates are reported")
	return cmd
}

//Personal.AI order the ending
