package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molview/internal/domain/element"
	"github.com/turtacn/molview/internal/domain/molecule"
	"github.com/turtacn/molview/internal/infrastructure/parser/pdb"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

type outcome struct {
	atoms int
	err   error
}

func TestWatchStructure_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "triad.pdb", triad)
	parser := pdb.NewParser(element.MustNewTable())

	load := func() (*molecule.Molecule, error) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return parser.Parse(string(raw))
	}
	got := make(chan outcome, 8)
	report := func(mol *molecule.Molecule, err error) {
		o := outcome{err: err}
		if mol != nil {
			o.atoms = mol.NumAtoms()
		}
		got <- o
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchStructure(ctx, path, load, report) }()

	first := waitOutcome(t, got)
	require.NoError(t, first.err)
	assert.Equal(t, 3, first.atoms)

	// Drop the oxygen.
	lines := strings.Split(triad, "\n")
	two := strings.Join(append(append([]string{}, lines[:4]...), "CONECT    1    2", "END"), "\n")
	require.NoError(t, os.WriteFile(path, []byte(two), 0o644))
	second := waitOutcome(t, got)
	require.NoError(t, second.err)
	assert.Equal(t, 2, second.atoms)

	// A broken file is reported, and watching goes on.
	require.NoError(t, os.WriteFile(path, []byte("CONECT    0    1\n"), 0o644))
	third := waitOutcome(t, got)
	assert.Error(t, third.err)

	// Other files in the directory are ignored.
	writeFile(t, dir, "other.pdb", triad)
	select {
	case o := <-got:
		t.Fatalf("unexpected reload: %+v", o)
	case <-time.After(3 * watchDebounce):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchStructure did not stop")
	}
}

func TestWatchStructure_MissingDir(t *testing.T) {
	err := watchStructure(context.Background(), filepath.Join(t.TempDir(), "nope", "x.pdb"),
		func() (*molecule.Molecule, error) { return nil, nil },
		func(*molecule.Molecule, error) {})
	assert.Error(t, err)
}

func waitOutcome(t *testing.T, ch <-chan outcome) outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("no reload reported")
		return outcome{}
	}
}

func TestSummaryLine(t *testing.T) {
	assert.Equal(t, "9XYZ atoms=3 bonds=2 frames=1",
		summaryLine(mtypes.MoleculeSummary{IDCode: "9XYZ", NumAtoms: 3, NumBonds: 2, Frames: []int{0}}))
	assert.Equal(t, "- atoms=0 bonds=0 frames=0", summaryLine(mtypes.MoleculeSummary{}))
}

//Personal.AI order the ending
