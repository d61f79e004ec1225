package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/turtacn/molview/internal/application/session"
	"github.com/turtacn/molview/internal/domain/molecule"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 100 * time.Millisecond

// watchStructure calls load once immediately and again after every change
// to path, passing each outcome to report, until ctx is done. It watches the
// parent directory so that editors replacing the file by rename are seen.
func watchStructure(ctx context.Context, path string, load func() (*molecule.Molecule, error), report func(*molecule.Molecule, error)) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	report(load())

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(ev.Name)
			if name != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			timerCh = timer.C
		case <-timerCh:
			timerCh = nil
			report(load())
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-parse a structure file whenever it changes",
		Long: "Parse a local PDB file, then parse it again after each save and print a\n" +
			"one-line summary, or the parse error. Stops on Ctrl-C.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, appMetrics{})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := args[0]
			out := cmd.OutOrStdout()
			return watchStructure(ctx, path,
				func() (*molecule.Molecule, error) { return a.load(cmd, path) },
				func(mol *molecule.Molecule, err error) {
					stamp := time.Now().Format("15:04:05")
					if err != nil {
						a.cc.Logger.Warn("parse failed", logging.String("path", path), logging.Err(err))
						fmt.Fprintf(out, "%s %s %v\n", stamp, color.YellowString("FAIL"), err)
						return
					}
					a.cc.Logger.Debug("structure reloaded", logFields(mol)...)
					fmt.Fprintf(out, "%s %s %s\n", stamp, color.GreenString("OK"), summaryLine(session.Summarize(mol, molecule.DefaultFrame, false)))
				})
		},
	}
}

func summaryLine(s mtypes.MoleculeSummary) string {
	id := s.IDCode
	if id == "" {
		id = "-"
	}
	return fmt.Sprintf("%s atoms=%d bonds=%d frames=%d", id, s.NumAtoms, s.NumBonds, len(s.Frames))
}

//Personal.AI order the ending
