package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/molview/internal/application/viewer"
	"github.com/turtacn/molview/internal/domain/element"
	"github.com/turtacn/molview/internal/domain/molecule"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/internal/infrastructure/parser/pdb"
	"github.com/turtacn/molview/internal/infrastructure/render/raster"
	"github.com/turtacn/molview/internal/infrastructure/source"
	"github.com/turtacn/molview/internal/infrastructure/storage/minio"
	"github.com/turtacn/molview/pkg/errors"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// objectStore is the part of *minio.Client the commands use.
type objectStore interface {
	source.ObjectStore
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (minio.ObjectInfo, error)
	List(ctx context.Context, bucket, prefix string) ([]minio.ObjectInfo, error)
	Name() string
	Check(ctx context.Context) error
}

// newObjectStore connects to the configured object store. Tests replace it.
var newObjectStore = func(cfg minio.Config, log logging.Logger) (objectStore, error) {
	return minio.NewClient(cfg, log)
}

// app is what a command builds from its CLIContext.
type app struct {
	cc     *CLIContext
	parser *pdb.Parser
	source *source.Router
	store  objectStore
}

// appMetrics are optional collaborators; serve fills them in.
type appMetrics struct {
	parse  pdb.Metrics
	source source.Metrics
}

func newApp(cmd *cobra.Command, m appMetrics) (*app, error) {
	cc, err := GetCLIContext(cmd)
	if err != nil {
		return nil, err
	}
	cfg := cc.Config

	popts := []pdb.Option{
		pdb.WithLogger(cc.Logger),
		pdb.WithMoleculeOptions(cfg.MoleculeOptions()),
	}
	if m.parse != nil {
		popts = append(popts, pdb.WithMetrics(m.parse))
	}

	a := &app{cc: cc, parser: pdb.NewParser(element.MustNewTable(), popts...)}

	sopts := []source.Option{source.WithLogger(cc.Logger)}
	if m.source != nil {
		sopts = append(sopts, source.WithMetrics(m.source))
	}
	if storeCfg, ok := cfg.ObjectStoreConfig(); ok {
		store, err := newObjectStore(storeCfg, cc.Logger)
		if err != nil {
			return nil, err
		}
		a.store = store
		sopts = append(sopts, source.WithObjectStore(store))
	}
	a.source = source.NewRouter(cfg.SourceConfig(), sopts...)
	return a, nil
}

// requireStore fails when no object store is configured.
func (a *app) requireStore() (objectStore, error) {
	if a.store == nil {
		return nil, errors.New(errors.ErrCodeSourceUnsupported, "object storage is not configured; set storage.minio.endpoint")
	}
	return a.store, nil
}

// stdinFetcher serves "-" from in and everything else through next.
type stdinFetcher struct {
	in   io.Reader
	next viewer.Fetcher
}

func (f stdinFetcher) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if uri == "-" {
		return io.NopCloser(f.in), nil
	}
	return f.next.Open(ctx, uri)
}

// load parses the structure at uri without a viewer.
func (a *app) load(cmd *cobra.Command, uri string) (*molecule.Molecule, error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.cc.Timeout)
	defer cancel()
	rc, err := stdinFetcher{in: cmd.InOrStdin(), next: a.source}.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return a.parser.ParseReader(rc)
}

// newViewer builds a viewer over a fresh raster renderer and loads uri
// into it.
func (a *app) newViewer(cmd *cobra.Command, uri string, ropts raster.Options, opts viewer.Options) (*viewer.Viewer, *raster.Renderer, error) {
	rend, err := raster.New(ropts, a.cc.Logger, nil)
	if err != nil {
		return nil, nil, err
	}
	v := viewer.New(opts, a.parser, rend, a.cc.Logger, nil)

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cc.Timeout)
	defer cancel()
	if err := v.LoadSource(ctx, stdinFetcher{in: cmd.InOrStdin(), next: a.source}, uri); err != nil {
		return nil, nil, err
	}
	return v, rend, nil
}

// modeForCount is the selection mode that holds exactly n atoms.
func modeForCount(n int) (mtypes.SelectionMode, error) {
	for _, m := range []mtypes.SelectionMode{
		mtypes.SelectionIdentify, mtypes.SelectionDistance, mtypes.SelectionRotation, mtypes.SelectionTorsion,
	} {
		if m.MaxAtoms() == n {
			return m, nil
		}
	}
	return "", errors.InvalidParam(fmt.Sprintf("between 1 and 4 atoms can be selected, got %d", n))
}

// parseSerials reads atom serials from args, accepting both separate
// arguments and comma-separated lists.
func parseSerials(args []string) ([]int, error) {
	var out []int
	for _, arg := range args {
		for _, f := range strings.Split(arg, ",") {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, errors.InvalidParam(fmt.Sprintf("atom serial %q is not an integer", f))
			}
			out = append(out, n)
		}
	}
	return out, nil
}

// pickAll selects serials in order and returns the resulting measurement.
func pickAll(v *viewer.Viewer, serials []int) (viewer.Measurement, error) {
	for _, s := range serials {
		res, err := v.PickSerial(s)
		if err != nil {
			return viewer.Measurement{}, err
		}
		switch res.Outcome {
		case viewer.OutcomeRemoved:
			return viewer.Measurement{}, errors.InvalidParam(fmt.Sprintf("atom %d was picked twice", s))
		case viewer.OutcomeRejected:
			return viewer.Measurement{}, errors.InvalidParam(fmt.Sprintf("atom %d is not bonded to either end of the chain", s))
		}
	}
	return v.Measure()
}

// wantsTable reports whether --output table was chosen.
func wantsTable(cmd *cobra.Command) bool {
	cc, err := GetCLIContext(cmd)
	return err == nil && cc.OutputFormat == "table"
}

func logFields(mol *molecule.Molecule) []logging.Field {
	return []logging.Field{
		logging.String("id_code", strings.TrimSpace(mol.Header.IDCode)),
		logging.Int("atoms", mol.NumAtoms()),
		logging.Int("bonds", mol.NumBonds()),
	}
}

// splitObjectURI turns s3://bucket/key into its parts.
func splitObjectURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "s3" {
		return "", "", errors.InvalidParam(fmt.Sprintf("%q is not an s3://bucket/key URI", uri))
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

//Personal.AI order the ending
