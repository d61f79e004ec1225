package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/molview/internal/domain/molecule"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/pkg/errors"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// renderOptions are the flags of the render command.
type renderOptions struct {
	out        string
	upload     string
	renderMode string
	colorMode  string
	selection  []string
	frame      int
	width      int
	height     int
	scale      float64
}

// renderResult reports where the image went.
type renderResult struct {
	Source   string `json:"source"`
	File     string `json:"file,omitempty"`
	Object   string `json:"object,omitempty"`
	Bytes    int    `json:"bytes"`
	Selected []int  `json:"selected,omitempty"`
}

func (r renderResult) String() string {
	dest := r.File
	if r.Object != "" {
		if dest != "" {
			dest += " and "
		}
		dest += r.Object
	}
	return fmt.Sprintf("wrote %d bytes to %s", r.Bytes, dest)
}

func newRenderCmd() *cobra.Command {
	o := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render <source>",
		Short: "Render a structure to PNG",
		Long: "Render a structure to a PNG image, optionally highlighting picked atoms.\n" +
			"The image is written to --out, uploaded to --upload (s3://bucket/key), or both.\n" +
			"Use --out - to write the image to stdout.",
		Example: "  molview render 1crn.pdb --out 1crn.png --mode sticks\n" +
			"  molview render s3://structures/1crn.pdb --select 1,2 --upload s3://images/1crn.png",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.out, "out", "", "output PNG path, - for stdout")
	f.StringVar(&o.upload, "upload", "", "upload the PNG to s3://bucket/key")
	f.StringVar(&o.renderMode, "mode", "", "render mode (ball_and_stick, sticks, space_fill); default from config")
	f.StringVar(&o.colorMode, "color", "", "color mode (cpk, amino_acid); default from config")
	f.StringSliceVar(&o.selection, "select", nil, "atom serials to highlight (up to 4, forming a bonded chain for 3 or 4)")
	f.IntVar(&o.frame, "frame", molecule.DefaultFrame, "frame (MODEL) to draw")
	f.IntVar(&o.width, "width", 0, "image width in pixels; default from config")
	f.IntVar(&o.height, "height", 0, "image height in pixels; default from config")
	f.Float64Var(&o.scale, "scale", -1, "pixels per coordinate unit, 0 fits the image; default from config")
	return cmd
}

func runRender(cmd *cobra.Command, src string, o *renderOptions) error {
	if o.out == "" && o.upload == "" {
		return errors.InvalidParam("one of --out or --upload is required")
	}
	serials, err := parseSerials(o.selection)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, appMetrics{})
	if err != nil {
		return err
	}
	var bucket, key string
	if o.upload != "" {
		if _, err := a.requireStore(); err != nil {
			return err
		}
		if bucket, key, err = splitObjectURI(o.upload); err != nil {
			return err
		}
	}

	ropts := a.cc.Config.RasterOptions()
	if o.width > 0 {
		ropts.Width = o.width
	}
	if o.height > 0 {
		ropts.Height = o.height
	}
	if o.scale >= 0 {
		ropts.Scale = o.scale
	}
	vopts := a.cc.Config.ViewerOptions()
	vopts.Selectable = true
	if len(serials) > 0 {
		if vopts.SelectionMode, err = modeForCount(len(serials)); err != nil {
			return err
		}
	}

	v, rend, err := a.newViewer(cmd, src, ropts, vopts)
	if err != nil {
		return err
	}
	if o.renderMode != "" {
		if err := v.SetRenderMode(mtypes.RenderMode(o.renderMode)); err != nil {
			return err
		}
	}
	if o.colorMode != "" {
		if err := v.SetColorMode(mtypes.ColorMode(o.colorMode)); err != nil {
			return err
		}
	}
	if o.frame != molecule.DefaultFrame {
		if err := v.SetFrame(o.frame); err != nil {
			return err
		}
	}
	if len(serials) > 0 {
		if _, err := pickAll(v, serials); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if err := rend.WritePNG(&buf); err != nil {
		return errors.Wrap(err, errors.ErrCodeRenderFailed, "encode image")
	}
	res := renderResult{Source: src, Bytes: buf.Len(), Selected: v.Selected()}

	switch o.out {
	case "":
	case "-":
		if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
			return err
		}
	default:
		if err := os.WriteFile(o.out, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", o.out, err)
		}
		res.File = o.out
	}

	if o.upload != "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), a.cc.Timeout)
		defer cancel()
		info, err := a.store.Put(ctx, bucket, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "image/png")
		if err != nil {
			return err
		}
		res.Object = fmt.Sprintf("s3://%s/%s", info.Bucket, info.Key)
	}

	a.cc.Logger.Info("image rendered",
		logging.String("source", src),
		logging.Int("bytes", res.Bytes),
		logging.String("file", res.File),
		logging.String("object", res.Object))
	if o.out == "-" {
		return nil
	}
	return PrintResult(cmd, res)
}

//Personal.AI order the ending
