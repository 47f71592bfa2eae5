package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/de-tools/sisvan-atlas/pkg/render/static"
	"github.com/de-tools/sisvan-atlas/pkg/services/aggregate"
	"github.com/de-tools/sisvan-atlas/pkg/services/filter"
	"github.com/de-tools/sisvan-atlas/pkg/services/visual"
	"github.com/spf13/cobra"
)

type ExportCmd struct {
	profile string
	module  string
	format  string
	out     string
	width   int
	height  int
	filters []string
	timeout time.Duration
	bench   *Workbench
	output  io.Writer
}

func NewExportCmd(bench *Workbench, output io.Writer) *cobra.Command {
	ec := &ExportCmd{bench: bench, output: output}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a static PNG or SVG chart",
		Example: `  sisvan export --module temporal --filter indicator=obesidade_G_1 --format png --out obesidade.png
  sisvan export --module mapping --filter state=MG --format svg --out mg.svg`,
		RunE: ec.run,
	}

	cmd.Flags().StringVar(&ec.profile, "profile", "default", "Dataset profile name")
	cmd.Flags().StringVar(&ec.module, "module", string(visual.KindTemporal), "Chart: mapping or temporal")
	cmd.Flags().StringVar(&ec.format, "format", string(static.FormatPNG), "Output format: png or svg")
	cmd.Flags().StringVarP(&ec.out, "out", "o", "-", "Output file, - for stdout")
	cmd.Flags().IntVar(&ec.width, "width", 0, "Width in pixels")
	cmd.Flags().IntVar(&ec.height, "height", 0, "Height in pixels")
	cmd.Flags().StringArrayVar(&ec.filters, "filter", nil, "Filter as field=value, repeatable")
	cmd.Flags().DurationVar(&ec.timeout, "timeout", 60*time.Second, "Load timeout")

	return cmd
}

func (ec *ExportCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), ec.timeout)
	defer cancel()
	ec.bench.init()

	format, err := static.ParseFormat(ec.format)
	if err != nil {
		return err
	}
	kind, err := visual.ParseKind(ec.module)
	if err != nil {
		return err
	}
	if kind == visual.KindRegional {
		return fmt.Errorf("%w: use render for the regional map", visual.ErrUnknownModule)
	}
	args, err := parseFilters(ec.filters)
	if err != nil {
		return err
	}

	ds, release, err := ec.bench.acquire(ctx, ec.profile)
	if err != nil {
		return err
	}
	defer release()

	var opts []filter.Option
	if kind == visual.KindMapping {
		opts = append(opts, filter.WithYearPinned(), filter.WithIndicatorMenu())
	}
	mgr := filter.NewManager(ds, opts...)
	if err := applyFilters(mgr, args); err != nil {
		return err
	}
	f := mgr.State()
	cat := ec.bench.Catalog
	painter := static.NewPainter(cat, ec.width, ec.height)

	var r static.Renderable
	if kind == visual.KindTemporal {
		res := ec.bench.engine.Aggregate(ctx, ds.Rows(), ds.RegionIndex(), f, aggregate.Query{
			GroupBy:     aggregate.GroupByYear,
			Denominator: aggregate.DenomRespondents,
			IgnoreYear:  true,
		})
		r, err = painter.Timeline(res, f.Sex, fmt.Sprintf("%s - %s", cat.IndicatorName(f.Indicator), scope(cat, f)))
	} else {
		res := ec.bench.engine.Aggregate(ctx, ds.Rows(), ds.RegionIndex(), f, aggregate.Query{
			GroupBy:     aggregate.GroupByIndicator,
			Denominator: aggregate.DenomSelected,
		})
		r, err = painter.Bars(res, f.Sex, scope(cat, f))
	}
	if err != nil {
		return err
	}

	w, closeFn, err := create(ec.out, ec.output)
	if err != nil {
		return err
	}
	if err := static.Write(w, r, format); err != nil {
		_ = closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	if ec.out != "-" {
		fmt.Fprintf(ec.output, "%s written\n", ec.out)
	}
	return nil
}
