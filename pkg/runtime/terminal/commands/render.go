package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/de-tools/sisvan-atlas/pkg/render/chart"
	"github.com/de-tools/sisvan-atlas/pkg/services/visual"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// drillStates enters the states level from the national map.
const drillStates = "states"

type RenderCmd struct {
	profile string
	module  string
	out     string
	width   float64
	height  float64
	filters []string
	drill   []string
	legend  string
	timeout time.Duration
	bench   *Workbench
	output  io.Writer
}

func NewRenderCmd(bench *Workbench, output io.Writer) *cobra.Command {
	rc := &RenderCmd{bench: bench, output: output}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a dashboard module to an SVG file",
		Example: `  sisvan render --module mapping --filter state=MG --out mapping.svg
  sisvan render --module regional --drill states --drill MG --out mg.svg --legend legend.svg`,
		RunE: rc.run,
	}

	cmd.Flags().StringVar(&rc.profile, "profile", "default", "Dataset profile name")
	cmd.Flags().StringVar(&rc.module, "module", string(visual.KindMapping), "Module: mapping, temporal or regional")
	cmd.Flags().StringVarP(&rc.out, "out", "o", "-", "Output file, - for stdout")
	cmd.Flags().Float64Var(&rc.width, "width", 0, "Width in pixels, module default when 0")
	cmd.Flags().Float64Var(&rc.height, "height", 0, "Height in pixels, module default when 0")
	cmd.Flags().StringArrayVar(&rc.filters, "filter", nil, "Filter as field=value, repeatable")
	cmd.Flags().StringArrayVar(&rc.drill, "drill", nil, "Regional drill steps: states, then a state sigla")
	cmd.Flags().StringVar(&rc.legend, "legend", "", "Also write the map legend to this file")
	cmd.Flags().DurationVar(&rc.timeout, "timeout", 60*time.Second, "Load timeout")

	return cmd
}

func (rc *RenderCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), rc.timeout)
	defer cancel()
	rc.bench.init()

	kind, err := visual.ParseKind(rc.module)
	if err != nil {
		return err
	}
	args, err := parseFilters(rc.filters)
	if err != nil {
		return err
	}
	profile, err := rc.bench.Profiles.GetProfile(ctx, rc.profile)
	if err != nil {
		return err
	}

	s, err := rc.bench.sessions.Create(ctx, profile)
	if s != nil {
		defer func() {
			if err := rc.bench.sessions.Close(ctx, s.ID); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close session")
			}
		}()
	}
	if err != nil {
		return err
	}

	m, err := s.Module(kind)
	if err != nil {
		return err
	}
	mgr, err := m.Filters()
	if err != nil {
		return err
	}
	if err := applyFilters(mgr, args); err != nil {
		return err
	}
	if err := rc.applyDrill(ctx, m); err != nil {
		return err
	}

	c, err := m.Chart(ctx, chart.Size{Width: rc.width, Height: rc.height})
	if err != nil {
		return err
	}
	if err := rc.write(rc.out, c.WriteTo); err != nil {
		return err
	}
	if rc.legend != "" {
		legend := s.Legend.Current()
		if legend == nil {
			return fmt.Errorf("module %s draws no legend", kind)
		}
		if err := rc.write(rc.legend, legend.WriteTo); err != nil {
			return err
		}
	}

	if rc.out != "-" {
		fmt.Fprintf(rc.output, "%s\n%s written\n", m.Title(), rc.out)
	}
	return nil
}

func (rc *RenderCmd) applyDrill(ctx context.Context, m visual.Module) error {
	if len(rc.drill) == 0 {
		return nil
	}
	regional, ok := m.(visual.Regional)
	if !ok {
		return fmt.Errorf("%w: module %s has no drill", visual.ErrInvalidDrill, m.Kind())
	}
	for _, step := range rc.drill {
		id := step
		if step == drillStates {
			id = ""
		}
		if err := regional.DrillDown(ctx, id); err != nil {
			return fmt.Errorf("failed to drill into %q: %w", step, err)
		}
	}
	return nil
}

func (rc *RenderCmd) write(path string, fn func(io.Writer) (int64, error)) error {
	w, closeFn, err := create(path, rc.output)
	if err != nil {
		return err
	}
	if _, err := fn(w); err != nil {
		_ = closeFn()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return closeFn()
}
