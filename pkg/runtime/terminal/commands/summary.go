package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/services/aggregate"
	"github.com/de-tools/sisvan-atlas/pkg/services/filter"
	"github.com/spf13/cobra"
)

// Reporter prints a summary report.
type Reporter interface {
	Handle(report *domain.Report) error
}

type SummaryCmd struct {
	profile  string
	by       string
	counts   bool
	plain    bool
	filters  []string
	timeout  time.Duration
	bench    *Workbench
	reporter Reporter
	text     Reporter
}

func NewSummaryCmd(bench *Workbench, reporter, text Reporter) *cobra.Command {
	sc := &SummaryCmd{bench: bench, reporter: reporter, text: text}
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print an aggregation table of a dataset profile",
		Example: `  sisvan summary --by indicator --filter state=MG --filter year=2023
  sisvan summary --by year --filter indicator=obesidade_G_1 --filter sex=Fem`,
		RunE: sc.run,
	}

	cmd.Flags().StringVar(&sc.profile, "profile", "default", "Dataset profile name")
	cmd.Flags().StringVar(&sc.by, "by", "indicator", "Grouping: indicator, year, state, municipality or region")
	cmd.Flags().BoolVar(&sc.counts, "counts", false, "Show counts instead of percentages")
	cmd.Flags().BoolVar(&sc.plain, "plain", false, "Tab-separated output without colors")
	cmd.Flags().StringArrayVar(&sc.filters, "filter", nil, "Filter as field=value, repeatable")
	cmd.Flags().DurationVar(&sc.timeout, "timeout", 60*time.Second, "Load timeout")

	return cmd
}

func queryFor(by string) (aggregate.Query, error) {
	switch by {
	case "indicator":
		return aggregate.Query{GroupBy: aggregate.GroupByIndicator, Denominator: aggregate.DenomRespondents}, nil
	case "year":
		return aggregate.Query{GroupBy: aggregate.GroupByYear, Denominator: aggregate.DenomRespondents, IgnoreYear: true}, nil
	case "state":
		return aggregate.Query{GroupBy: aggregate.GroupByState, Denominator: aggregate.DenomIndicatorSum, IgnoreState: true, IgnoreArea: true}, nil
	case "municipality":
		return aggregate.Query{GroupBy: aggregate.GroupByMunicipality, Denominator: aggregate.DenomIndicatorSum, IgnoreArea: true}, nil
	case "region":
		return aggregate.Query{GroupBy: aggregate.GroupByRegion, Denominator: aggregate.DenomIndicatorSum, IgnoreArea: true}, nil
	}
	return aggregate.Query{}, fmt.Errorf("unsupported grouping %q", by)
}

func (sc *SummaryCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), sc.timeout)
	defer cancel()
	sc.bench.init()

	q, err := queryFor(sc.by)
	if err != nil {
		return err
	}
	if sc.counts {
		q.Mode = aggregate.ModeCount
	}
	args, err := parseFilters(sc.filters)
	if err != nil {
		return err
	}

	ds, release, err := sc.bench.acquire(ctx, sc.profile)
	if err != nil {
		return err
	}
	defer release()

	mgr := filter.NewManager(ds, filter.WithYearPinned(), filter.WithTotalIndicator())
	if err := applyFilters(mgr, args); err != nil {
		return err
	}
	f := mgr.State()
	if (q.GroupBy == aggregate.GroupByMunicipality || q.GroupBy == aggregate.GroupByRegion) && f.State == "" {
		return fmt.Errorf("grouping by %s needs a state filter", sc.by)
	}

	res := sc.bench.engine.Aggregate(ctx, ds.Rows(), ds.RegionIndex(), f, q)
	report := buildReport(sc.bench, f, q, res)

	if sc.plain {
		return sc.text.Handle(report)
	}
	return sc.reporter.Handle(report)
}

func buildReport(bench *Workbench, f domain.FilterState, q aggregate.Query, res aggregate.Result) *domain.Report {
	cat := bench.Catalog
	section := domain.ReportSection{
		Title:  cat.IndicatorName(f.Indicator),
		Counts: q.Mode == aggregate.ModeCount,
	}
	if q.GroupBy == aggregate.GroupByIndicator {
		section.Title = cat.PhaseLabel(f.Phase)
	}
	for _, g := range res.Groups {
		section.Details = append(section.Details, domain.ReportDetail{
			Name:   g.Label,
			All:    g.Value.All,
			Female: g.Value.Female,
			Male:   g.Value.Male,
		})
	}

	return &domain.Report{
		Title:    fmt.Sprintf("Resumo por %s", q.GroupBy),
		Scope:    scope(cat, f),
		Counters: res.Totals,
		Sections: []domain.ReportSection{section},
	}
}
