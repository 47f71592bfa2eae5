package visual

import (
	"github.com/de-tools/sisvan-atlas/pkg/locale"
	"github.com/de-tools/sisvan-atlas/pkg/models/api"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/render/overlay"
	"github.com/de-tools/sisvan-atlas/pkg/services/visual"
)

func (h *Handler) sessionView(s *visual.Session) api.Session {
	out := api.Session{ID: s.ID, Profile: s.Profile.Name}
	for _, k := range visual.Kinds {
		m, err := s.Module(k)
		if err != nil {
			continue
		}
		out.Modules = append(out.Modules, h.moduleView(m))
	}
	return out
}

func (h *Handler) moduleView(m visual.Module) api.ModuleView {
	view := api.ModuleView{
		Module:    string(m.Kind()),
		Lifecycle: string(m.Lifecycle()),
		Title:     m.Title(),
		Counters:  countersView(m.Counters()),
	}
	if err := m.Err(); err != nil {
		view.Error = err.Error()
	}
	if filters, err := m.Filters(); err == nil {
		f := filtersView(filters.State())
		o := h.optionsView(filters.Options())
		view.Filters, view.Options = &f, &o
	}
	if regional, ok := m.(visual.Regional); ok && m.Lifecycle() == visual.Rendered {
		d := regional.Drill()
		view.Drill = &api.Drill{Level: d.Level.String(), State: d.State}
	}
	return view
}

func filtersView(f domain.FilterState) api.Filters {
	return api.Filters{
		State:       f.State,
		Subdivision: string(f.Subdivision),
		Area:        f.Area,
		Sex:         string(f.Sex),
		Phase:       string(f.Phase),
		Indicator:   f.Indicator,
		Indicators:  f.Indicators,
		Year:        f.Year,
	}
}

func (h *Handler) optionsView(o domain.Options) api.Options {
	out := api.Options{Years: o.Years}
	for _, s := range o.States {
		out.States = append(out.States, api.Option{Value: s.Code, Label: s.Name})
	}
	for _, s := range o.Subdivisions {
		out.Subdivisions = append(out.Subdivisions, api.Option{Value: string(s), Label: h.cat.SubdivisionLabel(s)})
	}
	for _, a := range o.Areas {
		out.Areas = append(out.Areas, api.Option{Value: a.Code, Label: a.Name})
	}
	for _, s := range o.Sexes {
		out.Sexes = append(out.Sexes, api.Option{Value: string(s), Label: h.cat.SexLabel(s)})
	}
	for _, p := range o.Phases {
		out.Phases = append(out.Phases, api.Option{Value: string(p), Label: h.cat.PhaseLabel(p)})
	}
	for _, i := range o.Indicators {
		out.Indicators = append(out.Indicators, api.Option{Value: i, Label: h.cat.ConditionName(i)})
	}
	for _, e := range o.Menu {
		out.Menu = append(out.Menu, api.MenuEntry{
			Key:      e.Key,
			Label:    h.cat.IndicatorName(e.Key),
			Checked:  e.Checked,
			Disabled: e.Disabled,
		})
	}
	return out
}

func countersView(c domain.Counters) api.Counters {
	return api.Counters{
		Female: c.Female,
		Male:   c.Male,
		Total:  c.Total,
		Display: api.CounterDisplays{
			Female: locale.FormatCount(c.Female),
			Male:   locale.FormatCount(c.Male),
			Total:  locale.FormatCount(c.Total),
		},
	}
}

func tooltipView(t overlay.TooltipState) api.Tooltip {
	return api.Tooltip{Visible: t.Visible, Left: t.Left, Top: t.Top, HTML: t.HTML}
}
