package visual

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/de-tools/sisvan-atlas/pkg/catalog"
	"github.com/de-tools/sisvan-atlas/pkg/models/api"
	"github.com/de-tools/sisvan-atlas/pkg/render/chart"
	"github.com/de-tools/sisvan-atlas/pkg/render/overlay"
	"github.com/de-tools/sisvan-atlas/pkg/services/config"
	"github.com/de-tools/sisvan-atlas/pkg/services/filter"
	"github.com/de-tools/sisvan-atlas/pkg/services/visual"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

var errBadRequest = errors.New("bad request")

type Handler struct {
	sessions       visual.Registry
	profiles       config.Profiles
	defaultProfile string
	cat            *catalog.Catalog
}

func NewHandler(sessions visual.Registry, profiles config.Profiles, defaultProfile string, cat *catalog.Catalog) *Handler {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Handler{
		sessions:       sessions,
		profiles:       profiles,
		defaultProfile: defaultProfile,
		cat:            cat,
	}
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.CreateSessionRequest
	if err := decodeOptional(r.Body, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	name := req.Profile
	if name == "" {
		name = h.defaultProfile
	}
	profile, err := h.profiles.GetProfile(ctx, name)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	s, err := h.sessions.Create(ctx, profile)
	if s == nil {
		h.fail(w, r, err)
		return
	}
	response := h.sessionView(s)
	if err != nil {
		// the session exists with failed modules until it is deleted
		response.Error = err.Error()
	}

	logger.Info().Str("session", s.ID).Str("profile", profile.Name).Msg("session opened")
	h.writeJSON(w, r, http.StatusCreated, response)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "session"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, h.sessionView(s))
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.Context(), chi.URLParam(r, "session")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetModule(w http.ResponseWriter, r *http.Request) {
	_, m, err := h.module(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, h.moduleView(m))
}

func (h *Handler) PatchFilters(w http.ResponseWriter, r *http.Request) {
	_, m, err := h.module(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var patch api.FilterPatch
	if err := decode(r.Body, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	filters, err := m.Filters()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := filters.Set(filter.Field(patch.Field), patch.Value); err != nil {
		h.fail(w, r, err)
		return
	}

	zerolog.Ctx(r.Context()).Debug().
		Str("module", string(m.Kind())).
		Str("field", patch.Field).
		Str("value", patch.Value).
		Msg("filter applied")
	h.writeJSON(w, r, http.StatusOK, h.moduleView(m))
}

func (h *Handler) ToggleIndicator(w http.ResponseWriter, r *http.Request) {
	_, m, err := h.module(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	filters, err := m.Filters()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := filters.ToggleIndicator(chi.URLParam(r, "indicator")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, h.moduleView(m))
}

func (h *Handler) Drill(w http.ResponseWriter, r *http.Request) {
	_, m, err := h.module(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	regional, ok := m.(visual.Regional)
	if !ok {
		h.fail(w, r, fmt.Errorf("%w: module %s has no drill", visual.ErrInvalidDrill, m.Kind()))
		return
	}
	var req api.DrillRequest
	if err := decode(r.Body, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Up {
		err = regional.DrillUp(r.Context())
	} else {
		err = regional.DrillDown(r.Context(), req.ID)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, h.moduleView(m))
}

func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	_, m, err := h.module(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	size, err := sizeOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := m.Chart(r.Context(), size)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err := c.WriteTo(w); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("module", string(m.Kind())).Msg("failed to write chart")
	}
}

func (h *Handler) GetLegend(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "session"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	legend := s.Legend.Current()
	if legend == nil {
		http.Error(w, "no legend drawn", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err := legend.WriteTo(w); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write legend")
	}
}

// Hover forwards pointer events to the chart and returns the tooltip.
func (h *Handler) Hover(w http.ResponseWriter, r *http.Request) {
	s, m, err := h.module(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req api.HoverRequest
	if err := decode(r.Body, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	switch req.Action {
	case api.HoverEnter, api.HoverMove, api.HoverLeave:
	default:
		h.fail(w, r, fmt.Errorf("%w: unknown hover action %q", errBadRequest, req.Action))
		return
	}
	c, err := m.Chart(r.Context(), chart.Size{})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	p := overlay.Pointer{X: req.X, Y: req.Y}
	switch req.Action {
	case api.HoverEnter:
		err = c.Hover(req.Key, p)
	case api.HoverMove:
		c.Move(p)
	case api.HoverLeave:
		c.Leave()
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, tooltipView(s.Tooltip.State()))
}

func (h *Handler) GetTooltip(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "session"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, tooltipView(s.Tooltip.State()))
}

func (h *Handler) module(r *http.Request) (*visual.Session, visual.Module, error) {
	s, err := h.sessions.Get(chi.URLParam(r, "session"))
	if err != nil {
		return nil, nil, err
	}
	kind, err := visual.ParseKind(chi.URLParam(r, "module"))
	if err != nil {
		return nil, nil, err
	}
	m, err := s.Module(kind)
	if err != nil {
		return nil, nil, err
	}
	return s, m, nil
}

func sizeOf(r *http.Request) (chart.Size, error) {
	q := r.URL.Query()
	if q.Get("w") == "" && q.Get("h") == "" {
		return chart.Size{}, nil
	}
	width, err := strconv.ParseFloat(q.Get("w"), 64)
	if err != nil {
		return chart.Size{}, fmt.Errorf("%w: invalid width %q", errBadRequest, q.Get("w"))
	}
	height, err := strconv.ParseFloat(q.Get("h"), 64)
	if err != nil {
		return chart.Size{}, fmt.Errorf("%w: invalid height %q", errBadRequest, q.Get("h"))
	}
	size := chart.Size{Width: width, Height: height}
	if !size.Valid() {
		return chart.Size{}, fmt.Errorf("%w: size must be positive", errBadRequest)
	}
	return size, nil
}

func decode(body io.Reader, v any) error {
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

// decodeOptional accepts an empty body.
func decodeOptional(body io.Reader, v any) error {
	err := json.NewDecoder(body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, filter.ErrUnknownOption),
		errors.Is(err, filter.ErrDisabledIndicator),
		errors.Is(err, visual.ErrInvalidDrill):
		return http.StatusBadRequest
	case errors.Is(err, visual.ErrUnknownSession),
		errors.Is(err, visual.ErrUnknownModule),
		errors.Is(err, chart.ErrUnknownElement),
		errors.Is(err, config.ErrUnknownProfile):
		return http.StatusNotFound
	case errors.Is(err, visual.ErrNotLoaded),
		errors.Is(err, visual.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	event := zerolog.Ctx(r.Context()).Warn()
	if status == http.StatusInternalServerError {
		event = zerolog.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Msg("request failed")
	http.Error(w, err.Error(), status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}
