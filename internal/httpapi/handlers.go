package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/charts"
	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/form"
	"github.com/hamed0406/sitewatch/internal/monitoring"
	"github.com/hamed0406/sitewatch/internal/repo"
	"github.com/hamed0406/sitewatch/internal/worldmap"
)

// filtered applies the q and status query parameters to the current
// snapshot without touching the controller's own view state.
func (s *Server) filtered(r *http.Request) ([]domain.SiteDashboard, bool) {
	status, ok := monitoring.ParseStatusFilter(r.URL.Query().Get("status"))
	if !ok {
		return nil, false
	}
	return monitoring.Filter(s.Ctl.Sites(), r.URL.Query().Get("q"), status), true
}

type listResponse struct {
	Sites []domain.SiteDashboard `json:"sites"`
	Stats monitoring.Stats       `json:"stats"`
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, ok := s.filtered(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Sites: sites, Stats: monitoring.ComputeStats(sites)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sites, ok := s.filtered(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	writeJSON(w, http.StatusOK, monitoring.ComputeStats(sites))
}

type siteDetail struct {
	Site        domain.SiteDashboard `json:"site"`
	CountryName string               `json:"country_name"`
	UptimeLevel string               `json:"uptime_level"`
	Logs        []domain.SiteLog     `json:"logs"`
}

func (s *Server) detail(ctx context.Context, site domain.SiteDashboard) siteDetail {
	d := siteDetail{
		Site:        site,
		CountryName: domain.CountryName(site.Country),
		UptimeLevel: domain.UptimeBucket(site.Uptime24h),
		Logs:        []domain.SiteLog{},
	}
	if s.Logs == nil {
		return d
	}
	logs, err := s.Logs.RecentLogs(ctx, site.ID, RecentLogLimit)
	if err != nil {
		s.Logger.Warn("site_logs_error", zap.String("id", string(site.ID)), zap.Error(err))
		return d
	}
	if logs != nil {
		d.Logs = logs
	}
	return d
}

func (s *Server) handleGetSite(w http.ResponseWriter, r *http.Request) {
	site, ok := s.Ctl.Site(domain.SiteID(chi.URLParam(r, "id")))
	if !ok {
		writeError(w, http.StatusNotFound, "site not found")
		return
	}
	writeJSON(w, http.StatusOK, s.detail(r.Context(), site))
}

func (s *Server) handleAddSite(w http.ResponseWriter, r *http.Request) {
	// omitted numeric fields keep their defaults
	d := form.DefaultDraft()
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}

	err := s.submitDraft(r.Context(), d)
	var verrs form.ValidationErrors
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{"status": "created", "name": d.Name})
	case errors.As(err, &verrs) && verrs[form.FieldSubmit] != "":
		writeJSON(w, http.StatusBadGateway, map[string]any{"errors": verrs})
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verrs})
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// submitDraft runs d through a fresh form so API adds get the same tag
// handling and validation as the dashboard modal.
func (s *Server) submitDraft(ctx context.Context, d form.Draft) error {
	f := form.New()
	f.Open()
	f.Edit(func(cur *form.Draft) { *cur = d })
	for _, t := range d.Tags {
		f.SetTagInput(t)
		f.AddTag()
	}
	return f.Submit(ctx, s.Ctl.AddSite)
}

func resultStatus(res monitoring.Result) int {
	switch {
	case res.Cancelled:
		return http.StatusConflict
	case errors.Is(res.Err, repo.ErrNotFound):
		return http.StatusNotFound
	case res.Err != nil:
		return http.StatusBadGateway
	}
	return http.StatusOK
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := domain.SiteID(chi.URLParam(r, "id"))
	res := s.Ctl.ToggleActive(r.Context(), id)
	if !res.OK() {
		writeError(w, resultStatus(res), "toggle failed")
		return
	}
	site, _ := s.Ctl.Site(id)
	writeJSON(w, http.StatusOK, site)
}

// nameConfirmer approves a delete only when the caller typed the site's
// exact name.
type nameConfirmer string

func (n nameConfirmer) Confirm(_ context.Context, site domain.SiteDashboard) bool {
	return string(n) == site.Name
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := domain.SiteID(chi.URLParam(r, "id"))
	res := s.Ctl.Delete(r.Context(), id, nameConfirmer(r.URL.Query().Get("confirm")))
	if res.Cancelled {
		site, _ := s.Ctl.Site(id)
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":   "confirmation required",
			"confirm": monitoring.ConfirmPrompt(site),
		})
		return
	}
	if !res.OK() {
		writeError(w, resultStatus(res), "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type mapResponse struct {
	Canvas  worldmap.Canvas `json:"canvas"`
	Markers []mapMarker     `json:"markers"`
	Omitted int             `json:"omitted"`
}

type mapMarker struct {
	worldmap.Marker
	Count   int              `json:"count"`
	Primary domain.SiteID    `json:"primary_site"`
	Tooltip worldmap.Tooltip `json:"tooltip"`
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	sites, ok := s.filtered(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	m := worldmap.Build(sites, worldmap.DefaultCanvas)
	resp := mapResponse{Canvas: m.Canvas, Markers: make([]mapMarker, 0, len(m.Markers)), Omitted: m.Omitted}
	for _, mk := range m.Markers {
		resp.Markers = append(resp.Markers, mapMarker{
			Marker:  mk,
			Count:   mk.Count(),
			Primary: mk.Primary().ID,
			Tooltip: mk.Tooltip(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMapSVG(w http.ResponseWriter, r *http.Request) {
	sites, ok := s.filtered(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	var buf bytes.Buffer
	if err := worldmap.RenderSVG(&buf, worldmap.Build(sites, worldmap.DefaultCanvas)); err != nil {
		s.Logger.Error("map_render_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleResponseTimeChart(w http.ResponseWriter, r *http.Request) {
	sites, ok := s.filtered(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	var buf bytes.Buffer
	err := charts.ResponseTimes(&buf, sites)
	if errors.Is(err, charts.ErrNoData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.Logger.Error("chart_render_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}
