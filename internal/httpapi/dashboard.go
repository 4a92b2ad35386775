package httpapi

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/form"
	apimw "github.com/hamed0406/sitewatch/internal/httpapi/middleware"
	"github.com/hamed0406/sitewatch/internal/monitoring"
	"github.com/hamed0406/sitewatch/internal/worldmap"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"countryName": domain.CountryName,
	"uptimeLevel": domain.UptimeBucket,
	"confirmText": monitoring.ConfirmPrompt,
	"ago": func(t *time.Time) string {
		if t == nil {
			return "never"
		}
		return humanize.Time(*t)
	},
	"ms": func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return fmt.Sprintf("%.0f ms", *v)
	},
	"pct": func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
	"join": strings.Join,
}).ParseFS(templateFS, "templates/dashboard.html"))

var statusFilters = []monitoring.StatusFilter{"all", "up", "down", "maintenance", "unknown"}

type dashboardPage struct {
	View    monitoring.View
	Detail  *siteDetail
	Map     template.HTML
	Admin   bool
	Key     string
	Filters []monitoring.StatusFilter
	Draft   form.Draft
	Errors  form.ValidationErrors
}

// applyQuery copies the query parameters that are present onto the
// controller's view state.
func (s *Server) applyQuery(q url.Values) error {
	if v, ok := q["view"]; ok {
		m, valid := monitoring.ParseViewMode(v[0])
		if !valid {
			return fmt.Errorf("invalid view %q", v[0])
		}
		s.Ctl.SetViewMode(m)
	}
	if v, ok := q["q"]; ok {
		s.Ctl.SetSearch(v[0])
	}
	if v, ok := q["status"]; ok {
		if err := s.Ctl.SetStatusFilter(v[0]); err != nil {
			return err
		}
	}
	if v, ok := q["select"]; ok {
		if v[0] == "" || !s.Ctl.Select(domain.SiteID(v[0])) {
			s.Ctl.ClearSelection()
		}
	}
	switch q.Get("add") {
	case "1":
		s.Ctl.OpenAddModal()
	case "0":
		s.Ctl.CloseAddModal()
	}
	return nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if err := s.applyQuery(r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.renderDashboard(w, r, http.StatusOK)
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, code int) {
	v := s.Ctl.View()
	page := dashboardPage{
		View:    v,
		Admin:   apimw.RoleFrom(r.Context()) == apimw.RoleAdmin,
		Key:     r.URL.Query().Get("key"),
		Filters: statusFilters,
		Draft:   s.Ctl.Form().Draft(),
		Errors:  s.Ctl.Form().Errors(),
	}
	if v.Selected != nil {
		d := s.detail(r.Context(), *v.Selected)
		page.Detail = &d
	}
	if v.Mode == monitoring.ViewMap {
		var svg bytes.Buffer
		if err := worldmap.RenderSVG(&svg, worldmap.Build(v.Sites, worldmap.DefaultCanvas)); err != nil {
			s.Logger.Error("map_render_error", zap.Error(err))
		}
		// RenderSVG escapes every value it interpolates.
		page.Map = template.HTML(svg.String())
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, page); err != nil {
		s.Logger.Error("dashboard_render_error", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request, extra url.Values) {
	q := url.Values{}
	if k := r.URL.Query().Get("key"); k != "" {
		q.Set("key", k)
	}
	for k, v := range extra {
		q[k] = v
	}
	target := "/"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// handleDashboardAdd fills the add modal's form from the posted fields and
// submits it. Failures re-render the page with the modal still open.
func (s *Server) handleDashboardAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	f := s.Ctl.Form()
	if !f.IsOpen() {
		s.Ctl.OpenAddModal()
	}
	f.Edit(func(d *form.Draft) {
		d.Name = r.PostForm.Get("name")
		d.URL = r.PostForm.Get("url")
		d.Description = r.PostForm.Get("description")
		d.Country = r.PostForm.Get("country")
		d.CheckInterval = atoiOrZero(r.PostForm.Get("check_interval"))
		d.TimeoutSeconds = atoiOrZero(r.PostForm.Get("timeout_seconds"))
		d.ExpectedStatusCode = atoiOrZero(r.PostForm.Get("expected_status_code"))
	})
	for _, t := range f.Draft().Tags {
		f.RemoveTag(t)
	}
	for _, t := range strings.Split(r.PostForm.Get("tags"), ",") {
		f.SetTagInput(t)
		f.AddTag()
	}
	f.SetTagInput("")

	err := s.Ctl.SubmitAdd(r.Context())
	var verrs form.ValidationErrors
	switch {
	case err == nil:
		s.redirectHome(w, r, nil)
	case errors.As(err, &verrs) && verrs[form.FieldSubmit] != "":
		s.renderDashboard(w, r, http.StatusBadGateway)
	case errors.As(err, &verrs):
		s.renderDashboard(w, r, http.StatusBadRequest)
	case errors.Is(err, form.ErrBusy):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Toggle and delete failures are log-only: the page reloads unchanged.
func (s *Server) handleDashboardToggle(w http.ResponseWriter, r *http.Request) {
	res := s.Ctl.ToggleActive(r.Context(), domain.SiteID(chi.URLParam(r, "id")))
	if res.Surface() {
		http.Error(w, res.Err.Error(), resultStatus(res))
		return
	}
	s.redirectHome(w, r, nil)
}

func (s *Server) handleDashboardDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	res := s.Ctl.Delete(r.Context(), domain.SiteID(id), nameConfirmer(r.PostForm.Get("confirm")))
	if res.Surface() {
		http.Error(w, res.Err.Error(), resultStatus(res))
		return
	}
	if res.Cancelled {
		s.redirectHome(w, r, url.Values{"select": {id}})
		return
	}
	s.redirectHome(w, r, nil)
}
