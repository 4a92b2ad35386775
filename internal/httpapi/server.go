package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/sitewatch/internal/httpapi/middleware"
	"github.com/hamed0406/sitewatch/internal/monitoring"
	"github.com/hamed0406/sitewatch/internal/repo"
)

// RecentLogLimit is how many check results the detail endpoints return.
const RecentLogLimit = 20

type Server struct {
	Logger *zap.Logger
	Ctl    *monitoring.Controller
	Logs   repo.LogStore
	Hub    *Hub
}

func NewServer(l *zap.Logger, ctl *monitoring.Controller, logs repo.LogStore, hub *Hub) *Server {
	return &Server{Logger: l, Ctl: ctl, Logs: logs, Hub: hub}
}

// Router wires every route. Reads need any key, writes an admin key; each
// group has its own per-IP rate limit.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	r := chi.NewRouter()
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(pubRPM, pubBurst))
		r.Use(apimw.RequireAny(keys))

		r.Get("/", s.handleDashboard)
		r.Get("/api/sites", s.handleListSites)
		r.Get("/api/sites/{id}", s.handleGetSite)
		r.Get("/api/stats", s.handleStats)
		r.Get("/api/map", s.handleMap)
		r.Get("/api/map.svg", s.handleMapSVG)
		r.Get("/api/charts/response-times.png", s.handleResponseTimeChart)
		if s.Hub != nil {
			r.Handle("/ws", s.Hub)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(admRPM, admBurst))
		r.Use(apimw.RequireAdmin(keys))

		r.Post("/api/sites", s.handleAddSite)
		r.Post("/api/sites/{id}/toggle", s.handleToggle)
		r.Delete("/api/sites/{id}", s.handleDelete)

		// form posts from the HTML dashboard
		r.Post("/sites", s.handleDashboardAdd)
		r.Post("/sites/{id}/toggle", s.handleDashboardToggle)
		r.Post("/sites/{id}/delete", s.handleDashboardDelete)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
