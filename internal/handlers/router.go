package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Hum-Bao/canvas-enable-totals/internal/app"
	"github.com/Hum-Bao/canvas-enable-totals/internal/metrics"
)

// NewRouter wires every HTTP route of the service. Empty CORS origins allow any origin.
func NewRouter(service *app.Service) http.Handler {
	allowedHeaders := []string{"Content-Type"}
	for _, h := range service.Config.API.RequiredHeaders {
		allowedHeaders = append(allowedHeaders, h.Name)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: service.Config.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: allowedHeaders,
		ExposedHeaders: []string{"X-Grade-Total"},
		MaxAge:         300,
	}))
	r.Use(instrument)

	r.Handle("/metrics", promhttp.Handler())

	totals := NewTotalsHandler(service)
	settings := NewSettingsHandler(service)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(requireHeaders(service))

		api.Get("/courses", settings.HandleListCourses)
		api.Route("/courses/{course}", func(cr chi.Router) {
			cr.Post("/totals", totals.HandleTotals)
			cr.Post("/totals/page", totals.HandlePage)
			cr.Post("/totals/render", totals.HandleRender)

			cr.Get("/settings", settings.HandleGet)
			cr.Put("/settings", settings.HandlePut)
			cr.Delete("/settings", settings.HandleDelete)
		})
	})

	return r
}

func requireHeaders(service *app.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !service.ValidateHeaders(r.Header) {
				http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// instrument records request durations labelled by route pattern, not raw path.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.APIRequestDuration.WithLabelValues(
			path,
			r.Method,
			strconv.Itoa(status),
		).Observe(time.Since(start).Seconds())
	})
}
