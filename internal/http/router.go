package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// RouterConfig wires handlers into the router. Nil handlers leave their routes
// unregistered.
type RouterConfig struct {
	Appointments *AppointmentHandler
	Staff        *StaffHandler
	Calendar     *CalendarHandler
	Events       *EventsHandler
	Health       *HealthHandler
	CORSOrigins  []string
	Logger       *slog.Logger
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	responder := newResponder(logger)

	router := chi.NewRouter()
	router.Use(RequestLogger(logger), Recoverer(logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(cfg.CORSOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))
	for _, mw := range cfg.Middleware {
		if mw != nil {
			router.Use(mw)
		}
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responder.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{
			ErrorCode: errorCode(http.StatusNotFound),
			Message:   statusMessage(http.StatusNotFound),
		})
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		responder.writeJSON(r.Context(), w, http.StatusMethodNotAllowed, errorResponse{
			ErrorCode: errorCode(http.StatusMethodNotAllowed),
			Message:   statusMessage(http.StatusMethodNotAllowed),
		})
	})

	if cfg.Health != nil {
		router.Get("/healthz", cfg.Health.Check)
	}

	if cfg.Appointments != nil {
		router.Route("/appointments", func(r chi.Router) {
			r.Get("/", cfg.Appointments.List)
			r.Post("/", cfg.Appointments.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.Appointments.Get)
				r.Patch("/", cfg.Appointments.Update)
				r.Delete("/", cfg.Appointments.Delete)
				r.Post("/move", cfg.Appointments.Move)
			})
		})
	}

	if cfg.Staff != nil {
		router.Route("/staff", func(r chi.Router) {
			r.Get("/", cfg.Staff.List)
			r.Post("/", cfg.Staff.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.Staff.Get)
				r.Put("/", cfg.Staff.Update)
				r.Delete("/", cfg.Staff.Delete)
				r.Post("/deactivate", cfg.Staff.Deactivate)
				r.Post("/reactivate", cfg.Staff.Reactivate)
			})
		})
	}

	if cfg.Calendar != nil {
		router.Route("/calendar", func(r chi.Router) {
			r.Get("/day", cfg.Calendar.Day)
			r.Get("/week", cfg.Calendar.Week)
			r.Get("/slots", cfg.Calendar.Slots)
		})
	}

	if cfg.Events != nil {
		router.Get("/events", cfg.Events.Stream)
	}

	return router
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
