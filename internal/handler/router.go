package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sqlchat/sqlchat/internal/dataset"
	"github.com/sqlchat/sqlchat/internal/handler/chat"
	"github.com/sqlchat/sqlchat/internal/handler/datasets"
	middlewarePkg "github.com/sqlchat/sqlchat/internal/middleware"
	"github.com/sqlchat/sqlchat/internal/observability"
	"github.com/sqlchat/sqlchat/internal/service/chatbot"
	"github.com/sqlchat/sqlchat/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(bot *chatbot.Service, registry *dataset.Registry, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.LoggingMiddleware(logger))
	r.Use(observability.MetricsMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondError(w, http.StatusNotFound, "endpoint does not exist")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	chatHandler := chat.New(bot)
	datasetsHandler := datasets.New(registry)

	r.Route("/api", func(api chi.Router) {
		api.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "API Ready"})
		})

		chatHandler.RegisterRoutes(api)
		datasetsHandler.RegisterRoutes(api)
	})

	return r
}
