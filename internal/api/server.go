// Package api — server.go собирает маршрутизатор и HTTP-сервер.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"emuready.app/trust-engine/internal/config"
	"emuready.app/trust-engine/internal/features/trust"
)

// NewRouter собирает все маршруты движка.
// pingDB — проверка доступности базы для /healthz.
func NewRouter(service *trust.Service, limiter *trust.Limiter, cfg *config.Config, pingDB func(ctx context.Context) error) http.Handler {
	h := NewHandler(service, limiter)

	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if pingDB != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := pingDB(ctx); err != nil {
				writeError(w, http.StatusServiceUnavailable, "база данных недоступна")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/trust", func(r chi.Router) {
		r.Post("/actions", h.HandleApplyAction)
		r.Post("/actions/reverse", h.HandleReverseAction)
		r.Get("/allowance", h.HandleAllowance)
		r.Get("/users/{userID}", h.HandleUserLevel)
		r.Get("/stats", h.HandleStats)

		// Админ-операции за проверкой токена
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin(cfg.AdminTokenHash))
			r.Post("/adjustments", h.HandleManualAdjustment)
			r.Post("/bonus/run", h.HandleBonusRun)
			r.Get("/users/{userID}/audit", h.HandleUserAudit)
		})
	})

	return r
}

// Server — HTTP-сервер движка с graceful shutdown.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

// NewServer создаёт сервер поверх собранного маршрутизатора.
func NewServer(cfg *config.Config, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		shutdownTimeout: cfg.HTTPShutdownTimeout,
	}
}

// Start запускает сервер (блокирует до остановки).
func (s *Server) Start() error {
	log.Infof("HTTP-сервер слушает %s", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop останавливает сервер, дожидаясь активных запросов.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Ошибка остановки HTTP-сервера")
	}
	log.Info("HTTP-сервер остановлен")
}
