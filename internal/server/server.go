// Пакет server — HTTP-сервер O&M Portal с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/virtualviewing/om-portal/internal/api/handlers"
	"github.com/virtualviewing/om-portal/internal/api/middleware"
	"github.com/virtualviewing/om-portal/internal/config"
	"github.com/virtualviewing/om-portal/internal/ui/static"
)

// Server — HTTP-сервер портала.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
// sessionAuth может быть nil для тестирования без аутентификации.
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, sessionAuth *middleware.SessionAuth) *Server {
	router := NewRouter(logger, handler, sessionAuth)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает chi-маршрутизатор портала.
// Вынесен отдельно, чтобы обработчики можно было тестировать
// через httptest без запуска сервера.
func NewRouter(logger *slog.Logger, handler *handlers.APIHandler, sessionAuth *middleware.SessionAuth) chi.Router {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Сессионная аутентификация с исключениями для публичных endpoints.
	// Health и metrics опрашиваются Kubernetes напрямую; статика и вход
	// доступны до аутентификации.
	if sessionAuth != nil {
		router.Use(sessionAuthWithExclusions(sessionAuth,
			"/health/", "/metrics", "/static/", "/api/v1/auth/login"))
	}

	// Служебные маршруты
	router.Get("/health/live", handler.HealthLive)
	router.Get("/health/ready", handler.HealthReady)
	router.Get("/metrics", handler.GetMetrics)

	// Статические ассеты SPA
	router.Handle("/static/*", http.StripPrefix("/static/", static.Handler()))

	// JSON API
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", handler.Login)
		r.Post("/auth/logout", handler.Logout)
		r.Get("/auth/me", handler.Me)

		r.Get("/files", handler.ListFiles)
		r.Get("/portfolio", handler.Portfolio)
		r.Get("/stats", handler.Stats)

		r.Post("/ask", handler.Ask)
		r.Post("/chat/open", handler.OpenFromChat)

		r.Post("/preview/resolve", handler.ResolvePreview)
		r.Get("/preview/selected", handler.SelectedPreview)
		r.Delete("/preview/selected", handler.ClosePreview)

		r.Post("/assets", handler.CreateAsset)
		r.Patch("/assets/{id}", handler.UpdateAsset)
		r.Delete("/assets/{id}", handler.DeleteAsset)
		r.Post("/assets/{id}/favorite", handler.ToggleFavorite)
		r.Post("/assets/{id}/archive", handler.SetArchiveStatus)
		r.Get("/assets/{id}/docs", handler.AssetDocs)
		r.Delete("/assets/{id}/docs/{name}", handler.DeleteAssetDoc)
		r.Post("/assets/{id}/upload", handler.UploadDocument)

		r.Get("/settings", handler.GetSettings)
		r.Put("/settings", handler.PutSettings)
	})

	return router
}

// sessionAuthWithExclusions оборачивает SessionAuth.Middleware(),
// пропуская указанные пути без проверки сессии.
func sessionAuthWithExclusions(sessionAuth *middleware.SessionAuth, excludePrefixes ...string) func(http.Handler) http.Handler {
	authMiddleware := sessionAuth.Middleware()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range excludePrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			authMiddleware(next).ServeHTTP(w, r)
		})
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
