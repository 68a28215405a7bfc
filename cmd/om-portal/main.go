// Точка входа O&M Portal — административный портал архива
// эксплуатационной документации. Загружает конфигурацию, подключается
// к PostgreSQL, применяет миграции, создаёт клиент архивного бэкенда,
// зеркало состояния и фоновую синхронизацию, запускает HTTP-сервер
// с сессионной аутентификацией и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/virtualviewing/om-portal/internal/api/handlers"
	"github.com/virtualviewing/om-portal/internal/api/middleware"
	"github.com/virtualviewing/om-portal/internal/archive"
	"github.com/virtualviewing/om-portal/internal/chat"
	"github.com/virtualviewing/om-portal/internal/config"
	"github.com/virtualviewing/om-portal/internal/database"
	"github.com/virtualviewing/om-portal/internal/preview"
	"github.com/virtualviewing/om-portal/internal/repository"
	"github.com/virtualviewing/om-portal/internal/server"
	"github.com/virtualviewing/om-portal/internal/service"
	"github.com/virtualviewing/om-portal/internal/store"
	"github.com/virtualviewing/om-portal/internal/ui/auth"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("O&M Portal запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("archive_url", cfg.ArchiveURL),
	)

	if os.Getenv("OP_DEPHEALTH_GROUP") == "" {
		logger.Warn("OP_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Клиент архивного бэкенда
	gateway := archive.New(cfg.ArchiveURL, cfg.ArchiveTimeout, logger)
	logger.Info("Клиент архивного бэкенда создан",
		slog.String("base_url", gateway.BaseURL()),
	)

	// 6. Зеркало состояния и фоновая синхронизация
	mirror := store.New(gateway, logger)
	refresher := store.NewRefresher(mirror, cfg.RefreshInterval, cfg.ArchiveTimeout, logger)
	refresher.Start(ctx)

	// 7. Резолвер предпросмотра и матчер ассистента
	resolver := preview.New(gateway, logger)
	matcher := chat.NewMatcher(gateway, logger)

	// 8. Репозиторий настроек интерфейса
	prefsRepo := repository.NewUIPreferencesRepository(pool)

	// 9. Session Manager — шифрование сессий (AES-256-GCM)
	secureCookie := strings.HasPrefix(cfg.ArchiveURL, "https")
	sessionMgr, err := auth.NewSessionManager(cfg.SessionSecret, secureCookie)
	if err != nil {
		logger.Error("Ошибка создания Session Manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("OP_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
	}

	// 10. Readiness checkers (PostgreSQL + зеркало)
	pgChecker := database.NewReadinessChecker(pool)
	mirrorChecker := store.NewReadinessChecker(mirror, 3*cfg.RefreshInterval)
	healthHandler := handlers.NewHealthHandler(pgChecker, mirrorChecker)

	// 11. API handler
	apiHandler := handlers.NewAPIHandler(
		mirror,
		gateway,
		resolver,
		matcher,
		prefsRepo,
		sessionMgr,
		healthHandler,
		cfg.AllowedEmailDomain,
		logger,
	)

	// 12. Middleware сессионной аутентификации
	sessionAuth := middleware.NewSessionAuth(sessionMgr, logger)

	// 13. topologymetrics — мониторинг зависимостей (PostgreSQL + архив)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"om-portal",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.ArchiveURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 14. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, sessionAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 15. Graceful shutdown фоновых задач
	logger.Info("Останавливаем фоновые задачи...")

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	refresher.Stop()

	logger.Info("O&M Portal остановлен")
}
