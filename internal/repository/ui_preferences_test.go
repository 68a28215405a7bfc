package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/virtualviewing/om-portal/internal/config"
	"github.com/virtualviewing/om-portal/internal/database"
)

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
// Возвращает pgxpool.Pool; контейнер и пул закрываются через t.Cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("om_portal_test"),
		postgres.WithUsername("om_portal"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	// Настраиваем env для config.Load()
	os.Setenv("OP_DB_HOST", host)
	os.Setenv("OP_DB_PORT", port.Port())
	os.Setenv("OP_DB_NAME", "om_portal_test")
	os.Setenv("OP_DB_USER", "om_portal")
	os.Setenv("OP_DB_PASSWORD", "test-password")
	os.Setenv("OP_DB_SSL_MODE", "disable")
	os.Setenv("OP_ARCHIVE_URL", "http://localhost:8000")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

func TestUIPreferencesCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUIPreferencesRepository(pool)

	email := "user@virtualviewing.com"

	// Set + Get
	if err := repo.Set(ctx, email, "theme", "dark"); err != nil {
		t.Fatalf("Set() ошибка: %v", err)
	}

	p, err := repo.Get(ctx, email, "theme")
	if err != nil {
		t.Fatalf("Get() ошибка: %v", err)
	}
	if p.Value != "dark" {
		t.Errorf("Value = %q, ожидается dark", p.Value)
	}
	if p.UpdatedAt.IsZero() {
		t.Error("UpdatedAt не установлен")
	}

	// Upsert обновляет значение
	if err := repo.Set(ctx, email, "theme", "light"); err != nil {
		t.Fatalf("Set() при обновлении: %v", err)
	}
	p, err = repo.Get(ctx, email, "theme")
	if err != nil {
		t.Fatalf("Get() после обновления: %v", err)
	}
	if p.Value != "light" {
		t.Errorf("Value = %q, upsert должен обновить значение", p.Value)
	}

	// List: настройки разных пользователей не смешиваются
	if err := repo.Set(ctx, email, "sidebar_collapsed", "true"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Set(ctx, "other@virtualviewing.com", "theme", "dark"); err != nil {
		t.Fatal(err)
	}

	prefs, err := repo.List(ctx, email)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(prefs) != 2 {
		t.Errorf("List() вернул %d настроек, ожидается 2", len(prefs))
	}

	// Delete
	if err := repo.Delete(ctx, email, "theme"); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if _, err := repo.Get(ctx, email, "theme"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() после удаления: err = %v, ожидается ErrNotFound", err)
	}
}

func TestUIPreferences_GetMissing(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewUIPreferencesRepository(pool)

	_, err := repo.Get(context.Background(), "nobody@virtualviewing.com", "theme")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, ожидается ErrNotFound", err)
	}
}

func TestUIPreferences_DeleteMissing(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewUIPreferencesRepository(pool)

	err := repo.Delete(context.Background(), "nobody@virtualviewing.com", "theme")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, ожидается ErrNotFound", err)
	}
}
