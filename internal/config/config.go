// Пакет config — загрузка и валидация конфигурации O&M Portal
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации O&M Portal.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Архивный бэкенд ---

	// Базовый URL архивного бэкенда (без trailing slash).
	// Адрес задаётся явно конфигурацией, а не вычисляется из хоста запроса.
	ArchiveURL string
	// Таймаут HTTP-запросов к архивному бэкенду
	ArchiveTimeout time.Duration

	// --- Аутентификация ---

	// Домен рабочей почты; адреса вне домена отклоняются локально,
	// без обращения к бэкенду
	AllowedEmailDomain string
	// Секрет шифрования UI-сессий (base64 или произвольная строка).
	// Пустое значение — случайный ключ, сессии не переживают рестарт.
	SessionSecret string

	// --- Синхронизация ---

	// Интервал фонового обновления зеркала (файлы + портфель)
	RefreshInterval time.Duration
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
	// Имя группы в метриках topologymetrics
	DephealthGroup string

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// OP_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("OP_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("OP_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("OP_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// OP_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("OP_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("OP_LOG_LEVEL: %w", err)
	}

	// OP_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("OP_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("OP_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	// OP_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("OP_DB_HOST")
	if err != nil {
		return nil, err
	}

	// OP_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("OP_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("OP_DB_PORT: %w", err)
	}

	// OP_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("OP_DB_NAME")
	if err != nil {
		return nil, err
	}

	// OP_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("OP_DB_USER")
	if err != nil {
		return nil, err
	}

	// OP_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("OP_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// OP_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("OP_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("OP_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Архивный бэкенд ---

	// OP_ARCHIVE_URL — обязательный
	cfg.ArchiveURL, err = getEnvRequired("OP_ARCHIVE_URL")
	if err != nil {
		return nil, err
	}
	// Убираем trailing slash
	cfg.ArchiveURL = strings.TrimRight(cfg.ArchiveURL, "/")
	if !strings.HasPrefix(cfg.ArchiveURL, "http://") && !strings.HasPrefix(cfg.ArchiveURL, "https://") {
		return nil, fmt.Errorf("OP_ARCHIVE_URL: значение %q должно начинаться с http:// или https://", cfg.ArchiveURL)
	}

	// OP_ARCHIVE_TIMEOUT — таймаут запросов к бэкенду (по умолчанию 30s)
	cfg.ArchiveTimeout, err = getEnvDuration("OP_ARCHIVE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OP_ARCHIVE_TIMEOUT: %w", err)
	}

	// --- Аутентификация ---

	// OP_ALLOWED_EMAIL_DOMAIN — домен рабочей почты (по умолчанию virtualviewing.com)
	cfg.AllowedEmailDomain = strings.TrimPrefix(
		getEnvDefault("OP_ALLOWED_EMAIL_DOMAIN", "virtualviewing.com"), "@")

	// OP_SESSION_SECRET — секрет шифрования сессий (опционально)
	cfg.SessionSecret = getEnvDefault("OP_SESSION_SECRET", "")

	// --- Синхронизация ---

	// OP_REFRESH_INTERVAL — интервал фонового обновления зеркала (по умолчанию 15m)
	cfg.RefreshInterval, err = getEnvDuration("OP_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("OP_REFRESH_INTERVAL: %w", err)
	}

	// OP_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("OP_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OP_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// OP_DEPHEALTH_GROUP — имя группы topologymetrics (по умолчанию om-portal)
	cfg.DephealthGroup = getEnvDefault("OP_DEPHEALTH_GROUP", "om-portal")

	// --- Graceful shutdown ---

	// OP_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("OP_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OP_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL
// (формат postgres://, используется topologymetrics для лейблов).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
