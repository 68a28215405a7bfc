package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// UIPreference — запись таблицы ui_preferences: одна настройка
// интерфейса одного пользователя (тема, свёрнутый сайдбар и т.п.).
type UIPreference struct {
	// Почта пользователя-владельца
	UserEmail string
	// Ключ настройки (theme, sidebar_collapsed)
	Key string
	// Строковое значение настройки
	Value string
	// Время последнего обновления
	UpdatedAt time.Time
}

// UIPreferencesRepository — интерфейс для таблицы ui_preferences.
type UIPreferencesRepository interface {
	// Get возвращает настройку пользователя по ключу. Нет записи — ErrNotFound.
	Get(ctx context.Context, email, key string) (*UIPreference, error)
	// Set создаёт или обновляет настройку пользователя (upsert).
	Set(ctx context.Context, email, key, value string) error
	// List возвращает все настройки пользователя.
	List(ctx context.Context, email string) ([]UIPreference, error)
	// Delete удаляет настройку пользователя по ключу.
	Delete(ctx context.Context, email, key string) error
}

type uiPreferencesRepo struct {
	db DBTX
}

// NewUIPreferencesRepository создаёт репозиторий настроек интерфейса.
func NewUIPreferencesRepository(db DBTX) UIPreferencesRepository {
	return &uiPreferencesRepo{db: db}
}

// Get возвращает настройку пользователя по ключу.
func (r *uiPreferencesRepo) Get(ctx context.Context, email, key string) (*UIPreference, error) {
	query := `
		SELECT user_email, key, value, updated_at
		FROM ui_preferences
		WHERE user_email = $1 AND key = $2`

	p := &UIPreference{}
	err := r.db.QueryRow(ctx, query, email, key).Scan(
		&p.UserEmail, &p.Key, &p.Value, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения ui_preferences[%s/%s]: %w", email, key, err)
	}
	return p, nil
}

// Set создаёт или обновляет настройку (INSERT ... ON CONFLICT DO UPDATE).
func (r *uiPreferencesRepo) Set(ctx context.Context, email, key, value string) error {
	query := `
		INSERT INTO ui_preferences (user_email, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_email, key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = NOW()`

	_, err := r.db.Exec(ctx, query, email, key, value)
	if err != nil {
		return fmt.Errorf("ошибка сохранения ui_preferences[%s/%s]: %w", email, key, err)
	}
	return nil
}

// List возвращает все настройки пользователя, отсортированные по ключу.
func (r *uiPreferencesRepo) List(ctx context.Context, email string) ([]UIPreference, error) {
	query := `
		SELECT user_email, key, value, updated_at
		FROM ui_preferences
		WHERE user_email = $1
		ORDER BY key`

	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка ui_preferences[%s]: %w", email, err)
	}
	defer rows.Close()

	var prefs []UIPreference
	for rows.Next() {
		var p UIPreference
		if err := rows.Scan(&p.UserEmail, &p.Key, &p.Value, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования ui_preferences: %w", err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// Delete удаляет настройку пользователя по ключу.
func (r *uiPreferencesRepo) Delete(ctx context.Context, email, key string) error {
	query := `DELETE FROM ui_preferences WHERE user_email = $1 AND key = $2`
	tag, err := r.db.Exec(ctx, query, email, key)
	if err != nil {
		return fmt.Errorf("ошибка удаления ui_preferences[%s/%s]: %w", email, key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
