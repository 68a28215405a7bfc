// settings.go — персистентные настройки интерфейса пользователя.
// Тема и состояние сайдбара хранятся в PostgreSQL по почте из сессии.
package handlers

import (
	"log/slog"
	"net/http"

	apierrors "github.com/virtualviewing/om-portal/internal/api/errors"
	"github.com/virtualviewing/om-portal/internal/api/middleware"
)

// Допустимые ключи настроек интерфейса.
var allowedPreferenceKeys = map[string]bool{
	"theme":             true,
	"sidebar_collapsed": true,
}

// GetSettings возвращает все настройки интерфейса текущего пользователя.
func (h *APIHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		apierrors.Unauthorized(w, "требуется вход")
		return
	}

	prefs, err := h.prefs.List(r.Context(), session.Email)
	if err != nil {
		h.logger.Error("не удалось прочитать настройки",
			slog.String("email", session.Email),
			slog.String("error", err.Error()))
		apierrors.InternalError(w, "не удалось прочитать настройки")
		return
	}

	settings := make(map[string]string, len(prefs))
	for _, p := range prefs {
		settings[p.Key] = p.Value
	}

	writeJSON(w, http.StatusOK, settings)
}

// PutSettings сохраняет настройки интерфейса текущего пользователя.
// Тело — плоский объект {"theme": "dark", "sidebar_collapsed": "true"};
// неизвестные ключи отклоняются целиком.
func (h *APIHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		apierrors.Unauthorized(w, "требуется вход")
		return
	}

	var settings map[string]string
	if !decodeJSON(w, r, &settings) {
		return
	}
	if len(settings) == 0 {
		apierrors.ValidationError(w, "пустой набор настроек")
		return
	}

	for key := range settings {
		if !allowedPreferenceKeys[key] {
			apierrors.ValidationError(w, "неизвестный ключ настройки: "+key)
			return
		}
	}

	for key, value := range settings {
		if err := h.prefs.Set(r.Context(), session.Email, key, value); err != nil {
			h.logger.Error("не удалось сохранить настройку",
				slog.String("email", session.Email),
				slog.String("key", key),
				slog.String("error", err.Error()))
			apierrors.InternalError(w, "не удалось сохранить настройки")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
