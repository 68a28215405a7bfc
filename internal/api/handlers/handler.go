// handler.go — основной обработчик JSON API портала.
// Объединяет зеркало, шлюз архива, резолвер предпросмотра и матчер
// ассистента; маршруты навешиваются в пакете server.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	apierrors "github.com/virtualviewing/om-portal/internal/api/errors"
	"github.com/virtualviewing/om-portal/internal/archive"
	"github.com/virtualviewing/om-portal/internal/chat"
	"github.com/virtualviewing/om-portal/internal/preview"
	"github.com/virtualviewing/om-portal/internal/repository"
	"github.com/virtualviewing/om-portal/internal/store"
	"github.com/virtualviewing/om-portal/internal/ui/auth"
)

// APIHandler — основной обработчик API портала.
type APIHandler struct {
	store         *store.Store
	gateway       *archive.Client
	resolver      *preview.Resolver
	matcher       *chat.Matcher
	prefs         repository.UIPreferencesRepository
	sessions      *auth.SessionManager
	health        *HealthHandler
	allowedDomain string
	logger        *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	st *store.Store,
	gateway *archive.Client,
	resolver *preview.Resolver,
	matcher *chat.Matcher,
	prefs repository.UIPreferencesRepository,
	sessions *auth.SessionManager,
	health *HealthHandler,
	allowedDomain string,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		store:         st,
		gateway:       gateway,
		resolver:      resolver,
		matcher:       matcher,
		prefs:         prefs,
		sessions:      sessions,
		health:        health,
		allowedDomain: allowedDomain,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает JSON-тело запроса в out. Ошибка уже записана
// в ответ, вызывающему достаточно сделать return.
func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		apierrors.ValidationError(w, "некорректное JSON-тело запроса")
		return false
	}
	return true
}

// writeGatewayError конвертирует ошибку шлюза архива в ответ API.
// Сетевая или серверная ошибка бэкенда — 502: клиент должен показать
// пользователю подсказку подождать, пока сервер проснётся.
// Отменённый вызывающей стороной запрос недоступностью архива
// не считается: соединение уже закрыто, ответ писать некому.
func (h *APIHandler) writeGatewayError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, context.Canceled) {
		h.logger.Debug("запрос к архиву прерван вызывающей стороной",
			slog.String("operation", op))
		return
	}

	h.logger.Error("ошибка архивного бэкенда",
		slog.String("operation", op),
		slog.String("error", err.Error()))
	apierrors.ArchiveUnavailable(w, "архивный бэкенд недоступен, попробуйте позже")
}
