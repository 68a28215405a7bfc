// auth.go — вход, выход и сведения о текущем пользователе.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apierrors "github.com/virtualviewing/om-portal/internal/api/errors"
	"github.com/virtualviewing/om-portal/internal/api/middleware"
	"github.com/virtualviewing/om-portal/internal/ui/auth"
)

// loginRequest — тело POST /api/v1/auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse — успешный ответ входа.
type loginResponse struct {
	Status string `json:"status"`
	Email  string `json:"email"`
}

// Login обрабатывает вход пользователя.
// Почта вне рабочего домена отклоняется локально, без обращения
// к бэкенду — бэкенд подтверждает только учётные данные своего домена.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		apierrors.ValidationError(w, "укажите почту и пароль")
		return
	}

	if !strings.HasSuffix(email, "@"+h.allowedDomain) {
		h.logger.Warn("попытка входа с почтой вне рабочего домена",
			slog.String("email", email))
		apierrors.AccessDenied(w, "Access Denied")
		return
	}

	ok, err := h.gateway.Login(r.Context(), email, req.Password)
	if err != nil {
		h.writeGatewayError(w, "login", err)
		return
	}
	if !ok {
		apierrors.AccessDenied(w, "Access Denied")
		return
	}

	if err := h.sessions.SetSessionCookie(w, auth.NewSessionData(email)); err != nil {
		h.logger.Error("не удалось установить сессионный cookie",
			slog.String("error", err.Error()))
		apierrors.InternalError(w, "не удалось создать сессию")
		return
	}

	h.logger.Info("пользователь вошёл", slog.String("email", email))

	// Вход — триггер загрузки зеркала, если оно ещё пустое
	if !h.store.Loaded() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := h.store.Refresh(ctx); err != nil {
				h.logger.Warn("загрузка зеркала после входа не удалась",
					slog.String("error", err.Error()))
			}
		}()
	}

	writeJSON(w, http.StatusOK, loginResponse{Status: "success", Email: email})
}

// Logout завершает сессию пользователя.
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Me возвращает сведения о текущем пользователе сессии.
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		apierrors.Unauthorized(w, "требуется вход")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"email":     session.Email,
		"state":     session.State,
		"issued_at": session.IssuedAt,
	})
}
