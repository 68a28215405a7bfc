// auth.go — middleware проверки сессии портала.
// Сессия приходит в зашифрованном cookie; запросы без действующей
// сессии получают 401 в стандартном конверте ошибок.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	apierrors "github.com/virtualviewing/om-portal/internal/api/errors"
	"github.com/virtualviewing/om-portal/internal/ui/auth"
)

// sessionContextKey — ключ контекста для данных сессии.
type sessionContextKey struct{}

// SessionFromContext возвращает данные сессии текущего запроса.
// Второе значение — false, если запрос прошёл вне SessionAuth.
func SessionFromContext(ctx context.Context) (*auth.SessionData, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(*auth.SessionData)
	return s, ok
}

// SessionAuth — middleware аутентификации по сессионному cookie.
type SessionAuth struct {
	sessions *auth.SessionManager
	logger   *slog.Logger
}

// NewSessionAuth создаёт middleware аутентификации.
func NewSessionAuth(sessions *auth.SessionManager, logger *slog.Logger) *SessionAuth {
	return &SessionAuth{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "session_auth")),
	}
}

// Middleware проверяет сессию запроса и кладёт её данные в контекст.
// Отсутствующая, повреждённая или неактивная сессия — 401.
func (a *SessionAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := a.sessions.GetSessionFromRequest(r)
			if err != nil {
				a.logger.Warn("повреждённый сессионный cookie",
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("error", err.Error()))
				apierrors.Unauthorized(w, "сессия недействительна, выполните вход заново")
				return
			}
			if !session.Active() {
				apierrors.Unauthorized(w, "требуется вход")
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
