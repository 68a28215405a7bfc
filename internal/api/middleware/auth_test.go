package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/virtualviewing/om-portal/internal/ui/auth"
)

func newTestAuth(t *testing.T) (*SessionAuth, *auth.SessionManager) {
	t.Helper()
	sm, err := auth.NewSessionManager("test-secret", false)
	if err != nil {
		t.Fatalf("NewSessionManager() вернул ошибку: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSessionAuth(sm, logger), sm
}

// okHandler отвечает 200 и проверяет наличие сессии в контексте.
func okHandler(t *testing.T, wantEmail string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		if !ok {
			t.Error("сессия должна лежать в контексте запроса")
		} else if session.Email != wantEmail {
			t.Errorf("Email = %q, ожидается %q", session.Email, wantEmail)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionAuth_ValidSession(t *testing.T) {
	a, sm := newTestAuth(t)

	rec := httptest.NewRecorder()
	if err := sm.SetSessionCookie(rec, auth.NewSessionData("user@virtualviewing.com")); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	req.AddCookie(rec.Result().Cookies()[0])

	resp := httptest.NewRecorder()
	a.Middleware()(okHandler(t, "user@virtualviewing.com")).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("статус = %d, ожидается 200", resp.Code)
	}
}

func TestSessionAuth_NoCookie(t *testing.T) {
	a, _ := newTestAuth(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	resp := httptest.NewRecorder()

	a.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("обработчик не должен вызываться без сессии")
	})).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("статус = %d, ожидается 401", resp.Code)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("декодирование конверта ошибки: %v", err)
	}
	if body.Error.Code != "UNAUTHORIZED" {
		t.Errorf("код ошибки = %q, ожидается UNAUTHORIZED", body.Error.Code)
	}
}

func TestSessionAuth_CorruptedCookie(t *testing.T) {
	a, _ := newTestAuth(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "мусор"})

	resp := httptest.NewRecorder()
	a.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("обработчик не должен вызываться с повреждённой сессией")
	})).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидается 401", resp.Code)
	}
}

func TestSessionAuth_InactiveSession(t *testing.T) {
	a, sm := newTestAuth(t)

	// Сессия с чужим состоянием вместо "active"
	encrypted, err := sm.Encrypt(&auth.SessionData{Email: "user@virtualviewing.com", State: "revoked"})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: encrypted})

	resp := httptest.NewRecorder()
	a.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("обработчик не должен вызываться с неактивной сессией")
	})).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидается 401", resp.Code)
	}
}
