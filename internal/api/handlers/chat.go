// chat.go — вопрос-ответ ассистента и открытие документа из карточки.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	apierrors "github.com/virtualviewing/om-portal/internal/api/errors"
	"github.com/virtualviewing/om-portal/internal/chat"
	"github.com/virtualviewing/om-portal/internal/preview"
)

// askRequest — тело POST /api/v1/ask.
type askRequest struct {
	Query string `json:"query"`
}

// askResponse — разобранный ответ ассистента: исходный текст
// плюс структурированные карточки для рендеринга.
type askResponse struct {
	Answer  string       `json:"answer"`
	Entries []chat.Entry `json:"entries"`
}

// openRequest — тело POST /api/v1/chat/open.
type openRequest struct {
	Title string `json:"title"`
}

// Ask передаёт вопрос ассистенту и возвращает разобранный ответ.
func (h *APIHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		apierrors.ValidationError(w, "вопрос не может быть пустым")
		return
	}

	resp, err := h.gateway.Ask(r.Context(), req.Query)
	if err != nil {
		h.writeGatewayError(w, "ask", err)
		return
	}

	text := resp.Text()
	entries := chat.ParseAnswer(text)
	if entries == nil {
		entries = []chat.Entry{}
	}

	writeJSON(w, http.StatusOK, askResponse{Answer: text, Entries: entries})
}

// OpenFromChat открывает документ по названию из карточки ассистента:
// название сопоставляется со свежим списком файлов, найденная запись
// нормализуется в превью-дескриптор и становится выбранным документом.
// Отсутствие совпадения — 404, превью не открывается.
func (h *APIHandler) OpenFromChat(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	match, err := h.matcher.MatchTitle(r.Context(), req.Title)
	if err != nil {
		if errors.Is(err, chat.ErrNoMatch) {
			apierrors.NotFound(w, "документ по названию не найден")
			return
		}
		h.writeGatewayError(w, "chat_open", err)
		return
	}

	doc, err := h.resolver.Resolve(preview.Request{
		DocumentID: match.DocumentID,
		Filename:   match.Filename,
		System:     match.System,
		DocType:    match.DocumentType,
		Size:       match.Size,
		User:       match.User,
		Date:       match.Date,
		AssetHint:  match.AssetHint,
		Building:   match.Building,
	})
	if err != nil {
		apierrors.NotFound(w, "у найденного документа нет идентификатора")
		return
	}

	h.store.Select(doc)
	writeJSON(w, http.StatusOK, doc)
}
