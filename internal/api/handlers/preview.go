// preview.go — нормализация запросов предпросмотра и управление
// выбранным документом.
package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/virtualviewing/om-portal/internal/api/errors"
	"github.com/virtualviewing/om-portal/internal/preview"
)

// ResolvePreview принимает ссылку на документ в любой форме
// (строка таблицы, документ объекта, голый идентификатор),
// нормализует её и делает результат выбранным документом.
func (h *APIHandler) ResolvePreview(w http.ResponseWriter, r *http.Request) {
	var req preview.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	doc, err := h.resolver.Resolve(req)
	if err != nil {
		if errors.Is(err, preview.ErrNoDocumentID) {
			apierrors.ValidationError(w, "в запросе предпросмотра отсутствует идентификатор документа")
			return
		}
		apierrors.InternalError(w, "не удалось построить превью-дескриптор")
		return
	}

	h.store.Select(doc)
	writeJSON(w, http.StatusOK, doc)
}

// SelectedPreview возвращает активный превью-дескриптор.
// Отсутствие выбранного документа — 404: превью закрыто.
func (h *APIHandler) SelectedPreview(w http.ResponseWriter, r *http.Request) {
	doc := h.store.Selected()
	if doc == nil {
		apierrors.NotFound(w, "предпросмотр не открыт")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ClosePreview закрывает предпросмотр, снимая выбор документа.
func (h *APIHandler) ClosePreview(w http.ResponseWriter, r *http.Request) {
	h.store.ClearSelected()
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
