// files.go — список документов архива и производная статистика.
package handlers

import (
	"net/http"

	"github.com/virtualviewing/om-portal/internal/domain/model"
)

// filesResponse — ответ GET /api/v1/files.
type filesResponse struct {
	Files []model.FileRecord `json:"files"`
	Total int                `json:"total"`
}

// ListFiles возвращает список документов из зеркала.
// Параметр q фильтрует по имени, категории, зданию и объекту.
// Если зеркало ещё не загружено, выполняется синхронная попытка
// синхронизации — первый вошедший не должен видеть пустую таблицу.
func (h *APIHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	if !h.store.Loaded() {
		if err := h.store.Refresh(r.Context()); err != nil {
			h.writeGatewayError(w, "list_files", err)
			return
		}
	}

	query := r.URL.Query().Get("q")
	if query != "" {
		h.store.SetSearch(query)
	}

	files := h.store.FilteredFiles(query)
	if files == nil {
		files = []model.FileRecord{}
	}

	writeJSON(w, http.StatusOK, filesResponse{Files: files, Total: len(files)})
}

// Stats возвращает производную статистику по зеркалу:
// документы, уникальные здания и категории, объекты.
func (h *APIHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.DerivedStats())
}
