// assets.go — операции над объектами портфеля и их документами.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/virtualviewing/om-portal/internal/api/errors"
	"github.com/virtualviewing/om-portal/internal/store"
)

// Лимит размера загружаемого документа (50 MB).
const maxUploadBytes = 50 << 20

// assetRequest — тело создания и обновления объекта.
type assetRequest struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// archiveRequest — тело POST /api/v1/assets/{id}/archive.
type archiveRequest struct {
	Archived bool `json:"archived"`
}

// CreateAsset создаёт объект портфеля (optimistic, см. пакет store).
func (h *APIHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		apierrors.ValidationError(w, "имя объекта не может быть пустым")
		return
	}

	asset, err := h.store.CreateAsset(r.Context(), req.Name, req.Image)
	if err != nil {
		h.writeGatewayError(w, "create_asset", err)
		return
	}

	writeJSON(w, http.StatusCreated, asset)
}

// UpdateAsset переименовывает объект и меняет обложку.
func (h *APIHandler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req assetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		apierrors.ValidationError(w, "имя объекта не может быть пустым")
		return
	}

	asset, err := h.store.UpdateAsset(r.Context(), id, req.Name, req.Image)
	if err != nil {
		if errors.Is(err, store.ErrAssetNotFound) {
			apierrors.NotFound(w, "объект не найден")
			return
		}
		h.writeGatewayError(w, "update_asset", err)
		return
	}

	writeJSON(w, http.StatusOK, asset)
}

// DeleteAsset удаляет объект вместе с папкой документов.
func (h *APIHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteAsset(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrAssetNotFound) {
			apierrors.NotFound(w, "объект не найден")
			return
		}
		h.writeGatewayError(w, "delete_asset", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// ToggleFavorite переключает флаг избранного объекта.
// Флаг живёт только в зеркале и сбрасывается при каждой синхронизации.
func (h *APIHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	isFavorite, err := h.store.ToggleFavorite(id)
	if err != nil {
		apierrors.NotFound(w, "объект не найден")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "isFavorite": isFavorite})
}

// SetArchiveStatus переводит объект в архив или возвращает из него.
func (h *APIHandler) SetArchiveStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req archiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	asset, err := h.store.SetArchiveStatus(id, req.Archived)
	if err != nil {
		apierrors.NotFound(w, "объект не найден")
		return
	}

	writeJSON(w, http.StatusOK, asset)
}

// AssetDocs возвращает документы папки объекта (с обновлением кэша).
func (h *APIHandler) AssetDocs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	docs, err := h.store.AssetDocs(r.Context(), id)
	if err != nil {
		h.writeGatewayError(w, "asset_docs", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"docs": docs, "total": len(docs)})
}

// DeleteAssetDoc удаляет один документ из папки объекта.
func (h *APIHandler) DeleteAssetDoc(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := chi.URLParam(r, "name")

	if err := h.store.DeleteAssetDoc(r.Context(), id, name); err != nil {
		h.writeGatewayError(w, "delete_asset_doc", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// UploadDocument принимает multipart-файл и отправляет его
// на классификацию. Ответ — финальный документ с серверными
// метаданными; плейсхолдерная механика скрыта в зеркале.
func (h *APIHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		apierrors.ValidationError(w, "некорректная multipart форма")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "в форме отсутствует поле file")
		return
	}
	defer file.Close()

	doc, err := h.store.UploadDocument(r.Context(), id, header.Filename, file)
	if err != nil {
		h.writeGatewayError(w, "upload_document", err)
		return
	}

	h.logger.Info("документ принят",
		slog.String("asset", id),
		slog.String("filename", header.Filename))

	writeJSON(w, http.StatusCreated, doc)
}
