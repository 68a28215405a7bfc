// portfolio.go — портфель объектов из зеркала.
package handlers

import (
	"net/http"

	"github.com/virtualviewing/om-portal/internal/domain/model"
)

// portfolioResponse — ответ GET /api/v1/portfolio.
type portfolioResponse struct {
	Stats  model.PortfolioStats   `json:"stats"`
	Assets []model.PortfolioAsset `json:"assets"`
}

// Portfolio возвращает портфель объектов со статистикой бэкенда.
// Как и список файлов, при пустом зеркале сначала пытается
// синхронизироваться.
func (h *APIHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	if !h.store.Loaded() {
		if err := h.store.Refresh(r.Context()); err != nil {
			h.writeGatewayError(w, "portfolio", err)
			return
		}
	}

	assets := h.store.Assets()
	if assets == nil {
		assets = []model.PortfolioAsset{}
	}

	writeJSON(w, http.StatusOK, portfolioResponse{
		Stats:  h.store.Stats(),
		Assets: assets,
	})
}
