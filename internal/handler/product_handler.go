package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ecoshop/internal/model"
)

// CatalogServiceInterface は商品ハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	// ListProducts はsortで指定された項目の昇順で商品一覧を返す。
	ListProducts(ctx context.Context, sort string) ([]*model.Product, error)
	// GetProduct は商品詳細を返す。
	GetProduct(ctx context.Context, id string) (*model.Product, error)
}

// ProductHandler は商品カタログのHTTPハンドラー。
type ProductHandler struct {
	service CatalogServiceInterface
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service CatalogServiceInterface) *ProductHandler {
	return &ProductHandler{service: service}
}

// ListProducts は商品一覧を返す。
// GET /products?sort=name|price|environmental_impact
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context(), r.URL.Query().Get("sort"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProduct は商品詳細を返す。
// GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}
