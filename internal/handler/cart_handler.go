package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ecoshop/internal/model"
)

// CartServiceInterface はカートハンドラーが必要とするサービスインターフェース。
type CartServiceInterface interface {
	AddItem(ctx context.Context, userID, productID string) (int, error)
	RemoveItem(ctx context.Context, userID, cartItemID string) error
	ClearCart(ctx context.Context, userID string) error
	ViewCart(ctx context.Context, userID string) (*model.CartView, error)
	CountItems(ctx context.Context, userID string) (int, error)
}

// CartHandler はカート操作のHTTPハンドラー。
type CartHandler struct {
	service CartServiceInterface
}

// NewCartHandler はCartHandlerを生成する。
func NewCartHandler(service CartServiceInterface) *CartHandler {
	return &CartHandler{service: service}
}

// addItemRequest はカート追加リクエストのボディ。
type addItemRequest struct {
	ProductID string `json:"productId"`
}

// cartCountResponse はカート内数量のAPIレスポンス。
type cartCountResponse struct {
	CartCount int `json:"cartCount"`
}

// AddItem は商品をカートに1つ追加する。
// POST /cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Kind:     model.KindInvalidInput,
			Code:     "PRODUCT_ID_REQUIRED",
			Message:  "productIdが指定されていません。",
			Category: "validation",
			Action:   "追加する商品のIDを指定してください。",
		})
		return
	}

	count, err := h.service.AddItem(r.Context(), userID, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartCountResponse{CartCount: count})
}

// ViewCart はカート明細と合計金額を返す。
// GET /cart
func (h *CartHandler) ViewCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	view, err := h.service.ViewCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(view))
}

// CountItems はカート内の数量合計を返す。
// GET /cart/count
func (h *CartHandler) CountItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	count, err := h.service.CountItems(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartCountResponse{CartCount: count})
}

// RemoveItem はカート明細を削除する。
// DELETE /cart/items/{cartItemId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	cartItemID := chi.URLParam(r, "cartItemId")
	if err := h.service.RemoveItem(r.Context(), userID, cartItemID); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"cartItemId": cartItemID,
	})
}

// ClearCart はカートを空にする。
// POST /cart/clear
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearCart(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
