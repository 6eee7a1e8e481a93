package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ecoshop/internal/model"
	"github.com/hitoshi/ecoshop/internal/order"
)

// OrderServiceInterface は注文ハンドラーが必要とするサービスインターフェース。
type OrderServiceInterface interface {
	Checkout(ctx context.Context, userID string) (*order.CheckoutSummary, error)
	PlaceOrder(ctx context.Context, userID, paymentType string) (*model.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*model.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error)
}

// OrderHandler はチェックアウトと注文履歴のHTTPハンドラー。
type OrderHandler struct {
	service OrderServiceInterface
}

// NewOrderHandler はOrderHandlerを生成する。
func NewOrderHandler(service OrderServiceInterface) *OrderHandler {
	return &OrderHandler{service: service}
}

// placeOrderRequest は注文確定リクエストのボディ。
type placeOrderRequest struct {
	PaymentType string `json:"paymentType"`
}

// checkoutResponse はチェックアウト画面のAPIレスポンス。
type checkoutResponse struct {
	Items        []cartLineResponse `json:"items"`
	Total        string             `json:"total"`
	PaymentTypes []string           `json:"paymentTypes"`
}

// Checkout はカート内容と選択可能な支払い方法を返す。
// GET /checkout
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Checkout(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	cart := toCartResponse(summary.Cart)
	paymentTypes := make([]string, len(summary.PaymentTypes))
	for i, p := range summary.PaymentTypes {
		paymentTypes[i] = string(p)
	}
	writeJSON(w, http.StatusOK, checkoutResponse{
		Items:        cart.Items,
		Total:        cart.Total,
		PaymentTypes: paymentTypes,
	})
}

// PlaceOrder はカート内容から注文を確定する。
// POST /checkout
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req placeOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.service.PlaceOrder(r.Context(), userID, req.PaymentType)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// ListOrders はユーザーの注文履歴を新しい順に返す。
// GET /orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListOrders(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOrder は注文を1件返す。
// GET /orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	o, err := h.service.GetOrder(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}
