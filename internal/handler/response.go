// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/ecoshop/internal/middleware"
	"github.com/hitoshi/ecoshop/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーをエラー種別に応じたHTTPステータスに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// requireUserID はリクエストコンテキストからユーザーIDを取得する。
// 取得できない場合は401を書き込みfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthenticated(w)
		return "", false
	}
	return userID, true
}

// invalidRequestError はリクエストボディの解析失敗エラーを生成する。
func invalidRequestError() *model.APIError {
	return &model.APIError{
		Kind:     model.KindInvalidInput,
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// decodeJSON はリクエストボディをJSONとして読み込む。
// 失敗した場合は400を書き込みfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return false
	}
	return true
}

// --- レスポンス型 ---

// productResponse は商品情報のAPIレスポンス。
type productResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Impact      int    `json:"impact"`
}

func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       model.FormatMoney(p.Price),
		Description: p.Description,
		Image:       p.Image,
		Impact:      p.EnvironmentalImpact,
	}
}

// cartLineResponse はカート明細のAPIレスポンス。
type cartLineResponse struct {
	CartItemID string `json:"cartItemId"`
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Quantity   int    `json:"quantity"`
	Subtotal   string `json:"subtotal"`
	Image      string `json:"image"`
}

// cartResponse はカート全体のAPIレスポンス。
type cartResponse struct {
	Items []cartLineResponse `json:"items"`
	Total string             `json:"total"`
}

func toCartResponse(view *model.CartView) cartResponse {
	items := make([]cartLineResponse, len(view.Lines))
	for i, l := range view.Lines {
		items[i] = cartLineResponse{
			CartItemID: l.CartItemID,
			ProductID:  l.Product.ID,
			Name:       l.Product.Name,
			Price:      model.FormatMoney(l.Product.Price),
			Quantity:   l.Quantity,
			Subtotal:   model.FormatMoney(l.Subtotal()),
			Image:      l.Product.Image,
		}
	}
	return cartResponse{Items: items, Total: model.FormatMoney(view.Total)}
}

// orderItemResponse は注文明細のAPIレスポンス。
type orderItemResponse struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Subtotal  string `json:"subtotal"`
}

// orderResponse は注文のAPIレスポンス。
type orderResponse struct {
	ID          string              `json:"id"`
	PaymentType string              `json:"paymentType"`
	CreatedAt   time.Time           `json:"createdAt"`
	Items       []orderItemResponse `json:"items"`
	Total       string              `json:"total"`
}

func toOrderResponse(o *model.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: model.FormatMoney(it.UnitPrice),
			Subtotal:  model.FormatMoney(it.Subtotal()),
		}
	}
	return orderResponse{
		ID:          o.ID,
		PaymentType: string(o.PaymentType),
		CreatedAt:   o.CreatedAt,
		Items:       items,
		Total:       model.FormatMoney(o.Total()),
	}
}

// reviewResponse はレビューのAPIレスポンス。
type reviewResponse struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

func toReviewResponse(rv *model.Review) reviewResponse {
	return reviewResponse{
		ID:        rv.ID,
		UserName:  rv.UserName,
		Content:   rv.Content,
		Rating:    rv.Rating,
		CreatedAt: rv.CreatedAt,
	}
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}
