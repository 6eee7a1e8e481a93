package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ecoshop/internal/model"
)

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	AddReview(ctx context.Context, userID, productID, content string, rating int) (*model.Review, error)
	ListReviews(ctx context.Context, productID string) ([]*model.Review, error)
}

// CartCounter はカート内数量の取得インターフェース。
type CartCounter interface {
	CountItems(ctx context.Context, userID string) (int, error)
}

// ReviewHandler は商品レビューページのHTTPハンドラー。
// ページは商品、レビュー一覧、カート内数量で構成される。
type ReviewHandler struct {
	reviews ReviewServiceInterface
	catalog CatalogServiceInterface
	carts   CartCounter
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(reviews ReviewServiceInterface, catalog CatalogServiceInterface, carts CartCounter) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, catalog: catalog, carts: carts}
}

// reviewPageResponse はレビューページのAPIレスポンス。
type reviewPageResponse struct {
	Product   productResponse  `json:"product"`
	Reviews   []reviewResponse `json:"reviews"`
	CartCount int              `json:"cartCount"`
	Notice    string           `json:"notice,omitempty"`
}

// addReviewRequest はレビュー投稿リクエストのボディ。
// ratingはフォーム送信に合わせて文字列と数値の両方を受け付ける。
type addReviewRequest struct {
	Content string      `json:"content"`
	Rating  json.Number `json:"rating"`
}

// ListReviews はレビューページを返す。
// GET /products/{id}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	page, err := h.page(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// AddReview はレビューを投稿し、レビューページへ303でリダイレクトする。
// 入力が不正な場合は400とともにページ内容と通知メッセージを返す。
// POST /products/{id}/reviews
func (h *ReviewHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "id")

	content, rating, ok := parseReviewForm(w, r)
	if !ok {
		return
	}

	_, err := h.reviews.AddReview(r.Context(), userID, productID, content, rating)
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Kind == model.KindInvalidInput {
		page, pageErr := h.page(r.Context(), userID, productID)
		if pageErr != nil {
			handleServiceError(w, pageErr)
			return
		}
		page.Notice = apiErr.Message
		writeJSON(w, http.StatusBadRequest, page)
		return
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
}

// page はレビューページの内容を組み立てる。
func (h *ReviewHandler) page(ctx context.Context, userID, productID string) (*reviewPageResponse, error) {
	p, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	reviews, err := h.reviews.ListReviews(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	count, err := h.carts.CountItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &reviewPageResponse{
		Product:   toProductResponse(p),
		Reviews:   make([]reviewResponse, len(reviews)),
		CartCount: count,
	}
	for i, rv := range reviews {
		resp.Reviews[i] = toReviewResponse(rv)
	}
	return resp, nil
}

// parseReviewForm はJSONまたはフォーム形式のボディから本文と評価を読み取る。
// 評価が数値でない場合は0を返し、サービス層で範囲外として扱う。
func parseReviewForm(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req addReviewRequest
		if !decodeJSON(w, r, &req) {
			return "", 0, false
		}
		rating, _ := strconv.Atoi(req.Rating.String())
		return req.Content, rating, true
	}

	if err := r.ParseForm(); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return "", 0, false
	}
	rating, _ := strconv.Atoi(r.PostForm.Get("rating"))
	return r.PostForm.Get("content"), rating, true
}
