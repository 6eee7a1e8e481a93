package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/ecoshop/internal/model"
)

func newTestReviewHandler(reviews *mockReviewService) *ReviewHandler {
	carts := &mockCartService{
		countItemsFn: func(ctx context.Context, userID string) (int, error) {
			return 2, nil
		},
	}
	return NewReviewHandler(reviews, &mockCatalogService{}, carts)
}

func reviewRequest(method, body, contentType string) *http.Request {
	req := httptest.NewRequest(method, "/products/p-1/reviews", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return withChiURLParam(withUserID(req, "user-1"), "id", "p-1")
}

func TestReviewHandler_ListReviews_ReturnsPage(t *testing.T) {
	reviews := &mockReviewService{
		listReviewsFn: func(ctx context.Context, productID string) ([]*model.Review, error) {
			return []*model.Review{
				{ID: "r-1", UserName: "Aoi", Content: "<p>Great</p>", Rating: 5, CreatedAt: time.Now()},
			}, nil
		},
	}
	h := newTestReviewHandler(reviews)

	w := httptest.NewRecorder()
	h.ListReviews(w, reviewRequest(http.MethodGet, "", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp reviewPageResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Product.ID != "p-1" {
		t.Errorf("product.id = %q, want %q", resp.Product.ID, "p-1")
	}
	if len(resp.Reviews) != 1 || resp.Reviews[0].UserName != "Aoi" {
		t.Errorf("reviews = %+v", resp.Reviews)
	}
	if resp.CartCount != 2 {
		t.Errorf("cartCount = %d, want 2", resp.CartCount)
	}
	if resp.Notice != "" {
		t.Errorf("notice = %q, want empty", resp.Notice)
	}
}

func TestReviewHandler_ListReviews_UnknownProductReturns404(t *testing.T) {
	catalog := &mockCatalogService{
		getProductFn: func(ctx context.Context, id string) (*model.Product, error) {
			return nil, model.NewProductNotFoundError(id)
		},
	}
	h := NewReviewHandler(&mockReviewService{}, catalog, &mockCartService{})

	w := httptest.NewRecorder()
	h.ListReviews(w, reviewRequest(http.MethodGet, "", ""))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestReviewHandler_AddReview_RedirectsWith303(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
	}{
		{"json", `{"content":"Lovely","rating":4}`, "application/json"},
		{"json string rating", `{"content":"Lovely","rating":"4"}`, "application/json; charset=utf-8"},
		{"form", url.Values{"content": {"Lovely"}, "rating": {"4"}}.Encode(), "application/x-www-form-urlencoded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotContent string
			var gotRating int
			reviews := &mockReviewService{
				addReviewFn: func(ctx context.Context, userID, productID, content string, rating int) (*model.Review, error) {
					gotContent, gotRating = content, rating
					return &model.Review{ID: "r-1"}, nil
				},
			}
			h := newTestReviewHandler(reviews)

			w := httptest.NewRecorder()
			h.AddReview(w, reviewRequest(http.MethodPost, tt.body, tt.contentType))

			if w.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
			}
			if loc := w.Header().Get("Location"); loc != "/products/p-1/reviews" {
				t.Errorf("Location = %q, want %q", loc, "/products/p-1/reviews")
			}
			if gotContent != "Lovely" || gotRating != 4 {
				t.Errorf("AddReview(content=%q, rating=%d), want (Lovely, 4)", gotContent, gotRating)
			}
		})
	}
}

func TestReviewHandler_AddReview_InvalidInputReturnsPageWithNotice(t *testing.T) {
	gotRating := -1
	reviews := &mockReviewService{
		addReviewFn: func(ctx context.Context, userID, productID, content string, rating int) (*model.Review, error) {
			gotRating = rating
			return nil, model.NewInvalidRatingError(rating)
		},
	}
	h := newTestReviewHandler(reviews)

	body := url.Values{"content": {"ok"}, "rating": {"five"}}.Encode()
	w := httptest.NewRecorder()
	h.AddReview(w, reviewRequest(http.MethodPost, body, "application/x-www-form-urlencoded"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if gotRating != 0 {
		t.Errorf("rating = %d, want 0 for non-numeric input", gotRating)
	}
	var resp reviewPageResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Notice == "" {
		t.Error("notice should describe the validation failure")
	}
	if resp.Product.ID != "p-1" {
		t.Errorf("product.id = %q, want %q", resp.Product.ID, "p-1")
	}
}

func TestReviewHandler_AddReview_UnknownProductReturns404(t *testing.T) {
	reviews := &mockReviewService{
		addReviewFn: func(ctx context.Context, userID, productID, content string, rating int) (*model.Review, error) {
			return nil, model.NewProductNotFoundError(productID)
		},
	}
	h := newTestReviewHandler(reviews)

	w := httptest.NewRecorder()
	h.AddReview(w, reviewRequest(http.MethodPost, `{"content":"x","rating":3}`, "application/json"))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
