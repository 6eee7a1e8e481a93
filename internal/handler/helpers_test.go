package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/ecoshop/internal/middleware"
	"github.com/hitoshi/ecoshop/internal/model"
	"github.com/hitoshi/ecoshop/internal/order"
)

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func testProduct() *model.Product {
	return &model.Product{
		ID:                  "p-1",
		Name:                "Bamboo Brush",
		Description:         "Compostable handle",
		Price:               decimal.RequireFromString("3.5"),
		Image:               "/img/brush.png",
		EnvironmentalImpact: 1,
	}
}

// --- モック定義 ---

type mockCatalogService struct {
	listProductsFn func(ctx context.Context, sort string) ([]*model.Product, error)
	getProductFn   func(ctx context.Context, id string) (*model.Product, error)
}

func (m *mockCatalogService) ListProducts(ctx context.Context, sort string) ([]*model.Product, error) {
	if m.listProductsFn != nil {
		return m.listProductsFn(ctx, sort)
	}
	return []*model.Product{}, nil
}

func (m *mockCatalogService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if m.getProductFn != nil {
		return m.getProductFn(ctx, id)
	}
	return testProduct(), nil
}

type mockCartService struct {
	addItemFn    func(ctx context.Context, userID, productID string) (int, error)
	removeItemFn func(ctx context.Context, userID, cartItemID string) error
	clearCartFn  func(ctx context.Context, userID string) error
	viewCartFn   func(ctx context.Context, userID string) (*model.CartView, error)
	countItemsFn func(ctx context.Context, userID string) (int, error)
}

func (m *mockCartService) AddItem(ctx context.Context, userID, productID string) (int, error) {
	if m.addItemFn != nil {
		return m.addItemFn(ctx, userID, productID)
	}
	return 0, nil
}

func (m *mockCartService) RemoveItem(ctx context.Context, userID, cartItemID string) error {
	if m.removeItemFn != nil {
		return m.removeItemFn(ctx, userID, cartItemID)
	}
	return nil
}

func (m *mockCartService) ClearCart(ctx context.Context, userID string) error {
	if m.clearCartFn != nil {
		return m.clearCartFn(ctx, userID)
	}
	return nil
}

func (m *mockCartService) ViewCart(ctx context.Context, userID string) (*model.CartView, error) {
	if m.viewCartFn != nil {
		return m.viewCartFn(ctx, userID)
	}
	return model.NewCartView(nil), nil
}

func (m *mockCartService) CountItems(ctx context.Context, userID string) (int, error) {
	if m.countItemsFn != nil {
		return m.countItemsFn(ctx, userID)
	}
	return 0, nil
}

type mockOrderService struct {
	checkoutFn   func(ctx context.Context, userID string) (*order.CheckoutSummary, error)
	placeOrderFn func(ctx context.Context, userID, paymentType string) (*model.Order, error)
	listOrdersFn func(ctx context.Context, userID string) ([]*model.Order, error)
	getOrderFn   func(ctx context.Context, userID, orderID string) (*model.Order, error)
}

func (m *mockOrderService) Checkout(ctx context.Context, userID string) (*order.CheckoutSummary, error) {
	if m.checkoutFn != nil {
		return m.checkoutFn(ctx, userID)
	}
	return &order.CheckoutSummary{Cart: model.NewCartView(nil), PaymentTypes: model.PaymentTypes}, nil
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, userID, paymentType string) (*model.Order, error) {
	if m.placeOrderFn != nil {
		return m.placeOrderFn(ctx, userID, paymentType)
	}
	return nil, model.NewEmptyCartError()
}

func (m *mockOrderService) ListOrders(ctx context.Context, userID string) ([]*model.Order, error) {
	if m.listOrdersFn != nil {
		return m.listOrdersFn(ctx, userID)
	}
	return []*model.Order{}, nil
}

func (m *mockOrderService) GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, userID, orderID)
	}
	return nil, model.NewOrderNotFoundError(orderID)
}

type mockReviewService struct {
	addReviewFn   func(ctx context.Context, userID, productID, content string, rating int) (*model.Review, error)
	listReviewsFn func(ctx context.Context, productID string) ([]*model.Review, error)
}

func (m *mockReviewService) AddReview(ctx context.Context, userID, productID, content string, rating int) (*model.Review, error) {
	if m.addReviewFn != nil {
		return m.addReviewFn(ctx, userID, productID, content, rating)
	}
	return &model.Review{}, nil
}

func (m *mockReviewService) ListReviews(ctx context.Context, productID string) ([]*model.Review, error) {
	if m.listReviewsFn != nil {
		return m.listReviewsFn(ctx, productID)
	}
	return []*model.Review{}, nil
}

type mockAuthService struct {
	signUpFn         func(ctx context.Context, email, name, password string) (*model.Session, *model.User, error)
	loginFn          func(ctx context.Context, email, password string) (*model.Session, error)
	logoutFn         func(ctx context.Context, sessionID string) error
	getCurrentUserFn func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockAuthService) SignUp(ctx context.Context, email, name, password string) (*model.Session, *model.User, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, email, name, password)
	}
	return nil, nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if m.getCurrentUserFn != nil {
		return m.getCurrentUserFn(ctx, userID)
	}
	return nil, model.NewUserNotFoundError()
}
