package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/ecoshop/internal/metrics"
	"github.com/hitoshi/ecoshop/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger        *slog.Logger
	Metrics       metrics.MetricsCollector
	SessionFinder middleware.SessionFinder
	RateLimiter   *middleware.RateLimiter
	CSRFConfig    middleware.CSRFConfig
	SessionCookie middleware.SessionCookieConfig

	// 運用エンドポイント
	DB             Pinger
	MetricsHandler http.Handler

	// サービス
	AuthService    AuthServiceInterface
	CatalogService CatalogServiceInterface
	CartService    CartServiceInterface
	OrderService   OrderServiceInterface
	ReviewService  ReviewServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → SecurityHeaders → Logging → Metrics → CSRF
//	  → (認証ルートのみ) Session → RateLimit(General) → (POST /checkout のみ) RateLimit(Checkout)
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mc := deps.Metrics
	if mc == nil {
		mc = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(mc))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	authHandler := NewAuthHandler(deps.AuthService, deps.SessionCookie)
	productHandler := NewProductHandler(deps.CatalogService)
	cartHandler := NewCartHandler(deps.CartService)
	orderHandler := NewOrderHandler(deps.OrderService)
	reviewHandler := NewReviewHandler(deps.ReviewService, deps.CatalogService, deps.CartService)

	// --- 認証不要のルート ---

	r.Method(http.MethodGet, "/health", NewHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	sessionMiddleware := middleware.NewSessionMiddleware(deps.SessionFinder)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/sign-up", authHandler.SignUp)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(sessionMiddleware).Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(sessionMiddleware)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", productHandler.GetProduct)
				r.Get("/reviews", reviewHandler.ListReviews)
				r.Post("/reviews", reviewHandler.AddReview)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.ViewCart)
			r.Get("/count", cartHandler.CountItems)
			r.Post("/items", cartHandler.AddItem)
			r.Delete("/items/{cartItemId}", cartHandler.RemoveItem)
			r.Post("/clear", cartHandler.ClearCart)
		})

		r.Get("/checkout", orderHandler.Checkout)
		r.With(deps.RateLimiter.CheckoutMiddleware()).Post("/checkout", orderHandler.PlaceOrder)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.ListOrders)
			r.Get("/{id}", orderHandler.GetOrder)
		})
	})

	return r
}
