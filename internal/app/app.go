// Package app はサブコマンドの解析と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/ecoshop/internal/auth"
	"github.com/hitoshi/ecoshop/internal/cache"
	"github.com/hitoshi/ecoshop/internal/cart"
	"github.com/hitoshi/ecoshop/internal/catalog"
	"github.com/hitoshi/ecoshop/internal/config"
	"github.com/hitoshi/ecoshop/internal/database"
	"github.com/hitoshi/ecoshop/internal/event"
	"github.com/hitoshi/ecoshop/internal/handler"
	"github.com/hitoshi/ecoshop/internal/logger"
	"github.com/hitoshi/ecoshop/internal/metrics"
	"github.com/hitoshi/ecoshop/internal/middleware"
	"github.com/hitoshi/ecoshop/internal/order"
	"github.com/hitoshi/ecoshop/internal/repository"
	"github.com/hitoshi/ecoshop/internal/review"
	"github.com/hitoshi/ecoshop/internal/security"
	"github.com/hitoshi/ecoshop/internal/worker/cleanup"
)

// catalogCachePrefix はRedis上のカタログキャッシュのキー接頭辞。
const catalogCachePrefix = "ecoshop"

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(cfg, commandArg(args, 0))
	case CommandCleanup:
		return runCleanup(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")
	return db, nil
}

// newCatalogCache はREDIS_URLが設定されていればRedisキャッシュを、なければNopを返す。
// 返却されるclose関数は常に呼び出してよい。
func newCatalogCache(cfg *config.Config) (cache.Cache, func(), error) {
	if !cfg.CacheEnabled() {
		slog.Info("catalog cache disabled")
		return cache.Nop{}, func() {}, nil
	}
	client, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("catalog cache enabled", slog.Duration("ttl", cfg.CatalogCacheTTL))
	return cache.NewRedisCache(client, catalogCachePrefix), func() { client.Close() }, nil
}

// newPublisher はKAFKA_BROKERSが設定されていればKafkaパブリッシャーを、なければNopを返す。
func newPublisher(cfg *config.Config) event.Publisher {
	if !cfg.EventsEnabled() {
		slog.Info("order events disabled")
		return event.Nop{}
	}
	slog.Info("order events enabled",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.String("topic", cfg.KafkaOrderTopic),
	)
	return event.NewKafkaPublisher(event.KafkaConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaOrderTopic,
	}, slog.Default())
}

// newMetrics はプロセス専用のPrometheusレジストリとCollectorを生成する。
func newMetrics() (*prometheus.Registry, *metrics.Collector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.NewCollector(reg)
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. インフラの初期化
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	catalogCache, closeCache, err := newCatalogCache(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up catalog cache: %w", err)
	}
	defer closeCache()

	publisher := newPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("failed to close event publisher", slog.String("error", err.Error()))
		}
	}()

	reg, mc := newMetrics()
	baseLogger := slog.Default()

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	productRepo := repository.NewPostgresProductRepo(db)
	cartRepo := repository.NewPostgresCartRepo(db)
	orderRepo := repository.NewPostgresOrderRepo(db)
	reviewRepo := repository.NewPostgresReviewRepo(db)

	// 3. ドメインサービスの初期化
	sanitizer := security.NewContentSanitizer()
	authService := auth.NewService(userRepo, sessionRepo, sanitizer, auth.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAge,
		BcryptCost:    cfg.BcryptCost,
	})
	catalogService := catalog.NewService(productRepo, catalogCache, cfg.CatalogCacheTTL, mc, baseLogger)
	cartService := cart.NewService(cartRepo, productRepo, mc, baseLogger)
	orderService := order.NewService(orderRepo, cartService, publisher, mc, baseLogger)
	reviewService := review.NewService(reviewRepo, productRepo, sanitizer, mc, baseLogger)

	// 4. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitCheckout),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:        baseLogger,
		Metrics:       mc,
		SessionFinder: sessionRepo,
		RateLimiter:   rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		SessionCookie: middleware.SessionCookieConfig{
			MaxAge: cfg.SessionMaxAge,
			Secure: cfg.CookieSecure,
			Domain: cfg.CookieDomain,
		},

		DB:             db,
		MetricsHandler: metrics.Handler(reg),

		AuthService:    authService,
		CatalogService: catalogService,
		CartService:    cartService,
		OrderService:   orderService,
		ReviewService:  reviewService,
	})

	// 5. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runSeed はJSONファイルから商品カタログを登録または更新する。
// キャッシュが有効な場合は取り込み後に一覧キャッシュを破棄する。
func runSeed(cfg *config.Config, path string) error {
	if path == "" {
		return errors.New("seed requires a JSON file path: ecoshop seed <file.json>")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	catalogCache, closeCache, err := newCatalogCache(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up catalog cache: %w", err)
	}
	defer closeCache()

	svc := catalog.NewService(repository.NewPostgresProductRepo(db), catalogCache, cfg.CatalogCacheTTL, nil, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := svc.Import(ctx, f)
	if err != nil {
		return fmt.Errorf("seed failed after %d products: %w", n, err)
	}

	slog.Info("catalog seed completed", slog.String("file", path), slog.Int("count", n))
	return nil
}

// runCleanup は期限切れセッションの削除を1回だけ実行する。
func runCleanup(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	job := cleanup.NewCleanupJob(repository.NewPostgresSessionRepo(db), slog.Default(), cfg.SessionRetentionDays)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	return job.Run(ctx)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
