// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordCartItemAdded()
	RecordOrderPlaced(value float64)
	RecordCheckoutFailure(reason string)
	RecordReviewCreated()
	RecordCacheLookup(hit bool)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	cartItemsAdded  prometheus.Counter
	ordersPlaced    prometheus.Counter
	orderValue      prometheus.Histogram
	checkoutFailure *prometheus.CounterVec
	reviewsCreated  prometheus.Counter
	cacheLookups    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoshop_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		cartItemsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecoshop_cart_items_added_total",
			Help: "カートに追加された商品の合計数",
		}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecoshop_orders_placed_total",
			Help: "確定した注文の合計数",
		}),
		orderValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecoshop_order_value",
			Help:    "注文1件あたりの合計金額",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		checkoutFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoshop_checkout_failures_total",
			Help: "理由別のチェックアウト失敗数",
		}, []string{"reason"}),
		reviewsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecoshop_reviews_created_total",
			Help: "投稿されたレビューの合計数",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoshop_catalog_cache_lookups_total",
			Help: "カタログキャッシュの参照結果別の回数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.cartItemsAdded,
		c.ordersPlaced,
		c.orderValue,
		c.checkoutFailure,
		c.reviewsCreated,
		c.cacheLookups,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordCartItemAdded はカートへの商品追加を記録する。
func (c *Collector) RecordCartItemAdded() {
	c.cartItemsAdded.Inc()
}

// RecordOrderPlaced は注文確定とその金額を記録する。
func (c *Collector) RecordOrderPlaced(value float64) {
	c.ordersPlaced.Inc()
	c.orderValue.Observe(value)
}

// RecordCheckoutFailure はチェックアウト失敗を理由付きで記録する。
func (c *Collector) RecordCheckoutFailure(reason string) {
	c.checkoutFailure.WithLabelValues(reason).Inc()
}

// RecordReviewCreated はレビュー投稿を記録する。
func (c *Collector) RecordReviewCreated() {
	c.reviewsCreated.Inc()
}

// RecordCacheLookup はカタログキャッシュのヒット/ミスを記録する。
func (c *Collector) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type Nop struct{}

func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordCartItemAdded() {}
func (Nop) RecordOrderPlaced(float64) {}
func (Nop) RecordCheckoutFailure(string) {}
func (Nop) RecordReviewCreated() {}
func (Nop) RecordCacheLookup(bool) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
