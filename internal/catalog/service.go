// Package catalog は商品カタログの参照と取り込みを提供する。
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/ecoshop/internal/cache"
	"github.com/hitoshi/ecoshop/internal/metrics"
	"github.com/hitoshi/ecoshop/internal/model"
	"github.com/hitoshi/ecoshop/internal/repository"
)

// Service はカタログ参照のサービス層。
// 商品一覧と商品詳細をキャッシュ経由で読み出す。
// キャッシュ障害時はDBから直接読み出し、リクエストは失敗させない。
type Service struct {
	products repository.ProductRepository
	cache    cache.Cache
	ttl      time.Duration
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	products repository.ProductRepository,
	c cache.Cache,
	ttl time.Duration,
	mc metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{products: products, cache: c, ttl: ttl, metrics: mc, logger: logger}
}

func listKey(sort model.SortField) string { return "products:list:" + string(sort) }
func productKey(id string) string { return "products:" + id }

// ListProducts は商品一覧を返す。
// sortは name、price、environmental_impact のいずれか。空文字は name として扱う。
func (s *Service) ListProducts(ctx context.Context, sort string) ([]*model.Product, error) {
	field, err := model.ParseSortField(sort)
	if err != nil {
		return nil, err
	}

	var products []*model.Product
	if s.readCache(ctx, listKey(field), &products) {
		return products, nil
	}

	products, err = s.products.List(ctx, field)
	if err != nil {
		return nil, fmt.Errorf("商品一覧の取得に失敗しました: %w", err)
	}
	s.writeCache(ctx, listKey(field), products)
	return products, nil
}

// GetProduct は商品詳細を返す。存在しない場合はNotFoundエラーを返す。
func (s *Service) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var cached model.Product
	if s.readCache(ctx, productKey(id), &cached) {
		return &cached, nil
	}

	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProductNotFoundError(id)
	}
	s.writeCache(ctx, productKey(id), p)
	return p, nil
}

// ImportItem は取り込み用JSONの1商品分を表す。
type ImportItem struct {
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Price               decimal.Decimal `json:"price"`
	Image               string          `json:"image"`
	EnvironmentalImpact int             `json:"environmental_impact"`
}

// Import はJSON配列形式の商品一覧を読み込み、商品名をキーに登録または更新する。
// 取り込み後は一覧キャッシュと該当商品のキャッシュを破棄する。
func (s *Service) Import(ctx context.Context, r io.Reader) (int, error) {
	var items []ImportItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return 0, fmt.Errorf("商品データの解析に失敗しました: %w", err)
	}

	keys := []string{
		listKey(model.SortByName),
		listKey(model.SortByPrice),
		listKey(model.SortByEnvironmentalImpact),
	}
	for i, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return i, fmt.Errorf("%d件目の商品名が空です", i+1)
		}
		if it.Price.IsNegative() {
			return i, fmt.Errorf("%d件目の商品価格が負の値です: %s", i+1, it.Price)
		}
		p := &model.Product{
			ID:                  uuid.New().String(),
			Name:                name,
			Description:         it.Description,
			Price:               it.Price,
			Image:               it.Image,
			EnvironmentalImpact: it.EnvironmentalImpact,
			CreatedAt:           time.Now().UTC(),
		}
		if err := s.products.Upsert(ctx, p); err != nil {
			return i, fmt.Errorf("商品の登録に失敗しました（%s）: %w", name, err)
		}
		keys = append(keys, productKey(p.ID))
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("catalog cache invalidation failed", slog.String("error", err.Error()))
	}

	s.logger.Info("catalog imported", slog.Int("count", len(items)))
	return len(items), nil
}

// readCache はキャッシュから値を読み出してdstにデコードする。
// ヒットした場合にtrueを返す。
func (s *Service) readCache(ctx context.Context, key string, dst any) bool {
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("catalog cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	if found {
		if err := json.Unmarshal(raw, dst); err == nil {
			s.metrics.RecordCacheLookup(true)
			return true
		}
		s.logger.Warn("catalog cache entry is corrupt", slog.String("key", key))
	}
	s.metrics.RecordCacheLookup(false)
	return false
}

func (s *Service) writeCache(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.Warn("catalog cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
