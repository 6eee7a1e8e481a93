// Package cart はカート操作のドメインロジックを提供する。
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/ecoshop/internal/metrics"
	"github.com/hitoshi/ecoshop/internal/model"
	"github.com/hitoshi/ecoshop/internal/repository"
)

// Service はカート操作のサービス層。
// 全ての操作は呼び出し元から明示的に渡されたユーザーIDで行う。
type Service struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	mc metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{carts: carts, products: products, metrics: mc, logger: logger}
}

// GetOrCreateCart はユーザーのカートを返し、なければ作成する。
// 何度呼び出しても同じカートを返す。
func (s *Service) GetOrCreateCart(ctx context.Context, userID string) (*model.Cart, error) {
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, model.NewConflictError("カート")
		}
		return nil, fmt.Errorf("カートの取得に失敗しました: %w", err)
	}
	return c, nil
}

// AddItem は商品をカートに1つ追加し、追加後のカート内数量合計を返す。
// 同じ商品が既にある場合は数量を1増やす。
func (s *Service) AddItem(ctx context.Context, userID, productID string) (int, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if p == nil {
		return 0, model.NewProductNotFoundError(productID)
	}

	c, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return 0, err
	}

	count, err := s.carts.AddItem(ctx, c.ID, p.ID)
	switch {
	case errors.Is(err, repository.ErrReferenceNotFound):
		// 確認後に商品が削除された
		return 0, model.NewProductNotFoundError(productID)
	case errors.Is(err, repository.ErrConflict):
		return 0, model.NewConflictError("カート")
	case err != nil:
		return 0, fmt.Errorf("カートへの追加に失敗しました: %w", err)
	}

	s.metrics.RecordCartItemAdded()
	s.logger.Info("cart item added",
		slog.String("user_id", userID),
		slog.String("product_id", p.ID),
		slog.Int("cart_count", count),
	)
	return count, nil
}

// RemoveItem はカート明細を削除する。
// 明細が存在しない場合はNotFound、他ユーザーの明細の場合はUnauthorizedを返す。
func (s *Service) RemoveItem(ctx context.Context, userID, cartItemID string) error {
	owner, err := s.carts.FindItemOwner(ctx, cartItemID)
	if err != nil {
		return fmt.Errorf("カート明細の取得に失敗しました: %w", err)
	}
	if owner == nil {
		return model.NewCartItemNotFoundError(cartItemID)
	}
	if owner.UserID != userID {
		s.logger.Warn("cart item removal denied",
			slog.String("user_id", userID),
			slog.String("cart_item_id", cartItemID),
		)
		return model.NewCartItemForbiddenError()
	}

	if err := s.carts.DeleteItem(ctx, cartItemID); err != nil {
		return fmt.Errorf("カート明細の削除に失敗しました: %w", err)
	}
	return nil
}

// ClearCart はカートの全明細を削除する。カートが存在しない場合はNotFoundを返す。
func (s *Service) ClearCart(ctx context.Context, userID string) error {
	c, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("カートの取得に失敗しました: %w", err)
	}
	if c == nil {
		return model.NewCartNotFoundError()
	}

	if err := s.carts.ClearItems(ctx, c.ID); err != nil {
		return fmt.Errorf("カートのクリアに失敗しました: %w", err)
	}
	s.logger.Info("cart cleared", slog.String("user_id", userID))
	return nil
}

// ViewCart はカート明細と合計金額を返す。
// カートが存在しない場合はエラーではなく空のCartViewを返す。
func (s *Service) ViewCart(ctx context.Context, userID string) (*model.CartView, error) {
	c, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("カートの取得に失敗しました: %w", err)
	}
	if c == nil {
		return model.NewCartView(nil), nil
	}

	lines, err := s.carts.ListLines(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("カート明細の取得に失敗しました: %w", err)
	}
	return model.NewCartView(lines), nil
}

// CountItems はカート内の数量合計を返す。カートがなければ0を返す。
func (s *Service) CountItems(ctx context.Context, userID string) (int, error) {
	c, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("カートの取得に失敗しました: %w", err)
	}
	if c == nil {
		return 0, nil
	}
	n, err := s.carts.CountItems(ctx, c.ID)
	if err != nil {
		return 0, fmt.Errorf("カート内数量の取得に失敗しました: %w", err)
	}
	return n, nil
}
