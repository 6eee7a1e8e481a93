// Package review は商品レビューのドメインロジックを提供する。
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/ecoshop/internal/metrics"
	"github.com/hitoshi/ecoshop/internal/model"
	"github.com/hitoshi/ecoshop/internal/repository"
	"github.com/hitoshi/ecoshop/internal/security"
)

// Service はレビューのサービス層。
type Service struct {
	reviews   repository.ReviewRepository
	products  repository.ProductRepository
	sanitizer security.ContentSanitizerService
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	sanitizer security.ContentSanitizerService,
	mc metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if sanitizer == nil {
		sanitizer = security.NewContentSanitizer()
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reviews: reviews, products: products, sanitizer: sanitizer, metrics: mc, logger: logger}
}

// AddReview はレビューを投稿する。
// 本文はタグを除去したプレーンテキストとして保存する。
// 本文が空、または評価が1から5の範囲外であればエラーとなる。
func (s *Service) AddReview(ctx context.Context, userID, productID, content string, rating int) (*model.Review, error) {
	clean := s.sanitizer.PlainText(content)
	if clean == "" {
		return nil, model.NewEmptyReviewError()
	}
	if rating < model.MinRating || rating > model.MaxRating {
		return nil, model.NewInvalidRatingError(rating)
	}

	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProductNotFoundError(productID)
	}

	rv := &model.Review{
		ID:        uuid.New().String(),
		ProductID: p.ID,
		UserID:    userID,
		Content:   clean,
		Rating:    rating,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, model.NewProductNotFoundError(productID)
		}
		return nil, fmt.Errorf("レビューの作成に失敗しました: %w", err)
	}

	s.metrics.RecordReviewCreated()
	s.logger.Info("review created",
		slog.String("user_id", userID),
		slog.String("product_id", p.ID),
		slog.Int("rating", rating),
	)
	return rv, nil
}

// ListReviews は商品のレビューを新しい順に返す。
func (s *Service) ListReviews(ctx context.Context, productID string) ([]*model.Review, error) {
	reviews, err := s.reviews.ListByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return reviews, nil
}
