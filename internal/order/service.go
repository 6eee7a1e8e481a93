// Package order は注文確定と注文履歴のドメインロジックを提供する。
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/ecoshop/internal/event"
	"github.com/hitoshi/ecoshop/internal/metrics"
	"github.com/hitoshi/ecoshop/internal/model"
	"github.com/hitoshi/ecoshop/internal/repository"
)

// CartViewer はチェックアウト画面用にカート内容を取得するインターフェース。
type CartViewer interface {
	ViewCart(ctx context.Context, userID string) (*model.CartView, error)
}

// CheckoutSummary はチェックアウト画面の表示内容を表す。
type CheckoutSummary struct {
	Cart         *model.CartView
	PaymentTypes []model.PaymentType
}

// Service は注文のサービス層。
type Service struct {
	orders    repository.OrderRepository
	carts     CartViewer
	publisher event.Publisher
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	orders repository.OrderRepository,
	carts CartViewer,
	publisher event.Publisher,
	mc metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if publisher == nil {
		publisher = event.Nop{}
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{orders: orders, carts: carts, publisher: publisher, metrics: mc, logger: logger}
}

// Checkout はチェックアウト画面に表示するカート内容と支払い方法を返す。
func (s *Service) Checkout(ctx context.Context, userID string) (*CheckoutSummary, error) {
	view, err := s.carts.ViewCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CheckoutSummary{Cart: view, PaymentTypes: model.PaymentTypes}, nil
}

// PlaceOrder はカート内容から注文を確定する。
// 注文作成とカートのクリアは1トランザクションで行われる。
// カートが空の場合はEmptyCartエラーを返し、注文は作成されない。
// イベント発行の失敗は注文の成否に影響しない。
func (s *Service) PlaceOrder(ctx context.Context, userID, paymentType string) (*model.Order, error) {
	pt, err := model.ParsePaymentType(paymentType)
	if err != nil {
		s.metrics.RecordCheckoutFailure("invalid_payment")
		return nil, err
	}

	o, err := s.orders.CreateFromCart(ctx, userID, pt)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.metrics.RecordCheckoutFailure("conflict")
			return nil, model.NewConflictError("注文")
		}
		s.metrics.RecordCheckoutFailure("error")
		return nil, fmt.Errorf("注文の作成に失敗しました: %w", err)
	}
	if o == nil {
		s.metrics.RecordCheckoutFailure("empty_cart")
		return nil, model.NewEmptyCartError()
	}

	total := o.Total()
	value, _ := total.Float64()
	s.metrics.RecordOrderPlaced(value)
	s.logger.Info("order placed",
		slog.String("user_id", userID),
		slog.String("order_id", o.ID),
		slog.String("payment_type", string(pt)),
		slog.Int("items", len(o.Items)),
		slog.String("total", model.FormatMoney(total)),
	)

	if err := s.publisher.PublishOrderPlaced(ctx, event.NewOrderPlaced(o)); err != nil {
		s.logger.Error("order event publish failed",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
	}
	return o, nil
}

// ListOrders はユーザーの注文履歴を新しい順に返す。
func (s *Service) ListOrders(ctx context.Context, userID string) ([]*model.Order, error) {
	orders, err := s.orders.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("注文履歴の取得に失敗しました: %w", err)
	}
	return orders, nil
}

// GetOrder は注文を返す。他ユーザーの注文は存在しないものとして扱う。
func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if o == nil || o.UserID != userID {
		return nil, model.NewOrderNotFoundError(orderID)
	}
	return o, nil
}
