package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/ecoshop/internal/model"
)

// PostgresOrderRepo はPostgreSQLを使用した注文リポジトリ。
type PostgresOrderRepo struct {
	db *sql.DB
}

// NewPostgresOrderRepo はPostgresOrderRepoを生成する。
func NewPostgresOrderRepo(db *sql.DB) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: db}
}

// CreateFromCart はユーザーのカート内容から注文を作成し、カートを空にする。
// 1. カート行をFOR UPDATEでロック
// 2. 明細と現在価格を読み出し
// 3. 注文と注文明細（価格スナップショット）を作成
// 4. カート明細を削除
// いずれかが失敗した場合はロールバックされ、何も書き込まれない。
func (r *PostgresOrderRepo) CreateFromCart(ctx context.Context, userID string, paymentType model.PaymentType) (*model.Order, error) {
	if !isUUID(userID) {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. カートのロック
	var cartID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM carts WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&cartID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart: %w", translateError(err))
	}

	// 2. 明細の読み出し
	rows, err := tx.QueryContext(ctx,
		`SELECT ci.product_id, p.name, p.price, ci.quantity
		 FROM cart_items ci
		 JOIN products p ON p.id = ci.product_id
		 WHERE ci.cart_id = $1
		 ORDER BY ci.added_at ASC, ci.id ASC`,
		cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart items: %w", translateError(err))
	}

	order := &model.Order{
		ID:          uuid.New().String(),
		UserID:      userID,
		PaymentType: paymentType,
		CreatedAt:   time.Now().UTC(),
	}
	for rows.Next() {
		item := model.OrderItem{ID: uuid.New().String(), OrderID: order.ID}
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate cart items: %w", err)
	}
	rows.Close()

	if len(order.Items) == 0 {
		return nil, nil
	}

	// 3. 注文の作成
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, payment_type, created_at) VALUES ($1, $2, $3, $4)`,
		order.ID, order.UserID, string(order.PaymentType), order.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", translateError(err))
	}

	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice,
		); err != nil {
			return nil, fmt.Errorf("failed to insert order item: %w", translateError(err))
		}
	}

	// 4. カートを空にする
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", translateError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", translateError(err))
	}

	return order, nil
}

const orderSelect = `
	SELECT o.id, o.user_id, o.payment_type, o.created_at,
	       oi.id, oi.product_id, oi.product_name, oi.quantity, oi.unit_price
	FROM orders o
	JOIN order_items oi ON oi.order_id = o.id`

// FindByID は指定IDの注文を明細付きで取得する。見つからない場合はnilを返す。
func (r *PostgresOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	if !isUUID(id) {
		return nil, nil
	}
	orders, err := r.queryOrders(ctx, orderSelect+` WHERE o.id = $1 ORDER BY oi.id`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return orders[0], nil
}

// ListByUserID はユーザーの注文を新しい順に明細付きで返す。
func (r *PostgresOrderRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Order, error) {
	if !isUUID(userID) {
		return []*model.Order{}, nil
	}
	return r.queryOrders(ctx,
		orderSelect+` WHERE o.user_id = $1 ORDER BY o.created_at DESC, o.id, oi.id`, userID)
}

// queryOrders は注文と明細の結合結果を注文単位にまとめる。
// 行は注文IDごとに連続している必要がある。
func (r *PostgresOrderRepo) queryOrders(ctx context.Context, query string, args ...any) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*model.Order{}
	var current *model.Order
	for rows.Next() {
		var (
			o           model.Order
			item        model.OrderItem
			paymentType string
		)
		if err := rows.Scan(
			&o.ID, &o.UserID, &paymentType, &o.CreatedAt,
			&item.ID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if current == nil || current.ID != o.ID {
			o.PaymentType = model.PaymentType(paymentType)
			current = &o
			orders = append(orders, current)
		}
		item.OrderID = current.ID
		current.Items = append(current.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

// compile-time interface check
var _ OrderRepository = (*PostgresOrderRepo)(nil)
