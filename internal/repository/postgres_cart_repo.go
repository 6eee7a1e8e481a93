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

// PostgresCartRepo はPostgreSQLを使用したカートリポジトリ。
type PostgresCartRepo struct {
	db *sql.DB
}

// NewPostgresCartRepo はPostgresCartRepoを生成する。
func NewPostgresCartRepo(db *sql.DB) *PostgresCartRepo {
	return &PostgresCartRepo{db: db}
}

// FindByUserID はユーザーのカートを取得する。見つからない場合はnilを返す。
func (r *PostgresCartRepo) FindByUserID(ctx context.Context, userID string) (*model.Cart, error) {
	if !isUUID(userID) {
		return nil, nil
	}
	cart := &model.Cart{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}
	return cart, nil
}

// GetOrCreate はユーザーのカートを返し、存在しなければ作成する。
// INSERT ... ON CONFLICT DO NOTHINGで競合した場合は既存の行を読み直す。
func (r *PostgresCartRepo) GetOrCreate(ctx context.Context, userID string) (*model.Cart, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO carts (id, user_id, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO NOTHING`,
		uuid.New().String(), userID, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", translateError(err))
	}

	cart, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, fmt.Errorf("cart for user %s vanished after upsert", userID)
	}
	return cart, nil
}

// AddItem は商品をカートに追加する。既に存在する場合は数量を1増やす。
// (cart_id, product_id) のユニーク制約を利用したUPSERTのため重複行は生じない。
// チェックアウト中のカートにはFOR SHAREで待機し、注文に含まれない明細の消失を防ぐ。
func (r *PostgresCartRepo) AddItem(ctx context.Context, cartID, productID string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lockedID string
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM carts WHERE id = $1 FOR SHARE`, cartID,
	).Scan(&lockedID); err != nil {
		return 0, fmt.Errorf("failed to lock cart: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cart_items (id, cart_id, product_id, quantity, added_at)
		 VALUES ($1, $2, $3, 1, $4)
		 ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + 1`,
		uuid.New().String(), cartID, productID, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert cart item: %w", translateError(err))
	}

	count, err := countItems(ctx, tx, cartID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", translateError(err))
	}
	return count, nil
}

// FindItemOwner はカート明細とその所有ユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresCartRepo) FindItemOwner(ctx context.Context, cartItemID string) (*model.CartItemOwner, error) {
	if !isUUID(cartItemID) {
		return nil, nil
	}
	owner := &model.CartItemOwner{}
	err := r.db.QueryRowContext(ctx,
		`SELECT ci.id, c.id, c.user_id
		 FROM cart_items ci
		 JOIN carts c ON c.id = ci.cart_id
		 WHERE ci.id = $1`,
		cartItemID,
	).Scan(&owner.CartItemID, &owner.CartID, &owner.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cart item owner: %w", err)
	}
	return owner, nil
}

// DeleteItem はカート明細を物理削除する。
func (r *PostgresCartRepo) DeleteItem(ctx context.Context, cartItemID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, cartItemID); err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// ClearItems はカートの全明細を物理削除する。
func (r *PostgresCartRepo) ClearItems(ctx context.Context, cartID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// ListLines はカート明細を商品情報と結合して追加順に返す。
func (r *PostgresCartRepo) ListLines(ctx context.Context, cartID string) ([]model.CartLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ci.id, ci.quantity, ci.added_at,
		        p.id, p.name, p.description, p.price, p.image, p.environmental_impact, p.created_at
		 FROM cart_items ci
		 JOIN products p ON p.id = ci.product_id
		 WHERE ci.cart_id = $1
		 ORDER BY ci.added_at ASC, ci.id ASC`,
		cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	defer rows.Close()

	lines := []model.CartLine{}
	for rows.Next() {
		var l model.CartLine
		p := &l.Product
		if err := rows.Scan(
			&l.CartItemID, &l.Quantity, &l.AddedAt,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.EnvironmentalImpact, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart lines: %w", err)
	}
	return lines, nil
}

// CountItems はカート内の数量合計を返す。
func (r *PostgresCartRepo) CountItems(ctx context.Context, cartID string) (int, error) {
	return countItems(ctx, r.db, cartID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func countItems(ctx context.Context, q queryRower, cartID string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE cart_id = $1`, cartID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ CartRepository = (*PostgresCartRepo)(nil)
