// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/ecoshop/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpiredBefore はbefore以前に期限切れとなったセッションを削除し、削除件数を返す。
	DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error)
}

// ProductRepository は商品カタログの永続化インターフェース。
type ProductRepository interface {
	// List は商品一覧を指定項目の昇順で返す。
	// sortは許可リストの値であること。それ以外はエラーを返す。
	List(ctx context.Context, sort model.SortField) ([]*model.Product, error)

	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// Upsert は商品名をキーに商品を作成または更新する。
	// 保存後のIDをproduct.IDに設定する。
	Upsert(ctx context.Context, product *model.Product) error
}

// CartRepository はカートとカート明細の永続化インターフェース。
type CartRepository interface {
	// FindByUserID はユーザーのカートを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Cart, error)

	// GetOrCreate はユーザーのカートを返し、存在しなければ作成する。
	// carts.user_idのユニーク制約により同時実行時も1件に収束する。
	GetOrCreate(ctx context.Context, userID string) (*model.Cart, error)

	// AddItem は商品をカートに追加する。既に存在する場合は数量を1増やす。
	// 追加後のカート内数量合計を返す。
	AddItem(ctx context.Context, cartID, productID string) (int, error)

	// FindItemOwner はカート明細とその所有ユーザーを取得する。見つからない場合はnilを返す。
	FindItemOwner(ctx context.Context, cartItemID string) (*model.CartItemOwner, error)

	// DeleteItem はカート明細を物理削除する。
	DeleteItem(ctx context.Context, cartItemID string) error

	// ClearItems はカートの全明細を物理削除する。カート自体は残す。
	ClearItems(ctx context.Context, cartID string) error

	// ListLines はカート明細を商品情報と結合して追加順に返す。
	ListLines(ctx context.Context, cartID string) ([]model.CartLine, error)

	// CountItems はカート内の数量合計を返す。
	CountItems(ctx context.Context, cartID string) (int, error)
}

// OrderRepository は注文の永続化インターフェース。
type OrderRepository interface {
	// CreateFromCart はユーザーのカート内容から注文を作成し、カートを空にする。
	// 全ての処理を1トランザクションで行う。
	// カートが存在しないか空の場合はnilを返し、何も書き込まない。
	CreateFromCart(ctx context.Context, userID string, paymentType model.PaymentType) (*model.Order, error)

	// FindByID は指定IDの注文を明細付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Order, error)

	// ListByUserID はユーザーの注文を新しい順に明細付きで返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Order, error)
}

// ReviewRepository はレビューの永続化インターフェース。
type ReviewRepository interface {
	// Create はレビューを作成する。
	Create(ctx context.Context, review *model.Review) error

	// ListByProductID は商品のレビューを新しい順に返す。
	ListByProductID(ctx context.Context, productID string) ([]*model.Review, error)
}
