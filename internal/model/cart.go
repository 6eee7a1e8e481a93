// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart はユーザーごとに1つだけ存在する買い物かごを表す。
type Cart struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

// CartItem はカート内の商品1行を表す。
// (CartID, ProductID) の組はカート内で一意。
type CartItem struct {
	ID        string
	CartID    string
	ProductID string
	Quantity  int
	AddedAt   time.Time
}

// CartItemOwner はカート明細と所有ユーザーの組を表す。
// 削除時の所有者チェックに使用する。
type CartItemOwner struct {
	CartItemID string
	CartID     string
	UserID     string
}

// CartLine はカート明細と商品情報を結合した表示用モデル。
type CartLine struct {
	CartItemID string
	Product    Product
	Quantity   int
	AddedAt    time.Time
}

// Subtotal は単価×数量を返す。
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartView はカート表示用の集計結果を表す。
type CartView struct {
	Lines []CartLine
	Total decimal.Decimal
}

// NewCartView は明細から合計金額を計算してCartViewを生成する。
// 明細が空の場合の合計は0となる。
func NewCartView(lines []CartLine) *CartView {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	if lines == nil {
		lines = []CartLine{}
	}
	return &CartView{Lines: lines, Total: total}
}

// ItemCount はカート内の数量合計を返す。
func (v *CartView) ItemCount() int {
	n := 0
	for _, l := range v.Lines {
		n += l.Quantity
	}
	return n
}

// FormatMoney は金額を小数点以下2桁の文字列に整形する。
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
