// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType は注文時の支払い方法を表す。
type PaymentType string

const (
	PaymentCard           PaymentType = "card"
	PaymentPayPal         PaymentType = "paypal"
	PaymentCashOnDelivery PaymentType = "cash_on_delivery"
)

// PaymentTypes は受け付ける支払い方法の一覧。
var PaymentTypes = []PaymentType{PaymentCard, PaymentPayPal, PaymentCashOnDelivery}

// ParsePaymentType は文字列をPaymentTypeに変換する。
func ParsePaymentType(s string) (PaymentType, error) {
	for _, p := range PaymentTypes {
		if string(p) == s {
			return p, nil
		}
	}
	return "", NewInvalidPaymentTypeError(s)
}

// Order は確定した注文を表す。作成後は変更されない。
type Order struct {
	ID          string
	UserID      string
	PaymentType PaymentType
	CreatedAt   time.Time
	Items       []OrderItem
}

// Total は注文明細の合計金額を返す。
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// OrderItem は注文明細を表す。
// UnitPriceは注文時点の商品価格のスナップショット。
type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Subtotal は単価×数量を返す。
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
