// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product はカタログに掲載される商品を表す。
// 作成後は読み取り専用として扱う。
type Product struct {
	ID                  string
	Name                string
	Description         string
	Price               decimal.Decimal
	Image               string
	EnvironmentalImpact int
	CreatedAt           time.Time
}

// SortField は商品一覧のソート項目を表す。
// 許可リストに含まれる値のみクエリに使用される。
type SortField string

const (
	// SortByName は商品名の昇順。
	SortByName SortField = "name"
	// SortByPrice は価格の昇順。
	SortByPrice SortField = "price"
	// SortByEnvironmentalImpact は環境負荷スコアの昇順。
	SortByEnvironmentalImpact SortField = "environmental_impact"
)

// DefaultSortField はソート指定がない場合に使用する項目。
const DefaultSortField = SortByName

// ParseSortField は文字列をSortFieldに変換する。
// 空文字はDefaultSortFieldとして扱い、許可リスト外の値はエラーを返す。
func ParseSortField(s string) (SortField, error) {
	switch SortField(s) {
	case "":
		return DefaultSortField, nil
	case SortByName, SortByPrice, SortByEnvironmentalImpact:
		return SortField(s), nil
	default:
		return "", NewInvalidSortFieldError(s)
	}
}
