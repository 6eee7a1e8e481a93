// Package model はドメインモデルを定義する。
package model

import "time"

// 評価値の範囲
const (
	MinRating = 1
	MaxRating = 5
)

// Review は商品に対するユーザーのレビューを表す。
type Review struct {
	ID        string
	ProductID string
	UserID    string
	UserName  string
	Content   string // サニタイズ済み
	Rating    int
	CreatedAt time.Time
}
