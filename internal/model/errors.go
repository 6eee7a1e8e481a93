// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrorKind は機械判読可能なエラー種別を表す。
// ハンドラー層はこの値からHTTPステータスを決定する。
type ErrorKind string

const (
	KindNotFound        ErrorKind = "not_found"
	KindUnauthorized    ErrorKind = "unauthorized"
	KindInvalidInput    ErrorKind = "invalid_input"
	KindEmptyCart       ErrorKind = "empty_cart"
	KindConflict        ErrorKind = "conflict"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindRateLimited     ErrorKind = "rate_limited"
	KindInternal        ErrorKind = "internal"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Kind     ErrorKind // エラー種別
	Code     string    // エラーコード
	Message  string    // エラーメッセージ
	Category string    // カテゴリ: auth, validation, catalog, cart, order, review, system
	Action   string    // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// KindOf はerrがAPIErrorであればその種別を返す。それ以外は空文字を返す。
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// 定義済みエラーコード
const (
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeCartNotFound       = "CART_NOT_FOUND"
	ErrCodeCartItemNotFound   = "CART_ITEM_NOT_FOUND"
	ErrCodeCartItemForbidden  = "CART_ITEM_FORBIDDEN"
	ErrCodeInvalidSortField   = "INVALID_SORT_FIELD"
	ErrCodeInvalidRating      = "INVALID_RATING"
	ErrCodeEmptyReview        = "EMPTY_REVIEW"
	ErrCodeEmptyCart          = "EMPTY_CART"
	ErrCodeInvalidPaymentType = "INVALID_PAYMENT_TYPE"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidSignUp      = "INVALID_SIGN_UP"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
)

// NewProductNotFoundError は商品未検出エラーを生成する。
func NewProductNotFoundError(productID string) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeProductNotFound,
		Message:  fmt.Sprintf("指定された商品が見つかりません: %s", productID),
		Category: "catalog",
		Action:   "商品IDを確認してください。",
	}
}

// NewCartNotFoundError はカート未作成エラーを生成する。
func NewCartNotFoundError() *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeCartNotFound,
		Message:  "削除対象のカートがありません。",
		Category: "cart",
		Action:   "商品をカートに追加してください。",
	}
}

// NewCartItemNotFoundError はカート明細未検出エラーを生成する。
func NewCartItemNotFoundError(cartItemID string) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeCartItemNotFound,
		Message:  fmt.Sprintf("指定されたカート明細が見つかりません: %s", cartItemID),
		Category: "cart",
		Action:   "カートを再読み込みしてください。",
	}
}

// NewCartItemForbiddenError は他ユーザーのカート明細を操作しようとした場合のエラーを生成する。
func NewCartItemForbiddenError() *APIError {
	return &APIError{
		Kind:     KindUnauthorized,
		Code:     ErrCodeCartItemForbidden,
		Message:  "このカート明細を操作する権限がありません。",
		Category: "cart",
		Action:   "自分のカートの商品のみ削除できます。",
	}
}

// NewInvalidSortFieldError は許可されていないソート項目のエラーを生成する。
func NewInvalidSortFieldError(field string) *APIError {
	return &APIError{
		Kind:     KindInvalidInput,
		Code:     ErrCodeInvalidSortField,
		Message:  fmt.Sprintf("無効なソート項目です: %s", field),
		Category: "validation",
		Action:   "ソート項目には name、price、environmental_impact のいずれかを指定してください。",
	}
}

// NewInvalidRatingError は評価値が範囲外の場合のエラーを生成する。
func NewInvalidRatingError(rating int) *APIError {
	return &APIError{
		Kind:     KindInvalidInput,
		Code:     ErrCodeInvalidRating,
		Message:  fmt.Sprintf("無効な評価値です: %d", rating),
		Category: "validation",
		Action:   fmt.Sprintf("評価は%dから%dの範囲で指定してください。", MinRating, MaxRating),
	}
}

// NewEmptyReviewError はレビュー本文が空の場合のエラーを生成する。
func NewEmptyReviewError() *APIError {
	return &APIError{
		Kind:     KindInvalidInput,
		Code:     ErrCodeEmptyReview,
		Message:  "レビュー本文が空です。",
		Category: "validation",
		Action:   "レビュー本文を入力してください。",
	}
}

// NewEmptyCartError はカートが空の状態で注文しようとした場合のエラーを生成する。
func NewEmptyCartError() *APIError {
	return &APIError{
		Kind:     KindEmptyCart,
		Code:     ErrCodeEmptyCart,
		Message:  "カートが空のため注文できません。",
		Category: "order",
		Action:   "商品をカートに追加してから注文してください。",
	}
}

// NewInvalidPaymentTypeError は未対応の支払い方法のエラーを生成する。
func NewInvalidPaymentTypeError(paymentType string) *APIError {
	return &APIError{
		Kind:     KindInvalidInput,
		Code:     ErrCodeInvalidPaymentType,
		Message:  fmt.Sprintf("無効な支払い方法です: %s", paymentType),
		Category: "validation",
		Action:   "支払い方法には card、paypal、cash_on_delivery のいずれかを指定してください。",
	}
}

// NewOrderNotFoundError は注文未検出エラーを生成する。
func NewOrderNotFoundError(orderID string) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeOrderNotFound,
		Message:  fmt.Sprintf("指定された注文が見つかりません: %s", orderID),
		Category: "order",
		Action:   "注文IDを確認してください。",
	}
}

// NewEmailTakenError はメールアドレスが登録済みの場合のエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "ログインするか、別のメールアドレスを使用してください。",
	}
}

// NewInvalidCredentialsError はログイン情報が一致しない場合のエラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Kind:     KindUnauthenticated,
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidSignUpError はサインアップ入力が不正な場合のエラーを生成する。
func NewInvalidSignUpError(reason string) *APIError {
	return &APIError{
		Kind:     KindInvalidInput,
		Code:     ErrCodeInvalidSignUp,
		Message:  fmt.Sprintf("登録内容が不正です: %s", reason),
		Category: "validation",
		Action:   "メールアドレスと8文字以上のパスワードを入力してください。",
	}
}

// NewConflictError は同時更新の競合エラーを生成する。
func NewConflictError(resource string) *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeConflict,
		Message:  fmt.Sprintf("%sの更新が競合しました。", resource),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
