package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/ecoshop/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 機械判読用の種別と、原因カテゴリ、対処方法を含む。
type ErrorResponseBody struct {
	Kind     string `json:"kind"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// StatusForKind はエラー種別に対応するHTTPステータスコードを返す。
// 未知の種別は500として扱う。
func StatusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindUnauthorized:
		return http.StatusForbidden
	case model.KindInvalidInput:
		return http.StatusBadRequest
	case model.KindEmptyCart:
		return http.StatusUnprocessableEntity
	case model.KindConflict:
		return http.StatusConflict
	case model.KindUnauthenticated:
		return http.StatusUnauthorized
	case model.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Kind:     string(apiErr.Kind),
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteAPIError はエラー種別から決まるステータスコードでAPIErrorを書き込む。
func WriteAPIError(w http.ResponseWriter, apiErr *model.APIError) {
	WriteErrorResponse(w, StatusForKind(apiErr.Kind), apiErr)
}

// WriteUnauthenticated は未認証の統一レスポンスを書き込む。
func WriteUnauthenticated(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Kind:     model.KindUnauthenticated,
		Code:     "UNAUTHENTICATED",
		Message:  "ログインが必要です。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Kind:     model.KindInternal,
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}
