// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はユーザー投稿テキストをサニタイズする。
// bluemondayのStrictPolicyでタグを除去し、プレーンテキストとして返す。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はユーザー投稿テキストのサニタイズ機能のインターフェース。
type ContentSanitizerService interface {
	// PlainText は全てのタグを除去したプレーンテキストを返す。
	// script、styleなどの要素は内容ごと除去される。
	// 結果はHTMLエスケープされない。表示側で出力先に応じてエスケープする。
	// 前後の空白は取り除かれる。
	PlainText(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフなため、複数リクエストで共有できる。
type contentSanitizer struct {
	strict *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{strict: bluemonday.StrictPolicy()}
}

// PlainText は全てのタグを除去したテキストを返す。
// bluemondayの出力はHTMLエスケープ済みのため、文字参照を元の文字に戻す。
func (s *contentSanitizer) PlainText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(raw)))
}

var _ ContentSanitizerService = (*contentSanitizer)(nil)
