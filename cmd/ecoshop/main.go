// Command ecoshop はエコ商品ストアのAPIサーバーと運用サブコマンドを提供する。
//
//	ecoshop [serve]          APIサーバーを起動する
//	ecoshop migrate          マイグレーションを適用する
//	ecoshop seed <file.json> 商品カタログを取り込む
//	ecoshop cleanup          期限切れセッションを削除する
//	ecoshop healthcheck      /health を呼び出す
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/ecoshop/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "ecoshop: %v\n", err)
		os.Exit(1)
	}
}
