package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	// ErrDuplicate はユニーク制約違反を表す。
	ErrDuplicate = errors.New("repository: duplicate key")
	// ErrConflict はシリアライズ失敗またはデッドロックによる競合を表す。
	ErrConflict = errors.New("repository: concurrent update conflict")
	// ErrReferenceNotFound は外部キーの参照先が存在しないことを表す。
	ErrReferenceNotFound = errors.New("repository: referenced row not found")
)

// PostgreSQLのSQLSTATEコード
const (
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// translateError はpq.Errorをリポジトリのセンチネルエラーに変換する。
// 該当しない場合はerrをそのまま返す。
func translateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return ErrDuplicate
	case pqForeignKeyViolation:
		return ErrReferenceNotFound
	case pqSerializationFailure, pqDeadlockDetected:
		return ErrConflict
	}
	return err
}

// isUUID はidがUUID形式かどうかを返す。
// UUID列に不正な文字列を渡すとPostgreSQLがエラーを返すため、事前に判定する。
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
