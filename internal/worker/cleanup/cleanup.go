// Package cleanup は期限切れセッションの削除ジョブを提供する。
// 有効期限から保持期間（デフォルト7日）を超過したセッションを削除する。
// cleanupサブコマンドから1回だけ実行され、cronでの定期実行を想定している。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionPurger は期限切れセッションの一括削除インターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionPurger interface {
	DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error)
}

// DefaultRetentionDays は期限切れセッションを保持する日数のデフォルト値。
const DefaultRetentionDays = 7

// CleanupJob は期限切れセッションの削除ジョブ。
// 削除対象がなくてもエラーにならない。
type CleanupJob struct {
	sessions      SessionPurger
	logger        *slog.Logger
	now           func() time.Time
	RetentionDays int // 期限切れ後の保持日数
}

// NewCleanupJob は新しいCleanupJobを生成する。
// retentionDaysが0以下の場合はDefaultRetentionDaysを使用する。
func NewCleanupJob(sessions SessionPurger, logger *slog.Logger, retentionDays int) *CleanupJob {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupJob{
		sessions:      sessions,
		logger:        logger,
		now:           time.Now,
		RetentionDays: retentionDays,
	}
}

// Cutoff はこの時刻より前に期限切れとなったセッションが削除対象となる時刻を返す。
func (j *CleanupJob) Cutoff() time.Time {
	return j.now().UTC().AddDate(0, 0, -j.RetentionDays)
}

// Run は保持期間を超過した期限切れセッションを削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := j.Cutoff()

	deletedCount, err := j.sessions.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
