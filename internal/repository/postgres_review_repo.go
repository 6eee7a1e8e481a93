package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/ecoshop/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// Create はレビューを作成する。
// 商品が存在しない場合はErrReferenceNotFoundを返す。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, product_id, user_id, content, rating, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		review.ID, review.ProductID, review.UserID, review.Content, review.Rating, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", translateError(err))
	}
	return nil
}

// ListByProductID は商品のレビューを新しい順に返す。
func (r *PostgresReviewRepo) ListByProductID(ctx context.Context, productID string) ([]*model.Review, error) {
	reviews := []*model.Review{}
	if !isUUID(productID) {
		return reviews, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT rv.id, rv.product_id, rv.user_id, u.name, rv.content, rv.rating, rv.created_at
		 FROM reviews rv
		 JOIN users u ON u.id = rv.user_id
		 WHERE rv.product_id = $1
		 ORDER BY rv.created_at DESC, rv.id DESC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rv := &model.Review{}
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.UserName, &rv.Content, &rv.Rating, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return reviews, nil
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
