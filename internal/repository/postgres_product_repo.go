package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/ecoshop/internal/model"
)

// sortColumns はSortFieldからORDER BY句の列名への許可リスト。
// クエリに埋め込む列名はこのマップの値に限定する。
var sortColumns = map[model.SortField]string{
	model.SortByName:                "name",
	model.SortByPrice:               "price",
	model.SortByEnvironmentalImpact: "environmental_impact",
}

const productColumns = `id, name, description, price, image, environmental_impact, created_at`

// PostgresProductRepo はPostgreSQLを使用した商品リポジトリ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*model.Product, error) {
	p := &model.Product{}
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.EnvironmentalImpact, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// List は商品一覧を指定項目の昇順で返す。同値の場合はIDで順序を確定させる。
func (r *PostgresProductRepo) List(ctx context.Context, sort model.SortField) ([]*model.Product, error) {
	column, ok := sortColumns[sort]
	if !ok {
		return nil, model.NewInvalidSortFieldError(string(sort))
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY `+column+` ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	if !isUUID(id) {
		return nil, nil
	}
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return p, nil
}

// Upsert は商品名をキーに商品を作成または更新する。
func (r *PostgresProductRepo) Upsert(ctx context.Context, product *model.Product) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (id, name, description, price, image, environmental_impact, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (name) DO UPDATE SET
		     description = EXCLUDED.description,
		     price = EXCLUDED.price,
		     image = EXCLUDED.image,
		     environmental_impact = EXCLUDED.environmental_impact
		 RETURNING id`,
		product.ID, product.Name, product.Description, product.Price,
		product.Image, product.EnvironmentalImpact, product.CreatedAt,
	).Scan(&product.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", translateError(err))
	}
	return nil
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
