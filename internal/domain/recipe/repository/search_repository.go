package repository

import (
	"context"

	"recipe_community/internal/domain/recipe/model"

	"github.com/jmoiron/sqlx"
)

// SearchRepository 全文检索走 sqlx 只读路径
type SearchRepository interface {
	Search(ctx context.Context, query string, offset, limit int) ([]model.RecipeSummary, int64, error)
}

type searchRepository struct {
	db *sqlx.DB
}

func NewSearchRepository(db *sqlx.DB) SearchRepository {
	return &searchRepository{db: db}
}

const searchSQL = `
SELECT r.id, r.user_id, r.country, r.region, r.title, r.created_at,
       ts_rank(r.search_vector, q) AS rank
FROM recipes r, plainto_tsquery('simple', $1) q
WHERE r.published AND r.search_vector @@ q
ORDER BY rank DESC, r.created_at DESC
LIMIT $2 OFFSET $3`

const searchCountSQL = `
SELECT count(*)
FROM recipes r, plainto_tsquery('simple', $1) q
WHERE r.published AND r.search_vector @@ q`

func (r *searchRepository) Search(ctx context.Context, query string, offset, limit int) ([]model.RecipeSummary, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, searchCountSQL, query); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.RecipeSummary{}, 0, nil
	}

	results := make([]model.RecipeSummary, 0, limit)
	if err := r.db.SelectContext(ctx, &results, searchSQL, query, limit, offset); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
