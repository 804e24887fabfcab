package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"fuvest-study-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// HistoryRepository stores finished exam results as JSONB rows.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

func (r *HistoryRepository) Append(ctx context.Context, result domain.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO exam_results (id, created_at, data) VALUES ($1, $2, $3)`,
		result.ID, result.Date, raw)
	if err != nil {
		return fmt.Errorf("append result: %w", err)
	}
	return nil
}

func (r *HistoryRepository) List(ctx context.Context) ([]domain.Result, error) {
	rows, err := r.pool.Query(ctx, `SELECT data FROM exam_results ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var result domain.Result
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func (r *HistoryRepository) Delete(ctx context.Context, resultID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exam_results WHERE id=$1`, resultID)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrResultNotFound
	}
	return nil
}
