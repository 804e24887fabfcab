package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// ProgressRepository persists syllabus checklist and reading-tracker rows.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

// ToggleSyllabusItem inserts the item if absent, deletes it if present, and
// returns whether it is now checked.
func (r *ProgressRepository) ToggleSyllabusItem(ctx context.Context, itemID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM syllabus_progress WHERE item_id=$1`, itemID)
	if err != nil {
		return false, fmt.Errorf("toggle syllabus item: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}
	if _, err := r.pool.Exec(ctx, `INSERT INTO syllabus_progress (item_id) VALUES ($1)`, itemID); err != nil {
		return false, fmt.Errorf("toggle syllabus item: %w", err)
	}
	return true, nil
}

func (r *ProgressRepository) SyllabusItems(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT item_id FROM syllabus_progress ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("list syllabus items: %w", err)
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var itemID string
		if err := rows.Scan(&itemID); err != nil {
			return nil, err
		}
		items = append(items, itemID)
	}
	return items, rows.Err()
}

func (r *ProgressRepository) SetBookStatus(ctx context.Context, bookID, status string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO books_progress (book_id, status) VALUES ($1, $2)
		 ON CONFLICT (book_id) DO UPDATE SET status=EXCLUDED.status`,
		bookID, status)
	if err != nil {
		return fmt.Errorf("set book status: %w", err)
	}
	return nil
}

func (r *ProgressRepository) BookStatuses(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT book_id, status FROM books_progress`)
	if err != nil {
		return nil, fmt.Errorf("list book statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]string)
	for rows.Next() {
		var bookID, status string
		if err := rows.Scan(&bookID, &status); err != nil {
			return nil, err
		}
		statuses[bookID] = status
	}
	return statuses, rows.Err()
}
