package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fuvest-study-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// BankLoader loads year-bank JSONB from Postgres.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context, year int) (domain.YearBank, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM year_banks WHERE year=$1`, year).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.YearBank{}, domain.ErrBankNotFound
	}
	if err != nil {
		return domain.YearBank{}, fmt.Errorf("load bank %d: %w", year, err)
	}
	var bank domain.YearBank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return domain.YearBank{}, fmt.Errorf("unmarshal bank %d: %w", year, err)
	}
	bank.Year = year
	return bank, nil
}

// Years lists the years that have a bank stored.
func (l *BankLoader) Years(ctx context.Context) ([]int, error) {
	rows, err := l.pool.Query(ctx, `SELECT year FROM year_banks ORDER BY year`)
	if err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, err
		}
		years = append(years, year)
	}
	return years, rows.Err()
}
