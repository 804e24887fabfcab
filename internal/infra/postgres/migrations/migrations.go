package migrations

import (
	_ "embed"

	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_year_banks.sql
var createYearBanksSQL string

//go:embed 0002_create_exam_results.sql
var createExamResultsSQL string

//go:embed 0003_create_progress.sql
var createProgressSQL string

var Migrations = migrate.NewMigrations()
