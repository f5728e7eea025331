package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"realestate-insights/models"
	"realestate-insights/utils"
)

const projectColumns = 20

// PostgresWriter mirrors every committed snapshot into the projects table.
// The table is only written; nothing is loaded back from it.
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresWriter opens a connection to PostgreSQL, waits for it to accept
// connections, runs schema migrations and returns a ready-to-use writer.
func NewPostgresWriter(ctx context.Context, dsn string, maxRetries int, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: maxRetries, BaseDelay: time.Second, Logger: logger}
	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db, logger: logger.With("postgres")}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS projects (
			id               TEXT PRIMARY KEY,
			name             TEXT          NOT NULL,
			city             TEXT          NOT NULL,
			state            TEXT          NOT NULL,
			neighborhood     TEXT          NOT NULL,
			developer        TEXT          NOT NULL,
			type             TEXT          NOT NULL,
			standard         TEXT          NOT NULL,
			unit_type        TEXT          NOT NULL,
			bedrooms         INTEGER       NOT NULL DEFAULT 0,
			launched_value   NUMERIC(16,2) NOT NULL DEFAULT 0,
			sold_value       NUMERIC(16,2) NOT NULL DEFAULT 0,
			units_sold       INTEGER       NOT NULL DEFAULT 0,
			total_units      INTEGER       NOT NULL DEFAULT 0,
			avg_price        NUMERIC(16,2) NOT NULL DEFAULT 0,
			avg_private_area NUMERIC(10,2) NOT NULL DEFAULT 0,
			price_per_area   NUMERIC(12,2) NOT NULL DEFAULT 0,
			status           TEXT          NOT NULL,
			launch_year      INTEGER       NOT NULL DEFAULT 0,
			updated_at       TEXT          NOT NULL,
			synced_at        TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_projects_city      ON projects(city);
		CREATE INDEX IF NOT EXISTS idx_projects_developer ON projects(developer);
		CREATE INDEX IF NOT EXISTS idx_projects_year      ON projects(launch_year);
	`)
	return err
}

// Write replaces the table contents with projects in one transaction.
func (pw *PostgresWriter) Write(projects []*models.Project) error {
	tx, err := pw.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM projects"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	const batchSize = 50
	var inserted int64
	for i := 0; i < len(projects); i += batchSize {
		end := min(i+batchSize, len(projects))
		n, err := insertBatch(tx, projects[i:end])
		if err != nil {
			return err
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}

	if dropped := int64(len(projects)) - inserted; dropped > 0 {
		pw.logger.Warn().
			Int64("dropped", dropped).
			Strs("duplicate_ids", duplicateIDs(projects)).
			Msg("[postgres] Rows skipped on id conflict")
	}
	return nil
}

func insertBatch(tx *sql.Tx, batch []*models.Project) (int64, error) {
	query, args := buildInsert(batch)
	res, err := tx.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert batch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("postgres: rows affected: %w", err)
	}
	return n, nil
}

// duplicateIDs returns every id that occurs more than once, in first-seen order.
func duplicateIDs(projects []*models.Project) []string {
	seen := make(map[string]int, len(projects))
	var dups []string
	for _, p := range projects {
		seen[p.ID]++
		if seen[p.ID] == 2 {
			dups = append(dups, p.ID)
		}
	}
	return dups
}

func buildInsert(batch []*models.Project) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*projectColumns)

	for idx, p := range batch {
		placeholders := make([]string, projectColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", idx*projectColumns+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			p.ID, p.Name, p.City, p.State, p.Neighborhood, p.Developer, p.Type,
			p.Standard, p.UnitType, p.Bedrooms, p.LaunchedValue, p.SoldValue,
			p.UnitsSold, p.TotalUnits, p.AvgPrice, p.AvgPrivateArea, p.PricePerArea,
			p.Status, p.LaunchYear, p.UpdatedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO projects (id, name, city, state, neighborhood, developer, type,
			standard, unit_type, bedrooms, launched_value, sold_value,
			units_sold, total_units, avg_price, avg_private_area, price_per_area,
			status, launch_year, updated_at)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
