package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/domain/repository"
	"CoinCast/internal/services/features"
)

// ClickHouseDataset implements DatasetStorage on a wide ClickHouse table:
// one column per feature-schema field plus the row timestamp. The column set
// is derived from the same ordered schema the models are trained on, so the
// persisted dataset and the serving table can never drift apart.
type ClickHouseDataset struct {
	db    *sql.DB
	table string
}

// NewClickHouseDataset creates ClickHouse dataset storage.
func NewClickHouseDataset(db *sql.DB, table string) repository.DatasetStorage {
	return &ClickHouseDataset{db: db, table: table}
}

// SchemaStatements returns the idempotent DDL for the dataset table.
func SchemaStatements(database, table string) []string {
	cols := make([]string, 0, len(features.BaseSchema))
	for _, name := range features.BaseSchema {
		cols = append(cols, fmt.Sprintf("`%s` Float64", name))
	}
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.%s (ts DateTime, %s) ENGINE=MergeTree ORDER BY ts",
			database, table, strings.Join(cols, ", ")),
	}
}

func (s *ClickHouseDataset) Store(ctx context.Context, row *models.FeatureRow) error {
	return s.StoreBatch(ctx, []*models.FeatureRow{row})
}

// StoreBatch inserts rows with multi-row VALUES to reduce round-trips,
// chunked to keep statements bounded.
func (s *ClickHouseDataset) StoreBatch(ctx context.Context, rows []*models.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}
	const chunkSize = 2000
	colNames := columnList()
	placeholder := rowPlaceholder()

	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*(len(features.BaseSchema)+1))
		for _, r := range rows[start:end] {
			if r == nil || r.Timestamp.IsZero() {
				continue
			}
			values = append(values, placeholder)
			args = append(args, r.Timestamp.UTC())
			for _, name := range features.BaseSchema {
				args = append(args, r.Values[name])
			}
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, colNames, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store feature rows: %w", err)
		}
	}
	return nil
}

// Query returns rows in [from, to], ascending, capped at limit.
func (s *ClickHouseDataset) Query(ctx context.Context, from, to time.Time, limit int) ([]*models.FeatureRow, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE ts >= ? AND ts <= ? ORDER BY ts ASC LIMIT ?",
		columnList(), s.table)
	rows, err := s.db.QueryContext(ctx, q, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query feature rows: %w", err)
	}
	defer rows.Close()

	var out []*models.FeatureRow
	scan := make([]interface{}, len(features.BaseSchema)+1)
	for rows.Next() {
		var ts time.Time
		vals := make([]float64, len(features.BaseSchema))
		scan[0] = &ts
		for i := range vals {
			scan[i+1] = &vals[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		m := make(map[string]float64, len(features.BaseSchema))
		for i, name := range features.BaseSchema {
			m[name] = vals[i]
		}
		out = append(out, &models.FeatureRow{Timestamp: ts.UTC(), Values: m})
	}
	return out, rows.Err()
}

func (s *ClickHouseDataset) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseDataset) Close() error {
	return nil // pool is owned by the clickhouse client
}

func columnList() string {
	cols := make([]string, 0, len(features.BaseSchema)+1)
	cols = append(cols, "ts")
	for _, name := range features.BaseSchema {
		cols = append(cols, "`"+name+"`")
	}
	return strings.Join(cols, ", ")
}

func rowPlaceholder() string {
	ph := make([]string, len(features.BaseSchema)+1)
	for i := range ph {
		ph[i] = "?"
	}
	return "(" + strings.Join(ph, ", ") + ")"
}
