package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/services/features"
)

func TestSchemaStatements(t *testing.T) {
	stmts := SchemaStatements("coincast", "feature_rows")
	require.Len(t, stmts, 2)

	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS coincast", stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE IF NOT EXISTS coincast.feature_rows"))
	assert.Contains(t, stmts[1], "ts DateTime")
	assert.Contains(t, stmts[1], "ENGINE=MergeTree ORDER BY ts")

	// Every feature-schema field becomes a column.
	for _, name := range features.BaseSchema {
		assert.Contains(t, stmts[1], "`"+name+"` Float64")
	}
}

func TestColumnListMatchesPlaceholder(t *testing.T) {
	cols := strings.Split(columnList(), ", ")
	ph := strings.Split(strings.Trim(rowPlaceholder(), "()"), ", ")

	assert.Len(t, cols, len(features.BaseSchema)+1)
	assert.Len(t, ph, len(cols))
	assert.Equal(t, "ts", cols[0])
}

func TestKafkaRowKeyAndValue(t *testing.T) {
	ts := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	row := &models.FeatureRow{
		Timestamp: ts,
		Values:    map[string]float64{"close": 50000, "RSI": 55},
	}

	assert.Equal(t, []byte("1788177600"), rowKey(row))

	v := rowValue(row)
	assert.Equal(t, ts.Unix(), v["ts"])
	assert.Equal(t, row.Values, v["features"])
}
