package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
)

// Querier is the subset of pgx shared by pools, connections and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// RecordStore is the PostgreSQL records.Store.
type RecordStore struct {
	db Querier
}

// NewRecordStore creates a RecordStore. Pass a *pgxpool.Pool in production.
func NewRecordStore(db Querier) *RecordStore {
	return &RecordStore{db: db}
}

func (s *RecordStore) FindMany(ctx context.Context, q records.Query) ([]records.Record, error) {
	sql, args, err := BuildFindMany(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("find many in %s: %w", q.Collection, err)
	}
	return rows, nil
}

func (s *RecordStore) FindRanked(ctx context.Context, q records.RankedQuery) ([]records.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.Empty() {
		return nil, nil
	}
	sql, args, err := BuildFindRanked(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("ranked search in %s: %w", q.Collection, err)
	}
	return rows, nil
}

func (s *RecordStore) query(ctx context.Context, sql string, args []interface{}) ([]records.Record, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]records.Record, len(maps))
	for i, m := range maps {
		out[i] = NormalizeRow(m)
	}
	return out, nil
}

// NormalizeRow converts pgx-decoded values into JSON-friendly ones.
func NormalizeRow(m map[string]interface{}) records.Record {
	rec := make(records.Record, len(m))
	for k, v := range m {
		rec[k] = normalizeValue(v)
	}
	return rec
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	}
	return v
}
