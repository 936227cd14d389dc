package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubPool struct {
	batchResults pgx.BatchResults
	queuedBatch  *pgx.Batch
	rowsData     [][]any
	rowData      []any
	rowErr       error
	execSQL      []string
	execErr      error
}

func (s *stubPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.execSQL = append(s.execSQL, sql)
	return pgconn.CommandTag{}, s.execErr
}

func (s *stubPool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	s.queuedBatch = b
	if s.batchResults != nil {
		return s.batchResults
	}
	return &stubBatchResults{}
}

func (s *stubPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.rowsData == nil {
		return &stubRows{}, nil
	}
	dataCopy := make([][]any, len(s.rowsData))
	for i := range s.rowsData {
		row := make([]any, len(s.rowsData[i]))
		copy(row, s.rowsData[i])
		dataCopy[i] = row
	}
	return &stubRows{data: dataCopy}, nil
}

func (s *stubPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &stubRow{data: s.rowData, err: s.rowErr}
}

type stubBatchResults struct {
	execCalls int
}

func (s *stubBatchResults) Exec() (pgconn.CommandTag, error) {
	s.execCalls++
	return pgconn.CommandTag{}, nil
}

func (s *stubBatchResults) Query() (pgx.Rows, error) { return &stubRows{}, nil }

func (s *stubBatchResults) QueryRow() pgx.Row { return &stubRow{} }

func (s *stubBatchResults) Close() error { return nil }

type stubRows struct {
	data [][]any
	idx  int
}

func (r *stubRows) Close() {}

func (r *stubRows) Err() error { return nil }

func (r *stubRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *stubRows) Next() bool {
	if len(r.data) == 0 || r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.data) {
		return fmt.Errorf("invalid scan index")
	}
	return scanInto(r.data[r.idx-1], dest)
}

func (r *stubRows) Values() ([]any, error) { return nil, nil }

func (r *stubRows) RawValues() [][]byte { return nil }

func (r *stubRows) Conn() *pgx.Conn { return nil }

type stubRow struct {
	data []any
	err  error
}

func (r *stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.data == nil {
		return nil
	}
	return scanInto(r.data, dest)
}

func scanInto(row []any, dest []any) error {
	for i, d := range dest {
		switch ptr := d.(type) {
		case *string:
			*ptr = row[i].(string)
		case **string:
			if row[i] == nil {
				*ptr = nil
			} else {
				v := row[i].(string)
				*ptr = &v
			}
		case *time.Time:
			*ptr = row[i].(time.Time)
		case **time.Time:
			if row[i] == nil {
				*ptr = nil
			} else {
				v := row[i].(time.Time)
				*ptr = &v
			}
		case *float64:
			*ptr = row[i].(float64)
		case **float64:
			if row[i] == nil {
				*ptr = nil
			} else {
				v := row[i].(float64)
				*ptr = &v
			}
		case *int:
			*ptr = row[i].(int)
		case *int64:
			*ptr = row[i].(int64)
		case *bool:
			*ptr = row[i].(bool)
		case *[]string:
			*ptr = row[i].([]string)
		default:
			return fmt.Errorf("unsupported dest type %T", d)
		}
	}
	return nil
}
