package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/roadsafe/internal/domain"
	"github.com/kailas-cloud/roadsafe/internal/domain/record"
)

// ParquetSource reads the corpus from a Parquet file. Columns are resolved
// by name, so column order and extra columns do not matter.
type ParquetSource struct {
	path string
}

// NewParquetSource creates a Parquet file source.
func NewParquetSource(path string) *ParquetSource {
	return &ParquetSource{path: filepath.Clean(path)}
}

// recordColumns holds leaf column indexes, -1 when absent.
type recordColumns struct {
	problem, kind, category, data, clause int
}

func resolveRecordColumns(pf *parquet.File) (recordColumns, error) {
	cols := recordColumns{problem: -1, kind: -1, category: -1, data: -1, clause: -1}
	for i, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			continue
		}
		switch strings.ToLower(path[0]) {
		case ColProblem:
			cols.problem = i
		case ColType:
			cols.kind = i
		case ColCategory:
			cols.category = i
		case ColData:
			cols.data = i
		case ColClause:
			cols.clause = i
		}
	}
	switch {
	case cols.problem < 0:
		return cols, fmt.Errorf("missing required column %q", ColProblem)
	case cols.data < 0:
		return cols, fmt.Errorf("missing required column %q", ColData)
	case cols.clause < 0:
		return cols, fmt.Errorf("missing required column %q", ColClause)
	}
	return cols, nil
}

// Load reads every row group of the file.
func (s *ParquetSource) Load(_ context.Context) ([]record.Record, error) {
	records, err := s.read()
	if err != nil {
		return nil, fmt.Errorf("%w: parquet %s: %w", domain.ErrDataUnavailable, s.path, err)
	}
	return records, nil
}

func (s *ParquetSource) read() ([]record.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	cols, err := resolveRecordColumns(pf)
	if err != nil {
		return nil, err
	}

	var records []record.Record
	buf := make([]parquet.Row, 256)
	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				records = append(records, rowToRecord(len(records), buf[i], cols))
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return records, nil
}

func rowToRecord(id int, row parquet.Row, cols recordColumns) record.Record {
	var problem, kind, category, data, clause string
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		switch v.Column() {
		case cols.problem:
			problem = v.String()
		case cols.kind:
			kind = v.String()
		case cols.category:
			category = v.String()
		case cols.data:
			data = v.String()
		case cols.clause:
			clause = v.String()
		}
	}
	return record.New(id, problem, kind, category, data, clause)
}

// String names the source for logs.
func (s *ParquetSource) String() string { return "parquet:" + s.path }
