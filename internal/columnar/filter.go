// Package columnar rewrites a copied columnar file in place, keeping
// only the rows whose date column exactly matches the run's target date.
// This runs after the raw copy; a failure here leaves the unfiltered
// copy as the final artifact.
package columnar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// DefaultDateColumn is the date column filtered unless the directive
// says otherwise.
const DefaultDateColumn = "date"

// Filter is the read-filter-write primitive over parquet files.
type Filter struct {
	Column string
}

func NewFilter() *Filter { return &Filter{Column: DefaultDateColumn} }

// FilterByDate rewrites the file at path keeping only rows whose date
// column equals date (YYYY-MM-DD). Returns the surviving row count.
func (f *Filter) FilterByDate(path string, date string) (int, error) {
	column := DefaultDateColumn
	if f != nil && f.Column != "" {
		column = f.Column
	}

	src, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := src.Stat()
	if err != nil {
		_ = src.Close()
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	pf, err := parquet.OpenFile(src, info.Size())
	if err != nil {
		_ = src.Close()
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	schema := pf.Schema()
	leaf, ok := schema.Lookup(column)
	if !ok {
		_ = src.Close()
		return 0, fmt.Errorf("%s has no %q column", path, column)
	}

	kept, err := matchingRows(pf, leaf.ColumnIndex, date)
	if closeErr := src.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	// Rewrite through a temp file in the same directory so the swap is
	// a rename, not a partial overwrite.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".geostage-filter-*")
	if err != nil {
		return 0, fmt.Errorf("rewrite %s: %w", path, err)
	}
	writer := parquet.NewWriter(tmp, schema)
	if len(kept) > 0 {
		if _, err := writer.WriteRows(kept); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
			return 0, fmt.Errorf("rewrite %s: %w", path, err)
		}
	}
	if err := writer.Close(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("rewrite %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("rewrite %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("rewrite %s: %w", path, err)
	}
	return len(kept), nil
}

func matchingRows(pf *parquet.File, column int, date string) ([]parquet.Row, error) {
	var kept []parquet.Row
	for _, rowGroup := range pf.RowGroups() {
		rows := rowGroup.Rows()
		buf := make([]parquet.Row, 128)
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				if rowMatchesDate(row, column, date) {
					kept = append(kept, row.Clone())
				}
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				_ = rows.Close()
				return nil, err
			}
			if n == 0 {
				break
			}
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
	}
	return kept, nil
}

func rowMatchesDate(row parquet.Row, column int, date string) bool {
	for _, value := range row {
		if value.Column() != column {
			continue
		}
		return !value.IsNull() && value.String() == date
	}
	return false
}
