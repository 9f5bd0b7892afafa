package vector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/peterstace/simplefeatures/geom"

	"github.com/geostage-labs/geostage-go/internal/fsx"
)

// geometryColumn is the WKB geometry column of a GeoParquet file.
const geometryColumn = "geometry"

func subsetGeoParquet(ctx context.Context, fsys fsx.FS, src, dest string, aoi geom.Geometry) (int, error) {
	local, cleanup, err := localCopy(ctx, fsys, src)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	f, err := os.Open(local)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", src, err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", src, err)
	}
	schema := pf.Schema()
	leaf, ok := schema.Lookup(geometryColumn)
	if !ok {
		return 0, fmt.Errorf("%s has no %q column", src, geometryColumn)
	}

	aoiBounds := aoi.Envelope().AsGeometry()
	var kept []parquet.Row
	for _, rowGroup := range pf.RowGroups() {
		rows := rowGroup.Rows()
		buf := make([]parquet.Row, 128)
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				match, matchErr := rowIntersects(row, leaf.ColumnIndex, aoi, aoiBounds)
				if matchErr != nil {
					_ = rows.Close()
					return 0, fmt.Errorf("%s: %w", src, matchErr)
				}
				if match {
					kept = append(kept, row.Clone())
				}
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				_ = rows.Close()
				return 0, fmt.Errorf("read rows %s: %w", src, err)
			}
			if n == 0 {
				break
			}
		}
		if err := rows.Close(); err != nil {
			return 0, fmt.Errorf("close rows %s: %w", src, err)
		}
	}

	if err := writeRows(dest, schema, kept); err != nil {
		return 0, err
	}
	return len(kept), nil
}

func rowIntersects(row parquet.Row, column int, aoi, aoiBounds geom.Geometry) (bool, error) {
	for _, value := range row {
		if value.Column() != column {
			continue
		}
		if value.IsNull() {
			return false, nil
		}
		g, err := geom.UnmarshalWKB(value.ByteArray())
		if err != nil {
			return false, fmt.Errorf("decode geometry: %w", err)
		}
		return keep(g, aoi, aoiBounds), nil
	}
	return false, nil
}

func writeRows(dest string, schema *parquet.Schema, rows []parquet.Row) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	writer := parquet.NewWriter(out, schema)
	if len(rows) > 0 {
		if _, err := writer.WriteRows(rows); err != nil {
			_ = out.Close()
			return fmt.Errorf("write %s: %w", dest, err)
		}
	}
	if err := writer.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("close %s: %w", dest, err)
	}
	return out.Close()
}

// localCopy makes src readable through the local filesystem, staging a
// temporary copy when the source is remote.
func localCopy(ctx context.Context, fsys fsx.FS, src string) (string, func(), error) {
	if _, ok := fsys.(*fsx.Local); ok {
		return src, func() {}, nil
	}
	rc, err := fsys.Open(ctx, src)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "geostage-vector-*.parquet")
	if err != nil {
		return "", nil, fmt.Errorf("stage %s: %w", src, err)
	}
	if _, err := io.Copy(tmp, rc); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("stage %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("stage %s: %w", src, err)
	}
	name := tmp.Name()
	return name, func() { _ = os.Remove(name) }, nil
}
