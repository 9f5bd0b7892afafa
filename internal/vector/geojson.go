package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/geostage-labs/geostage-go/internal/fsx"
)

func subsetGeoJSON(ctx context.Context, fsys fsx.FS, src, dest string, aoi geom.Geometry) (int, error) {
	rc, err := fsys.Open(ctx, src)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", src, err)
	}

	var fc geom.GeoJSONFeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return 0, fmt.Errorf("parse %s: %w", src, err)
	}

	aoiBounds := aoi.Envelope().AsGeometry()
	filtered := geom.GeoJSONFeatureCollection{}
	for _, feature := range fc {
		if keep(feature.Geometry, aoi, aoiBounds) {
			filtered = append(filtered, feature)
		}
	}

	out, err := json.Marshal(filtered)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", dest, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", dest, err)
	}
	return len(filtered), nil
}
