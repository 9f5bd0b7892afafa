// Package vector subsets vector feature sources against the AOI: a
// coarse bounding-rectangle prefilter first, then an exact geometry
// intersection on the surviving features.
package vector

import (
	"context"
	"path"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/geostage-labs/geostage-go/internal/domain"
	"github.com/geostage-labs/geostage-go/internal/fsx"
)

// Subset reads the vector source at src, keeps the features whose
// geometry intersects the AOI, and writes the result to dest. The
// container format comes from the file extension; the set is closed and
// anything else is a configuration error, never a silent skip. An empty
// result is valid output and still written.
func Subset(ctx context.Context, fsys fsx.FS, src, dest string, aoi geom.Geometry) (int, error) {
	switch path.Ext(src) {
	case ".geojson":
		return subsetGeoJSON(ctx, fsys, src, dest, aoi)
	case ".parquet":
		return subsetGeoParquet(ctx, fsys, src, dest, aoi)
	}
	return 0, domain.NewConfigurationError("unsupported vector file type %q (want .geojson or .parquet)", path.Ext(src))
}

// keep applies the two-step filter to one geometry: envelope overlap
// with the AOI's bounding rectangle, then exact intersection.
func keep(g geom.Geometry, aoi, aoiBounds geom.Geometry) bool {
	if !geom.Intersects(g.Envelope().AsGeometry(), aoiBounds) {
		return false
	}
	return geom.Intersects(g, aoi)
}
