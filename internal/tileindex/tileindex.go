// Package tileindex builds the in-memory spatial index used for AOI
// filtering: one footprint record per granule, normalized to EPSG:4326.
// The index is rebuilt per (tier, dataset) batch and never cached.
package tileindex

import (
	"context"
	"strconv"
	"strings"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/geostage-labs/geostage-go/internal/domain"
	"github.com/geostage-labs/geostage-go/internal/fsx"
)

// CanonicalCRS is the geographic frame every record is normalized to.
const CanonicalCRS = "EPSG:4326"

// Record pairs a footprint polygon in the canonical frame with the
// source path it came from. The path is an opaque token: it is always
// the original input path, never re-derived from the opened file.
type Record struct {
	Geometry geom.Geometry
	Path     string
}

// Rect is an axis-aligned rectangle in some native frame.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// FootprintReader reads a raster granule's bounding box and native
// coordinate reference system without touching pixel data.
type FootprintReader interface {
	ReadFootprint(ctx context.Context, fsys fsx.FS, path string) (Rect, string, error)
}

// Reprojector transforms a whole batch of rectangles from one frame to
// the canonical geographic frame in a single pass.
type Reprojector interface {
	ToCanonical(sourceCRS string, rects []Rect) ([]Rect, error)
}

// CoordReader reads the bounding-polygon latitude and longitude arrays
// from a swath HDF granule.
type CoordReader interface {
	ReadBoundingPolygon(ctx context.Context, fsys fsx.FS, path string) (lats, lons []float64, err error)
}

// BuildRaster reads every granule's bounding box, then, if the batch's
// native frame is not the canonical one, reprojects all rectangles in
// one batch pass. The frame is taken from the first granule and assumed
// uniform across the batch. Any unreadable file aborts the whole batch.
// On success the record count equals the input path count.
func BuildRaster(ctx context.Context, fsys fsx.FS, paths []string, reader FootprintReader, reproj Reprojector) ([]Record, error) {
	rects := make([]Rect, 0, len(paths))
	batchCRS := ""
	for _, p := range paths {
		rect, crs, err := reader.ReadFootprint(ctx, fsys, p)
		if err != nil {
			return nil, &domain.IndexBuildError{Path: p, Detail: "read footprint", Err: err}
		}
		if batchCRS == "" {
			batchCRS = crs
		}
		rects = append(rects, rect)
	}

	if batchCRS != "" && batchCRS != CanonicalCRS {
		reprojected, err := reproj.ToCanonical(batchCRS, rects)
		if err != nil {
			return nil, &domain.IndexBuildError{Detail: "reproject batch to " + CanonicalCRS, Err: err}
		}
		rects = reprojected
	}

	records := make([]Record, 0, len(paths))
	for i, p := range paths {
		g, err := rectGeometry(rects[i])
		if err != nil {
			return nil, &domain.IndexBuildError{Path: p, Detail: "build footprint geometry", Err: err}
		}
		records = append(records, Record{Geometry: g, Path: p})
	}
	return records, nil
}

// BuildHDF zips each granule's latitude and longitude arrays pairwise,
// in order, into a closed polygon ring. A length mismatch in any file
// aborts the whole batch, naming the offending file.
func BuildHDF(ctx context.Context, fsys fsx.FS, paths []string, coords CoordReader) ([]Record, error) {
	records := make([]Record, 0, len(paths))
	for _, p := range paths {
		lats, lons, err := coords.ReadBoundingPolygon(ctx, fsys, p)
		if err != nil {
			return nil, &domain.IndexBuildError{Path: p, Detail: "read bounding polygon", Err: err}
		}
		if len(lats) != len(lons) {
			return nil, &domain.IndexBuildError{
				Path:   p,
				Detail: "latitude and longitude arrays have different lengths",
			}
		}
		ring := make([]float64, 0, 2*len(lats)+2)
		for i := range lats {
			ring = append(ring, lons[i], lats[i])
		}
		g, err := ringGeometry(ring)
		if err != nil {
			return nil, &domain.IndexBuildError{Path: p, Detail: "build footprint geometry", Err: err}
		}
		records = append(records, Record{Geometry: g, Path: p})
	}
	return records, nil
}

func rectGeometry(r Rect) (geom.Geometry, error) {
	return ringGeometry([]float64{
		r.MinX, r.MinY,
		r.MaxX, r.MinY,
		r.MaxX, r.MaxY,
		r.MinX, r.MaxY,
	})
}

// ringGeometry builds a polygon from flat x,y pairs, closing the ring
// when the input does not.
func ringGeometry(xy []float64) (geom.Geometry, error) {
	n := len(xy) / 2
	closed := n > 0 && xy[0] == xy[2*n-2] && xy[1] == xy[2*n-1]

	var sb strings.Builder
	sb.WriteString("POLYGON((")
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(xy[2*i], 'f', -1, 64))
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(xy[2*i+1], 'f', -1, 64))
	}
	if !closed {
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(xy[0], 'f', -1, 64))
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(xy[1], 'f', -1, 64))
	}
	sb.WriteString("))")
	return geom.UnmarshalWKT(sb.String())
}
