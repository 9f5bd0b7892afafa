package tileindex

import (
	"context"
	"errors"
	"testing"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/geostage-labs/geostage-go/internal/domain"
	"github.com/geostage-labs/geostage-go/internal/fsx"
)

type fakeFootprints struct {
	rects map[string]Rect
	crs   string
	fail  string
}

func (f *fakeFootprints) ReadFootprint(ctx context.Context, fsys fsx.FS, path string) (Rect, string, error) {
	if path == f.fail {
		return Rect{}, "", errors.New("unreadable tile")
	}
	rect, ok := f.rects[path]
	if !ok {
		return Rect{}, "", errors.New("unknown path " + path)
	}
	return rect, f.crs, nil
}

type fakeReprojector struct {
	calls  int
	gotCRS string
	gotLen int
	out    []Rect
	err    error
}

func (f *fakeReprojector) ToCanonical(sourceCRS string, rects []Rect) ([]Rect, error) {
	f.calls++
	f.gotCRS = sourceCRS
	f.gotLen = len(rects)
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakeCoords struct {
	lats map[string][]float64
	lons map[string][]float64
}

func (f *fakeCoords) ReadBoundingPolygon(ctx context.Context, fsys fsx.FS, path string) ([]float64, []float64, error) {
	lats, ok := f.lats[path]
	if !ok {
		return nil, nil, errors.New("unknown path " + path)
	}
	return lats, f.lons[path], nil
}

func TestBuildRaster_CanonicalBatchSkipsReprojection(t *testing.T) {
	paths := []string{"a.tif", "b.tif", "c.tif"}
	reader := &fakeFootprints{
		crs: CanonicalCRS,
		rects: map[string]Rect{
			"a.tif": {MinX: 0, MinY: 0, MaxX: 1, MaxY: 1},
			"b.tif": {MinX: 1, MinY: 1, MaxX: 2, MaxY: 2},
			"c.tif": {MinX: 2, MinY: 2, MaxX: 3, MaxY: 3},
		},
	}
	reproj := &fakeReprojector{}

	records, err := BuildRaster(context.Background(), nil, paths, reader, reproj)
	if err != nil {
		t.Fatalf("BuildRaster() err=%v", err)
	}
	if len(records) != len(paths) {
		t.Fatalf("got %d records for %d paths", len(records), len(paths))
	}
	if reproj.calls != 0 {
		t.Fatalf("reprojector called %d times for a canonical batch", reproj.calls)
	}
	for i, r := range records {
		if r.Path != paths[i] {
			t.Fatalf("records[%d].Path=%q, want %q", i, r.Path, paths[i])
		}
	}
	if !geom.Intersects(records[0].Geometry, mustWKT(t, "POINT(0.5 0.5)")) {
		t.Fatal("first record footprint does not cover its interior")
	}
}

func TestBuildRaster_ReprojectsWholeBatchOnce(t *testing.T) {
	paths := []string{"a.tif", "b.tif"}
	reader := &fakeFootprints{
		crs: "EPSG:32633",
		rects: map[string]Rect{
			"a.tif": {MinX: 500000, MinY: 4499800, MaxX: 500100, MaxY: 4500000},
			"b.tif": {MinX: 600000, MinY: 4499800, MaxX: 600100, MaxY: 4500000},
		},
	}
	reproj := &fakeReprojector{out: []Rect{
		{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1},
		{MinX: 10, MinY: 10, MaxX: 11, MaxY: 11},
	}}

	records, err := BuildRaster(context.Background(), nil, paths, reader, reproj)
	if err != nil {
		t.Fatalf("BuildRaster() err=%v", err)
	}
	if reproj.calls != 1 {
		t.Fatalf("reprojector called %d times, want 1", reproj.calls)
	}
	if reproj.gotCRS != "EPSG:32633" || reproj.gotLen != 2 {
		t.Fatalf("reprojector got crs=%q len=%d", reproj.gotCRS, reproj.gotLen)
	}
	if !geom.Intersects(records[1].Geometry, mustWKT(t, "POINT(10.5 10.5)")) {
		t.Fatal("record geometry not built from reprojected rectangle")
	}
}

func TestBuildRaster_UnreadableFileAbortsBatch(t *testing.T) {
	paths := []string{"a.tif", "bad.tif", "c.tif"}
	reader := &fakeFootprints{
		crs:  CanonicalCRS,
		fail: "bad.tif",
		rects: map[string]Rect{
			"a.tif": {MaxX: 1, MaxY: 1},
			"c.tif": {MaxX: 1, MaxY: 1},
		},
	}
	records, err := BuildRaster(context.Background(), nil, paths, reader, &fakeReprojector{})
	if err == nil {
		t.Fatal("BuildRaster() succeeded with an unreadable file")
	}
	if records != nil {
		t.Fatal("BuildRaster() returned a partial index alongside an error")
	}
	var buildErr *domain.IndexBuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("err=%T, want IndexBuildError", err)
	}
	if buildErr.Path != "bad.tif" {
		t.Fatalf("IndexBuildError.Path=%q, want bad.tif", buildErr.Path)
	}
}

func TestBuildRaster_ReprojectionFailureAbortsBatch(t *testing.T) {
	reader := &fakeFootprints{
		crs:   "EPSG:32633",
		rects: map[string]Rect{"a.tif": {MaxX: 1, MaxY: 1}},
	}
	reproj := &fakeReprojector{err: errors.New("proj init failed")}
	_, err := BuildRaster(context.Background(), nil, []string{"a.tif"}, reader, reproj)
	var buildErr *domain.IndexBuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("err=%T, want IndexBuildError", err)
	}
}

func TestBuildHDF(t *testing.T) {
	coords := &fakeCoords{
		lats: map[string][]float64{"a.h5": {0, 0, 1}},
		lons: map[string][]float64{"a.h5": {0, 1, 0.5}},
	}
	records, err := BuildHDF(context.Background(), nil, []string{"a.h5"}, coords)
	if err != nil {
		t.Fatalf("BuildHDF() err=%v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if !geom.Intersects(records[0].Geometry, mustWKT(t, "POINT(0.5 0.3)")) {
		t.Fatal("swath polygon does not cover its interior")
	}
}

func TestBuildHDF_LengthMismatchNamesFile(t *testing.T) {
	coords := &fakeCoords{
		lats: map[string][]float64{"a.h5": {0, 0, 1}, "bad.h5": {0, 0, 1}},
		lons: map[string][]float64{"a.h5": {0, 1, 0.5}, "bad.h5": {0, 1}},
	}
	_, err := BuildHDF(context.Background(), nil, []string{"a.h5", "bad.h5"}, coords)
	if err == nil {
		t.Fatal("BuildHDF() accepted mismatched coordinate arrays")
	}
	var buildErr *domain.IndexBuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("err=%T, want IndexBuildError", err)
	}
	if buildErr.Path != "bad.h5" {
		t.Fatalf("IndexBuildError.Path=%q, want bad.h5", buildErr.Path)
	}
}

func TestRingGeometry_ClosesOpenRing(t *testing.T) {
	g, err := ringGeometry([]float64{0, 0, 1, 0, 1, 1, 0, 1})
	if err != nil {
		t.Fatalf("ringGeometry() err=%v", err)
	}
	if !geom.Intersects(g, mustWKT(t, "POINT(0.5 0.5)")) {
		t.Fatal("closed ring does not cover its interior")
	}
}

func mustWKT(t *testing.T, wkt string) geom.Geometry {
	t.Helper()
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		t.Fatalf("UnmarshalWKT(%q) err=%v", wkt, err)
	}
	return g
}
