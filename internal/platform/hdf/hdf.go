// Package hdf reads the bounding-polygon coordinate arrays embedded in
// swath HDF5 granules. Only the two orbit-info datasets are touched;
// science data is never read.
package hdf

import (
	"context"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/hdf5"

	"github.com/geostage-labs/geostage-go/internal/fsx"
)

const (
	latDatasetPath = "orbit_info/bounding_polygon_lat1"
	lonDatasetPath = "orbit_info/bounding_polygon_lon1"
)

// Reader extracts bounding-polygon latitudes and longitudes from HDF5
// granules. The HDF5 library wants a local file, so remote granules are
// staged to a temporary file first.
type Reader struct{}

func NewReader() *Reader { return &Reader{} }

// ReadBoundingPolygon returns the latitude and longitude arrays from
// their fixed internal location. The arrays are returned as read; length
// agreement is the index builder's invariant to enforce.
func (r *Reader) ReadBoundingPolygon(ctx context.Context, fsys fsx.FS, name string) (lats, lons []float64, err error) {
	local := name
	if _, ok := fsys.(*fsx.Local); !ok {
		local, err = stageToTemp(ctx, fsys, name)
		if err != nil {
			return nil, nil, err
		}
		defer os.Remove(local)
	}

	f, err := hdf5.OpenFile(local, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, nil, fmt.Errorf("open hdf5 %s: %w", name, err)
	}
	defer f.Close()

	lats, err = readFloatDataset(f, latDatasetPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	lons, err = readFloatDataset(f, lonDatasetPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	return lats, lons, nil
}

func readFloatDataset(f *hdf5.File, path string) ([]float64, error) {
	ds, err := f.OpenDataset(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer ds.Close()

	space := ds.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, fmt.Errorf("dataset %s dims: %w", path, err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("dataset %s is %d-dimensional, want 1", path, len(dims))
	}
	out := make([]float64, dims[0])
	if err := ds.Read(&out); err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return out, nil
}

func stageToTemp(ctx context.Context, fsys fsx.FS, name string) (string, error) {
	src, err := fsys.Open(ctx, name)
	if err != nil {
		return "", err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "geostage-hdf-*.h5")
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	return tmp.Name(), nil
}
