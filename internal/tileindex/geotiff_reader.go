package tileindex

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/geostage-labs/geostage-go/internal/fsx"
	"github.com/geostage-labs/geostage-go/internal/platform/geotiff"
)

// GeoTIFFReader reads raster footprints from GeoTIFF georeferencing tags.
type GeoTIFFReader struct{}

func NewGeoTIFFReader() *GeoTIFFReader { return &GeoTIFFReader{} }

func (g *GeoTIFFReader) ReadFootprint(ctx context.Context, fsys fsx.FS, path string) (Rect, string, error) {
	rc, err := fsys.Open(ctx, path)
	if err != nil {
		return Rect{}, "", err
	}
	defer rc.Close()

	// Local files and object-store handles both support random access;
	// anything else gets buffered.
	ra, ok := rc.(io.ReaderAt)
	if !ok {
		data, err := io.ReadAll(rc)
		if err != nil {
			return Rect{}, "", fmt.Errorf("read %s: %w", path, err)
		}
		ra = bytes.NewReader(data)
	}

	extent, err := geotiff.ReadExtent(ra)
	if err != nil {
		return Rect{}, "", fmt.Errorf("%s: %w", path, err)
	}
	rect := Rect{MinX: extent.MinX, MinY: extent.MinY, MaxX: extent.MaxX, MaxY: extent.MaxY}
	return rect, extent.CRS, nil
}
