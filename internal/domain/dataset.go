package domain

import "fmt"

// RasterDataset identifies an optical raster product family. The set is
// closed: directives naming anything else fail validation before any
// filesystem access.
type RasterDataset string

const (
	RasterSentinel2 RasterDataset = "sentinel-2"
	RasterLandsat   RasterDataset = "landsat"
)

func ParseRasterDataset(s string) (RasterDataset, error) {
	switch RasterDataset(s) {
	case RasterSentinel2, RasterLandsat:
		return RasterDataset(s), nil
	}
	return "", fmt.Errorf("unknown raster dataset %q", s)
}

func (d RasterDataset) String() string { return string(d) }

// Extension is the recognized file extension for the family.
func (d RasterDataset) Extension() string { return ".tif" }

// SidecarSuffix returns the suffix of the companion metadata file shipped
// alongside each granule, or "" when the family has none. Landsat tiles
// carry a .json sidecar sharing the granule's base name.
func (d RasterDataset) SidecarSuffix() string {
	if d == RasterLandsat {
		return ".json"
	}
	return ""
}

// HDFDataset identifies a swath-footprint HDF product family.
type HDFDataset string

const (
	HDFICESat2 HDFDataset = "icesat-2"
)

func ParseHDFDataset(s string) (HDFDataset, error) {
	switch HDFDataset(s) {
	case HDFICESat2:
		return HDFDataset(s), nil
	}
	return "", fmt.Errorf("unknown hdf dataset %q", s)
}

func (d HDFDataset) String() string { return string(d) }

func (d HDFDataset) Extension() string { return ".h5" }
