package geotiff

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// buildTIFF assembles a minimal little-endian classic TIFF carrying just
// the georeferencing tags the parser consumes.
func buildTIFF(width, height uint16, scale [3]float64, tiepoint [6]float64, geoKeys []uint16) []byte {
	bo := binary.LittleEndian
	const (
		ifdOffset      = 8
		entryCount     = 5
		ifdSize        = 2 + entryCount*12 + 4
		scaleOffset    = ifdOffset + ifdSize
		tiepointOffset = scaleOffset + 3*8
		geoKeyOffset   = tiepointOffset + 6*8
	)

	var buf bytes.Buffer
	buf.WriteString("II")
	binary.Write(&buf, bo, uint16(42))
	binary.Write(&buf, bo, uint32(ifdOffset))

	binary.Write(&buf, bo, uint16(entryCount))
	writeEntry := func(tag, fieldType uint16, count, value uint32) {
		binary.Write(&buf, bo, tag)
		binary.Write(&buf, bo, fieldType)
		binary.Write(&buf, bo, count)
		binary.Write(&buf, bo, value)
	}
	writeEntry(tagImageWidth, fieldShort, 1, uint32(width))
	writeEntry(tagImageLength, fieldShort, 1, uint32(height))
	writeEntry(tagModelPixelScale, fieldDouble, 3, scaleOffset)
	writeEntry(tagModelTiepoint, fieldDouble, 6, tiepointOffset)
	writeEntry(tagGeoKeyDirectory, fieldShort, uint32(len(geoKeys)), geoKeyOffset)
	binary.Write(&buf, bo, uint32(0)) // no next IFD

	for _, v := range scale {
		binary.Write(&buf, bo, math.Float64bits(v))
	}
	for _, v := range tiepoint {
		binary.Write(&buf, bo, math.Float64bits(v))
	}
	for _, v := range geoKeys {
		binary.Write(&buf, bo, v)
	}
	return buf.Bytes()
}

func TestReadExtent_ProjectedCRS(t *testing.T) {
	data := buildTIFF(
		10, 20,
		[3]float64{10, 10, 0},
		[6]float64{0, 0, 0, 500000, 4500000, 0},
		[]uint16{
			1, 1, 0, 2,
			keyGTModelType, 0, 1, 1,
			keyProjectedCSType, 0, 1, 32633,
		},
	)
	extent, err := ReadExtent(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadExtent() err=%v", err)
	}
	if extent.CRS != "EPSG:32633" {
		t.Fatalf("CRS=%q, want EPSG:32633", extent.CRS)
	}
	if extent.MinX != 500000 || extent.MaxY != 4500000 {
		t.Fatalf("origin=(%v,%v), want (500000,4500000)", extent.MinX, extent.MaxY)
	}
	if extent.MaxX != 500100 {
		t.Fatalf("MaxX=%v, want 500100", extent.MaxX)
	}
	if extent.MinY != 4499800 {
		t.Fatalf("MinY=%v, want 4499800", extent.MinY)
	}
}

func TestReadExtent_GeographicFallback(t *testing.T) {
	data := buildTIFF(
		100, 100,
		[3]float64{0.01, 0.01, 0},
		[6]float64{0, 0, 0, 12, 47, 0},
		[]uint16{
			1, 1, 0, 2,
			keyGTModelType, 0, 1, 2,
			keyGeographicType, 0, 1, 4326,
		},
	)
	extent, err := ReadExtent(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadExtent() err=%v", err)
	}
	if extent.CRS != "EPSG:4326" {
		t.Fatalf("CRS=%q, want EPSG:4326", extent.CRS)
	}
	if extent.MaxX != 13 || extent.MinY != 46 {
		t.Fatalf("extent=(%v..%v, %v..%v)", extent.MinX, extent.MaxX, extent.MinY, extent.MaxY)
	}
}

func TestReadExtent_TiepointOffsetFromOrigin(t *testing.T) {
	// Tiepoint anchored at pixel (2,3) rather than the corner.
	data := buildTIFF(
		10, 10,
		[3]float64{1, 1, 0},
		[6]float64{2, 3, 0, 102, 97, 0},
		[]uint16{
			1, 1, 0, 1,
			keyProjectedCSType, 0, 1, 32633,
		},
	)
	extent, err := ReadExtent(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadExtent() err=%v", err)
	}
	if extent.MinX != 100 || extent.MaxY != 100 {
		t.Fatalf("origin=(%v,%v), want (100,100)", extent.MinX, extent.MaxY)
	}
}

func TestReadExtent_NotATIFF(t *testing.T) {
	if _, err := ReadExtent(bytes.NewReader([]byte("PK\x03\x04 definitely a zip"))); err == nil {
		t.Fatal("ReadExtent() accepted non-TIFF input")
	}
}

func TestReadExtent_NoCRSDeclared(t *testing.T) {
	data := buildTIFF(
		10, 10,
		[3]float64{1, 1, 0},
		[6]float64{0, 0, 0, 0, 10, 0},
		[]uint16{
			1, 1, 0, 1,
			keyGTModelType, 0, 1, 1,
		},
	)
	if _, err := ReadExtent(bytes.NewReader(data)); err == nil {
		t.Fatal("ReadExtent() accepted a file without an EPSG CRS")
	}
}
