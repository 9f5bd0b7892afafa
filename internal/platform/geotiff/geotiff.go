// Package geotiff reads the georeferencing tags of a GeoTIFF: image
// extent and native coordinate reference system. It walks the TIFF IFD
// and the GeoKey directory only; pixel data is never touched.
package geotiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// TIFF tags consumed here.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
	tagGeoKeyDirectory = 34735
)

// GeoKeys consumed here.
const (
	keyGTModelType     = 1024
	keyGeographicType  = 2048
	keyProjectedCSType = 3072
)

const (
	fieldShort  = 3
	fieldLong   = 4
	fieldDouble = 12
)

// Extent is a granule's axis-aligned bounding box in its native frame.
type Extent struct {
	MinX, MinY, MaxX, MaxY float64
	// CRS is the native reference frame as an EPSG code string,
	// e.g. "EPSG:32633".
	CRS string
}

type parser struct {
	r  io.ReaderAt
	bo binary.ByteOrder
}

// ReadExtent parses the first IFD of a classic TIFF and derives the
// extent from ModelTiepoint, ModelPixelScale, and the image dimensions,
// and the CRS from the GeoKey directory.
func ReadExtent(r io.ReaderAt) (Extent, error) {
	var header [8]byte
	if _, err := r.ReadAt(header[:], 0); err != nil {
		return Extent{}, fmt.Errorf("read header: %w", err)
	}
	var bo binary.ByteOrder
	switch {
	case header[0] == 'I' && header[1] == 'I':
		bo = binary.LittleEndian
	case header[0] == 'M' && header[1] == 'M':
		bo = binary.BigEndian
	default:
		return Extent{}, errors.New("not a TIFF file")
	}
	if magic := bo.Uint16(header[2:4]); magic != 42 {
		return Extent{}, fmt.Errorf("unsupported TIFF magic %d (BigTIFF is not supported)", magic)
	}
	p := &parser{r: r, bo: bo}
	return p.parseIFD(int64(bo.Uint32(header[4:8])))
}

type ifdEntry struct {
	fieldType uint16
	count     uint32
	value     [4]byte
}

func (p *parser) parseIFD(offset int64) (Extent, error) {
	var countBuf [2]byte
	if _, err := p.r.ReadAt(countBuf[:], offset); err != nil {
		return Extent{}, fmt.Errorf("read IFD: %w", err)
	}
	n := int(p.bo.Uint16(countBuf[:]))

	entries := make(map[uint16]ifdEntry, n)
	buf := make([]byte, 12)
	for i := 0; i < n; i++ {
		if _, err := p.r.ReadAt(buf, offset+2+int64(i)*12); err != nil {
			return Extent{}, fmt.Errorf("read IFD entry: %w", err)
		}
		e := ifdEntry{
			fieldType: p.bo.Uint16(buf[2:4]),
			count:     p.bo.Uint32(buf[4:8]),
		}
		copy(e.value[:], buf[8:12])
		entries[p.bo.Uint16(buf[0:2])] = e
	}

	width, err := p.dimension(entries, tagImageWidth)
	if err != nil {
		return Extent{}, err
	}
	height, err := p.dimension(entries, tagImageLength)
	if err != nil {
		return Extent{}, err
	}
	scale, err := p.doubles(entries, tagModelPixelScale, 3)
	if err != nil {
		return Extent{}, err
	}
	tiepoint, err := p.doubles(entries, tagModelTiepoint, 6)
	if err != nil {
		return Extent{}, err
	}
	crs, err := p.geoKeyCRS(entries)
	if err != nil {
		return Extent{}, err
	}

	// Tiepoint maps raster position (i,j) to model position (x,y):
	// the model origin is the tiepoint shifted back by i,j pixels.
	originX := tiepoint[3] - tiepoint[0]*scale[0]
	originY := tiepoint[4] + tiepoint[1]*scale[1]
	return Extent{
		MinX: originX,
		MinY: originY - float64(height)*scale[1],
		MaxX: originX + float64(width)*scale[0],
		MaxY: originY,
		CRS:  crs,
	}, nil
}

func (p *parser) dimension(entries map[uint16]ifdEntry, tag uint16) (uint32, error) {
	e, ok := entries[tag]
	if !ok {
		return 0, fmt.Errorf("missing TIFF tag %d", tag)
	}
	switch e.fieldType {
	case fieldShort:
		return uint32(p.bo.Uint16(e.value[0:2])), nil
	case fieldLong:
		return p.bo.Uint32(e.value[:]), nil
	}
	return 0, fmt.Errorf("TIFF tag %d has unexpected type %d", tag, e.fieldType)
}

func (p *parser) doubles(entries map[uint16]ifdEntry, tag uint16, min int) ([]float64, error) {
	e, ok := entries[tag]
	if !ok {
		return nil, fmt.Errorf("missing GeoTIFF tag %d", tag)
	}
	if e.fieldType != fieldDouble {
		return nil, fmt.Errorf("GeoTIFF tag %d has unexpected type %d", tag, e.fieldType)
	}
	if int(e.count) < min {
		return nil, fmt.Errorf("GeoTIFF tag %d has %d values, want at least %d", tag, e.count, min)
	}
	raw := make([]byte, 8*e.count)
	if _, err := p.r.ReadAt(raw, int64(p.bo.Uint32(e.value[:]))); err != nil {
		return nil, fmt.Errorf("read GeoTIFF tag %d: %w", tag, err)
	}
	out := make([]float64, e.count)
	for i := range out {
		out[i] = math.Float64frombits(p.bo.Uint64(raw[8*i : 8*i+8]))
	}
	return out, nil
}

func (p *parser) geoKeyCRS(entries map[uint16]ifdEntry) (string, error) {
	e, ok := entries[tagGeoKeyDirectory]
	if !ok {
		return "", errors.New("missing GeoKey directory")
	}
	if e.fieldType != fieldShort || e.count < 4 {
		return "", errors.New("malformed GeoKey directory")
	}
	raw := make([]byte, 2*e.count)
	if _, err := p.r.ReadAt(raw, int64(p.bo.Uint32(e.value[:]))); err != nil {
		return "", fmt.Errorf("read GeoKey directory: %w", err)
	}
	shorts := make([]uint16, e.count)
	for i := range shorts {
		shorts[i] = p.bo.Uint16(raw[2*i : 2*i+2])
	}

	numKeys := int(shorts[3])
	var geographic, projected uint16
	for i := 0; i < numKeys; i++ {
		base := 4 + 4*i
		if base+3 >= len(shorts) {
			return "", errors.New("truncated GeoKey directory")
		}
		keyID, location, value := shorts[base], shorts[base+1], shorts[base+3]
		if location != 0 {
			continue // value stored in another tag; none of our keys do this
		}
		switch keyID {
		case keyGeographicType:
			geographic = value
		case keyProjectedCSType:
			projected = value
		case keyGTModelType:
			// informational; the specific CRS keys below decide
		}
	}
	if projected != 0 && projected != 32767 {
		return fmt.Sprintf("EPSG:%d", projected), nil
	}
	if geographic != 0 && geographic != 32767 {
		return fmt.Sprintf("EPSG:%d", geographic), nil
	}
	return "", errors.New("GeoKey directory declares no EPSG CRS")
}
