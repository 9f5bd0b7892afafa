// Package granule locates dataset files whose filename encodes a target
// acquisition date. The filename grammars are fixed by the existing
// archives and must not drift.
package granule

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/geostage-labs/geostage-go/internal/domain"
	"github.com/geostage-labs/geostage-go/internal/fsx"
)

var (
	// Sentinel-2 names embed an 8-digit date immediately followed by a
	// 6-digit time token, e.g. S2A_MSIL2A_20250401T103021_T33UUP.tif.
	sentinel2DateRe = regexp.MustCompile(`S2.\w+_(\d{8})T\d{6}_`)
	// Landsat names embed a 6-digit path/row token, then the date, then
	// the processing-level suffix, e.g. LC08_L2SP_190027_20250401_02_T1.tif.
	landsatDateRe = regexp.MustCompile(`LC.._L2SP_\d{6}_(\d{8})_`)
	// HDF names carry the date as the first 8-digit run anywhere in the
	// name. First-match extraction is a known ambiguity for names with a
	// second 8-digit run; the grammar owner has not changed it.
	hdfDateRe = regexp.MustCompile(`(\d{8})`)
)

// extractRasterDate pulls the acquisition date token out of a raster
// filename, selecting the grammar by sensor family. Returns "" when the
// name matches no known grammar.
func extractRasterDate(name string) string {
	var m []string
	switch {
	case strings.Contains(name, "S2"):
		m = sentinel2DateRe.FindStringSubmatch(name)
	case strings.Contains(name, "LC"):
		m = landsatDateRe.FindStringSubmatch(name)
	}
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ListRastersForDate returns the paths under <root>/<dataset> whose
// filename encodes dateToken (YYYYMMDD), restricted to the family's
// recognized extension. No match anywhere is an empty result, not an
// error. A missing directory surfaces as the backend's lookup error;
// fatality is the caller's policy decision.
func ListRastersForDate(ctx context.Context, fsys fsx.FS, root string, dataset domain.RasterDataset, dateToken string) ([]string, error) {
	files, err := fsys.List(ctx, path.Join(root, dataset.String()))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, f := range files {
		name := path.Base(f)
		if path.Ext(name) != dataset.Extension() {
			continue
		}
		if extractRasterDate(name) == dateToken {
			out = append(out, f)
		}
	}
	return out, nil
}

// ListHDFForDate returns the paths under <root>/<dataset> whose filename
// contains dateToken as its first 8-digit run.
func ListHDFForDate(ctx context.Context, fsys fsx.FS, root string, dataset domain.HDFDataset, dateToken string) ([]string, error) {
	files, err := fsys.List(ctx, path.Join(root, dataset.String()))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, f := range files {
		name := path.Base(f)
		if path.Ext(name) != dataset.Extension() {
			continue
		}
		m := hdfDateRe.FindStringSubmatch(name)
		if len(m) == 2 && m[1] == dateToken {
			out = append(out, f)
		}
	}
	return out, nil
}
