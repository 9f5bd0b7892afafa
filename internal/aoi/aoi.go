// Package aoi loads the area-of-interest geometry and filters spatial
// indexes against it. The AOI is unioned into one geometry once per run
// and shared read-only for every intersection test.
package aoi

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/peterstace/simplefeatures/geom"
)

// Load reads a GeoJSON file (a FeatureCollection or a bare geometry)
// and unions its contents into a single geometry.
func Load(path string) (geom.Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("read aoi: %w", err)
	}
	return Parse(data)
}

// Parse unions the geometries of a GeoJSON document into one geometry.
func Parse(data []byte) (geom.Geometry, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return geom.Geometry{}, fmt.Errorf("parse aoi: %w", err)
	}

	if probe.Type == "FeatureCollection" {
		var fc geom.GeoJSONFeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return geom.Geometry{}, fmt.Errorf("parse aoi feature collection: %w", err)
		}
		if len(fc) == 0 {
			return geom.Geometry{}, fmt.Errorf("aoi feature collection is empty")
		}
		union := fc[0].Geometry
		for _, feature := range fc[1:] {
			var err error
			union, err = geom.Union(union, feature.Geometry)
			if err != nil {
				return geom.Geometry{}, fmt.Errorf("union aoi features: %w", err)
			}
		}
		return union, nil
	}

	g, err := geom.UnmarshalGeoJSON(data)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("parse aoi geometry: %w", err)
	}
	return g, nil
}
