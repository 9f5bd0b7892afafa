package aoi

import (
	"github.com/peterstace/simplefeatures/geom"

	"github.com/geostage-labs/geostage-go/internal/tileindex"
)

// FilterKind tags the three distinct filter results. Empty-because-no-
// candidates and empty-because-nothing-intersected are different
// conditions and callers log them differently.
type FilterKind int

const (
	NoCandidates FilterKind = iota
	NoIntersection
	Matches
)

func (k FilterKind) String() string {
	switch k {
	case NoCandidates:
		return "no-candidates"
	case NoIntersection:
		return "no-intersection"
	case Matches:
		return "matches"
	}
	return "unknown"
}

// FilterOutcome is the result of intersecting a spatial index with the
// AOI. Paths is non-empty exactly when Kind is Matches.
type FilterOutcome struct {
	Kind  FilterKind
	Paths []string
}

// Filter returns the path tokens of the records whose geometry
// intersects the AOI. Boundary touching counts as intersecting.
func Filter(index []tileindex.Record, aoi geom.Geometry) FilterOutcome {
	if len(index) == 0 {
		return FilterOutcome{Kind: NoCandidates}
	}
	var paths []string
	for _, record := range index {
		if geom.Intersects(record.Geometry, aoi) {
			paths = append(paths, record.Path)
		}
	}
	if len(paths) == 0 {
		return FilterOutcome{Kind: NoIntersection}
	}
	return FilterOutcome{Kind: Matches, Paths: paths}
}
