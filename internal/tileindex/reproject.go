package tileindex

import (
	"fmt"

	"github.com/twpayne/go-proj/v11"
)

// ProjReprojector reprojects rectangle batches with PROJ. One
// transformation is created per batch, not per rectangle: per-file
// transformation setup is wasted work when the frame is uniform across
// the batch.
type ProjReprojector struct{}

func NewProjReprojector() *ProjReprojector { return &ProjReprojector{} }

func (r *ProjReprojector) ToCanonical(sourceCRS string, rects []Rect) ([]Rect, error) {
	pj, err := proj.NewCRSToCRS(sourceCRS, CanonicalCRS, nil)
	if err != nil {
		return nil, fmt.Errorf("create transformation %s -> %s: %w", sourceCRS, CanonicalCRS, err)
	}
	// Normalize both frames to x=easting/longitude, y=northing/latitude
	// so rectangle corners keep their meaning across the transform.
	pj, err = pj.NormalizeForVisualization()
	if err != nil {
		return nil, fmt.Errorf("normalize transformation: %w", err)
	}

	out := make([]Rect, len(rects))
	for i, rect := range rects {
		corners := [4]proj.Coord{
			proj.NewCoord(rect.MinX, rect.MinY, 0, 0),
			proj.NewCoord(rect.MaxX, rect.MinY, 0, 0),
			proj.NewCoord(rect.MaxX, rect.MaxY, 0, 0),
			proj.NewCoord(rect.MinX, rect.MaxY, 0, 0),
		}
		first := true
		var res Rect
		for _, c := range corners {
			t, err := pj.Forward(c)
			if err != nil {
				return nil, fmt.Errorf("transform corner: %w", err)
			}
			x, y := t.X(), t.Y()
			if first {
				res = Rect{MinX: x, MinY: y, MaxX: x, MaxY: y}
				first = false
				continue
			}
			if x < res.MinX {
				res.MinX = x
			}
			if x > res.MaxX {
				res.MaxX = x
			}
			if y < res.MinY {
				res.MinY = y
			}
			if y > res.MaxY {
				res.MaxY = y
			}
		}
		out[i] = res
	}
	return out, nil
}
