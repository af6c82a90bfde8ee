package worldmodel

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/gendx/panoramix/internal/geodesy"
	"github.com/samber/lo"
)

// labelRecord is the on-disk shape of one entry in the labels blob. The
// original engine's labels ship as a compiled protobuf asset; lacking that
// schema here, the blob is a JSON array with the same fields (see
// DESIGN.md).
type labelRecord struct {
	Name string    `json:"name"`
	Lat  float64   `json:"lat"`
	Lon  float64   `json:"lon"`
	Ele  *float64  `json:"ele,omitempty"`
	Type LabelType `json:"type"`
}

// decodeLabels parses the labels blob into Mercator-space Label values.
func decodeLabels(r io.Reader) ([]Label, error) {
	var records []labelRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("worldmodel: decode labels: %w", err)
	}

	labels := make([]Label, 0, len(records))
	for _, rec := range records {
		hasElevation := rec.Ele != nil
		elevation := float64(noElevation)
		if hasElevation {
			elevation = *rec.Ele
		}
		point := geodesy.MercatorFromLatLonDeg(rec.Lat, rec.Lon, elevation)
		labels = append(labels, Label{
			Name:         rec.Name,
			Point:        point,
			Elevation:    elevation,
			Type:         rec.Type,
			HasElevation: hasElevation,
		})
	}
	return labels, nil
}

// filterLabels keeps only the labels that fall inside the Mercator square
// covered by at least one of the given tiles.
func filterLabels(labels []Label, tiles []TileInfo) []Label {
	return lo.Filter(labels, func(l Label, _ int) bool {
		for _, t := range tiles {
			if tileContains(t, l.Point) {
				return true
			}
		}
		return false
	})
}

func tileContains(t TileInfo, p geodesy.Point) bool {
	zz := math.Ldexp(1, t.Zoom)
	xMin := float64(t.X) / zz
	xMax := float64(t.X+1) / zz
	yMin := float64(t.Y) / zz
	yMax := float64(t.Y+1) / zz
	return p.X >= xMin && p.X < xMax && p.Y >= yMin && p.Y < yMax
}
