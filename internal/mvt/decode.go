// Package mvt decodes elevation-contour polylines out of Mapbox Vector
// Tile messages. Wire-level unmarshaling is delegated to the protobuf
// message types generated for the vector-tile schema; this package
// supplies its own interpretation of the resulting command/geometry
// arrays, since the contour elevation and polyline semantics are specific
// to this pipeline.
package mvt

import (
	"fmt"

	"github.com/paulmach/orb/encoding/mvt/vectortile"
	"google.golang.org/protobuf/proto"
)

const (
	contourLayerName = "contour"
	elevationTagKey  = "ele"

	cmdMoveTo    = 1
	cmdLineTo    = 2
	cmdClosePath = 7

	gridMin = 0
	gridMax = 4096
)

// Polyline is a single decoded contour: an ordered sequence of grid points
// sharing one elevation.
type Polyline struct {
	Elevation int64
	Points    []GridPoint
}

// GridPoint is a raw MVT tile-local coordinate pair, conceptually in
// [0, 4096], carrying the feature's elevation as Z.
type GridPoint struct {
	X, Y int32
	Z    float64
}

// DecodeContours unmarshals raw as a vector tile and extracts every
// polyline from its "contour" layer(s). A feature missing an "ele" tag is
// skipped. A malformed geometry command stream for one feature discards
// that feature's partial polylines without aborting the rest of the tile.
func DecodeContours(raw []byte) ([]Polyline, error) {
	var tile vectortile.Tile
	if err := proto.Unmarshal(raw, &tile); err != nil {
		return nil, fmt.Errorf("mvt: unmarshal tile: %w", err)
	}

	var out []Polyline
	for _, layer := range tile.Layers {
		if layer.GetName() != contourLayerName {
			continue
		}
		keys := layer.GetKeys()
		values := layer.GetValues()

		for _, feature := range layer.GetFeatures() {
			ele, ok := featureElevation(feature.GetTags(), keys, values)
			if !ok {
				continue
			}
			polys, err := decodeGeometry(feature.GetGeometry(), ele)
			if err != nil {
				continue
			}
			out = append(out, polys...)
		}
	}
	return out, nil
}

func featureElevation(tags []uint32, keys []string, values []*vectortile.Tile_Value) (int64, bool) {
	for i := 0; i+1 < len(tags); i += 2 {
		k, v := tags[i], tags[i+1]
		if int(k) >= len(keys) || int(v) >= len(values) {
			continue
		}
		if keys[k] != elevationTagKey {
			continue
		}
		return tagValueToInt(values[v]), true
	}
	return 0, false
}

func tagValueToInt(v *vectortile.Tile_Value) int64 {
	switch {
	case v.IntValue != nil:
		return v.GetIntValue()
	case v.SintValue != nil:
		return v.GetSintValue()
	case v.UintValue != nil:
		return int64(v.GetUintValue())
	case v.DoubleValue != nil:
		return int64(v.GetDoubleValue())
	case v.FloatValue != nil:
		return int64(v.GetFloatValue())
	default:
		return 0
	}
}

func zigzagDecode(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

// decodeGeometry walks the MVT geometry command stream, building one
// polyline per moveto/closepath group.
func decodeGeometry(geometry []uint32, elevation int64) ([]Polyline, error) {
	var out []Polyline
	var cur []GridPoint
	var x, y int32

	flush := func() {
		if len(cur) > 0 {
			out = append(out, Polyline{Elevation: elevation, Points: cur})
		}
		cur = nil
	}

	i := 0
	for i < len(geometry) {
		cmdWord := geometry[i]
		i++
		cmdID := cmdWord & 0x7
		count := cmdWord >> 3

		switch cmdID {
		case cmdMoveTo:
			flush()
			for n := uint32(0); n < count; n++ {
				if i+1 >= len(geometry) {
					return nil, fmt.Errorf("mvt: truncated moveto params")
				}
				x += zigzagDecode(geometry[i])
				y += zigzagDecode(geometry[i+1])
				i += 2
				if validGridPoint(x, y) {
					cur = append(cur, GridPoint{X: x, Y: y, Z: float64(elevation)})
				}
			}

		case cmdLineTo:
			for n := uint32(0); n < count; n++ {
				if i+1 >= len(geometry) {
					return nil, fmt.Errorf("mvt: truncated lineto params")
				}
				x += zigzagDecode(geometry[i])
				y += zigzagDecode(geometry[i+1])
				i += 2
				if validGridPoint(x, y) {
					cur = append(cur, GridPoint{X: x, Y: y, Z: float64(elevation)})
				}
			}

		case cmdClosePath:
			if len(cur) > 0 {
				cur = append(cur, cur[0])
			}
			flush()

		default:
			return nil, fmt.Errorf("mvt: unknown command id %d", cmdID)
		}
	}

	flush()
	return out, nil
}

func validGridPoint(x, y int32) bool {
	return x >= gridMin && x <= gridMax && y >= gridMin && y <= gridMax
}
