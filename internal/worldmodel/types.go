package worldmodel

import "github.com/gendx/panoramix/internal/geodesy"

// TileInfo identifies a tile in the z/x/y pyramid.
type TileInfo struct {
	Zoom, X, Y int
}

// LabelType classifies a point-of-interest label.
type LabelType int

const (
	LabelOther LabelType = iota
	LabelPeak
	LabelSaddle
	LabelVolcano
)

// noElevation marks a label whose source data carried no elevation value.
const noElevation = -1000

// Label is a named point of interest, carried in Mercator coordinates until
// it is filtered and snapped against the current mesh.
type Label struct {
	Name         string
	Point        geodesy.Point
	Elevation    float64 // tagged elevation at load time, valid iff HasElevation
	Type         LabelType
	HasElevation bool
}

// ElevationEstimate returns the label's best-known elevation: its own
// tagged value if present, otherwise whatever z the label's point
// currently carries (e.g. after point-location snapping against the
// mesh).
func (l Label) ElevationEstimate() float64 {
	if l.HasElevation {
		return l.Elevation
	}
	return l.Point.Z
}

// tileSample is one fetched/decoded contour tile: its coordinates plus the
// Mercator points (x, y in [0,1], z = elevation in meters) it contributed.
type tileSample struct {
	info   TileInfo
	points []geodesy.Point
}

type msgKind int

const (
	msgTile msgKind = iota
	msgLabels
)

// pipelineMsg is the tagged-union message the tile/label loader tasks post
// to the pipeline's drain loop.
type pipelineMsg struct {
	kind   msgKind
	valid  bool
	tile   tileSample
	labels []Label
}

// Mesh is the flattened, renderer-ready terrain surface: a flat vertex
// buffer (VertexStride floats per vertex), a flat normal buffer (3 floats
// per vertex), and a triangle index buffer, matching the layout a GPU
// vertex buffer expects.
type Mesh struct {
	Vertices      []float64
	Normals       []float64
	Indices       []uint32
	VertexStride  int
	PointCount    int
	TriangleCount int
	TileCount     int
	LabelCount    int
}
