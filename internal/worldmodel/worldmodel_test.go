package worldmodel

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gendx/panoramix/internal/geodesy"
	"github.com/gendx/panoramix/internal/geom"
)

func tileKey(t TileInfo) [3]int { return [3]int{t.Zoom, t.X, t.Y} }

func TestGenTileListCoversEveryZoomLevel(t *testing.T) {
	tiles := genTileList(8600, 5900, 14, 11)
	require.NotEmpty(t, tiles)

	byZoom := map[int]int{}
	for _, ti := range tiles {
		byZoom[ti.Zoom]++
		require.True(t, ti.Zoom <= 14 && ti.Zoom >= 11)
	}
	for z := 11; z <= 14; z++ {
		require.Greater(t, byZoom[z], 0, "expected tiles at zoom %d", z)
	}
}

func TestGenTileListHasNoDuplicates(t *testing.T) {
	tiles := genTileList(8600, 5900, 14, 11)
	seen := make(map[[3]int]bool)
	for _, ti := range tiles {
		k := tileKey(ti)
		require.False(t, seen[k], "duplicate tile %v", ti)
		seen[k] = true
	}
}

func TestGenTileListStopsAtMinZoom(t *testing.T) {
	tiles := genTileList(100, 100, 11, 11)
	for _, ti := range tiles {
		require.Equal(t, 11, ti.Zoom)
	}
}

func TestGenTileListClipsOutOfRangeCoordinates(t *testing.T) {
	// Near the origin corner, the padded coarsest-level block runs
	// negative; those entries must be dropped rather than wrapping.
	tiles := genTileList(0, 0, 12, 11)
	for _, ti := range tiles {
		zz := 1 << uint(ti.Zoom)
		require.True(t, ti.X >= 0 && ti.X < zz)
		require.True(t, ti.Y >= 0 && ti.Y < zz)
	}
}

func buildSquareDelaunay(t *testing.T) *geom.Delaunay {
	t.Helper()
	points := []geom.Point{
		{X: 0, Y: 0, Z: 10},
		{X: 1, Y: 0, Z: 20},
		{X: 0, Y: 1, Z: 30},
		{X: 1, Y: 1, Z: 40},
		{X: 0.5, Y: 0.5, Z: 25},
	}
	d, _ := geom.Triangulate(points)
	return d
}

func TestBuildMeshProducesConsistentBuffers(t *testing.T) {
	d := buildSquareDelaunay(t)
	origin := geodesy.NewOrigin(0, 0, geodesy.ModelFlat)

	mesh := buildMesh(d, origin, false)
	require.Equal(t, 3, mesh.VertexStride)
	require.Equal(t, len(d.Pool.Points), mesh.PointCount)
	require.Len(t, mesh.Vertices, mesh.PointCount*3)
	require.Len(t, mesh.Normals, mesh.PointCount*3)
	require.Greater(t, mesh.TriangleCount, 0)
	require.Len(t, mesh.Indices, mesh.TriangleCount*3)

	for i := 0; i < len(mesh.Indices); i += 3 {
		a, b, c := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
		require.Less(t, a, uint32(mesh.PointCount))
		require.Less(t, b, uint32(mesh.PointCount))
		require.Less(t, c, uint32(mesh.PointCount))
	}
}

func TestBuildMeshWithEarthCurvatureAddsFourthComponent(t *testing.T) {
	d := buildSquareDelaunay(t)
	origin := geodesy.NewOrigin(0, 0, geodesy.ModelSpherical)

	mesh := buildMesh(d, origin, true)
	require.Equal(t, 4, mesh.VertexStride)
	require.Len(t, mesh.Vertices, mesh.PointCount*4)
}

func TestAverageVertexNormalIsUnitLength(t *testing.T) {
	d := buildSquareDelaunay(t)
	for v := range d.Pool.Points {
		nx, ny, nz := averageVertexNormal(d, v)
		length := nx*nx + ny*ny + nz*nz
		if length == 0 {
			continue
		}
		require.InDelta(t, 1.0, length, 1e-9)
	}
}

func TestFilterLabelsKeepsOnlyLabelsWithinTiles(t *testing.T) {
	tiles := []TileInfo{{Zoom: 1, X: 0, Y: 0}}
	labels := []Label{
		{Name: "inside", Point: geodesy.Point{X: 0.25, Y: 0.25}},
		{Name: "outside", Point: geodesy.Point{X: 0.75, Y: 0.75}},
	}

	visible := filterLabels(labels, tiles)
	require.Len(t, visible, 1)
	require.Equal(t, "inside", visible[0].Name)
}

func TestSnapLabelsSortsByDescendingElevation(t *testing.T) {
	d := buildSquareDelaunay(t)
	origin := geodesy.NewOrigin(0, 0, geodesy.ModelFlat)

	labels := []Label{
		{Name: "a", Point: geodesy.Point{X: 0.2, Y: 0.2}},
		{Name: "b", Point: geodesy.Point{X: 0.6, Y: 0.6}},
		{Name: "tagged", Point: geodesy.Point{X: 0.3, Y: 0.3}, Elevation: 9999, HasElevation: true},
	}

	visible := snapLabels(d, labels, origin)
	require.Len(t, visible, 3)
	require.True(t, sort.SliceIsSorted(visible, func(i, j int) bool {
		return visible[i].ElevationEstimate() > visible[j].ElevationEstimate()
	}))
	require.Equal(t, "tagged", visible[0].Name)
}

func TestLabelElevationEstimatePrefersTaggedValue(t *testing.T) {
	tagged := Label{Elevation: 1200, HasElevation: true, Point: geodesy.Point{Z: 50}}
	require.Equal(t, 1200.0, tagged.ElevationEstimate())

	untagged := Label{HasElevation: false, Point: geodesy.Point{Z: 50}}
	require.Equal(t, 50.0, untagged.ElevationEstimate())
}

func TestEncodeDecodeXYZRoundTrips(t *testing.T) {
	points := []geodesy.Point{
		{X: 0.1, Y: 0.2, Z: 3.4},
		{X: -1.5, Y: 2.25, Z: 0},
	}

	buf := encodeXYZ(points)
	require.Len(t, buf, 24*len(points))

	decoded, err := decodeXYZ(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, points, decoded)
}

func TestDecodeXYZRejectsCorruptPayload(t *testing.T) {
	_, err := decodeXYZ(bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
}
