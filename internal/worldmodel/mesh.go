package worldmodel

import (
	"math"

	"github.com/gendx/panoramix/internal/geodesy"
	"github.com/gendx/panoramix/internal/geom"
)

// buildMesh flattens a finished triangulation into renderer-ready buffers,
// anchored at origin. Triangle winding is inverted (swap the last two
// indices of each triangle) and vertex normals are negated, to match the
// model frame's handedness versus the Mercator frame the triangulation was
// built in.
func buildMesh(d *geom.Delaunay, origin geodesy.Origin, useEarthCurvature bool) *Mesh {
	stride := 3
	if useEarthCurvature {
		stride = 4
	}
	mesh := &Mesh{VertexStride: stride}

	for _, p := range d.Pool.Points {
		q := origin.MercatorToModel(p)
		mesh.Vertices = append(mesh.Vertices, q.X, q.Y, q.Z)
		if useEarthCurvature {
			mesh.Vertices = append(mesh.Vertices, p.Z)
		}
	}
	mesh.PointCount = len(d.Pool.Points)

	for v := range d.Pool.Points {
		nx, ny, nz := averageVertexNormal(d, v)
		mesh.Normals = append(mesh.Normals, -nx, -ny, -nz)
	}

	for _, otri := range d.ValidTriangles() {
		a := d.Pool.Org(otri)
		b := d.Pool.Dest(otri)
		c := d.Pool.Apex(otri)
		mesh.Indices = append(mesh.Indices, uint32(a), uint32(c), uint32(b))
		mesh.TriangleCount++
	}

	return mesh
}

// averageVertexNormal sums the face normal of every real (non-ghost)
// triangle incident to vertex v, walking the fan via Oprev starting from
// the org-anchored handle, then normalizes the result.
func averageVertexNormal(d *geom.Delaunay, v int) (nx, ny, nz float64) {
	incident, ok := d.IncidentOTri(v)
	if !ok {
		return 0, 0, 0
	}
	start := incident.Prev()

	iter := start
	for {
		if d.Pool.Valid(iter) {
			fx, fy, fz := d.Pool.Normal(iter)
			nx += fx
			ny += fy
			nz += fz
		}
		iter = d.Pool.Oprev(iter)
		if iter == start {
			break
		}
	}

	length := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if length == 0 {
		return 0, 0, 0
	}
	return nx / length, ny / length, nz / length
}
