// Package geom implements the planar geometry primitives, balanced search
// index, triangle pool, and divide-and-conquer Delaunay triangulation that
// underlie the terrain mesh.
package geom

import "github.com/gendx/panoramix/internal/geodesy"

// Point is an alias of geodesy.Point: triangulation operates on the same
// 3D point type used throughout the pipeline, ignoring Z in 2D tests.
type Point = geodesy.Point

// Det returns twice the signed area of the triangle (p1, p2, p3).
// Positive means counter-clockwise.
func Det(p1, p2, p3 Point) float64 {
	return (p2.X-p1.X)*(p3.Y-p1.Y) - (p3.X-p1.X)*(p2.Y-p1.Y)
}

// InCircle is positive iff p4 lies strictly inside the circle through
// p1, p2, p3 (assumed CCW). Computed via the standard 4x4 determinant
// expanded against the 3x3 minors, not exact arithmetic.
func InCircle(p1, p2, p3, p4 Point) float64 {
	adx := p1.X - p4.X
	ady := p1.Y - p4.Y
	bdx := p2.X - p4.X
	bdy := p2.Y - p4.Y
	cdx := p3.X - p4.X
	cdy := p3.Y - p4.Y

	adSq := adx*adx + ady*ady
	bdSq := bdx*bdx + bdy*bdy
	cdSq := cdx*cdx + cdy*cdy

	return adx*(bdy*cdSq-cdy*bdSq) -
		ady*(bdx*cdSq-cdx*bdSq) +
		adSq*(bdx*cdy-cdx*bdy)
}

// InterSegments tests the half-open segment [p1,p2) against the closed
// segment [q1,q2]. Parallel segments never intersect. The bounds are
// deliberately asymmetric (a < 1, b <= 1): this matches the point-location
// walk's termination semantics and must not be "fixed" to a symmetric
// [0,1) x [0,1) test.
func InterSegments(p1, p2, q1, q2 Point) (a, b float64, ok bool) {
	dpx, dpy := p2.X-p1.X, p2.Y-p1.Y
	dqx, dqy := q2.X-q1.X, q2.Y-q1.Y

	denom := dpx*dqy - dpy*dqx
	if denom == 0 {
		return 0, 0, false
	}

	dx, dy := q1.X-p1.X, q1.Y-p1.Y
	a = (dx*dqy - dy*dqx) / denom
	b = (dx*dpy - dy*dpx) / denom

	if a < 0 || a >= 1 || b < 0 || b > 1 {
		return a, b, false
	}
	return a, b, true
}

// InterpolateCoeffs returns the barycentric weights of p with respect to
// triangle (p1, p2, p3); weights sum to 1.
func InterpolateCoeffs(p, p1, p2, p3 Point) (a, b, c float64) {
	denom := Det(p1, p2, p3)
	a = Det(p, p2, p3) / denom
	b = Det(p1, p, p3) / denom
	c = Det(p1, p2, p) / denom
	return
}

// Interpolate evaluates the elevation of p by barycentric blending of the
// triangle vertices' Z.
func Interpolate(p, p1, p2, p3 Point) float64 {
	a, b, c := InterpolateCoeffs(p, p1, p2, p3)
	return a*p1.Z + b*p2.Z + c*p3.Z
}
