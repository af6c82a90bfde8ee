// Package geodesy converts between geodetic (lat/lon), Web Mercator, and a
// local Cartesian model frame centered on an origin point.
package geodesy

import "math"

// EarthRadius is the default sphere radius used by the spherical model,
// in meters. Matches the reference engine's constant rather than the WGS84
// mean radius.
const EarthRadius = 6.384e6

// Point is a 3D point in whichever frame the surrounding code documents.
// 2D operations ignore Z.
type Point struct {
	X, Y, Z float64
}

// Less implements the lexicographic order (x then y) used for dedup/sort.
func (p Point) Less(o Point) bool {
	if p.X != o.X {
		return p.X < o.X
	}
	return p.Y < o.Y
}

// MercatorFromLatLonRad projects a geodetic point (radians) to Web Mercator,
// with x,y in [0,1] and z carried through unchanged as elevation.
func MercatorFromLatLonRad(latRad, lonRad, z float64) Point {
	return Point{
		X: lonRad/(2*math.Pi) + 0.5,
		Y: 0.5 - math.Asinh(math.Tan(latRad))/(2*math.Pi),
		Z: z,
	}
}

// MercatorFromLatLonDeg is MercatorFromLatLonRad for degree inputs.
func MercatorFromLatLonDeg(latDeg, lonDeg, z float64) Point {
	return MercatorFromLatLonRad(latDeg*math.Pi/180, lonDeg*math.Pi/180, z)
}

// MercatorToLatRad recovers latitude (radians) from a Mercator y coordinate.
func MercatorToLatRad(y float64) float64 {
	return math.Atan(math.Sinh(math.Pi * (1 - 2*y)))
}

// MercatorToLonRad recovers longitude (radians) from a Mercator x coordinate.
func MercatorToLonRad(x float64) float64 {
	return (x - 0.5) * 2 * math.Pi
}

// MercatorToLatDeg is MercatorToLatRad in degrees.
func MercatorToLatDeg(y float64) float64 { return MercatorToLatRad(y) * 180 / math.Pi }

// MercatorToLonDeg is MercatorToLonRad in degrees.
func MercatorToLonDeg(x float64) float64 { return MercatorToLonRad(x) * 180 / math.Pi }

// Model selects the local Cartesian frame used by MercatorToModel.
type Model int

const (
	// ModelFlat treats the Earth as locally flat around origin: longitude
	// scaled by cos(lat_origin), y axis inverted.
	ModelFlat Model = iota
	// ModelSpherical treats the Earth as a sphere of radius EarthRadius,
	// rotating coordinates into a frame where origin sits at (0,-1,0).
	ModelSpherical
)

// Origin is the anchor point of a local model frame: its own Mercator
// coordinates plus the latitude/longitude (radians) used by the spherical
// rotation.
type Origin struct {
	Mercator     Point
	LatRad       float64
	LonRad       float64
	Model        Model
	EarthRadiusM float64
}

// NewOrigin builds an Origin from a geodetic anchor, using the default
// EarthRadius.
func NewOrigin(latDeg, lonDeg float64, model Model) Origin {
	return NewOriginWithRadius(latDeg, lonDeg, model, EarthRadius)
}

// NewOriginWithRadius builds an Origin from a geodetic anchor, anchoring
// the spherical model (and the elevation conversions of
// MercatorToModel/MercatorFromModel) to radiusM instead of the default
// EarthRadius.
func NewOriginWithRadius(latDeg, lonDeg float64, model Model, radiusM float64) Origin {
	latRad := latDeg * math.Pi / 180
	lonRad := lonDeg * math.Pi / 180
	return Origin{
		Mercator:     MercatorFromLatLonRad(latRad, lonRad, 0),
		LatRad:       latRad,
		LonRad:       lonRad,
		Model:        model,
		EarthRadiusM: radiusM,
	}
}

// MercatorToModel transforms a Mercator point (z = elevation in meters) into
// the local Cartesian frame anchored at o.
func (o Origin) MercatorToModel(p Point) Point {
	if o.Model == ModelSpherical {
		return o.mercatorToModelSpherical(p)
	}
	return o.mercatorToModelFlat(p)
}

// MercatorFromModel is the exact inverse of MercatorToModel.
func (o Origin) MercatorFromModel(p Point) Point {
	if o.Model == ModelSpherical {
		return o.mercatorFromModelSpherical(p)
	}
	return o.mercatorFromModelFlat(p)
}

func (o Origin) mercatorToModelFlat(p Point) Point {
	scale := 2 * math.Pi * o.EarthRadiusM * math.Cos(o.LatRad)
	return Point{
		X: (p.X - o.Mercator.X) * scale,
		Y: -(p.Y - o.Mercator.Y) * scale,
		Z: p.Z,
	}
}

func (o Origin) mercatorFromModelFlat(p Point) Point {
	scale := 2 * math.Pi * o.EarthRadiusM * math.Cos(o.LatRad)
	return Point{
		X: p.X/scale + o.Mercator.X,
		Y: -p.Y/scale + o.Mercator.Y,
		Z: p.Z,
	}
}

// latLonToUnit returns the 3D unit vector for a geodetic point, in the
// convention x = east at equator/prime-meridian, y = north pole, z = toward
// (lat=0, lon=90deg).
func latLonToUnit(latRad, lonRad float64) (x, y, z float64) {
	cosLat := math.Cos(latRad)
	return cosLat * math.Cos(lonRad), math.Sin(latRad), cosLat * math.Sin(lonRad)
}

// rotateToOrigin rotates a unit vector so that the origin's own unit vector
// maps to (0, -1, 0): first around the polar axis by -lon, then around the
// resulting x axis by (pi/2 - lat) so the origin latitude lands on the
// equator, pointing down.
func (o Origin) rotateToOrigin(x, y, z float64) (rx, ry, rz float64) {
	cosLon, sinLon := math.Cos(-o.LonRad), math.Sin(-o.LonRad)
	x1 := x*cosLon - z*sinLon
	z1 := x*sinLon + z*cosLon
	y1 := y

	theta := math.Pi/2 - o.LatRad
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	ry = y1*cosT - z1*sinT
	rz = y1*sinT + z1*cosT
	rx = x1
	return
}

func (o Origin) rotateFromOrigin(rx, ry, rz float64) (x, y, z float64) {
	theta := -(math.Pi/2 - o.LatRad)
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	y1 := ry*cosT - rz*sinT
	z1 := ry*sinT + rz*cosT
	x1 := rx

	cosLon, sinLon := math.Cos(o.LonRad), math.Sin(o.LonRad)
	x = x1*cosLon - z1*sinLon
	z = x1*sinLon + z1*cosLon
	y = y1
	return
}

// mercatorToModelSpherical rotates the geodetic unit vector so that origin
// maps to (0,-1,0), scales by the point's geocentric radius, then shifts
// the y axis by +1 so origin itself lands on model y=0.
func (o Origin) mercatorToModelSpherical(p Point) Point {
	latRad := MercatorToLatRad(p.Y)
	lonRad := MercatorToLonRad(p.X)
	ux, uy, uz := latLonToUnit(latRad, lonRad)
	rx, ry, rz := o.rotateToOrigin(ux, uy, uz)

	r := o.EarthRadiusM + p.Z
	return Point{
		X: rx * r,
		Y: (ry + 1) * r,
		Z: rz * r,
	}
}

// mercatorFromModelSpherical inverts mercatorToModelSpherical. Given
// model = (u.x*r, (u.y+1)*r, u.z*r) with |u|=1, the unit-sphere constraint
// reduces to a linear equation in r: |model|^2 = 2*model.Y*r.
func (o Origin) mercatorFromModelSpherical(p Point) Point {
	sq := p.X*p.X + p.Y*p.Y + p.Z*p.Z
	r := sq / (2 * p.Y)

	rx := p.X / r
	ry := p.Y/r - 1
	rz := p.Z / r

	ux, uy, uz := o.rotateFromOrigin(rx, ry, rz)
	latRad := math.Asin(clamp(uy, -1, 1))
	lonRad := math.Atan2(uz, ux)
	elev := r - o.EarthRadiusM

	return MercatorFromLatLonRad(latRad, lonRad, elev)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
