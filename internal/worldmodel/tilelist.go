package worldmodel

// coarsestMargin extends the block by this many tiles on each side at the
// coarsest (MIN_ZOOM) level, giving enough surrounding terrain for the
// horizon at that zoom.
const coarsestMargin = 4

// genTileList walks from zoom down to minZoom, requesting the 4x4 block of
// tiles around (x, y) at each level and excluding the 2x2 core already
// covered by the next-finer level. At the coarsest level the block is
// padded by coarsestMargin tiles on every side.
func genTileList(x, y, zoom, minZoom int) []TileInfo {
	var result []TileInfo

	zz := 1 << uint(zoom)
	xx, yy := x, y
	oldXCorner, oldYCorner := 0, 0

	for i := 0; zoom-i >= minZoom; i++ {
		xCorner := (xx - 1) >> 1
		yCorner := (yy - 1) >> 1

		minA := xCorner * 2
		minB := yCorner * 2
		maxA := minA + 4
		maxB := minB + 4

		if zoom-i == minZoom {
			minA -= coarsestMargin
			minB -= coarsestMargin
			maxA += coarsestMargin
			maxB += coarsestMargin
		}

		for a := minA; a < maxA; a++ {
			for b := minB; b < maxB; b++ {
				if a < 0 || a >= zz || b < 0 || b >= zz {
					continue
				}
				if i > 0 && a >= oldXCorner && a < oldXCorner+2 && b >= oldYCorner && b < oldYCorner+2 {
					continue
				}
				result = append(result, TileInfo{Zoom: zoom - i, X: a, Y: b})
			}
		}

		xx >>= 1
		yy >>= 1
		oldXCorner, oldYCorner = xCorner, yCorner
	}

	return result
}
