// Calculate distances between C-alpha atoms

package geom

import (
	"math"

	"github.com/andrew-torda/pdbrenum/pdb/cmmn"
)

const (
	MaxCaLink  = 4.0 // C-alpha pairs closer than this are in one chain
	maxCaLink2 = MaxCaLink * MaxCaLink
)

// Dist2 is the squared distance between two points.
func Dist2(x1, x2 cmmn.Xyz) float64 {
	xd, yd, zd := x1.X-x2.X, x1.Y-x2.Y, x1.Z-x2.Z
	return xd*xd + yd*yd + zd*zd
}

// Dist is the distance between two points.
func Dist(x1, x2 cmmn.Xyz) float64 { return math.Sqrt(Dist2(x1, x2)) }

// CaLinked says whether two C-alpha positions are close enough to be
// neighbours on one chain. Broken coordinates are never linked.
func CaLinked(x1, x2 cmmn.Xyz) bool {
	if !x1.Ok() || !x2.Ok() {
		return false
	}
	return Dist2(x1, x2) < maxCaLink2
}
