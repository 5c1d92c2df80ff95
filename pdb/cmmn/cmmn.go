// Package pdb/cmmn has common definitions for coordinates used by the
// structure model and the pdb reader and writer.
package cmmn

import (
	"math"
)

// Xyz is one set of coordinates in Ångström.
type Xyz struct{ X, Y, Z float64 }

// BrokenXyz marks an atom without coordinates. An atom built by hand
// starts with it; the writer refuses to print it.
var BrokenXyz = Xyz{math.MaxFloat64, 0, -math.MaxFloat64}

// Ok is true if the coordinates are set.
func (xyz *Xyz) Ok() bool {
	return *xyz != BrokenXyz
}
