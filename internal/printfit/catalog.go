// Package printfit picks the flex media roll orientation that wastes the least
// material for a requested print size and reports the billable area.
package printfit

// standardRollWidthsFt is the ascending set of stocked roll widths in feet.
var standardRollWidthsFt = [...]float64{3, 4, 5, 6, 8, 10}

// MediaCatalog returns a copy of the stocked roll widths in feet, ascending.
func MediaCatalog() []float64 {
	out := make([]float64, len(standardRollWidthsFt))
	copy(out, standardRollWidthsFt[:])
	return out
}

// MaxRollWidthFt is the widest stocked roll.
func MaxRollWidthFt() float64 {
	return standardRollWidthsFt[len(standardRollWidthsFt)-1]
}

// rollFor returns the narrowest roll that covers size.
func rollFor(sizeFt float64) (float64, bool) {
	for _, w := range standardRollWidthsFt {
		if w >= sizeFt {
			return w, true
		}
	}
	return 0, false
}
