package printfit

import (
	"math"
	"strings"
)

// Unit is the measurement unit of a print request.
type Unit string

const (
	UnitInches Unit = "inches"
	UnitFeet   Unit = "feet"
)

// ParseUnit accepts the common spellings used on order forms.
func ParseUnit(raw string) (Unit, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "in", "inch", "inches":
		return UnitInches, true
	case "ft", "foot", "feet":
		return UnitFeet, true
	}
	return "", false
}

func (u Unit) toFeet(v float64) float64 {
	if u == UnitInches {
		return v / 12
	}
	return v
}

func (u Unit) fromFeet(v float64) float64 {
	if u == UnitInches {
		return v * 12
	}
	return v
}

// Orientation tells which side of the print runs across the roll.
type Orientation string

const (
	WidthAligned  Orientation = "width-aligned"
	HeightAligned Orientation = "height-aligned"
)

// Request is a rectangular print size.
type Request struct {
	Width  float64
	Height float64
	Unit   Unit
}

// Result holds the chosen orientation. All numeric fields are in feet.
//
// WidthExceedsMedia and HeightExceedsMedia flag each side wider than the
// widest roll. Overflow is set when both are, in which case the billed size is
// the requested size and the caller decides whether to special-order media.
type Result struct {
	RequestedAreaSqFt  float64     `json:"requested_area_sqft"`
	Orientation        Orientation `json:"orientation"`
	BilledWidthFt      float64     `json:"billed_width_ft"`
	BilledHeightFt     float64     `json:"billed_height_ft"`
	BilledAreaSqFt     float64     `json:"billed_area_sqft"`
	WastageSqFt        float64     `json:"wastage_sqft"`
	WidthExceedsMedia  bool        `json:"width_exceeds_media"`
	HeightExceedsMedia bool        `json:"height_exceeds_media"`
	Overflow           bool        `json:"overflow"`
	Unit               Unit        `json:"unit"`
}

// DisplaySize converts the billed size back to the request unit.
func (r Result) DisplaySize() (width, height float64) {
	return r.Unit.fromFeet(r.BilledWidthFt), r.Unit.fromFeet(r.BilledHeightFt)
}

type candidate struct {
	width, height float64
	feasible      bool
}

func (c candidate) area() float64 {
	return c.width * c.height
}

// Fit fits the request to the nearest larger roll along the width, then along
// the height, and keeps whichever bills less area. Equal areas keep the
// width-aligned orientation. A side that fits no roll makes its orientation
// infeasible; a feasible orientation always wins over an infeasible one.
func Fit(req Request) (Result, error) {
	if req.Unit != UnitInches && req.Unit != UnitFeet {
		return Result{}, &InvalidDimensionError{Field: "unit", Reason: "unit must be inches or feet"}
	}
	widthFt := req.Unit.toFeet(req.Width)
	heightFt := req.Unit.toFeet(req.Height)
	if err := checkDimension("width", widthFt); err != nil {
		return Result{}, err
	}
	if err := checkDimension("height", heightFt); err != nil {
		return Result{}, err
	}

	byWidth := candidate{width: widthFt, height: heightFt}
	if roll, ok := rollFor(widthFt); ok {
		byWidth.width, byWidth.feasible = roll, true
	}
	byHeight := candidate{width: widthFt, height: heightFt}
	if roll, ok := rollFor(heightFt); ok {
		byHeight.height, byHeight.feasible = roll, true
	}

	chosen, orientation := byWidth, WidthAligned
	switch {
	case byWidth.feasible && !byHeight.feasible:
	case byHeight.feasible && !byWidth.feasible:
		chosen, orientation = byHeight, HeightAligned
	case byHeight.area() < byWidth.area():
		chosen, orientation = byHeight, HeightAligned
	}

	requested := widthFt * heightFt
	billed := chosen.area()
	if err := checkArea(requested); err != nil {
		return Result{}, err
	}
	if err := checkArea(billed); err != nil {
		return Result{}, err
	}
	return Result{
		RequestedAreaSqFt:  requested,
		Orientation:        orientation,
		BilledWidthFt:      chosen.width,
		BilledHeightFt:     chosen.height,
		BilledAreaSqFt:     billed,
		WastageSqFt:        billed - requested,
		WidthExceedsMedia:  !byWidth.feasible,
		HeightExceedsMedia: !byHeight.feasible,
		Overflow:           !byWidth.feasible && !byHeight.feasible,
		Unit:               req.Unit,
	}, nil
}

// checkArea catches sides that are finite on their own but whose product is not.
func checkArea(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidDimensionError{Field: "area", Value: v, Reason: "must be a finite number"}
	}
	return nil
}

func checkDimension(field string, v float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return &InvalidDimensionError{Field: field, Value: v, Reason: "must be a finite number"}
	case v <= 0:
		return &InvalidDimensionError{Field: field, Value: v, Reason: "must be positive"}
	}
	return nil
}
