package models

import (
	"slices"
	"strconv"
)

// Dimension names a categorical filter dimension.
type Dimension string

const (
	DimState        Dimension = "state"
	DimCity         Dimension = "city"
	DimNeighborhood Dimension = "neighborhood"
	DimStandard     Dimension = "standard"
	DimStatus       Dimension = "status"
	DimType         Dimension = "type"
	DimUnitType     Dimension = "unit_type"
	DimBedrooms     Dimension = "bedrooms"
	DimLaunchYear   Dimension = "launch_year"
	DimDeveloper    Dimension = "developer"
)

// Dimensions lists every categorical dimension in display order.
var Dimensions = []Dimension{
	DimState, DimCity, DimNeighborhood, DimStandard, DimStatus,
	DimType, DimUnitType, DimBedrooms, DimLaunchYear, DimDeveloper,
}

// RangeDimension names a numeric range filter dimension.
type RangeDimension string

const (
	RangePrivateArea  RangeDimension = "avg_private_area"
	RangeAvgPrice     RangeDimension = "avg_price"
	RangePricePerArea RangeDimension = "price_per_area"
)

// RangeDimensions lists every numeric dimension.
var RangeDimensions = []RangeDimension{RangePrivateArea, RangeAvgPrice, RangePricePerArea}

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// DefaultRanges are the full-domain bounds of each numeric dimension.
var DefaultRanges = map[RangeDimension]Range{
	RangePrivateArea:  {Min: 0, Max: 2000},
	RangeAvgPrice:     {Min: 0, Max: 20_000_000},
	RangePricePerArea: {Min: 0, Max: 100_000},
}

// Valid reports whether d is a known categorical dimension.
func (d Dimension) Valid() bool {
	return slices.Contains(Dimensions, d)
}

// Valid reports whether d is a known range dimension.
func (d RangeDimension) Valid() bool {
	_, ok := DefaultRanges[d]
	return ok
}

// FilterSelection is a value: the update methods return a modified copy and
// leave the receiver untouched. An empty set accepts every value.
type FilterSelection struct {
	Sets   map[Dimension][]string   `json:"sets"`
	Ranges map[RangeDimension]Range `json:"ranges"`
}

// DefaultSelection returns the untouched selection: no sets, full ranges.
func DefaultSelection() FilterSelection {
	ranges := make(map[RangeDimension]Range, len(DefaultRanges))
	for d, r := range DefaultRanges {
		ranges[d] = r
	}
	return FilterSelection{
		Sets:   make(map[Dimension][]string),
		Ranges: ranges,
	}
}

// Selected returns the accepted values of d; nil means no constraint.
func (s FilterSelection) Selected(d Dimension) []string {
	return s.Sets[d]
}

// Range returns the bounds of d, falling back to its default.
func (s FilterSelection) Range(d RangeDimension) Range {
	if r, ok := s.Ranges[d]; ok {
		return r
	}
	return DefaultRanges[d]
}

// Toggle adds value to the set of d, or removes it when already present.
func (s FilterSelection) Toggle(d Dimension, value string) FilterSelection {
	next := s.clone()
	values := next.Sets[d]
	if i := slices.Index(values, value); i >= 0 {
		values = slices.Delete(values, i, i+1)
	} else {
		values = append(values, value)
		slices.Sort(values)
	}
	if len(values) == 0 {
		delete(next.Sets, d)
	} else {
		next.Sets[d] = values
	}
	return next
}

// WithRange replaces the bounds of d.
func (s FilterSelection) WithRange(d RangeDimension, r Range) FilterSelection {
	next := s.clone()
	next.Ranges[d] = r
	return next
}

func (s FilterSelection) clone() FilterSelection {
	next := FilterSelection{
		Sets:   make(map[Dimension][]string, len(s.Sets)),
		Ranges: make(map[RangeDimension]Range, len(DefaultRanges)),
	}
	for d, values := range s.Sets {
		next.Sets[d] = slices.Clone(values)
	}
	for d, r := range DefaultRanges {
		next.Ranges[d] = r
	}
	for d, r := range s.Ranges {
		next.Ranges[d] = r
	}
	return next
}

// Field returns the categorical value of p for d.
func (p *Project) Field(d Dimension) string {
	switch d {
	case DimState:
		return p.State
	case DimCity:
		return p.City
	case DimNeighborhood:
		return p.Neighborhood
	case DimStandard:
		return p.Standard
	case DimStatus:
		return p.Status
	case DimType:
		return p.Type
	case DimUnitType:
		return p.UnitType
	case DimBedrooms:
		return strconv.Itoa(p.Bedrooms)
	case DimLaunchYear:
		return strconv.Itoa(p.LaunchYear)
	case DimDeveloper:
		return p.Developer
	}
	return ""
}

// Measure returns the numeric value of p for d.
func (p *Project) Measure(d RangeDimension) float64 {
	switch d {
	case RangePrivateArea:
		return p.AvgPrivateArea
	case RangeAvgPrice:
		return p.AvgPrice
	case RangePricePerArea:
		return p.PricePerArea
	}
	return 0
}
