package services

import (
	"slices"
	"sort"
	"strconv"

	"realestate-insights/models"
)

// Matches reports whether p passes every dimension of sel. Categorical
// dimensions with an empty set impose no constraint; ranges are inclusive.
func Matches(p *models.Project, sel models.FilterSelection) bool {
	for d, accepted := range sel.Sets {
		if len(accepted) == 0 {
			continue
		}
		if !slices.Contains(accepted, p.Field(d)) {
			return false
		}
	}
	for _, d := range models.RangeDimensions {
		if !sel.Range(d).Contains(p.Measure(d)) {
			return false
		}
	}
	return true
}

// Apply returns the projects matching sel, preserving their order.
func Apply(projects []*models.Project, sel models.FilterSelection) []*models.Project {
	result := make([]*models.Project, 0, len(projects))
	for _, p := range projects {
		if Matches(p, sel) {
			result = append(result, p)
		}
	}
	return result
}

// ActiveFilterCount sums the sizes of the non-empty sets plus one for every
// range that differs from its full-domain default.
func ActiveFilterCount(sel models.FilterSelection) int {
	count := 0
	for _, accepted := range sel.Sets {
		count += len(accepted)
	}
	for _, d := range models.RangeDimensions {
		if sel.Range(d) != models.DefaultRanges[d] {
			count++
		}
	}
	return count
}

// Options lists the distinct values of every categorical dimension over the
// unfiltered collection. Numeric dimensions sort numerically.
func Options(projects []*models.Project) models.FilterOptions {
	opts := make(models.FilterOptions, len(models.Dimensions))
	for _, d := range models.Dimensions {
		seen := make(map[string]struct{})
		values := make([]string, 0)
		for _, p := range projects {
			v := p.Field(d)
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}

		if d == models.DimBedrooms || d == models.DimLaunchYear {
			sort.Slice(values, func(i, j int) bool {
				a, _ := strconv.Atoi(values[i])
				b, _ := strconv.Atoi(values[j])
				return a < b
			})
		} else {
			sort.Strings(values)
		}
		opts[d] = values
	}
	return opts
}
