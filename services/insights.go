package services

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"realestate-insights/models"
	"realestate-insights/utils"
)

const (
	topGroups          = 8
	topProjects        = 10
	topExportProjects  = 20
	topDevelopersCount = 6
)

// InsightService derives the dashboard metrics. Every method is a pure
// function of its input; the input slices are never reordered.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger.With("insights")}
}

// Generate builds the report for filtered. all is the unfiltered collection
// and only supplies the year axis of the developer matrix.
func (s *InsightService) Generate(all, filtered []*models.Project) *models.InsightReport {
	topDevs := TopDevelopers(filtered, topDevelopersCount)

	report := &models.InsightReport{
		KPIs:            ComputeKPIs(filtered),
		ByCity:          truncateGroups(GroupBy(filtered, models.DimCity), topGroups),
		ByType:          GroupBy(filtered, models.DimType),
		ByStandard:      truncateGroups(GroupBy(filtered, models.DimStandard), topGroups),
		TopProjects:     TopByLaunchedValue(filtered, topProjects),
		ExportProjects:  TopByLaunchedValue(filtered, topExportProjects),
		TopDevelopers:   topDevs,
		DeveloperByYear: DeveloperByYear(filtered, launchYears(all), topDevs),
	}

	s.logger.Debug().
		Int("projects", len(filtered)).
		Int("cities", len(report.ByCity)).
		Msg("[insights] Report generated")
	return report
}

// ComputeKPIs sums the headline totals.
func ComputeKPIs(projects []*models.Project) models.KPIs {
	var k models.KPIs
	for _, p := range projects {
		k.LaunchedValue += p.LaunchedValue
		k.SoldValue += p.SoldValue
		k.TotalUnits += p.TotalUnits
		k.UnitsSold += p.UnitsSold
	}
	k.Count = len(projects)
	if k.LaunchedValue > 0 {
		k.SoldRatio = round2(k.SoldValue / k.LaunchedValue * 100)
	}
	return k
}

// GroupBy sums launched and sold value per value of d, sorted by launched
// value descending. Ties keep first-encountered order.
func GroupBy(projects []*models.Project, d models.Dimension) []models.GroupTotal {
	index := make(map[string]int)
	groups := make([]models.GroupTotal, 0)

	for _, p := range projects {
		key := p.Field(d)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, models.GroupTotal{Key: key})
		}
		groups[i].LaunchedValue += p.LaunchedValue
		groups[i].SoldValue += p.SoldValue
		groups[i].Count++
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].LaunchedValue > groups[j].LaunchedValue
	})
	return groups
}

// TopByLaunchedValue returns the n projects with the highest launched value.
// Ties keep input order.
func TopByLaunchedValue(projects []*models.Project, n int) []*models.Project {
	sorted := make([]*models.Project, len(projects))
	copy(sorted, projects)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LaunchedValue > sorted[j].LaunchedValue
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// TopDevelopers ranks developers by launched value and returns the first n
// names. The totals are dropped after ranking.
func TopDevelopers(projects []*models.Project, n int) []string {
	groups := truncateGroups(GroupBy(projects, models.DimDeveloper), n)
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Key)
	}
	return names
}

// DeveloperByYear sums launched value per developer and year. Every series
// has one value per year; missing combinations are 0.
func DeveloperByYear(projects []*models.Project, years []int, developers []string) models.DeveloperYearMatrix {
	yearIndex := make(map[int]int, len(years))
	for i, y := range years {
		yearIndex[y] = i
	}

	series := make([]models.DeveloperSeries, len(developers))
	devIndex := make(map[string]int, len(developers))
	for i, d := range developers {
		devIndex[d] = i
		series[i] = models.DeveloperSeries{Developer: d, Values: make([]float64, len(years))}
	}

	for _, p := range projects {
		di, ok := devIndex[p.Developer]
		if !ok {
			continue
		}
		yi, ok := yearIndex[p.LaunchYear]
		if !ok {
			continue
		}
		series[di].Values[yi] += p.LaunchedValue
	}

	return models.DeveloperYearMatrix{Years: years, Series: series}
}

// launchYears lists the distinct launch years of projects, ascending.
func launchYears(projects []*models.Project) []int {
	values := Options(projects)[models.DimLaunchYear]
	years := make([]int, 0, len(values))
	for _, v := range values {
		y, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		years = append(years, y)
	}
	return years
}

func truncateGroups(groups []models.GroupTotal, n int) []models.GroupTotal {
	if len(groups) > n {
		return groups[:n]
	}
	return groups
}

// Print writes a console summary of the report.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 60)
	thin := strings.Repeat("─", 60)

	fmt.Fprintf(w, "\n%s\n  LAUNCH CATALOG INSIGHTS\n%s\n\n", sep, sep)

	fmt.Fprintf(w, "  Overview\n  %s\n", thin)
	fmt.Fprintf(w, "  Projects        : %d\n", r.KPIs.Count)
	fmt.Fprintf(w, "  Launched value  : R$ %s\n", formatMoney(r.KPIs.LaunchedValue))
	fmt.Fprintf(w, "  Sold value      : R$ %s (%.2f%%)\n", formatMoney(r.KPIs.SoldValue), r.KPIs.SoldRatio)
	fmt.Fprintf(w, "  Units sold      : %d / %d\n\n", r.KPIs.UnitsSold, r.KPIs.TotalUnits)

	fmt.Fprintf(w, "  Top cities by launched value\n  %s\n", thin)
	if len(r.ByCity) == 0 {
		fmt.Fprintf(w, "  No data\n")
	}
	for _, g := range r.ByCity {
		fmt.Fprintf(w, "  %-30s R$ %s\n", truncate(g.Key, 28), formatMoney(g.LaunchedValue))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Top %d projects\n  %s\n", topProjects, thin)
	if len(r.TopProjects) == 0 {
		fmt.Fprintf(w, "  No data\n")
	}
	for i, p := range r.TopProjects {
		fmt.Fprintf(w, "  %2d. %-38s R$ %s\n", i+1, truncate(p.Name, 36), formatMoney(p.LaunchedValue))
	}

	fmt.Fprintf(w, "\n%s\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

// formatMoney renders f with dot thousands separators, e.g. 1234567 → "1.234.567".
func formatMoney(f float64) string {
	s := strconv.FormatInt(int64(f+0.5), 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
