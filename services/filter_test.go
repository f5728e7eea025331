package services

import (
	"testing"

	"realestate-insights/models"
)

func sampleProjects() []*models.Project {
	return []*models.Project{
		{ID: "1", City: "Curitiba", State: "PR", Developer: "Alfa", Type: "Vertical", Standard: "Alto",
			Bedrooms: 3, LaunchYear: 2023, LaunchedValue: 100, SoldValue: 40, TotalUnits: 50, UnitsSold: 20,
			AvgPrivateArea: 90, AvgPrice: 500_000, PricePerArea: 5_500},
		{ID: "2", City: "Curitiba", State: "PR", Developer: "Beta", Type: "Horizontal", Standard: "Médio",
			Bedrooms: 2, LaunchYear: 2022, LaunchedValue: 50, SoldValue: 50, TotalUnits: 30, UnitsSold: 30,
			AvgPrivateArea: 60, AvgPrice: 300_000, PricePerArea: 5_000},
		{ID: "3", City: "Londrina", State: "PR", Developer: "Alfa", Type: "Vertical", Standard: "Médio",
			Bedrooms: 2, LaunchYear: 2023, LaunchedValue: 30, SoldValue: 10, TotalUnits: 20, UnitsSold: 5,
			AvgPrivateArea: 55, AvgPrice: 250_000, PricePerArea: 4_500},
		{ID: "4", City: "Joinville", State: "SC", Developer: "Gama", Type: "Loteamento", Standard: "Econômico",
			Bedrooms: 0, LaunchYear: 2021, LaunchedValue: 80, SoldValue: 0, TotalUnits: 200, UnitsSold: 0,
			AvgPrivateArea: 250, AvgPrice: 150_000, PricePerArea: 600},
	}
}

func TestMatchesDefaultSelectionAcceptsAll(t *testing.T) {
	sel := models.DefaultSelection()
	for _, p := range sampleProjects() {
		if !Matches(p, sel) {
			t.Errorf("project %s rejected by the default selection", p.ID)
		}
	}
}

func TestMatchesCategoricalAndRanges(t *testing.T) {
	tests := []struct {
		name string
		sel  models.FilterSelection
		want []string
	}{
		{
			name: "single city",
			sel:  models.DefaultSelection().Toggle(models.DimCity, "Curitiba"),
			want: []string{"1", "2"},
		},
		{
			name: "two cities",
			sel: models.DefaultSelection().
				Toggle(models.DimCity, "Curitiba").
				Toggle(models.DimCity, "Joinville"),
			want: []string{"1", "2", "4"},
		},
		{
			name: "dimensions combine with AND",
			sel: models.DefaultSelection().
				Toggle(models.DimCity, "Curitiba").
				Toggle(models.DimDeveloper, "Alfa"),
			want: []string{"1"},
		},
		{
			name: "integer dimension",
			sel:  models.DefaultSelection().Toggle(models.DimLaunchYear, "2023"),
			want: []string{"1", "3"},
		},
		{
			name: "inclusive range bounds",
			sel:  models.DefaultSelection().WithRange(models.RangePrivateArea, models.Range{Min: 55, Max: 90}),
			want: []string{"1", "2", "3"},
		},
		{
			name: "toggled off again accepts all",
			sel: models.DefaultSelection().
				Toggle(models.DimState, "SC").
				Toggle(models.DimState, "SC"),
			want: []string{"1", "2", "3", "4"},
		},
	}

	for _, tt := range tests {
		got := Apply(sampleProjects(), tt.sel)
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %d projects, want %d", tt.name, len(got), len(tt.want))
			continue
		}
		for i, p := range got {
			if p.ID != tt.want[i] {
				t.Errorf("%s: result %d = %s; want %s", tt.name, i, p.ID, tt.want[i])
			}
		}
	}
}

func TestActiveFilterCount(t *testing.T) {
	if got := ActiveFilterCount(models.DefaultSelection()); got != 0 {
		t.Errorf("default selection: got %d, want 0", got)
	}

	sel := models.DefaultSelection().
		Toggle(models.DimCity, "Curitiba").
		Toggle(models.DimCity, "Londrina").
		WithRange(models.RangeAvgPrice, models.Range{Min: 100_000, Max: 20_000_000})
	if got := ActiveFilterCount(sel); got != 3 {
		t.Errorf("two cities + one range: got %d, want 3", got)
	}

	reset := sel.WithRange(models.RangeAvgPrice, models.DefaultRanges[models.RangeAvgPrice])
	if got := ActiveFilterCount(reset); got != 2 {
		t.Errorf("range back at default: got %d, want 2", got)
	}
}

func TestSelectionUpdatesDoNotMutate(t *testing.T) {
	base := models.DefaultSelection().Toggle(models.DimCity, "Curitiba")
	_ = base.Toggle(models.DimCity, "Londrina")
	_ = base.WithRange(models.RangePricePerArea, models.Range{Min: 1, Max: 2})

	if got := ActiveFilterCount(base); got != 1 {
		t.Errorf("base selection changed: count %d, want 1", got)
	}
}

func TestOptions(t *testing.T) {
	opts := Options(sampleProjects())

	wantCities := []string{"Curitiba", "Joinville", "Londrina"}
	if len(opts[models.DimCity]) != len(wantCities) {
		t.Fatalf("cities: got %v, want %v", opts[models.DimCity], wantCities)
	}
	for i, c := range wantCities {
		if opts[models.DimCity][i] != c {
			t.Errorf("cities[%d] = %q; want %q", i, opts[models.DimCity][i], c)
		}
	}

	wantYears := []string{"2021", "2022", "2023"}
	for i, y := range wantYears {
		if opts[models.DimLaunchYear][i] != y {
			t.Errorf("years[%d] = %q; want %q", i, opts[models.DimLaunchYear][i], y)
		}
	}
}

func TestDefaultSelectionExcludesOutOfDomainRecords(t *testing.T) {
	luxury := &models.Project{ID: "5", AvgPrice: 25_000_000, AvgPrivateArea: 400, PricePerArea: 62_500}
	sel := models.DefaultSelection()

	if Matches(luxury, sel) {
		t.Error("a price above the range domain must not match the default selection")
	}
	if got := ActiveFilterCount(sel); got != 0 {
		t.Errorf("ActiveFilterCount(default) = %d; want 0", got)
	}
}
