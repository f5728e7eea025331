package models

// KPIs are the scalar totals over the filtered collection.
type KPIs struct {
	LaunchedValue float64 `json:"launched_value"`
	SoldValue     float64 `json:"sold_value"`
	TotalUnits    int     `json:"total_units"`
	UnitsSold     int     `json:"units_sold"`
	Count         int     `json:"count"`
	// SoldRatio is the percentage of launched value already sold.
	SoldRatio float64 `json:"sold_ratio"`
}

// GroupTotal is one entry of a grouped series.
type GroupTotal struct {
	Key           string  `json:"key"`
	LaunchedValue float64 `json:"launched_value"`
	SoldValue     float64 `json:"sold_value"`
	Count         int     `json:"count"`
}

// DeveloperSeries holds one developer's launched value per matrix year.
type DeveloperSeries struct {
	Developer string    `json:"developer"`
	Values    []float64 `json:"values"`
}

// DeveloperYearMatrix aligns every series with Years.
type DeveloperYearMatrix struct {
	Years  []int             `json:"years"`
	Series []DeveloperSeries `json:"series"`
}

// InsightReport is the derived-metrics snapshot. It is rebuilt whenever the
// collection or the selection changes and is never modified afterwards.
type InsightReport struct {
	KPIs              KPIs                `json:"kpis"`
	ByCity            []GroupTotal        `json:"by_city"`
	ByType            []GroupTotal        `json:"by_type"`
	ByStandard        []GroupTotal        `json:"by_standard"`
	TopProjects       []*Project          `json:"top_projects"`
	ExportProjects    []*Project          `json:"-"`
	TopDevelopers     []string            `json:"top_developers"`
	DeveloperByYear   DeveloperYearMatrix `json:"developer_by_year"`
	ActiveFilterCount int                 `json:"active_filter_count"`
}

// FilterOptions lists the distinct values of every categorical dimension
// over the unfiltered collection.
type FilterOptions map[Dimension][]string
