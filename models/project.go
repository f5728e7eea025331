package models

// Unknown is stored in every string field whose source value is missing.
const Unknown = "Não informado"

// RawRecord holds one catalog entry exactly as decoded from the API page.
// It is consumed once by the normalizer and never stored.
type RawRecord map[string]any

// Project is the canonical, normalized launch record. Values are never
// mutated after normalization; a sync pass replaces the whole collection.
type Project struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	Neighborhood   string  `json:"neighborhood"`
	Developer      string  `json:"developer"`
	Type           string  `json:"type"`
	Standard       string  `json:"standard"`
	UnitType       string  `json:"unit_type"`
	Bedrooms       int     `json:"bedrooms"`
	LaunchedValue  float64 `json:"launched_value"`
	SoldValue      float64 `json:"sold_value"`
	UnitsSold      int     `json:"units_sold"`
	TotalUnits     int     `json:"total_units"`
	AvgPrice       float64 `json:"avg_price"`
	AvgPrivateArea float64 `json:"avg_private_area"`
	PricePerArea   float64 `json:"price_per_area"`
	Status         string  `json:"status"`
	LaunchYear     int     `json:"launch_year"`
	UpdatedAt      string  `json:"updated_at"`
}

// Raw returns the project keyed by its canonical field names.
func (p *Project) Raw() RawRecord {
	return RawRecord{
		"id":               p.ID,
		"name":             p.Name,
		"city":             p.City,
		"state":            p.State,
		"neighborhood":     p.Neighborhood,
		"developer":        p.Developer,
		"type":             p.Type,
		"standard":         p.Standard,
		"unit_type":        p.UnitType,
		"bedrooms":         p.Bedrooms,
		"launched_value":   p.LaunchedValue,
		"sold_value":       p.SoldValue,
		"units_sold":       p.UnitsSold,
		"total_units":      p.TotalUnits,
		"avg_price":        p.AvgPrice,
		"avg_private_area": p.AvgPrivateArea,
		"price_per_area":   p.PricePerArea,
		"status":           p.Status,
		"launch_year":      p.LaunchYear,
		"updated_at":       p.UpdatedAt,
	}
}

// Progress is reported after every fetched page.
type Progress struct {
	Loaded int `json:"loaded"`
	Total  int `json:"total"`
	Page   int `json:"page"`
}
