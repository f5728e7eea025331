package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/goccy/go-json"

	"realestate-insights/models"
	"realestate-insights/utils"
)

// Canonical field names. Each is the first alias of its own entry in
// fieldAliases, so a project's Raw() form normalizes back to itself.
const (
	fieldID             = "id"
	fieldName           = "name"
	fieldCity           = "city"
	fieldState          = "state"
	fieldNeighborhood   = "neighborhood"
	fieldDeveloper      = "developer"
	fieldType           = "type"
	fieldStandard       = "standard"
	fieldUnitType       = "unit_type"
	fieldBedrooms       = "bedrooms"
	fieldLaunchedValue  = "launched_value"
	fieldSoldValue      = "sold_value"
	fieldUnitsSold      = "units_sold"
	fieldTotalUnits     = "total_units"
	fieldAvgPrice       = "avg_price"
	fieldAvgPrivateArea = "avg_private_area"
	fieldPricePerArea   = "price_per_area"
	fieldStatus         = "status"
	fieldLaunchYear     = "launch_year"
	fieldUpdatedAt      = "updated_at"
)

// defaultBedrooms is used when no bedroom alias is present.
const defaultBedrooms = 2

// fieldAliases maps every canonical field to the upstream spellings accepted
// for it, in resolution order.
var fieldAliases = map[string][]string{
	fieldID:             {"id", "codigo", "empreendimento_id", "uuid"},
	fieldName:           {"name", "nome", "empreendimento", "nome_empreendimento"},
	fieldCity:           {"city", "cidade", "municipio"},
	fieldState:          {"state", "estado", "uf"},
	fieldNeighborhood:   {"neighborhood", "bairro", "regiao"},
	fieldDeveloper:      {"developer", "incorporadora", "construtora", "empresa"},
	fieldType:           {"type", "tipo", "tipo_empreendimento", "categoria"},
	fieldStandard:       {"standard", "padrao", "padrao_construtivo", "segmento"},
	fieldUnitType:       {"unit_type", "tipologia", "tipo_unidade"},
	fieldBedrooms:       {"bedrooms", "dormitorios", "quartos", "dorms"},
	fieldLaunchedValue:  {"launched_value", "vgv", "vgv_lancado", "vgv_total", "valor_lancado"},
	fieldSoldValue:      {"sold_value", "vgv_vendido", "valor_vendido"},
	fieldUnitsSold:      {"units_sold", "unidades_vendidas", "vendidas"},
	fieldTotalUnits:     {"total_units", "total_unidades", "unidades", "unidades_lancadas"},
	fieldAvgPrice:       {"avg_price", "preco_medio", "ticket_medio", "valor_medio"},
	fieldAvgPrivateArea: {"avg_private_area", "area_privativa_media", "area_privativa", "area_media"},
	fieldPricePerArea:   {"price_per_area", "preco_m2", "valor_m2", "preco_metro_quadrado"},
	fieldStatus:         {"status", "situacao", "fase"},
	fieldLaunchYear:     {"launch_year", "ano_lancamento", "ano", "lancamento"},
	fieldUpdatedAt:      {"updated_at", "atualizado_em", "data_atualizacao", "ultima_atualizacao"},
}

// numberRegexp captures the first number in a decorated string such as
// "R$ 1.234.567,89" or "85 m²".
var numberRegexp = regexp.MustCompile(`-?\d[\d.,]*`)

// Normalizer maps raw catalog entries onto canonical projects. It never
// fails: missing fields take their defaults and bad numbers become 0.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
// positionalIDPrefix marks ids derived from a record's position.
const positionalIDPrefix = "#"

func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger.With("normalizer")}
}

// Normalize converts raw records in order. A record without an identifier
// gets its position in raw prefixed with positionalIDPrefix, so it cannot
// collide with an upstream id of the same pass. Positional ids are not
// stable across passes.
func (n *Normalizer) Normalize(raw []models.RawRecord) []*models.Project {
	result := make([]*models.Project, 0, len(raw))
	positional := 0

	for i, r := range raw {
		p := normalizeRecord(r, i)
		if _, ok := lookup(r, fieldID); !ok {
			positional++
		}
		result = append(result, p)
	}

	n.logger.Info().
		Int("records", len(result)).
		Int("positional_ids", positional).
		Msg("[normalizer] Normalized catalog records")
	return result
}

func normalizeRecord(r models.RawRecord, index int) *models.Project {
	id := stringField(r, fieldID, "")
	if id == "" {
		id = positionalIDPrefix + strconv.Itoa(index)
	}

	bedrooms := defaultBedrooms
	if v, ok := lookup(r, fieldBedrooms); ok {
		bedrooms = toInt(v)
	}

	return &models.Project{
		ID:             id,
		Name:           stringField(r, fieldName, models.Unknown),
		City:           stringField(r, fieldCity, models.Unknown),
		State:          stringField(r, fieldState, models.Unknown),
		Neighborhood:   stringField(r, fieldNeighborhood, models.Unknown),
		Developer:      stringField(r, fieldDeveloper, models.Unknown),
		Type:           stringField(r, fieldType, models.Unknown),
		Standard:       stringField(r, fieldStandard, models.Unknown),
		UnitType:       stringField(r, fieldUnitType, models.Unknown),
		Bedrooms:       bedrooms,
		LaunchedValue:  floatField(r, fieldLaunchedValue),
		SoldValue:      floatField(r, fieldSoldValue),
		UnitsSold:      intField(r, fieldUnitsSold),
		TotalUnits:     intField(r, fieldTotalUnits),
		AvgPrice:       floatField(r, fieldAvgPrice),
		AvgPrivateArea: floatField(r, fieldAvgPrivateArea),
		PricePerArea:   floatField(r, fieldPricePerArea),
		Status:         stringField(r, fieldStatus, models.Unknown),
		LaunchYear:     intField(r, fieldLaunchYear),
		UpdatedAt:      stringField(r, fieldUpdatedAt, models.Unknown),
	}
}

// lookup returns the first present, non-empty alias value of field.
func lookup(r models.RawRecord, field string) (any, bool) {
	for _, alias := range fieldAliases[field] {
		v, ok := r[alias]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func stringField(r models.RawRecord, field, fallback string) string {
	v, ok := lookup(r, field)
	if !ok {
		return fallback
	}
	return normaliseText(toString(v))
}

func floatField(r models.RawRecord, field string) float64 {
	v, ok := lookup(r, field)
	if !ok {
		return 0
	}
	return toFloat(v)
}

func intField(r models.RawRecord, field string) int {
	v, ok := lookup(r, field)
	if !ok {
		return 0
	}
	return toInt(v)
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func toInt(v any) int {
	f := toFloat(v)
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}

// toFloat parses numbers leniently. Non-numeric input yields 0.
func toFloat(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		f, _ = t.Float64()
	case string:
		f = parseNumber(t)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// parseNumber extracts a number from a decorated string. A comma is read as
// the decimal separator when it follows the last dot, as in "1.234,56"; a
// lone dot followed by exactly three digits is a thousands separator.
// Examples:
//
//	"R$ 1.234.567,89" → 1234567.89
//	"85,5 m²"         → 85.5
//	"1,200.50"        → 1200.5
//	"375.000"         → 375000
//	"n/d"             → 0
func parseNumber(raw string) float64 {
	match := strings.TrimRight(numberRegexp.FindString(raw), ".,")
	if match == "" {
		return 0
	}

	lastComma := strings.LastIndex(match, ",")
	lastDot := strings.LastIndex(match, ".")
	switch {
	case lastComma > lastDot:
		match = strings.ReplaceAll(match, ".", "")
		match = strings.Replace(match, ",", ".", 1)
	case lastComma >= 0:
		match = strings.ReplaceAll(match, ",", "")
	case strings.Count(match, ".") > 1, len(match)-lastDot == 4 && lastDot > 0 && !zeroIntegerPart(match[:lastDot]):
		match = strings.ReplaceAll(match, ".", "")
	}

	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return f
}

// zeroIntegerPart reports whether s is "0" or "-0", which cannot be
// followed by a thousands group.
func zeroIntegerPart(s string) bool {
	return strings.TrimPrefix(s, "-") == "0"
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), unicode.IsSpace)
	return strings.Join(fields, " ")
}
