package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"realestate-insights/models"
)

// ExportLimit is the number of projects written by an export.
const ExportLimit = 20

var csvHeader = []string{
	"id", "name", "developer", "city", "state", "neighborhood", "type", "standard",
	"bedrooms", "launch_year", "status", "launched_value", "sold_value",
	"units_sold", "total_units", "avg_price", "avg_private_area", "price_per_area",
}

// WriteCSV writes the header and the first ExportLimit projects to w.
func WriteCSV(w io.Writer, projects []*models.Project) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	if len(projects) > ExportLimit {
		projects = projects[:ExportLimit]
	}
	for _, p := range projects {
		if err := cw.Write(csvRow(p)); err != nil {
			return fmt.Errorf("csv: write row %s: %w", p.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRow(p *models.Project) []string {
	return []string{
		p.ID,
		p.Name,
		p.Developer,
		p.City,
		p.State,
		p.Neighborhood,
		p.Type,
		p.Standard,
		strconv.Itoa(p.Bedrooms),
		strconv.Itoa(p.LaunchYear),
		p.Status,
		formatFloat(p.LaunchedValue),
		formatFloat(p.SoldValue),
		strconv.Itoa(p.UnitsSold),
		strconv.Itoa(p.TotalUnits),
		formatFloat(p.AvgPrice),
		formatFloat(p.AvgPrivateArea),
		formatFloat(p.PricePerArea),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// CSVWriter writes the top projects of each committed snapshot to a file,
// replacing the previous contents. It is safe for concurrent use.
type CSVWriter struct {
	mu   sync.Mutex
	path string
}

// NewCSVWriter prepares path for writing. Intermediate directories are
// created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{path: path}, nil
}

// Write truncates the file and writes projects, which are expected to be
// ordered already.
func (c *CSVWriter) Write(projects []*models.Project) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", c.path, err)
	}
	if err := WriteCSV(f, projects); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Path returns the output file path.
func (c *CSVWriter) Path() string { return c.path }
