package storage

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"realestate-insights/models"
)

func projects(n int) []*models.Project {
	out := make([]*models.Project, n)
	for i := range out {
		out[i] = &models.Project{
			ID:            strconv.Itoa(i),
			Name:          "Residencial " + strconv.Itoa(i),
			Developer:     "Alfa",
			City:          "Curitiba",
			LaunchedValue: float64(1000 - i),
			Bedrooms:      2,
			LaunchYear:    2023,
		}
	}
	return out
}

func TestWriteCSVLimitsRows(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, projects(25)); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != ExportLimit+1 {
		t.Fatalf("rows: got %d, want %d", len(rows), ExportLimit+1)
	}
	if rows[0][0] != "id" || len(rows[0]) != len(csvHeader) {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "0" || rows[1][11] != "1000.00" {
		t.Errorf("unexpected first row %v", rows[1])
	}
}

func TestCSVWriterReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "top.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	if err := w.Write(projects(5)); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := w.Write(projects(2)); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 3 {
		t.Errorf("lines: got %d, want 3", lines)
	}
}

func TestBuildInsertPlaceholders(t *testing.T) {
	query, args := buildInsert(projects(2))
	if len(args) != 2*projectColumns {
		t.Errorf("args: got %d, want %d", len(args), 2*projectColumns)
	}
	if !strings.Contains(query, "($21,$22,") || !strings.Contains(query, "$40)") {
		t.Errorf("unexpected placeholders in %s", query)
	}
}

func TestDuplicateIDs(t *testing.T) {
	ps := projects(3)
	ps = append(ps, &models.Project{ID: "1"}, &models.Project{ID: "1"}, &models.Project{ID: "#0"})

	got := duplicateIDs(ps)
	if len(got) != 1 || got[0] != "1" {
		t.Errorf("duplicateIDs() = %v; want [1]", got)
	}
	if got := duplicateIDs(projects(3)); len(got) != 0 {
		t.Errorf("duplicateIDs() = %v; want none", got)
	}
}
