package services

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"realestate-insights/models"
	"realestate-insights/utils"
)

var (
	ErrUnknownDimension = errors.New("unknown filter dimension")
	ErrInvalidRange     = errors.New("invalid range")
)

// DashboardView is one immutable state of the dashboard. A new view is built
// whenever the collection or the selection changes.
type DashboardView struct {
	Projects  []*models.Project
	Filtered  []*models.Project
	Options   models.FilterOptions
	Selection models.FilterSelection
	Report    *models.InsightReport
}

// Dashboard holds the current filter selection and the derived metrics for
// the committed collection. Readers get whole views and never see a partial
// update.
type Dashboard struct {
	insights *InsightService
	logger   *utils.Logger

	mu   sync.Mutex // serializes writers
	view atomic.Pointer[DashboardView]
}

// NewDashboard creates a Dashboard over an empty collection.
func NewDashboard(insights *InsightService, logger *utils.Logger) *Dashboard {
	d := &Dashboard{insights: insights, logger: logger.With("dashboard")}
	d.view.Store(d.build(nil, models.DefaultSelection()))
	return d
}

// View returns the current view. Callers must not modify it.
func (d *Dashboard) View() *DashboardView {
	return d.view.Load()
}

// SetProjects replaces the collection, keeping the current selection.
func (d *Dashboard) SetProjects(projects []*models.Project) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.view.Store(d.build(projects, d.view.Load().Selection))
	d.logger.Info().Int("projects", len(projects)).Msg("[dashboard] Collection replaced")
}

// Toggle flips value in the accepted set of dim.
func (d *Dashboard) Toggle(dim models.Dimension, value string) (*DashboardView, error) {
	if !dim.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
	}
	return d.updateSelection(func(s models.FilterSelection) models.FilterSelection {
		return s.Toggle(dim, value)
	}), nil
}

// SetRange replaces the bounds of dim.
func (d *Dashboard) SetRange(dim models.RangeDimension, r models.Range) (*DashboardView, error) {
	if !dim.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
	}
	if r.Min > r.Max {
		return nil, fmt.Errorf("%w: min %v greater than max %v", ErrInvalidRange, r.Min, r.Max)
	}
	return d.updateSelection(func(s models.FilterSelection) models.FilterSelection {
		return s.WithRange(dim, r)
	}), nil
}

// Reset restores the default selection.
func (d *Dashboard) Reset() *DashboardView {
	return d.updateSelection(func(models.FilterSelection) models.FilterSelection {
		return models.DefaultSelection()
	})
}

func (d *Dashboard) updateSelection(fn func(models.FilterSelection) models.FilterSelection) *DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()

	current := d.view.Load()
	next := d.build(current.Projects, fn(current.Selection))
	d.view.Store(next)
	return next
}

func (d *Dashboard) build(projects []*models.Project, sel models.FilterSelection) *DashboardView {
	filtered := Apply(projects, sel)
	report := d.insights.Generate(projects, filtered)
	report.ActiveFilterCount = ActiveFilterCount(sel)

	return &DashboardView{
		Projects:  projects,
		Filtered:  filtered,
		Options:   Options(projects),
		Selection: sel,
		Report:    report,
	}
}
