package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"realestate-insights/models"
	"realestate-insights/services"
	"realestate-insights/storage"
	"realestate-insights/utils"
)

// SyncService is the part of services.Synchronizer the handlers need.
type SyncService interface {
	Synchronize(ctx context.Context, onProgress func(models.Progress)) ([]*models.Project, error)
	Status() services.SyncStatus
}

// Handler serves the dashboard snapshots and filter updates.
type Handler struct {
	dashboard *services.Dashboard
	sync      SyncService
	logger    *utils.Logger
}

func NewHandler(dashboard *services.Dashboard, sync SyncService, logger *utils.Logger) *Handler {
	return &Handler{dashboard: dashboard, sync: sync, logger: logger.With("api")}
}

type errorResponse struct {
	Error string `json:"error"`
}

type filtersResponse struct {
	Selection         models.FilterSelection `json:"selection"`
	ActiveFilterCount int                    `json:"active_filter_count"`
}

type toggleRequest struct {
	Dimension models.Dimension `json:"dimension"`
	Value     string           `json:"value"`
}

type rangeRequest struct {
	Dimension models.RangeDimension `json:"dimension"`
	Min       *float64              `json:"min"`
	Max       *float64              `json:"max"`
}

type syncResponse struct {
	Records int                 `json:"records"`
	Status  services.SyncStatus `json:"status"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("[api] Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Projects(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.dashboard.View().Filtered)
}

func (h *Handler) Insights(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.dashboard.View().Report)
}

func (h *Handler) Options(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.dashboard.View().Options)
}

func (h *Handler) Filters(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, filtersView(h.dashboard.View()))
}

func (h *Handler) ToggleFilter(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	view, err := h.dashboard.Toggle(req.Dimension, req.Value)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.writeJSON(w, http.StatusOK, filtersView(view))
}

func (h *Handler) SetRange(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.Min == nil || req.Max == nil {
		h.writeError(w, http.StatusBadRequest, errors.New("min and max are required"))
		return
	}

	view, err := h.dashboard.SetRange(req.Dimension, models.Range{Min: *req.Min, Max: *req.Max})
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.writeJSON(w, http.StatusOK, filtersView(view))
}

func (h *Handler) ResetFilters(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, filtersView(h.dashboard.Reset()))
}

// Sync runs an on-demand sync, joining one already in flight. The run is
// detached from the request so a dropped client does not abort it.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	projects, err := h.sync.Synchronize(context.WithoutCancel(r.Context()), nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("[api] On-demand sync failed")
		h.writeError(w, http.StatusBadGateway, err)
		return
	}
	h.writeJSON(w, http.StatusOK, syncResponse{Records: len(projects), Status: h.sync.Status()})
}

func (h *Handler) SyncStatus(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.sync.Status())
}

// ExportCSV streams the top projects of the current filtered view.
func (h *Handler) ExportCSV(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="top_projects.csv"`)
	if err := storage.WriteCSV(w, h.dashboard.View().Report.ExportProjects); err != nil {
		h.logger.Error().Err(err).Msg("[api] CSV export failed")
	}
}

func filtersView(v *services.DashboardView) filtersResponse {
	return filtersResponse{
		Selection:         v.Selection,
		ActiveFilterCount: v.Report.ActiveFilterCount,
	}
}
