package management

import (
	"errors"
	"net/http"
	"time"

	"github.com/chrissnell/stickplot/internal/constants"
	"github.com/chrissnell/stickplot/internal/pipeline"
	"github.com/chrissnell/stickplot/pkg/config"
	"github.com/gorilla/mux"
)

// StatusResponse is returned by GetStatus.
type StatusResponse struct {
	Status    string  `json:"status"`
	Version   string  `json:"version"`
	Uptime    float64 `json:"uptime_seconds"`
	PlotCount int     `json:"plot_count"`
	ReadOnly  bool    `json:"read_only"`
}

// PlotResponse is returned after a plot is created or changed.
type PlotResponse struct {
	Message     string           `json:"message"`
	Plot        *config.PlotData `json:"plot,omitempty"`
	ReloadError string           `json:"reload_error,omitempty"`
}

// ValidationResponse describes the job a plot would produce.
type ValidationResponse struct {
	Valid          bool   `json:"valid"`
	View           string `json:"view"`
	Format         string `json:"format"`
	OutputFilename string `json:"output_filename"`
	Title          string `json:"title"`
}

// GetStatus returns the status of the management API
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	plots, err := h.controller.store.GetPlots()
	if err != nil {
		h.sendError(w, r, http.StatusInternalServerError, "Failed to load plots", err)
		return
	}

	h.sendJSON(w, r, http.StatusOK, StatusResponse{
		Status:    "ok",
		Version:   constants.Version,
		Uptime:    time.Since(h.controller.started).Seconds(),
		PlotCount: len(plots),
		ReadOnly:  h.controller.store.IsReadOnly(),
	})
}

// GetPlots returns every stored plot
func (h *Handlers) GetPlots(w http.ResponseWriter, r *http.Request) {
	plots, err := h.controller.store.GetPlots()
	if err != nil {
		h.sendError(w, r, http.StatusInternalServerError, "Failed to load plots", err)
		return
	}

	h.sendJSON(w, r, http.StatusOK, map[string]interface{}{
		"plots": plots,
		"count": len(plots),
	})
}

// GetPlot returns one stored plot
func (h *Handlers) GetPlot(w http.ResponseWriter, r *http.Request) {
	plot, err := h.controller.store.GetPlot(mux.Vars(r)["name"])
	if err != nil {
		h.sendStoreError(w, r, "Failed to get plot", err)
		return
	}
	h.sendJSON(w, r, http.StatusOK, plot)
}

// CreatePlot stores a new plot
func (h *Handlers) CreatePlot(w http.ResponseWriter, r *http.Request) {
	plot, err := decodePlot(r, "")
	if err != nil {
		h.sendError(w, r, http.StatusBadRequest, "Invalid plot", err)
		return
	}

	if err := h.controller.store.AddPlot(plot); err != nil {
		h.sendStoreError(w, r, "Failed to create plot", err)
		return
	}

	h.controller.logger.Infof("plot %s created", plot.Name)
	h.sendJSON(w, r, http.StatusCreated, PlotResponse{
		Message:     "Plot created successfully",
		Plot:        plot,
		ReloadError: h.reload(),
	})
}

// UpdatePlot replaces a stored plot. An empty name in the body keeps the current name.
func (h *Handlers) UpdatePlot(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	plot, err := decodePlot(r, name)
	if err != nil {
		h.sendError(w, r, http.StatusBadRequest, "Invalid plot", err)
		return
	}

	if plot.Name != name {
		if _, err := h.controller.store.GetPlot(plot.Name); err == nil {
			h.sendError(w, r, http.StatusConflict, "Cannot rename plot", config.ErrPlotExists)
			return
		}
	}

	if err := h.controller.store.UpdatePlot(name, plot); err != nil {
		h.sendStoreError(w, r, "Failed to update plot", err)
		return
	}

	h.controller.logger.Infof("plot %s updated", name)
	h.sendJSON(w, r, http.StatusOK, PlotResponse{
		Message:     "Plot updated successfully",
		Plot:        plot,
		ReloadError: h.reload(),
	})
}

// DeletePlot removes a stored plot. The last plot cannot be removed.
func (h *Handlers) DeletePlot(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	plots, err := h.controller.store.GetPlots()
	if err != nil {
		h.sendError(w, r, http.StatusInternalServerError, "Failed to load plots", err)
		return
	}
	if len(plots) == 1 && plots[0].Name == name {
		h.sendError(w, r, http.StatusConflict, "Cannot delete the last plot", nil)
		return
	}

	if err := h.controller.store.DeletePlot(name); err != nil {
		h.sendStoreError(w, r, "Failed to delete plot", err)
		return
	}

	h.controller.logger.Infof("plot %s deleted", name)
	h.sendJSON(w, r, http.StatusOK, PlotResponse{
		Message:     "Plot deleted successfully",
		ReloadError: h.reload(),
	})
}

// ValidatePlot checks a plot without storing it
func (h *Handlers) ValidatePlot(w http.ResponseWriter, r *http.Request) {
	plot, err := decodePlot(r, "")
	if err != nil {
		h.sendError(w, r, http.StatusBadRequest, "Invalid plot", err)
		return
	}

	job, err := pipeline.JobFromConfig(*plot)
	if err != nil {
		h.sendError(w, r, http.StatusBadRequest, "Invalid plot", err)
		return
	}
	h.sendJSON(w, r, http.StatusOK, ValidationResponse{
		Valid:          true,
		View:           string(job.View),
		Format:         job.Render.Format,
		OutputFilename: job.OutputFilename,
		Title:          job.Render.Title,
	})
}

// Reload makes the plot server reread the store
func (h *Handlers) Reload(w http.ResponseWriter, r *http.Request) {
	if msg := h.reload(); msg != "" {
		h.sendError(w, r, http.StatusInternalServerError, "Reload failed: "+msg, nil)
		return
	}
	h.sendJSON(w, r, http.StatusOK, map[string]string{"message": "Plots reloaded"})
}

func (h *Handlers) sendStoreError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case errors.Is(err, config.ErrPlotNotFound):
		h.sendError(w, r, http.StatusNotFound, message, err)
	case errors.Is(err, config.ErrPlotExists):
		h.sendError(w, r, http.StatusConflict, message, err)
	default:
		h.sendError(w, r, http.StatusInternalServerError, message, err)
	}
}
