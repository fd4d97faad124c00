package management

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chrissnell/stickplot/internal/log"
	"github.com/chrissnell/stickplot/internal/pipeline"
	"github.com/chrissnell/stickplot/pkg/config"
	"github.com/chrissnell/stickplot/pkg/responseformat"
)

// Handlers contains the HTTP handlers for the management API
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new Handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// sendJSON sends a response with a specific status code
func (h *Handlers) sendJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	if err := h.formatter.WriteResponse(w, r, statusCode, data); err != nil {
		h.controller.logger.Errorf("writing response for %s: %v", r.URL.Path, err)
	}
}

// sendError sends an error response. err, when set, is appended to message.
func (h *Handlers) sendError(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	if statusCode >= http.StatusInternalServerError {
		h.controller.logger.Errorf("%s %s: %s", r.Method, r.URL.Path, message)
	}
	h.formatter.WriteError(w, statusCode, message, log.RequestID(r.Context()))
}

// decodePlot reads a plot from the request body and checks that it would build a job.
// name fills in a plot sent without one.
func decodePlot(r *http.Request, name string) (*config.PlotData, error) {
	var plot config.PlotData
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&plot); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if plot.Name == "" {
		plot.Name = name
	}
	if err := checkPlot(plot); err != nil {
		return nil, err
	}
	return &plot, nil
}

func checkPlot(plot config.PlotData) error {
	if err := (&config.ConfigData{Plots: []config.PlotData{plot}}).Validate(); err != nil {
		return err
	}
	_, err := pipeline.JobFromConfig(plot)
	return err
}

// reload asks the plot server to pick up a change. A failure is logged and reported
// to the caller in the response body.
func (h *Handlers) reload() string {
	if h.controller.reloader == nil {
		return ""
	}
	if err := h.controller.reloader.Reload(); err != nil {
		h.controller.logger.Errorf("reloading plots: %v", err)
		return err.Error()
	}
	return ""
}
