package restserver

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/chrissnell/stickplot/internal/erddap"
	"github.com/chrissnell/stickplot/internal/log"
	"github.com/chrissnell/stickplot/internal/pipeline"
	"github.com/chrissnell/stickplot/internal/render"
	"github.com/chrissnell/stickplot/internal/vectorfield"
	"github.com/chrissnell/stickplot/pkg/responseformat"
	"github.com/gorilla/mux"
)

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"svg":  "image/svg+xml",
	"pdf":  "application/pdf",
	"html": "text/html; charset=utf-8",
}

// badRequest marks errors caused by the request itself.
type badRequest struct {
	err error
}

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// Health reports that the server is up
func (h *Handlers) Health(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, http.StatusOK, map[string]string{"status": "ok"})
}

// ListPlots returns every configured plot
func (h *Handlers) ListPlots(w http.ResponseWriter, req *http.Request) {
	jobs := h.controller.sortedJobs()
	plots := make([]PlotInfo, 0, len(jobs))
	for _, job := range jobs {
		plots = append(plots, plotInfo(job))
	}
	h.formatter.WriteResponse(w, req, http.StatusOK, plots)
}

// GetVectors returns the prepared vector field of a plot
func (h *Handlers) GetVectors(w http.ResponseWriter, req *http.Request) {
	job, err := h.jobForRequest(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	field, err := h.controller.pipeline.Prepare(req.Context(), job)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	if err := h.formatter.WriteResponse(w, req, http.StatusOK, transformField(job, field)); err != nil {
		h.controller.logger.Errorf("writing vectors for %s: %v", job.Name, err)
	}
}

// RenderPlot renders a plot in the requested format
func (h *Handlers) RenderPlot(w http.ResponseWriter, req *http.Request) {
	job, err := h.jobForRequest(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	format := strings.ToLower(req.URL.Query().Get("format"))
	if format == "jpeg" {
		format = "jpg"
	}
	if format == "" {
		format = job.Render.Format
	}
	renderer, err := render.New(job.View)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	if _, ok := contentTypes[format]; !ok || !render.Supports(renderer, format) {
		h.writeError(w, req, badRequest{fmt.Errorf("the %s view cannot be rendered as %q", job.View, format)})
		return
	}

	var buf bytes.Buffer
	if _, err := h.controller.pipeline.Render(req.Context(), job, &buf, format); err != nil {
		h.writeError(w, req, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", job.Name+"."+format))
	w.Write(buf.Bytes())
}

// jobForRequest looks up the plot named in the path and applies any start/end override.
func (h *Handlers) jobForRequest(req *http.Request) (*pipeline.Job, error) {
	name := mux.Vars(req)["name"]
	job, ok := h.controller.job(name)
	if !ok {
		return nil, fmt.Errorf("plot %q: %w", name, errUnknownPlot)
	}

	q := req.URL.Query()
	if q.Get("start") == "" && q.Get("end") == "" {
		return job, nil
	}

	start, err := pipeline.ParseTime("start", q.Get("start"))
	if err != nil {
		return nil, badRequest{err}
	}
	end, err := pipeline.ParseTime("end", q.Get("end"))
	if err != nil {
		return nil, badRequest{err}
	}
	narrowed, err := job.WithWindow(start, end)
	if err != nil {
		return nil, badRequest{err}
	}
	return narrowed, nil
}

var errUnknownPlot = errors.New("no such plot")

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		bad  badRequest
		terr *erddap.TransportError
		ferr *erddap.FormatError
		cerr *vectorfield.ComputationError
	)
	switch {
	case errors.Is(err, errUnknownPlot):
		return http.StatusNotFound
	case errors.Is(err, vectorfield.ErrNoData):
		return http.StatusNotFound
	case errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.As(err, &terr), errors.As(err, &ferr):
		return http.StatusBadGateway
	case errors.As(err, &cerr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := statusFor(err)
	id := log.RequestID(req.Context())

	msg := err.Error()
	if errors.Is(err, vectorfield.ErrNoData) {
		msg = "no data available for the requested range"
	}
	if status >= http.StatusInternalServerError {
		h.controller.logger.Errorw("request failed", "path", req.URL.Path, "request_id", id, "error", err)
	} else {
		h.controller.logger.Debugw("request rejected", "path", req.URL.Path, "request_id", id, "error", err)
	}
	h.formatter.WriteError(w, status, msg, id)
}
