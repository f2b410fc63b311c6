/*
handlers.go - HTTP API handlers for the insulation calculator

PURPOSE:
  Exposes the calculation engine and report renderer via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  engine.FullCalculation and report.Renderer.

ENDPOINTS:
  Info:
    GET    /                    API name, version and endpoint list
    GET    /config/regions      Regions (HDD, default price) and heating sources
    GET    /config/materials    Insulation material catalog and roof types

  Calculation:
    POST   /calculate/savings   Run the calculation, return the result record
    POST   /calculate/pdf       Run the calculation, return the PDF report

  Reports:
    POST   /report/pdf          Render a previously returned result record

  Operations:
    GET    /healthz             Liveness
    GET    /readyz              Constants source reachable and complete
    GET    /metrics             Prometheus metrics (server.go)

REQUEST FLOW:
  1. Decode JSON body
  2. Load constants and catalog from the ConstantsSource
  3. Validate and convert the request (validation.go)
  4. engine.FullCalculation
  5. Serialize result or render report

ERROR HANDLING:
  Errors are returned as {"error": ..., "detail": ...}:
  - 400: Malformed JSON, validation errors, engine.ErrInvalidInput,
         report.ErrMalformedResult on /report/pdf
  - 500: engine.ErrLookupFailure, constants source failures, render failures
  - 503: /readyz when the constants source is unusable

SEE ALSO:
  - dto.go:        Request/response data structures
  - validation.go: Request validation
  - server.go:     Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/warp/insulation-engine/engine"
	"github.com/warp/insulation-engine/materials"
	"github.com/warp/insulation-engine/observability"
	"github.com/warp/insulation-engine/report"
)

const (
	maxBodyBytes = 1 << 20

	// ReportFilename is the attachment name of generated PDF reports.
	ReportFilename = "insulation_savings_report.pdf"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Name    string
	Version string

	source   ConstantsSource
	renderer *report.Renderer
	metrics  *observability.Metrics
	log      zerolog.Logger
}

// NewHandler creates a handler. A nil renderer uses report.NewRenderer();
// nil metrics are registered on a private registry.
func NewHandler(name, version string, src ConstantsSource, rn *report.Renderer, m *observability.Metrics, log zerolog.Logger) *Handler {
	if rn == nil {
		rn = report.NewRenderer()
	}
	if m == nil {
		m = observability.NewMetrics(prometheus.NewRegistry())
	}
	return &Handler{
		Name:     name,
		Version:  version,
		source:   src,
		renderer: rn,
		metrics:  m,
		log:      log,
	}
}

// =============================================================================
// INFO HANDLERS
// =============================================================================

// Root describes the API.
// GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    h.Name,
		Version: h.Version,
		Endpoints: map[string]string{
			"/calculate/savings": "POST - Calculate insulation savings",
			"/calculate/pdf":     "POST - Generate PDF report",
			"/report/pdf":        "POST - Render a PDF report from a calculation result",
			"/config/regions":    "GET - Get available regions and default prices",
			"/config/materials":  "GET - Get insulation materials and roof types",
		},
	})
}

// ListRegions returns regions and heating sources with their constants.
// GET /config/regions
func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	c, err := h.source.Constants(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load constants", err)
		return
	}

	resp := RegionsResponse{
		Regions:        make([]RegionDTO, 0, len(engine.Regions())),
		HeatingSources: make([]HeatingSourceDTO, 0, len(engine.HeatingSources())),
	}
	for _, reg := range engine.Regions() {
		resp.Regions = append(resp.Regions, RegionDTO{
			Name:               reg.String(),
			DefaultEnergyPrice: c.EnergyPrices[reg],
			HeatingDegreeDays:  c.HeatingDegreeDays[reg],
		})
	}
	for _, hs := range engine.HeatingSources() {
		resp.HeatingSources = append(resp.HeatingSources, HeatingSourceDTO{
			Value:        hs.String(),
			Label:        hs.Label(),
			CO2Intensity: c.CO2Intensity[hs],
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListMaterials returns the insulation catalog.
// GET /config/materials
func (h *Handler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.catalog(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load materials", err)
		return
	}

	all := catalog.All()
	resp := MaterialsResponse{
		Materials: make([]MaterialDTO, len(all)),
		RoofTypes: []RoofTypeDTO{
			{Value: string(materials.RoofFlat), SurfaceMultiplier: materials.RoofFlat.SurfaceMultiplier()},
			{Value: string(materials.RoofPitched), SurfaceMultiplier: materials.RoofPitched.SurfaceMultiplier()},
		},
	}
	for i, m := range all {
		resp.Materials[i] = MaterialDTO{Material: m, ThicknessCm: m.Thickness()}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// CalculateSavings runs the calculation and returns the result record.
// POST /calculate/savings
func (h *Handler) CalculateSavings(w http.ResponseWriter, r *http.Request) {
	res, ok := h.calculate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CalculatePDF runs the calculation and returns the PDF report.
// POST /calculate/pdf
func (h *Handler) CalculatePDF(w http.ResponseWriter, r *http.Request) {
	res, ok := h.calculate(w, r)
	if !ok {
		return
	}
	h.renderPDF(w, r, res, http.StatusInternalServerError)
}

// RenderReport renders a result record posted by the client.
// POST /report/pdf
func (h *Handler) RenderReport(w http.ResponseWriter, r *http.Request) {
	res, err := report.DecodeResult(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.metrics.Reports.WithLabelValues("pdf", observability.OutcomeMalformed).Inc()
		writeError(w, http.StatusBadRequest, "Malformed calculation result", err)
		return
	}
	h.renderPDF(w, r, res, http.StatusBadRequest)
}

// calculate decodes, validates and runs one calculation. It writes the
// error response itself and reports whether the caller should continue.
func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) (engine.Result, bool) {
	var req CalculationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.metrics.Calculations.WithLabelValues(observability.OutcomeInvalidInput).Inc()
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return engine.Result{}, false
	}

	ctx := r.Context()
	constants, err := h.source.Constants(ctx)
	if err != nil {
		h.metrics.Calculations.WithLabelValues(observability.OutcomeError).Inc()
		h.log.Error().Err(err).Msg("failed to load constants")
		writeError(w, http.StatusInternalServerError, "Failed to load constants", err)
		return engine.Result{}, false
	}
	catalog, err := h.catalog(ctx)
	if err != nil {
		h.metrics.Calculations.WithLabelValues(observability.OutcomeError).Inc()
		h.log.Error().Err(err).Msg("failed to load materials")
		writeError(w, http.StatusInternalServerError, "Failed to load materials", err)
		return engine.Result{}, false
	}

	in, err := req.ToInput(catalog)
	if err == nil {
		var res engine.Result
		if res, err = engine.FullCalculation(in, constants); err == nil {
			h.metrics.Calculations.WithLabelValues(observability.OutcomeSuccess).Inc()
			return res, true
		}
	}

	switch {
	case engine.IsClientError(err):
		h.metrics.Calculations.WithLabelValues(observability.OutcomeInvalidInput).Inc()
		writeValidationError(w, err)
	case engine.IsConfigError(err):
		h.metrics.Calculations.WithLabelValues(observability.OutcomeError).Inc()
		h.log.Error().Err(err).Msg("constants table incomplete")
		writeError(w, http.StatusInternalServerError, "Calculation error", err)
	default:
		h.metrics.Calculations.WithLabelValues(observability.OutcomeError).Inc()
		writeError(w, http.StatusInternalServerError, "Calculation error", err)
	}
	return engine.Result{}, false
}

// renderPDF writes the report as an attachment. malformedStatus is the
// status used when the renderer rejects the record: 400 when the client
// supplied it, 500 when the engine did.
func (h *Handler) renderPDF(w http.ResponseWriter, r *http.Request, res engine.Result, malformedStatus int) {
	timer := prometheus.NewTimer(h.metrics.ReportRenderSeconds)
	pdf, err := h.renderer.Render(res)
	timer.ObserveDuration()

	if err != nil {
		if errors.Is(err, report.ErrMalformedResult) {
			h.metrics.Reports.WithLabelValues("pdf", observability.OutcomeMalformed).Inc()
			writeError(w, malformedStatus, "Malformed calculation result", err)
			return
		}
		h.metrics.Reports.WithLabelValues("pdf", observability.OutcomeError).Inc()
		h.log.Error().Err(err).Msg("pdf generation failed")
		writeError(w, http.StatusInternalServerError, "PDF generation error", err)
		return
	}
	h.metrics.Reports.WithLabelValues("pdf", observability.OutcomeSuccess).Inc()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+ReportFilename)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.log.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to write pdf")
	}
}

func (h *Handler) catalog(ctx context.Context) (*materials.Catalog, error) {
	mats, err := h.source.Materials(ctx)
	if err != nil {
		return nil, err
	}
	return materials.NewCatalog(mats)
}

// =============================================================================
// HEALTH HANDLERS
// =============================================================================

// Healthz reports that the process is up.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz reports whether calculations can be served. A source backed by a
// database is pinged first.
// GET /readyz
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.source.(Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Constants store unreachable", err)
			return
		}
	}
	if _, err := h.source.Constants(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Constants unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ready"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

// validationResponse adds the per-field list to the error body.
type validationResponse struct {
	ErrorResponse
	Fields []FieldError `json:"fields,omitempty"`
}

func writeValidationError(w http.ResponseWriter, err error) {
	resp := validationResponse{ErrorResponse: ErrorResponse{Error: "Invalid input", Detail: err.Error()}}
	var verr *ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	writeJSON(w, http.StatusBadRequest, resp)
}
