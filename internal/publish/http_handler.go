package publish

import (
	"context"
	"net/http"
	"time"

	"bookpublish/internal/entity"
	"bookpublish/internal/httpx"
	"bookpublish/internal/isbn"
)

type HTTPHandler struct {
	orch     *Orchestrator
	defaults func(Config) Config
	timeout  time.Duration
}

// NewHTTPHandler serves exports through orch. defaults fills process-wide
// settings into each request's Config and may be nil.
func NewHTTPHandler(orch *Orchestrator, defaults func(Config) Config, timeout time.Duration) *HTTPHandler {
	if defaults == nil {
		defaults = func(c Config) Config { return c }
	}
	return &HTTPHandler{orch: orch, defaults: defaults, timeout: timeout}
}

type ExportRequest struct {
	Book   entity.Book `json:"book"`
	Config Config      `json:"config"`
}

type ReadinessRequest struct {
	Book          entity.Book            `json:"book"`
	Formats       []Format               `json:"formats" validate:"omitempty,unique,dive,oneof=epub kdp_pdf lulu_pdf"`
	AssignISBNs   bool                   `json:"assign_isbns"`
	ExternalISBNs map[isbn.Format]string `json:"external_isbns" validate:"omitempty,dive,keys,oneof=epub print,endkeys,required"`
}

// Export handles POST /v1/exports
// @Summary Export a book
// @Description Generate the requested formats. Files are base64 encoded in the response.
// @Tags exports
// @Accept json
// @Produce json
// @Param request body ExportRequest true "Book and export config"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 422 {object} httpx.ErrorResponse
// @Router /v1/exports [post]
func (h *HTTPHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res, err := h.orch.Run(ctx, req.Book, h.defaults(req.Config), nil)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, http.StatusOK, res)
}

// Readiness handles POST /v1/readiness
// @Summary Check publishing readiness
// @Description Report per-format blockers and warnings without rendering.
// @Tags exports
// @Accept json
// @Produce json
// @Param request body ReadinessRequest true "Book and target formats"
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/readiness [post]
func (h *HTTPHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	var req ReadinessRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	report := CheckReadiness(req.Book, Config{
		Formats:       req.Formats,
		AssignISBNs:   req.AssignISBNs,
		ExternalISBNs: req.ExternalISBNs,
	})
	httpx.JSONSuccess(w, r, http.StatusOK, report)
}

// GetRun handles GET /v1/exports/{runID}
// @Summary Get an export run
// @Tags exports
// @Produce json
// @Param runID path string true "Run ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/exports/{runID} [get]
func (h *HTTPHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.orch.Runs().GetRun(r.Context(), r.PathValue("runID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, http.StatusOK, run)
}
