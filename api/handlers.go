/*
handlers.go - HTTP API handlers for the tier progression simulator

PURPOSE:
  Exposes the simulation engine and the live tier criteria table via REST
  API. Handles HTTP request/response, JSON serialization, and delegates to
  the loyalty package.

ENDPOINTS:
  Simulations:
    POST   /api/simulations            Run one simulation

  Presets:
    GET    /api/presets/default        Default program as a config document
    GET    /api/presets/live           Program used when a request omits config

  Scenarios:
    GET    /api/scenarios              List canned seller patterns
    POST   /api/scenarios/{id}/run     Simulate one pattern on the live program

  Tier criteria:
    GET    /api/tier-criteria          Live criteria table
    PUT    /api/tier-criteria          Replace rows of the live table

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Live tier criteria
  - Program: Cached live bundle (see scheduler.go)
  - BundleFactory: Document to Bundle conversion
  - Metrics, Logger: Observability

REQUEST FLOW:
  1. Decode JSON (unknown fields rejected)
  2. Validate DTO tags
  3. Build the bundle and run the engine
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, field validation, invalid configuration or input
  - 404: Unknown scenario or tier
  - 500: Internal errors (details are logged, not returned)

SECURITY NOTE:
  No authentication. The tier criteria endpoints belong behind the admin
  gateway in production.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/warp/loyalty-engine/factory"
	"github.com/warp/loyalty-engine/loyalty"
	"github.com/warp/loyalty-engine/presets"
	"github.com/warp/loyalty-engine/store"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         store.CriteriaStore
	Program       *LiveProgram
	BundleFactory *factory.BundleFactory
	Metrics       *Metrics
	Logger        *zap.Logger

	// Engine defaults for requests that leave them zero.
	MaxMonths    int
	SettleMonths int

	validator *requestValidator
}

// NewHandler creates a handler. A nil store serves the default program
// only and disables the tier criteria endpoints.
func NewHandler(s store.CriteriaStore, logger *zap.Logger, metrics *Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		Store:         s,
		BundleFactory: factory.NewBundleFactory(),
		Metrics:       metrics,
		Logger:        logger.Named("api"),
		validator:     newRequestValidator(),
	}
	if s != nil {
		h.Program = NewLiveProgram(s, logger)
	}
	return h
}

// =============================================================================
// SIMULATION HANDLERS
// =============================================================================

// RunSimulation runs the engine on the posted input and optional config.
func (h *Handler) RunSimulation(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.Metrics.ObserveFailure("malformed")
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	bundle, source, err := h.resolveProgram(r.Context(), req.Config)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.simulate(w, "request", bundle, source, factory.InputFromDoc(req.Input), req.MaxMonths, req.SettleMonths)
}

// resolveProgram picks the request's config, else the live program, else
// the default program.
func (h *Handler) resolveProgram(ctx context.Context, doc *factory.BundleDoc) (*loyalty.Bundle, string, error) {
	if doc != nil {
		bundle, err := h.BundleFactory.FromDoc(*doc)
		if err != nil {
			return nil, "", err
		}
		return bundle, ConfigSourceRequest, nil
	}
	if h.Program == nil {
		return presets.DefaultProgram(), ConfigSourceDefault, nil
	}
	return h.Program.Current(ctx)
}

func (h *Handler) simulate(w http.ResponseWriter, origin string, bundle *loyalty.Bundle, source string, input loyalty.SimulationInput, maxMonths, settleMonths int) {
	engine := loyalty.SimulationEngine{
		Config:       bundle,
		MaxMonths:    firstNonZero(maxMonths, h.MaxMonths),
		SettleMonths: firstNonZero(settleMonths, h.SettleMonths),
	}

	start := time.Now()
	result, err := engine.Run(input)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.Metrics.ObserveSimulation(origin, result, time.Since(start))

	h.Logger.Debug("simulation completed",
		zap.String("origin", origin),
		zap.String("config_source", source),
		zap.Stringer("final_tier", result.FinalTier()),
		zap.Int("months", len(result.Snapshots)),
	)
	writeJSON(w, http.StatusOK, NewSimulationResponse(result, bundle, source))
}

// =============================================================================
// PRESET HANDLERS
// =============================================================================

// ProgramResponse is a program rendered as a config document.
type ProgramResponse struct {
	Source string            `json:"source"`
	Config factory.BundleDoc `json:"config"`
}

// GetDefaultPreset returns the built-in program.
func (h *Handler) GetDefaultPreset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ProgramResponse{
		Source: ConfigSourceDefault,
		Config: h.BundleFactory.ToDoc(presets.DefaultProgram()),
	})
}

// GetLivePreset returns the program used when a request omits config.
func (h *Handler) GetLivePreset(w http.ResponseWriter, r *http.Request) {
	bundle, source, err := h.resolveProgram(r.Context(), nil)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProgramResponse{Source: source, Config: h.BundleFactory.ToDoc(bundle)})
}

// =============================================================================
// TIER CRITERIA HANDLERS
// =============================================================================

// ListCriteria returns the live tier criteria table.
func (h *Handler) ListCriteria(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotFound, "Tier criteria are not configured", nil)
		return
	}
	h.writeCriteria(w, r.Context())
}

// UpdateCriteria upserts the posted rows. The merged table must stay valid.
func (h *Handler) UpdateCriteria(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotFound, "Tier criteria are not configured", nil)
		return
	}

	var req UpdateCriteriaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	ctx := r.Context()
	current, err := h.Store.List(ctx)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	byTier := make(map[loyalty.Tier]*store.CriteriaRecord, len(current))
	for i := range current {
		byTier[current[i].Tier] = &current[i]
	}
	updates := make([]store.CriteriaRecord, 0, len(req.Criteria))
	for _, dto := range req.Criteria {
		rec := toCriteriaRecord(dto)
		updates = append(updates, store.RefreshDescription(byTier[rec.Tier], rec))
	}
	if err := store.Validate(mergeCriteria(current, updates)); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.Store.SaveAll(ctx, updates); err != nil {
		h.writeDomainError(w, err)
		return
	}
	if h.Program != nil {
		if err := h.Program.Refresh(ctx); err != nil {
			h.Logger.Warn("live program refresh failed after update", zap.Error(err))
		}
	}

	h.Logger.Info("tier criteria updated", zap.Int("rows", len(updates)))
	h.writeCriteria(w, ctx)
}

func (h *Handler) writeCriteria(w http.ResponseWriter, ctx context.Context) {
	recs, err := h.Store.List(ctx)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	resp := CriteriaListResponse{Criteria: make([]CriteriaDTO, 0, len(recs))}
	for _, rec := range recs {
		resp.Criteria = append(resp.Criteria, toCriteriaDTO(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// mergeCriteria overlays updates on current by tier. A tier repeated in
// updates stays repeated so Validate can report it.
func mergeCriteria(current, updates []store.CriteriaRecord) []store.CriteriaRecord {
	replaced := make(map[loyalty.Tier]bool, len(updates))
	for _, u := range updates {
		replaced[u.Tier] = true
	}
	merged := make([]store.CriteriaRecord, 0, len(current)+len(updates))
	for _, c := range current {
		if !replaced[c.Tier] {
			merged = append(merged, c)
		}
	}
	return append(merged, updates...)
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func (h *Handler) writeValidationError(w http.ResponseWriter, err error) {
	h.Metrics.ObserveFailure("validation")
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:  "Validation failed",
		Fields: h.validator.Fields(err),
	})
}

// writeDomainError maps loyalty and store errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case loyalty.IsClientError(err):
		h.Metrics.ObserveFailure("invalid")
		resp := ErrorResponse{Error: "Invalid configuration or input", Details: err.Error()}
		for _, v := range loyalty.Violations(err) {
			resp.Violations = append(resp.Violations, v.Error())
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, store.ErrCriteriaNotFound):
		writeError(w, http.StatusNotFound, "Tier criteria not found", err)
	default:
		h.Metrics.ObserveFailure("internal")
		h.Logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func firstNonZero(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}
