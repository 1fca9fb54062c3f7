/*
scenarios.go - Canned seller patterns for demonstrations

PURPOSE:
  Lets the simulator page offer one-click runs of typical sellers without
  typing an ordering hypothesis. Each scenario is a presets.SellerPattern
  run against the live program.

AVAILABLE SCENARIOS:
  casual-three-day:  Three active days a week, the worked example
  weekend-only:      Two busy days a week
  weekday-regular:   Five days a week, volume reaches STANDARD at once
  daily-streak:      Seven days a week with the consecutive bonus
  high-volume:       Large steady seller, volume reaches ADVANCE at once

USAGE VIA API:
  GET  /api/scenarios
  POST /api/scenarios/casual-three-day/run

ADDING NEW SCENARIOS:
  Add a pattern to presets.Patterns(); no handler change is needed.

SEE ALSO:
  - presets/patterns.go: Pattern definitions
  - handlers.go: simulate
*/
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/loyalty-engine/factory"
	"github.com/warp/loyalty-engine/presets"
)

// ScenarioDTO is a canned seller pattern.
type ScenarioDTO struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Input       factory.InputDoc `json:"input"`
}

func toScenarioDTO(p presets.SellerPattern) ScenarioDTO {
	return ScenarioDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Input:       factory.InputToDoc(p.Input),
	}
}

// ListScenarios returns every canned seller pattern.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	patterns := presets.Patterns()
	dtos := make([]ScenarioDTO, 0, len(patterns))
	for _, p := range patterns {
		dtos = append(dtos, toScenarioDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RunScenario simulates one pattern against the live program.
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pattern, ok := presets.PatternByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Scenario not found", fmt.Errorf("unknown scenario %q", id))
		return
	}

	bundle, source, err := h.resolveProgram(r.Context(), nil)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.simulate(w, "scenario", bundle, source, pattern.Input, 0, 0)
}
