package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/aerostats/insightserver"
)

type comparisonRequest struct {
	Queries []string `json:"queries"`
	Models  []string `json:"models"`
}

// Run a batch comparison of models over a set of queries
// (POST /v1/comparisons)
func (a *Adapter) CreateComparison(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), compareTimeout)
	defer cancel()

	apiRequest := comparisonRequest{}
	if err := readRequestJSON(r, &apiRequest); err != nil {
		renderJSONError(w, http.StatusBadRequest, err)
		return
	}

	snapshot, err := a.insightServer.Compare(ctx, apiRequest.Queries, apiRequest.Models)
	if err != nil {
		if errors.Is(err, insightserver.ErrInvalidInput) {
			renderJSONError(w, http.StatusBadRequest, err)
			return
		}
		a.logger.Error("error running comparison", zap.Error(err))
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error running comparison: %w", err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	renderJSON(w, snapshot)
}

// List stored comparison runs
// (GET /v1/comparisons)
func (a *Adapter) ListComparisons(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultTimeout)
	defer cancel()

	params, err := sortParamsFromRequest(r)
	if err != nil {
		renderJSONError(w, http.StatusBadRequest, err)
		return
	}

	snapshots, err := a.insightServer.ListReports(ctx, params)
	if err != nil {
		if errors.Is(err, insightserver.ErrInvalidInput) {
			renderJSONError(w, http.StatusBadRequest, err)
			return
		}
		a.logger.Error("error listing comparisons", zap.Error(err))
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error listing comparisons: %w", err))
		return
	}

	renderJSON(w, map[string]any{"comparisons": snapshots})
}

// Get a single comparison run by ID
// (GET /v1/comparisons/{id})
func (a *Adapter) GetComparisonById(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultTimeout)
	defer cancel()

	id, err := insightserver.ParseRunID(r.PathValue("id"))
	if err != nil {
		renderJSONError(w, http.StatusBadRequest, fmt.Errorf("invalid comparison ID: %w", err))
		return
	}

	snapshot, err := a.insightServer.FindReport(ctx, id)
	if err != nil {
		if errors.Is(err, insightserver.ErrNotFound) {
			renderJSONError(w, http.StatusNotFound, fmt.Errorf("comparison not found"))
			return
		}
		a.logger.Error("error finding comparison", zap.Error(err))
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error finding comparison: %w", err))
		return
	}

	renderJSON(w, snapshot)
}

func sortParamsFromRequest(r *http.Request) (insightserver.SortParams, error) {
	params := insightserver.SortParams{}

	query := r.URL.Query()
	params.By = query.Get("sort_by")

	switch order := query.Get("order"); order {
	case "":
	case "asc":
		params.Order = insightserver.SortOrderAsc
	case "desc":
		params.Order = insightserver.SortOrderDesc
	default:
		return insightserver.SortParams{}, fmt.Errorf("invalid order %q", order)
	}

	if rawLimit := query.Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit < 0 {
			return insightserver.SortParams{}, fmt.Errorf("invalid limit %q", rawLimit)
		}
		params.Limit = limit
	}

	return params, nil
}
