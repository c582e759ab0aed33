package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/aerostats/insightserver"
)

type answerRequest struct {
	Query string `json:"query"`
}

// Answer a question over the operational dataset
// (POST /v1/query)
func (a *Adapter) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), answerTimeout)
	defer cancel()

	apiRequest := answerRequest{}
	if err := readRequestJSON(r, &apiRequest); err != nil {
		renderJSONError(w, http.StatusBadRequest, err)
		return
	}

	answer, err := a.insightServer.Answer(ctx, apiRequest.Query)
	if err != nil {
		if errors.Is(err, insightserver.ErrInvalidInput) {
			renderJSONError(w, http.StatusBadRequest, err)
			return
		}
		a.logger.Error("error answering query", zap.Error(err))
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error answering query: %w", err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	renderJSON(w, answer)
}
