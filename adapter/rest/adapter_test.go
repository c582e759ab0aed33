package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerostats/insightserver"
)

type stubInsightServer struct {
	answer      *insightserver.InsightAnswer
	answerErr   error
	snapshot    insightserver.ReportSnapshot
	compareErr  error
	snapshots   []insightserver.ReportSnapshot
	listErr     error
	findErr     error
	sortParams  insightserver.SortParams
	lastQueries []string
	lastModels  []string
}

func (s *stubInsightServer) Answer(ctx context.Context, query string) (*insightserver.InsightAnswer, error) {
	if s.answerErr != nil {
		return nil, s.answerErr
	}
	return s.answer, nil
}

func (s *stubInsightServer) Compare(ctx context.Context, queries, models []string) (insightserver.ReportSnapshot, error) {
	s.lastQueries = queries
	s.lastModels = models
	if s.compareErr != nil {
		return insightserver.ReportSnapshot{}, s.compareErr
	}
	return s.snapshot, nil
}

func (s *stubInsightServer) ListReports(ctx context.Context, params insightserver.SortParams) ([]insightserver.ReportSnapshot, error) {
	s.sortParams = params
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.snapshots, nil
}

func (s *stubInsightServer) FindReport(ctx context.Context, id insightserver.RunID) (insightserver.ReportSnapshot, error) {
	if s.findErr != nil {
		return insightserver.ReportSnapshot{}, s.findErr
	}
	return s.snapshot, nil
}

func TestAdapter_CreateAnswer(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		stub := &stubInsightServer{
			answer: &insightserver.InsightAnswer{
				Query:  "which fleet is most delayed?",
				Intent: "analytics.ops.avg_delay_fleet",
				Response: &insightserver.ModelResponse{
					Model: "llama-3.1-8b-instant",
					Text:  "The CRJ-700 fleet has the highest average delay.",
				},
			},
		}
		server := httptest.NewServer(New(stub).Routes())
		defer server.Close()

		resp, err := http.Post(server.URL+"/v1/query", "application/json",
			strings.NewReader(`{"query": "which fleet is most delayed?"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var decoded insightserver.InsightAnswer
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
		assert.Equal(t, "analytics.ops.avg_delay_fleet", decoded.Intent)
		assert.Equal(t, "The CRJ-700 fleet has the highest average delay.", decoded.Response.Text)
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()

		stub := &stubInsightServer{answerErr: insightserver.ErrInvalidInput}
		server := httptest.NewServer(New(stub).Routes())
		defer server.Close()

		resp, err := http.Post(server.URL+"/v1/query", "application/json",
			strings.NewReader(`{"query": ""}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(New(&stubInsightServer{}).Routes())
		defer server.Close()

		resp, err := http.Post(server.URL+"/v1/query", "application/json",
			strings.NewReader(`{"unexpected": true}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAdapter_CreateComparison(t *testing.T) {
	t.Parallel()

	stub := &stubInsightServer{
		snapshot: insightserver.ReportSnapshot{
			ID:        insightserver.NewRunID(),
			StartedAt: time.Now().UTC(),
		},
	}
	server := httptest.NewServer(New(stub).Routes())
	defer server.Close()

	resp, err := http.Post(server.URL+"/v1/comparisons", "application/json",
		strings.NewReader(`{"queries": ["q1", "q2"], "models": ["m1"]}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{"q1", "q2"}, stub.lastQueries)
	assert.Equal(t, []string{"m1"}, stub.lastModels)

	var decoded insightserver.ReportSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, stub.snapshot.ID.String(), decoded.ID.String())
}

func TestAdapter_ListComparisons(t *testing.T) {
	t.Parallel()

	t.Run("passes sort params", func(t *testing.T) {
		t.Parallel()

		stub := &stubInsightServer{}
		server := httptest.NewServer(New(stub).Routes())
		defer server.Close()

		resp, err := http.Get(server.URL + "/v1/comparisons?sort_by=started_at&order=desc&limit=5")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, insightserver.SortParams{
			By:    "started_at",
			Order: insightserver.SortOrderDesc,
			Limit: 5,
		}, stub.sortParams)
	})

	t.Run("rejects bad order", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(New(&stubInsightServer{}).Routes())
		defer server.Close()

		resp, err := http.Get(server.URL + "/v1/comparisons?order=sideways")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAdapter_GetComparisonById(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		stub := &stubInsightServer{findErr: insightserver.ErrNotFound}
		server := httptest.NewServer(New(stub).Routes())
		defer server.Close()

		resp, err := http.Get(server.URL + "/v1/comparisons/" + insightserver.NewRunID().String())
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid id", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(New(&stubInsightServer{}).Routes())
		defer server.Close()

		resp, err := http.Get(server.URL + "/v1/comparisons/not-a-uuid")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
