package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerostats/insightserver"
)

type stubEmbedder struct {
	calls int
}

func (s *stubEmbedder) Name() string { return "stub" }

func (s *stubEmbedder) EmbedContent(ctx context.Context, content string) (insightserver.Vector, error) {
	s.calls++
	return insightserver.Vector{float32(len(content))}, nil
}

type stubBatchEmbedder struct {
	stubEmbedder
	batchCalls int
}

func (s *stubBatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]insightserver.Vector, error) {
	s.batchCalls++
	vectors := make([]insightserver.Vector, 0, len(texts))
	for _, text := range texts {
		vectors = append(vectors, insightserver.Vector{float32(len(text))})
	}
	return vectors, nil
}

func TestEmbedEntries(t *testing.T) {
	t.Parallel()

	entries := []insightserver.FeedbackEntry{
		{ID: "F-1001", Text: "great crew"},
		{ID: "F-1002", Text: "lost my bag"},
	}

	t.Run("batch capable embedder embeds in one call", func(t *testing.T) {
		t.Parallel()

		embedder := new(stubBatchEmbedder)

		vectors, err := embedEntries(context.Background(), embedder, entries)
		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Equal(t, 1, embedder.batchCalls)
		assert.Equal(t, 0, embedder.calls)
	})

	t.Run("plain embedder embeds entry by entry", func(t *testing.T) {
		t.Parallel()

		embedder := new(stubEmbedder)

		vectors, err := embedEntries(context.Background(), embedder, entries)
		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Equal(t, 2, embedder.calls)
	})
}
