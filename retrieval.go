package insightserver

import (
	"errors"

	"github.com/gofrs/uuid/v5"
)

var (
	// ErrInvalidInput signals an empty or malformed query. It is fatal to
	// the call that received it, never to the process.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBackendUnavailable signals an unreachable generation backend.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrRateLimited signals the generation backend rejected the call due
	// to rate limits.
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout signals a generation call exceeded its per-call deadline.
	ErrTimeout = errors.New("timeout")

	ErrNotFound = errors.New("not found")
)

// Source tags a retrieval result with the technique that produced it.
// IntentUnknown is the fallback intent when classification is unavailable
// or fails. Structured queriers answer it with their default query.
const IntentUnknown = "unknown"

type Source string

const (
	SourceStructured Source = "structured"
	SourceSemantic   Source = "semantic"
	SourceGenerated  Source = "generated"
)

// Record is a single retrieved row. Records without an ID are aggregates
// (group-by statistics and the like) and are never deduplicated. Score is
// only meaningful for semantic-source records and lies in [0,1].
type Record struct {
	ID     string
	Fields map[string]any
	Score  float64
}

// Aggregate reports whether the record has no individual identity.
func (r Record) Aggregate() bool {
	return r.ID == ""
}

// RetrievalResult is the ordered output of a single retrieval technique.
type RetrievalResult struct {
	Source  Source
	Records []Record
}

func (r RetrievalResult) Empty() bool {
	return len(r.Records) == 0
}

// EmptyResult returns a valid, empty result for the given source. Empty
// retrieval is not an error; it signals "no matching data".
func EmptyResult(source Source) RetrievalResult {
	return RetrievalResult{Source: source}
}

type QueryID struct{ uuid.UUID }

func NewQueryID() QueryID {
	return QueryID{uuid.Must(uuid.NewV4())}
}

type RunID struct{ uuid.UUID }

func NewRunID() RunID {
	return RunID{uuid.Must(uuid.NewV4())}
}

func ParseRunID(s string) (RunID, error) {
	id, err := uuid.FromString(s)
	if err != nil {
		return RunID{}, err
	}
	return RunID{id}, nil
}
