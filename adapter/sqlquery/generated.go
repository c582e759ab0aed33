package sqlquery

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aerostats/insightserver"
)

const schemaContext = `Tables and columns:
- passenger (id, passenger_class, generation, loyalty_program_level)
- journey (feedback_id, passenger_id, flight_number, fleet_type, origin, destination,
  arrival_delay_minutes, food_satisfaction_score, actual_flown_miles, number_of_legs, feedback_text)
- airport (code, name)

journey.passenger_id references passenger.id.
journey.origin and journey.destination reference airport.code.`

const sqlPromptTemplate = `You are a SQL generator for an airline operations database (SQLite).

Schema:
%s

User question: %q

Write a single SQLite SELECT statement that answers the question.
Rules:
- SELECT only, no data modification.
- Limit row results to at most 25 rows.
- Return ONLY the SQL, no explanation and no markdown fences.`

const (
	defaultGeneratedModel = "llama-3.1-8b-instant"
	generatedRowLimit     = 25
)

// forbiddenKeywords rejects generated statements that could mutate or probe
// the database. Matched on whole words, lowercased.
var forbiddenKeywords = []string{
	"insert", "update", "delete", "drop", "alter", "create",
	"attach", "detach", "pragma", "vacuum", "replace",
}

// Generated turns natural language into SQL via a generation model and runs
// the result, after validating that it is a plain read.
type Generated struct {
	db        *sql.DB
	generator insightserver.Generator
	model     string
	logger    *zap.Logger
}

type GeneratedOption func(*Generated)

func WithGeneratedModel(model string) GeneratedOption {
	return func(g *Generated) {
		if model != "" {
			g.model = model
		}
	}
}

func WithGeneratedLogger(logger *zap.Logger) GeneratedOption {
	return func(g *Generated) {
		g.logger = logger
	}
}

func NewGenerated(db *sql.DB, generator insightserver.Generator, options ...GeneratedOption) *Generated {
	g := &Generated{
		db:        db,
		generator: generator,
		model:     defaultGeneratedModel,
		logger:    zap.NewNop(),
	}

	for _, o := range options {
		o(g)
	}

	return g
}

func (g *Generated) RunGeneratedQuery(ctx context.Context, query string) (insightserver.RetrievalResult, error) {
	prompt := fmt.Sprintf(sqlPromptTemplate, schemaContext, query)

	generation, err := g.generator.Invoke(ctx, prompt, g.model, 0.0, 512)
	if err != nil {
		return insightserver.RetrievalResult{}, fmt.Errorf("sql generation failed: %w", err)
	}

	statement, err := sanitizeStatement(generation.Text)
	if err != nil {
		return insightserver.RetrievalResult{}, err
	}

	g.logger.Debug("running generated sql", zap.String("sql", statement))

	adapter := Adapter{db: g.db, logger: g.logger}
	records, err := adapter.queryRecords(ctx, statement)
	if err != nil {
		return insightserver.RetrievalResult{}, fmt.Errorf("generated query failed: %w", err)
	}

	return insightserver.RetrievalResult{
		Source:  insightserver.SourceGenerated,
		Records: records,
	}, nil
}

// sanitizeStatement strips markdown fences the model may wrap the SQL in,
// rejects anything that is not a single SELECT, and caps the row count.
func sanitizeStatement(text string) (string, error) {
	statement := stripFences(text)
	statement = strings.TrimSuffix(strings.TrimSpace(statement), ";")

	if statement == "" {
		return "", fmt.Errorf("%w: model returned no sql", insightserver.ErrInvalidInput)
	}

	lowered := strings.ToLower(statement)
	if !strings.HasPrefix(lowered, "select") && !strings.HasPrefix(lowered, "with") {
		return "", fmt.Errorf("%w: generated statement is not a select", insightserver.ErrInvalidInput)
	}
	if strings.Contains(statement, ";") {
		return "", fmt.Errorf("%w: generated statement contains multiple commands", insightserver.ErrInvalidInput)
	}

	words := strings.FieldsFunc(lowered, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_')
	})
	for _, word := range words {
		for _, forbidden := range forbiddenKeywords {
			if word == forbidden {
				return "", fmt.Errorf("%w: generated statement uses forbidden keyword %q", insightserver.ErrInvalidInput, forbidden)
			}
		}
	}

	if !strings.Contains(lowered, "limit") {
		statement = fmt.Sprintf("%s limit %d", statement, generatedRowLimit)
	}

	return statement, nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if start := strings.Index(text, "```"); start >= 0 {
		text = text[start+3:]
		text = strings.TrimPrefix(text, "sql")
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}
	return strings.TrimSpace(text)
}
