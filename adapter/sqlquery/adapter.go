// Package sqlquery retrieves operational records from the relational
// dataset, either through curated per-intent query templates or through
// model-generated SQL.
package sqlquery

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/aerostats/insightserver"
)

type Adapter struct {
	db     *sql.DB
	logger *zap.Logger
}

type Option func(*Adapter)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func New(db *sql.DB, options ...Option) *Adapter {
	a := &Adapter{
		db:     db,
		logger: zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	return a
}

func (a *Adapter) Name() string {
	return "sqlquery"
}

// Intents returns the sorted keys of the template catalogue, for the intent
// classifier to choose from.
func (a *Adapter) Intents() []string {
	intents := make([]string, 0, len(templates))
	for intent := range templates {
		intents = append(intents, intent)
	}
	sort.Strings(intents)
	return intents
}

// RunStructuredQuery executes the template registered for the intent,
// binding extracted entities over the template's parameter defaults. An
// unknown intent falls back to the dataset overview template.
func (a *Adapter) RunStructuredQuery(ctx context.Context, intent string, entities map[string]string) (insightserver.RetrievalResult, error) {
	tmpl, ok := templates[intent]
	if !ok {
		a.logger.Debug("no template for intent, using overview", zap.String("intent", intent))
		tmpl = overviewTemplate
	}

	args := make([]any, 0, len(tmpl.params))
	for _, p := range tmpl.params {
		args = append(args, entityValue(entities, p.name, p.fallback))
	}

	records, err := a.queryRecords(ctx, tmpl.sql, args...)
	if err != nil {
		return insightserver.RetrievalResult{}, fmt.Errorf("structured query for intent %q failed: %w", intent, err)
	}

	return insightserver.RetrievalResult{
		Source:  insightserver.SourceStructured,
		Records: records,
	}, nil
}

func (a *Adapter) queryRecords(ctx context.Context, query string, args ...any) ([]insightserver.Record, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query context failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns failed: %w", err)
	}

	var records []insightserver.Record
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		record := insightserver.Record{Fields: make(map[string]any, len(columns))}
		for i, column := range columns {
			value := normalizeValue(values[i])
			if column == "feedback_id" {
				if id, ok := value.(string); ok {
					record.ID = id
				}
			}
			record.Fields[column] = value
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return records, nil
}

// normalizeValue converts driver-specific scan results into the plain
// types the rest of the pipeline renders.
func normalizeValue(v any) any {
	switch value := v.(type) {
	case []byte:
		return string(value)
	case int64:
		return float64(value)
	default:
		return v
	}
}

// entityValue resolves a template parameter from the extracted entities,
// parsing numeric strings so comparisons against real columns work.
func entityValue(entities map[string]string, name string, fallback any) any {
	raw, ok := entities[name]
	if !ok || raw == "" {
		return fallback
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
