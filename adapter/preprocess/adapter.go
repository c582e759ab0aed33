// Package preprocess classifies user questions into structured query
// intents and extracts the entities those queries need, using a generation
// model.
package preprocess

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/aerostats/insightserver"
)

const defaultModel = "llama-3.1-8b-instant"

const schemaContext = `Tables and columns:
- passenger: passenger_class, generation, loyalty_program_level
- journey: feedback_id, food_satisfaction_score, arrival_delay_minutes, actual_flown_miles, number_of_legs
- flight: flight_number, fleet_type
- airport: station_code (origin, destination)`

const classifyPromptTemplate = `You are an intent classifier for an airline operations insight system.

User Input: %q

Available Intents:
%s

Task:
Analyze the user input and map it to exactly one of the available intents.
Return ONLY the intent key. If the input does not match any intent, return "unknown".`

const extractPromptTemplate = `You are an entity extractor for an airline database query system.

Schema Context:
%s

User Input: %q
Identified Intent: %q

Task:
Extract the parameters the query for this intent needs from the user input.
Return a valid JSON object mapping parameter names to values.

Standard parameter names (use these keys if applicable):
- min_delay, max_delay (for arrival_delay_minutes)
- min_score, max_score (for food_satisfaction_score)
- min_miles, max_miles (for actual_flown_miles)
- loyalty_level (for loyalty_program_level)
- generation
- passenger_class
- fleet_type
- station_code, origin, dest

If a parameter is missing or cannot be inferred, do not include it.
Return ONLY the JSON object.`

type Adapter struct {
	generator insightserver.Generator
	intents   []string
	model     string
	logger    *zap.Logger
}

type Option func(*Adapter)

func WithModel(model string) Option {
	return func(a *Adapter) {
		if model != "" {
			a.model = model
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New builds a preprocessor over the given generation backend. The intents
// slice is the catalogue the classifier may choose from, typically taken
// from the structured querier.
func New(generator insightserver.Generator, intents []string, options ...Option) *Adapter {
	a := &Adapter{
		generator: generator,
		intents:   intents,
		model:     defaultModel,
		logger:    zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	return a
}

// ClassifyIntent maps the question onto one of the known intents, or
// IntentUnknown when the model picks nothing recognizable.
func (a *Adapter) ClassifyIntent(ctx context.Context, query string) (string, error) {
	prompt := fmt.Sprintf(classifyPromptTemplate, query, strings.Join(a.intents, "\n"))

	generation, err := a.generator.Invoke(ctx, prompt, a.model, 0.0, 64)
	if err != nil {
		return "", fmt.Errorf("intent classification failed: %w", err)
	}

	intent := cleanIntent(generation.Text)
	for _, known := range a.intents {
		if intent == known {
			return intent, nil
		}
	}

	a.logger.Debug("classifier returned unknown intent", zap.String("raw", generation.Text))
	return insightserver.IntentUnknown, nil
}

// ExtractEntities pulls query parameters out of the question as a flat
// string map. A response that is not parsable JSON yields an empty map, not
// an error, since every structured query has parameter defaults.
func (a *Adapter) ExtractEntities(ctx context.Context, query, intent string) (map[string]string, error) {
	prompt := fmt.Sprintf(extractPromptTemplate, schemaContext, query, intent)

	generation, err := a.generator.Invoke(ctx, prompt, a.model, 0.0, 256)
	if err != nil {
		return nil, fmt.Errorf("entity extraction failed: %w", err)
	}

	raw := stripFences(generation.Text)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		a.logger.Warn("entity extraction returned unparsable json", zap.String("raw", generation.Text))
		return map[string]string{}, nil
	}

	entities := make(map[string]string, len(parsed))
	for key, value := range parsed {
		entities[key] = stringifyEntity(value)
	}

	return entities, nil
}

func cleanIntent(text string) string {
	intent := strings.TrimSpace(text)
	intent = strings.Trim(intent, `"'`)
	return strings.TrimSpace(intent)
}

// stringifyEntity flattens a JSON value into the string form the query
// templates bind. Numbers keep their shortest representation.
func stringifyEntity(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

// stripFences unwraps a markdown code block the model may have added
// around the JSON.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if start := strings.Index(text, "```"); start >= 0 {
		text = text[start+3:]
		text = strings.TrimPrefix(text, "json")
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}
	return strings.TrimSpace(text)
}
