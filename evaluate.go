package insightserver

import (
	"regexp"
	"strings"

	"github.com/neurosnap/sentences"
)

// numberPattern matches integers and decimals as they appear in text.
var numberPattern = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)

// hedgePhrases signal that the answer defers to the supplied data.
var hedgePhrases = []string{
	"based on the data",
	"according to",
	"the results show",
	"from the context",
	"data indicates",
	"cannot determine",
	"not available",
	"no information",
}

// absoluteClaims are sweeping words that usually outrun the data.
var absoluteClaims = []string{"always", "never", "all", "none", "every", "must"}

// errorKeywords in an answer suggest the model surfaced a failure instead
// of an insight.
var errorKeywords = []string{"error", "cannot", "unable", "not found", "no data"}

// noDataAdmissions are how an answer correctly admits an empty context.
var noDataAdmissions = []string{"no data", "cannot", "not available"}

// EvaluationRecord holds the per-dimension quality scores for one answer.
// Every score is clamped to [0, 1].
type EvaluationRecord struct {
	Relevance       float64 `json:"relevance"`
	Grounding       float64 `json:"grounding"`
	Completeness    float64 `json:"completeness"`
	Clarity         float64 `json:"clarity"`
	NoHallucination float64 `json:"no_hallucination"`
	Aggregate       float64 `json:"aggregate"`
	Assessment      string  `json:"assessment"`
}

// Evaluator scores answers with cheap lexical heuristics. It holds no
// per-answer state and is safe for concurrent use.
type Evaluator struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

type EvaluatorOption func(*Evaluator)

// WithSentenceTokenizer supplies a trained sentence tokenizer for the
// clarity score. Without one, sentences are split on periods.
func WithSentenceTokenizer(tokenizer *sentences.DefaultSentenceTokenizer) EvaluatorOption {
	return func(e *Evaluator) {
		e.tokenizer = tokenizer
	}
}

func NewEvaluator(options ...EvaluatorOption) *Evaluator {
	e := &Evaluator{}

	for _, o := range options {
		o(e)
	}

	return e
}

// Evaluate scores an answer against the question it addresses and the
// context it was generated from. The context is required for the grounding
// and hallucination scores; passing the rendered context here, not an empty
// string, is what makes those two dimensions meaningful.
func (e *Evaluator) Evaluate(query, answer, context string) EvaluationRecord {
	record := EvaluationRecord{
		Relevance:       e.scoreRelevance(query, answer),
		Grounding:       e.scoreGrounding(answer, context),
		Completeness:    e.scoreCompleteness(answer),
		Clarity:         e.scoreClarity(answer),
		NoHallucination: e.scoreNoHallucination(answer, context),
	}

	record.Aggregate = (record.Relevance +
		record.Grounding +
		record.Completeness +
		record.Clarity +
		record.NoHallucination) / 5

	record.Assessment = assessment(record.Aggregate)

	return record
}

// scoreRelevance measures query keyword coverage in the answer.
func (e *Evaluator) scoreRelevance(query, answer string) float64 {
	if answer == "" || query == "" {
		return 0
	}

	tokens := keywords(query)
	if len(tokens) == 0 {
		return 0.5
	}

	matches := matchedKeywords(tokens, answer)

	return clamp(float64(matches) / float64(len(tokens)))
}

// scoreGrounding checks that the numbers in the answer appear in the
// context. An answer without numbers scores a moderate 0.7; numbers with no
// context to back them score 0.3.
func (e *Evaluator) scoreGrounding(answer, context string) float64 {
	if answer == "" || context == "" {
		return 0
	}

	answerNumbers := uniqueNumbers(answer)
	if len(answerNumbers) == 0 {
		return 0.7
	}

	contextNumbers := uniqueNumbers(context)
	if len(contextNumbers) == 0 {
		return 0.3
	}

	grounded := 0
	for _, a := range answerNumbers {
		for _, c := range contextNumbers {
			if numbersMatch(a, c) {
				grounded++
				break
			}
		}
	}

	return clamp(float64(grounded) / float64(len(answerNumbers)))
}

// scoreCompleteness bands the answer length. The sweet spot is 30 to 150
// words; shorter answers are thin, longer ones rambling.
func (e *Evaluator) scoreCompleteness(answer string) float64 {
	if answer == "" {
		return 0
	}

	wordCount := len(strings.Fields(answer))

	switch {
	case wordCount < 10:
		return 0.3
	case wordCount < 30:
		return 0.6
	case wordCount <= 150:
		return 1.0
	case wordCount <= 250:
		return 0.8
	default:
		return 0.6
	}
}

// scoreClarity penalizes fragmented sentences and error wording.
func (e *Evaluator) scoreClarity(answer string) float64 {
	if answer == "" {
		return 0
	}

	sents := e.splitSentences(answer)
	if len(sents) == 0 {
		return 0.2
	}

	score := 1.0

	totalWords := 0
	for _, s := range sents {
		totalWords += len(strings.Fields(s))
	}
	if float64(totalWords)/float64(len(sents)) < 5 {
		score -= 0.3
	}

	lower := strings.ToLower(answer)
	for _, kw := range errorKeywords {
		if strings.Contains(lower, kw) {
			score -= 0.2
			break
		}
	}

	return clamp(score)
}

// scoreNoHallucination starts at 0.7, rewards hedging that defers to the
// data and punishes absolute claims. When the context is effectively empty,
// an answer that admits there is no data scores a full 1.0.
func (e *Evaluator) scoreNoHallucination(answer, context string) float64 {
	if answer == "" {
		return 1.0
	}

	lower := strings.ToLower(answer)

	score := 0.7

	for _, phrase := range hedgePhrases {
		if strings.Contains(lower, phrase) {
			score += 0.2
			break
		}
	}

	for _, claim := range absoluteClaims {
		if containsWord(lower, claim) {
			score -= 0.3
			break
		}
	}

	if len(context) < 50 {
		for _, phrase := range noDataAdmissions {
			if strings.Contains(lower, phrase) {
				score = 1.0
				break
			}
		}
	}

	return clamp(score)
}

func (e *Evaluator) splitSentences(text string) []string {
	if e.tokenizer != nil {
		var out []string
		for _, s := range e.tokenizer.Tokenize(text) {
			if strings.TrimSpace(s.Text) != "" {
				out = append(out, s.Text)
			}
		}
		return out
	}

	var out []string
	for _, s := range strings.Split(text, ".") {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func uniqueNumbers(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range numberPattern.FindAllString(text, -1) {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// numbersMatch treats a rounded decimal as grounded in its source: two
// numbers match when equal, or when the shorter contains a decimal point
// and prefixes the longer. "16.6" matches "16.63"; "16" does not match
// "160".
func numbersMatch(a, b string) bool {
	if a == b {
		return true
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	return strings.Contains(shorter, ".") && strings.HasPrefix(longer, shorter)
}

// containsWord matches claim as a whole word so "all" does not fire inside
// "overall" or "tallied".
func containsWord(text, claim string) bool {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r < 'a' || r > 'z'
	})
	for _, f := range fields {
		if f == claim {
			return true
		}
	}
	return false
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func assessment(aggregate float64) string {
	switch {
	case aggregate >= 0.8:
		return "Excellent"
	case aggregate >= 0.6:
		return "Good"
	case aggregate >= 0.4:
		return "Fair"
	default:
		return "Poor"
	}
}
