package insightserver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultMaxContextLen is the soft cap on the rendered context size.
	// Above it, the least valuable records are truncated first.
	DefaultMaxContextLen = 4000

	// NoDataMessage is rendered in place of an empty fused context so the
	// downstream answer can state explicitly that nothing matched.
	NoDataMessage = "No matching operational data was found for this question."
)

// sectionLabels name each source partition in the rendered context. The
// labels describe the data, never the retrieval mechanism behind it: the
// task block instructs the model not to mention such mechanisms, so the
// context must not hand them to it in the first place.
var sectionLabels = map[Source]string{
	SourceStructured: "OPERATIONAL RECORDS",
	SourceSemantic:   "RELATED PASSENGER FEEDBACK",
	SourceGenerated:  "ADDITIONAL ANALYSIS",
}

// internalFields are metadata keys that describe how a record was obtained
// rather than what it says. They are stripped before rendering.
var internalFields = map[string]struct{}{
	"intent":        {},
	"entities":      {},
	"method":        {},
	"generated_sql": {},
	"embedding":     {},
	"vector":        {},
}

type Renderer struct {
	maxLen int
}

type RendererOption func(*Renderer)

func WithMaxContextLen(maxLen int) RendererOption {
	return func(r *Renderer) {
		r.maxLen = maxLen
	}
}

func NewRenderer(options ...RendererOption) *Renderer {
	r := &Renderer{
		maxLen: DefaultMaxContextLen,
	}

	for _, o := range options {
		o(r)
	}

	return r
}

// Render serializes a fused context into labeled per-source sections. Numeric
// values keep their exact textual form. When the result exceeds the soft
// length cap, records are dropped lowest-value first: semantic records by
// ascending similarity, then aggregates from the lowest-priority source up.
func (r *Renderer) Render(fused FusedContext) string {
	if len(fused) == 0 {
		return NoDataMessage
	}

	entries := make([]FusedRecord, len(fused))
	copy(entries, fused)

	rendered := renderSections(entries)
	for len(rendered) > r.maxLen && len(entries) > 1 {
		victim := dropVictim(entries)
		entries = append(entries[:victim], entries[victim+1:]...)
		rendered = renderSections(entries)
	}

	return rendered
}

func renderSections(entries []FusedRecord) string {
	var b strings.Builder
	for _, source := range fusionOrder {
		var lines []string
		for _, fr := range entries {
			if fr.Source != source {
				continue
			}
			lines = append(lines, renderRecord(fr))
		}
		if len(lines) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "=== %s ===\n", sectionLabels[source])
		for _, line := range lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderRecord(fr FusedRecord) string {
	keys := make([]string, 0, len(fr.Record.Fields))
	for key := range fr.Record.Fields {
		if _, internal := internalFields[key]; internal {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, formatValue(fr.Record.Fields[key])))
	}

	line := "- " + strings.Join(parts, ", ")
	if fr.Source == SourceSemantic && fr.Record.Score > 0 {
		line = fmt.Sprintf("- (match %s) %s", formatValue(fr.Record.Score), strings.Join(parts, ", "))
	}
	return line
}

// formatValue keeps numbers exact: floats are rendered with the shortest
// representation that round-trips, never silently rounded.
func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "null"
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// dropVictim picks the index of the least valuable record: the semantic
// record with the lowest similarity first, then aggregates starting from
// the lowest-priority source, then the tail of the lowest-priority source.
func dropVictim(entries []FusedRecord) int {
	victim := -1
	for i, fr := range entries {
		if fr.Source != SourceSemantic {
			continue
		}
		if victim == -1 || fr.Record.Score < entries[victim].Record.Score {
			victim = i
		}
	}
	if victim != -1 {
		return victim
	}

	for i := len(fusionOrder) - 1; i >= 0; i-- {
		for j := len(entries) - 1; j >= 0; j-- {
			if entries[j].Source == fusionOrder[i] && entries[j].Record.Aggregate() {
				return j
			}
		}
	}

	for i := len(fusionOrder) - 1; i >= 0; i-- {
		for j := len(entries) - 1; j >= 0; j-- {
			if entries[j].Source == fusionOrder[i] {
				return j
			}
		}
	}

	return len(entries) - 1
}
