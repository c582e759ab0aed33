package insightserver

import (
	"fmt"
	"strings"
)

// Persona describes the voice the model answers in.
type Persona struct {
	Role      string
	Expertise string
	Tone      string
}

// DefaultPersona is the airline insights assistant used when the caller does
// not supply one.
var DefaultPersona = Persona{
	Role:      "You are an Airline Flight Insights Assistant working for the airline company.",
	Expertise: "Your role is to analyze flight data, passenger feedback, and operational metrics to provide actionable insights for improving airline operations and customer satisfaction.",
	Tone:      "You speak professionally and focus on data-driven insights.",
}

func (p Persona) String() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Role, p.Expertise, p.Tone} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

type PromptBuilder struct {
	persona Persona
}

type PromptBuilderOption func(*PromptBuilder)

func WithPersona(persona Persona) PromptBuilderOption {
	return func(b *PromptBuilder) {
		b.persona = persona
	}
}

func NewPromptBuilder(options ...PromptBuilderOption) *PromptBuilder {
	b := &PromptBuilder{
		persona: DefaultPersona,
	}

	for _, o := range options {
		o(b)
	}

	return b
}

// Synthesize assembles the final prompt from the rendered context and the
// user's question. The question must be non-empty; the context may be the
// no-data message, in which case the task instructions still require the
// model to say so rather than invent an answer.
func (b *PromptBuilder) Synthesize(query, context string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("%w: empty query", ErrInvalidInput)
	}

	var sb strings.Builder

	sb.WriteString("### PERSONA\n")
	sb.WriteString(b.persona.String())
	sb.WriteString("\n\n### CONTEXT\n")
	sb.WriteString(context)
	sb.WriteString("\n\n### TASK\n")
	sb.WriteString("Answer the following question using ONLY the provided information.\n")
	sb.WriteString("Do not make up information or hallucinate. If the data doesn't contain the answer, say so clearly.\n")
	sb.WriteString("Do not mention how the information was retrieved or any internal scores.\n")
	sb.WriteString("Do not repeat the context's raw data rows verbatim; paraphrase and summarize them.\n\n")
	fmt.Fprintf(&sb, "Question: %s\n\n", strings.TrimSpace(query))
	sb.WriteString("Provide a clear, concise answer that:\n")
	sb.WriteString("1. Directly addresses the question\n")
	sb.WriteString("2. References specific data points from the context\n")
	sb.WriteString("3. Provides actionable insights when relevant\n")
	sb.WriteString("4. Uses a professional tone appropriate for airline management\n")
	sb.WriteString("\n### ANSWER\n")

	return sb.String(), nil
}
