package analysis

import (
	"fmt"
	"strings"
)

var instructions = map[Mode]struct{ role, tasks, closing string }{
	ModeSummary: {
		role: "You are a legal expert who explains complex legal documents in simple terms that anyone can understand.",
		tasks: `Please analyze this legal document and provide:
1. A simple summary in everyday language (as if explaining to a friend)
2. Key points that the person should know
3. Any potential risks or important clauses
4. Action items or things to watch out for`,
		closing: "Please respond in a friendly, clear manner using simple words and short sentences.",
	},
	ModeRisks: {
		role: "You are a legal advisor helping someone understand potential risks in a legal document.",
		tasks: `Analyze this document and identify:
1. Financial risks (extra fees, penalties, costs)
2. Legal obligations (what you MUST do)
3. Things you're giving up (rights you're waiving)
4. Consequences of breaking the agreement
5. Red flags or unusual clauses`,
		closing: "Explain each risk clearly and suggest what to watch out for.",
	},
	ModeQuestions: {
		role: "You are helping someone prepare questions to ask before signing this legal document.",
		tasks: `Based on this document, suggest important questions they should ask:
1. Questions about costs and fees
2. Questions about responsibilities and obligations
3. Questions about what happens if things go wrong
4. Questions about cancellation or changes
5. Questions about unclear terms`,
		closing: "Provide specific, practical questions they can ask.",
	},
}

// BuildPrompt interpolates text into the template for mode.
func BuildPrompt(mode Mode, text string) (string, error) {
	in, ok := instructions[mode]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, string(mode))
	}
	var sb strings.Builder
	sb.WriteString(in.role)
	sb.WriteString("\n\n")
	sb.WriteString(in.tasks)
	sb.WriteString("\n\nLegal Document:\n")
	sb.WriteString(text)
	sb.WriteString("\n\n")
	sb.WriteString(in.closing)
	return sb.String(), nil
}

// BuildQuestionPrompt asks about one part of the document.
func BuildQuestionPrompt(text, question string) string {
	var sb strings.Builder
	sb.WriteString("You are a legal expert helping someone understand a specific part of their legal document.\n\n")
	fmt.Fprintf(&sb, "Document: %s\n\n", text)
	fmt.Fprintf(&sb, "Question: %s\n\n", strings.TrimSpace(question))
	sb.WriteString("Please provide a clear, simple explanation that directly answers their question.\n")
	sb.WriteString("Use everyday language and give practical advice.")
	return sb.String()
}
