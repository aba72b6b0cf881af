package service

import (
	"fmt"
	"strings"

	"wikirag/internal/domain"
)

// systemPrompt is the fixed persona and instructions for the chat
// model. Generation is constrained to the retrieved passages.
const systemPrompt = `You are Aiden, a helpful assistant answering questions about a company knowledge base.
Answer using only the context passages provided in the user message.
If the context does not contain the answer, say you do not know rather than guessing.
Keep answers concise and factual.`

// buildPrompt embeds the retrieved passages and the original question
// into one grounded user prompt.
func buildPrompt(question string, matches []domain.Match) string {
	var b strings.Builder
	b.WriteString("Answer the question based on the context below.\n\nContext:\n")
	for i, m := range matches {
		title := m.Metadata.Title
		if title == "" {
			title = m.ID
		}
		fmt.Fprintf(&b, "--- Passage %d: %s ---\n%s\n\n", i+1, title, m.Metadata.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
