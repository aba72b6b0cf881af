package chunker

import "strings"

// TokenBudgetChunker splits text into chunks that fit an embedding
// model's input limit. Sentences are approximated by ". " boundaries
// and token counts by len/4; both are heuristics, but deterministic
// ones for a given input and budget.
type TokenBudgetChunker struct {
	maxChunkTokens int
}

func New(maxChunkTokens int) *TokenBudgetChunker {
	if maxChunkTokens <= 0 {
		maxChunkTokens = 8000
	}
	return &TokenBudgetChunker{maxChunkTokens: maxChunkTokens}
}

// Chunk greedily accumulates sentences until adding the next one would
// exceed the token budget. A single sentence over the budget is never
// split further; it becomes its own oversized chunk. Text within the
// budget comes back as exactly one chunk equal to the input.
func (c *TokenBudgetChunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	sentences := strings.Split(text, ". ")

	var chunks []string
	var current []string
	currentSize := 0
	for _, sentence := range sentences {
		sentenceSize := len(sentence) / 4
		if len(current) > 0 && currentSize+sentenceSize > c.maxChunkTokens {
			chunks = append(chunks, strings.Join(current, ". ")+".")
			current = current[:0]
			currentSize = 0
		}
		current = append(current, sentence)
		currentSize += sentenceSize
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, ". "))
	}
	return chunks
}
