// Package answer turns retrieved chunks and a question into a grounded
// prompt and hands it to a generation provider.
package answer

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"ragloc/internal/domain"
)

// Unknown is the marker the model is told to emit when the context does not
// contain the answer. It is also returned directly when nothing was retrieved.
const Unknown = "I don't know."

const defaultMaxTokens = 100

// Composer assembles prompts and delegates to a Generator.
type Composer struct {
	generator domain.Generator
	maxTokens int
	logger    *zap.Logger
}

func NewComposer(g domain.Generator, maxTokens int, logger *zap.Logger) *Composer {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{generator: g, maxTokens: maxTokens, logger: logger}
}

// Compose answers query from retrieved. With no retrieved chunks the
// generator is not called and Unknown is returned.
func (c *Composer) Compose(ctx context.Context, query string, retrieved []domain.Chunk) (string, error) {
	if len(retrieved) == 0 {
		return Unknown, nil
	}
	prompt := BuildPrompt(query, retrieved)
	c.logger.Debug("generating answer",
		zap.String("generator", c.generator.Name()),
		zap.Int("chunks", len(retrieved)),
		zap.Int("prompt_bytes", len(prompt)),
	)
	out, err := c.generator.Generate(ctx, prompt, c.maxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// BuildPrompt joins chunk texts with single spaces, in the given order, and
// places them in a fixed template with the context block delimited from the
// question.
func BuildPrompt(query string, chunks []domain.Chunk) string {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	var b strings.Builder
	b.WriteString("Answer the question using ONLY the context below. ")
	b.WriteString("If the answer is not in the context, say '")
	b.WriteString(Unknown)
	b.WriteString("'\n\n")
	b.WriteString("Context:\n\"\"\"\n")
	b.WriteString(strings.Join(texts, " "))
	b.WriteString("\n\"\"\"\n\n")
	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\nAnswer:")
	return b.String()
}
