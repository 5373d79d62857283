// Package prompt assembles the grounded question-answering prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/notebase/notebase/internal/models"
)

// NotFoundAnswer is the canonical refusal when nothing was retrieved. The
// generator is instructed to use the same wording when the context does not
// contain the answer.
const NotFoundAnswer = "Not found in knowledge base."

const systemRules = `You are a study assistant answering from a personal knowledge base.

Rules:
- Use ONLY the provided context.
- If the answer is not in the context, say: "` + NotFoundAnswer + `"
- Be concise, factual, and structured.
- Cite context blocks by their number, like [1] or [2].`

// Build assembles the full prompt: system rules, numbered context blocks
// from the retrieved hits, and the question.
func Build(question string, hits []*models.Hit) string {
	var b strings.Builder
	b.WriteString(systemRules)
	b.WriteString("\n\nContext:\n")
	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] source: %s | chunk: %d | score: %.3f\n%s\n\n",
			i+1, h.DocTitle, h.ChunkIndex, h.Score, h.Content)
	}
	fmt.Fprintf(&b, "Question:\n%s\n\nAnswer:\n", question)
	return b.String()
}
