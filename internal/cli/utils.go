// Package cli provides CLI output utilities for notebase.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/notebase/notebase/internal/models"
)

// OutputFormat is the format for CLI output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteHits writes retrieval hits to w in the given format.
func WriteHits(w io.Writer, query string, hits []*models.Hit, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}
	writeHitsText(w, query, hits)
	return nil
}

func writeHitsText(w io.Writer, query string, hits []*models.Hit) {
	fmt.Fprintf(w, "\n%d hits for %q\n\n", len(hits), query)
	for i, hit := range hits {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | %s (chunk %d)\n", i+1, hit.Score, hit.DocTitle, hit.ChunkIndex)
		if hit.DocSource != "" {
			fmt.Fprintf(w, "Source: %s\n", hit.DocSource)
		}
		fmt.Fprintf(w, "\n%s\n\n", Truncate(hit.Content, 200))
	}
}

// WriteAnswer writes an assistant answer to w in the given format.
func WriteAnswer(w io.Writer, answer *models.Answer, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}
	writeAnswerText(w, answer)
	return nil
}

func writeAnswerText(w io.Writer, answer *models.Answer) {
	fmt.Fprintf(w, "\n%s\n", answer.Answer)
	if !answer.Grounded {
		fmt.Fprintln(w, "\n(no supporting context found)")
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for _, src := range answer.Sources {
		fmt.Fprintf(w, "  [%.4f] %s (chunk %d)\n", src.Score, src.DocTitle, src.ChunkIndex)
	}
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
