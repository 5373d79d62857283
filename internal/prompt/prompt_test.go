package prompt

import (
	"strings"
	"testing"

	"github.com/notebase/notebase/internal/models"
)

func TestBuild_numbersContextBlocks(t *testing.T) {
	hits := []*models.Hit{
		{DocTitle: "Notes A", ChunkIndex: 0, Score: 0.91, Content: "first block"},
		{DocTitle: "Notes B", ChunkIndex: 3, Score: 0.72, Content: "second block"},
	}
	p := Build("what is X?", hits)

	for _, want := range []string{
		"[1] source: Notes A | chunk: 0 | score: 0.910",
		"[2] source: Notes B | chunk: 3 | score: 0.720",
		"first block",
		"second block",
		"Question:\nwhat is X?",
		NotFoundAnswer,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
	if strings.Index(p, "first block") > strings.Index(p, "second block") {
		t.Error("context blocks out of order")
	}
}
