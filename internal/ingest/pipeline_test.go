package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/notebase/notebase/internal/chunker"
	"github.com/notebase/notebase/internal/embedding"
	"github.com/notebase/notebase/internal/models"
	"github.com/notebase/notebase/internal/store"
)

func newPipeline(t *testing.T) (*Pipeline, store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "ingest.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.CreateUser(context.Background(), &models.User{ID: "u1", APIKeyHash: "h"}); err != nil {
		t.Fatal(err)
	}
	p := New(s, embedding.NewHashEmbedder(32), chunker.New(10, 2))
	return p, s
}

func TestIngest_storesChunksWithEmbeddings(t *testing.T) {
	p, s := newPipeline(t)
	ctx := context.Background()
	tenant := models.Tenant{UserID: "u1", Notebook: "nb"}

	docID, count, err := p.Ingest(ctx, tenant, "T", "local", strings.Repeat("abcdefgh ", 5))
	if err != nil {
		t.Fatal(err)
	}
	if docID == "" || count == 0 {
		t.Fatalf("docID=%q count=%d", docID, count)
	}

	cands, err := s.ListChunks(ctx, tenant)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != count {
		t.Errorf("stored %d chunks, reported %d", len(cands), count)
	}
	for i, c := range cands {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.DocumentID != docID {
			t.Errorf("chunk %d references %s", i, c.DocumentID)
		}
		if len(c.Embedding) != 32 || c.Dim != 32 {
			t.Errorf("chunk %d embedding dim %d/%d", i, len(c.Embedding), c.Dim)
		}
	}
}

func TestIngest_emptyTextRecordsZeroChunkDocument(t *testing.T) {
	p, s := newPipeline(t)
	ctx := context.Background()

	docID, count, err := p.Ingest(ctx, models.Tenant{UserID: "u1", Notebook: "nb"}, "T", "local", "")
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected 0 chunks, got %d", count)
	}
	doc, err := s.GetDocument(ctx, docID)
	if err != nil {
		t.Fatalf("empty document should still be recorded: %v", err)
	}
	if doc.Title != "T" {
		t.Errorf("got %+v", doc)
	}
}

func TestIngest_watchTenantNeedsEnsuredUser(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "watch.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	p := New(s, embedding.NewHashEmbedder(32), chunker.New(10, 2))
	ctx := context.Background()
	tenant := models.Tenant{UserID: "local", Notebook: "inbox"}

	// Without a users row the document insert violates the user_id
	// foreign key on the sqlite backend.
	if _, _, err := p.Ingest(ctx, tenant, "note", "note.md", "watched file body"); err == nil {
		t.Fatal("expected ingest to fail for an unknown user")
	}

	if err := s.EnsureUser(ctx, "local", "directory watcher"); err != nil {
		t.Fatal(err)
	}
	docID, count, err := p.Ingest(ctx, tenant, "note", "note.md", "watched file body")
	if err != nil {
		t.Fatalf("ingest after EnsureUser: %v", err)
	}
	if docID == "" || count == 0 {
		t.Fatalf("docID=%q count=%d", docID, count)
	}
}

func TestIngest_sameTextTwiceGivesDistinctDocuments(t *testing.T) {
	p, _ := newPipeline(t)
	ctx := context.Background()
	tenant := models.Tenant{UserID: "u1", Notebook: "nb"}
	text := "identical markdown content for both ingests"

	id1, n1, err := p.Ingest(ctx, tenant, "T", "local", text)
	if err != nil {
		t.Fatal(err)
	}
	id2, n2, err := p.Ingest(ctx, tenant, "T", "local", text)
	if err != nil {
		t.Fatal(err)
	}
	if id1 == id2 {
		t.Error("re-ingestion must create a new document id")
	}
	if n1 != n2 {
		t.Errorf("chunk counts differ: %d vs %d", n1, n2)
	}
}
