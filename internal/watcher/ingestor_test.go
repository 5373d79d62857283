package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/notebase/notebase/internal/chunker"
	"github.com/notebase/notebase/internal/embedding"
	"github.com/notebase/notebase/internal/ingest"
	"github.com/notebase/notebase/internal/models"
	"github.com/notebase/notebase/internal/store"
)

func TestFileIngestor_storesWatchedFileOnSQLite(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewSQLiteStore(filepath.Join(dir, "watch.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	tenant := models.Tenant{UserID: "local", Notebook: "inbox"}
	if err := s.EnsureUser(ctx, tenant.UserID, "directory watcher"); err != nil {
		t.Fatal(err)
	}

	p := ingest.New(s, embedding.NewHashEmbedder(32), chunker.New(50, 10))
	fi := NewFileIngestor(p, tenant, nil)

	path := filepath.Join(dir, "note.md")
	if err := os.WriteFile(path, []byte("# Title\n\nsome watched body text"), 0644); err != nil {
		t.Fatal(err)
	}
	fi.IngestFile(path)

	docs, err := s.ListDocuments(ctx, tenant)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Title != "note" || docs[0].Source != path {
		t.Errorf("got %+v", docs[0])
	}
	chunks, err := s.ListChunks(ctx, tenant)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 {
		t.Error("watched file produced no chunks")
	}
}
