package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/notebase/notebase/internal/assistant"
	"github.com/notebase/notebase/internal/auth"
	"github.com/notebase/notebase/internal/chunker"
	"github.com/notebase/notebase/internal/config"
	"github.com/notebase/notebase/internal/embedding"
	"github.com/notebase/notebase/internal/ingest"
	"github.com/notebase/notebase/internal/llm"
	"github.com/notebase/notebase/internal/models"
	"github.com/notebase/notebase/internal/retriever"
	"github.com/notebase/notebase/internal/store"
)

func newTestServer(t *testing.T) (http.Handler, string) {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	embedder := embedding.NewHashEmbedder(64)
	pipeline := ingest.New(st, embedder, chunker.New(50, 10))
	retr := retriever.New(st, embedder, 5)
	asst := assistant.New(retr, llm.StubGenerator{})

	cfg := &config.Config{}
	cfg.Storage.Backend = "sqlite"
	cfg.Embedding.Provider = "hash"

	srv := NewServer(pipeline, retr, asst, st, embedder, cfg, zap.NewNop())

	_, apiKey, err := auth.CreateUser(context.Background(), st, "tests")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	return srv.router(), apiKey
}

func doJSON(t *testing.T, h http.Handler, method, path, apiKey string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if apiKey != "" {
		req.Header.Set(auth.HeaderAPIKey, apiKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestIngest_requiresAPIKey(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/ingest", "", ingestRequest{
		Notebook: "nb", Markdown: "hello",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestIngest_rejectsInvalidAPIKey(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/ingest", "not-a-key", ingestRequest{
		Notebook: "nb", Markdown: "hello",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestIngest_storesDocument(t *testing.T) {
	h, key := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/ingest", key, ingestRequest{
		Notebook: "physics",
		Title:    "Notes",
		Source:   "notes.md",
		Markdown: "The speed of light in vacuum is a universal constant.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ingestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.DocumentID == "" {
		t.Error("expected a document id")
	}
	if resp.Chunks < 1 {
		t.Errorf("expected at least one chunk, got %d", resp.Chunks)
	}
}

func TestIngest_rejectsEmptyMarkdown(t *testing.T) {
	h, key := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/ingest", key, ingestRequest{
		Notebook: "nb", Markdown: "   \n\t  ",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestIngest_rejectsMissingNotebook(t *testing.T) {
	h, key := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/ingest", key, ingestRequest{
		Markdown: "hello",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRetrieve_returnsIngestedChunks(t *testing.T) {
	h, key := newTestServer(t)

	text := "Gravity bends spacetime around massive objects."
	rec := doJSON(t, h, http.MethodPost, "/api/v1/ingest", key, ingestRequest{
		Notebook: "physics", Title: "Gravity", Source: "g.md", Markdown: text,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest failed: %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/retrieve?notebook=physics&q="+
		"Gravity+bends+spacetime+around+massive+objects.", key, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp retrieveResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(resp.Hits))
	}
	if resp.Hits[0].Content != text {
		t.Errorf("unexpected hit content %q", resp.Hits[0].Content)
	}
	if resp.Hits[0].Score < 0.999 {
		t.Errorf("expected near-perfect score for exact text, got %f", resp.Hits[0].Score)
	}
}

func TestRetrieve_requiresQueryParams(t *testing.T) {
	h, key := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/retrieve?q=hello", key, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing notebook: expected 400, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/retrieve?notebook=nb", key, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing q: expected 400, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/retrieve?notebook=nb&q=x&top_k=zero", key, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad top_k: expected 400, got %d", rec.Code)
	}
}

func TestAsk_emptyNotebookRefuses(t *testing.T) {
	h, key := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/ask", key, askRequest{
		Notebook: "empty", Question: "anything?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var answer models.Answer
	if err := json.NewDecoder(rec.Body).Decode(&answer); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if answer.Grounded {
		t.Error("expected ungrounded answer for empty notebook")
	}
	if len(answer.Sources) != 0 {
		t.Errorf("expected no sources, got %d", len(answer.Sources))
	}
}

func TestAsk_groundedAfterIngest(t *testing.T) {
	h, key := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/ingest", key, ingestRequest{
		Notebook: "cooking", Title: "Bread", Source: "bread.md",
		Markdown: "Sourdough needs a mature starter and a long cold proof.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest failed: %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/ask", key, askRequest{
		Notebook: "cooking", Question: "How do I make sourdough?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var answer models.Answer
	if err := json.NewDecoder(rec.Body).Decode(&answer); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !answer.Grounded {
		t.Error("expected grounded answer")
	}
	if len(answer.Sources) != 1 {
		t.Errorf("expected 1 source, got %d", len(answer.Sources))
	}
	if answer.TopScore == nil {
		t.Error("expected top score on grounded answer")
	}
}

func TestListDocuments_tenantScoped(t *testing.T) {
	h, key := newTestServer(t)

	for _, nb := range []string{"a", "a", "b"} {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/ingest", key, ingestRequest{
			Notebook: nb, Title: "doc", Markdown: "some text",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("ingest failed: %d", rec.Code)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/api/v1/documents?notebook=a", key, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp documentsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Documents) != 2 {
		t.Errorf("expected 2 documents in notebook a, got %d", len(resp.Documents))
	}
}

func TestStatus_reportsBackendAndProvider(t *testing.T) {
	h, key := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/ingest", key, ingestRequest{
		Notebook: "nb", Title: "doc", Markdown: "some text",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest failed: %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/status", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Documents != 1 || resp.Chunks != 1 {
		t.Errorf("unexpected counts: %d documents, %d chunks", resp.Documents, resp.Chunks)
	}
	if resp.StorageBackend != "sqlite" {
		t.Errorf("unexpected backend %q", resp.StorageBackend)
	}
	if resp.EmbeddingProvider != "hash" {
		t.Errorf("unexpected provider %q", resp.EmbeddingProvider)
	}
	if resp.EmbeddingDim != 64 {
		t.Errorf("unexpected dim %d", resp.EmbeddingDim)
	}
	if resp.EmbeddingFallback {
		t.Error("hash provider should not report fallback")
	}
}
