package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/notebase/notebase/internal/auth"
	"github.com/notebase/notebase/internal/models"
)

type ctxKey int

const userCtxKey ctxKey = iota

func userFrom(ctx context.Context) *auth.UserContext {
	uc, _ := ctx.Value(userCtxKey).(*auth.UserContext)
	return uc
}

// requireUser resolves the X-API-Key header into a user context.
// Requests without a valid key are rejected with 401.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(auth.HeaderAPIKey)
		if key == "" {
			respondError(w, http.StatusUnauthorized, "missing API key")
			return
		}
		uc, err := auth.Resolve(r.Context(), s.store, key)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		ctx := context.WithValue(r.Context(), userCtxKey, uc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type ingestRequest struct {
	Notebook string `json:"notebook"`
	Title    string `json:"title"`
	Source   string `json:"source"`
	Markdown string `json:"markdown"`
}

type ingestResponse struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	uc := userFrom(r.Context())

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Notebook == "" {
		respondError(w, http.StatusBadRequest, "notebook is required")
		return
	}
	if strings.TrimSpace(req.Markdown) == "" {
		respondError(w, http.StatusBadRequest, "markdown must not be empty")
		return
	}

	tenant := models.Tenant{UserID: uc.UserID, Notebook: req.Notebook}
	docID, chunks, err := s.pipeline.Ingest(r.Context(), tenant, req.Title, req.Source, req.Markdown)
	if err != nil {
		s.logger.Error("Ingest failed", zap.String("notebook", req.Notebook), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "ingest failed")
		return
	}

	respondJSON(w, http.StatusCreated, ingestResponse{DocumentID: docID, Chunks: chunks})
}

type askRequest struct {
	Notebook string `json:"notebook"`
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	uc := userFrom(r.Context())

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Notebook == "" {
		respondError(w, http.StatusBadRequest, "notebook is required")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondError(w, http.StatusBadRequest, "question must not be empty")
		return
	}

	tenant := models.Tenant{UserID: uc.UserID, Notebook: req.Notebook}
	answer, err := s.assistant.Ask(r.Context(), tenant, req.Question, req.TopK)
	if err != nil {
		s.logger.Error("Ask failed", zap.String("notebook", req.Notebook), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "ask failed")
		return
	}

	respondJSON(w, http.StatusOK, answer)
}

type retrieveResponse struct {
	Query string        `json:"query"`
	Hits  []*models.Hit `json:"hits"`
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	uc := userFrom(r.Context())

	notebook := r.URL.Query().Get("notebook")
	if notebook == "" {
		respondError(w, http.StatusBadRequest, "notebook parameter is required")
		return
	}
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		respondError(w, http.StatusBadRequest, "q parameter is required")
		return
	}
	topK := 0
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "top_k must be a positive integer")
			return
		}
		topK = n
	}

	tenant := models.Tenant{UserID: uc.UserID, Notebook: notebook}
	hits, err := s.retriever.Retrieve(r.Context(), tenant, query, topK)
	if err != nil {
		s.logger.Error("Retrieve failed", zap.String("notebook", notebook), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "retrieve failed")
		return
	}
	if hits == nil {
		hits = []*models.Hit{}
	}

	respondJSON(w, http.StatusOK, retrieveResponse{Query: query, Hits: hits})
}

type documentsResponse struct {
	Documents []*models.Document `json:"documents"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	uc := userFrom(r.Context())

	notebook := r.URL.Query().Get("notebook")
	if notebook == "" {
		respondError(w, http.StatusBadRequest, "notebook parameter is required")
		return
	}

	tenant := models.Tenant{UserID: uc.UserID, Notebook: notebook}
	docs, err := s.store.ListDocuments(r.Context(), tenant)
	if err != nil {
		s.logger.Error("List documents failed", zap.String("notebook", notebook), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "list documents failed")
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}

	respondJSON(w, http.StatusOK, documentsResponse{Documents: docs})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Documents         int64  `json:"documents"`
	Chunks            int64  `json:"chunks"`
	StorageBackend    string `json:"storage_backend"`
	EmbeddingProvider string `json:"embedding_provider"`
	EmbeddingDim      int    `json:"embedding_dim"`
	EmbeddingFallback bool   `json:"embedding_fallback"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.CountDocuments(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "status unavailable")
		return
	}
	chunks, err := s.store.CountChunks(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "status unavailable")
		return
	}

	// Probe the embedding provider so the fallback state is observable.
	probeCtx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	res, err := s.embedder.EmbedBatch(probeCtx, []string{"ping"})
	fallback := err != nil || res.Fallback

	respondJSON(w, http.StatusOK, statusResponse{
		Documents:         docs,
		Chunks:            chunks,
		StorageBackend:    s.config.Storage.Backend,
		EmbeddingProvider: s.config.Embedding.Provider,
		EmbeddingDim:      s.embedder.Dimensions(),
		EmbeddingFallback: fallback,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already sent, nothing left to do.
		return
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
