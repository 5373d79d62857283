// Package models defines core data structures for tenants, documents, chunks, and hits.
package models

import "time"

// Tenant is the (user, notebook) pair that partitions all stored data.
// Every read and write against the store is scoped to one Tenant.
type Tenant struct {
	UserID   string `json:"user_id"`
	Notebook string `json:"notebook"`
}

// Document represents one ingested unit of content. Documents are immutable
// once created; re-ingesting the same content produces a new Document.
type Document struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Notebook  string    `json:"notebook" db:"notebook"`
	Title     string    `json:"title" db:"title"`
	Source    string    `json:"source" db:"source"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Chunk is a contiguous span of a document's text stored with its own
// embedding. Index values are dense 0..n-1 in the order the chunker emitted
// them. Dim records the embedding dimensionality explicitly because the
// vector payload is stored as raw bytes rather than a typed column.
type Chunk struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"doc_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Notebook   string    `json:"notebook" db:"notebook"`
	Index      int       `json:"chunk_index" db:"chunk_index"`
	Content    string    `json:"content" db:"content"`
	TokenCount *int      `json:"token_count,omitempty" db:"token_count"`
	Embedding  []float32 `json:"-" db:"-"`
	Dim        int       `json:"embedding_dim" db:"embedding_dim"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Candidate is a chunk joined with its parent document's title and source,
// as loaded for a similarity scan.
type Candidate struct {
	Chunk
	DocTitle  string `json:"doc_title"`
	DocSource string `json:"doc_source"`
}

// User is an API-key principal. Only the SHA-256 hex hash of the key is stored.
type User struct {
	ID         string    `json:"id" db:"id"`
	APIKeyHash string    `json:"-" db:"api_key_hash"`
	Label      string    `json:"label,omitempty" db:"label"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
