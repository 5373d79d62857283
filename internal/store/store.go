// Package store provides durable storage of users, documents, and chunk
// embeddings, queryable by tenant scope. Two backing engines implement the
// same interface: SQLite and Bolt. Neither offers a native vector distance
// operator; embeddings are stored as raw float32 bytes with an explicit
// dimension and the similarity math happens in the retriever.
package store

import (
	"context"

	"github.com/notebase/notebase/internal/models"
)

// Store is the persistence interface for the retrieval core. All document
// and chunk reads and writes are scoped by (user, notebook); cross-tenant
// leakage is a correctness violation.
//
// There is deliberately no delete operation: the schema defines the
// document->chunks cascade, but exposing deletion is left as an extension
// point.
type Store interface {
	// CreateDocument inserts a document row.
	CreateDocument(ctx context.Context, doc *models.Document) error
	// AddChunks inserts all chunks in one transaction. Each chunk carries its
	// own embedding and dimension.
	AddChunks(ctx context.Context, chunks []*models.Chunk) error
	// ListChunks returns the full candidate set for a tenant, joined with
	// document title and source, in insertion order. No ranking happens here.
	ListChunks(ctx context.Context, tenant models.Tenant) ([]*models.Candidate, error)

	// GetDocument returns a document by id.
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	// ListDocuments returns a tenant's documents, newest first.
	ListDocuments(ctx context.Context, tenant models.Tenant) ([]*models.Document, error)
	// CountDocuments returns the total number of documents across tenants.
	CountDocuments(ctx context.Context) (int64, error)
	// CountChunks returns the total number of chunks across tenants.
	CountChunks(ctx context.Context) (int64, error)

	// CreateUser inserts an API-key principal.
	CreateUser(ctx context.Context, user *models.User) error
	// EnsureUser creates a local principal with the given id if it does not
	// already exist. Documents reference users, so a tenant configured outside
	// the API-key flow (the watch tenant) must be ensured before its first
	// ingest. Ensured users carry a placeholder key hash that can never match
	// a presented API key, so they have no API access.
	EnsureUser(ctx context.Context, id, label string) error
	// GetUserByKeyHash resolves a user from the SHA-256 hex hash of an API key.
	// Returns ErrUserNotFound when no user matches.
	GetUserByKeyHash(ctx context.Context, hash string) (*models.User, error)

	Close() error
}

// localKeyHash is the placeholder key hash stored for users created by
// EnsureUser. Real hashes are 64 hex characters of SHA-256 output, so the
// prefixed form cannot collide with any presented key's hash.
func localKeyHash(id string) string {
	return "local:" + id
}
