package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/notebase/notebase/internal/models"
)

// ErrUserNotFound is returned when no user matches an API-key hash.
var ErrUserNotFound = errors.New("user not found")

// SQLiteStore implements Store using SQLite with WAL journaling. Embeddings
// live in a BLOB column next to an explicit embedding_dim column.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		api_key_hash TEXT NOT NULL UNIQUE,
		label TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		notebook TEXT NOT NULL,
		title TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		doc_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		notebook TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		token_count INTEGER,
		embedding BLOB NOT NULL,
		embedding_dim INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (doc_id) REFERENCES documents(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_user_notebook ON documents(user_id, notebook);
	CREATE INDEX IF NOT EXISTS idx_chunks_user_notebook ON chunks(user_id, notebook);
	CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateDocument inserts a document row.
func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	doc.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, user_id, notebook, title, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.UserID, doc.Notebook, doc.Title, doc.Source, doc.CreatedAt,
	)
	return err
}

// AddChunks inserts all chunks in one transaction so a document never ends
// up with a silently partial chunk set.
func (s *SQLiteStore) AddChunks(ctx context.Context, chunks []*models.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, doc_id, user_id, notebook, chunk_index, content, token_count, embedding, embedding_dim, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, chunk := range chunks {
		chunk.CreatedAt = now
		chunk.Dim = len(chunk.Embedding)
		var tokenCount sql.NullInt64
		if chunk.TokenCount != nil {
			tokenCount = sql.NullInt64{Int64: int64(*chunk.TokenCount), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.DocumentID, chunk.UserID, chunk.Notebook, chunk.Index,
			chunk.Content, tokenCount, encodeVector(chunk.Embedding), chunk.Dim, chunk.CreatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListChunks returns all of a tenant's chunks joined with document title and
// source, in insertion (rowid) order.
func (s *SQLiteStore) ListChunks(ctx context.Context, tenant models.Tenant) ([]*models.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.doc_id, c.chunk_index, c.content, c.token_count,
		        c.embedding, c.embedding_dim, c.created_at,
		        d.title, d.source
		 FROM chunks c
		 JOIN documents d ON d.id = c.doc_id
		 WHERE c.user_id = ? AND c.notebook = ?
		 ORDER BY c.rowid`,
		tenant.UserID, tenant.Notebook,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []*models.Candidate
	for rows.Next() {
		var cand models.Candidate
		var tokenCount sql.NullInt64
		var blob []byte
		if err := rows.Scan(
			&cand.ID, &cand.DocumentID, &cand.Index, &cand.Content, &tokenCount,
			&blob, &cand.Dim, &cand.CreatedAt, &cand.DocTitle, &cand.DocSource,
		); err != nil {
			return nil, err
		}
		if tokenCount.Valid {
			tc := int(tokenCount.Int64)
			cand.TokenCount = &tc
		}
		cand.Embedding, err = decodeVector(blob, cand.Dim)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", cand.ID, err)
		}
		cand.UserID = tenant.UserID
		cand.Notebook = tenant.Notebook
		candidates = append(candidates, &cand)
	}
	return candidates, rows.Err()
}

// GetDocument returns a document by id.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, notebook, title, source, created_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.UserID, &doc.Notebook, &doc.Title, &doc.Source, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments returns a tenant's documents, newest first.
func (s *SQLiteStore) ListDocuments(ctx context.Context, tenant models.Tenant) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, notebook, title, source, created_at
		 FROM documents WHERE user_id = ? AND notebook = ?
		 ORDER BY created_at DESC, rowid DESC`,
		tenant.UserID, tenant.Notebook,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Notebook, &doc.Title, &doc.Source, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// CountChunks returns the total number of chunks.
func (s *SQLiteStore) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

// CreateUser inserts a user row.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	user.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, api_key_hash, label, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.APIKeyHash, user.Label, user.CreatedAt,
	)
	return err
}

// EnsureUser inserts a user row for id if one does not exist. The watch
// tenant goes through here so its documents satisfy the user_id foreign key.
func (s *SQLiteStore) EnsureUser(ctx context.Context, id, label string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, api_key_hash, label, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, localKeyHash(id), label, time.Now(),
	)
	return err
}

// GetUserByKeyHash resolves a user from an API-key hash.
func (s *SQLiteStore) GetUserByKeyHash(ctx context.Context, hash string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, api_key_hash, label, created_at FROM users WHERE api_key_hash = ?`, hash,
	).Scan(&user.ID, &user.APIKeyHash, &user.Label, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
