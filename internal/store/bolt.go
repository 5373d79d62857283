package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/notebase/notebase/internal/models"
)

var (
	bucketUsers  = []byte("users")
	bucketDocs   = []byte("documents")
	bucketChunks = []byte("chunks")
)

// BoltStore implements Store on a single-file bbolt database. Records are
// JSON metadata with the embedding as raw float32 bytes; chunk keys are the
// bucket sequence number so iteration order is insertion order.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens or creates a bolt database at path and ensures buckets.
func NewBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketUsers, bucketDocs, bucketChunks} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

type chunkRecord struct {
	ID         string    `json:"id"`
	DocID      string    `json:"doc_id"`
	UserID     string    `json:"user_id"`
	Notebook   string    `json:"notebook"`
	Index      int       `json:"chunk_index"`
	Content    string    `json:"content"`
	TokenCount *int      `json:"token_count,omitempty"`
	Embedding  []byte    `json:"embedding"`
	Dim        int       `json:"embedding_dim"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateDocument inserts a document record keyed by id.
func (s *BoltStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	doc.CreatedAt = time.Now()
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).Put([]byte(doc.ID), data)
	})
}

// AddChunks inserts all chunks in one bolt transaction.
func (s *BoltStore) AddChunks(ctx context.Context, chunks []*models.Chunk) error {
	now := time.Now()
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		for _, chunk := range chunks {
			chunk.CreatedAt = now
			chunk.Dim = len(chunk.Embedding)
			rec := chunkRecord{
				ID:         chunk.ID,
				DocID:      chunk.DocumentID,
				UserID:     chunk.UserID,
				Notebook:   chunk.Notebook,
				Index:      chunk.Index,
				Content:    chunk.Content,
				TokenCount: chunk.TokenCount,
				Embedding:  encodeVector(chunk.Embedding),
				Dim:        chunk.Dim,
				CreatedAt:  chunk.CreatedAt,
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, seq)
			if err := b.Put(key, data); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListChunks scans the chunk bucket in insertion order, keeping the tenant's
// records and joining document title/source from the document bucket.
func (s *BoltStore) ListChunks(ctx context.Context, tenant models.Tenant) ([]*models.Candidate, error) {
	var candidates []*models.Candidate
	err := s.db.View(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocs)
		return tx.Bucket(bucketChunks).ForEach(func(k, v []byte) error {
			var rec chunkRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("malformed chunk record: %w", err)
			}
			if rec.UserID != tenant.UserID || rec.Notebook != tenant.Notebook {
				return nil
			}
			vec, err := decodeVector(rec.Embedding, rec.Dim)
			if err != nil {
				return fmt.Errorf("chunk %s: %w", rec.ID, err)
			}
			cand := &models.Candidate{
				Chunk: models.Chunk{
					ID:         rec.ID,
					DocumentID: rec.DocID,
					UserID:     rec.UserID,
					Notebook:   rec.Notebook,
					Index:      rec.Index,
					Content:    rec.Content,
					TokenCount: rec.TokenCount,
					Embedding:  vec,
					Dim:        rec.Dim,
					CreatedAt:  rec.CreatedAt,
				},
			}
			if data := docs.Get([]byte(rec.DocID)); data != nil {
				var doc models.Document
				if err := json.Unmarshal(data, &doc); err != nil {
					return fmt.Errorf("malformed document record: %w", err)
				}
				cand.DocTitle = doc.Title
				cand.DocSource = doc.Source
			}
			candidates = append(candidates, cand)
			return nil
		})
	})
	return candidates, err
}

// GetDocument returns a document by id.
func (s *BoltStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("document not found: %s", id)
		}
		return json.Unmarshal(data, &doc)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments returns a tenant's documents, newest first.
func (s *BoltStore) ListDocuments(ctx context.Context, tenant models.Tenant) ([]*models.Document, error) {
	var docs []*models.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var doc models.Document
			if err := json.Unmarshal(v, &doc); err != nil {
				return fmt.Errorf("malformed document record: %w", err)
			}
			if doc.UserID == tenant.UserID && doc.Notebook == tenant.Notebook {
				docs = append(docs, &doc)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}

// CountDocuments returns the total number of documents.
func (s *BoltStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = int64(tx.Bucket(bucketDocs).Stats().KeyN)
		return nil
	})
	return count, err
}

// CountChunks returns the total number of chunks.
func (s *BoltStore) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = int64(tx.Bucket(bucketChunks).Stats().KeyN)
		return nil
	})
	return count, err
}

// CreateUser inserts a user record keyed by API-key hash.
func (s *BoltStore) CreateUser(ctx context.Context, user *models.User) error {
	user.CreatedAt = time.Now()
	data, err := json.Marshal(struct {
		models.User
		APIKeyHash string `json:"api_key_hash"`
	}{User: *user, APIKeyHash: user.APIKeyHash})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		if b.Get([]byte(user.APIKeyHash)) != nil {
			return fmt.Errorf("api key hash already exists")
		}
		return b.Put([]byte(user.APIKeyHash), data)
	})
}

// EnsureUser inserts a user record for id if one does not exist, mirroring
// the sqlite behavior so both backends accept the watch tenant.
func (s *BoltStore) EnsureUser(ctx context.Context, id, label string) error {
	hash := localKeyHash(id)
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		if b.Get([]byte(hash)) != nil {
			return nil
		}
		user := models.User{ID: id, APIKeyHash: hash, Label: label, CreatedAt: time.Now()}
		data, err := json.Marshal(struct {
			models.User
			APIKeyHash string `json:"api_key_hash"`
		}{User: user, APIKeyHash: hash})
		if err != nil {
			return err
		}
		return b.Put([]byte(hash), data)
	})
}

// GetUserByKeyHash resolves a user from an API-key hash.
func (s *BoltStore) GetUserByKeyHash(ctx context.Context, hash string) (*models.User, error) {
	var user models.User
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketUsers).Get([]byte(hash))
		if data == nil {
			return ErrUserNotFound
		}
		return json.Unmarshal(data, &user)
	})
	if err != nil {
		return nil, err
	}
	user.APIKeyHash = hash
	return &user, nil
}

// deleteDocument removes a document and cascades to its chunks. Not part of
// the Store interface; kept so the cascade contract is implemented and
// testable ahead of a future delete endpoint.
func (s *BoltStore) deleteDocument(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketDocs).Delete([]byte(id)); err != nil {
			return err
		}
		b := tx.Bucket(bucketChunks)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var rec chunkRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if rec.DocID == id {
				stale = append(stale, bytes.Clone(k))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the bolt database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
