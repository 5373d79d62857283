package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/notebase/notebase/internal/ingest"
	"github.com/notebase/notebase/internal/models"
)

// FileIngestor reads watched files and feeds them into the ingest
// pipeline under a fixed tenant.
type FileIngestor struct {
	pipeline *ingest.Pipeline
	tenant   models.Tenant
	logger   *zap.Logger
}

// NewFileIngestor creates an ingestor for the given tenant.
func NewFileIngestor(p *ingest.Pipeline, tenant models.Tenant, logger *zap.Logger) *FileIngestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileIngestor{pipeline: p, tenant: tenant, logger: logger}
}

// IngestFile reads path and ingests its contents. The document title is
// the file name without extension; the source is the path itself.
// Errors are logged, not returned, so one bad file does not stop the
// watcher.
func (fi *FileIngestor) IngestFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fi.logger.Warn("Failed to read watched file", zap.String("path", path), zap.Error(err))
		return
	}

	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))

	docID, chunks, err := fi.pipeline.Ingest(context.Background(), fi.tenant, title, path, string(data))
	if err != nil {
		fi.logger.Error("Failed to ingest watched file", zap.String("path", path), zap.Error(err))
		return
	}
	fi.logger.Info("Ingested watched file",
		zap.String("path", path),
		zap.String("document_id", docID),
		zap.Int("chunks", chunks))
}
