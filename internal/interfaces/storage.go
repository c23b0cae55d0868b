package interfaces

import (
	"context"

	"github.com/ternarybob/doceo/internal/models"
)

// DocumentStorage is the progress ledger: per-document processing state plus
// the knowledge points each document produced. Append-only by identity —
// AddDocument is idempotent on path, status updates target exactly one
// record, and knowledge point rows are never mutated after insertion.
type DocumentStorage interface {
	// AddDocument registers a path and returns its record id. Calling it
	// again with the same path returns the existing id without inserting.
	AddDocument(ctx context.Context, path string) (int64, error)

	// UpdateStatus overwrites the mutable fields of one record.
	UpdateStatus(ctx context.Context, id int64, status models.DocumentStatus, stage, result string) error

	// SaveKnowledgePoint appends one knowledge point row for a document.
	SaveKnowledgePoint(ctx context.Context, docID int64, point models.KnowledgePoint) error

	// GetDocument returns the record for a path, or nil if unknown.
	GetDocument(ctx context.Context, path string) (*models.DocumentRecord, error)

	// ListDocuments returns all records with the given status, in insertion
	// order. Used on restart to surface interrupted "processing" records.
	ListDocuments(ctx context.Context, status models.DocumentStatus) ([]*models.DocumentRecord, error)

	// ListKnowledgePoints returns the points persisted for a document, in
	// insertion order.
	ListKnowledgePoints(ctx context.Context, docID int64) ([]models.KnowledgePoint, error)

	// CountDocuments returns the total number of tracked documents.
	CountDocuments(ctx context.Context) (int, error)
}

// StorageManager provides access to all storage interfaces backed by one
// database handle with a single lifecycle.
type StorageManager interface {
	DocumentStorage() DocumentStorage
	Close() error
}
