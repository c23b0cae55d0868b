package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/doceo/internal/interfaces"
	"github.com/ternarybob/doceo/internal/models"
)

// DocumentStorage implements the progress ledger on SQLite.
type DocumentStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewDocumentStorage creates a new ledger storage instance
func NewDocumentStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.DocumentStorage {
	return &DocumentStorage{
		db:     db,
		logger: logger,
	}
}

// AddDocument registers a path, returning the existing id when the path is
// already tracked. INSERT OR IGNORE plus a follow-up SELECT keeps the
// operation idempotent without a multi-statement transaction.
func (s *DocumentStorage) AddDocument(ctx context.Context, path string) (int64, error) {
	result, err := s.db.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO documents (path, status, created_at) VALUES (?, 'pending', ?)`,
		path, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to add document %s: %w", path, err)
	}

	if n, err := result.RowsAffected(); err == nil && n > 0 {
		if id, err := result.LastInsertId(); err == nil {
			return id, nil
		}
	}

	// Row already existed: resolve its id by path.
	var id int64
	err = s.db.db.QueryRowContext(ctx, `SELECT id FROM documents WHERE path = ?`, path).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve document id for %s: %w", path, err)
	}
	return id, nil
}

// UpdateStatus overwrites the mutable fields of exactly one record.
func (s *DocumentStorage) UpdateStatus(ctx context.Context, id int64, status models.DocumentStatus, stage, result string) error {
	res, err := s.db.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, stage = ?, result = ? WHERE id = ?`,
		string(status), stage, result, id)
	if err != nil {
		return fmt.Errorf("failed to update document %d: %w", id, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %d not found", id)
	}

	s.logger.Debug().
		Int64("doc_id", id).
		Str("status", string(status)).
		Str("stage", stage).
		Msg("Document status updated")
	return nil
}

// SaveKnowledgePoint appends one knowledge point row for a document.
func (s *DocumentStorage) SaveKnowledgePoint(ctx context.Context, docID int64, point models.KnowledgePoint) error {
	markersJSON := "[]"
	if len(point.VideoMarkers) > 0 {
		data, err := json.Marshal(point.VideoMarkers)
		if err != nil {
			return fmt.Errorf("failed to serialize video markers: %w", err)
		}
		markersJSON = string(data)
	}

	_, err := s.db.db.ExecContext(ctx,
		`INSERT INTO knowledge_points (doc_id, title, content, video_markers, source_file, importance)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		docID, point.Title, point.Content, markersJSON, point.SourceFile, point.Importance)
	if err != nil {
		return fmt.Errorf("failed to save knowledge point for document %d: %w", docID, err)
	}
	return nil
}

// GetDocument returns the record for a path, or nil if unknown.
func (s *DocumentStorage) GetDocument(ctx context.Context, path string) (*models.DocumentRecord, error) {
	row := s.db.db.QueryRowContext(ctx,
		`SELECT id, path, status, stage, result, created_at FROM documents WHERE path = ?`, path)

	record, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", path, err)
	}
	return record, nil
}

// ListDocuments returns all records with the given status, in insertion order.
func (s *DocumentStorage) ListDocuments(ctx context.Context, status models.DocumentStatus) ([]*models.DocumentRecord, error) {
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT id, path, status, stage, result, created_at FROM documents WHERE status = ? ORDER BY id`,
		string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents with status %s: %w", status, err)
	}
	defer rows.Close()

	var records []*models.DocumentRecord
	for rows.Next() {
		record, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// ListKnowledgePoints returns the points persisted for a document, in
// insertion order.
func (s *DocumentStorage) ListKnowledgePoints(ctx context.Context, docID int64) ([]models.KnowledgePoint, error) {
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT title, content, video_markers, source_file, importance
		 FROM knowledge_points WHERE doc_id = ? ORDER BY id`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge points for document %d: %w", docID, err)
	}
	defer rows.Close()

	var points []models.KnowledgePoint
	for rows.Next() {
		var point models.KnowledgePoint
		var markersJSON sql.NullString
		if err := rows.Scan(&point.Title, &point.Content, &markersJSON, &point.SourceFile, &point.Importance); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge point row: %w", err)
		}
		if markersJSON.Valid && markersJSON.String != "" {
			if err := json.Unmarshal([]byte(markersJSON.String), &point.VideoMarkers); err != nil {
				s.logger.Warn().Err(err).Int64("doc_id", docID).Msg("Discarding unreadable video markers")
				point.VideoMarkers = nil
			}
		}
		points = append(points, point)
	}
	return points, rows.Err()
}

// CountDocuments returns the total number of tracked documents.
func (s *DocumentStorage) CountDocuments(ctx context.Context) (int, error) {
	var count int
	err := s.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.DocumentRecord, error) {
	var record models.DocumentRecord
	var status string
	var stage, result sql.NullString
	var createdAt int64

	if err := row.Scan(&record.ID, &record.Path, &status, &stage, &result, &createdAt); err != nil {
		return nil, err
	}

	record.Status = models.DocumentStatus(status)
	record.Stage = stage.String
	record.Result = result.String
	record.CreatedAt = time.Unix(createdAt, 0)
	return &record, nil
}
