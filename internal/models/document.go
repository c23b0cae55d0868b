package models

import (
	"time"
)

// DocumentStatus represents the lifecycle state of a tracked document
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusDone       DocumentStatus = "done"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Pipeline stage labels persisted to the ledger at each transition.
const (
	StageCleaning    = "cleaning"
	StageCondensing  = "condensing"
	StageStructuring = "structuring"
	StageAnnotating  = "annotating"
	StageCompleted   = "completed"
)

// DocumentRecord represents one tracked transcript in the progress ledger.
// The Path is the idempotency key: submitting the same path twice yields the
// same record. Records are never deleted; failed documents keep their error
// summary in the Stage field for operator review.
type DocumentRecord struct {
	ID        int64          `json:"id"`
	Path      string         `json:"path"`
	Status    DocumentStatus `json:"status"`
	Stage     string         `json:"stage"`
	Result    string         `json:"result,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Document carries a transcript's working text through the pipeline stages.
// Content is replaced stage by stage; KnowledgePoints is populated by the
// structuring stage and annotated in place before persistence.
type Document struct {
	Record          DocumentRecord
	Content         string
	KnowledgePoints []KnowledgePoint
}
