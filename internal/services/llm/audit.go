package llm

import (
	"database/sql"
	"time"

	"github.com/ternarybob/arbor"
)

// AuditLog represents one recorded generate operation.
type AuditLog struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider"`
	Operation string    `json:"operation"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Duration  int64     `json:"duration_ms"`
	Prompt    string    `json:"prompt,omitempty"`
}

// AuditLogger records every generate call for compliance and debugging.
type AuditLogger interface {
	LogGenerate(provider ProviderType, success bool, duration time.Duration, err error, prompt string) error
	GetLogs(limit int) ([]AuditLog, error)
}

// SQLiteAuditLogger implements AuditLogger on the ledger database.
type SQLiteAuditLogger struct {
	db         *sql.DB
	logPrompts bool
	logger     arbor.ILogger
}

// NewSQLiteAuditLogger creates a new SQLite-based audit logger. When
// logPrompts is false the prompt text column stays empty.
func NewSQLiteAuditLogger(db *sql.DB, logPrompts bool, logger arbor.ILogger) *SQLiteAuditLogger {
	return &SQLiteAuditLogger{
		db:         db,
		logPrompts: logPrompts,
		logger:     logger,
	}
}

// LogGenerate records one generate call outcome.
func (l *SQLiteAuditLogger) LogGenerate(provider ProviderType, success bool, duration time.Duration, err error, prompt string) error {
	errText := ""
	if err != nil {
		errText = err.Error()
	}

	promptText := ""
	if l.logPrompts {
		promptText = prompt
	}

	_, insertErr := l.db.Exec(
		`INSERT INTO llm_audit_log (timestamp, provider, operation, success, error, duration, prompt_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Unix(),
		string(provider),
		"generate",
		boolToInt(success),
		errText,
		duration.Milliseconds(),
		promptText,
	)
	if insertErr != nil {
		l.logger.Warn().Err(insertErr).Msg("Failed to write LLM audit log entry")
	}
	return insertErr
}

// GetLogs returns the most recent audit entries, newest first.
func (l *SQLiteAuditLogger) GetLogs(limit int) ([]AuditLog, error) {
	rows, err := l.db.Query(
		`SELECT id, timestamp, provider, operation, success, error, duration, prompt_text
		 FROM llm_audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var entry AuditLog
		var ts int64
		var success int
		if err := rows.Scan(&entry.ID, &ts, &entry.Provider, &entry.Operation, &success, &entry.Error, &entry.Duration, &entry.Prompt); err != nil {
			return nil, err
		}
		entry.Timestamp = time.Unix(ts, 0)
		entry.Success = success != 0
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
