package sqlite

const schemaSQL = `
-- Progress ledger: one row per submitted transcript.
-- path uniqueness is the idempotency key for document submission.
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY,
	path TEXT UNIQUE NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	stage TEXT,
	result TEXT,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status, created_at);

-- Knowledge points extracted per document. Append-only: rows are never
-- updated after insertion.
CREATE TABLE IF NOT EXISTS knowledge_points (
	id INTEGER PRIMARY KEY,
	doc_id INTEGER NOT NULL REFERENCES documents(id),
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	video_markers TEXT, -- JSON array
	source_file TEXT NOT NULL,
	importance INTEGER NOT NULL DEFAULT 3
);

CREATE INDEX IF NOT EXISTS idx_knowledge_points_doc ON knowledge_points(doc_id);

-- LLM audit log for compliance and debugging
CREATE TABLE IF NOT EXISTS llm_audit_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp INTEGER NOT NULL,
	provider TEXT NOT NULL,
	operation TEXT NOT NULL,
	success INTEGER NOT NULL,
	error TEXT,
	duration INTEGER NOT NULL,
	prompt_text TEXT
);
`
