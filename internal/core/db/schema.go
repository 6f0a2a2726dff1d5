package db

func (db *DB) initSchema() error {
	schema := `
	-- One row per recorded prompt/response exchange
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT UNIQUE NOT NULL,
		module TEXT NOT NULL DEFAULT '',
		prompt TEXT,
		response TEXT,
		tokens_used INTEGER DEFAULT 0,
		response_time REAL DEFAULT 0,
		created_at TEXT NOT NULL,
		source_path TEXT,
		file_hash TEXT,
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_session_id ON sessions(session_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_module ON sessions(module);
	CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);

	-- Files written by the extractor
	CREATE TABLE IF NOT EXISTS extracted_files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER,
		module TEXT NOT NULL DEFAULT '',
		rule TEXT NOT NULL,
		path TEXT NOT NULL,
		extracted_at TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_extracted_files_session_id ON extracted_files(session_id);
	CREATE INDEX IF NOT EXISTS idx_extracted_files_path ON extracted_files(path);

	-- Import log table
	CREATE TABLE IF NOT EXISTS import_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL,
		file_hash TEXT NOT NULL,
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		sessions_imported INTEGER,
		status TEXT CHECK(status IN ('success', 'partial', 'failed')),
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_import_log_file_hash ON import_log(file_hash);

	-- Full-text search over prompts and responses, porter stemming
	CREATE VIRTUAL TABLE IF NOT EXISTS sessions_fts USING fts5(
		prompt,
		response,
		content=sessions,
		content_rowid=id,
		tokenize='porter unicode61'
	);

	-- Triggers to keep FTS in sync
	CREATE TRIGGER IF NOT EXISTS sessions_ai AFTER INSERT ON sessions BEGIN
		INSERT INTO sessions_fts(rowid, prompt, response) VALUES (new.id, new.prompt, new.response);
	END;

	CREATE TRIGGER IF NOT EXISTS sessions_ad AFTER DELETE ON sessions BEGIN
		INSERT INTO sessions_fts(sessions_fts, rowid, prompt, response) VALUES ('delete', old.id, old.prompt, old.response);
	END;

	CREATE TRIGGER IF NOT EXISTS sessions_au AFTER UPDATE ON sessions BEGIN
		INSERT INTO sessions_fts(sessions_fts, rowid, prompt, response) VALUES ('delete', old.id, old.prompt, old.response);
		INSERT INTO sessions_fts(rowid, prompt, response) VALUES (new.id, new.prompt, new.response);
	END;
	`

	_, err := db.conn.Exec(schema)
	return err
}
