package store

// SchemaSQL defines the database structure
const SchemaSQL = `
-- ========================================================
-- 1. SYSTEM & CONFIG
-- ========================================================
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT
);

-- ========================================================
-- 2. DOCUMENTS
-- ========================================================

-- Documents: one processed handbook upload.
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,              -- UUID
    name TEXT NOT NULL,               -- Display Name (original filename)
    checksum TEXT,                    -- SHA256 of the uploaded bytes
    size INTEGER,                     -- File size in bytes
    type TEXT,                        -- processor type ('pdf', 'word', 'text')
    start_page INTEGER DEFAULT 1,     -- first page that was processed
    page_count INTEGER DEFAULT 0,     -- pages extracted from start_page on
    window_count INTEGER DEFAULT 0,   -- classifier windows used
    status TEXT DEFAULT 'pending',    -- 'pending', 'processing', 'extracted', 'failed'
    error_msg TEXT,                   -- If failed, why?
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- ========================================================
-- 3. EXTRACTED FIELDS
-- ========================================================

-- Page Fields: one row per (page, category); position keeps first-seen order
CREATE TABLE IF NOT EXISTS page_fields (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    doc_id TEXT,
    page_no INTEGER,
    position INTEGER,
    category TEXT,
    content TEXT,
    FOREIGN KEY(doc_id) REFERENCES documents(id) ON DELETE CASCADE
);

-- Field Warnings: data-quality annotations on a field
CREATE TABLE IF NOT EXISTS field_warnings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    doc_id TEXT,
    page_no INTEGER,
    category TEXT,
    message TEXT,
    FOREIGN KEY(doc_id) REFERENCES documents(id) ON DELETE CASCADE
);

-- ========================================================
-- 4. LOGGING & AUDIT
-- ========================================================

-- Request Logs: For debugging, optimization, and history
CREATE TABLE IF NOT EXISTS request_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    type TEXT,                       -- 'extract'
    doc_id TEXT,
    query_params TEXT,               -- JSON of settings used
    result_count INTEGER,            -- pages with fields
    warning_count INTEGER,
    latency_ms INTEGER,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- ========================================================
-- 5. INDEXES
-- ========================================================
CREATE INDEX IF NOT EXISTS idx_documents_checksum ON documents(checksum);
CREATE INDEX IF NOT EXISTS idx_page_fields_doc ON page_fields(doc_id, page_no, position);
CREATE INDEX IF NOT EXISTS idx_field_warnings_doc ON field_warnings(doc_id);
CREATE INDEX IF NOT EXISTS idx_request_logs_type ON request_logs(type);
CREATE INDEX IF NOT EXISTS idx_request_logs_date ON request_logs(created_at);
`
