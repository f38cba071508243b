package api

// ==========================================
// 1. STANDARD ENVELOPE
// ==========================================

// StandardResponse wraps all API responses to ensure consistency.
// Frontend checks "success" first. If false, display "error".
type StandardResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    any    `json:"meta,omitempty"` // timing, counts, warnings
}

// ==========================================
// 2. GENERAL SERVICE
// ==========================================

type StatusResponse struct {
	Status        string `json:"status"` // "healthy", "degraded"
	Uptime        string `json:"uptime"`
	ActiveDB      string `json:"active_db"`
	Compatibility string `json:"compatibility,omitempty"`
	Version       string `json:"version"`
	Classifier    string `json:"classifier"`
	LabelCount    int    `json:"label_count"`
	WindowTokens  int    `json:"window_tokens"`
	WindowOverlap int    `json:"window_overlap"`
	GoVersion     string `json:"go_version"`
}

// ==========================================
// 3. EXTRACTION & DOCUMENTS
// ==========================================

// NOTE: extraction requests are multipart/form-data ("file",
// "module_start_page"); there is no JSON struct for the input.

// ExtractMeta accompanies an extraction result.
type ExtractMeta struct {
	DocID    string   `json:"doc_id"`
	Pages    int      `json:"pages"`
	Windows  int      `json:"windows"`
	Warnings []string `json:"warnings,omitempty"`
	Took     string   `json:"took"`
}

// DocResponse represents a summary of a document.
type DocResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size_bytes"`
	Type      string `json:"type"`
	StartPage int    `json:"module_start_page"`
	PageCount int    `json:"page_count"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"` // ISO8601
}

type DocListResponse struct {
	Docs  []DocResponse `json:"docs"`
	Total int           `json:"total"`
}

// ==========================================
// 4. DATABASE OPERATIONS
// ==========================================

type DBCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type DBUseRequest struct {
	Name string `json:"name"`
}

type DBInfoResponse struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	DocCount      int      `json:"doc_count"`
	FieldCount    int      `json:"field_count"`
	DiskSize      int64    `json:"disk_size_bytes"`
	CreatedAt     string   `json:"created_at"`
	Compatibility string   `json:"compatibility"`
	Issues        []string `json:"issues,omitempty"`
	IsActive      bool     `json:"is_active"`
}

type DBListResponse struct {
	Databases []DBInfoResponse `json:"databases"`
}
