package server

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// TableInfo describes one warehouse table and its current row count
type TableInfo struct {
	Name string `json:"name"` // Table name, e.g. "transaction_fact"
	Rows int64  `json:"rows"` // Current row count
}

// TablesResponse lists the warehouse tables
type TablesResponse struct {
	Tables []TableInfo `json:"tables"`
}

// QueryRequest represents a raw read-only SQL query request
type QueryRequest struct {
	SQL string `json:"sql"` // SELECT/WITH statement over the star schema
}

// QueryResponse represents the result of a raw SQL query
type QueryResponse struct {
	Rows     []map[string]any `json:"rows"`      // Result rows keyed by column name
	RowCount int              `json:"row_count"` // len(Rows), for convenience
	TookMs   int64            `json:"took_ms"`   // Execution time in milliseconds
}

// GenerateSQLRequest represents a natural language to SQL request
type GenerateSQLRequest struct {
	Question string `json:"question"` // Natural language question about transactions
	Model    string `json:"model"`    // Optional AI model override
}

// GenerateSQLResponse represents generated (not executed) SQL
type GenerateSQLResponse struct {
	SQL    string `json:"sql"`     // Generated SQL query
	Cached bool   `json:"cached"`  // True when served from the Redis cache
	TookMs int64  `json:"took_ms"` // Execution time in milliseconds
}

// AIAskRequest represents a natural language query request
type AIAskRequest struct {
	Question string `json:"question"` // Natural language question about transaction data
	Model    string `json:"model"`    // Optional AI model override
}

// AIAskResponse represents the response from an AI query
type AIAskResponse struct {
	SQL    string `json:"sql"`     // Generated SQL query
	Answer string `json:"answer"`  // Natural language answer
	TookMs int64  `json:"took_ms"` // Execution time in milliseconds
}
