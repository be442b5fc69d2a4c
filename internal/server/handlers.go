package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/NikiP31/TransactionsPipeline/internal/ai"
	"github.com/NikiP31/TransactionsPipeline/internal/cache"
	"github.com/NikiP31/TransactionsPipeline/internal/constants"
	"github.com/NikiP31/TransactionsPipeline/internal/warehouse"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Session      *warehouse.Session // Shared DuckDB session (read-only use here)
	AI           *ai.Agent          // AI agent for natural language queries
	AIBaseConfig ai.AgentConfig     // Base configuration for AI agents
	SQLCache     *cache.SQLCache    // Redis-backed NL→SQL cache (optional)
	AITimeout    time.Duration      // Per-request budget for AI endpoints
	QueryLimit   int                // LIMIT appended to unbounded /query statements
	DevMode      bool               // Enable detailed error responses in development
	Logger       *logrus.Logger     // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health reports whether the warehouse is reachable
func (h *Handlers) Health(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Session.Ping(ctx); err != nil {
		h.Logger.WithError(err).Warn("health check failed")
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{OK: false})
	}
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Tables returns every warehouse table with its current row count
func (h *Handlers) Tables(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	tables := make([]TableInfo, 0, len(constants.WarehouseTables))
	for _, name := range constants.WarehouseTables {
		n, err := h.Session.TableCount(ctx, name)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to inspect tables", map[string]any{"err": err.Error()})
		}
		tables = append(tables, TableInfo{Name: name, Rows: n})
	}
	return c.JSON(http.StatusOK, TablesResponse{Tables: tables})
}

// Query executes a caller-supplied read-only SQL statement against the star
// schema. The statement passes the same validation as LLM-generated SQL and
// gets a LIMIT appended when it has none.
func (h *Handlers) Query(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.SQL = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(req.SQL), ";"))
	if req.SQL == "" {
		return h.err(c, http.StatusBadRequest, "sql is required", map[string]any{"sql": "required"})
	}

	if err := ai.ValidateSQL(req.SQL); err != nil {
		return h.err(c, http.StatusBadRequest, "sql rejected", map[string]any{"err": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	start := time.Now()
	rows, err := h.Session.QueryRows(ctx, withLimit(req.SQL, h.queryLimit()))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "query failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, QueryResponse{
		Rows:     rows,
		RowCount: len(rows),
		TookMs:   time.Since(start).Milliseconds(),
	})
}

// GenerateSQL translates a natural language question into SQL without
// running it. Cached per (model, question); a Redis outage only costs the
// cache, never the endpoint.
func (h *Handlers) GenerateSQL(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req GenerateSQLRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), h.aiTimeout())
	defer cancel()

	start := time.Now()

	agent, err := h.agentFor(req.Model)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
	}

	if h.SQLCache != nil {
		if entry, err := h.SQLCache.Get(ctx, agent.Model(), req.Question); err == nil {
			return c.JSON(http.StatusOK, GenerateSQLResponse{
				SQL:    entry.SQL,
				Cached: true,
				TookMs: time.Since(start).Milliseconds(),
			})
		} else if !errors.Is(err, cache.ErrNotFound) {
			h.Logger.WithError(err).Warn("sql cache lookup failed")
		}
	}

	sqlQuery, err := agent.GenerateSQL(ctx, req.Question)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "sql generation failed", map[string]any{"err": err.Error()})
	}

	if h.SQLCache != nil {
		if _, err := h.SQLCache.Put(ctx, agent.Model(), req.Question, sqlQuery); err != nil {
			h.Logger.WithError(err).Warn("failed to cache generated sql")
		}
	}

	return c.JSON(http.StatusOK, GenerateSQLResponse{
		SQL:    sqlQuery,
		Cached: false,
		TookMs: time.Since(start).Milliseconds(),
	})
}

// AIAsk processes natural language questions about transaction data using AI
// Supports optional model override for one-off requests
// Returns SQL query and answer with execution time
func (h *Handlers) AIAsk(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req AIAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), h.aiTimeout())
	defer cancel()

	start := time.Now()

	agent, err := h.agentFor(req.Model)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
	}

	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "ai ask failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, AIAskResponse{SQL: res.SQL, Answer: res.Answer, TookMs: time.Since(start).Milliseconds()})
}

// agentFor returns the default agent, or a one-off agent when the request
// overrides the model. One-off agents share the warehouse session, so there
// is nothing to close.
func (h *Handlers) agentFor(model string) (*ai.Agent, error) {
	model = strings.TrimSpace(model)
	if model == "" || model == h.AI.Model() {
		return h.AI, nil
	}
	cfg := h.AIBaseConfig
	cfg.Model = model
	return ai.NewAgent(h.Session, cfg)
}

func (h *Handlers) aiTimeout() time.Duration {
	if h.AITimeout <= 0 {
		return 45 * time.Second
	}
	return h.AITimeout
}

func (h *Handlers) queryLimit() int {
	if h.QueryLimit <= 0 {
		return constants.DefaultQueryLimit
	}
	if h.QueryLimit > constants.MaxQueryLimit {
		return constants.MaxQueryLimit
	}
	return h.QueryLimit
}

// Only a LIMIT that closes the statement bounds it; a LIMIT inside a
// subquery leaves the outer SELECT unbounded.
var trailingLimitRe = regexp.MustCompile(`(?i)\bLIMIT\s+\d+\s*(OFFSET\s+\d+\s*)?$`)

// withLimit appends a LIMIT clause to statements that are not already
// bounded, so an unbounded SELECT cannot stream the whole fact table
// through the API.
func withLimit(sqlQuery string, limit int) string {
	if trailingLimitRe.MatchString(strings.TrimSpace(sqlQuery)) {
		return sqlQuery
	}
	return fmt.Sprintf("%s LIMIT %d", sqlQuery, limit)
}
