package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/NikiP31/TransactionsPipeline/internal/constants"
	"github.com/NikiP31/TransactionsPipeline/internal/warehouse"
)

// AgentConfig holds configuration for the AI agent.
type AgentConfig struct {
	// OpenRouter / LLM settings.
	OpenRouterAPIKey string
	// Model name as understood by OpenRouter, e.g. "openai/gpt-4.1-mini".
	Model string

	Logger *logrus.Logger
}

// Agent provides NL→SQL over the warehouse star schema using an LLM. It
// borrows the caller's warehouse session and never closes it.
type Agent struct {
	llm    llms.Model
	sess   *warehouse.Session
	model  string
	logger *logrus.Logger
}

// NewAgent creates an Agent on top of an already-open warehouse session.
func NewAgent(sess *warehouse.Session, cfg AgentConfig) (*Agent, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
	}

	if cfg.Model == "" {
		cfg.Model = "openai/gpt-4.1-mini"
	}

	// Initialise LLM backed by OpenRouter (OpenAI-compatible API).
	llm, err := openai.New(
		openai.WithToken(cfg.OpenRouterAPIKey),
		openai.WithBaseURL("https://openrouter.ai/api/v1"),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter LLM: %w", err)
	}

	cfg.Logger.WithField("model", cfg.Model).Info("initialized AI agent")

	return &Agent{
		llm:    llm,
		sess:   sess,
		model:  cfg.Model,
		logger: cfg.Logger,
	}, nil
}

// Model returns the configured model name.
func (a *Agent) Model() string {
	return a.model
}

// AskResult is the structured result of an Ask call.
type AskResult struct {
	SQL    string
	Answer string
}

// Ask takes a natural language question, generates SQL, executes it, and
// summarises the result.
func (a *Agent) Ask(ctx context.Context, question string) (*AskResult, error) {
	sqlQuery, err := a.GenerateSQL(ctx, question)
	if err != nil {
		return nil, err
	}

	rowsJSON, err := a.runQuery(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}

	answer, err := a.summariseResult(ctx, question, sqlQuery, rowsJSON)
	if err != nil {
		return nil, err
	}

	return &AskResult{
		SQL:    sqlQuery,
		Answer: answer,
	}, nil
}

// GenerateSQL asks the LLM to produce a safe SELECT query over the star
// schema, then sanitizes and validates the output before anyone runs it.
func (a *Agent) GenerateSQL(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf(`
You are an expert DuckDB SQL generator for a transaction analytics warehouse.

Use ONLY the following tables:
%s

Rules:
- Return a single SELECT query in DuckDB SQL (WITH ... SELECT is fine).
- Do NOT include any explanation or comments, only the SQL.
- Join transaction_fact to the dimension tables via the *_id columns.
- Use aggregate functions like sum, avg, count when appropriate.
- If user asks for "top" or "biggest" something, use ORDER BY ... DESC and LIMIT.
- Never modify data: no INSERT, UPDATE, DELETE, DROP, ALTER, CREATE, TRUNCATE.

User question:
%s
`, warehouseSchemaDescription, question)

	resp, err := llms.GenerateFromSinglePrompt(
		ctx,
		a.llm,
		prompt,
		llms.WithMaxTokens(512),
	)
	if err != nil {
		return "", fmt.Errorf("LLM SQL generation failed: %w", err)
	}

	sqlQuery := sanitizeSQL(resp)
	if err := ValidateSQL(sqlQuery); err != nil {
		return "", err
	}

	a.logger.WithField("sql", sqlQuery).Debug("generated SQL from question")
	return sqlQuery, nil
}

// runQuery executes the generated SQL and encodes results as JSON.
func (a *Agent) runQuery(ctx context.Context, sqlQuery string) (string, error) {
	out, err := a.sess.QueryRows(ctx, sqlQuery)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal rows to JSON: %w", err)
	}

	return string(data), nil
}

// summariseResult asks the LLM to answer the question given SQL + JSON results.
func (a *Agent) summariseResult(ctx context.Context, question, sqlQuery, rowsJSON string) (string, error) {
	prompt := fmt.Sprintf(`
You are a helpful assistant analysing personal transaction data.

User question:
%s

SQL that was executed:
%s

Query results in JSON (array of objects, can be empty):
%s

Instructions:
- If the result set is empty, say that no data was found for the question.
- Otherwise, answer the question concisely using bullet points and short sentences.
- Include key numbers (amounts, counts, averages) rounded reasonably.
- Do not restate the raw JSON.
`, question, sqlQuery, rowsJSON)

	resp, err := llms.GenerateFromSinglePrompt(
		ctx,
		a.llm,
		prompt,
		llms.WithMaxTokens(512),
	)
	if err != nil {
		return "", fmt.Errorf("LLM summarisation failed: %w", err)
	}

	return strings.TrimSpace(resp), nil
}

// sanitizeSQL strips code fences and trailing semicolons from the LLM output.
func sanitizeSQL(s string) string {
	s = strings.TrimSpace(s)

	// Remove ``` blocks if present.
	if strings.HasPrefix(s, "```") {
		// Trim the prefix "```" or "```sql"
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
		if strings.HasPrefix(strings.ToLower(s), "sql") {
			s = s[3:]
		}
	}
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	return strings.TrimSpace(s)
}

// disallowedRe matches mutating or environment-touching keywords as whole
// words, so any whitespace after the keyword (space, newline, tab) counts and
// identifiers like "created_at" do not.
var disallowedRe = regexp.MustCompile(`\b(INSERT|UPDATE|DELETE|DROP|ALTER|TRUNCATE|CREATE|ATTACH|DETACH|COPY|INSTALL|PRAGMA)\b`)

// ValidateSQL enforces a conservative safety policy for SQL that reaches the
// warehouse: read-only, single statement, star-schema tables only. Keyword
// scanning runs on a copy with string literals blanked out, so a literal
// like 'UPDATE me' neither trips the check nor hides anything.
func ValidateSQL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("empty SQL query")
	}

	stripped := stripStringLiterals(s)
	upper := strings.ToUpper(strings.TrimSpace(stripped))

	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("only SELECT queries are allowed, got: %s", upper[:min(20, len(upper))])
	}

	if kw := disallowedRe.FindString(upper); kw != "" {
		return fmt.Errorf("disallowed SQL keyword %q in query", kw)
	}

	if strings.Contains(stripped, ";") {
		return fmt.Errorf("multiple statements or semicolons are not allowed")
	}

	for _, table := range constants.WarehouseTables {
		if strings.Contains(upper, strings.ToUpper(table)) {
			return nil
		}
	}
	return fmt.Errorf("query must reference a warehouse table")
}

// stripStringLiterals replaces the contents of single-quoted SQL string
// literals with spaces, honouring '' escapes. Quotes stay so offsets and
// statement shape are preserved.
func stripStringLiterals(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inLiteral := false
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\'' {
			// Inside a literal, '' is an escaped quote, not a terminator.
			if inLiteral && i+1 < len(runes) && runes[i+1] == '\'' {
				b.WriteString("  ")
				i++
				continue
			}
			inLiteral = !inLiteral
			b.WriteRune(r)
			continue
		}
		if inLiteral {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
