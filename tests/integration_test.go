package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikiP31/TransactionsPipeline/internal/etl"
	"github.com/NikiP31/TransactionsPipeline/internal/models"
	"github.com/NikiP31/TransactionsPipeline/internal/server"
	"github.com/NikiP31/TransactionsPipeline/internal/warehouse"
)

const (
	testAPIAddr = ":8091"
	testAPIKey  = "test-api-key-integration"
)

func setupIntegrationTest(t *testing.T) (*warehouse.Session, func()) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	// In-memory warehouse; skips when the DuckDB extension cannot load
	sess, err := warehouse.Open("", nil, logger)
	if err != nil {
		t.Skipf("DuckDB not available for integration tests: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, sess.CreateTables(ctx))

	handlers := &server.Handlers{
		Session: sess,
		AI:      nil,
		DevMode: true,
		Logger:  logger,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: handlers,
		Config: server.ServerConfig{
			Addr:    testAPIAddr,
			DevMode: true,
			APIKey:  testAPIKey,
		},
	})
	require.NoError(t, err)

	// Start server in background
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			t.Logf("Server error: %v", err)
		}
	}()

	// Wait for server to be ready
	time.Sleep(100 * time.Millisecond)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(ctx)
		_ = sess.Close()
	}

	return sess, cleanup
}

// seedWarehouse runs one batch through the pipeline so query endpoints have
// something to return.
func seedWarehouse(t *testing.T, sess *warehouse.Session) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	batch := &models.Batch{
		Source: "s3://datalake/silver/silver_seed.parquet",
		Columns: []string{
			"transaction_id", "amount", "user_id", "name",
			"category", "merchant",
			"transaction_type", "currency", "payment_method",
			"transaction_date",
		},
		Rows: []models.Row{
			{
				"transaction_id": "tx-1", "amount": 42.5,
				"user_id": "u-1", "name": "Ann",
				"category": "Food", "merchant": "Acme Corp",
				"transaction_type": "debit", "currency": "USD", "payment_method": "card",
				"transaction_date": "2025-01-15 14:07:33",
			},
			{
				"transaction_id": "tx-2", "amount": 9.99,
				"user_id": "u-2", "name": "Bob",
				"category": "Transport", "merchant": "Uber",
				"transaction_type": "debit", "currency": "USD", "payment_method": "card",
				"transaction_date": "2025-01-16 08:30:00",
			},
		},
	}

	ctx := context.Background()
	etl.NewUpserter(sess, logger).UpsertAll(ctx, batch)
	_, err := etl.NewFactResolver(sess, logger).Insert(ctx, batch)
	require.NoError(t, err)
}

func makeRequest(t *testing.T, method, url string, body interface{}, expectedStatus int) *http.Response {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)

	assert.Equal(t, expectedStatus, resp.StatusCode, "Expected status %d, got %d", expectedStatus, resp.StatusCode)

	return resp
}

func TestIntegration_Health(t *testing.T) {
	_, cleanup := setupIntegrationTest(t)
	defer cleanup()

	resp := makeRequest(t, http.MethodGet, "http://localhost:8091/v1/health", nil, http.StatusOK)
	defer resp.Body.Close()

	var response server.HealthResponse
	err := json.NewDecoder(resp.Body).Decode(&response)
	require.NoError(t, err)

	assert.True(t, response.OK)
}

func TestIntegration_Tables(t *testing.T) {
	sess, cleanup := setupIntegrationTest(t)
	defer cleanup()

	seedWarehouse(t, sess)

	resp := makeRequest(t, http.MethodGet, "http://localhost:8091/v1/tables", nil, http.StatusOK)
	defer resp.Body.Close()

	var response server.TablesResponse
	err := json.NewDecoder(resp.Body).Decode(&response)
	require.NoError(t, err)
	require.Len(t, response.Tables, 5)

	counts := make(map[string]int64)
	for _, tbl := range response.Tables {
		counts[tbl.Name] = tbl.Rows
	}
	assert.Equal(t, int64(2), counts["dim_user"])
	assert.Equal(t, int64(2), counts["dim_category"])
	assert.Equal(t, int64(1), counts["dim_payment"])
	assert.Equal(t, int64(2), counts["dim_date"])
	assert.Equal(t, int64(2), counts["transaction_fact"])
}

func TestIntegration_Query(t *testing.T) {
	sess, cleanup := setupIntegrationTest(t)
	defer cleanup()

	seedWarehouse(t, sess)

	payload := map[string]interface{}{
		"sql": "SELECT transaction_id, transaction_amount FROM transaction_fact ORDER BY transaction_amount DESC",
	}
	resp := makeRequest(t, http.MethodPost, "http://localhost:8091/v1/query", payload, http.StatusOK)
	defer resp.Body.Close()

	var response server.QueryResponse
	err := json.NewDecoder(resp.Body).Decode(&response)
	require.NoError(t, err)
	require.Equal(t, 2, response.RowCount)
	assert.Equal(t, "tx-1", response.Rows[0]["transaction_id"])
}

func TestIntegration_QueryValidation(t *testing.T) {
	_, cleanup := setupIntegrationTest(t)
	defer cleanup()

	rejected := []map[string]interface{}{
		{"sql": ""},
		{"sql": "DELETE FROM transaction_fact"},
		{"sql": "SELECT 1 FROM dim_user; DROP TABLE dim_user"},
		{"sql": "SELECT * FROM information_schema.tables"},
	}

	for _, payload := range rejected {
		resp := makeRequest(t, http.MethodPost, "http://localhost:8091/v1/query", payload, http.StatusBadRequest)
		resp.Body.Close()
	}
}

func TestIntegration_AIUnconfigured(t *testing.T) {
	_, cleanup := setupIntegrationTest(t)
	defer cleanup()

	payload := map[string]interface{}{"question": "total spend per user"}
	resp := makeRequest(t, http.MethodPost, "http://localhost:8091/v1/ai/ask", payload, http.StatusBadRequest)
	defer resp.Body.Close()

	var errorResponse server.ErrorResponse
	err := json.NewDecoder(resp.Body).Decode(&errorResponse)
	require.NoError(t, err)
	assert.Contains(t, errorResponse.Error, "ai is not configured")
}

func TestIntegration_Authentication(t *testing.T) {
	_, cleanup := setupIntegrationTest(t)
	defer cleanup()

	// Test without API key
	req, err := http.NewRequest(http.MethodGet, "http://localhost:8091/v1/health", nil)
	require.NoError(t, err)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Test with invalid API key
	req, err = http.NewRequest(http.MethodGet, "http://localhost:8091/v1/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "invalid-key")

	resp, err = client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_ErrorHandling(t *testing.T) {
	_, cleanup := setupIntegrationTest(t)
	defer cleanup()

	// Test 404 for non-existent endpoint
	req, err := http.NewRequest(http.MethodGet, "http://localhost:8091/v1/nonexistent", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", testAPIKey)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errorResponse server.ErrorResponse
	err = json.NewDecoder(resp.Body).Decode(&errorResponse)
	require.NoError(t, err)
	assert.Equal(t, "not found", errorResponse.Error)
	assert.Equal(t, http.StatusNotFound, errorResponse.Code)
}

func TestIntegration_ConcurrentRequests(t *testing.T) {
	_, cleanup := setupIntegrationTest(t)
	defer cleanup()

	const numRequests = 50
	const numGoroutines = 10

	results := make(chan error, numRequests)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			for j := 0; j < numRequests/numGoroutines; j++ {
				resp := makeRequest(t, http.MethodGet, "http://localhost:8091/v1/health", nil, http.StatusOK)
				resp.Body.Close()
				results <- nil
			}
		}()
	}

	// Collect all results
	for i := 0; i < numRequests; i++ {
		err := <-results
		assert.NoError(t, err)
	}
}
