package warehouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestSession opens an in-memory database. Skips when the extension
// cannot be installed (offline CI without a cached httpfs build).
func openTestSession(t *testing.T) *Session {
	t.Helper()
	sess, err := Open("", nil, nil)
	if err != nil {
		t.Skipf("DuckDB unavailable: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess
}

func TestCreateTablesIdempotent(t *testing.T) {
	sess := openTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.CreateTables(ctx))
	// Second run against existing tables must be a no-op, not an error.
	require.NoError(t, sess.CreateTables(ctx))

	n, err := sess.TableCount(ctx, "dim_user")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestTableCountRejectsUnknownTable(t *testing.T) {
	sess := openTestSession(t)

	_, err := sess.TableCount(context.Background(), "pg_catalog.pg_tables")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown warehouse table")
}

func TestTableCountAllWarehouseTables(t *testing.T) {
	sess := openTestSession(t)
	ctx := context.Background()
	require.NoError(t, sess.CreateTables(ctx))

	for _, table := range []string{"dim_user", "dim_category", "dim_payment", "dim_date", "transaction_fact"} {
		n, err := sess.TableCount(ctx, table)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, int64(0), n, "table %s", table)
	}
}
