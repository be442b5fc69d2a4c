package constants

// Object store layout
const (
	DefaultBucket = "datalake"
	BronzePrefix  = "bronze"
	SilverPrefix  = "silver"
	GoldPrefix    = "gold"

	ParquetSuffix = ".parquet"
)

// Warehouse tables
const (
	TableDimUser         = "dim_user"
	TableDimCategory     = "dim_category"
	TableDimPayment      = "dim_payment"
	TableDimDate         = "dim_date"
	TableTransactionFact = "transaction_fact"
)

// WarehouseTables lists every table in export order. Export is full-snapshot
// per table with no cross-table consistency requirement, so order only
// affects log output.
var WarehouseTables = []string{
	TableDimUser,
	TableDimCategory,
	TableDimPayment,
	TableDimDate,
	TableTransactionFact,
}

// Redis keys
const (
	RedisKeySQLCacheIndex  = "nl2sql:index"
	RedisKeySQLCachePrefix = "nl2sql:"
)

// Limits
const (
	// DefaultQueryLimit is appended to API queries that carry no LIMIT.
	DefaultQueryLimit = 1000
	MaxQueryLimit     = 10000
)
