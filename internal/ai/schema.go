package ai

// warehouseSchemaDescription describes the star schema used for NL→SQL
// prompting. Keep it in sync with the warehouse DDL.
const warehouseSchemaDescription = `
Tables (star schema):

transaction_fact -- one row per transaction
  - transaction_id     VARCHAR  -- unique transaction id
  - category_id        BIGINT   -- FK to dim_category (nullable)
  - date_id            BIGINT   -- FK to dim_date (nullable)
  - user_id            VARCHAR  -- FK to dim_user (nullable)
  - payment_id         BIGINT   -- FK to dim_payment (nullable)
  - transaction_amount DOUBLE   -- transaction amount

dim_user -- one row per user
  - user_id      VARCHAR  -- natural key
  - name         VARCHAR
  - address      VARCHAR
  - phone_number VARCHAR
  - city         VARCHAR
  - country      VARCHAR
  - email        VARCHAR

dim_category -- one row per (category_type, merchant) pair
  - category_id   BIGINT   -- surrogate key
  - category_type VARCHAR  -- e.g. "Food", "Shopping", "Transport"
  - merchant      VARCHAR  -- e.g. "Amazon", "Uber"

dim_payment -- one row per (payment_type, currency, method) triple
  - payment_id       BIGINT   -- surrogate key
  - payment_type     VARCHAR  -- e.g. "debit", "purchase"
  - payment_currency VARCHAR  -- ISO code, e.g. "USD", "EUR"
  - payment_method   VARCHAR  -- e.g. "card", "transfer"

dim_date -- one row per minute that saw a transaction
  - date_id BIGINT   -- the timestamp written as YYYYMMDDHHMM, e.g. 202501151407
  - year    INTEGER
  - quarter INTEGER  -- 1..4
  - month   INTEGER  -- 1..12
  - weekday VARCHAR  -- English day name, e.g. "Wednesday"
  - day     INTEGER
  - hour    INTEGER
  - minute  INTEGER

Notes:
  - Join facts to dimensions on the *_id columns.
  - Foreign keys can be NULL when the source data lacked the fields;
    use LEFT JOIN or filter with IS NOT NULL as appropriate.
  - For spend totals, SUM(transaction_amount); group by dimension
    attributes after joining.
  - For time filters, join dim_date and filter on year/month/day, or
    compare date_id ranges directly (it sorts chronologically).
`
