package models

// Row is one record from a silver file, keyed by column name. Values are
// whatever the parquet reader produced: string, float64, int64, time.Time,
// or nil for NULL.
type Row map[string]any

// Batch is the in-memory contents of one silver file.
type Batch struct {
	Source  string   `json:"source"` // s3 URI the batch was read from
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// HasColumns reports whether every named column is present in the batch
// schema. Silver files drift: a file may be missing whole column groups and
// each ETL step decides for itself what that means.
func (b *Batch) HasColumns(cols ...string) bool {
	for _, c := range cols {
		if !b.hasColumn(c) {
			return false
		}
	}
	return true
}

func (b *Batch) hasColumn(name string) bool {
	for _, c := range b.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the subset of cols absent from the batch schema.
func (b *Batch) MissingColumns(cols ...string) []string {
	var missing []string
	for _, c := range cols {
		if !b.hasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Empty reports whether the batch holds no rows.
func (b *Batch) Empty() bool {
	return len(b.Rows) == 0
}
