package storage

// TitleRecord is the write shape of a title: references are already resolved
// to ids.
type TitleRecord struct {
	Name        string
	Year        int
	Description string
	CategoryID  *int64
	GenreIDs    []int64
}

// Batch is a set of rows bulk inserted into one table with explicit primary keys.
type Batch struct {
	Table   string
	Columns []string
	Rows    [][]any
}
