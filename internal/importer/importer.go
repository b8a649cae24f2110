// Package importer loads the fixture CSV files into storage. Every file is
// read and converted before anything is written, so a bad row aborts the run
// without touching the database.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/rules"
	"yamdb/proj/internal/storage"
)

// BulkInserter writes all batches atomically, keeping their primary keys.
type BulkInserter interface {
	BulkInsert(ctx context.Context, batches []storage.Batch) error
}

// Error names the file and, when known, the row a failure comes from. Row
// numbers are 1-based and count the header.
type Error struct {
	File string
	Row  int
	Err  error
}

func (e *Error) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("importer: %s: %s", e.File, e.Err)
	}
	return fmt.Sprintf("importer: %s: row %d: %s", e.File, e.Row, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type parser func(string) (any, error)

type column struct {
	header string
	name   string
	parse  parser
}

type source struct {
	file     string
	table    string
	optional bool
	columns  []column
}

// sources are listed in dependency order.
var sources = []source{
	{file: "users.csv", table: "users", columns: []column{
		{"id", "id", integer},
		{"username", "username", username},
		{"email", "email", required},
		{"role", "role", role},
		{"bio", "bio", optionalText},
		{"first_name", "first_name", text},
		{"last_name", "last_name", text},
	}},
	{file: "category.csv", table: "categories", columns: []column{
		{"id", "id", integer},
		{"name", "name", required},
		{"slug", "slug", slug},
	}},
	{file: "genre.csv", table: "genres", columns: []column{
		{"id", "id", integer},
		{"name", "name", required},
		{"slug", "slug", slug},
	}},
	{file: "titles.csv", table: "titles", columns: []column{
		{"id", "id", integer},
		{"name", "name", required},
		{"year", "year", year},
		{"category", "category_id", optionalInteger},
	}},
	{file: "genre_title.csv", table: "genre_title", optional: true, columns: []column{
		{"id", "id", integer},
		{"title_id", "title_id", integer},
		{"genre_id", "genre_id", integer},
	}},
	{file: "review.csv", table: "reviews", columns: []column{
		{"id", "id", integer},
		{"title_id", "title_id", integer},
		{"text", "text", required},
		{"author", "author_id", integer},
		{"score", "score", score},
		{"pub_date", "pub_date", timestamp},
	}},
	{file: "comments.csv", table: "comments", columns: []column{
		{"id", "id", integer},
		{"review_id", "review_id", integer},
		{"text", "text", required},
		{"author", "author_id", integer},
		{"pub_date", "pub_date", timestamp},
	}},
}

type Importer struct {
	log   *slog.Logger
	files fs.FS
	store BulkInserter
}

func New(log *slog.Logger, files fs.FS, store BulkInserter) *Importer {
	return &Importer{log: log, files: files, store: store}
}

// Run reads every source file and hands the resulting batches to the store
// in one call. It returns the number of rows imported per table.
func (i *Importer) Run(ctx context.Context) (map[string]int, error) {
	const op = "importer.Importer.Run"
	log := i.log.With("op", op)
	batches, err := i.Load()
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	if err := i.store.BulkInsert(ctx, batches); err != nil {
		log.Error("bulk insert failed", "err", err)
		return nil, fmt.Errorf("importer: %w", err)
	}
	counts := make(map[string]int, len(batches))
	for _, b := range batches {
		counts[b.Table] = len(b.Rows)
		log.Info("table imported", "table", b.Table, "rows", len(b.Rows))
	}
	return counts, nil
}

// Load parses all source files without writing anything.
func (i *Importer) Load() ([]storage.Batch, error) {
	batches := make([]storage.Batch, 0, len(sources))
	for _, src := range sources {
		f, err := i.files.Open(src.file)
		if err != nil {
			if src.optional && errors.Is(err, fs.ErrNotExist) {
				i.log.Info("optional file missing, skipping", "file", src.file)
				continue
			}
			return nil, &Error{File: src.file, Err: err}
		}
		batch, err := readSource(f, src)
		f.Close()
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

func readSource(r io.Reader, src source) (storage.Batch, error) {
	batch := storage.Batch{Table: src.table}
	for _, c := range src.columns {
		batch.Columns = append(batch.Columns, c.name)
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("file is empty")
		}
		return batch, &Error{File: src.file, Err: err}
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	positions := make([]int, len(src.columns))
	for i, c := range src.columns {
		pos, ok := index[c.header]
		if !ok {
			return batch, &Error{File: src.file, Err: fmt.Errorf("missing column %q", c.header)}
		}
		positions[i] = pos
	}
	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return batch, nil
		}
		if err != nil {
			return batch, &Error{File: src.file, Row: rowNum, Err: err}
		}
		if len(record) != len(header) {
			return batch, &Error{
				File: src.file,
				Row:  rowNum,
				Err:  fmt.Errorf("expected %d fields, got %d", len(header), len(record)),
			}
		}
		row := make([]any, len(src.columns))
		for i, c := range src.columns {
			value, err := c.parse(record[positions[i]])
			if err != nil {
				return batch, &Error{File: src.file, Row: rowNum, Err: fmt.Errorf("%s: %w", c.header, err)}
			}
			row[i] = value
		}
		batch.Rows = append(batch.Rows, row)
	}
}

func text(s string) (any, error) {
	return s, nil
}

func required(s string) (any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("value is required")
	}
	return s, nil
}

func optionalText(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	return s, nil
}

func integer(s string) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	return n, nil
}

func optionalInteger(s string) (any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return integer(s)
}

func year(s string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	return rules.ValidateYear(n)
}

func score(s string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	return rules.ValidateScore(n)
}

func username(s string) (any, error) {
	if s == "" {
		return nil, errors.New("value is required")
	}
	return rules.ValidateUsername(s)
}

func slug(s string) (any, error) {
	return rules.ValidateSlug(s)
}

func role(s string) (any, error) {
	r := models.Role(s)
	if r == "" {
		r = models.RoleUser
	}
	if !r.Valid() {
		return nil, fmt.Errorf("%q is not a valid role", s)
	}
	return string(r), nil
}

func timestamp(s string) (any, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%q is not an RFC 3339 timestamp", s)
	}
	return t, nil
}
