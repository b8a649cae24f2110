package importer

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"yamdb/proj/internal/lib/logger"
	"yamdb/proj/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	batches []storage.Batch
	err     error
}

func (r *recorder) BulkInsert(_ context.Context, batches []storage.Batch) error {
	r.batches = batches
	return r.err
}

func fixtures() fstest.MapFS {
	file := func(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }
	return fstest.MapFS{
		"users.csv":    file("id,username,email,role,bio,first_name,last_name\n100,bingobongo,bingobongo@yamdb.fake,user,,,\n101,capt_obvious,capt@yamdb.fake,admin,\"Obvious, really\",Cap,\n"),
		"category.csv": file("id,name,slug\n1,Фильм,movie\n"),
		"genre.csv":    file("id,name,slug\n1,Драма,drama\n"),
		"titles.csv":   file("id,name,year,category\n1,Побег из Шоушенка,1994,1\n2,Без категории,2000,\n"),
		"review.csv":   file("id,title_id,text,author,score,pub_date\n1,1,Ну такое,100,10,2019-09-24T21:08:21.567Z\n"),
		"comments.csv": file("id,review_id,text,author,pub_date\n1,1,Согласен,101,2019-09-24T21:08:21.567Z\n"),
	}
}

func TestRun_BuildsBatchesInOrder(t *testing.T) {
	rec := &recorder{}
	counts, err := New(logger.Discard(), fixtures(), rec).Run(context.Background())
	require.NoError(t, err)

	tables := make([]string, 0, len(rec.batches))
	for _, b := range rec.batches {
		tables = append(tables, b.Table)
	}
	assert.Equal(t, []string{"users", "categories", "genres", "titles", "reviews", "comments"}, tables)
	assert.Equal(t, 2, counts["users"])

	users := rec.batches[0]
	assert.Equal(t, []string{"id", "username", "email", "role", "bio", "first_name", "last_name"}, users.Columns)
	assert.Equal(t, int64(100), users.Rows[0][0])
	assert.Nil(t, users.Rows[0][4])
	assert.Equal(t, "Obvious, really", users.Rows[1][4])

	titles := rec.batches[3]
	assert.Equal(t, "category_id", titles.Columns[3])
	assert.Equal(t, int64(1), titles.Rows[0][3])
	assert.Nil(t, titles.Rows[1][3])

	review := rec.batches[4].Rows[0]
	assert.Equal(t, int64(100), review[3])
	assert.Equal(t, 10, review[4])
	assert.Equal(t, time.Date(2019, 9, 24, 21, 8, 21, 567000000, time.UTC), review[5])
}

func TestRun_OptionalGenreTitle(t *testing.T) {
	files := fixtures()
	files["genre_title.csv"] = &fstest.MapFile{Data: []byte("id,title_id,genre_id\n1,1,1\n")}
	rec := &recorder{}
	_, err := New(logger.Discard(), files, rec).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rec.batches, 7)
	assert.Equal(t, "genre_title", rec.batches[4].Table)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"bad score", "review.csv", "id,title_id,text,author,score,pub_date\n1,1,x,100,11,2019-09-24T21:08:21Z\n", "importer: review.csv: row 2: score:"},
		{"bad id", "category.csv", "id,name,slug\n1,Фильм,movie\nx,Книга,book\n", "importer: category.csv: row 3: id: \"x\" is not an integer"},
		{"missing column", "genre.csv", "id,name\n1,Драма\n", "importer: genre.csv: missing column \"slug\""},
		{"bad role", "users.csv", "id,username,email,role,bio,first_name,last_name\n1,bob,b@b.b,owner,,,\n", "importer: users.csv: row 2: role:"},
		{"short row", "titles.csv", "id,name,year,category\n1,Heat\n", "importer: titles.csv: row 2: expected 4 fields, got 2"},
		{"bad date", "comments.csv", "id,review_id,text,author,pub_date\n1,1,x,100,yesterday\n", "importer: comments.csv: row 2: pub_date:"},
		{"empty file", "titles.csv", "", "importer: titles.csv: file is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := fixtures()
			files[tt.file] = &fstest.MapFile{Data: []byte(tt.content)}
			rec := &recorder{}
			_, err := New(logger.Discard(), files, rec).Run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			var ierr *Error
			assert.ErrorAs(t, err, &ierr)
			assert.Nil(t, rec.batches)
		})
	}
}

func TestRun_MissingRequiredFile(t *testing.T) {
	files := fixtures()
	delete(files, "users.csv")
	_, err := New(logger.Discard(), files, &recorder{}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "importer: users.csv:")
}

func TestRun_StoreFailure(t *testing.T) {
	boom := errors.New("copy failed")
	_, err := New(logger.Discard(), fixtures(), &recorder{err: boom}).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}
