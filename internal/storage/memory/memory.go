// Package memory implements the storage contracts of the postgres models on
// top of mutex guarded maps. It applies the same uniqueness, cascade and
// SET NULL rules as the schema and is used by tests and local runs.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
)

type db struct {
	mu         sync.RWMutex
	seq        int64
	users      map[int64]models.User
	categories map[int64]models.Category
	genres     map[int64]models.Genre
	titles     map[int64]titleRow
	reviews    map[int64]models.Review
	comments   map[int64]models.Comment
	now        func() time.Time
}

type titleRow struct {
	storage.TitleRecord
	ID int64
}

func (d *db) nextID() int64 {
	d.seq++
	return d.seq
}

// Storage groups the per-entity stores sharing one dataset.
type Storage struct {
	Users      *Users
	Categories *Slugs
	Genres     *Slugs
	Titles     *Titles
	Reviews    *Reviews
	Comments   *Comments
}

func New() *Storage {
	d := &db{
		users:      make(map[int64]models.User),
		categories: make(map[int64]models.Category),
		genres:     make(map[int64]models.Genre),
		titles:     make(map[int64]titleRow),
		reviews:    make(map[int64]models.Review),
		comments:   make(map[int64]models.Comment),
		now:        time.Now,
	}
	return &Storage{
		Users:      &Users{d},
		Categories: &Slugs{d: d, table: d.categories, kind: "category"},
		Genres:     &Slugs{d: d, table: d.genres, kind: "genre"},
		Titles:     &Titles{d},
		Reviews:    &Reviews{d},
		Comments:   &Comments{d},
	}
}

func conflict(constraint string) error {
	return fmt.Errorf("%w: %s", storage.ErrConflict, constraint)
}

func page[T any](items []T, f filters.Filters) []T {
	lo, hi := f.Window(len(items))
	return append(make([]T, 0, hi-lo), items[lo:hi]...)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

type Users struct{ d *db }

func (s *Users) find(match func(models.User) bool) (*models.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	for _, u := range s.d.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Users) Get(_ context.Context, id int64) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.ID == id })
}

func (s *Users) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Username == username })
}

func (s *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *Users) List(_ context.Context, search string, f filters.Filters) ([]models.User, int, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var users []models.User
	for _, u := range s.d.users {
		if search == "" || containsFold(u.Username, search) {
			users = append(users, u)
		}
	}
	slices.SortFunc(users, func(a, b models.User) int { return cmp.Compare(a.Username, b.Username) })
	return page(users, f), len(users), nil
}

func (s *Users) checkUnique(user *models.User) error {
	for _, u := range s.d.users {
		if u.ID == user.ID {
			continue
		}
		if u.Username == user.Username {
			return conflict("users_username_key")
		}
		if u.Email == user.Email {
			return conflict("users_email_key")
		}
	}
	return nil
}

func (s *Users) Insert(_ context.Context, user *models.User) (*models.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	created := *user
	created.ID = 0
	if err := s.checkUnique(&created); err != nil {
		return nil, err
	}
	if created.Role == "" {
		created.Role = models.RoleUser
	}
	created.ID = s.d.nextID()
	created.CreatedAt = s.d.now()
	created.UpdatedAt = created.CreatedAt
	s.d.users[created.ID] = created
	return &created, nil
}

func (s *Users) Update(_ context.Context, user *models.User) (*models.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	current, ok := s.d.users[user.ID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if err := s.checkUnique(user); err != nil {
		return nil, err
	}
	updated := *user
	updated.IsStaff = current.IsStaff
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.d.now()
	s.d.users[updated.ID] = updated
	return &updated, nil
}

// Delete removes the user with their reviews and comments.
func (s *Users) Delete(_ context.Context, username string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for id, u := range s.d.users {
		if u.Username != username {
			continue
		}
		delete(s.d.users, id)
		for rid, r := range s.d.reviews {
			if r.AuthorID == id {
				s.d.deleteReview(rid)
			}
		}
		for cid, c := range s.d.comments {
			if c.AuthorID == id {
				delete(s.d.comments, cid)
			}
		}
		return nil
	}
	return storage.ErrNotFound
}

// Slugs stores categories or genres.
type Slugs struct {
	d     *db
	table map[int64]models.Category
	kind  string
}

func (s *Slugs) List(_ context.Context, search string, f filters.Filters) ([]models.Category, int, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var items []models.Category
	for _, c := range s.table {
		if search == "" || containsFold(c.Name, search) {
			items = append(items, c)
		}
	}
	slices.SortFunc(items, func(a, b models.Category) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return page(items, f), len(items), nil
}

func (s *Slugs) GetBySlug(_ context.Context, slug string) (*models.Category, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	for _, c := range s.table {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Slugs) slugTaken(slug string, except int64) bool {
	for _, c := range s.table {
		if c.Slug == slug && c.ID != except {
			return true
		}
	}
	return false
}

func (s *Slugs) Insert(_ context.Context, name, slug string) (*models.Category, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if s.slugTaken(slug, 0) {
		return nil, conflict(s.kind + "_slug_key")
	}
	item := models.Category{ID: s.d.nextID(), Name: name, Slug: slug}
	s.table[item.ID] = item
	return &item, nil
}

func (s *Slugs) Update(_ context.Context, item *models.Category) (*models.Category, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.table[item.ID]; !ok {
		return nil, storage.ErrNotFound
	}
	if s.slugTaken(item.Slug, item.ID) {
		return nil, conflict(s.kind + "_slug_key")
	}
	s.table[item.ID] = *item
	updated := *item
	return &updated, nil
}

// Delete removes a category (titles keep existing with no category) or a
// genre (its title links are dropped).
func (s *Slugs) Delete(_ context.Context, slug string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for id, c := range s.table {
		if c.Slug != slug {
			continue
		}
		delete(s.table, id)
		for tid, t := range s.d.titles {
			switch s.kind {
			case "category":
				if t.CategoryID != nil && *t.CategoryID == id {
					t.CategoryID = nil
				}
			case "genre":
				t.GenreIDs = slices.DeleteFunc(slices.Clone(t.GenreIDs), func(g int64) bool { return g == id })
			}
			s.d.titles[tid] = t
		}
		return nil
	}
	return storage.ErrNotFound
}

type Titles struct{ d *db }

func (d *db) readTitle(t titleRow) models.Title {
	title := models.Title{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Description: t.Description,
		Genres:      []models.Genre{},
	}
	if t.CategoryID != nil {
		if c, ok := d.categories[*t.CategoryID]; ok {
			title.Category = &c
		}
	}
	for _, gid := range t.GenreIDs {
		if g, ok := d.genres[gid]; ok {
			title.Genres = append(title.Genres, g)
		}
	}
	slices.SortFunc(title.Genres, func(a, b models.Genre) int { return cmp.Compare(a.Name, b.Name) })
	var scores []int
	for _, r := range d.reviews {
		if r.TitleID == t.ID {
			scores = append(scores, r.Score)
		}
	}
	title.Rating = models.AverageScore(scores)
	return title
}

func (s *Titles) Get(_ context.Context, id int64) (*models.Title, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	t, ok := s.d.titles[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	title := s.d.readTitle(t)
	return &title, nil
}

func (s *Titles) matches(title models.Title, tf filters.TitleFilter) bool {
	if tf.Name != "" && !strings.HasPrefix(strings.ToLower(title.Name), strings.ToLower(tf.Name)) {
		return false
	}
	if tf.Category != "" && (title.Category == nil || !strings.EqualFold(title.Category.Slug, tf.Category)) {
		return false
	}
	if tf.Genre != "" && !slices.ContainsFunc(title.Genres, func(g models.Genre) bool {
		return strings.Contains(g.Slug, tf.Genre)
	}) {
		return false
	}
	if tf.Year != nil && title.Year != *tf.Year {
		return false
	}
	return true
}

func (s *Titles) List(_ context.Context, tf filters.TitleFilter, f filters.Filters) ([]models.Title, int, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var titles []models.Title
	for _, t := range s.d.titles {
		title := s.d.readTitle(t)
		if s.matches(title, tf) {
			titles = append(titles, title)
		}
	}
	compare := func(a, b models.Title) int {
		return cmp.Or(cmp.Compare(b.Year, a.Year), cmp.Compare(a.ID, b.ID))
	}
	if f.Sort != "" {
		desc := f.SortDirection() == filters.DescSort
		column := f.SortColumn()
		compare = func(a, b models.Title) int {
			var c int
			switch column {
			case "name":
				c = cmp.Compare(a.Name, b.Name)
			case "year":
				c = cmp.Compare(a.Year, b.Year)
			case "id":
				c = cmp.Compare(a.ID, b.ID)
			}
			if desc {
				c = -c
			}
			return cmp.Or(c, cmp.Compare(a.ID, b.ID))
		}
	}
	slices.SortFunc(titles, compare)
	return page(titles, f), len(titles), nil
}

func (d *db) checkRefs(rec storage.TitleRecord) error {
	if rec.CategoryID != nil {
		if _, ok := d.categories[*rec.CategoryID]; !ok {
			return fmt.Errorf("%w: titles_category_id_fkey", storage.ErrNotFound)
		}
	}
	for _, gid := range rec.GenreIDs {
		if _, ok := d.genres[gid]; !ok {
			return fmt.Errorf("%w: genre_title_genre_id_fkey", storage.ErrNotFound)
		}
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func (s *Titles) Insert(_ context.Context, rec storage.TitleRecord) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if err := s.d.checkRefs(rec); err != nil {
		return 0, err
	}
	rec.GenreIDs = dedupe(rec.GenreIDs)
	row := titleRow{TitleRecord: rec, ID: s.d.nextID()}
	s.d.titles[row.ID] = row
	return row.ID, nil
}

func (s *Titles) Update(_ context.Context, id int64, rec storage.TitleRecord) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.titles[id]; !ok {
		return storage.ErrNotFound
	}
	if err := s.d.checkRefs(rec); err != nil {
		return err
	}
	rec.GenreIDs = dedupe(rec.GenreIDs)
	s.d.titles[id] = titleRow{TitleRecord: rec, ID: id}
	return nil
}

// Delete removes the title with its reviews and their comments.
func (s *Titles) Delete(_ context.Context, id int64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.titles[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.d.titles, id)
	for rid, r := range s.d.reviews {
		if r.TitleID == id {
			s.d.deleteReview(rid)
		}
	}
	return nil
}

type Reviews struct{ d *db }

func (d *db) deleteReview(id int64) {
	delete(d.reviews, id)
	for cid, c := range d.comments {
		if c.ReviewID == id {
			delete(d.comments, cid)
		}
	}
}

func (d *db) withAuthor(r models.Review) models.Review {
	r.Author = d.users[r.AuthorID].Username
	return r
}

func byPubDate[T any](date func(T) time.Time, id func(T) int64) func(a, b T) int {
	return func(a, b T) int {
		return cmp.Or(date(a).Compare(date(b)), cmp.Compare(id(a), id(b)))
	}
}

func (s *Reviews) List(_ context.Context, titleID int64, f filters.Filters) ([]models.Review, int, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var reviews []models.Review
	for _, r := range s.d.reviews {
		if r.TitleID == titleID {
			reviews = append(reviews, s.d.withAuthor(r))
		}
	}
	slices.SortFunc(reviews, byPubDate(
		func(r models.Review) time.Time { return r.PubDate },
		func(r models.Review) int64 { return r.ID },
	))
	return page(reviews, f), len(reviews), nil
}

func (s *Reviews) find(match func(models.Review) bool) (*models.Review, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	for _, r := range s.d.reviews {
		if match(r) {
			review := s.d.withAuthor(r)
			return &review, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Reviews) Get(_ context.Context, titleID, id int64) (*models.Review, error) {
	return s.find(func(r models.Review) bool { return r.TitleID == titleID && r.ID == id })
}

func (s *Reviews) GetByAuthor(_ context.Context, titleID, authorID int64) (*models.Review, error) {
	return s.find(func(r models.Review) bool { return r.TitleID == titleID && r.AuthorID == authorID })
}

func (s *Reviews) Insert(_ context.Context, review *models.Review) (*models.Review, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.titles[review.TitleID]; !ok {
		return nil, fmt.Errorf("%w: reviews_title_id_fkey", storage.ErrNotFound)
	}
	if _, ok := s.d.users[review.AuthorID]; !ok {
		return nil, fmt.Errorf("%w: reviews_author_id_fkey", storage.ErrNotFound)
	}
	for _, r := range s.d.reviews {
		if r.TitleID == review.TitleID && r.AuthorID == review.AuthorID {
			return nil, conflict("unique_title_author_pair")
		}
	}
	created := *review
	created.ID = s.d.nextID()
	created.PubDate = s.d.now()
	s.d.reviews[created.ID] = created
	created = s.d.withAuthor(created)
	return &created, nil
}

func (s *Reviews) Update(_ context.Context, review *models.Review) (*models.Review, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	current, ok := s.d.reviews[review.ID]
	if !ok || current.TitleID != review.TitleID {
		return nil, storage.ErrNotFound
	}
	current.Text = review.Text
	current.Score = review.Score
	s.d.reviews[current.ID] = current
	current = s.d.withAuthor(current)
	return &current, nil
}

func (s *Reviews) Delete(_ context.Context, titleID, id int64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	current, ok := s.d.reviews[id]
	if !ok || current.TitleID != titleID {
		return storage.ErrNotFound
	}
	s.d.deleteReview(id)
	return nil
}

type Comments struct{ d *db }

func (d *db) commentWithAuthor(c models.Comment) models.Comment {
	c.Author = d.users[c.AuthorID].Username
	return c
}

func (s *Comments) List(_ context.Context, reviewID int64, f filters.Filters) ([]models.Comment, int, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	var comments []models.Comment
	for _, c := range s.d.comments {
		if c.ReviewID == reviewID {
			comments = append(comments, s.d.commentWithAuthor(c))
		}
	}
	slices.SortFunc(comments, byPubDate(
		func(c models.Comment) time.Time { return c.PubDate },
		func(c models.Comment) int64 { return c.ID },
	))
	return page(comments, f), len(comments), nil
}

func (s *Comments) Get(_ context.Context, reviewID, id int64) (*models.Comment, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	c, ok := s.d.comments[id]
	if !ok || c.ReviewID != reviewID {
		return nil, storage.ErrNotFound
	}
	c = s.d.commentWithAuthor(c)
	return &c, nil
}

func (s *Comments) Insert(_ context.Context, comment *models.Comment) (*models.Comment, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.reviews[comment.ReviewID]; !ok {
		return nil, fmt.Errorf("%w: comments_review_id_fkey", storage.ErrNotFound)
	}
	if _, ok := s.d.users[comment.AuthorID]; !ok {
		return nil, fmt.Errorf("%w: comments_author_id_fkey", storage.ErrNotFound)
	}
	created := *comment
	created.ID = s.d.nextID()
	created.PubDate = s.d.now()
	s.d.comments[created.ID] = created
	created = s.d.commentWithAuthor(created)
	return &created, nil
}

func (s *Comments) Update(_ context.Context, comment *models.Comment) (*models.Comment, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	current, ok := s.d.comments[comment.ID]
	if !ok || current.ReviewID != comment.ReviewID {
		return nil, storage.ErrNotFound
	}
	current.Text = comment.Text
	s.d.comments[current.ID] = current
	current = s.d.commentWithAuthor(current)
	return &current, nil
}

func (s *Comments) Delete(_ context.Context, reviewID, id int64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	current, ok := s.d.comments[id]
	if !ok || current.ReviewID != reviewID {
		return storage.ErrNotFound
	}
	delete(s.d.comments, id)
	return nil
}
