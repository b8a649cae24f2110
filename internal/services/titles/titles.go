package titles

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"yamdb/proj/internal/domain/errs"
	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/rules"
	"yamdb/proj/internal/permissions"
	"yamdb/proj/internal/storage"
)

type TitlesStorage interface {
	Get(ctx context.Context, id int64) (*models.Title, error)
	List(ctx context.Context, tf filters.TitleFilter, f filters.Filters) ([]models.Title, int, error)
	Insert(ctx context.Context, rec storage.TitleRecord) (int64, error)
	Update(ctx context.Context, id int64, rec storage.TitleRecord) error
	Delete(ctx context.Context, id int64) error
}

type SlugGetter interface {
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
}

type Authorizer interface {
	Check(actor *models.User, action permissions.Action, resource permissions.Resource) error
}

// SortSafelist lists the columns a title listing may be sorted by.
var SortSafelist = []string{"name", "year", "id"}

type TitleService struct {
	log        *slog.Logger
	storage    TitlesStorage
	categories SlugGetter
	genres     SlugGetter
	perms      Authorizer
}

func New(log *slog.Logger, storage TitlesStorage, categories, genres SlugGetter, perms Authorizer) *TitleService {
	return &TitleService{
		log:        log,
		storage:    storage,
		categories: categories,
		genres:     genres,
		perms:      perms,
	}
}

// WriteParams is the write shape of a title. Category and genres are given by
// slug. On update nil fields keep their stored value.
type WriteParams struct {
	Name        *string
	Year        *int
	Description *string
	Category    *string // empty string clears the category
	Genres      []string
}

func (s *TitleService) Get(ctx context.Context, id int64) (*models.Title, error) {
	const op = "titles.TitleService.Get"
	log := s.log.With("op", op, "id", id)
	title, err := s.storage.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("title not found")
			return nil, errs.NotFound("title with id %d not found", id)
		}
		log.Error(err.Error())
		return nil, err
	}
	return title, nil
}

func (s *TitleService) List(ctx context.Context, tf filters.TitleFilter, f filters.Filters) ([]models.Title, int, error) {
	const op = "titles.TitleService.List"
	log := s.log.With("op", op, "filter", tf)
	f.SortSafelist = SortSafelist
	if !f.SortValid() {
		return nil, 0, errs.NewValidationError("sort", "unknown sort column "+f.Sort)
	}
	titles, total, err := s.storage.List(ctx, tf, f)
	if err != nil {
		log.Error(err.Error())
		return nil, 0, err
	}
	return titles, total, nil
}

func (s *TitleService) resolve(ctx context.Context, p WriteParams, rec *storage.TitleRecord) error {
	if p.Category != nil {
		rec.CategoryID = nil
		if *p.Category != "" {
			c, err := s.categories.GetBySlug(ctx, *p.Category)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return errs.NotFound("category %q not found", *p.Category)
				}
				return err
			}
			rec.CategoryID = &c.ID
		}
	}
	if p.Genres != nil {
		rec.GenreIDs = make([]int64, 0, len(p.Genres))
		for _, slug := range p.Genres {
			g, err := s.genres.GetBySlug(ctx, slug)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return errs.NotFound("genre %q not found", slug)
				}
				return err
			}
			rec.GenreIDs = append(rec.GenreIDs, g.ID)
		}
	}
	return nil
}

func apply(p WriteParams, rec *storage.TitleRecord) error {
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.Year != nil {
		rec.Year = *p.Year
	}
	if p.Description != nil {
		rec.Description = *p.Description
	}
	verr := &errs.ValidationError{Fields: map[string]string{}}
	switch {
	case strings.TrimSpace(rec.Name) == "":
		verr.Fields["name"] = "this field may not be blank"
	case utf8.RuneCountInString(rec.Name) > rules.NameMaxLength:
		verr.Fields["name"] = "ensure this field has no more than 256 characters"
	}
	if _, err := rules.ValidateYear(rec.Year); err != nil {
		verr.Fields["year"] = err.Error()
	}
	if p.Genres != nil && len(p.Genres) == 0 {
		verr.Fields["genre"] = "at least one genre is required"
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Create stores a new title and returns it in its read shape.
func (s *TitleService) Create(ctx context.Context, actor *models.User, p WriteParams) (*models.Title, error) {
	const op = "titles.TitleService.Create"
	log := s.log.With("op", op)
	if err := s.perms.Check(actor, permissions.ActionCreate, permissions.Resource{Kind: permissions.KindTitle}); err != nil {
		log.Info("permission denied")
		return nil, err
	}
	verr := &errs.ValidationError{Fields: map[string]string{}}
	if p.Name == nil {
		verr.Fields["name"] = "this field is required"
	}
	if p.Year == nil {
		verr.Fields["year"] = "this field is required"
	}
	if p.Genres == nil {
		verr.Fields["genre"] = "this field is required"
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	var rec storage.TitleRecord
	if err := apply(p, &rec); err != nil {
		return nil, err
	}
	if err := s.resolve(ctx, p, &rec); err != nil {
		log.Info("failed to resolve references", "err", err)
		return nil, err
	}
	id, err := s.storage.Insert(ctx, rec)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("reference vanished during insert", "err", err)
			return nil, errs.NotFound("category or genre not found")
		}
		log.Error(err.Error())
		return nil, err
	}
	return s.Get(ctx, id)
}

// Update applies a partial update and returns the title in its read shape.
func (s *TitleService) Update(ctx context.Context, actor *models.User, id int64, p WriteParams) (*models.Title, error) {
	const op = "titles.TitleService.Update"
	log := s.log.With("op", op, "id", id)
	if err := s.perms.Check(actor, permissions.ActionUpdate, permissions.Resource{Kind: permissions.KindTitle}); err != nil {
		log.Info("permission denied")
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := storage.TitleRecord{
		Name:        current.Name,
		Year:        current.Year,
		Description: current.Description,
		GenreIDs:    make([]int64, 0, len(current.Genres)),
	}
	if current.Category != nil {
		rec.CategoryID = &current.Category.ID
	}
	for _, g := range current.Genres {
		rec.GenreIDs = append(rec.GenreIDs, g.ID)
	}
	if err := apply(p, &rec); err != nil {
		return nil, err
	}
	if err := s.resolve(ctx, p, &rec); err != nil {
		log.Info("failed to resolve references", "err", err)
		return nil, err
	}
	if err := s.storage.Update(ctx, id, rec); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("title or reference not found", "err", err)
			return nil, errs.NotFound("title with id %d not found", id)
		}
		log.Error(err.Error())
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the title with its genre links, reviews and their comments.
func (s *TitleService) Delete(ctx context.Context, actor *models.User, id int64) error {
	const op = "titles.TitleService.Delete"
	log := s.log.With("op", op, "id", id)
	if err := s.perms.Check(actor, permissions.ActionDelete, permissions.Resource{Kind: permissions.KindTitle}); err != nil {
		log.Info("permission denied")
		return err
	}
	if err := s.storage.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("title not found")
			return errs.NotFound("title with id %d not found", id)
		}
		log.Error(err.Error())
		return err
	}
	return nil
}
