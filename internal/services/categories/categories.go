// Package categories serves the two name/slug dictionaries, categories and
// genres. One CategoryService instance handles one of them.
package categories

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
	"yamdb/proj/internal/metrics"
	"yamdb/proj/internal/permissions"
	"yamdb/proj/internal/storage"
)

type Storage interface {
	List(ctx context.Context, search string, f filters.Filters) ([]models.Category, int, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Insert(ctx context.Context, name, slug string) (*models.Category, error)
	Update(ctx context.Context, item *models.Category) (*models.Category, error)
	Delete(ctx context.Context, slug string) error
}

type Authorizer interface {
	Check(actor *models.User, action permissions.Action, resource permissions.Resource) error
}

type CategoryService struct {
	log     *slog.Logger
	storage Storage
	perms   Authorizer
	kind    permissions.Kind
}

func New(log *slog.Logger, storage Storage, perms Authorizer, kind permissions.Kind) *CategoryService {
	return &CategoryService{
		log:     log,
		storage: storage,
		perms:   perms,
		kind:    kind,
	}
}

func validate(name, slug string) error {
	verr := &errs.ValidationError{Fields: map[string]string{}}
	switch {
	case strings.TrimSpace(name) == "":
		verr.Fields["name"] = "this field may not be blank"
	case utf8.RuneCountInString(name) > rules.NameMaxLength:
		verr.Fields["name"] = "ensure this field has no more than 256 characters"
	}
	switch {
	case utf8.RuneCountInString(slug) > rules.SlugMaxLength:
		verr.Fields["slug"] = "ensure this field has no more than 50 characters"
	default:
		if _, err := rules.ValidateSlug(slug); err != nil {
			verr.Fields["slug"] = err.Error()
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (s *CategoryService) List(ctx context.Context, search string, f filters.Filters) ([]models.Category, int, error) {
	const op = "categories.CategoryService.List"
	log := s.log.With("op", op, "kind", s.kind, "search", search)
	items, total, err := s.storage.List(ctx, search, f)
	if err != nil {
		log.Error(err.Error())
		return nil, 0, err
	}
	return items, total, nil
}

func (s *CategoryService) Get(ctx context.Context, slug string) (*models.Category, error) {
	const op = "categories.CategoryService.Get"
	log := s.log.With("op", op, "kind", s.kind, "slug", slug)
	item, err := s.storage.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("not found")
			return nil, errs.NotFound("%s %q not found", s.kind, slug)
		}
		log.Error(err.Error())
		return nil, err
	}
	return item, nil
}

func (s *CategoryService) Create(ctx context.Context, actor *models.User, name, slug string) (*models.Category, error) {
	const op = "categories.CategoryService.Create"
	log := s.log.With("op", op, "kind", s.kind, "slug", slug)
	if err := s.perms.Check(actor, permissions.ActionCreate, permissions.Resource{Kind: s.kind}); err != nil {
		log.Info("permission denied")
		return nil, err
	}
	if err := validate(name, slug); err != nil {
		return nil, err
	}
	item, err := s.storage.Insert(ctx, name, slug)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			log.Info("slug already taken")
			metrics.RecordConflict(string(s.kind))
			return nil, errs.Conflict("%s with slug %q already exists", s.kind, slug)
		}
		log.Error(err.Error())
		return nil, err
	}
	return item, nil
}

// Update applies a partial update; nil fields keep their stored value.
func (s *CategoryService) Update(ctx context.Context, actor *models.User, slug string, name, newSlug *string) (*models.Category, error) {
	const op = "categories.CategoryService.Update"
	log := s.log.With("op", op, "kind", s.kind, "slug", slug)
	if err := s.perms.Check(actor, permissions.ActionUpdate, permissions.Resource{Kind: s.kind}); err != nil {
		log.Info("permission denied")
		return nil, err
	}
	item, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if name != nil {
		item.Name = *name
	}
	if newSlug != nil {
		item.Slug = *newSlug
	}
	if err := validate(item.Name, item.Slug); err != nil {
		return nil, err
	}
	updated, err := s.storage.Update(ctx, item)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			log.Info("slug already taken")
			metrics.RecordConflict(string(s.kind))
			return nil, errs.Conflict("%s with slug %q already exists", s.kind, item.Slug)
		case errors.Is(err, storage.ErrNotFound):
			return nil, errs.NotFound("%s %q not found", s.kind, slug)
		}
		log.Error(err.Error())
		return nil, err
	}
	return updated, nil
}

// Delete removes the entry. Titles referencing a deleted category keep
// existing without one; links to a deleted genre are dropped.
func (s *CategoryService) Delete(ctx context.Context, actor *models.User, slug string) error {
	const op = "categories.CategoryService.Delete"
	log := s.log.With("op", op, "kind", s.kind, "slug", slug)
	if err := s.perms.Check(actor, permissions.ActionDelete, permissions.Resource{Kind: s.kind}); err != nil {
		log.Info("permission denied")
		return err
	}
	if err := s.storage.Delete(ctx, slug); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("not found")
			return errs.NotFound("%s %q not found", s.kind, slug)
		}
		log.Error(err.Error())
		return err
	}
	return nil
}
