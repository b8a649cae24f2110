package comments

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"yamdb/proj/internal/domain/errs"
	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/permissions"
	"yamdb/proj/internal/storage"
)

type CommentStorage interface {
	List(ctx context.Context, reviewID int64, f filters.Filters) ([]models.Comment, int, error)
	Get(ctx context.Context, reviewID, id int64) (*models.Comment, error)
	Insert(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	Delete(ctx context.Context, reviewID, id int64) error
}

// ReviewGetter resolves a review only when it belongs to the given title.
type ReviewGetter interface {
	Get(ctx context.Context, titleID, id int64) (*models.Review, error)
}

type Authorizer interface {
	Check(actor *models.User, action permissions.Action, resource permissions.Resource) error
}

type CommentService struct {
	log     *slog.Logger
	storage CommentStorage
	reviews ReviewGetter
	perms   Authorizer
}

func New(log *slog.Logger, storage CommentStorage, reviews ReviewGetter, perms Authorizer) *CommentService {
	return &CommentService{
		log:     log,
		storage: storage,
		reviews: reviews,
		perms:   perms,
	}
}

func (s *CommentService) checkReview(ctx context.Context, titleID, reviewID int64) error {
	if _, err := s.reviews.Get(ctx, titleID, reviewID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NotFound("review with id %d not found for title %d", reviewID, titleID)
		}
		return err
	}
	return nil
}

func validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return errs.NewValidationError("text", "this field may not be blank")
	}
	return nil
}

func (s *CommentService) List(ctx context.Context, titleID, reviewID int64, f filters.Filters) ([]models.Comment, int, error) {
	const op = "comments.CommentService.List"
	log := s.log.With("op", op, "title_id", titleID, "review_id", reviewID)
	if err := s.checkReview(ctx, titleID, reviewID); err != nil {
		log.Info("review lookup failed", "err", err)
		return nil, 0, err
	}
	comments, total, err := s.storage.List(ctx, reviewID, f)
	if err != nil {
		log.Error(err.Error())
		return nil, 0, err
	}
	return comments, total, nil
}

func (s *CommentService) Get(ctx context.Context, titleID, reviewID, id int64) (*models.Comment, error) {
	const op = "comments.CommentService.Get"
	log := s.log.With("op", op, "title_id", titleID, "review_id", reviewID, "id", id)
	if err := s.checkReview(ctx, titleID, reviewID); err != nil {
		log.Info("review lookup failed", "err", err)
		return nil, err
	}
	comment, err := s.storage.Get(ctx, reviewID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("comment not found")
			return nil, errs.NotFound("comment with id %d not found for review %d", id, reviewID)
		}
		log.Error(err.Error())
		return nil, err
	}
	return comment, nil
}

// Create stores a comment authored by actor under the review.
func (s *CommentService) Create(ctx context.Context, actor *models.User, titleID, reviewID int64, text string) (*models.Comment, error) {
	const op = "comments.CommentService.Create"
	log := s.log.With("op", op, "title_id", titleID, "review_id", reviewID)
	if err := s.perms.Check(actor, permissions.ActionCreate, permissions.Resource{Kind: permissions.KindComment}); err != nil {
		log.Info("permission denied")
		return nil, err
	}
	if err := s.checkReview(ctx, titleID, reviewID); err != nil {
		log.Info("review lookup failed", "err", err)
		return nil, err
	}
	if err := validate(text); err != nil {
		return nil, err
	}
	comment, err := s.storage.Insert(ctx, &models.Comment{ReviewID: reviewID, AuthorID: actor.ID, Text: text})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("review vanished during insert")
			return nil, errs.NotFound("review with id %d not found for title %d", reviewID, titleID)
		}
		log.Error(err.Error())
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, actor *models.User, titleID, reviewID, id int64, text *string) (*models.Comment, error) {
	const op = "comments.CommentService.Update"
	log := s.log.With("op", op, "review_id", reviewID, "id", id)
	comment, err := s.Get(ctx, titleID, reviewID, id)
	if err != nil {
		return nil, err
	}
	res := permissions.Resource{Kind: permissions.KindComment, AuthorID: comment.AuthorID}
	if err := s.perms.Check(actor, permissions.ActionUpdate, res); err != nil {
		log.Info("permission denied")
		return nil, err
	}
	if text != nil {
		comment.Text = *text
	}
	if err := validate(comment.Text); err != nil {
		return nil, err
	}
	updated, err := s.storage.Update(ctx, comment)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errs.NotFound("comment with id %d not found for review %d", id, reviewID)
		}
		log.Error(err.Error())
		return nil, err
	}
	return updated, nil
}

func (s *CommentService) Delete(ctx context.Context, actor *models.User, titleID, reviewID, id int64) error {
	const op = "comments.CommentService.Delete"
	log := s.log.With("op", op, "review_id", reviewID, "id", id)
	comment, err := s.Get(ctx, titleID, reviewID, id)
	if err != nil {
		return err
	}
	res := permissions.Resource{Kind: permissions.KindComment, AuthorID: comment.AuthorID}
	if err := s.perms.Check(actor, permissions.ActionDelete, res); err != nil {
		log.Info("permission denied")
		return err
	}
	if err := s.storage.Delete(ctx, reviewID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NotFound("comment with id %d not found for review %d", id, reviewID)
		}
		log.Error(err.Error())
		return err
	}
	return nil
}
