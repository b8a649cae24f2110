package reviews

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"yamdb/proj/internal/domain/errs"
	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/rules"
	"yamdb/proj/internal/metrics"
	"yamdb/proj/internal/permissions"
	"yamdb/proj/internal/storage"
)

type ReviewStorage interface {
	List(ctx context.Context, titleID int64, f filters.Filters) ([]models.Review, int, error)
	Get(ctx context.Context, titleID, id int64) (*models.Review, error)
	GetByAuthor(ctx context.Context, titleID, authorID int64) (*models.Review, error)
	Insert(ctx context.Context, review *models.Review) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) (*models.Review, error)
	Delete(ctx context.Context, titleID, id int64) error
}

type TitleGetter interface {
	Get(ctx context.Context, id int64) (*models.Title, error)
}

type Authorizer interface {
	Check(actor *models.User, action permissions.Action, resource permissions.Resource) error
}

var errDuplicate = errs.Conflict("you have already reviewed this title")

type ReviewService struct {
	log     *slog.Logger
	storage ReviewStorage
	titles  TitleGetter
	perms   Authorizer
}

func New(log *slog.Logger, storage ReviewStorage, titles TitleGetter, perms Authorizer) *ReviewService {
	return &ReviewService{
		log:     log,
		storage: storage,
		titles:  titles,
		perms:   perms,
	}
}

func (s *ReviewService) checkTitle(ctx context.Context, titleID int64) error {
	if _, err := s.titles.Get(ctx, titleID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NotFound("title with id %d not found", titleID)
		}
		return err
	}
	return nil
}

func validate(text string, score int) error {
	verr := &errs.ValidationError{Fields: map[string]string{}}
	if strings.TrimSpace(text) == "" {
		verr.Fields["text"] = "this field may not be blank"
	}
	if _, err := rules.ValidateScore(score); err != nil {
		verr.Fields["score"] = err.Error()
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (s *ReviewService) List(ctx context.Context, titleID int64, f filters.Filters) ([]models.Review, int, error) {
	const op = "reviews.ReviewService.List"
	log := s.log.With("op", op, "title_id", titleID)
	if err := s.checkTitle(ctx, titleID); err != nil {
		log.Info("title lookup failed", "err", err)
		return nil, 0, err
	}
	reviews, total, err := s.storage.List(ctx, titleID, f)
	if err != nil {
		log.Error(err.Error())
		return nil, 0, err
	}
	return reviews, total, nil
}

func (s *ReviewService) Get(ctx context.Context, titleID, id int64) (*models.Review, error) {
	const op = "reviews.ReviewService.Get"
	log := s.log.With("op", op, "title_id", titleID, "id", id)
	review, err := s.storage.Get(ctx, titleID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("review not found")
			return nil, errs.NotFound("review with id %d not found for title %d", id, titleID)
		}
		log.Error(err.Error())
		return nil, err
	}
	return review, nil
}

// Create stores the actor's review of the title. A second review by the same
// author is rejected with a conflict, whether it is caught by the lookup or
// by the storage constraint when two requests race.
func (s *ReviewService) Create(ctx context.Context, actor *models.User, titleID int64, text string, score int) (*models.Review, error) {
	const op = "reviews.ReviewService.Create"
	log := s.log.With("op", op, "title_id", titleID)
	if err := s.perms.Check(actor, permissions.ActionCreate, permissions.Resource{Kind: permissions.KindReview}); err != nil {
		log.Info("permission denied")
		return nil, err
	}
	if err := s.checkTitle(ctx, titleID); err != nil {
		log.Info("title lookup failed", "err", err)
		return nil, err
	}
	if err := validate(text, score); err != nil {
		return nil, err
	}
	_, err := s.storage.GetByAuthor(ctx, titleID, actor.ID)
	switch {
	case err == nil:
		log.Info("duplicate review", "author_id", actor.ID)
		metrics.RecordConflict("review")
		return nil, errDuplicate
	case !errors.Is(err, storage.ErrNotFound):
		log.Error(err.Error())
		return nil, err
	}
	review, err := s.storage.Insert(ctx, &models.Review{
		TitleID:  titleID,
		AuthorID: actor.ID,
		Text:     text,
		Score:    score,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			log.Info("duplicate review caught by constraint", "author_id", actor.ID)
			metrics.RecordConflict("review")
			return nil, errDuplicate
		case errors.Is(err, storage.ErrNotFound):
			log.Info("title vanished during insert")
			return nil, errs.NotFound("title with id %d not found", titleID)
		}
		log.Error(err.Error())
		return nil, err
	}
	metrics.RecordReviewCreated()
	return review, nil
}

// Update changes text and score; nil fields keep their stored value.
func (s *ReviewService) Update(ctx context.Context, actor *models.User, titleID, id int64, text *string, score *int) (*models.Review, error) {
	const op = "reviews.ReviewService.Update"
	log := s.log.With("op", op, "title_id", titleID, "id", id)
	review, err := s.Get(ctx, titleID, id)
	if err != nil {
		return nil, err
	}
	res := permissions.Resource{Kind: permissions.KindReview, AuthorID: review.AuthorID}
	if err := s.perms.Check(actor, permissions.ActionUpdate, res); err != nil {
		log.Info("permission denied")
		return nil, err
	}
	if text != nil {
		review.Text = *text
	}
	if score != nil {
		review.Score = *score
	}
	if err := validate(review.Text, review.Score); err != nil {
		return nil, err
	}
	updated, err := s.storage.Update(ctx, review)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errs.NotFound("review with id %d not found for title %d", id, titleID)
		}
		log.Error(err.Error())
		return nil, err
	}
	return updated, nil
}

// Delete removes the review together with its comments.
func (s *ReviewService) Delete(ctx context.Context, actor *models.User, titleID, id int64) error {
	const op = "reviews.ReviewService.Delete"
	log := s.log.With("op", op, "title_id", titleID, "id", id)
	review, err := s.Get(ctx, titleID, id)
	if err != nil {
		return err
	}
	res := permissions.Resource{Kind: permissions.KindReview, AuthorID: review.AuthorID}
	if err := s.perms.Check(actor, permissions.ActionDelete, res); err != nil {
		log.Info("permission denied")
		return err
	}
	if err := s.storage.Delete(ctx, titleID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NotFound("review with id %d not found for title %d", id, titleID)
		}
		log.Error(err.Error())
		return err
	}
	return nil
}
