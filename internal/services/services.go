package services

import (
	"log/slog"

	"yamdb/proj/internal/config"
	"yamdb/proj/internal/mails"
	"yamdb/proj/internal/permissions"
	"yamdb/proj/internal/services/auth"
	"yamdb/proj/internal/services/categories"
	"yamdb/proj/internal/services/comments"
	"yamdb/proj/internal/services/reviews"
	"yamdb/proj/internal/services/titles"
	"yamdb/proj/internal/services/users"
	pgmodels "yamdb/proj/internal/storage/postgres/models"
	"yamdb/proj/internal/tokens"
)

type Services struct {
	Auth       *auth.AuthService
	Users      *users.UserService
	Categories *categories.CategoryService
	Genres     *categories.CategoryService
	Titles     *titles.TitleService
	Reviews    *reviews.ReviewService
	Comments   *comments.CommentService
	Perms      *permissions.Evaluator
}

// Storage is the set of per-entity stores the services run on.
type Storage struct {
	Users      users.UsersStorage
	Categories categories.Storage
	Genres     categories.Storage
	Titles     titles.TitlesStorage
	Reviews    reviews.ReviewStorage
	Comments   comments.CommentStorage
}

func PostgresStorage(m *pgmodels.Models) Storage {
	return Storage{
		Users:      m.Users,
		Categories: m.Categories,
		Genres:     m.Genres,
		Titles:     m.Titles,
		Reviews:    m.Reviews,
		Comments:   m.Comments,
	}
}

// NewMailer picks the HTTP API mailer when an API token is configured and
// the SMTP mailer otherwise.
func NewMailer(cfg *config.Config) auth.MailProvider {
	if cfg.SMTP.ApiToken != "" {
		return mails.NewApiMailer(cfg.SMTP.ApiURL, cfg.SMTP.ApiToken, cfg.SMTP.Sender, cfg.SMTP.RetriesCount)
	}
	return mails.New(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Timeout,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
		cfg.SMTP.Sender,
		cfg.SMTP.RetriesCount,
	)
}

func New(
	log *slog.Logger,
	cfg *config.Config,
	storage Storage,
	mailer auth.MailProvider,
	taskExecutor auth.TaskExecutor,
) *Services {
	perms := permissions.New()
	issuer := tokens.New(cfg.AppSecret, cfg.Tokens.AccessTTL)
	authService := auth.New(log, storage.Users, mailer, issuer, taskExecutor)
	if cfg.Tokens.HashCost > 0 {
		authService.HashCost = cfg.Tokens.HashCost
	}
	return &Services{
		Auth:       authService,
		Users:      users.New(log, storage.Users, perms),
		Categories: categories.New(log, storage.Categories, perms, permissions.KindCategory),
		Genres:     categories.New(log, storage.Genres, perms, permissions.KindGenre),
		Titles:     titles.New(log, storage.Titles, storage.Categories, storage.Genres, perms),
		Reviews:    reviews.New(log, storage.Reviews, storage.Titles, perms),
		Comments:   comments.New(log, storage.Comments, storage.Reviews, perms),
		Perms:      perms,
	}
}
