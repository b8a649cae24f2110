package main

import (
	"log/slog"

	"yamdb/proj/internal/api/tasks"
	"yamdb/proj/internal/config"
	"yamdb/proj/internal/lib/validator"
	"yamdb/proj/internal/services"
	"yamdb/proj/internal/services/auth"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

type Application struct {
	cfg       *config.Config
	log       *slog.Logger
	Http      *Http
	Services  *services.Services
	validator *govalidator.Validate
	decoder   *schema.Decoder
	tasks     *tasks.BackgroundTasks
}

func NewApplication(
	cfg *config.Config,
	log *slog.Logger,
	storage services.Storage,
	mailer auth.MailProvider,
	bgTasks *tasks.BackgroundTasks,
) *Application {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Application{
		cfg:       cfg,
		log:       log,
		Services:  services.New(log, cfg, storage, mailer, bgTasks),
		validator: validator.New(),
		decoder:   decoder,
		tasks:     bgTasks,
		Http: &Http{
			log: log,
			cfg: cfg,
		},
	}
}
