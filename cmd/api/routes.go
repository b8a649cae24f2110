package main

import (
	"net/http"

	"yamdb/proj/internal/permissions"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *Application) routes() http.Handler {
	router := chi.NewRouter()
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.Http.NotFound(w, r, "Page not found")
	})
	router.MethodNotAllowed(app.Http.MethodNotAllowed)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(app.Recoverer)
	router.Use(app.Metrics)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(app.RateLimiter)
	router.Get("/healthcheck", app.healthcheck)
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(app.Authenticate)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", app.signup)
			r.Post("/token", app.issueToken)
		})
		r.Route("/users", func(r chi.Router) {
			r.Get("/", app.listUsers)
			r.Post("/", app.requirePermission(permissions.KindUsers, app.createUser))
			r.Get("/me", app.getMe)
			r.Patch("/me", app.updateMe)
			r.Get("/{username}", app.getUser)
			r.Patch("/{username}", app.updateUser)
			r.Delete("/{username}", app.deleteUser)
		})
		r.Route("/categories", app.slugRoutes(app.Services.Categories, permissions.KindCategory, "categories", "category"))
		r.Route("/genres", app.slugRoutes(app.Services.Genres, permissions.KindGenre, "genres", "genre"))
		r.Route("/titles", func(r chi.Router) {
			r.Get("/", app.listTitles)
			r.Post("/", app.requirePermission(permissions.KindTitle, app.createTitle))
			r.Route("/{title_id}", func(r chi.Router) {
				r.Get("/", app.getTitle)
				r.Patch("/", app.updateTitle)
				r.Delete("/", app.deleteTitle)
				r.Route("/reviews", func(r chi.Router) {
					r.Get("/", app.listReviews)
					r.Post("/", app.requirePermission(permissions.KindReview, app.createReview))
					r.Route("/{review_id}", func(r chi.Router) {
						r.Get("/", app.getReview)
						r.Patch("/", app.updateReview)
						r.Delete("/", app.deleteReview)
						r.Route("/comments", func(r chi.Router) {
							r.Get("/", app.listComments)
							r.Post("/", app.requirePermission(permissions.KindComment, app.createComment))
							r.Get("/{comment_id}", app.getComment)
							r.Patch("/{comment_id}", app.updateComment)
							r.Delete("/{comment_id}", app.deleteComment)
						})
					})
				})
			})
		})
	})
	return router
}
