package main

import (
	"net/http"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/permissions"
	"yamdb/proj/internal/services/categories"
	"yamdb/proj/internal/services/titles"

	"github.com/go-chi/chi/v5"
)

type slugRequest struct {
	Name *string `json:"name" validate:"omitempty,max=256"`
	Slug *string `json:"slug" validate:"omitempty,max=50,slug"`
}

// slugRoutes mounts the dictionary endpoints shared by categories and genres.
// listKey names the collection in list responses, itemKey a single object.
func (app *Application) slugRoutes(svc *categories.CategoryService, kind permissions.Kind, listKey, itemKey string) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			var query struct {
				filters.Filters
				filters.Search
			}
			if !app.decodeQuery(w, r, &query) {
				return
			}
			items, total, err := svc.List(r.Context(), query.Query, query.Filters)
			if err != nil {
				app.Http.Error(w, r, err)
				return
			}
			app.Http.Ok(w, r, listEnvelop(listKey, items, query.Filters, total), "")
		})
		r.Post("/", app.requirePermission(kind, func(w http.ResponseWriter, r *http.Request) {
			var req slugRequest
			if !app.decodeBody(w, r, &req) {
				return
			}
			var name, slug string
			if req.Name != nil {
				name = *req.Name
			}
			if req.Slug != nil {
				slug = *req.Slug
			}
			item, err := svc.Create(r.Context(), contextGetUser(r), name, slug)
			if err != nil {
				app.Http.Error(w, r, err)
				return
			}
			app.Http.Created(w, r, envelop{itemKey: item}, "")
		}))
		r.Get("/{slug}", func(w http.ResponseWriter, r *http.Request) {
			item, err := svc.Get(r.Context(), chi.URLParam(r, "slug"))
			if err != nil {
				app.Http.Error(w, r, err)
				return
			}
			app.Http.Ok(w, r, envelop{itemKey: item}, "")
		})
		r.Patch("/{slug}", func(w http.ResponseWriter, r *http.Request) {
			var req slugRequest
			if !app.decodeBody(w, r, &req) {
				return
			}
			item, err := svc.Update(r.Context(), contextGetUser(r), chi.URLParam(r, "slug"), req.Name, req.Slug)
			if err != nil {
				app.Http.Error(w, r, err)
				return
			}
			app.Http.Ok(w, r, envelop{itemKey: item}, "")
		})
		r.Delete("/{slug}", func(w http.ResponseWriter, r *http.Request) {
			if err := svc.Delete(r.Context(), contextGetUser(r), chi.URLParam(r, "slug")); err != nil {
				app.Http.Error(w, r, err)
				return
			}
			app.Http.NoContent(w, r)
		})
	}
}

type titleRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=256"`
	Year        *int     `json:"year" validate:"omitempty,notfutureyear"`
	Description *string  `json:"description"`
	Category    *string  `json:"category" validate:"omitempty,max=50"`
	Genre       []string `json:"genre" validate:"omitempty,dive,slug"`
}

func (req titleRequest) params() titles.WriteParams {
	return titles.WriteParams{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		Category:    req.Category,
		Genres:      req.Genre,
	}
}

func (app *Application) listTitles(w http.ResponseWriter, r *http.Request) {
	var query struct {
		filters.Filters
		filters.TitleFilter
	}
	if !app.decodeQuery(w, r, &query) {
		return
	}
	list, total, err := app.Services.Titles.List(r.Context(), query.TitleFilter, query.Filters)
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Ok(w, r, listEnvelop("titles", list, query.Filters, total), "")
}

func (app *Application) getTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	title, err := app.Services.Titles.Get(r.Context(), id)
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"title": title}, "")
}

func (app *Application) createTitle(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if !app.decodeBody(w, r, &req) {
		return
	}
	title, err := app.Services.Titles.Create(r.Context(), contextGetUser(r), req.params())
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"title": title}, "")
}

func (app *Application) updateTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	var req titleRequest
	if !app.decodeBody(w, r, &req) {
		return
	}
	title, err := app.Services.Titles.Update(r.Context(), contextGetUser(r), id, req.params())
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"title": title}, "")
}

func (app *Application) deleteTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	if err := app.Services.Titles.Delete(r.Context(), contextGetUser(r), id); err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}
