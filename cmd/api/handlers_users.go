package main

import (
	"net/http"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/services/users"

	"github.com/go-chi/chi/v5"
)

type userRequest struct {
	Username  *string      `json:"username" validate:"omitempty,max=150,username"`
	Email     *string      `json:"email" validate:"omitempty,max=254,email"`
	FirstName *string      `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string      `json:"last_name" validate:"omitempty,max=150"`
	Bio       *string      `json:"bio"`
	Role      *models.Role `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

func (req userRequest) params() users.Params {
	return users.Params{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	}
}

func (app *Application) listUsers(w http.ResponseWriter, r *http.Request) {
	var query struct {
		filters.Filters
		filters.Search
	}
	if !app.decodeQuery(w, r, &query) {
		return
	}
	list, total, err := app.Services.Users.List(r.Context(), contextGetUser(r), query.Query, query.Filters)
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Ok(w, r, listEnvelop("users", list, query.Filters, total), "")
}

func (app *Application) createUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !app.decodeBody(w, r, &req) {
		return
	}
	user, err := app.Services.Users.Create(r.Context(), contextGetUser(r), req.params())
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"user": user}, "")
}

func (app *Application) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := app.Services.Users.Get(r.Context(), contextGetUser(r), chi.URLParam(r, "username"))
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"user": user}, "")
}

func (app *Application) updateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !app.decodeBody(w, r, &req) {
		return
	}
	user, err := app.Services.Users.Update(r.Context(), contextGetUser(r), chi.URLParam(r, "username"), req.params())
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"user": user}, "")
}

func (app *Application) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := app.Services.Users.Delete(r.Context(), contextGetUser(r), chi.URLParam(r, "username")); err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

func (app *Application) getMe(w http.ResponseWriter, r *http.Request) {
	user, err := app.Services.Users.Me(r.Context(), contextGetUser(r))
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"user": user}, "")
}

func (app *Application) updateMe(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !app.decodeBody(w, r, &req) {
		return
	}
	user, err := app.Services.Users.UpdateMe(r.Context(), contextGetUser(r), req.params())
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"user": user}, "")
}
