package main

import (
	"net/http"

	"yamdb/proj/internal/domain/filters"
)

type reviewCreateRequest struct {
	Text  string `json:"text" validate:"required"`
	Score int    `json:"score" validate:"required,min=1,max=10"`
}

type reviewUpdateRequest struct {
	Text  *string `json:"text" validate:"omitempty,min=1"`
	Score *int    `json:"score" validate:"omitempty,min=1,max=10"`
}

type commentRequest struct {
	Text *string `json:"text" validate:"required"`
}

// reviewPath extracts the title and review ids of a nested route.
func (app *Application) reviewPath(w http.ResponseWriter, r *http.Request) (titleID, reviewID int64, ok bool) {
	if titleID, ok = app.extractIDParam(w, r, "title_id"); !ok {
		return
	}
	reviewID, ok = app.extractIDParam(w, r, "review_id")
	return
}

func (app *Application) listReviews(w http.ResponseWriter, r *http.Request) {
	titleID, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	var f filters.Filters
	if !app.decodeQuery(w, r, &f) {
		return
	}
	list, total, err := app.Services.Reviews.List(r.Context(), titleID, f)
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Ok(w, r, listEnvelop("reviews", list, f, total), "")
}

func (app *Application) createReview(w http.ResponseWriter, r *http.Request) {
	titleID, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	var req reviewCreateRequest
	if !app.decodeBody(w, r, &req) {
		return
	}
	review, err := app.Services.Reviews.Create(r.Context(), contextGetUser(r), titleID, req.Text, req.Score)
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"review": review}, "")
}

func (app *Application) getReview(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	review, err := app.Services.Reviews.Get(r.Context(), titleID, reviewID)
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"review": review}, "")
}

func (app *Application) updateReview(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	var req reviewUpdateRequest
	if !app.decodeBody(w, r, &req) {
		return
	}
	review, err := app.Services.Reviews.Update(r.Context(), contextGetUser(r), titleID, reviewID, req.Text, req.Score)
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"review": review}, "")
}

func (app *Application) deleteReview(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	if err := app.Services.Reviews.Delete(r.Context(), contextGetUser(r), titleID, reviewID); err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

func (app *Application) listComments(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	var f filters.Filters
	if !app.decodeQuery(w, r, &f) {
		return
	}
	list, total, err := app.Services.Comments.List(r.Context(), titleID, reviewID, f)
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Ok(w, r, listEnvelop("comments", list, f, total), "")
}

func (app *Application) createComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !app.decodeBody(w, r, &req) {
		return
	}
	comment, err := app.Services.Comments.Create(r.Context(), contextGetUser(r), titleID, reviewID, *req.Text)
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"comment": comment}, "")
}

func (app *Application) getComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	id, ok := app.extractIDParam(w, r, "comment_id")
	if !ok {
		return
	}
	comment, err := app.Services.Comments.Get(r.Context(), titleID, reviewID, id)
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"comment": comment}, "")
}

func (app *Application) updateComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	id, ok := app.extractIDParam(w, r, "comment_id")
	if !ok {
		return
	}
	var req commentRequest
	if !app.decodeBody(w, r, &req) {
		return
	}
	comment, err := app.Services.Comments.Update(r.Context(), contextGetUser(r), titleID, reviewID, id, req.Text)
	if err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"comment": comment}, "")
}

func (app *Application) deleteComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.reviewPath(w, r)
	if !ok {
		return
	}
	id, ok := app.extractIDParam(w, r, "comment_id")
	if !ok {
		return
	}
	if err := app.Services.Comments.Delete(r.Context(), contextGetUser(r), titleID, reviewID, id); err != nil {
		app.Http.Error(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}
