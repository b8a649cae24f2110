package models

import "yamdb/proj/internal/storage/postgres"

type Models struct {
	Users      *UserModel
	Categories *SlugModel
	Genres     *SlugModel
	Titles     *TitleModel
	Reviews    *ReviewModel
	Comments   *CommentModel
}

func New(db *postgres.Storage) *Models {
	return &Models{
		Users:      &UserModel{db.Conn},
		Categories: NewSlugModel(db.Conn, "categories"),
		Genres:     NewSlugModel(db.Conn, "genres"),
		Titles:     &TitleModel{db.Conn},
		Reviews:    &ReviewModel{db.Conn},
		Comments:   &CommentModel{db.Conn},
	}
}
