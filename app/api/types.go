package api

import (
	"html/template"

	"github.com/lysyi3m/folio/app/blog"
	"github.com/lysyi3m/folio/app/database"
	"github.com/lysyi3m/folio/app/feed"
	"github.com/lysyi3m/folio/app/nav"
	"github.com/lysyi3m/folio/app/tasks"
)

type GeneratorInterface interface {
	Run(posts []blog.Post) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type Handler struct {
	registry  *blog.Registry
	loader    nav.PostLoader
	generator GeneratorInterface
	viewRepo  database.ViewRepository
	scheduler tasks.TaskSchedulerInterface
	page      *template.Template
	siteTitle string
}

type postSummary struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Filename    string `json:"filename"`
	Date        string `json:"date"`
	DisplayDate string `json:"display_date"`
	Description string `json:"description"`
}

func newPostSummary(post blog.Post) postSummary {
	return postSummary{
		Slug:        post.Slug(),
		Title:       post.Title,
		Filename:    post.Filename,
		Date:        post.Date,
		DisplayDate: post.DisplayDate(),
		Description: post.Description,
	}
}
