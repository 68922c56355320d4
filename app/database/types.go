package database

import (
	"time"
)

type PostViewStats struct {
	Slug       string
	Views      int
	Failures   int
	LastViewed time.Time
}
