package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/lysyi3m/folio/app/blog"
)

// DisplayMessage is the only detail of a failed load shown to readers.
const DisplayMessage = "Failed to load post."

var ErrNotFound = errors.New("content not found")

// Store retrieves raw post content by registry filename.
type Store interface {
	Fetch(ctx context.Context, filename string) ([]byte, error)
}

// RenderedPost is produced fresh by every Load.
type RenderedPost struct {
	Post blog.Post
	HTML string
}

type LoadError struct {
	Filename string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Filename, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
