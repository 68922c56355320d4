package tasks

import (
	"context"
	"log/slog"

	"github.com/lysyi3m/folio/app/blog"
	"github.com/lysyi3m/folio/app/content"
)

// CheckContentTask verifies every registered post can be fetched from the store.
type CheckContentTask struct {
	Task
	registry *blog.Registry
	store    content.Store
	missing  []string
}

func NewCheckContentTask(registry *blog.Registry, store content.Store) *CheckContentTask {
	return &CheckContentTask{
		Task:     NewTask(TaskTypeCheckContent, "registry"),
		registry: registry,
		store:    store,
	}
}

func (t *CheckContentTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.missing = t.missing[:0]

	for _, post := range t.registry.Posts() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := t.store.Fetch(ctx, post.Filename); err != nil {
			slog.Warn("Registered post is not reachable in content store", "filename", post.Filename, "error", err)
			t.missing = append(t.missing, post.Filename)
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"posts", t.registry.Count(),
		"missing", len(t.missing))

	return nil
}

// Missing lists the filenames that failed in the last run.
func (t *CheckContentTask) Missing() []string {
	return append([]string(nil), t.missing...)
}
