package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lysyi3m/folio/app/blog"
)

// RegistryState remembers the registry file's modification time between runs.
type RegistryState struct {
	mu      sync.Mutex
	modTime time.Time
}

type SyncRegistryTask struct {
	Task
	registry *blog.Registry
	state    *RegistryState
	force    bool
}

func NewSyncRegistryTask(path string, registry *blog.Registry, state *RegistryState, force bool) *SyncRegistryTask {
	if state == nil {
		state = &RegistryState{}
	}
	return &SyncRegistryTask{
		Task:     NewTask(TaskTypeSyncRegistry, path),
		registry: registry,
		state:    state,
		force:    force,
	}
}

func (t *SyncRegistryTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	info, err := os.Stat(t.Target)
	if err != nil {
		return fmt.Errorf("failed to stat registry file: %w", err)
	}

	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	if !t.force && info.ModTime().Equal(t.state.modTime) {
		slog.Debug("Registry unchanged, skipping reload", "file", t.Target)
		return nil
	}

	posts, err := blog.ReadRegistryFile(t.Target)
	if err != nil {
		return fmt.Errorf("failed to read registry: %w", err)
	}

	if err := t.registry.Replace(posts); err != nil {
		// A broken edit should not be retried until the file changes again
		t.state.modTime = info.ModTime()
		slog.Error("Registry rejected, keeping previous posts", "file", t.Target, "error", err)
		return nil
	}

	t.state.modTime = info.ModTime()

	slog.Info("Task completed",
		"type", t.GetType(),
		"file", t.Target,
		"duration", t.GetDuration(),
		"posts", t.registry.Count())

	return nil
}
