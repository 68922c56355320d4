package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/folio/app/blog"
	"github.com/lysyi3m/folio/app/cfg"
	"github.com/lysyi3m/folio/app/content"
	"github.com/lysyi3m/folio/app/database"
)

type mockStore struct {
	files map[string]string
}

func (m *mockStore) Fetch(ctx context.Context, filename string) ([]byte, error) {
	body, ok := m.files[filename]
	if !ok {
		return nil, content.ErrNotFound
	}
	return []byte(body), nil
}

type viewRecord struct {
	slug      string
	succeeded bool
}

type mockViewRepository struct {
	mu      sync.Mutex
	views   []viewRecord
	err     error
	written chan struct{}
}

func (m *mockViewRepository) RecordView(slug string, succeeded bool) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	m.views = append(m.views, viewRecord{slug, succeeded})
	m.mu.Unlock()
	if m.written != nil {
		m.written <- struct{}{}
	}
	return nil
}

func (m *mockViewRepository) GetViewStats() ([]database.PostViewStats, error) {
	return nil, nil
}

func (m *mockViewRepository) GetTotalViews() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.views), nil
}

func writeRegistry(t *testing.T, path, body string, modTime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatal(err)
	}
}

const twoPosts = `posts:
  - title: Welcome
    filename: welcome.md
    date: "2025-08-27"
  - title: Second
    filename: second.md
    date: "2025-08-01"
`

func TestSyncRegistryTaskReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.yml")
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	writeRegistry(t, path, twoPosts, base)

	registry, _ := blog.NewRegistry(nil)
	state := &RegistryState{}

	if err := NewSyncRegistryTask(path, registry, state, false).Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if registry.Count() != 2 {
		t.Fatalf("Expected 2 posts, got %d", registry.Count())
	}

	// Same mtime: contents on disk are ignored
	writeRegistry(t, path, "posts: []\n", base)
	if err := NewSyncRegistryTask(path, registry, state, false).Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if registry.Count() != 2 {
		t.Errorf("Expected unchanged registry to be skipped, got %d posts", registry.Count())
	}

	// Forced reload ignores mtime
	if err := NewSyncRegistryTask(path, registry, state, true).Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if registry.Count() != 0 {
		t.Errorf("Expected forced reload to empty the registry, got %d posts", registry.Count())
	}
}

func TestSyncRegistryTaskKeepsPostsOnInvalidRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.yml")
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	writeRegistry(t, path, twoPosts, base)

	registry, _ := blog.NewRegistry(nil)
	state := &RegistryState{}
	if err := NewSyncRegistryTask(path, registry, state, false).Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	duplicate := `posts:
  - filename: welcome.md
  - filename: welcome.md
`
	writeRegistry(t, path, duplicate, base.Add(time.Minute))

	if err := NewSyncRegistryTask(path, registry, state, false).Execute(context.Background()); err != nil {
		t.Errorf("Rejected registry should not be retried, got error: %v", err)
	}
	if registry.Count() != 2 {
		t.Errorf("Expected previous 2 posts to be kept, got %d", registry.Count())
	}
}

func TestSyncRegistryTaskMissingFile(t *testing.T) {
	registry, _ := blog.NewRegistry(nil)
	task := NewSyncRegistryTask(filepath.Join(t.TempDir(), "missing.yml"), registry, nil, false)

	if err := task.Execute(context.Background()); err == nil {
		t.Error("Expected error for missing registry file")
	}
	if !task.CanRetry() {
		t.Error("Fresh task should be retryable")
	}
}

func TestCheckContentTaskReportsMissing(t *testing.T) {
	registry, err := blog.NewRegistry([]blog.Post{
		{Filename: "present.md"},
		{Filename: "gone.md"},
	})
	if err != nil {
		t.Fatal(err)
	}
	store := &mockStore{files: map[string]string{"present.md": "# Present"}}

	task := NewCheckContentTask(registry, store)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	missing := task.Missing()
	if len(missing) != 1 || missing[0] != "gone.md" {
		t.Errorf("Expected [gone.md] missing, got %v", missing)
	}
}

func TestRecordViewTask(t *testing.T) {
	repo := &mockViewRepository{}

	if err := NewRecordViewTask("welcome", false, repo).Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(repo.views) != 1 || repo.views[0] != (viewRecord{"welcome", false}) {
		t.Errorf("Unexpected views recorded: %v", repo.views)
	}

	repo.err = errors.New("disk full")
	if err := NewRecordViewTask("welcome", true, repo).Execute(context.Background()); err == nil {
		t.Error("Expected repository error to be returned")
	}
}

func TestTaskRetryAccounting(t *testing.T) {
	task := NewTask(TaskTypeRecordView, "welcome")

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i+1)
		}
		task.IncrementRetryCount()
	}
	if task.CanRetry() {
		t.Error("Expected retries to be exhausted")
	}
	if task.GetDuration() != 0 {
		t.Error("Unstarted task should report zero duration")
	}
}

func TestSchedulerRecordsViews(t *testing.T) {
	if _, err := cfg.LoadArgs([]string{"--registry-file", "", "--worker-count", "1", "--scheduler-interval", "3600"}); err != nil {
		t.Fatal(err)
	}

	registry, _ := blog.NewRegistry(nil)
	repo := &mockViewRepository{written: make(chan struct{}, 1)}

	scheduler := NewScheduler(registry, nil, repo)
	scheduler.Start()
	defer scheduler.Stop()

	scheduler.RecordView("welcome", true)

	select {
	case <-repo.written:
	case <-time.After(5 * time.Second):
		t.Fatal("View was not recorded")
	}

	if total, _ := repo.GetTotalViews(); total != 1 {
		t.Errorf("Expected 1 view, got %d", total)
	}

	if err := scheduler.ReloadRegistry(); err == nil {
		t.Error("Expected reload without registry file to fail")
	}
}

func TestSchedulerRejectsAfterStop(t *testing.T) {
	if _, err := cfg.LoadArgs([]string{"--registry-file", ""}); err != nil {
		t.Fatal(err)
	}

	registry, _ := blog.NewRegistry(nil)
	scheduler := NewScheduler(registry, nil, nil)
	scheduler.Start()
	scheduler.Stop()

	if err := scheduler.EnqueueTask(NewRecordViewTask("x", true, &mockViewRepository{})); err == nil {
		t.Error("Expected enqueue after Stop to fail")
	}
}
