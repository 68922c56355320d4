package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/folio/app/blog"
	"github.com/lysyi3m/folio/app/cfg"
	"github.com/lysyi3m/folio/app/content"
	"github.com/lysyi3m/folio/app/database"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	registry      *blog.Registry
	registryFile  string
	registryState *RegistryState
	store         content.Store
	viewRepo      database.ViewRepository
	interval      time.Duration
	workerCount   int
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	taskQueue     chan TaskInterface
}

// NewScheduler takes its interval, worker count and registry file from cfg.
// viewRepo may be nil, in which case views are not recorded.
func NewScheduler(registry *blog.Registry, store content.Store, viewRepo database.ViewRepository) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	interval := time.Duration(cfg.SchedulerInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	return &Scheduler{
		registry:      registry,
		registryFile:  cfg.RegistryFile,
		registryState: &RegistryState{},
		store:         store,
		viewRepo:      viewRepo,
		interval:      interval,
		workerCount:   max(cfg.WorkerCount, 1),
		ctx:           ctx,
		cancel:        cancel,
		taskQueue:     make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// ReloadRegistry queues a forced registry reload regardless of the file's mtime.
func (s *Scheduler) ReloadRegistry() error {
	if s.registryFile == "" {
		return fmt.Errorf("no registry file configured")
	}
	return s.EnqueueTask(NewSyncRegistryTask(s.registryFile, s.registry, s.registryState, true))
}

func (s *Scheduler) RecordView(slug string, succeeded bool) {
	if s.viewRepo == nil {
		return
	}
	if err := s.EnqueueTask(NewRecordViewTask(slug, succeeded, s.viewRepo)); err != nil {
		slog.Warn("Failed to enqueue RecordViewTask", "slug", slug, "error", err)
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	s.enqueueTasks()

	if s.store == nil {
		return
	}

	slog.Debug("Checking registered posts against content store", "count", s.registry.Count())

	if err := s.EnqueueTask(NewCheckContentTask(s.registry, s.store)); err != nil {
		slog.Warn("Failed to enqueue CheckContentTask", "error", err)
	}
}

func (s *Scheduler) enqueueTasks() {
	if s.registryFile == "" {
		slog.Debug("No registry file configured, skipping sync")
		return
	}

	syncTask := NewSyncRegistryTask(s.registryFile, s.registry, s.registryState, false)
	if err := s.EnqueueTask(syncTask); err != nil {
		slog.Warn("Failed to enqueue SyncRegistryTask", "file", s.registryFile, "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "target", task.GetTarget(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()

				timer := time.NewTimer(retryDelay)
				defer timer.Stop()

				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
				case <-timer.C:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
