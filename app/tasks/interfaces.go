package tasks

// TaskSchedulerInterface is what the HTTP layer and main use to drive background work.
//
//	scheduler := NewScheduler(registry, store, viewRepo)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.RecordView("welcome-to-my-blog", true)
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	ReloadRegistry() error
	RecordView(slug string, succeeded bool)
}
