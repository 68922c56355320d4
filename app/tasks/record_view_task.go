package tasks

import (
	"context"
	"fmt"

	"github.com/lysyi3m/folio/app/database"
)

type RecordViewTask struct {
	Task
	succeeded bool
	viewRepo  database.ViewRepository
}

func NewRecordViewTask(slug string, succeeded bool, viewRepo database.ViewRepository) *RecordViewTask {
	return &RecordViewTask{
		Task:      NewTask(TaskTypeRecordView, slug),
		succeeded: succeeded,
		viewRepo:  viewRepo,
	}
}

func (t *RecordViewTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.viewRepo.RecordView(t.Target, t.succeeded); err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}

	return nil
}
