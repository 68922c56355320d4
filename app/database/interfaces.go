package database

type ViewRepository interface {
	RecordView(slug string, succeeded bool) error
	GetViewStats() ([]PostViewStats, error)
	GetTotalViews() (int, error)
}
