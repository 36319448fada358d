package domain

import "time"

// Load run status constants.
const (
	LoadRunStatusPending = "PENDING"
	LoadRunStatusRunning = "RUNNING"
	LoadRunStatusSuccess = "SUCCESS"
	LoadRunStatusFailed  = "FAILED"

	TriggerTypeManual    = "MANUAL"
	TriggerTypeScheduled = "SCHEDULED"
)

// LoadRun represents one execution of the load pipeline for a dataset.
type LoadRun struct {
	ID            string
	DatasetID     string
	DatasetName   string
	Status        string
	TriggerType   string
	TriggeredBy   string
	ImageSize     int
	ImagesSeen    int64
	ImagesLoaded  int64
	ImagesSkipped int64
	StartedAt     *time.Time
	FinishedAt    *time.Time
	ErrorMessage  *string
	CreatedAt     time.Time
}

// LoadRunFilter holds filter parameters for querying load runs.
type LoadRunFilter struct {
	DatasetID *string
	Status    *string
	Page      PageRequest
}
