package models

type CropRecommendation struct {
	Crop         string `json:"crop"`
	Season       string `json:"season"`
	MatchPercent int    `json:"matchPercent"`
}

// TaskStatus is the badge shown next to a fertilizer task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskScheduled TaskStatus = "scheduled"
	TaskCompleted TaskStatus = "completed"
)

type FertilizerTask struct {
	Name   string     `json:"name"`
	Timing string     `json:"timing"`
	Status TaskStatus `json:"status"`
}
