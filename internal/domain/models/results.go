package models

// SweepResult summarizes one dispatcher run.
type SweepResult struct {
	RemindersCreated  map[ReminderType]int `json:"reminders_created"`
	NotificationsSent int                  `json:"notifications_sent"`
	Failures          int                  `json:"failures"`
}

// TaskResult captures the outcome of one bootstrap step.
type TaskResult struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

// BootstrapResult aggregates the per-task outcomes of the creation bootstrap.
// A failed task never aborts its siblings; callers inspect Failed instead.
type BootstrapResult struct {
	Tasks []TaskResult `json:"tasks"`
}

// Failed returns the tasks that ended in error.
func (r BootstrapResult) Failed() []TaskResult {
	var failed []TaskResult
	for _, t := range r.Tasks {
		if t.Err != nil {
			failed = append(failed, t)
		}
	}
	return failed
}
