package domain

// Status is the processing state reported by the remote collaborator.
// Values outside the known set are kept as-is and treated as in-flight.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailure    Status = "failure"
)

// IsTerminal reports whether no further state change can follow s.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Known reports whether s is one of the statuses the protocol defines.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusSuccess, StatusFailure:
		return true
	}
	return false
}

// TaskStatus is an immutable snapshot of one submitted job, as returned by
// GET /voice/status/{task_id}.
type TaskStatus struct {
	TaskID              string     `json:"task_id"`
	Status              Status     `json:"status"`
	Progress            *int       `json:"progress,omitempty"`
	ResultURL           *string    `json:"result_url,omitempty"`
	ErrorMessage        *string    `json:"error_message,omitempty"`
	EstimatedCompletion *Timestamp `json:"estimated_completion,omitempty"`
}

// ProgressValue returns the reported progress or 0 when absent.
func (t *TaskStatus) ProgressValue() int {
	if t == nil || t.Progress == nil {
		return 0
	}
	return *t.Progress
}
