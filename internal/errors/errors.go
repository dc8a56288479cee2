package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/IbnuJabir/AuralFlowAI/internal/domain"
)

var (
	ErrConfigNotFound = errors.New("configuration file not found")
	ErrTaskNotFound   = errors.New("task not found")
	ErrTaskFailed     = errors.New("task failed")
	ErrInvalidUpload  = errors.New("invalid upload request")
	ErrNoResult       = errors.New("task has no result to download")
	ErrUnsafeURL      = errors.New("unsafe result url")
)

// DefaultTaskFailureMessage is used when a failed task carries no error_message.
const DefaultTaskFailureMessage = "Task failed"

// TaskFailedError is returned when the collaborator reports the failure status.
// Error returns the collaborator's description verbatim.
type TaskFailedError struct {
	TaskID  string
	Message string
	Status  *domain.TaskStatus
}

// NewTaskFailedError builds the rejection for a failed snapshot.
func NewTaskFailedError(status *domain.TaskStatus) *TaskFailedError {
	msg := DefaultTaskFailureMessage
	if status.ErrorMessage != nil && *status.ErrorMessage != "" {
		msg = *status.ErrorMessage
	}
	return &TaskFailedError{TaskID: status.TaskID, Message: msg, Status: status}
}

func (e *TaskFailedError) Error() string {
	return e.Message
}

func (e *TaskFailedError) Is(target error) bool {
	return target == ErrTaskFailed
}

// APIError is a non-2xx response from the remote collaborator.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("remote api: %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrTaskNotFound && e.StatusCode == http.StatusNotFound
}
