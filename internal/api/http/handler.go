package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/IbnuJabir/AuralFlowAI/internal/domain"
	errpkg "github.com/IbnuJabir/AuralFlowAI/internal/errors"
	"github.com/IbnuJabir/AuralFlowAI/internal/poller"
	"github.com/IbnuJabir/AuralFlowAI/internal/validation"
)

const multipartMemory = 32 << 20

// VoiceServiceI defines the operations the upload form backend relies on.
type VoiceServiceI interface {
	Submit(ctx context.Context, req *domain.UploadRequest) (*domain.SubmitResponse, error)
	Status(ctx context.Context, taskID string) (*domain.TaskStatus, error)
	Wait(ctx context.Context, taskID string, observer poller.Observer, interval time.Duration) (*domain.TaskStatus, error)
	Cancel(ctx context.Context, taskID string) (*domain.CancelResponse, error)
	SupportedFormats(ctx context.Context) (*domain.SupportedFormats, error)
	ValidateLink(raw string) domain.LinkValidation
}

// VoiceHandler handles HTTP requests from the upload form.
type VoiceHandler struct {
	service       VoiceServiceI
	validator     *validator.Validate
	maxUploadSize int64
	logger        *slog.Logger
}

// NewVoiceHandler creates a new VoiceHandler with the provided service and logger.
func NewVoiceHandler(service VoiceServiceI, maxUploadSize int64, logger *slog.Logger) *VoiceHandler {
	return &VoiceHandler{
		service:       service,
		validator:     validator.New(),
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// CreateUpload handles POST /api/uploads with a multipart form.
func (h *VoiceHandler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.logger.Warn("failed to parse upload form", "error", err)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	var req *domain.UploadRequest
	switch domain.UploadType(r.FormValue("type")) {
	case domain.UploadTypeFile:
		fileReq, status, msg := h.readFileUpload(r)
		if fileReq == nil {
			writeError(w, status, msg)
			return
		}
		req = fileReq
	case domain.UploadTypeLink:
		result := h.service.ValidateLink(r.FormValue("link"))
		if !result.IsValid {
			writeError(w, http.StatusBadRequest, result.Error)
			return
		}
		req = domain.NewLinkUpload(r.FormValue("link"), result.Platform)
	default:
		writeError(w, http.StatusBadRequest, "type must be either 'file' or 'link'")
		return
	}

	req.TargetLanguage = r.FormValue("target_language")
	if raw := r.FormValue("voice_settings"); raw != "" {
		var settings map[string]any
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			writeError(w, http.StatusBadRequest, "voice_settings must be a JSON object")
			return
		}
		req.VoiceSettings = settings
	}

	resp, err := h.service.Submit(ctx, req)
	if err != nil {
		h.logger.Error("failed to submit upload", "type", req.Type, "error", err)
		writeServiceError(w, err)
		return
	}

	if !resp.Success {
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	h.logger.Info("upload submitted", "task_id", resp.TaskID, "type", req.Type, "source", req.Source)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *VoiceHandler) readFileUpload(r *http.Request) (*domain.UploadRequest, int, string) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, "file is required when type is 'file'"
	}
	defer file.Close()

	formats, err := h.service.SupportedFormats(r.Context())
	if err != nil {
		h.logger.Warn("supported formats unavailable, using defaults", "error", err)
		formats = &validation.DefaultSupportedFormats
	}

	if err := validation.ValidateFile(header.Filename, header.Size, formats, h.maxUploadSize); err != nil {
		return nil, http.StatusBadRequest, err.Error()
	}

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("failed to read uploaded file", "file", header.Filename, "error", err)
		return nil, http.StatusBadRequest, "failed to read file"
	}

	return domain.NewFileUpload(header.Filename, content), 0, ""
}

// GetTask handles GET /api/tasks/{taskID}.
func (h *VoiceHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if taskID == "" {
		writeError(w, http.StatusBadRequest, "task id is required")
		return
	}

	status, err := h.service.Status(r.Context(), taskID)
	if err != nil {
		h.logger.Error("failed to get task status", "task_id", taskID, "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// WaitTask handles GET /api/tasks/{taskID}/wait. It holds the request open
// until the task is terminal; an optional ?interval= overrides the poll interval.
func (h *VoiceHandler) WaitTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	var interval time.Duration
	if raw := r.URL.Query().Get("interval"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "invalid interval")
			return
		}
		interval = d
	}

	status, err := h.service.Wait(r.Context(), taskID, func(attempt int, s *domain.TaskStatus) {
		h.logger.Debug("wait progress", "task_id", taskID, "attempt", attempt, "status", s.Status)
	}, interval)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// CancelTask handles DELETE /api/tasks/{taskID}.
func (h *VoiceHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	resp, err := h.service.Cancel(r.Context(), taskID)
	if err != nil {
		h.logger.Error("failed to cancel task", "task_id", taskID, "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ValidateLink handles POST /api/links/validate.
func (h *VoiceHandler) ValidateLink(w http.ResponseWriter, r *http.Request) {
	var req domain.ValidateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("validation failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.service.ValidateLink(req.URL))
}

// SupportedFormats handles GET /api/supported-formats.
func (h *VoiceHandler) SupportedFormats(w http.ResponseWriter, r *http.Request) {
	formats, err := h.service.SupportedFormats(r.Context())
	if err != nil {
		h.logger.Error("failed to get supported formats", "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, formats)
}

type taskFailedResponse struct {
	Error string             `json:"error"`
	Task  *domain.TaskStatus `json:"task"`
}

func writeServiceError(w http.ResponseWriter, err error) {
	var (
		failErr *errpkg.TaskFailedError
		apiErr  *errpkg.APIError
	)

	switch {
	case errors.As(err, &failErr):
		writeJSON(w, http.StatusUnprocessableEntity, taskFailedResponse{Error: failErr.Message, Task: failErr.Status})
	case errors.Is(err, errpkg.ErrInvalidUpload):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &apiErr):
		status := apiErr.StatusCode
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		writeError(w, status, apiErr.Message)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timed out waiting for remote api")
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		writeError(w, http.StatusBadGateway, "remote api unavailable")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
