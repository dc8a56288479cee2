package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/IbnuJabir/AuralFlowAI/internal/domain"
	errpkg "github.com/IbnuJabir/AuralFlowAI/internal/errors"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 64 * 1024
)

// Config is the remote api location and per-request deadline.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the remote voice processing api.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client for cfg. A zero Timeout falls back to 30 seconds.
func New(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Submit sends req as a single multipart POST /voice/voice-clone.
func (c *Client) Submit(ctx context.Context, req *domain.UploadRequest) (*domain.SubmitResponse, error) {
	body, contentType, err := encodeUpload(req)
	if err != nil {
		return nil, fmt.Errorf("encode upload: %w", err)
	}

	var resp domain.SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/voice/voice-clone", body, contentType, &resp); err != nil {
		return nil, err
	}

	c.logger.Info("upload submitted",
		"type", req.Type,
		"source", req.Source,
		"task_id", resp.TaskID,
	)
	return &resp, nil
}

// Status fetches the current snapshot of a task.
func (c *Client) Status(ctx context.Context, taskID string) (*domain.TaskStatus, error) {
	var status domain.TaskStatus
	if err := c.do(ctx, http.MethodGet, "/voice/status/"+url.PathEscape(taskID), nil, "", &status); err != nil {
		return nil, err
	}
	if status.TaskID == "" {
		status.TaskID = taskID
	}
	return &status, nil
}

// Cancel asks the remote api to revoke a task.
func (c *Client) Cancel(ctx context.Context, taskID string) (*domain.CancelResponse, error) {
	var resp domain.CancelResponse
	if err := c.do(ctx, http.MethodDelete, "/voice/task/"+url.PathEscape(taskID), nil, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SupportedFormats lists the accepted media extensions and languages.
func (c *Client) SupportedFormats(ctx context.Context) (*domain.SupportedFormats, error) {
	var formats domain.SupportedFormats
	if err := c.do(ctx, http.MethodGet, "/voice/supported-formats", nil, "", &formats); err != nil {
		return nil, err
	}
	return &formats, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("remote api request failed",
			"method", method,
			"path", path,
			"request_id", requestID,
			"error", err,
		)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := readAPIError(resp)
		c.logger.Warn("remote api returned error",
			"method", method,
			"path", path,
			"request_id", requestID,
			"status", resp.StatusCode,
			"message", apiErr.Message,
		)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// readAPIError keeps the collaborator's payload. FastAPI reports errors as
// {"detail": "..."}; anything else is kept as the raw body.
func readAPIError(resp *http.Response) *errpkg.APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &errpkg.APIError{StatusCode: resp.StatusCode, Body: data}

	var payload struct {
		Detail  interface{} `json:"detail"`
		Message string      `json:"message"`
		Error   string      `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		switch d := payload.Detail.(type) {
		case string:
			apiErr.Message = d
		case nil:
		default:
			if b, err := json.Marshal(d); err == nil {
				apiErr.Message = string(b)
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = payload.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

func encodeUpload(req *domain.UploadRequest) (*bytes.Buffer, string, error) {
	if req == nil {
		return nil, "", fmt.Errorf("%w: request is nil", errpkg.ErrInvalidUpload)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("type", string(req.Type)); err != nil {
		return nil, "", err
	}

	switch req.Type {
	case domain.UploadTypeFile:
		part, err := w.CreateFormFile("file", req.FileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(req.Content); err != nil {
			return nil, "", err
		}
	case domain.UploadTypeLink:
		if err := w.WriteField("link", req.Link); err != nil {
			return nil, "", err
		}
	default:
		return nil, "", fmt.Errorf("%w: unknown type %q", errpkg.ErrInvalidUpload, req.Type)
	}

	if err := w.WriteField("source", string(req.Source)); err != nil {
		return nil, "", err
	}

	if req.TargetLanguage != "" {
		if err := w.WriteField("target_language", req.TargetLanguage); err != nil {
			return nil, "", err
		}
	}

	if req.VoiceSettings != nil {
		settings, err := json.Marshal(req.VoiceSettings)
		if err != nil {
			return nil, "", fmt.Errorf("marshal voice settings: %w", err)
		}
		if err := w.WriteField("voice_settings", string(settings)); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
