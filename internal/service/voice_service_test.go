package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IbnuJabir/AuralFlowAI/internal/client"
	"github.com/IbnuJabir/AuralFlowAI/internal/domain"
	errpkg "github.com/IbnuJabir/AuralFlowAI/internal/errors"
	"github.com/IbnuJabir/AuralFlowAI/internal/poller"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

type mockVoiceAPI struct {
	mu           sync.Mutex
	submitted    []*domain.UploadRequest
	submitResp   *domain.SubmitResponse
	submitErr    error
	formatsCalls int
}

func (m *mockVoiceAPI) Submit(ctx context.Context, req *domain.UploadRequest) (*domain.SubmitResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, req)
	return m.submitResp, m.submitErr
}

func (m *mockVoiceAPI) Status(ctx context.Context, taskID string) (*domain.TaskStatus, error) {
	return &domain.TaskStatus{TaskID: taskID, Status: domain.StatusSuccess}, nil
}

func (m *mockVoiceAPI) Cancel(ctx context.Context, taskID string) (*domain.CancelResponse, error) {
	return &domain.CancelResponse{Success: true, Message: "Task " + taskID + " cancelled successfully"}, nil
}

func (m *mockVoiceAPI) SupportedFormats(ctx context.Context) (*domain.SupportedFormats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.formatsCalls++
	return &domain.SupportedFormats{AudioFormats: []string{".mp3"}}, nil
}

func newMockService(api *mockVoiceAPI) *VoiceService {
	logger := newTestLogger()
	return NewVoiceService(api, poller.New(api, poller.WithLogger(logger)), 0, logger)
}

func TestVoiceService_SubmitValidates(t *testing.T) {
	api := &mockVoiceAPI{submitResp: &domain.SubmitResponse{Success: true, TaskID: "t1"}}
	svc := newMockService(api)

	_, err := svc.Submit(context.Background(), domain.NewFileUpload("clip.mp3", nil))
	assert.True(t, errors.Is(err, errpkg.ErrInvalidUpload))
	assert.Empty(t, api.submitted)

	resp, err := svc.Submit(context.Background(), domain.NewLinkUpload("https://youtu.be/x", domain.SourceYouTube))
	require.NoError(t, err)
	assert.Equal(t, "t1", resp.TaskID)
	assert.Len(t, api.submitted, 1)
}

func TestVoiceService_SubmitPropagatesError(t *testing.T) {
	apiErr := &errpkg.APIError{StatusCode: http.StatusInternalServerError, Message: "Internal server error: disk full"}
	api := &mockVoiceAPI{submitErr: apiErr}
	svc := newMockService(api)

	_, err := svc.Submit(context.Background(), domain.NewLinkUpload("https://vimeo.com/1", domain.SourceVimeo))
	assert.Equal(t, apiErr, err)
}

func TestVoiceService_SubmitNotAccepted(t *testing.T) {
	api := &mockVoiceAPI{submitResp: &domain.SubmitResponse{Success: false, Message: "queue full"}}
	svc := newMockService(api)

	resp, err := svc.Submit(context.Background(), domain.NewLinkUpload("https://vimeo.com/1", domain.SourceVimeo))
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "queue full", resp.Message)
}

func TestVoiceService_SupportedFormatsCached(t *testing.T) {
	api := &mockVoiceAPI{}
	svc := newMockService(api)

	for i := 0; i < 3; i++ {
		formats, err := svc.SupportedFormats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{".mp3"}, formats.AudioFormats)
	}
	assert.Equal(t, 1, api.formatsCalls)
}

func TestVoiceService_CancelAndValidateLink(t *testing.T) {
	svc := newMockService(&mockVoiceAPI{})

	resp, err := svc.Cancel(context.Background(), "t9")
	require.NoError(t, err)
	assert.True(t, resp.Success)

	v := svc.ValidateLink("https://drive.google.com/file/d/1")
	assert.True(t, v.IsValid)
	assert.Equal(t, domain.SourceGoogleDrive, v.Platform)
}

// fakeCollaborator serves the remote api and walks each task through statuses.
type fakeCollaborator struct {
	mu       sync.Mutex
	statuses []string
	polls    int
}

func (f *fakeCollaborator) Polls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func (f *fakeCollaborator) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /voice/voice-clone", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, `{"detail":"bad form"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"message":"Voice cloning request submitted successfully","task_id":"task-42","status":"submitted"}`)
	})
	mux.HandleFunc("GET /voice/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		i := f.polls
		if i >= len(f.statuses) {
			i = len(f.statuses) - 1
		}
		f.polls++
		status := f.statuses[i]
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch status {
		case "success":
			_, _ = io.WriteString(w, `{"task_id":"`+r.PathValue("id")+`","status":"success","progress":100,"result_url":"uploads/voice/out.wav"}`)
		case "failure":
			_, _ = io.WriteString(w, `{"task_id":"`+r.PathValue("id")+`","status":"failure","progress":0,"error_message":"model timeout"}`)
		default:
			_, _ = io.WriteString(w, `{"task_id":"`+r.PathValue("id")+`","status":"`+status+`","progress":50}`)
		}
	})
	return mux
}

func newIntegrationService(t *testing.T, statuses ...string) (*VoiceService, *fakeCollaborator) {
	t.Helper()
	collab := &fakeCollaborator{statuses: statuses}
	server := httptest.NewServer(collab.handler())
	t.Cleanup(server.Close)

	logger := newTestLogger()
	api := client.New(client.Config{BaseURL: server.URL, Timeout: 5 * time.Second}, logger)
	p := poller.New(api, poller.WithInterval(time.Millisecond), poller.WithLogger(logger))
	return NewVoiceService(api, p, 5*time.Second, logger), collab
}

func TestVoiceService_SubmitAndWait(t *testing.T) {
	svc, collab := newIntegrationService(t, "pending", "processing", "processing", "success")

	resp, err := svc.Submit(context.Background(), domain.NewFileUpload("voice.wav", []byte("RIFF")))
	require.NoError(t, err)
	require.Equal(t, "task-42", resp.TaskID)

	var observed []domain.Status
	final, err := svc.Wait(context.Background(), resp.TaskID, func(attempt int, s *domain.TaskStatus) {
		observed = append(observed, s.Status)
	}, 0)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSuccess, final.Status)
	require.NotNil(t, final.ResultURL)
	assert.Equal(t, "uploads/voice/out.wav", *final.ResultURL)
	assert.Len(t, observed, 4)
	assert.Equal(t, 4, collab.Polls())
}

func TestVoiceService_WaitFailure(t *testing.T) {
	svc, _ := newIntegrationService(t, "pending", "failure")

	_, err := svc.Wait(context.Background(), "task-42", nil, 0)
	require.Error(t, err)
	assert.EqualError(t, err, "model timeout")
}

func TestVoiceService_WaitTimeout(t *testing.T) {
	collab := &fakeCollaborator{statuses: []string{"processing"}}
	server := httptest.NewServer(collab.handler())
	defer server.Close()

	logger := newTestLogger()
	api := client.New(client.Config{BaseURL: server.URL, Timeout: time.Second}, logger)
	p := poller.New(api, poller.WithInterval(5*time.Millisecond), poller.WithLogger(logger))
	svc := NewVoiceService(api, p, 50*time.Millisecond, logger)

	_, err := svc.Wait(context.Background(), "task-42", nil, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestVoiceService_WatchAll(t *testing.T) {
	svc, _ := newIntegrationService(t, "queued", "success")

	results, err := svc.WatchAll(context.Background(), []string{"a"}, nil, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusSuccess, results[0].Status.Status)
}
