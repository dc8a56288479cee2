package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu     sync.Mutex
	polls  map[string]int
	server *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{polls: map[string]int{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /voice/voice-clone", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Voice cloning started",
			"task_id": "task-1",
			"status":  "pending",
		})
	})
	mux.HandleFunc("GET /voice/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f.mu.Lock()
		f.polls[id]++
		n := f.polls[id]
		f.mu.Unlock()

		switch {
		case id == "broken":
			writeTestJSON(w, http.StatusOK, map[string]any{"task_id": id, "status": "failure", "error_message": "model timeout"})
		case id == "rel":
			writeTestJSON(w, http.StatusOK, map[string]any{"task_id": id, "status": "success", "progress": 100, "result_url": "media/rel_final.mp4", "estimated_completion": "2026-10-14T12:00:00"})
		case n < 2:
			writeTestJSON(w, http.StatusOK, map[string]any{"task_id": id, "status": "processing", "progress": 50})
		default:
			writeTestJSON(w, http.StatusOK, map[string]any{"task_id": id, "status": "success", "progress": 100, "result_url": f.server.URL + "/media/" + id + ".mp4"})
		}
	})
	mux.HandleFunc("GET /media/{name}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("media:" + r.PathValue("name")))
	})
	mux.HandleFunc("DELETE /voice/task/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Task " + r.PathValue("id") + " cancelled successfully"})
	})
	mux.HandleFunc("GET /voice/supported-formats", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, map[string]any{"audio_formats": []string{".mp3"}, "video_formats": []string{".mp4"}, "max_file_size": "100MB"})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	t.Setenv("DUB_CONFIG_FILE", "")
	t.Setenv("DUB_BASE_URL", f.server.URL)
	t.Setenv("DUB_POLL_INTERVAL", "1ms")
	t.Setenv("DUB_LOG_LEVEL", "error")
	return f
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_NoArgs(t *testing.T) {
	code, _, stderr := runCLI()
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Usage: dubctl")
}

func TestRun_UnknownCommand(t *testing.T) {
	newFakeAPI(t)

	code, _, stderr := runCLI("publish")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "publish"`)
}

func TestRun_Validate(t *testing.T) {
	code, stdout, _ := runCLI("validate", "https://youtu.be/abc123")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, `"isValid": true`)
	assert.Contains(t, stdout, `"platform": "youtube"`)

	code, stdout, _ = runCLI("validate", "https://example.com/video")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "Only YouTube, Vimeo, and Google Drive links are supported")
}

func TestRun_SubmitLinkAndWait(t *testing.T) {
	newFakeAPI(t)

	code, stdout, stderr := runCLI("submit", "-link", "https://vimeo.com/12345", "-lang", "es", "-wait")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "task task-1 submitted: Voice cloning started")
	assert.Contains(t, stdout, "[1] task-1 processing 50%")
	assert.Contains(t, stdout, "/media/task-1.mp4")
}

func TestRun_SubmitFile(t *testing.T) {
	newFakeAPI(t)

	path := filepath.Join(t.TempDir(), "clip.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3 audio"), 0644))

	code, stdout, stderr := runCLI("submit", "-file", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "task task-1 submitted")
}

func TestRun_SubmitRequiresOneSource(t *testing.T) {
	newFakeAPI(t)

	code, _, stderr := runCLI("submit")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "exactly one of -file or -link is required")

	code, _, stderr = runCLI("submit", "-link", "https://example.com/x")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Only YouTube, Vimeo, and Google Drive links are supported")
}

func TestRun_WaitFailure(t *testing.T) {
	newFakeAPI(t)

	code, _, stderr := runCLI("wait", "broken")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "model timeout")
}

func TestRun_Watch(t *testing.T) {
	newFakeAPI(t)

	code, stdout, _ := runCLI("watch", "-interval", "1ms", "a", "broken")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "a: success: http")
	assert.Contains(t, stdout, "broken: failed:")
}

func TestRun_StatusCancelFormats(t *testing.T) {
	newFakeAPI(t)

	code, stdout, _ := runCLI("status", "task-9")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, `"status": "processing"`)

	code, stdout, _ = runCLI("cancel", "task-9")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Task task-9 cancelled successfully")

	code, stdout, _ = runCLI("formats")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, `".mp4"`)
}

func TestRun_WaitDownloadsResult(t *testing.T) {
	newFakeAPI(t)
	out := t.TempDir()

	code, stdout, stderr := runCLI("wait", "-out", out, "task-7")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "saved "+filepath.Join(out, "task-7.mp4"))

	data, err := os.ReadFile(filepath.Join(out, "task-7.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "media:task-7.mp4", string(data))
}

func TestRun_Fetch(t *testing.T) {
	f := newFakeAPI(t)
	out := t.TempDir()

	// First status fetch reports processing, so there is nothing to download yet.
	code, _, stderr := runCLI("fetch", "-out", out, "task-8")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no result")

	code, stdout, stderr := runCLI("fetch", "-out", out, "task-8")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "task-8.mp4")

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, 2, f.polls["task-8"])
}

func TestRun_WaitDownloadsRelativeResult(t *testing.T) {
	newFakeAPI(t)
	out := t.TempDir()

	code, stdout, stderr := runCLI("wait", "-out", out, "rel")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "saved "+filepath.Join(out, "rel.mp4"))

	data, err := os.ReadFile(filepath.Join(out, "rel.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "media:rel_final.mp4", string(data))
}
