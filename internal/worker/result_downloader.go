package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IbnuJabir/AuralFlowAI/internal/domain"
	errpkg "github.com/IbnuJabir/AuralFlowAI/internal/errors"
	"github.com/IbnuJabir/AuralFlowAI/internal/metrics"
	"github.com/IbnuJabir/AuralFlowAI/internal/storage"
	"github.com/IbnuJabir/AuralFlowAI/internal/validation"
)

const (
	defaultExt         = ".mp4"
	defaultConcurrency = 5
	copyBufferSize     = 32 * 1024
	maxRedirects       = 10
)

// ResultDownloader fetches the media behind result_url of finished tasks
// and stores it in a ResultStore.
type ResultDownloader struct {
	store       *storage.ResultStore
	origin      *url.URL
	httpClient  *http.Client
	concurrency int
	logger      *slog.Logger
}

// NewResultDownloader creates a ResultDownloader. Relative result URLs are
// resolved against the origin of baseURL, the collaborator's address. A
// non-positive timeout disables the per-download deadline; a non-positive
// concurrency falls back to 5.
func NewResultDownloader(store *storage.ResultStore, baseURL string, timeout time.Duration, concurrency int, logger *slog.Logger) *ResultDownloader {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	var (
		origin      *url.URL
		trustedHost string
	)
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		origin = &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
		trustedHost = u.Host
	}

	return &ResultDownloader{
		store:  store,
		origin: origin,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return validation.ValidateResultURL(req.URL.String(), trustedHost)
			},
		},
		concurrency: concurrency,
		logger:      logger,
	}
}

// FileName returns the name a task's result is stored under.
func FileName(status *domain.TaskStatus) string {
	ext := defaultExt
	if status.ResultURL != nil {
		if u, err := url.Parse(*status.ResultURL); err == nil {
			if e := path.Ext(u.Path); e != "" && e != "." {
				ext = e
			}
		}
	}
	return status.TaskID + ext
}

// Download stores the result of a success snapshot. A partial file left by a
// previous attempt is resumed when the server honours the Range request.
func (d *ResultDownloader) Download(ctx context.Context, status *domain.TaskStatus) (domain.DownloadResult, error) {
	if status == nil || status.Status != domain.StatusSuccess || status.ResultURL == nil || *status.ResultURL == "" {
		taskID := ""
		if status != nil {
			taskID = status.TaskID
		}
		return domain.DownloadResult{TaskID: taskID}, fmt.Errorf("download %s: %w", taskID, errpkg.ErrNoResult)
	}

	result := domain.DownloadResult{
		TaskID:   status.TaskID,
		FileName: FileName(status),
	}

	resultURL, err := d.resolve(*status.ResultURL)
	if err != nil {
		d.logger.Warn("result url rejected", "task_id", status.TaskID, "url", *status.ResultURL, "error", err)
		return result, fmt.Errorf("download %s: %w", status.TaskID, err)
	}
	result.URL = resultURL

	existing, err := d.store.Size(result.FileName)
	if err != nil {
		return result, fmt.Errorf("download %s: %w", status.TaskID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return result, fmt.Errorf("download %s: create request: %w", status.TaskID, err)
	}
	if existing > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", existing))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.Error("result request failed", "task_id", status.TaskID, "url", resultURL, "error", err)
		return result, fmt.Errorf("download %s: %w", status.TaskID, err)
	}
	defer resp.Body.Close()

	// A complete file answers the Range request with 416.
	if existing > 0 && resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		result.TotalSize = existing
		result.Resumed = true
		return result, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.logger.Error("result download failed", "task_id", status.TaskID, "status", resp.Status)
		return result, fmt.Errorf("download %s: bad status: %s", status.TaskID, resp.Status)
	}

	var file *os.File
	if existing > 0 && resp.StatusCode == http.StatusPartialContent {
		result.Resumed = true
		file, err = d.store.Append(result.FileName)
	} else {
		existing = 0
		file, err = d.store.Create(result.FileName)
	}
	if err != nil {
		return result, fmt.Errorf("download %s: open file: %w", status.TaskID, err)
	}
	defer file.Close()

	written, err := copyWithContext(ctx, file, resp.Body)
	result.BytesWritten = written
	result.TotalSize = existing + written
	metrics.ResultBytes.Add(float64(written))
	if err != nil {
		d.logger.Error("result copy failed", "task_id", status.TaskID, "written", written, "error", err)
		return result, fmt.Errorf("download %s: copy data: %w", status.TaskID, err)
	}

	metrics.ResultsDownloaded.Inc()
	d.logger.Info("result downloaded",
		"task_id", status.TaskID,
		"file", result.FileName,
		"bytes", result.TotalSize,
		"resumed", result.Resumed,
	)
	return result, nil
}

// DownloadAll downloads several results concurrently. Results keep the input
// order; the returned error joins every individual failure.
func (d *ResultDownloader) DownloadAll(ctx context.Context, statuses []*domain.TaskStatus) ([]domain.DownloadResult, error) {
	results := make([]domain.DownloadResult, len(statuses))
	errs := make([]error, len(statuses))

	var g errgroup.Group
	g.SetLimit(d.concurrency)

	for i, status := range statuses {
		g.Go(func() error {
			results[i], errs[i] = d.Download(ctx, status)
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

// resolve turns a result URL into an absolute one and checks that it is safe
// to fetch. Relative paths are served by the collaborator.
func (d *ResultDownloader) resolve(raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", errpkg.ErrUnsafeURL, raw, err)
	}

	trustedHost := ""
	if d.origin != nil {
		trustedHost = d.origin.Host
		if !ref.IsAbs() {
			ref = d.origin.ResolveReference(ref)
		}
	}

	resolved := ref.String()
	if err := validation.ValidateResultURL(resolved, trustedHost); err != nil {
		return "", err
	}
	return resolved, nil
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, copyBufferSize)
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			total += int64(nw)
			if werr != nil {
				return total, werr
			}
			if nw != nr {
				return total, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}
