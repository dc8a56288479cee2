package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/IbnuJabir/AuralFlowAI/internal/client"
	cfgpkg "github.com/IbnuJabir/AuralFlowAI/internal/config"
	"github.com/IbnuJabir/AuralFlowAI/internal/domain"
	"github.com/IbnuJabir/AuralFlowAI/internal/poller"
	svc "github.com/IbnuJabir/AuralFlowAI/internal/service"
	"github.com/IbnuJabir/AuralFlowAI/internal/storage"
	"github.com/IbnuJabir/AuralFlowAI/internal/validation"
	"github.com/IbnuJabir/AuralFlowAI/internal/worker"
)

const usage = `Usage: dubctl <command> [flags]

Commands:
  submit   (-file PATH | -link URL) [-lang CODE] [-settings JSON] [-wait [-out DIR]]
  status   TASK_ID
  wait     [-interval D] [-out DIR] TASK_ID
  watch    [-interval D] TASK_ID...
  fetch    [-out DIR] TASK_ID...
  cancel   TASK_ID
  formats
  validate URL
`

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type cli struct {
	service   *svc.VoiceService
	interval  time.Duration
	outputDir string
	download  func(dir string) *worker.ResultDownloader
	stdout    io.Writer
	stderr    io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	// validate needs no configuration or network.
	if args[0] == "validate" {
		return runValidate(args[1:], stdout, stderr)
	}

	cfg, err := cfgpkg.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	logger := cfgpkg.SetupLogger(cfg, stderr)

	api := client.New(cfg.Client(), logger)
	p := poller.New(api,
		poller.WithInterval(cfg.PollInterval),
		poller.WithMaxConcurrent(cfg.MaxConcurrentPolls),
		poller.WithLogger(logger),
	)
	c := &cli{
		service:   svc.NewVoiceService(api, p, cfg.WaitTimeout, logger),
		interval:  cfg.PollInterval,
		outputDir: cfg.OutputDir,
		download: func(dir string) *worker.ResultDownloader {
			return worker.NewResultDownloader(storage.NewResultStore(dir), cfg.BaseURL, cfg.DownloadTimeout, cfg.MaxConcurrentPolls, logger)
		},
		stdout: stdout,
		stderr: stderr,
	}

	var cmdErr error
	switch args[0] {
	case "submit":
		cmdErr = c.submit(ctx, args[1:])
	case "status":
		cmdErr = c.status(ctx, args[1:])
	case "wait":
		cmdErr = c.wait(ctx, args[1:])
	case "watch":
		cmdErr = c.watch(ctx, args[1:])
	case "cancel":
		cmdErr = c.cancel(ctx, args[1:])
	case "fetch":
		cmdErr = c.fetch(ctx, args[1:])
	case "formats":
		cmdErr = c.formats(ctx)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if cmdErr != nil {
		fmt.Fprintf(stderr, "error: %v\n", cmdErr)
		return 1
	}
	return 0
}

func runValidate(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprint(stderr, "usage: dubctl validate URL\n")
		return 2
	}
	result := validation.ValidateLink(args[0])
	_ = printJSON(stdout, result)
	if !result.IsValid {
		return 1
	}
	return 0
}

func (c *cli) submit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	filePath := fs.String("file", "", "local audio or video file")
	link := fs.String("link", "", "YouTube, Vimeo or Google Drive link")
	lang := fs.String("lang", "", "target language code")
	settings := fs.String("settings", "", "voice settings as a JSON object")
	wait := fs.Bool("wait", false, "poll until the task is finished")
	out := fs.String("out", "", "download the result into this directory after -wait")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if (*filePath == "") == (*link == "") {
		return errors.New("exactly one of -file or -link is required")
	}

	var req *domain.UploadRequest
	if *filePath != "" {
		info, err := os.Stat(*filePath)
		if err != nil {
			return fmt.Errorf("stat file: %w", err)
		}
		if err := validation.ValidateFile(info.Name(), info.Size(), nil, 0); err != nil {
			return err
		}
		content, err := os.ReadFile(*filePath)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		req = domain.NewFileUpload(filepath.Base(*filePath), content)
	} else {
		result := validation.ValidateLink(*link)
		if !result.IsValid {
			return errors.New(result.Error)
		}
		req = domain.NewLinkUpload(*link, result.Platform)
	}

	req.TargetLanguage = *lang
	if *settings != "" {
		if err := json.Unmarshal([]byte(*settings), &req.VoiceSettings); err != nil {
			return fmt.Errorf("parse -settings: %w", err)
		}
	}

	resp, err := c.service.Submit(ctx, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("submission not accepted: %s", resp.Message)
	}
	fmt.Fprintf(c.stdout, "task %s submitted: %s\n", resp.TaskID, resp.Message)

	if !*wait {
		return nil
	}
	return c.waitFor(ctx, resp.TaskID, c.interval, *out)
}

func (c *cli) status(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: dubctl status TASK_ID")
	}
	status, err := c.service.Status(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(c.stdout, status)
}

func (c *cli) wait(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("wait", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	interval := fs.Duration("interval", c.interval, "time between polls")
	out := fs.String("out", "", "download the result into this directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: dubctl wait [-interval D] [-out DIR] TASK_ID")
	}
	return c.waitFor(ctx, fs.Arg(0), *interval, *out)
}

func (c *cli) waitFor(ctx context.Context, taskID string, interval time.Duration, out string) error {
	final, err := c.service.Wait(ctx, taskID, func(attempt int, s *domain.TaskStatus) {
		fmt.Fprintf(c.stdout, "[%d] %s %s %d%%\n", attempt, taskID, s.Status, s.ProgressValue())
	}, interval)
	if err != nil {
		return err
	}
	if final.ResultURL != nil {
		fmt.Fprintf(c.stdout, "result: %s\n", *final.ResultURL)
	}
	if out == "" {
		return nil
	}
	result, err := c.download(out).Download(ctx, final)
	if err != nil {
		return err
	}
	c.printDownload(out, result)
	return nil
}

func (c *cli) fetch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	out := fs.String("out", c.outputDir, "directory results are written to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: dubctl fetch [-out DIR] TASK_ID...")
	}

	statuses := make([]*domain.TaskStatus, 0, fs.NArg())
	for _, id := range fs.Args() {
		status, err := c.service.Status(ctx, id)
		if err != nil {
			return err
		}
		statuses = append(statuses, status)
	}

	results, err := c.download(*out).DownloadAll(ctx, statuses)
	for _, r := range results {
		if r.FileName != "" && r.TotalSize > 0 {
			c.printDownload(*out, r)
		}
	}
	return err
}

func (c *cli) printDownload(dir string, r domain.DownloadResult) {
	fmt.Fprintf(c.stdout, "saved %s (%d bytes)\n", filepath.Join(dir, r.FileName), r.TotalSize)
}

func (c *cli) watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	interval := fs.Duration("interval", c.interval, "time between polls")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: dubctl watch [-interval D] TASK_ID...")
	}

	out := &syncWriter{w: c.stdout}
	results, err := c.service.WatchAll(ctx, fs.Args(), func(taskID string, attempt int, s *domain.TaskStatus) {
		fmt.Fprintf(out, "[%d] %s %s %d%%\n", attempt, taskID, s.Status, s.ProgressValue())
	}, *interval)

	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(c.stdout, "%s: failed: %v\n", r.TaskID, r.Err)
		case r.Status.ResultURL != nil:
			fmt.Fprintf(c.stdout, "%s: success: %s\n", r.TaskID, *r.Status.ResultURL)
		default:
			fmt.Fprintf(c.stdout, "%s: success\n", r.TaskID)
		}
	}
	if err != nil {
		return errors.New("one or more tasks did not succeed")
	}
	return nil
}

func (c *cli) cancel(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: dubctl cancel TASK_ID")
	}
	resp, err := c.service.Cancel(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, resp.Message)
	return nil
}

func (c *cli) formats(ctx context.Context) error {
	formats, err := c.service.SupportedFormats(ctx)
	if err != nil {
		return err
	}
	return printJSON(c.stdout, formats)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// syncWriter serialises observer output from concurrent pollers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
