package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IbnuJabir/AuralFlowAI/internal/domain"
	"github.com/IbnuJabir/AuralFlowAI/internal/metrics"
	"github.com/IbnuJabir/AuralFlowAI/internal/poller"
	"github.com/IbnuJabir/AuralFlowAI/internal/validation"
)

// VoiceAPI is the remote collaborator surface.
type VoiceAPI interface {
	Submit(ctx context.Context, req *domain.UploadRequest) (*domain.SubmitResponse, error)
	Status(ctx context.Context, taskID string) (*domain.TaskStatus, error)
	Cancel(ctx context.Context, taskID string) (*domain.CancelResponse, error)
	SupportedFormats(ctx context.Context) (*domain.SupportedFormats, error)
}

type VoiceService struct {
	api         VoiceAPI
	poller      *poller.Poller
	waitTimeout time.Duration
	logger      *slog.Logger

	formatsMu sync.Mutex
	formats   *domain.SupportedFormats
}

// NewVoiceService wires api and p. A positive waitTimeout bounds every Wait.
func NewVoiceService(api VoiceAPI, p *poller.Poller, waitTimeout time.Duration, logger *slog.Logger) *VoiceService {
	return &VoiceService{
		api:         api,
		poller:      p,
		waitTimeout: waitTimeout,
		logger:      logger,
	}
}

func (s *VoiceService) Submit(ctx context.Context, req *domain.UploadRequest) (*domain.SubmitResponse, error) {
	if err := validation.ValidateUpload(req); err != nil {
		metrics.UploadsRejected.Inc()
		return nil, err
	}

	resp, err := s.api.Submit(ctx, req)
	if err != nil {
		metrics.UploadsRejected.Inc()
		s.logger.Error("submission failed",
			"type", req.Type,
			"source", req.Source,
			"error", err,
		)
		return nil, err
	}

	if !resp.Success || resp.TaskID == "" {
		metrics.UploadsRejected.Inc()
		s.logger.Warn("submission not accepted",
			"type", req.Type,
			"message", resp.Message,
		)
		return resp, nil
	}

	metrics.UploadsSubmitted.Inc()
	s.logger.Info("upload accepted",
		"task_id", resp.TaskID,
		"type", req.Type,
		"source", req.Source,
		"target_language", req.TargetLanguage,
	)
	return resp, nil
}

func (s *VoiceService) Status(ctx context.Context, taskID string) (*domain.TaskStatus, error) {
	return s.api.Status(ctx, taskID)
}

// Wait polls taskID until it is terminal, the wait timeout passes or ctx is done.
func (s *VoiceService) Wait(ctx context.Context, taskID string, observer poller.Observer, interval time.Duration) (*domain.TaskStatus, error) {
	if s.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.waitTimeout)
		defer cancel()
	}

	s.logger.Info("waiting for task", "task_id", taskID)
	return s.poller.Poll(ctx, taskID, observer, interval)
}

// WatchAll waits for several tasks at once; see poller.WatchAll.
func (s *VoiceService) WatchAll(ctx context.Context, taskIDs []string, observer poller.TaskObserver, interval time.Duration) ([]poller.Result, error) {
	if s.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.waitTimeout)
		defer cancel()
	}
	return s.poller.WatchAll(ctx, taskIDs, observer, interval)
}

func (s *VoiceService) Cancel(ctx context.Context, taskID string) (*domain.CancelResponse, error) {
	resp, err := s.api.Cancel(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("cancel task %s: %w", taskID, err)
	}
	metrics.TasksCancelled.Inc()
	s.logger.Info("task cancelled", "task_id", taskID, "message", resp.Message)
	return resp, nil
}

// SupportedFormats returns the collaborator's formats, cached after the first
// successful call.
func (s *VoiceService) SupportedFormats(ctx context.Context) (*domain.SupportedFormats, error) {
	s.formatsMu.Lock()
	defer s.formatsMu.Unlock()

	if s.formats != nil {
		return s.formats, nil
	}

	formats, err := s.api.SupportedFormats(ctx)
	if err != nil {
		return nil, err
	}
	s.formats = formats
	return formats, nil
}

func (s *VoiceService) ValidateLink(raw string) domain.LinkValidation {
	return validation.ValidateLink(raw)
}
