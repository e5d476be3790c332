// Package service runs login jobs: it records the job, opens the browser session in the background and
// moves the job through running, waiting_for_user and completed or failed.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	accountdomain "account-console/internal/account/domain"
	accountrepo "account-console/internal/account/repository"
	"account-console/internal/browser"
	"account-console/internal/loginjob/domain"
	"account-console/internal/loginjob/repository"
	"account-console/internal/telemetry"
)

const (
	// DefaultTimeout bounds a browser session when Config.Timeout is zero.
	DefaultTimeout = 15 * time.Minute
	// defaultAccountName names accounts created without a label.
	defaultAccountName = "New account"
	// updateTimeout bounds status writes made after the session context ended.
	updateTimeout = 5 * time.Second
	// restartReason is stored on jobs that were active when the previous process stopped.
	restartReason = "server restarted during login"
	eventSource   = "loginjob"
)

// Launcher opens the browser session. onReady is called once the login page is shown; a nil return means
// the login finished.
type Launcher interface {
	Launch(ctx context.Context, s browser.Session, onReady func()) error
}

// Config configures a Service.
type Config struct {
	LoginURL string
	Timeout  time.Duration
}

// StartRequest selects an existing account by AccountID, or creates one from Proxy, IOSProfile and Label.
type StartRequest struct {
	AccountID  *int64
	Proxy      string
	IOSProfile string
	Label      string
}

// StartResult is returned by Start.
type StartResult struct {
	Job      *domain.Job
	Account  *accountdomain.Account
	LoginURL string
}

// Service starts and tracks login jobs.
type Service struct {
	accounts accountrepo.Repository
	jobs     repository.Repository
	launcher Launcher
	emitter  telemetry.EventEmitter
	log      *zap.Logger
	cfg      Config

	now   func() time.Time
	newID func() string

	started metric.Int64Counter
	ended   metric.Int64Counter

	// mu serializes the active-job check and the insert.
	mu     sync.Mutex
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService returns a Service. emitter may be nil; a nil logger disables logging.
func NewService(accounts accountrepo.Repository, jobs repository.Repository, launcher Launcher, emitter telemetry.EventEmitter, log *zap.Logger, cfg Config) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	meter := otel.Meter("account-console/loginjob")
	started, _ := meter.Int64Counter("login_jobs_started", metric.WithDescription("Login jobs started."))
	ended, _ := meter.Int64Counter("login_jobs_ended", metric.WithDescription("Login jobs ended, by final status."))

	base, cancel := context.WithCancel(context.Background())
	return &Service{
		accounts: accounts,
		jobs:     jobs,
		launcher: launcher,
		emitter:  emitter,
		log:      log,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		started:  started,
		ended:    ended,
		base:     base,
		cancel:   cancel,
	}
}

// Start resolves or creates the account, records a running job and opens the browser in the background.
// Returns ErrInvalidRequest, ErrAccountNotFound or ErrLoginActive for rejected requests.
func (s *Service) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	acc, err := s.resolveAccount(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	latest, err := s.jobs.LatestByAccount(ctx, acc.ID)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("load latest job: %w", err)
	}
	if latest.Active() {
		s.mu.Unlock()
		return nil, ErrLoginActive
	}
	job := &domain.Job{
		ID:        s.newID(),
		AccountID: acc.ID,
		Status:    domain.StatusRunning,
		StartedAt: s.now(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.mu.Unlock()

	s.log.Info("login job started", zap.String("job_id", job.ID), zap.Int64("account_id", acc.ID))
	s.emit(ctx, telemetry.EventLoginStarted, job)
	if s.started != nil {
		s.started.Add(ctx, 1)
	}

	view := *job
	s.wg.Add(1)
	go s.run(job, acc)

	return &StartResult{Job: &view, Account: acc, LoginURL: s.cfg.LoginURL}, nil
}

// Latest returns the newest job of the account, or ErrJobNotFound.
func (s *Service) Latest(ctx context.Context, accountID int64) (*domain.Job, error) {
	job, err := s.jobs.LatestByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// RecoverOrphans fails jobs that a previous process left running, so their accounts can log in again.
func (s *Service) RecoverOrphans(ctx context.Context) (int64, error) {
	return s.jobs.FailActive(ctx, restartReason, s.now())
}

// Shutdown cancels running browser sessions and waits for their jobs to be finalized or ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) resolveAccount(ctx context.Context, req StartRequest) (*accountdomain.Account, error) {
	if req.AccountID != nil {
		acc, err := s.accounts.GetByID(ctx, *req.AccountID)
		if err != nil {
			return nil, fmt.Errorf("load account: %w", err)
		}
		if acc == nil {
			return nil, ErrAccountNotFound
		}
		return acc, nil
	}

	proxy := strings.TrimSpace(req.Proxy)
	profile := strings.TrimSpace(req.IOSProfile)
	label := strings.TrimSpace(req.Label)
	if proxy == "" && profile == "" && label == "" {
		return nil, ErrInvalidRequest
	}
	if _, err := browser.ParseProxy(proxy); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if profile == "" {
		profile = browser.DefaultDevice
	} else if !browser.KnownDevice(profile) {
		return nil, fmt.Errorf("%w: unknown ios_profile %q", ErrInvalidRequest, profile)
	}
	name := label
	if name == "" {
		name = defaultAccountName
	}
	acc := &accountdomain.Account{Name: name, Proxy: proxy, IOSProfile: profile}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	s.log.Info("account created for login", zap.Int64("account_id", acc.ID), zap.String("name", acc.Name))
	return acc, nil
}

func (s *Service) run(job *domain.Job, acc *accountdomain.Account) {
	defer s.wg.Done()
	log := s.log.With(zap.String("job_id", job.ID), zap.Int64("account_id", acc.ID))

	ctx, cancel := context.WithTimeout(s.base, s.cfg.Timeout)
	defer cancel()

	session := browser.Session{AccountID: acc.ID, Proxy: acc.Proxy, IOSProfile: acc.IOSProfile}
	err := s.launcher.Launch(ctx, session, func() {
		s.update(job, domain.StatusWaitingForUser, "", log)
	})

	switch {
	case err == nil:
		s.update(job, domain.StatusCompleted, "", log)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		s.update(job, domain.StatusFailed, fmt.Sprintf("login timed out after %s", s.cfg.Timeout), log)
	case s.base.Err() != nil:
		s.update(job, domain.StatusFailed, "server shutting down", log)
	default:
		s.update(job, domain.StatusFailed, err.Error(), log)
	}
}

func (s *Service) update(job *domain.Job, status, errText string, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()

	var finished *time.Time
	if domain.IsTerminal(status) {
		t := s.now()
		finished = &t
	}
	if _, err := s.jobs.UpdateStatus(ctx, job.ID, status, errText, finished); err != nil {
		log.Error("update login job", zap.String("status", status), zap.Error(err))
		return
	}
	job.Status, job.Error, job.FinishedAt = status, errText, finished

	switch status {
	case domain.StatusWaitingForUser:
		log.Info("login job waiting for user")
		s.emit(ctx, telemetry.EventLoginWaiting, job)
	case domain.StatusCompleted:
		log.Info("login job completed")
		s.emit(ctx, telemetry.EventLoginCompleted, job)
	default:
		log.Warn("login job failed", zap.String("error", errText))
		s.emit(ctx, telemetry.EventLoginFailed, job)
	}
	if finished != nil && s.ended != nil {
		s.ended.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func (s *Service) emit(ctx context.Context, eventType string, job *domain.Job) {
	if s.emitter == nil {
		return
	}
	telemetry.EmitAsync(s.emitter, ctx, &telemetry.Event{
		EventType: eventType,
		Source:    eventSource,
		AccountID: job.AccountID,
		JobID:     job.ID,
		Status:    job.Status,
		Error:     job.Error,
	})
}
