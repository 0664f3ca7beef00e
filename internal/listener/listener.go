package listener

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"procureai/internal/ai"
	"procureai/internal/config"
	"procureai/internal/connectors"
	gmailconnector "procureai/internal/connectors/gmail"
	imapconnector "procureai/internal/connectors/imap"
	"procureai/internal/pipeline"
	"procureai/internal/storage"
)

// Service runs reconciliation cycles on a cron schedule. Cycles never
// overlap; a tick that fires while one is still running is skipped.
type Service struct {
	db        *storage.DB
	extractor ai.Extractor
	cfg       config.Config
	logger    *log.Logger

	mu      sync.Mutex
	running bool
}

func NewService(db *storage.DB, extractor ai.Extractor, cfg config.Config, logger *log.Logger) *Service {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Service{db: db, extractor: extractor, cfg: cfg, logger: logger}
}

// Run blocks until the context is cancelled. The first cycle fires
// immediately, subsequent ones on the configured schedule.
func (s *Service) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.ListenerSchedule, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("bad LISTENER_SCHEDULE %q: %w", s.cfg.ListenerSchedule, err)
	}

	s.logger.Info().Str("schedule", s.cfg.ListenerSchedule).Str("provider", s.cfg.InboxProvider).Msg("inbox listener started")
	s.tick(ctx)
	c.Start()

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	s.logger.Info().Msg("inbox listener stopped")
	return nil
}

// RunOnce executes a single reconciliation cycle, for the CLI refresh
// path.
func (s *Service) RunOnce(ctx context.Context) (pipeline.Result, error) {
	connector, err := s.makeConnector()
	if err != nil {
		return pipeline.Result{}, err
	}
	rec := pipeline.NewReconciler(connector, s.db, s.extractor, s.cfg, s.logger)
	return rec.RunCycle(ctx)
}

func (s *Service) tick(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn().Msg("previous cycle still running, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	res, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("reconciliation cycle failed")
		return
	}
	s.logger.Info().
		Int("totalFound", res.TotalFound).
		Int("processed", res.Processed).
		Dur("took", time.Since(start)).
		Msg("reconciliation cycle done")
}

func (s *Service) makeConnector() (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(s.cfg.InboxProvider)) {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported inbox provider: %s", s.cfg.InboxProvider)
	}
}
