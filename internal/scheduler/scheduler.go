package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"ashare-data-collector/internal/collector"
	"ashare-data-collector/internal/config"
	"ashare-data-collector/pkg/logger"
	"ashare-data-collector/pkg/utils"
)

// Default cron expressions (CST). Quotes and indices publish after the
// afternoon close; the reference data refresh runs in the Sunday quiet
// hours; news is polled around the clock.
const (
	defaultDailyCron  = "30 16 * * 1-5"
	defaultWeeklyCron = "0 2 * * 0"
	defaultNewsCron   = "*/20 * * * *"
)

const (
	dailyJobTimeout  = 2 * time.Hour
	weeklyJobTimeout = 1 * time.Hour
	newsJobTimeout   = 10 * time.Minute
)

// Scheduler drives the standing collection jobs on cron schedules.
type Scheduler struct {
	cron *cron.Cron
	orch *collector.Orchestrator
	log  *logger.Logger
	cfg  config.Scheduler
}

// New creates a new Scheduler. Empty cron expressions fall back to the
// defaults; jobs run in the CST market timezone regardless of host TZ.
func New(orch *collector.Orchestrator, log *logger.Logger, cfg config.Scheduler) *Scheduler {
	return &Scheduler{
		orch: orch,
		log:  log,
		cfg:  cfg,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.cron = cron.New(
		cron.WithLocation(utils.GetCSTLocation()),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)

	jobs := []struct {
		name    string
		expr    string
		timeout time.Duration
		run     func(context.Context)
	}{
		{"daily", orDefault(s.cfg.DailyCron, defaultDailyCron), dailyJobTimeout,
			func(ctx context.Context) { s.orch.RunDaily(ctx) }},
		{"weekly", orDefault(s.cfg.WeeklyCron, defaultWeeklyCron), weeklyJobTimeout,
			func(ctx context.Context) { s.orch.RunWeekly(ctx) }},
		{"news", orDefault(s.cfg.NewsCron, defaultNewsCron), newsJobTimeout,
			func(ctx context.Context) { s.orch.RunNews(ctx) }},
	}

	for _, job := range jobs {
		job := job
		_, err := s.cron.AddFunc(job.expr, func() {
			ctx, cancel := context.WithTimeout(context.Background(), job.timeout)
			defer cancel()
			s.log.Info("scheduled job starting", logger.StringField("job", job.name))
			job.run(ctx)
		})
		if err != nil {
			return err
		}
		s.log.Info("job scheduled",
			logger.StringField("job", job.name),
			logger.StringField("cron", job.expr))
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

func orDefault(expr, fallback string) string {
	if expr == "" {
		return fallback
	}
	return expr
}
