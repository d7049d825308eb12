package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"ashare-data-collector/internal/collector"
	"ashare-data-collector/internal/config"
	"ashare-data-collector/internal/content"
	"ashare-data-collector/internal/provider"
	"ashare-data-collector/internal/repository"
	"ashare-data-collector/internal/scheduler"
	"ashare-data-collector/internal/server"
	"ashare-data-collector/pkg/feishu"
	"ashare-data-collector/pkg/logger"
	"ashare-data-collector/pkg/notify"
	"ashare-data-collector/pkg/postgres"
	"ashare-data-collector/pkg/redis"
	"ashare-data-collector/pkg/telegram"
	"ashare-data-collector/pkg/utils"
)

var (
	configPath string

	backfillStart string
	backfillEnd   string
	noResume      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "collector",
		Short: "A-share market data collector",
		Long:  `Collects A-share reference data, quotes, indices, rankings, fund flows and news into PostgreSQL.`,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	backfillCmd := &cobra.Command{
		Use:   "backfill",
		Short: "Collect historical quotes and index levels for a date window",
		Run:   runBackfill,
	}
	backfillCmd.Flags().StringVar(&backfillStart, "start", "", "Window start (YYYYMMDD), default 30 days ago")
	backfillCmd.Flags().StringVar(&backfillEnd, "end", "", "Window end (YYYYMMDD), default today")
	backfillCmd.Flags().BoolVar(&noResume, "no-resume", false, "Ignore persisted watermarks and refetch the whole window")

	stockCmd := &cobra.Command{
		Use:   "stock [code]",
		Short: "Collect historical quotes for one stock",
		Args:  cobra.ExactArgs(1),
		Run:   runStock,
	}
	stockCmd.Flags().StringVar(&backfillStart, "start", "", "Window start (YYYYMMDD), default 30 days ago")
	stockCmd.Flags().StringVar(&backfillEnd, "end", "", "Window end (YYYYMMDD), default today")
	stockCmd.Flags().BoolVar(&noResume, "no-resume", false, "Ignore persisted watermarks and refetch the whole window")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the scheduler and the ops HTTP API",
			Run:   runServe,
		},
		&cobra.Command{
			Use:   "daily",
			Short: "Run the daily after-close collection once",
			Run:   runOnce(func(ctx context.Context, app *application) { app.orch.RunDaily(ctx) }),
		},
		&cobra.Command{
			Use:   "weekly",
			Short: "Refresh the stock master and trading calendar once",
			Run:   runOnce(func(ctx context.Context, app *application) { app.orch.RunWeekly(ctx) }),
		},
		&cobra.Command{
			Use:   "news",
			Short: "Run one news collection pass",
			Run:   runOnce(func(ctx context.Context, app *application) { app.orch.RunNews(ctx) }),
		},
		backfillCmd,
		stockCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing collector CLI: %s\n", err)
		os.Exit(1)
	}
}

// application holds the wired object graph shared by every command.
type application struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *postgres.DB
	cache  *redis.Client
	orch   *collector.Orchestrator
	runs   repository.CollectionRunRepository
	quotes *collector.DailyQuoteCollector
}

func buildApplication() (*application, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}

	db, err := postgres.NewDB(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initialize database: %w", err)
	}

	// Redis is optional: without it news dedup falls back to the database.
	var cache *redis.Client
	if cfg.Redis.Host != "" {
		cache, err = redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			appLogger.Warn("redis unavailable, news dedup will use the database only", logger.ErrorField(err))
			cache = nil
		}
	}

	market := provider.NewClient(provider.Config{
		BaseURL:             cfg.Provider.BaseURL,
		Timeout:             cfg.Provider.Timeout,
		MaxRequestPerMinute: cfg.Provider.MaxRequestPerMinute,
		RetryCount:          cfg.Provider.RetryCount,
		RetryDelay:          cfg.Provider.RetryDelay,
	}, appLogger)

	stockRepo := repository.NewStockBasicRepository(db.DB)
	quoteRepo := repository.NewDailyQuoteRepository(db.DB)
	indexRepo := repository.NewIndexQuoteRepository(db.DB)
	calendarRepo := repository.NewTradeCalendarRepository(db.DB)
	hotRepo := repository.NewHotRankRepository(db.DB)
	fundFlowRepo := repository.NewFundFlowRepository(db.DB)
	newsRepo := repository.NewNewsRepository(db.DB)
	runRepo := repository.NewCollectionRunRepository(db.DB)

	quoteCollector := collector.NewDailyQuoteCollector(market, quoteRepo, stockRepo, appLogger)
	orch := collector.NewOrchestrator(collector.OrchestratorDeps{
		Log:        appLogger,
		Runs:       runRepo,
		Notifier:   buildNotifier(cfg, appLogger),
		StockBasic: collector.NewStockBasicCollector(market, stockRepo, appLogger),
		DailyQuote: quoteCollector,
		Index:      collector.NewIndexCollector(market, indexRepo, appLogger, cfg.Collector.Indices),
		Calendar: collector.NewTradeCalendarCollector(market, calendarRepo, appLogger,
			cfg.Collector.Calendar.StartYear, cfg.Collector.Calendar.EndYear),
		HotRank:  collector.NewHotRankCollector(market, hotRepo, appLogger),
		FundFlow: collector.NewFundFlowCollector(market, fundFlowRepo, stockRepo, appLogger),
		News: collector.NewNewsCollector(market, newsRepo, cache,
			content.NewExtractor(0, appLogger), appLogger, cfg.Collector.News),
		IndexRetryDelay: cfg.Collector.IndexRetryDelay,
	})

	cleanup := func() {
		if sqlDB, err := db.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
		if cache != nil {
			_ = cache.Close()
		}
		_ = appLogger.Sync()
	}

	return &application{
		cfg:    cfg,
		log:    appLogger,
		db:     db,
		cache:  cache,
		orch:   orch,
		runs:   runRepo,
		quotes: quoteCollector,
	}, cleanup, nil
}

func buildNotifier(cfg *config.Config, log *logger.Logger) notify.Notifier {
	var notifiers notify.Multi
	if cfg.Notify.Feishu.Enabled && cfg.Notify.Feishu.WebhookURL != "" {
		notifiers = append(notifiers, feishu.NewClient(cfg.Notify.Feishu.WebhookURL))
	}
	if cfg.Notify.Telegram.Enabled && cfg.Notify.Telegram.BotToken != "" {
		tg, err := telegram.NewClient(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
		if err != nil {
			log.Warn("telegram notifier disabled", logger.ErrorField(err))
		} else {
			notifiers = append(notifiers, tg)
		}
	}
	if len(notifiers) == 0 {
		return nil
	}
	return notifiers
}

func runOnce(run func(context.Context, *application)) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, cleanup, err := buildApplication()
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer cleanup()

		run(ctx, app)
	}
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := buildApplication()
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer cleanup()

	app.log.Info("starting collector service", logger.Field("name", app.cfg.App.Name))

	sched := scheduler.New(app.orch, app.log, app.cfg.Scheduler)
	if err := sched.Start(); err != nil {
		app.log.Fatal("failed to start scheduler", logger.ErrorField(err))
	}
	defer sched.Stop()

	e := echo.New()
	e.HideBanner = true
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	runHandler := server.NewRunHandler(app.orch, app.runs, app.log)
	runHandler.RegisterRoutes(e.Group("/api/v1/runs"))

	go func() {
		addr := fmt.Sprintf("%s:%d", app.cfg.API.Host, app.cfg.API.Port)
		app.log.Info("HTTP server starting", logger.StringField("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			app.log.Error("HTTP server failed", logger.ErrorField(err))
			stop()
		}
	}()

	<-ctx.Done()
	app.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		app.log.Error("HTTP server shutdown failed", logger.ErrorField(err))
	}
}

func runBackfill(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := buildApplication()
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer cleanup()

	start, end, err := resolveWindow()
	if err != nil {
		log.Fatalf("Invalid window: %v", err)
	}

	app.orch.RunBackfill(ctx, start, end, !noResume, pacingOrDefault(app.cfg))
}

func runStock(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := buildApplication()
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer cleanup()

	start, end, err := resolveWindow()
	if err != nil {
		log.Fatalf("Invalid window: %v", err)
	}

	outcome := app.quotes.CollectStockHistory(ctx, args[0], start, end, !noResume)
	app.log.Info("stock collection finished",
		logger.StringField("stock_code", args[0]),
		logger.StringField("state", outcome.StateText),
		logger.IntField("written", outcome.RowsWritten))
	if outcome.Err != nil {
		app.log.Error("stock collection failed", logger.ErrorField(outcome.Err))
		os.Exit(1)
	}
}

func resolveWindow() (time.Time, time.Time, error) {
	end := utils.TruncateToDay(utils.TimeNowCST())
	start := end.AddDate(0, 0, -30)
	var err error
	if backfillEnd != "" {
		if end, err = utils.ParseCompactDate(backfillEnd); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", backfillEnd, err)
		}
	}
	if backfillStart != "" {
		if start, err = utils.ParseCompactDate(backfillStart); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", backfillStart, err)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s before start %s", backfillEnd, backfillStart)
	}
	return start, end, nil
}

func pacingOrDefault(cfg *config.Config) collector.PacingConfig {
	pacing := cfg.Collector.Pacing
	if pacing.BaseDelay == 0 && pacing.RandomDelay == 0 && pacing.BatchDelay == 0 && pacing.BatchSize == 0 {
		return collector.DefaultPacing()
	}
	return pacing
}
