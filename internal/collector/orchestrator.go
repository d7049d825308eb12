package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/datatypes"

	"ashare-data-collector/internal/entity"
	"ashare-data-collector/internal/repository"
	"ashare-data-collector/pkg/logger"
	"ashare-data-collector/pkg/notify"
	"ashare-data-collector/pkg/utils"
)

// DefaultIndexRetryDelay is how long the orchestrator waits before the
// one-shot index retry when today's index data looks late.
const DefaultIndexRetryDelay = 30 * time.Minute

const indexRetryTimeout = 10 * time.Minute

// RunReport is the aggregated result of one orchestrated run.
type RunReport struct {
	RunType  string        `json:"run_type"`
	Status   string        `json:"status"`
	Outcomes []Outcome     `json:"outcomes"`
	Duration time.Duration `json:"duration_ns"`
}

// OrchestratorDeps wires an Orchestrator.
type OrchestratorDeps struct {
	Log      *logger.Logger
	Runs     repository.CollectionRunRepository
	Notifier notify.Notifier

	StockBasic *StockBasicCollector
	DailyQuote *DailyQuoteCollector
	Index      *IndexCollector
	Calendar   *TradeCalendarCollector
	HotRank    *HotRankCollector
	FundFlow   *FundFlowCollector
	News       *NewsCollector

	IndexRetryDelay time.Duration
}

// Orchestrator sequences the entity collectors into daily, weekly,
// backfill and news runs, records each run, and notifies on completion.
// It also owns the single pending index-retry timer; a new daily run
// (scheduled or manual) cancels any retry still pending.
type Orchestrator struct {
	log      *logger.Logger
	runs     repository.CollectionRunRepository
	notifier notify.Notifier

	stockBasic *StockBasicCollector
	dailyQuote *DailyQuoteCollector
	index      *IndexCollector
	calendar   *TradeCalendarCollector
	hotRank    *HotRankCollector
	fundFlow   *FundFlowCollector
	news       *NewsCollector

	indexRetryDelay time.Duration

	mu         sync.Mutex
	retryTimer *time.Timer
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	delay := deps.IndexRetryDelay
	if delay <= 0 {
		delay = DefaultIndexRetryDelay
	}
	return &Orchestrator{
		log:             deps.Log,
		runs:            deps.Runs,
		notifier:        deps.Notifier,
		stockBasic:      deps.StockBasic,
		dailyQuote:      deps.DailyQuote,
		index:           deps.Index,
		calendar:        deps.Calendar,
		hotRank:         deps.HotRank,
		fundFlow:        deps.FundFlow,
		news:            deps.News,
		indexRetryDelay: delay,
	}
}

// RunDaily runs the after-close collection: today's quotes from the market
// snapshot, index levels, popularity rankings and fund flows. When index
// data looks late it schedules one delayed retry for the indices alone.
func (o *Orchestrator) RunDaily(ctx context.Context) RunReport {
	o.CancelPendingRetry()
	started := time.Now()
	runID := o.recordStart(ctx, entity.RunTypeDaily)

	today := utils.TruncateToDay(utils.TimeNowCST())
	var outcomes []Outcome

	outcomes = append(outcomes, o.dailyQuote.CollectLatest(ctx))

	indexOutcome, retryWanted := o.index.Collect(ctx, today, today, true)
	outcomes = append(outcomes, indexOutcome)
	if retryWanted {
		o.scheduleIndexRetry(today)
	}

	outcomes = append(outcomes, o.hotRank.CollectHotRank(ctx))
	outcomes = append(outcomes, o.hotRank.CollectHotUp(ctx))
	outcomes = append(outcomes, o.fundFlow.CollectSummary(ctx))
	outcomes = append(outcomes, o.fundFlow.CollectRanks(ctx))

	report := o.finishRun(ctx, runID, entity.RunTypeDaily, outcomes, started)
	o.notifyReport("每日行情采集", report)
	return report
}

// RunWeekly refreshes the slow-moving reference data: the stock master
// and the trading calendar.
func (o *Orchestrator) RunWeekly(ctx context.Context) RunReport {
	started := time.Now()
	runID := o.recordStart(ctx, entity.RunTypeWeekly)

	outcomes := []Outcome{
		o.stockBasic.Collect(ctx),
		o.calendar.Collect(ctx),
	}

	report := o.finishRun(ctx, runID, entity.RunTypeWeekly, outcomes, started)
	o.notifyReport("基础数据刷新", report)
	return report
}

// RunBackfill collects historical quotes and index levels for
// [start, end]. With resume enabled each stock and index continues from
// its own persisted watermark, so an interrupted backfill can simply be
// rerun.
func (o *Orchestrator) RunBackfill(ctx context.Context, start, end time.Time, resume bool, pacing PacingConfig) RunReport {
	started := time.Now()
	runID := o.recordStart(ctx, entity.RunTypeBackfill)

	var outcomes []Outcome
	outcomes = append(outcomes, o.stockBasic.Collect(ctx))
	outcomes = append(outcomes, o.dailyQuote.CollectAllHistory(ctx, start, end, resume, pacing))

	indexOutcome, _ := o.index.Collect(ctx, start, end, resume)
	outcomes = append(outcomes, indexOutcome)

	report := o.finishRun(ctx, runID, entity.RunTypeBackfill, outcomes, started)
	o.notifyReport("历史数据回补", report)
	return report
}

// RunNews runs one news pass and purges expired items. News runs every
// few minutes, so it only notifies on failure.
func (o *Orchestrator) RunNews(ctx context.Context) RunReport {
	started := time.Now()
	runID := o.recordStart(ctx, entity.RunTypeNews)

	outcomes := []Outcome{o.news.Collect(ctx)}
	if _, err := o.news.Purge(ctx); err != nil {
		o.log.Warn("news purge failed", logger.ErrorField(err))
	}

	report := o.finishRun(ctx, runID, entity.RunTypeNews, outcomes, started)
	if report.Status == entity.RunStatusFailed {
		o.notifyReport("新闻采集", report)
	}
	return report
}

// CancelPendingRetry stops the pending index retry, if any.
func (o *Orchestrator) CancelPendingRetry() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.retryTimer != nil {
		o.retryTimer.Stop()
		o.retryTimer = nil
		o.log.Info("cancelled pending index retry")
	}
}

// scheduleIndexRetry arms the one-shot timer that re-collects today's
// index levels. At most one retry is pending at a time; arming again
// replaces the previous timer.
func (o *Orchestrator) scheduleIndexRetry(day time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.retryTimer != nil {
		o.retryTimer.Stop()
	}
	o.log.Info("index data not published yet, scheduling one retry",
		logger.Field("delay", o.indexRetryDelay))
	var timer *time.Timer
	timer = time.AfterFunc(o.indexRetryDelay, func() {
		o.mu.Lock()
		// A fresh timer may have been armed since this one fired; only
		// clear the reference when it is still ours, so the new timer
		// stays cancellable.
		if o.retryTimer == timer {
			o.retryTimer = nil
		}
		o.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), indexRetryTimeout)
		defer cancel()

		outcome, _ := o.index.Collect(ctx, day, day, true)
		o.log.Info("index retry finished",
			logger.StringField("state", outcome.StateText),
			logger.IntField("written", outcome.RowsWritten))
	})
	o.retryTimer = timer
}

func (o *Orchestrator) recordStart(ctx context.Context, runType string) uint {
	run := &entity.CollectionRun{
		RunType:   runType,
		Status:    entity.RunStatusRunning,
		StartedAt: time.Now(),
	}
	if err := o.runs.Create(ctx, run); err != nil {
		o.log.Warn("failed to record run start", logger.ErrorField(err))
		return 0
	}
	return run.ID
}

func (o *Orchestrator) finishRun(ctx context.Context, runID uint, runType string, outcomes []Outcome, started time.Time) RunReport {
	report := RunReport{
		RunType:  runType,
		Status:   aggregateStatus(outcomes),
		Outcomes: outcomes,
		Duration: time.Since(started),
	}

	if runID != 0 {
		detail, err := json.Marshal(outcomes)
		if err != nil {
			o.log.Warn("failed to encode run detail", logger.ErrorField(err))
			detail = []byte("{}")
		}
		if err := o.runs.Finish(ctx, runID, report.Status, datatypes.JSON(detail)); err != nil {
			o.log.Warn("failed to record run finish", logger.ErrorField(err))
		}
	}

	o.log.Info("run finished",
		logger.StringField("run_type", runType),
		logger.StringField("status", report.Status),
		logger.Field("duration", report.Duration))
	return report
}

// aggregateStatus folds collector outcomes into a run status: failed when
// nothing succeeded, success when everything finished clean, partial
// otherwise.
func aggregateStatus(outcomes []Outcome) string {
	succeeded, clean := 0, 0
	for _, out := range outcomes {
		if out.Succeeded() {
			succeeded++
			if out.State == StateDone {
				clean++
			}
		}
	}
	switch {
	case succeeded == 0:
		return entity.RunStatusFailed
	case clean == len(outcomes):
		return entity.RunStatusSuccess
	default:
		return entity.RunStatusPartial
	}
}

func (o *Orchestrator) notifyReport(title string, report RunReport) {
	if o.notifier == nil {
		return
	}

	fields := []notify.CardField{
		{Label: "状态", Value: report.Status},
		{Label: "耗时", Value: report.Duration.Round(time.Second).String()},
	}
	for _, out := range report.Outcomes {
		value := fmt.Sprintf("%s, %d rows", out.StateText, out.RowsWritten)
		if out.ErrText != "" {
			value += ", " + out.ErrText
		}
		fields = append(fields, notify.CardField{Label: out.Entity, Value: value})
	}

	if err := o.notifier.SendCard(title, fields); err != nil {
		o.log.Warn("notification failed", logger.ErrorField(err))
	}
}
