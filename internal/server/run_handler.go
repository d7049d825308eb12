package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"ashare-data-collector/internal/collector"
	"ashare-data-collector/internal/repository"
	"ashare-data-collector/pkg/logger"
	"ashare-data-collector/pkg/utils"
)

const (
	defaultRunsLimit   = 20
	maxRunsLimit       = 100
	manualRunTimeout   = 2 * time.Hour
	manualNewsTimeout  = 10 * time.Minute
	defaultLookbackDay = 30
)

// RunHandler handles HTTP requests for collection runs: history lookups
// and manual triggers. Triggers are asynchronous; the handler responds
// 202 and the run proceeds in the background.
type RunHandler struct {
	orch   *collector.Orchestrator
	runs   repository.CollectionRunRepository
	logger *logger.Logger
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(orch *collector.Orchestrator, runs repository.CollectionRunRepository, logger *logger.Logger) *RunHandler {
	return &RunHandler{orch: orch, runs: runs, logger: logger}
}

// RegisterRoutes registers the run routes to the Echo group.
func (h *RunHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetRecentRuns)
	g.POST("/daily", h.TriggerDaily)
	g.POST("/weekly", h.TriggerWeekly)
	g.POST("/news", h.TriggerNews)
	g.POST("/backfill", h.TriggerBackfill)
}

// GetRecentRuns returns the most recent collection runs, newest first.
func (h *RunHandler) GetRecentRuns(c echo.Context) error {
	limit := defaultRunsLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		if parsed > maxRunsLimit {
			parsed = maxRunsLimit
		}
		limit = parsed
	}

	runs, err := h.runs.FindRecent(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, runs)
}

// TriggerDaily starts a daily collection run in the background. A manual
// daily run supersedes any pending index retry.
func (h *RunHandler) TriggerDaily(c echo.Context) error {
	h.startAsync("daily", manualRunTimeout, h.orch.RunDaily)
	return c.JSON(http.StatusAccepted, echo.Map{"status": "accepted", "run_type": "daily"})
}

// TriggerWeekly starts a reference-data refresh in the background.
func (h *RunHandler) TriggerWeekly(c echo.Context) error {
	h.startAsync("weekly", manualRunTimeout, h.orch.RunWeekly)
	return c.JSON(http.StatusAccepted, echo.Map{"status": "accepted", "run_type": "weekly"})
}

// TriggerNews starts one news pass in the background.
func (h *RunHandler) TriggerNews(c echo.Context) error {
	h.startAsync("news", manualNewsTimeout, h.orch.RunNews)
	return c.JSON(http.StatusAccepted, echo.Map{"status": "accepted", "run_type": "news"})
}

// BackfillRequest is the manual backfill trigger payload. Dates use the
// compact YYYYMMDD form; an empty window defaults to the last 30 days.
type BackfillRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Resume    *bool  `json:"resume"`
}

// TriggerBackfill starts a historical backfill in the background.
func (h *RunHandler) TriggerBackfill(c echo.Context) error {
	var req BackfillRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	end := utils.TruncateToDay(utils.TimeNowCST())
	start := end.AddDate(0, 0, -defaultLookbackDay)
	var err error
	if req.EndDate != "" {
		if end, err = utils.ParseCompactDate(req.EndDate); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid end_date"})
		}
	}
	if req.StartDate != "" {
		if start, err = utils.ParseCompactDate(req.StartDate); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid start_date"})
		}
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date before start_date"})
	}

	resume := true
	if req.Resume != nil {
		resume = *req.Resume
	}

	h.startAsync("backfill", manualRunTimeout, func(ctx context.Context) collector.RunReport {
		return h.orch.RunBackfill(ctx, start, end, resume, collector.DefaultPacing())
	})
	return c.JSON(http.StatusAccepted, echo.Map{
		"status":     "accepted",
		"run_type":   "backfill",
		"start_date": utils.FormatCompactDate(start),
		"end_date":   utils.FormatCompactDate(end),
	})
}

func (h *RunHandler) startAsync(name string, timeout time.Duration, run func(context.Context) collector.RunReport) {
	h.logger.Info("manual run triggered", logger.StringField("run_type", name))
	utils.GoSafe(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		run(ctx)
	})
}
