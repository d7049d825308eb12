package collector

import (
	"time"

	"ashare-data-collector/pkg/utils"
)

// ResumeAction is the watermark resolver's decision for a requested window.
type ResumeAction int

const (
	// ActionFull collects the whole declared window (no data persisted yet).
	ActionFull ResumeAction = iota
	// ActionResume collects from the day after the persisted watermark.
	ActionResume
	// ActionSkip means the window is already fully persisted.
	ActionSkip
)

func (a ResumeAction) String() string {
	switch a {
	case ActionFull:
		return "full"
	case ActionResume:
		return "resume"
	case ActionSkip:
		return "skip"
	}
	return "unknown"
}

// ResolveStart computes the effective collection start for a declared
// [start, end] window given the latest persisted date for the entity key.
//
//   - no persisted date           -> FULL from declaredStart
//   - latest >= declaredEnd       -> SKIP
//   - otherwise                   -> RESUME from max(latest+1day, declaredStart)
//
// This makes multi-day backfills restartable after partial failure without
// re-fetching already-stored days.
func ResolveStart(latest *time.Time, declaredStart, declaredEnd time.Time) (time.Time, ResumeAction) {
	declaredStart = utils.TruncateToDay(declaredStart)
	declaredEnd = utils.TruncateToDay(declaredEnd)

	if latest == nil {
		return declaredStart, ActionFull
	}

	latestDay := utils.TruncateToDay(*latest)
	if !latestDay.Before(declaredEnd) {
		return time.Time{}, ActionSkip
	}

	next := latestDay.AddDate(0, 0, 1)
	if next.Before(declaredStart) {
		next = declaredStart
	}
	return next, ActionResume
}
