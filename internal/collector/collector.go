package collector

import (
	"time"
)

// RunState tracks a collector pass through its lifecycle. FETCHING can end
// in FAILED after retry exhaustion; FILTERING and UPSERTING can end in the
// soft PARTIAL state (rows dropped or trailing batches failed), which is
// still reported as a qualified success at the entity level.
type RunState int

const (
	StateIdle RunState = iota
	StateFetching
	StateNormalizing
	StateFiltering
	StateUpserting
	StateDone
	StateFailed
	StatePartial
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateNormalizing:
		return "normalizing"
	case StateFiltering:
		return "filtering"
	case StateUpserting:
		return "upserting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StatePartial:
		return "partial"
	default:
		return "unknown"
	}
}

// Outcome is the result of one collector pass.
type Outcome struct {
	Entity      string        `json:"entity"`
	State       RunState      `json:"-"`
	StateText   string        `json:"state"`
	RowsWritten int           `json:"rows_written"`
	RowsDropped int           `json:"rows_dropped"`
	Duration    time.Duration `json:"duration_ns"`
	Err         error         `json:"-"`
	ErrText     string        `json:"error,omitempty"`
}

// Succeeded reports whether the pass counts as a success for orchestration.
// PARTIAL is folded into success when at least one row was written, a
// lenient policy that favors forward progress over strict completeness.
func (o Outcome) Succeeded() bool {
	switch o.State {
	case StateDone:
		return true
	case StatePartial:
		return o.RowsWritten > 0
	default:
		return false
	}
}

// tracker builds an Outcome while a collector pass walks its states.
type tracker struct {
	entity  string
	state   RunState
	started time.Time
}

func newTracker(entity string) *tracker {
	return &tracker{entity: entity, state: StateIdle, started: time.Now()}
}

func (t *tracker) to(s RunState) {
	t.state = s
}

func (t *tracker) fail(err error) Outcome {
	t.state = StateFailed
	return t.outcome(0, 0, err)
}

// finish picks DONE or PARTIAL from what actually happened: dropped rows or
// a trailing upsert failure with earlier batches committed are PARTIAL; an
// upsert failure with nothing committed is FAILED.
func (t *tracker) finish(written, dropped int, upsertErr error) Outcome {
	switch {
	case upsertErr != nil && written == 0:
		t.state = StateFailed
	case upsertErr != nil || dropped > 0:
		t.state = StatePartial
	default:
		t.state = StateDone
	}
	return t.outcome(written, dropped, upsertErr)
}

func (t *tracker) outcome(written, dropped int, err error) Outcome {
	o := Outcome{
		Entity:      t.entity,
		State:       t.state,
		StateText:   t.state.String(),
		RowsWritten: written,
		RowsDropped: dropped,
		Duration:    time.Since(t.started),
		Err:         err,
	}
	if err != nil {
		o.ErrText = err.Error()
	}
	return o
}
