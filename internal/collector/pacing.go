package collector

import (
	"math/rand"
	"time"
)

// PacingConfig describes the advisory delays inserted between provider
// calls. It is passed explicitly per collection call; collectors hold no
// mutable pacing state.
type PacingConfig struct {
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	RandomDelay time.Duration `mapstructure:"random_delay"`
	BatchDelay  time.Duration `mapstructure:"batch_delay"`
	BatchSize   int           `mapstructure:"batch_size"`
}

// DefaultPacing matches the historical-backfill profile.
func DefaultPacing() PacingConfig {
	return PacingConfig{
		BaseDelay:   100 * time.Millisecond,
		RandomDelay: 200 * time.Millisecond,
		BatchDelay:  2 * time.Second,
		BatchSize:   50,
	}
}

// Pacer inserts wall-clock delays between units of work. It is purely
// advisory pacing, not a rate limiter: no token accounting, no burst
// protection beyond the periodic batch pause.
type Pacer struct {
	cfg   PacingConfig
	sleep func(time.Duration)
	rng   *rand.Rand
}

// NewPacer creates a Pacer for one collection pass.
func NewPacer(cfg PacingConfig) *Pacer {
	return &Pacer{
		cfg:   cfg,
		sleep: time.Sleep,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Wait sleeps base + uniform(0, random) after the unit at sequenceIndex,
// plus the longer batch delay once every BatchSize units.
func (p *Pacer) Wait(sequenceIndex int) {
	delay := p.cfg.BaseDelay
	if p.cfg.RandomDelay > 0 {
		delay += time.Duration(p.rng.Int63n(int64(p.cfg.RandomDelay)))
	}
	if delay > 0 {
		p.sleep(delay)
	}

	if p.cfg.BatchSize > 0 && sequenceIndex > 0 && (sequenceIndex+1)%p.cfg.BatchSize == 0 && p.cfg.BatchDelay > 0 {
		p.sleep(p.cfg.BatchDelay)
	}
}
