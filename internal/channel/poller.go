package channel

import "time"

// PollConfig tunes heartbeat pacing.
type PollConfig struct {
	// StressInterval is the cadence right after a local emit.
	StressInterval time.Duration
	// BaseInterval is the cadence after an exchange that carried events.
	BaseInterval time.Duration
	// MaxInterval caps idle backoff.
	MaxInterval time.Duration
	// Step is the additive growth per idle cycle once coasting is over.
	Step time.Duration
	// RelaxThreshold is how many idle cycles are tolerated before growing.
	// Zero selects the default; a negative value disables coasting.
	RelaxThreshold int
}

func DefaultPollConfig() PollConfig {
	return PollConfig{
		StressInterval: 100 * time.Millisecond,
		BaseInterval:   250 * time.Millisecond,
		MaxInterval:    time.Second,
		Step:           250 * time.Millisecond,
		RelaxThreshold: 10,
	}
}

func (c PollConfig) WithDefaults() PollConfig {
	d := DefaultPollConfig()
	if c.StressInterval <= 0 {
		c.StressInterval = d.StressInterval
	}
	if c.BaseInterval <= 0 {
		c.BaseInterval = d.BaseInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = d.MaxInterval
	}
	if c.MaxInterval < c.BaseInterval {
		c.MaxInterval = c.BaseInterval
	}
	if c.Step <= 0 {
		c.Step = d.Step
	}
	if c.RelaxThreshold == 0 {
		c.RelaxThreshold = d.RelaxThreshold
	}
	return c
}

// Poller decides when the next exchange fires. It is owned by one loop and
// is not safe for concurrent use.
type Poller struct {
	cfg      PollConfig
	relax    int
	interval time.Duration
}

func NewPoller(cfg PollConfig) *Poller {
	cfg = cfg.WithDefaults()
	return &Poller{cfg: cfg, interval: cfg.BaseInterval}
}

// Stress switches to the fast cadence and restarts the coasting budget.
func (p *Poller) Stress() {
	p.relax = 0
	p.interval = p.cfg.StressInterval
}

// Increase records an idle or failed exchange: coast first, then grow the
// interval by one step up to the ceiling.
func (p *Poller) Increase() {
	if p.relax < p.cfg.RelaxThreshold {
		p.relax++
		return
	}
	if p.interval < p.cfg.MaxInterval {
		p.interval = min(p.interval+p.cfg.Step, p.cfg.MaxInterval)
	}
}

// Relax records an exchange that carried events. The coasting budget is
// spent, so the next idle cycle starts growing right away.
func (p *Poller) Relax() {
	p.relax = max(p.cfg.RelaxThreshold, 0)
	p.interval = p.cfg.BaseInterval
}

func (p *Poller) Interval() time.Duration {
	return p.interval
}

func (p *Poller) RelaxCounter() int {
	return p.relax
}

func (p *Poller) Config() PollConfig {
	return p.cfg
}
