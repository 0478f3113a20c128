package channel

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/xhrcomm/internal/identity"
	"github.com/danmuck/xhrcomm/internal/observability"
	"github.com/danmuck/xhrcomm/internal/protocol"
	"github.com/rs/zerolog/log"
)

var (
	ErrClosed           = errors.New("channel: closed")
	ErrTransportMissing = errors.New("channel: transport required")
)

// Config describes one logical channel.
type Config struct {
	Namespace string
	// ID overrides the generated session identifier.
	ID   identity.ID
	Poll PollConfig
}

func DefaultConfig() Config {
	return Config{Poll: DefaultPollConfig()}
}

func (c Config) WithDefaults() Config {
	c.Poll = c.Poll.WithDefaults()
	if c.ID == "" {
		c.ID = identity.New()
	}
	return c
}

// Snapshot is a point-in-time view of a channel's loop state.
type Snapshot struct {
	Namespace    string
	ID           identity.ID
	State        State
	Interval     time.Duration
	RelaxCounter int
	Pending      int
	Started      uint64
	Completed    uint64
}

// Channel is one emulated socket: outbound tasks are batched into exchanges
// and inbound events are dispatched strictly in order.
type Channel struct {
	cfg       Config
	transport Transport
	queue     *TaskQueue
	reporter  *Reporter

	// mu guards registry and conn together so a connect transition and the
	// handler snapshot for it are atomic with respect to On.
	mu       sync.Mutex
	registry *Registry
	conn     connTracker

	// loop-owned
	poller    *Poller
	started   uint64
	completed uint64

	kick      chan struct{}
	results   chan exchangeResult
	snapshots chan chan Snapshot

	// life orders the pre-start snapshot against Start handing the poller
	// to the loop.
	life      sync.Mutex
	running   atomic.Bool
	startOnce sync.Once
	closeOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
	inflight  sync.WaitGroup
}

// New builds a channel. Nothing is sent until Start.
func New(cfg Config, transport Transport) (*Channel, error) {
	if transport == nil {
		return nil, ErrTransportMissing
	}
	cfg = cfg.WithDefaults()
	c := &Channel{
		cfg:       cfg,
		transport: transport,
		queue:     NewTaskQueue(),
		registry:  NewRegistry(),
		poller:    NewPoller(cfg.Poll),
		kick:      make(chan struct{}, 1),
		results:   make(chan exchangeResult),
		snapshots: make(chan chan Snapshot),
		done:      make(chan struct{}),
	}
	c.reporter = NewReporter(c.Emit)
	return c, nil
}

func (c *Channel) ID() identity.ID {
	return c.cfg.ID
}

func (c *Channel) Namespace() string {
	return c.cfg.Namespace
}

// Start launches the loop. No exchange happens until the first Emit, so
// a started channel nobody emits on stays silent; Client.Connect emits the
// opening connect task. Tasks emitted before Start go out in that first
// exchange.
func (c *Channel) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.life.Lock()
		defer c.life.Unlock()
		loopCtx, cancel := context.WithCancel(ctx)
		c.cancel = cancel
		c.running.Store(true)
		go c.run(loopCtx)
	})
}

// Close stops the loop and waits for in-flight exchanges to return.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.startOnce.Do(func() {
			close(c.done)
		})
		if c.cancel != nil {
			c.cancel()
			<-c.done
		}
		c.inflight.Wait()
		c.running.Store(false)
	})
	return nil
}

// Emit queues an outbound command and forces a fast exchange. An empty name
// only forces the exchange. A task whose args cannot be encoded is not
// queued; it is reported as an error task instead.
func (c *Channel) Emit(name string, args ...any) {
	if name != "" {
		task := protocol.NewEvent(name, args...)
		if err := protocol.CheckEncodable(task); err != nil {
			log.Warn().Msgf("channel.Channel dropped task ns=%q err=%v", c.cfg.Namespace, err)
			c.reporter.Report(err)
			return
		}
		c.queue.Push(task)
	}
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// On registers h for name. A connect handler registered while connected is
// also invoked right away with the params of the last connect.
func (c *Channel) On(name string, h Handler) {
	if h == nil {
		return
	}
	c.mu.Lock()
	c.registry.On(name, h)
	replay := name == protocol.EventConnect && c.conn.state == StateConnected
	args := slices.Clone(c.conn.last)
	c.mu.Unlock()

	if replay {
		c.dispatch(protocol.Event{Name: protocol.EventConnect, Args: args}, []Handler{h})
	}
}

// Log reports err to the server as an error task.
func (c *Channel) Log(err error) {
	c.reporter.Report(err)
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.state
}

// Snapshot asks the loop for its current poll state. Handlers run on the
// loop, so calling Snapshot or Close from inside one deadlocks.
func (c *Channel) Snapshot() Snapshot {
	c.life.Lock()
	if !c.running.Load() {
		defer c.life.Unlock()
		return c.snapshot()
	}
	c.life.Unlock()

	reply := make(chan Snapshot, 1)
	select {
	case c.snapshots <- reply:
		return <-reply
	case <-c.done:
		// loop has exited and no longer touches its state
		return c.snapshot()
	}
}

func (c *Channel) snapshot() Snapshot {
	return Snapshot{
		Namespace:    c.cfg.Namespace,
		ID:           c.cfg.ID,
		State:        c.State(),
		Interval:     c.poller.Interval(),
		RelaxCounter: c.poller.RelaxCounter(),
		Pending:      c.queue.Len(),
		Started:      c.started,
		Completed:    c.completed,
	}
}

func (c *Channel) run(ctx context.Context) {
	defer close(c.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	log.Debug().Msgf("channel.Channel start ns=%q id=%s", c.cfg.Namespace, c.cfg.ID)
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msgf("channel.Channel stop ns=%q id=%s", c.cfg.Namespace, c.cfg.ID)
			return
		case <-c.kick:
			c.poller.Stress()
			timer.Stop()
			observability.SetPollInterval(c.cfg.Namespace, c.poller.Interval())
			c.exchange(ctx)
		case <-timer.C:
			c.exchange(ctx)
		case res := <-c.results:
			c.completeAndReschedule(res, timer)
		case reply := <-c.snapshots:
			reply <- c.snapshot()
		}
	}
}

func (c *Channel) exchange(ctx context.Context) {
	c.started++
	req := protocol.Request{
		ID:        c.cfg.ID.String(),
		Namespace: c.cfg.Namespace,
		Tasks:     c.queue.Drain(),
	}
	seq := c.started

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		start := time.Now()
		events, err := c.transport.Exchange(ctx, req)
		res := exchangeResult{
			seq:    seq,
			tasks:  len(req.Tasks),
			events: events,
			err:    err,
			took:   time.Since(start),
		}
		select {
		case c.results <- res:
		case <-ctx.Done():
		}
	}()
}

func (c *Channel) completeAndReschedule(res exchangeResult, timer *time.Timer) {
	defer func() {
		interval := c.poller.Interval()
		observability.SetPollInterval(c.cfg.Namespace, interval)
		timer.Reset(interval)
	}()
	c.complete(res)
}

func (c *Channel) complete(res exchangeResult) {
	c.completed++
	outcome := res.outcome()
	observability.RecordExchange(c.cfg.Namespace, string(outcome), res.took, res.tasks, len(res.events))

	switch outcome {
	case OutcomeFailure:
		c.poller.Increase()
		log.Warn().Msgf("channel.Channel exchange failed ns=%q seq=%d dropped_tasks=%d err=%v",
			c.cfg.Namespace, res.seq, res.tasks, res.err)
		c.dispatchLocal(protocol.NewEvent(protocol.EventError, res.err.Error()))
	case OutcomeIdle:
		c.poller.Increase()
	case OutcomeData:
		c.poller.Relax()
		for _, ev := range res.events {
			c.deliver(ev)
		}
	}
}

// deliver routes one inbound event through connection state, then to
// handlers. Failures are contained per delivery so later events still run.
func (c *Channel) deliver(ev protocol.Event) {
	c.mu.Lock()
	out := c.conn.observe(ev)
	batch := make([][]Handler, len(out))
	for i, d := range out {
		batch[i] = c.registry.Handlers(d.Name)
	}
	c.mu.Unlock()

	for i, d := range out {
		c.dispatch(d, batch[i])
	}
}

func (c *Channel) dispatchLocal(ev protocol.Event) {
	c.mu.Lock()
	handlers := c.registry.Handlers(ev.Name)
	c.mu.Unlock()
	c.dispatch(ev, handlers)
}

func (c *Channel) dispatch(ev protocol.Event, handlers []Handler) {
	c.handleFailure(ev.Name, dispatch(ev.Name, handlers, ev.Args), ev.Name == protocol.EventError)
}

// handleFailure reports a dispatch failure unless suppressReport is set,
// which keeps failing error handlers from feeding the reporter again.
func (c *Channel) handleFailure(event string, err error, suppressReport bool) {
	if err == nil {
		return
	}
	observability.RecordDispatchFailure(c.cfg.Namespace, event)
	if suppressReport {
		log.Debug().Msgf("channel.Channel error handler failed ns=%q err=%v", c.cfg.Namespace, err)
		return
	}
	log.Warn().Msgf("channel.Channel dispatch failed ns=%q event=%q err=%v", c.cfg.Namespace, event, err)
	c.reporter.Report(err)
}
