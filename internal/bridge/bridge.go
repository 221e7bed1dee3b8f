package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lafe/teams2mqtt/internal/broker"
	"github.com/lafe/teams2mqtt/internal/discovery"
	"github.com/lafe/teams2mqtt/internal/teams"
)

const (
	// DefaultRefreshInterval is the default meeting status poll interval.
	DefaultRefreshInterval = 30 * time.Second

	// eventQueueSize bounds the upstream event queue.
	eventQueueSize = 100

	// actionTimeout bounds one inbound command.
	actionTimeout = 5 * time.Second
)

// Upstream is the conferencing API client.
type Upstream interface {
	Connect(ctx context.Context) error
	Close() error
	State() teams.State
	Current() (*teams.MeetingState, *teams.MeetingPermissions)
	Stats() teams.Stats

	OnConnectionEstablished(fn func()) (remove func())
	OnConnectionClosed(fn func()) (remove func())
	OnMeetingUpdate(fn func(teams.MeetingUpdateMessage)) (remove func())
	OnTokenRefresh(fn func(token string)) (remove func())

	RequestMeetingStatus(ctx context.Context) error
	ToggleMute(ctx context.Context) error
	ToggleVideo(ctx context.Context) error
	ToggleRaisedHand(ctx context.Context) error
	ToggleBackgroundBlur(ctx context.Context) error
	LeaveCall(ctx context.Context) error
	ReactApplause(ctx context.Context) error
	ReactLaugh(ctx context.Context) error
	ReactLike(ctx context.Context) error
	ReactLove(ctx context.Context) error
	ReactWow(ctx context.Context) error
}

// Broker is the MQTT side of the bridge.
type Broker interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	PublishDiscovery(ctx context.Context, schema discovery.Schema) error
	RemoveDiscovery(ctx context.Context, schema discovery.Schema) error
	SendUpdates(schema discovery.Schema, values map[string]bool)
	SendOnlineAvailability()
	SendOfflineAvailability()
	OnAction(fn func(broker.Action)) (remove func())
	Enabled() bool
	IsConnected() bool
}

var (
	_ Upstream = (*teams.Client)(nil)
	_ Broker   = (*broker.Client)(nil)
)

// Recorder stores relayed snapshots, for example in InfluxDB.
type Recorder interface {
	RecordState(typeName string, values map[string]bool)
	RecordConnection(connected bool)
}

// TokenStore persists refreshed API tokens.
type TokenStore interface {
	Update(ctx context.Context, token string) error
}

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures a Bridge.
type Options struct {
	Upstream    Upstream
	Broker      Broker
	States      *discovery.Record[teams.MeetingState]
	Permissions *discovery.Record[teams.MeetingPermissions]

	// RefreshInterval defaults to DefaultRefreshInterval.
	RefreshInterval time.Duration

	// Recorder and Tokens are optional.
	Recorder Recorder
	Tokens   TokenStore

	Logger Logger
}

// Status is a snapshot of the bridge for health reporting.
type Status struct {
	Upstream        string                    `json:"upstream"`
	BrokerEnabled   bool                      `json:"broker_enabled"`
	BrokerConnected bool                      `json:"broker_connected"`
	StartedAt       time.Time                 `json:"started_at"`
	MeetingState    *teams.MeetingState       `json:"meeting_state,omitempty"`
	Permissions     *teams.MeetingPermissions `json:"meeting_permissions,omitempty"`
	UpstreamStats   teams.Stats               `json:"upstream_stats"`
	EventsDropped   uint64                    `json:"events_dropped"`
}

type task struct {
	name string
	fn   func()
}

// Bridge relays meeting updates to MQTT and MQTT commands to the API.
type Bridge struct {
	upstream    Upstream
	broker      Broker
	states      *discovery.Record[teams.MeetingState]
	permissions *discovery.Record[teams.MeetingPermissions]
	recorder    Recorder
	tokens      TokenStore
	logger      Logger
	refresh     time.Duration

	mu        sync.Mutex
	started   bool
	stopped   bool
	startedAt time.Time

	// Handler registrations, removed in reverse order on Stop.
	removeAction   func()
	removeUpstream []func()

	queueMu       sync.RWMutex
	queue         chan task
	queueClosed   bool
	workerRunning atomic.Bool
	dropped       atomic.Uint64

	ctx         context.Context
	cancel      context.CancelFunc
	refreshStop chan struct{}
	refreshWG   sync.WaitGroup
	wg          sync.WaitGroup
}

// New creates a bridge. It does not start anything; call Start.
//
// Parameters:
//   - opts: Upstream and broker clients, discovery records, optional
//     recorder and token store
//
// Returns:
//   - *Bridge: Bridge ready to Start
//   - error: Wraps ErrInvalidOptions if a required dependency is missing
func New(opts Options) (*Bridge, error) {
	switch {
	case opts.Upstream == nil:
		return nil, fmt.Errorf("%w: upstream is required", ErrInvalidOptions)
	case opts.Broker == nil:
		return nil, fmt.Errorf("%w: broker is required", ErrInvalidOptions)
	case opts.States == nil || opts.Permissions == nil:
		return nil, fmt.Errorf("%w: discovery records are required", ErrInvalidOptions)
	}

	refresh := opts.RefreshInterval
	if refresh <= 0 {
		refresh = DefaultRefreshInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		upstream:    opts.Upstream,
		broker:      opts.Broker,
		states:      opts.States,
		permissions: opts.Permissions,
		recorder:    opts.Recorder,
		tokens:      opts.Tokens,
		logger:      logger,
		refresh:     refresh,
		queue:       make(chan task, eventQueueSize),
		ctx:         ctx,
		cancel:      cancel,
		refreshStop: make(chan struct{}),
	}, nil
}

// =============================================================================
// Startup
// =============================================================================

// Start runs the startup sequence. Each step completes before the next.
// Broker start and discovery errors abort the sequence; an upstream
// connect failure is left to the reconnect timer.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	b.started = true
	b.startedAt = time.Now()
	b.mu.Unlock()

	b.removeAction = b.broker.OnAction(b.handleAction)

	if err := b.broker.Start(ctx); err != nil {
		return fmt.Errorf("starting broker client: %w", err)
	}
	if err := b.broker.PublishDiscovery(ctx, b.states); err != nil {
		return fmt.Errorf("publishing %s discovery: %w", b.states.TypeName(), err)
	}
	if err := b.broker.PublishDiscovery(ctx, b.permissions); err != nil {
		return fmt.Errorf("publishing %s discovery: %w", b.permissions.TypeName(), err)
	}

	b.wg.Add(1)
	b.workerRunning.Store(true)
	go b.eventWorker()

	b.removeUpstream = append(b.removeUpstream,
		b.upstream.OnConnectionEstablished(func() {
			b.enqueue("connection established", b.handleEstablished)
		}),
		b.upstream.OnConnectionClosed(func() {
			b.enqueue("connection closed", b.handleClosed)
		}),
		b.upstream.OnMeetingUpdate(func(msg teams.MeetingUpdateMessage) {
			b.enqueue("meeting update", func() { b.handleUpdate(msg) })
		}),
		b.upstream.OnTokenRefresh(func(token string) {
			b.enqueue("token refresh", func() { b.handleTokenRefresh(token) })
		}),
	)

	if err := b.upstream.Connect(ctx); err != nil {
		b.logger.Warn("initial connection to conferencing API failed, retrying in background", "error", err)
	}

	b.refreshWG.Add(1)
	go b.refreshLoop()

	b.logger.Info("bridge started", "refresh_interval", b.refresh)
	return nil
}

// =============================================================================
// Shutdown
// =============================================================================

// Stop runs the shutdown sequence in reverse startup order. Every step
// runs even if an earlier one fails; the failures are returned joined.
func (b *Bridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.started || b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.stopped = true
	b.mu.Unlock()

	var errs []error

	// Timers stop, and an in-flight tick finishes, before the connections
	// they use are disposed
	close(b.refreshStop)
	b.cancel()
	b.refreshWG.Wait()

	if b.removeAction != nil {
		b.removeAction()
	}

	// Let queued handlers finish against a live broker
	b.flushEvents(ctx)

	if err := b.broker.RemoveDiscovery(ctx, b.states); err != nil {
		b.logger.Error("failed to remove discovery", "type", b.states.TypeName(), "error", err)
		errs = append(errs, err)
	}
	if err := b.broker.RemoveDiscovery(ctx, b.permissions); err != nil {
		b.logger.Error("failed to remove discovery", "type", b.permissions.TypeName(), "error", err)
		errs = append(errs, err)
	}
	if err := b.broker.Stop(ctx); err != nil {
		b.logger.Error("failed to stop broker client", "error", err)
		errs = append(errs, err)
	}

	for i := len(b.removeUpstream) - 1; i >= 0; i-- {
		b.removeUpstream[i]()
	}
	if err := b.upstream.Close(); err != nil {
		b.logger.Error("failed to close conferencing API client", "error", err)
		errs = append(errs, err)
	}

	b.closeQueue()
	b.wg.Wait()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	b.logger.Info("bridge stopped")
	return nil
}

// =============================================================================
// Status
// =============================================================================

// Status returns a snapshot of both connections and the cached meeting state.
func (b *Bridge) Status() Status {
	state, perms := b.upstream.Current()

	b.mu.Lock()
	startedAt := b.startedAt
	b.mu.Unlock()

	return Status{
		Upstream:        b.upstream.State().String(),
		BrokerEnabled:   b.broker.Enabled(),
		BrokerConnected: b.broker.IsConnected(),
		StartedAt:       startedAt,
		MeetingState:    state,
		Permissions:     perms,
		UpstreamStats:   b.upstream.Stats(),
		EventsDropped:   b.dropped.Load(),
	}
}

// =============================================================================
// Event Handlers
// =============================================================================

func (b *Bridge) handleEstablished() {
	b.broker.SendOnlineAvailability()
	if b.recorder != nil {
		b.recorder.RecordConnection(true)
	}
}

func (b *Bridge) handleClosed() {
	b.broker.SendOfflineAvailability()
	if b.recorder != nil {
		b.recorder.RecordConnection(false)
	}
}

// handleUpdate relays each half of an update that is present.
func (b *Bridge) handleUpdate(msg teams.MeetingUpdateMessage) {
	if state, ok := msg.State(); ok {
		b.relay(b.states, b.states.Values(state))
	} else {
		b.logger.Warn("meeting update without meeting state")
	}

	if perms, ok := msg.Permissions(); ok {
		b.relay(b.permissions, b.permissions.Values(perms))
	} else {
		b.logger.Warn("meeting update without meeting permissions")
	}
}

func (b *Bridge) relay(schema discovery.Schema, values map[string]bool) {
	b.broker.SendUpdates(schema, values)
	if b.recorder != nil {
		b.recorder.RecordState(schema.TypeName(), values)
	}
}

func (b *Bridge) handleTokenRefresh(token string) {
	if b.tokens == nil {
		return
	}
	if err := b.tokens.Update(b.ctx, token); err != nil {
		b.logger.Error("failed to store refreshed token", "error", err)
	}
}

// handleAction runs on the MQTT callback goroutine. Unknown commands are
// already logged by the broker client.
func (b *Bridge) handleAction(a broker.Action) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("action panic recovered", "command", a.CommandID, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(b.ctx, actionTimeout)
	defer cancel()

	err := b.Execute(ctx, a.CommandID)
	switch {
	case err == nil:
		b.logger.Debug("action executed", "command", a.CommandID)
	case errors.Is(err, ErrUnknownCommand):
	default:
		b.logger.Error("action failed", "command", a.CommandID, "error", err)
	}
}

// =============================================================================
// Refresh Timer
// =============================================================================

func (b *Bridge) refreshLoop() {
	defer b.refreshWG.Done()

	ticker := time.NewTicker(b.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-b.refreshStop:
			return
		case <-ticker.C:
			if b.upstream.State() != teams.StateOpen {
				continue
			}
			if err := b.upstream.RequestMeetingStatus(b.ctx); err != nil {
				b.logger.Warn("meeting status refresh failed", "error", err)
			}
		}
	}
}

// =============================================================================
// Event Queue
// =============================================================================

// enqueue hands fn to the event worker. The event is dropped when the
// queue is full or closed.
func (b *Bridge) enqueue(name string, fn func()) {
	b.queueMu.RLock()
	defer b.queueMu.RUnlock()

	if b.queueClosed {
		b.logger.Debug("bridge stopping, dropping event", "event", name)
		return
	}

	select {
	case b.queue <- task{name: name, fn: fn}:
	default:
		b.dropped.Add(1)
		b.logger.Error("event queue full, dropping event", "event", name)
	}
}

func (b *Bridge) eventWorker() {
	defer b.wg.Done()

	for t := range b.queue {
		b.run(t)
	}
}

func (b *Bridge) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panic recovered", "event", t.name, "panic", r)
		}
	}()
	t.fn()
}

// flushEvents waits until every event queued so far has been handled.
func (b *Bridge) flushEvents(ctx context.Context) {
	done := make(chan struct{})

	if !b.workerRunning.Load() {
		return
	}

	b.queueMu.RLock()
	if b.queueClosed {
		b.queueMu.RUnlock()
		return
	}
	select {
	case b.queue <- task{name: "flush", fn: func() { close(done) }}:
	case <-ctx.Done():
		b.queueMu.RUnlock()
		return
	}
	b.queueMu.RUnlock()

	select {
	case <-done:
	case <-ctx.Done():
		b.logger.Warn("timed out waiting for queued events", "error", ctx.Err())
	}
}

func (b *Bridge) closeQueue() {
	b.queueMu.Lock()
	if !b.queueClosed {
		b.queueClosed = true
		close(b.queue)
	}
	b.queueMu.Unlock()
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
