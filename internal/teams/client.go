package teams

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lafe/teams2mqtt/internal/event"
)

// Protocol and client identification sent in the connection URL.
const (
	ProtocolVersion = "2.0.0"
	AppName         = "teams2mqtt"
)

const (
	// DefaultPort is the port of the local API.
	DefaultPort = 8124

	// DefaultReconnectInterval is how often a lost connection is retried.
	DefaultReconnectInterval = 10 * time.Second

	// handshakeTimeout bounds the websocket handshake.
	handshakeTimeout = 10 * time.Second

	// writeTimeout bounds a single frame write.
	writeTimeout = 5 * time.Second

	// closeTimeout bounds the wait for the remote close handshake.
	closeTimeout = 3 * time.Second

	// receiveChunkSize is the read size used while reassembling messages.
	receiveChunkSize = 1024
)

// State is the connection state of a Client.
type State int32

// Connection states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Logger defines the logging interface used by the client.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// TokenSource supplies the current API token for new connections.
type TokenSource interface {
	Token() string
}

// Options configures a Client.
type Options struct {
	Host string
	Port int

	// Tokens supplies the token query parameter. Optional.
	Tokens TokenSource

	// Manufacturer and Device identify this integration to the API.
	Manufacturer string
	Device       string
	AppVersion   string

	// ReconnectInterval defaults to DefaultReconnectInterval.
	ReconnectInterval time.Duration

	// Dialer overrides the websocket dialer. Optional.
	Dialer *websocket.Dialer

	Logger Logger
}

// Stats holds client counters.
type Stats struct {
	FramesReceived    uint64 `json:"frames_received"`
	DecodeErrors      uint64 `json:"decode_errors"`
	CommandsSent      uint64 `json:"commands_sent"`
	PermissionDenials uint64 `json:"permission_denials"`
	Connects          uint64 `json:"connects"`
	ConnectFailures   uint64 `json:"connect_failures"`
}

// Client is a connection to the local conferencing API.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Frames are processed strictly in arrival order on one goroutine.
type Client struct {
	opts   Options
	dialer *websocket.Dialer
	logger Logger

	state atomic.Int32

	// connMu guards conn and listenerDone.
	connMu       sync.Mutex
	conn         *websocket.Conn
	listenerDone chan struct{}

	// writeMu serialises frame writes.
	writeMu sync.Mutex

	requests RequestSequence

	// current is the last relayed update, replaced whole on every update.
	// Written only by the receive loop.
	current atomic.Pointer[MeetingUpdateMessage]

	established  event.List[struct{}]
	closed       event.List[struct{}]
	updates      event.List[MeetingUpdateMessage]
	tokenRefresh event.List[string]
	stateChanges event.List[State]

	// Lifecycle
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	stopOnce  sync.Once
	timerOnce sync.Once
	timerWG   sync.WaitGroup
	wg        sync.WaitGroup

	// Statistics
	framesReceived    atomic.Uint64
	decodeErrors      atomic.Uint64
	commandsSent      atomic.Uint64
	permissionDenials atomic.Uint64
	connects          atomic.Uint64
	connectFailures   atomic.Uint64
}

// NewClient creates a client. It does not connect; call Connect.
//
// Parameters:
//   - opts: API endpoint, token source, identity and reconnect interval
//
// Returns:
//   - *Client: Disconnected client
//   - error: Wraps ErrInvalidOptions if the host is missing or the port is out of range
func NewClient(opts Options) (*Client, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidOptions)
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Port < 1 || opts.Port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ErrInvalidOptions, opts.Port)
	}
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = DefaultReconnectInterval
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		opts:   opts,
		dialer: dialer,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	onPanic := func(r any) {
		c.logError("event handler panic recovered", "panic", r)
	}
	c.established.SetPanicHandler(onPanic)
	c.closed.SetPanicHandler(onPanic)
	c.updates.SetPanicHandler(onPanic)
	c.tokenRefresh.SetPanicHandler(onPanic)
	c.stateChanges.SetPanicHandler(onPanic)

	return c, nil
}

// =============================================================================
// Events
// =============================================================================

// OnConnectionEstablished registers fn for successful connections.
func (c *Client) OnConnectionEstablished(fn func()) (remove func()) {
	return c.established.Add(func(struct{}) { fn() })
}

// OnConnectionClosed registers fn for closed connections.
func (c *Client) OnConnectionClosed(fn func()) (remove func()) {
	return c.closed.Add(func(struct{}) { fn() })
}

// OnMeetingUpdate registers fn for decoded meeting updates.
func (c *Client) OnMeetingUpdate(fn func(MeetingUpdateMessage)) (remove func()) {
	return c.updates.Add(fn)
}

// OnTokenRefresh registers fn for tokens issued by the API.
func (c *Client) OnTokenRefresh(fn func(token string)) (remove func()) {
	return c.tokenRefresh.Add(fn)
}

// OnStateChange registers fn for every connection state transition.
func (c *Client) OnStateChange(fn func(State)) (remove func()) {
	return c.stateChanges.Add(fn)
}

// =============================================================================
// State
// =============================================================================

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// transition moves from one state to another if the client is in from.
func (c *Client) transition(from, to State) bool {
	if !c.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	c.stateChanges.Emit(to)
	return true
}

// setState moves to s unconditionally.
func (c *Client) setState(s State) {
	if State(c.state.Swap(int32(s))) != s {
		c.stateChanges.Emit(s)
	}
}

// Current returns the meeting state and permissions of the last update.
// A half the last update did not carry is nil, even if an earlier update
// carried it.
func (c *Client) Current() (*MeetingState, *MeetingPermissions) {
	msg := c.current.Load()
	if msg == nil {
		return nil, nil
	}

	var (
		state *MeetingState
		perms *MeetingPermissions
	)
	if s, ok := msg.State(); ok {
		state = &s
	}
	if p, ok := msg.Permissions(); ok {
		perms = &p
	}
	return state, perms
}

// Stats returns a snapshot of the client counters.
func (c *Client) Stats() Stats {
	return Stats{
		FramesReceived:    c.framesReceived.Load(),
		DecodeErrors:      c.decodeErrors.Load(),
		CommandsSent:      c.commandsSent.Load(),
		PermissionDenials: c.permissionDenials.Load(),
		Connects:          c.connects.Load(),
		ConnectFailures:   c.connectFailures.Load(),
	}
}

// =============================================================================
// Connection Lifecycle
// =============================================================================

// URL returns the websocket URL including the identification query.
func (c *Client) URL() string {
	q := url.Values{}
	if c.opts.Tokens != nil {
		if token := c.opts.Tokens.Token(); token != "" {
			q.Set("token", token)
		}
	}
	q.Set("protocol-version", ProtocolVersion)
	q.Set("manufacturer", c.opts.Manufacturer)
	q.Set("device", c.opts.Device)
	q.Set("app", AppName)
	q.Set("app-version", c.opts.AppVersion)

	u := url.URL{
		Scheme:   "ws",
		Host:     net.JoinHostPort(c.opts.Host, strconv.Itoa(c.opts.Port)),
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Connect opens the websocket connection.
//
// It is a no-op unless the client is Disconnected, so concurrent callers
// never start two attempts. On success the receive loop is started and a
// meeting status snapshot is requested. Failures are logged and returned;
// the reconnect timer retries on its next tick.
func (c *Client) Connect(ctx context.Context) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	if !c.transition(StateDisconnected, StateConnecting) {
		c.logDebug("connect skipped", "state", c.State())
		return nil
	}
	c.startReconnectTimer()

	c.logDebug("connecting to conferencing API", "host", c.opts.Host, "port", c.opts.Port)

	conn, resp, err := c.dialer.DialContext(ctx, c.URL(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.connectFailures.Add(1)
		c.setState(StateDisconnected)
		c.logDialError(err, resp)
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	done := make(chan struct{})

	c.connMu.Lock()
	if c.isClosed() {
		c.connMu.Unlock()
		conn.Close()
		c.setState(StateDisconnected)
		return ErrClientClosed
	}
	c.conn = conn
	c.listenerDone = done
	c.wg.Add(1)
	c.connMu.Unlock()

	c.connects.Add(1)
	c.setState(StateOpen)
	c.logInfo("connected to conferencing API", "host", c.opts.Host, "port", c.opts.Port)

	c.established.Emit(struct{}{})
	go c.receiveLoop(conn, done)

	if err := c.RequestMeetingStatus(ctx); err != nil {
		c.logWarn("initial meeting status request failed", "error", err)
	}

	return nil
}

// logDialError logs a failed handshake at a level matching its likely cause.
func (c *Client) logDialError(err error, resp *http.Response) {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		c.logWarn("connection refused; is Teams running with the third-party API enabled?",
			"host", c.opts.Host,
			"port", c.opts.Port,
		)
	case errors.Is(err, websocket.ErrBadHandshake):
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.logError("conferencing API rejected the connection request",
			"status", status,
			"error", err,
		)
	case errors.Is(err, context.Canceled):
		c.logDebug("connection attempt cancelled")
	default:
		c.logError("failed to connect to conferencing API", "error", err)
	}
}

// Disconnect closes the connection with a normal close handshake and
// waits for the receive loop to exit. It is a no-op when not connected.
func (c *Client) Disconnect(ctx context.Context) error {
	c.connMu.Lock()
	conn := c.conn
	done := c.listenerDone
	c.connMu.Unlock()

	if conn == nil {
		return nil
	}

	c.transition(StateOpen, StateClosing)

	deadline := time.Now().Add(closeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Shutting down application")
	c.writeMu.Lock()
	err := conn.WriteControl(websocket.CloseMessage, msg, deadline)
	c.writeMu.Unlock()
	if err != nil {
		c.logDebug("close frame not sent", "error", err)
		conn.Close()
	}

	// The remote close reply ends the receive loop
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-done:
	case <-ctx.Done():
		conn.Close()
		<-done
	case <-timer.C:
		conn.Close()
		<-done
	}

	return nil
}

// Close stops the reconnect timer, disconnects and waits for every
// background goroutine. The client cannot be reused.
func (c *Client) Close() error {
	c.stopOnce.Do(func() {
		close(c.done)
		c.cancel()
	})

	// The timer must be stopped before the connection is disposed
	c.timerWG.Wait()

	err := c.Disconnect(context.Background())
	c.wg.Wait()
	return err
}

func (c *Client) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// =============================================================================
// Reconnect Timer
// =============================================================================

func (c *Client) startReconnectTimer() {
	c.timerOnce.Do(func() {
		c.timerWG.Add(1)
		go c.reconnectLoop()
	})
}

// reconnectLoop re-arms its timer only after each tick completes, so
// ticks never overlap.
func (c *Client) reconnectLoop() {
	defer c.timerWG.Done()

	timer := time.NewTimer(c.opts.ReconnectInterval)
	defer timer.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-timer.C:
			c.reconnectTick()
			timer.Reset(c.opts.ReconnectInterval)
		}
	}
}

func (c *Client) reconnectTick() {
	if c.State() != StateDisconnected {
		return
	}

	// Wait for a stale receive loop to finish tearing down
	c.connMu.Lock()
	stale := c.listenerDone
	c.connMu.Unlock()
	if stale != nil {
		select {
		case <-stale:
		case <-c.done:
			return
		}
	}

	c.logDebug("reconnecting to conferencing API")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		// Errors are logged by Connect
		_ = c.Connect(c.ctx)
	}()
}

// =============================================================================
// Logging Helpers
// =============================================================================

func (c *Client) logDebug(msg string, args ...any) { c.logger.Debug(msg, args...) }
func (c *Client) logInfo(msg string, args ...any)  { c.logger.Info(msg, args...) }
func (c *Client) logWarn(msg string, args ...any)  { c.logger.Warn(msg, args...) }
func (c *Client) logError(msg string, args ...any) { c.logger.Error(msg, args...) }

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
