package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/lafe/teams2mqtt/internal/discovery"
	"github.com/lafe/teams2mqtt/internal/event"
	"github.com/lafe/teams2mqtt/internal/infrastructure/config"
	"github.com/lafe/teams2mqtt/internal/infrastructure/mqtt"
)

// stateQoS is used for state updates. A lost update is superseded by the next one.
const stateQoS byte = 0

// Transport is the subset of the MQTT client used by the broker client.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	PublishAsync(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
	Close() error
}

// DialFunc connects a transport using the given configuration and last will.
type DialFunc func(cfg config.MQTTConfig, will mqtt.Will) (Transport, error)

// Logger is the logging interface used by the broker client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Action is an inbound command received on a registered command topic.
type Action struct {
	CommandID string
	Payload   []byte
}

// Options configures a Client.
type Options struct {
	Config config.MQTTConfig

	// Machine is the device name used in every topic. It is sanitized.
	Machine string

	// Version is reported as the device software version.
	Version string

	// Dial replaces the MQTT connection for tests.
	Dial DialFunc

	Logger Logger
}

// Client publishes discovery and state for one machine.
type Client struct {
	cfg    config.MQTTConfig
	topics discovery.Topics
	device discovery.Device
	dial   DialFunc
	logger Logger
	qos    byte

	mu        sync.Mutex
	transport Transport
	enabled   bool
	started   bool
	stopped   bool

	// regMu guards the command registry. It is written during discovery
	// publish and removal and read by inbound message dispatch.
	regMu       sync.RWMutex
	commands    map[string]string
	subscribed  map[string]bool
	dispatching bool

	actions event.List[Action]
}

// New creates a broker client. It does not connect; call Start.
//
// Parameters:
//   - opts: MQTT configuration, machine name and version
//
// Returns:
//   - *Client: Client in the stopped state; disabled when no broker host is set
//   - error: Wraps ErrInvalidOptions if the machine name is empty or the QoS is not 0-2
func New(opts Options) (*Client, error) {
	if opts.Machine == "" {
		return nil, fmt.Errorf("%w: machine name is required", ErrInvalidOptions)
	}
	if opts.Config.QoS < 0 || opts.Config.QoS > 2 {
		return nil, fmt.Errorf("%w: qos %d", ErrInvalidOptions, opts.Config.QoS)
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	c := &Client{
		cfg:        opts.Config,
		topics:     discovery.NewTopics(opts.Config.DiscoveryPrefix, opts.Machine),
		device:     discovery.NewDevice(opts.Machine, opts.Version, opts.Config.SuggestedArea),
		dial:       opts.Dial,
		logger:     logger,
		qos:        byte(opts.Config.QoS),
		commands:   make(map[string]string),
		subscribed: make(map[string]bool),
	}
	if c.dial == nil {
		c.dial = c.dialMQTT
	}

	c.actions.SetPanicHandler(func(r any) {
		c.logger.Error("action handler panic recovered", "panic", r)
	})

	return c, nil
}

// DefaultClientID returns a client id unique to this process.
//
// Example: teams2mqtt-OFFICE-PC-1a2b3c4d
func DefaultClientID(machine string) string {
	return fmt.Sprintf("%s-%s-%s", discovery.Namespace, discovery.Sanitize(machine), uuid.NewString()[:8])
}

func (c *Client) dialMQTT(cfg config.MQTTConfig, will mqtt.Will) (Transport, error) {
	mc, err := mqtt.Connect(cfg, will)
	if err != nil {
		return nil, err
	}
	mc.SetLogger(c.logger)
	return mc, nil
}

// Topics returns the topic builder of this client.
func (c *Client) Topics() discovery.Topics {
	return c.topics
}

// OnAction registers fn for inbound commands and returns a function that
// removes it. Handlers run on the MQTT library's callback goroutine.
func (c *Client) OnAction(fn func(Action)) (remove func()) {
	return c.actions.Add(fn)
}

// Enabled reports whether a broker is configured and the client is started.
func (c *Client) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// IsConnected reports whether the broker connection is currently up.
func (c *Client) IsConnected() bool {
	t := c.activeTransport()
	return t != nil && t.IsConnected()
}

// activeTransport returns the transport, or nil in disabled mode.
func (c *Client) activeTransport() Transport {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return nil
	}
	return c.transport
}

// =============================================================================
// Lifecycle
// =============================================================================

// Start connects to the broker with an "offline" last will on the
// availability topic. Without a configured broker host the client enters
// disabled mode and Start returns nil. Calling Start again is a no-op.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	if c.cfg.Broker.Host == "" {
		c.started = true
		c.logger.Info("MQTT broker not configured, publishing disabled")
		return nil
	}

	if c.cfg.LoggingEnabled {
		mqtt.EnableLibraryLogging(c.logger)
	}

	cfg := c.cfg
	if cfg.Broker.ClientID == "" {
		cfg.Broker.ClientID = DefaultClientID(c.topics.Machine())
	}

	will := mqtt.Will{
		Topic:          c.topics.Availability(),
		OnlinePayload:  discovery.PayloadOnline,
		OfflinePayload: discovery.PayloadOffline,
		QoS:            c.qos,
	}

	t, err := c.dial(cfg, will)
	if err != nil {
		c.logger.Error("failed to connect to MQTT broker",
			"host", cfg.Broker.Host,
			"port", cfg.Broker.Port,
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	c.transport = t
	c.enabled = true
	c.started = true

	c.logger.Info("connected to MQTT broker",
		"host", cfg.Broker.Host,
		"port", cfg.Broker.Port,
		"transport", cfg.Broker.Transport,
		"client_id", cfg.Broker.ClientID,
	)
	return nil
}

// Stop publishes offline availability if connected and disconnects.
// It is a no-op if the client was never started or is already stopped.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	t := c.transport
	active := c.enabled && !c.stopped
	c.stopped = true
	c.enabled = false
	c.mu.Unlock()

	if !active || t == nil {
		return nil
	}

	if t.IsConnected() && ctx.Err() == nil {
		if err := t.Publish(c.topics.Availability(), []byte(discovery.PayloadOffline), c.qos, true); err != nil {
			c.logger.Warn("failed to publish offline availability", "error", err)
		}
	}

	if err := t.Close(); err != nil {
		return fmt.Errorf("closing MQTT connection: %w", err)
	}

	c.logger.Info("disconnected from MQTT broker")
	return nil
}

// =============================================================================
// State And Availability
// =============================================================================

// SendUpdates publishes online availability followed by the ON/OFF state
// map of one record type. It is a no-op when disabled or not connected.
// Publish errors are logged.
func (c *Client) SendUpdates(schema discovery.Schema, values map[string]bool) {
	t := c.activeTransport()
	if t == nil || !t.IsConnected() {
		return
	}

	c.sendAvailability(t, discovery.PayloadOnline)

	payload, err := json.Marshal(discovery.StatePayload(values))
	if err != nil {
		c.logger.Error("failed to encode state", "type", schema.TypeName(), "error", err)
		return
	}

	topic := c.topics.State(schema.TypeName())
	if err := t.PublishAsync(topic, payload, stateQoS, false); err != nil {
		c.logger.Warn("failed to publish state", "topic", topic, "error", err)
		return
	}

	c.logger.Debug("state published", "topic", topic, "components", len(values))
}

// SendOnlineAvailability publishes the online availability payload.
func (c *Client) SendOnlineAvailability() {
	if t := c.activeTransport(); t != nil {
		c.sendAvailability(t, discovery.PayloadOnline)
	}
}

// SendOfflineAvailability publishes the offline availability payload.
func (c *Client) SendOfflineAvailability() {
	if t := c.activeTransport(); t != nil {
		c.sendAvailability(t, discovery.PayloadOffline)
	}
}

func (c *Client) sendAvailability(t Transport, payload string) {
	topic := c.topics.Availability()
	if err := t.PublishAsync(topic, []byte(payload), c.qos, true); err != nil {
		c.logger.Warn("failed to publish availability", "topic", topic, "payload", payload, "error", err)
	}
}

// =============================================================================
// Logging Helpers
// =============================================================================

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
