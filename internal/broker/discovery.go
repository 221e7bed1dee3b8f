package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/lafe/teams2mqtt/internal/discovery"
)

// PublishDiscovery publishes one retained config message per component of
// schema, then online availability, and subscribes to the command topics
// registered so far. Calling it again republishes the same retained
// payloads without duplicating subscriptions.
func (c *Client) PublishDiscovery(ctx context.Context, schema discovery.Schema) error {
	t := c.activeTransport()
	if t == nil {
		return nil
	}

	typeName := schema.TypeName()
	for _, comp := range schema.Components() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrDiscoveryFailed, err)
		}

		topic, err := c.topics.Config(typeName, comp)
		if err != nil {
			return c.discoveryError("building config topic", typeName, comp.ID, err)
		}

		payload, err := json.Marshal(c.topics.ConfigFor(typeName, comp, c.device))
		if err != nil {
			return c.discoveryError("encoding config", typeName, comp.ID, err)
		}

		if err := t.Publish(topic, payload, c.qos, true); err != nil {
			return c.discoveryError("publishing config", typeName, comp.ID, err)
		}

		if comp.Kind == discovery.KindSwitch {
			c.registerCommand(c.topics.Command(typeName, comp.CommandID), comp.CommandID)
		}
	}

	c.sendAvailability(t, discovery.PayloadOnline)

	if err := c.subscribeCommands(t); err != nil {
		return err
	}

	c.logger.Info("discovery published", "type", typeName, "components", len(schema.Components()))
	return nil
}

// RemoveDiscovery deletes the entities of schema by publishing empty
// retained configs, then unsubscribes every command topic and clears the
// command registry. It is a no-op unless removal on shutdown is enabled.
func (c *Client) RemoveDiscovery(ctx context.Context, schema discovery.Schema) error {
	if !c.cfg.RemoveDevicesOnShutdown {
		return nil
	}
	t := c.activeTransport()
	if t == nil {
		return nil
	}

	typeName := schema.TypeName()
	for _, comp := range schema.Components() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrDiscoveryFailed, err)
		}

		topic, err := c.topics.Config(typeName, comp)
		if err != nil {
			return c.discoveryError("building config topic", typeName, comp.ID, err)
		}

		// An empty retained payload deletes the entity
		if err := t.Publish(topic, nil, c.qos, true); err != nil {
			return c.discoveryError("removing config", typeName, comp.ID, err)
		}
	}

	if err := c.unsubscribeCommands(t); err != nil {
		return err
	}

	c.logger.Info("discovery removed", "type", typeName)
	return nil
}

func (c *Client) discoveryError(op, typeName, componentID string, err error) error {
	c.logger.Error("discovery failed",
		"operation", op,
		"type", typeName,
		"component", componentID,
		"error", err,
	)
	return fmt.Errorf("%w: %s %s/%s: %w", ErrDiscoveryFailed, op, typeName, componentID, err)
}

// =============================================================================
// Command Registry
// =============================================================================

func (c *Client) registerCommand(topic, commandID string) {
	c.regMu.Lock()
	c.commands[topic] = commandID
	c.regMu.Unlock()
}

// subscribeCommands enables dispatch and subscribes to every registered
// command topic that is not subscribed yet.
func (c *Client) subscribeCommands(t Transport) error {
	c.regMu.Lock()
	c.dispatching = true
	pending := make([]string, 0, len(c.commands))
	for topic := range c.commands {
		if !c.subscribed[topic] {
			pending = append(pending, topic)
		}
	}
	c.regMu.Unlock()

	sort.Strings(pending)

	for _, topic := range pending {
		if err := t.Subscribe(topic, c.qos, c.handleMessage); err != nil {
			c.logger.Error("failed to subscribe to command topic", "topic", topic, "error", err)
			return fmt.Errorf("%w: subscribing %s: %w", ErrDiscoveryFailed, topic, err)
		}

		c.regMu.Lock()
		c.subscribed[topic] = true
		c.regMu.Unlock()

		c.logger.Debug("subscribed to command topic", "topic", topic)
	}

	return nil
}

// unsubscribeCommands disables dispatch, unsubscribes every command topic
// and clears the registry. Every topic is attempted; the first error is returned.
func (c *Client) unsubscribeCommands(t Transport) error {
	c.regMu.Lock()
	c.dispatching = false
	topics := make([]string, 0, len(c.subscribed))
	for topic := range c.subscribed {
		topics = append(topics, topic)
	}
	c.commands = make(map[string]string)
	c.subscribed = make(map[string]bool)
	c.regMu.Unlock()

	sort.Strings(topics)

	var firstErr error
	for _, topic := range topics {
		if err := t.Unsubscribe(topic); err != nil {
			c.logger.Error("failed to unsubscribe from command topic", "topic", topic, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: unsubscribing %s: %w", ErrDiscoveryFailed, topic, err)
			}
		}
	}

	return firstErr
}

// handleMessage dispatches an inbound message on a command topic. Messages
// on topics missing from the registry are logged and dropped.
func (c *Client) handleMessage(topic string, payload []byte) error {
	c.regMu.RLock()
	commandID, ok := c.commands[topic]
	dispatching := c.dispatching
	c.regMu.RUnlock()

	if !dispatching {
		c.logger.Debug("command dispatch disabled, dropping message", "topic", topic)
		return nil
	}
	if !ok {
		c.logger.Warn("received message on unregistered topic", "topic", topic)
		return nil
	}

	c.logger.Debug("command received", "topic", topic, "command", commandID)
	c.actions.Emit(Action{
		CommandID: commandID,
		Payload:   append([]byte(nil), payload...),
	})
	return nil
}
