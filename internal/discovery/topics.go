package discovery

import (
	"fmt"
	"strings"
)

const (
	// Namespace is the application segment of every non-discovery topic.
	Namespace = "teams2mqtt"

	// DefaultPrefix is Home Assistant's default discovery prefix.
	DefaultPrefix = "homeassistant"
)

// Sanitize replaces every character outside [A-Za-z0-9_-] with '_'.
//
// The result has the same number of characters as the input and
// Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// BuildConfigTopic returns <prefix>/<kind>/[<nodeID>/]<objectID>/config.
//
// An empty prefix falls back to DefaultPrefix. Kind and objectID are
// required; nodeID is optional. Both IDs are sanitized so neither can add
// topic levels or wildcards.
func BuildConfigTopic(prefix string, kind Kind, nodeID, objectID string) (string, error) {
	if kind.String() == "" {
		return "", ErrMissingKind
	}
	if objectID == "" {
		return "", ErrMissingObjectID
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	objectID = Sanitize(objectID)

	if nodeID != "" {
		nodeID = Sanitize(nodeID)
		return fmt.Sprintf("%s/%s/%s/%s/config", prefix, kind, nodeID, objectID), nil
	}
	return fmt.Sprintf("%s/%s/%s/config", prefix, kind, objectID), nil
}

// Topics builds the topics for one machine.
//
//	topics := discovery.NewTopics("homeassistant", "OFFICE-PC")
//	topics.State("MeetingState")
//	// Returns: "teams2mqtt/sensor/OFFICE-PC-MeetingState/state"
type Topics struct {
	prefix  string
	machine string
}

// NewTopics returns a topic builder for the given discovery prefix and machine name.
func NewTopics(prefix, machine string) Topics {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{
		prefix:  prefix,
		machine: Sanitize(machine),
	}
}

// Machine returns the sanitized machine segment.
func (t Topics) Machine() string {
	return t.machine
}

// =============================================================================
// Discovery Topics
// =============================================================================

// ObjectID returns the discovery object id of a component.
//
// Example: teams2mqtt-OFFICE-PC-MeetingState-is_muted
func (t Topics) ObjectID(typeName, componentID string) string {
	return fmt.Sprintf("%s-%s-%s-%s", Namespace, t.machine, Sanitize(typeName), Sanitize(componentID))
}

// Config returns the discovery config topic of a component.
//
// Example: homeassistant/switch/teams2mqtt-OFFICE-PC-MeetingState-is_muted/config
func (t Topics) Config(typeName string, c Component) (string, error) {
	return BuildConfigTopic(t.prefix, c.Kind, "", t.ObjectID(typeName, c.ID))
}

// =============================================================================
// Runtime Topics
// =============================================================================

// State returns the shared state topic of a record type.
//
// Example: teams2mqtt/sensor/OFFICE-PC-MeetingState/state
func (t Topics) State(typeName string) string {
	return fmt.Sprintf("%s/sensor/%s-%s/state", Namespace, t.machine, Sanitize(typeName))
}

// Command returns the command topic of a switch component.
//
// Example: teams2mqtt/OFFICE-PC-MeetingState/toggle_mute/set
func (t Topics) Command(typeName, commandID string) string {
	return fmt.Sprintf("%s/%s-%s/%s/set", Namespace, t.machine, Sanitize(typeName), Sanitize(commandID))
}

// Availability returns the availability topic of the machine.
//
// Example: teams2mqtt/OFFICE-PC/availability
func (t Topics) Availability() string {
	return fmt.Sprintf("%s/%s/availability", Namespace, t.machine)
}
