package discovery

import (
	"fmt"
)

// Payload values shared by state, command and availability topics.
const (
	PayloadOn      = "ON"
	PayloadOff     = "OFF"
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Device groups every entity of this process under one Home Assistant device.
type Device struct {
	Name          string   `json:"name"`
	Identifiers   []string `json:"identifiers"`
	Model         string   `json:"model"`
	Manufacturer  string   `json:"manufacturer"`
	SWVersion     string   `json:"sw_version,omitempty"`
	SuggestedArea string   `json:"suggested_area,omitempty"`
}

// NewDevice returns the device block for a machine.
func NewDevice(machine, version, suggestedArea string) Device {
	return Device{
		Name:          "Teams2Mqtt " + machine,
		Identifiers:   []string{fmt.Sprintf("%s-%s", Namespace, Sanitize(machine))},
		Model:         "Microsoft Teams API",
		Manufacturer:  "lafe",
		SWVersion:     version,
		SuggestedArea: suggestedArea,
	}
}

// Availability references the availability topic from a config payload.
type Availability struct {
	Topic               string `json:"topic"`
	PayloadAvailable    string `json:"payload_available"`
	PayloadNotAvailable string `json:"payload_not_available"`
}

// Config is the discovery config payload of one component.
type Config struct {
	Name              string         `json:"name"`
	UniqueID          string         `json:"unique_id"`
	Availability      []Availability `json:"availability"`
	Device            Device         `json:"device"`
	DeviceClass       string         `json:"device_class,omitempty"`
	EnabledByDefault  bool           `json:"enabled_by_default"`
	Icon              string         `json:"icon,omitempty"`
	Options           []string       `json:"options,omitempty"`
	StateClass        string         `json:"state_class,omitempty"`
	StateTopic        string         `json:"state_topic"`
	UnitOfMeasurement string         `json:"unit_of_measurement,omitempty"`
	ValueTemplate     string         `json:"value_template"`
	CommandTopic      string         `json:"command_topic,omitempty"`
}

// ConfigFor builds the discovery config payload of a component.
func (t Topics) ConfigFor(typeName string, c Component, device Device) Config {
	cfg := Config{
		Name:     c.Name,
		UniqueID: t.ObjectID(typeName, c.ID),
		Availability: []Availability{{
			Topic:               t.Availability(),
			PayloadAvailable:    PayloadOnline,
			PayloadNotAvailable: PayloadOffline,
		}},
		Device:           device,
		EnabledByDefault: c.EnabledByDefault,
		Icon:             c.Icon,
		StateTopic:       t.State(typeName),
		ValueTemplate:    fmt.Sprintf("{{ value_json.%s }}", c.ID),
	}

	switch c.Kind {
	case KindSensor:
		cfg.StateClass = "measurement"
	case KindSwitch:
		cfg.CommandTopic = t.Command(typeName, c.CommandID)
	}

	return cfg
}

// StatePayload maps component values to ON/OFF.
func StatePayload(values map[string]bool) map[string]string {
	out := make(map[string]string, len(values))
	for id, v := range values {
		if v {
			out[id] = PayloadOn
		} else {
			out[id] = PayloadOff
		}
	}
	return out
}
