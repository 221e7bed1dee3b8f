package discovery

// Kind is the Home Assistant entity category of a component.
type Kind int

// Component kinds. The zero value is deliberately invalid.
const (
	KindUnknown Kind = iota
	KindSensor
	KindBinarySensor
	KindSwitch
)

// String returns the kind as used in discovery topics.
func (k Kind) String() string {
	switch k {
	case KindSensor:
		return "sensor"
	case KindBinarySensor:
		return "binary_sensor"
	case KindSwitch:
		return "switch"
	default:
		return ""
	}
}

// kindFor classifies a boolean field.
func kindFor(commandID string) Kind {
	if commandID != "" {
		return KindSwitch
	}
	return KindBinarySensor
}
