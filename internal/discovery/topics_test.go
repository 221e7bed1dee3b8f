package discovery

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuildConfigTopic(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		kind     Kind
		nodeID   string
		objectID string
		want     string
		wantErr  error
	}{
		{
			name:     "binary sensor",
			prefix:   "homeassistant",
			kind:     KindBinarySensor,
			objectID: "x",
			want:     "homeassistant/binary_sensor/x/config",
		},
		{
			name:     "with node id",
			prefix:   "homeassistant",
			kind:     KindBinarySensor,
			nodeID:   "n",
			objectID: "x",
			want:     "homeassistant/binary_sensor/n/x/config",
		},
		{
			name:     "separators in ids are sanitized",
			prefix:   "homeassistant",
			kind:     KindSwitch,
			nodeID:   "a/b",
			objectID: "x/+#",
			want:     "homeassistant/switch/a_b/x___/config",
		},
		{
			name:     "switch with custom prefix",
			prefix:   "ha",
			kind:     KindSwitch,
			objectID: "y",
			want:     "ha/switch/y/config",
		},
		{
			name:     "empty prefix uses default",
			kind:     KindSensor,
			objectID: "z",
			want:     "homeassistant/sensor/z/config",
		},
		{
			name:     "missing kind",
			prefix:   "homeassistant",
			objectID: "x",
			wantErr:  ErrMissingKind,
		},
		{
			name:    "missing object id",
			prefix:  "homeassistant",
			kind:    KindSwitch,
			wantErr: ErrMissingObjectID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildConfigTopic(tt.prefix, tt.kind, tt.nodeID, tt.objectID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("BuildConfigTopic() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildConfigTopic() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("BuildConfigTopic() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"OFFICE-PC", "OFFICE-PC"},
		{"my_host-01", "my_host-01"},
		{"host.example.com", "host_example_com"},
		{"a/b+c#d", "a_b_c_d"},
		{"Büro PC", "B_ro_PC"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_Properties(t *testing.T) {
	inputs := []string{
		"plain",
		"with spaces and/slashes",
		"wildcards+#",
		"ünïcödé ✓ 名前",
		"\x00\x7f",
		strings.Repeat("a.b", 50),
	}

	for _, in := range inputs {
		out := Sanitize(in)

		if utf8.RuneCountInString(out) != utf8.RuneCountInString(in) {
			t.Errorf("Sanitize(%q) changed length: %d -> %d", in, utf8.RuneCountInString(in), utf8.RuneCountInString(out))
		}

		if again := Sanitize(out); again != out {
			t.Errorf("Sanitize not idempotent for %q: %q -> %q", in, out, again)
		}

		for _, r := range out {
			ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
			if !ok {
				t.Errorf("Sanitize(%q) = %q contains %q", in, out, r)
			}
		}
	}
}

func TestTopics(t *testing.T) {
	topics := NewTopics("homeassistant", "office pc")

	if got := topics.Machine(); got != "office_pc" {
		t.Errorf("Machine() = %q, want %q", got, "office_pc")
	}

	if got, want := topics.ObjectID("MeetingState", "is_muted"), "teams2mqtt-office_pc-MeetingState-is_muted"; got != want {
		t.Errorf("ObjectID() = %q, want %q", got, want)
	}

	if got, want := topics.State("MeetingState"), "teams2mqtt/sensor/office_pc-MeetingState/state"; got != want {
		t.Errorf("State() = %q, want %q", got, want)
	}

	if got, want := topics.Command("MeetingState", "toggle_mute"), "teams2mqtt/office_pc-MeetingState/toggle_mute/set"; got != want {
		t.Errorf("Command() = %q, want %q", got, want)
	}

	if got, want := topics.Availability(), "teams2mqtt/office_pc/availability"; got != want {
		t.Errorf("Availability() = %q, want %q", got, want)
	}

	c := Component{ID: "is_muted", Kind: KindSwitch, CommandID: CommandToggleMute}
	got, err := topics.Config("MeetingState", c)
	if err != nil {
		t.Fatalf("Config() error = %v", err)
	}
	if want := "homeassistant/switch/teams2mqtt-office_pc-MeetingState-is_muted/config"; got != want {
		t.Errorf("Config() = %q, want %q", got, want)
	}
}

func TestTopics_ConfigRequiresKind(t *testing.T) {
	topics := NewTopics("", "pc")

	_, err := topics.Config("MeetingState", Component{ID: "x"})
	if !errors.Is(err, ErrMissingKind) {
		t.Errorf("Config() error = %v, want ErrMissingKind", err)
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindSensor, "sensor"},
		{KindBinarySensor, "binary_sensor"},
		{KindSwitch, "switch"},
		{KindUnknown, ""},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
