package discovery

import (
	"fmt"
)

// Component describes one published field of a record type.
type Component struct {
	// ID is stable and unique within its record type.
	ID string

	// Name is the resolved display name.
	Name string

	DefaultName      string
	Field            string
	LocalizationKey  string
	Kind             Kind
	EnabledByDefault bool
	Icon             string

	// CommandID is set for switches only.
	CommandID string
}

// Field is one row of a record table.
type Field[T any] struct {
	ID               string
	Field            string
	DefaultName      string
	LocalizationKey  string
	Icon             string
	EnabledByDefault bool
	CommandID        string
	Value            func(T) bool
}

// Schema is the type-independent view of a record used by publishers.
type Schema interface {
	TypeName() string
	Components() []Component
}

// Record maps the fields of T to components. It is built once at startup
// and read-only afterwards.
type Record[T any] struct {
	typeName   string
	components []Component
	values     []func(T) bool
}

// NewRecord builds a record from a field table.
//
// Display names resolve as: localization override by component id, then
// the default name, then the raw field identifier. Component ids must be
// unique and every field needs a value accessor.
func NewRecord[T any](typeName string, fields []Field[T], localizations map[string]string) (*Record[T], error) {
	if typeName == "" {
		return nil, fmt.Errorf("%w: type name is required", ErrInvalidRecord)
	}

	r := &Record[T]{
		typeName:   typeName,
		components: make([]Component, 0, len(fields)),
		values:     make([]func(T) bool, 0, len(fields)),
	}

	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.ID == "" {
			return nil, fmt.Errorf("%w: %s: field %q has no component id", ErrInvalidRecord, typeName, f.Field)
		}
		if seen[f.ID] {
			return nil, fmt.Errorf("%w: %s: duplicate component id %q", ErrInvalidRecord, typeName, f.ID)
		}
		if f.Value == nil {
			return nil, fmt.Errorf("%w: %s: component %q has no value accessor", ErrInvalidRecord, typeName, f.ID)
		}
		seen[f.ID] = true

		r.components = append(r.components, Component{
			ID:               f.ID,
			Name:             resolveName(f.ID, f.DefaultName, f.Field, localizations),
			DefaultName:      f.DefaultName,
			Field:            f.Field,
			LocalizationKey:  f.LocalizationKey,
			Kind:             kindFor(f.CommandID),
			EnabledByDefault: f.EnabledByDefault,
			Icon:             f.Icon,
			CommandID:        f.CommandID,
		})
		r.values = append(r.values, f.Value)
	}

	return r, nil
}

func resolveName(id, defaultName, field string, localizations map[string]string) string {
	if name := localizations[id]; name != "" {
		return name
	}
	if defaultName != "" {
		return defaultName
	}
	return field
}

// TypeName returns the record type name used in topics.
func (r *Record[T]) TypeName() string {
	return r.typeName
}

// Components returns the components in declaration order.
func (r *Record[T]) Components() []Component {
	out := make([]Component, len(r.components))
	copy(out, r.components)
	return out
}

// Values extracts the current value of every component from v.
func (r *Record[T]) Values(v T) map[string]bool {
	out := make(map[string]bool, len(r.components))
	for i, c := range r.components {
		out[c.ID] = r.values[i](v)
	}
	return out
}

// CommandIDs returns the command ids of all switch components.
func (r *Record[T]) CommandIDs() []string {
	var ids []string
	for _, c := range r.components {
		if c.CommandID != "" {
			ids = append(ids, c.CommandID)
		}
	}
	return ids
}
