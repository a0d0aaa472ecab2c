package scan

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// Key identifies where an extracted value goes in the sink.
type Key string

// Keys of the default observation mapping.
const (
	LocalTime    Key = "local_time"
	ApparentTemp Key = "apparent_temp"
	WindSpeed    Key = "wind_speed"
)

var ErrInvalidMapping = errors.New("scan: invalid field mapping")

// Binding maps one document field name to a sink key.
type Binding struct {
	Field string
	Key   Key
}

// FieldMapping is an immutable lookup from field names to sink keys.
// The zero value maps nothing.
type FieldMapping struct {
	fields map[string]Key
	keys   []Key
}

// NewFieldMapping rejects empty names or keys and a field bound twice.
// Keys reports keys in binding order.
func NewFieldMapping(bindings ...Binding) (FieldMapping, error) {
	m := FieldMapping{fields: make(map[string]Key, len(bindings))}
	for _, b := range bindings {
		if b.Field == "" || b.Key == "" {
			return FieldMapping{}, fmt.Errorf("%w: empty field or key in %q=%q", ErrInvalidMapping, b.Field, b.Key)
		}
		if _, dup := m.fields[b.Field]; dup {
			return FieldMapping{}, fmt.Errorf("%w: field %q bound twice", ErrInvalidMapping, b.Field)
		}
		m.fields[b.Field] = b.Key
		if !slices.Contains(m.keys, b.Key) {
			m.keys = append(m.keys, b.Key)
		}
	}
	return m, nil
}

// DefaultMapping is the observation table:
// local_date_time_full, apparent_t and wind_spd_kmh.
func DefaultMapping() FieldMapping {
	return FieldMapping{
		fields: map[string]Key{
			"local_date_time_full": LocalTime,
			"apparent_t":           ApparentTemp,
			"wind_spd_kmh":         WindSpeed,
		},
		keys: []Key{LocalTime, ApparentTemp, WindSpeed},
	}
}

func (m FieldMapping) Lookup(field string) (Key, bool) {
	k, ok := m.fields[field]
	return k, ok
}

func (m FieldMapping) Keys() []Key {
	return slices.Clone(m.keys)
}

func (m FieldMapping) Len() int {
	return len(m.fields)
}

// Bindings returns the mapping sorted by field name.
func (m FieldMapping) Bindings() []Binding {
	out := make([]Binding, 0, len(m.fields))
	for f, k := range m.fields {
		out = append(out, Binding{Field: f, Key: k})
	}
	slices.SortFunc(out, func(a, b Binding) int {
		return cmp.Compare(a.Field, b.Field)
	})
	return out
}
