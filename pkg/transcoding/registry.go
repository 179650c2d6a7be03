// Package transcoding implements the value-level codec for a closed set of
// scalar types (identifiers, decimal numbers, timestamps) into a
// self-describing structured form: {"__type__": name, "__data__": data}.
//
// The registry is keyed by both the concrete Go type and a short name, so
// users can register further entries before first use; a duplicate
// registration replaces the prior entry. Envelope reports ok=false, with
// no error, for a value of an unregistered type; the mapper then
// serializes such a value as an ordinary JSON value. Decoding an envelope
// whose __type__ names no entry fails with a codec error; objects without
// the exact envelope key set are not treated as envelopes.
package transcoding

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arcflux/eventstore/pkg/domain"
)

// TimeLayout is the ISO-8601 microsecond-precision layout used to encode
// timestamps.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

const (
	typeKey = "__type__"
	dataKey = "__data__"
)

// entry describes one registered scalar: how to turn a Go value into its
// canonical string form and back.
type entry struct {
	name   string
	typ    reflect.Type
	encode func(v any) (string, error)
	decode func(s string) (any, error)
}

// Registry is a codec for scalar values nested anywhere inside an event
// payload.
type Registry struct {
	byType map[reflect.Type]entry
	byName map[string]entry
}

// NewRegistry returns a registry preloaded with the built-in entries: UUID,
// arbitrary-precision decimal, and microsecond-precision timestamp.
func NewRegistry() *Registry {
	r := &Registry{
		byType: make(map[reflect.Type]entry),
		byName: make(map[string]entry),
	}
	r.Register("uuid", uuid.UUID{}, encodeUUID, decodeUUID)
	r.Register("decimal", decimal.Decimal{}, encodeDecimal, decodeDecimal)
	r.Register("datetime", time.Time{}, encodeTime, decodeTime)
	return r
}

// Register adds (or replaces) the codec entry for sample's type under name.
func (r *Registry) Register(name string, sample any, encode func(any) (string, error), decode func(string) (any, error)) {
	e := entry{name: name, typ: reflect.TypeOf(sample), encode: encode, decode: decode}
	r.byType[e.typ] = e
	r.byName[name] = e
}

// Envelope encodes v as a self-describing object if its type is
// registered. ok is false if v's type has no registered entry.
func (r *Registry) Envelope(v reflect.Value) (out map[string]any, ok bool, err error) {
	e, found := r.byType[v.Type()]
	if !found {
		return nil, false, nil
	}
	data, err := e.encode(v.Interface())
	if err != nil {
		return nil, true, domain.NewCodecError("serialize", fmt.Errorf("encode %s: %w", e.name, err))
	}
	return map[string]any{typeKey: e.name, dataKey: data}, true, nil
}

// IsEnvelope reports whether m has exactly the self-describing key set
// {__type__, __data__}.
func IsEnvelope(m map[string]any) bool {
	if len(m) != 2 {
		return false
	}
	_, hasType := m[typeKey]
	_, hasData := m[dataKey]
	return hasType && hasData
}

// DecodeEnvelope routes a detected envelope back to a scalar Go value of
// target's type, verifying the stored __type__ matches what target's type
// expects.
func (r *Registry) DecodeEnvelope(m map[string]any, target reflect.Type) (any, error) {
	name, _ := m[typeKey].(string)
	data, _ := m[dataKey].(string)

	e, found := r.byName[name]
	if !found {
		return nil, domain.NewCodecError("deserialize", fmt.Errorf("unregistered scalar type %q", name))
	}
	if target != nil && e.typ != target {
		return nil, domain.NewCodecError("deserialize", fmt.Errorf("scalar type %q does not match expected %s", name, target))
	}
	v, err := e.decode(data)
	if err != nil {
		return nil, domain.NewCodecError("deserialize", fmt.Errorf("decode %s: %w", name, err))
	}
	return v, nil
}

// HasType reports whether t has a registered entry.
func (r *Registry) HasType(t reflect.Type) bool {
	_, ok := r.byType[t]
	return ok
}

func encodeUUID(v any) (string, error) {
	id := v.(uuid.UUID)
	return id.String(), nil
}

func decodeUUID(s string) (any, error) {
	return uuid.Parse(s)
}

func encodeDecimal(v any) (string, error) {
	d := v.(decimal.Decimal)
	return d.String(), nil
}

func decodeDecimal(s string) (any, error) {
	return decimal.NewFromString(s)
}

func encodeTime(v any) (string, error) {
	t := v.(time.Time)
	return t.UTC().Format(TimeLayout), nil
}

func decodeTime(s string) (any, error) {
	return time.Parse(TimeLayout, s)
}
