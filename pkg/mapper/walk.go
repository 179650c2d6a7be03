package mapper

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/arcflux/eventstore/pkg/domain"
	"github.com/arcflux/eventstore/pkg/transcoding"
)

// encodeStruct walks payload (a struct or pointer to struct) and produces a
// JSON-compatible tree, wrapping any value whose type is registered in reg
// in the self-describing {__type__, __data__} envelope. Plain fields pass
// through as ordinary JSON values.
func encodeStruct(reg *transcoding.Registry, payload any) (map[string]any, error) {
	v := reflect.ValueOf(payload)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, domain.NewCodecError("serialize", fmt.Errorf("nil payload"))
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, domain.NewCodecError("serialize", fmt.Errorf("payload must be a struct, got %s", v.Kind()))
	}
	out, err := walkStruct(reg, v)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func walkStruct(reg *transcoding.Registry, v reflect.Value) (map[string]any, error) {
	t := v.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" { // unexported
			continue
		}
		name, omit := fieldName(field)
		if omit {
			continue
		}
		val, err := walkValue(reg, v.Field(i))
		if err != nil {
			return nil, err
		}
		out[name] = val
	}
	return out, nil
}

func walkValue(reg *transcoding.Registry, v reflect.Value) (any, error) {
	if env, ok, err := reg.Envelope(v); ok {
		return env, err
	} else if err != nil {
		return nil, err
	}

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return nil, nil
		}
		return walkValue(reg, v.Elem())
	case reflect.Struct:
		return walkStruct(reg, v)
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil, nil
		}
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := walkValue(reg, v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key := fmt.Sprintf("%v", iter.Key().Interface())
			val, err := walkValue(reg, iter.Value())
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil
	case reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return walkValue(reg, v.Elem())
	default:
		if !v.CanInterface() {
			return nil, domain.NewCodecError("serialize", fmt.Errorf("unexported or unaddressable value of kind %s", v.Kind()))
		}
		return v.Interface(), nil
	}
}

// decodeStruct populates target (a pointer to struct) from data, a tree
// produced by json.Unmarshal into map[string]any/[]any/scalars. Any nested
// map matching the exact {__type__, __data__} key set is routed back
// through reg to its original scalar type.
func decodeStruct(reg *transcoding.Registry, data map[string]any, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return domain.NewCodecError("deserialize", fmt.Errorf("decode target must be a non-nil pointer"))
	}
	return setStruct(reg, data, v.Elem())
}

func setStruct(reg *transcoding.Registry, data map[string]any, v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}
		name, omit := fieldName(field)
		if omit {
			continue
		}
		raw, present := data[name]
		if !present {
			continue
		}
		if err := setValue(reg, raw, v.Field(i)); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	return nil
}

func setValue(reg *transcoding.Registry, raw any, field reflect.Value) error {
	if raw == nil {
		return nil
	}

	if m, ok := raw.(map[string]any); ok && transcoding.IsEnvelope(m) {
		fieldType := field.Type()
		for fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}
		val, err := reg.DecodeEnvelope(m, fieldType)
		if err != nil {
			return err
		}
		return assign(field, reflect.ValueOf(val))
	}

	switch field.Kind() {
	case reflect.Ptr:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return setValue(reg, raw, field.Elem())
	case reflect.Struct:
		m, ok := raw.(map[string]any)
		if !ok {
			return domain.NewCodecError("deserialize", fmt.Errorf("expected object, got %T", raw))
		}
		return setStruct(reg, m, field)
	case reflect.Slice:
		items, ok := raw.([]any)
		if !ok {
			return domain.NewCodecError("deserialize", fmt.Errorf("expected array, got %T", raw))
		}
		slice := reflect.MakeSlice(field.Type(), len(items), len(items))
		for i, item := range items {
			if err := setValue(reg, item, slice.Index(i)); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	case reflect.Map:
		m, ok := raw.(map[string]any)
		if !ok {
			return domain.NewCodecError("deserialize", fmt.Errorf("expected object, got %T", raw))
		}
		result := reflect.MakeMapWithSize(field.Type(), len(m))
		for k, val := range m {
			elem := reflect.New(field.Type().Elem()).Elem()
			if err := setValue(reg, val, elem); err != nil {
				return err
			}
			result.SetMapIndex(reflect.ValueOf(k), elem)
		}
		field.Set(result)
		return nil
	case reflect.String:
		s, ok := raw.(string)
		if !ok {
			return domain.NewCodecError("deserialize", fmt.Errorf("expected string, got %T", raw))
		}
		field.SetString(s)
		return nil
	case reflect.Bool:
		b, ok := raw.(bool)
		if !ok {
			return domain.NewCodecError("deserialize", fmt.Errorf("expected bool, got %T", raw))
		}
		field.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f, ok := raw.(float64)
		if !ok {
			return domain.NewCodecError("deserialize", fmt.Errorf("expected number, got %T", raw))
		}
		field.SetInt(int64(f))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f, ok := raw.(float64)
		if !ok {
			return domain.NewCodecError("deserialize", fmt.Errorf("expected number, got %T", raw))
		}
		field.SetUint(uint64(f))
		return nil
	case reflect.Float32, reflect.Float64:
		f, ok := raw.(float64)
		if !ok {
			return domain.NewCodecError("deserialize", fmt.Errorf("expected number, got %T", raw))
		}
		field.SetFloat(f)
		return nil
	case reflect.Interface:
		field.Set(reflect.ValueOf(raw))
		return nil
	default:
		return domain.NewCodecError("deserialize", fmt.Errorf("unsupported field kind %s", field.Kind()))
	}
}

func assign(field reflect.Value, val reflect.Value) error {
	if field.Kind() == reflect.Ptr {
		ptr := reflect.New(field.Type().Elem())
		ptr.Elem().Set(val)
		field.Set(ptr)
		return nil
	}
	field.Set(val)
	return nil
}

// fieldName resolves the JSON-visible name for a struct field, honoring a
// `json:"name"` tag the same way encoding/json does; a tag of "-" omits the
// field entirely.
func fieldName(field reflect.StructField) (name string, omit bool) {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name, false
	}
	parts := strings.Split(tag, ",")
	if parts[0] == "-" {
		return "", true
	}
	if parts[0] == "" {
		return field.Name, false
	}
	return parts[0], false
}
