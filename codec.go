// codec.go — reflection bridge between Go values and edn values.
//
// Marshal walks a Go value and builds the matching edn value; Unmarshal
// walks an edn value and fills a Go value through a pointer. Struct fields
// map to keyword keys named by the `edn:"..."` tag, falling back to the
// lowercased field name; a tag of "-" skips the field. Types owning their
// own representation implement Marshaler or Unmarshaler. time.Time and
// uuid.UUID travel as the #inst and #uuid tagged literals.
package edn

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Marshaler is implemented by Go types that produce their own edn value.
type Marshaler interface {
	MarshalEDN() (Value, error)
}

// Unmarshaler is implemented by Go types that decode an edn value
// themselves.
type Unmarshaler interface {
	UnmarshalEDN(v Value) error
}

var (
	marshalerType = reflect.TypeOf((*Marshaler)(nil)).Elem()
	timeType      = reflect.TypeOf(time.Time{})
	uuidType      = reflect.TypeOf(uuid.UUID{})
)

// Marshal converts a Go value into an edn value.
//
// Mapping rules:
//   - bool, string map to boolean, string
//   - signed/unsigned integers map to integer and must fit in 32 bits
//   - float32/float64 map to float
//   - slices and arrays map to vectors; nil slices map to nil
//   - maps map to maps; string keys become keywords, other keys recurse
//   - structs map to maps with keyword keys from the `edn:"..."` tag
//   - nil pointers map to nil; non-nil pointers marshal the pointee
//   - time.Time maps to #inst "RFC3339", uuid.UUID to #uuid "..."
func Marshal(x any) (Value, error) {
	if x == nil {
		return Nil(), nil
	}
	return marshalValue(reflect.ValueOf(x))
}

func marshalValue(rv reflect.Value) (Value, error) {
	if !rv.IsValid() {
		return Nil(), nil
	}
	if rv.Type().Implements(marshalerType) {
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Nil(), nil
		}
		return rv.Interface().(Marshaler).MarshalEDN()
	}
	if rv.CanAddr() && rv.Addr().Type().Implements(marshalerType) {
		return rv.Addr().Interface().(Marshaler).MarshalEDN()
	}
	switch rv.Type() {
	case timeType:
		t := rv.Interface().(time.Time)
		return Tag("inst", String(t.UTC().Format(time.RFC3339))), nil
	case uuidType:
		u := rv.Interface().(uuid.UUID)
		return Tag("uuid", String(u.String())), nil
	}
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < math.MinInt32 || n > math.MaxInt32 {
			return Value{}, fmt.Errorf("integer %d does not fit in 32 bits", n)
		}
		return Int(int32(n)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt32 {
			return Value{}, fmt.Errorf("integer %d does not fit in 32 bits", u)
		}
		return Int(int32(u)), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Nil(), nil
		}
		return marshalValue(rv.Elem())
	case reflect.Slice:
		if rv.IsNil() {
			return Nil(), nil
		}
		return marshalSeq(rv)
	case reflect.Array:
		return marshalSeq(rv)
	case reflect.Map:
		if rv.IsNil() {
			return Nil(), nil
		}
		return marshalMap(rv)
	case reflect.Struct:
		return marshalStruct(rv)
	}
	return Value{}, fmt.Errorf("cannot encode Go value of type %s", rv.Type())
}

func marshalSeq(rv reflect.Value) (Value, error) {
	items := make([]Value, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		el, err := marshalValue(rv.Index(i))
		if err != nil {
			return Value{}, err
		}
		items[i] = el
	}
	return Vector(items...), nil
}

func marshalMap(rv reflect.Value) (Value, error) {
	entries := make([]MapEntry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		var key Value
		if iter.Key().Kind() == reflect.String {
			key = Keyword(iter.Key().String())
		} else {
			k, err := marshalValue(iter.Key())
			if err != nil {
				return Value{}, err
			}
			key = k
		}
		val, err := marshalValue(iter.Value())
		if err != nil {
			return Value{}, err
		}
		entries = append(entries, MapEntry{Key: key, Val: val})
	}
	return MapFromEntries(entries), nil
}

func marshalStruct(rv reflect.Value) (Value, error) {
	rt := rv.Type()
	entries := make([]MapEntry, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name := fieldKey(f)
		if name == "" {
			continue
		}
		el, err := marshalValue(rv.Field(i))
		if err != nil {
			return Value{}, fmt.Errorf("encoding field '%s': %w", name, err)
		}
		entries = append(entries, MapEntry{Key: Keyword(name), Val: el})
	}
	return MapFromEntries(entries), nil
}

// fieldKey resolves the map key for a struct field. "-" skips the field.
func fieldKey(f reflect.StructField) string {
	tag := f.Tag.Get("edn")
	if tag == "-" {
		return ""
	}
	if tag != "" {
		return tag
	}
	return strings.ToLower(f.Name)
}

// Unmarshal fills target, which must be a non-nil pointer, from an edn
// value. Unknown map keys are ignored; keys missing from the value leave
// the corresponding field at its current contents.
func Unmarshal(v Value, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer, got %T", target)
	}
	return unmarshalValue(v, rv.Elem())
}

func unmarshalValue(v Value, rv reflect.Value) error {
	if rv.CanAddr() {
		if u, ok := rv.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalEDN(v)
		}
	}
	switch rv.Type() {
	case timeType:
		t, err := instToTime(v)
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(t))
		return nil
	case uuidType:
		u, err := uuidFromValue(v)
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(u))
		return nil
	}
	if rv.Kind() == reflect.Pointer {
		if v.IsNil() {
			rv.SetZero()
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return unmarshalValue(v, rv.Elem())
	}
	switch rv.Kind() {
	case reflect.Bool:
		b, ok := v.AsBool()
		if !ok {
			return &KindError{Want: KindBool, Got: v.Kind}
		}
		rv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.AsInt()
		if !ok {
			return &KindError{Want: KindInt, Got: v.Kind}
		}
		if rv.OverflowInt(int64(n)) {
			return fmt.Errorf("integer %d overflows %s", n, rv.Type())
		}
		rv.SetInt(int64(n))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := v.AsInt()
		if !ok {
			return &KindError{Want: KindInt, Got: v.Kind}
		}
		if n < 0 || rv.OverflowUint(uint64(n)) {
			return fmt.Errorf("integer %d overflows %s", n, rv.Type())
		}
		rv.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		if f, ok := v.AsFloat(); ok {
			rv.SetFloat(f)
			return nil
		}
		n, ok := v.AsInt()
		if !ok {
			return &KindError{Want: KindFloat, Got: v.Kind}
		}
		rv.SetFloat(float64(n))
	case reflect.String:
		s, ok := v.AsString()
		if !ok {
			return &KindError{Want: KindString, Got: v.Kind}
		}
		rv.SetString(s)
	case reflect.Slice:
		if v.IsNil() {
			rv.SetZero()
			return nil
		}
		items, err := seqElements(v)
		if err != nil {
			return err
		}
		out := reflect.MakeSlice(rv.Type(), len(items), len(items))
		for i, it := range items {
			if err := unmarshalValue(it, out.Index(i)); err != nil {
				return err
			}
		}
		rv.Set(out)
	case reflect.Array:
		items, err := seqElements(v)
		if err != nil {
			return err
		}
		if len(items) != rv.Len() {
			return fmt.Errorf("vector of %d element(s) does not fit array %s", len(items), rv.Type())
		}
		for i, it := range items {
			if err := unmarshalValue(it, rv.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		return unmarshalMap(v, rv)
	case reflect.Struct:
		return unmarshalStruct(v, rv)
	default:
		return fmt.Errorf("cannot decode into Go type %s", rv.Type())
	}
	return nil
}

// seqElements accepts a vector or a list for sequence targets.
func seqElements(v Value) ([]Value, error) {
	if items, ok := v.AsVector(); ok {
		return items, nil
	}
	if items, ok := v.AsList(); ok {
		return items, nil
	}
	return nil, &KindError{Want: KindVector, Got: v.Kind}
}

func unmarshalMap(v Value, rv reflect.Value) error {
	if v.IsNil() {
		rv.SetZero()
		return nil
	}
	entries, ok := v.AsMap()
	if !ok {
		return &KindError{Want: KindMap, Got: v.Kind}
	}
	out := reflect.MakeMapWithSize(rv.Type(), len(entries))
	keyType := rv.Type().Key()
	elemType := rv.Type().Elem()
	for _, e := range entries {
		key := reflect.New(keyType).Elem()
		if keyType.Kind() == reflect.String {
			name, ok := keyName(e.Key)
			if !ok {
				return &KindError{Want: KindKeyword, Got: e.Key.Kind}
			}
			key.SetString(name)
		} else if err := unmarshalValue(e.Key, key); err != nil {
			return err
		}
		elem := reflect.New(elemType).Elem()
		if err := unmarshalValue(e.Val, elem); err != nil {
			return err
		}
		out.SetMapIndex(key, elem)
	}
	rv.Set(out)
	return nil
}

// keyName extracts a textual key from a keyword or string value.
func keyName(v Value) (string, bool) {
	if name, ok := v.AsKeyword(); ok {
		return name, true
	}
	return v.AsString()
}

func unmarshalStruct(v Value, rv reflect.Value) error {
	entries, ok := v.AsMap()
	if !ok {
		return &KindError{Want: KindMap, Got: v.Kind}
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		field := rv.Field(i)
		if !field.CanSet() {
			continue
		}
		name := fieldKey(f)
		if name == "" {
			continue
		}
		el, found := mapGet(entries, Keyword(name))
		if !found {
			el, found = mapGet(entries, String(name))
		}
		if !found {
			continue
		}
		if err := unmarshalValue(el, field); err != nil {
			return fmt.Errorf("decoding field '%s': %w", name, err)
		}
	}
	return nil
}

func instToTime(v Value) (time.Time, error) {
	t, ok := v.AsTagged()
	if !ok {
		return time.Time{}, fmt.Errorf("expected #inst tagged value, got %s", v.Kind)
	}
	if t.Tag != "inst" {
		return time.Time{}, fmt.Errorf("expected #inst tagged value, got #%s", t.Tag)
	}
	s, ok := t.Elem.AsString()
	if !ok {
		return time.Time{}, fmt.Errorf("expected a string under #inst, got %s", t.Elem.Kind)
	}
	return time.Parse(time.RFC3339, s)
}

func uuidFromValue(v Value) (uuid.UUID, error) {
	t, ok := v.AsTagged()
	if !ok {
		return uuid.UUID{}, fmt.Errorf("expected #uuid tagged value, got %s", v.Kind)
	}
	if t.Tag != "uuid" {
		return uuid.UUID{}, fmt.Errorf("expected #uuid tagged value, got #%s", t.Tag)
	}
	s, ok := t.Elem.AsString()
	if !ok {
		return uuid.UUID{}, fmt.Errorf("expected a string under #uuid, got %s", t.Elem.Kind)
	}
	return uuid.Parse(s)
}
