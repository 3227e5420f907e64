package edn

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
//                              PUBLIC TYPES & CTORS
////////////////////////////////////////////////////////////////////////////////

// Kind enumerates all variants a Value may hold. The order of the constants
// is the variant rank used by Compare: values of different kinds order by
// this rank before any payload is inspected.
type Kind int

const (
	KindNil     Kind = iota // no payload
	KindBool                // bool
	KindInt                 // int32
	KindFloat               // float64
	KindChar                // rune
	KindString              // string
	KindSymbol              // string (identifier used as code)
	KindKeyword             // string (without the leading ':')
	KindVector              // []Value
	KindList                // []Value
	KindSet                 // []Value, sorted by Compare, no duplicates
	KindMap                 // []MapEntry, sorted by key
	KindTagged              // Tagged
	KindQuoted              // Value (the suppressed child)
	KindCallable            // *Callable (evaluator-only)
)

// String names the kind for diagnostics ("expected boolean, got string").
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindChar:
		return "character"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindKeyword:
		return "keyword"
	case KindVector:
		return "vector"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	case KindTagged:
		return "tagged"
	case KindQuoted:
		return "quoted"
	case KindCallable:
		return "callable"
	default:
		return "unknown"
	}
}

// Value is the universal carrier for every EDN datum, parsed or constructed.
//
// Fields:
//   - Kind — discriminant indicating which case is active.
//   - Data — Go value appropriate for Kind (see the Kind constants; e.g.
//     int32 for KindInt, []MapEntry for KindMap).
//
// Invariants:
//   - When Kind==KindNil, Data is nil.
//   - When Kind==KindSet, Data is sorted by Compare and holds no duplicates.
//   - When Kind==KindMap, Data is sorted by Compare on the entry keys;
//     map iteration order is therefore the value total order, not source
//     order, and duplicate literal keys keep the last occurrence.
//   - Values are immutable once built. Evaluation and codecs construct new
//     Values; callers must not mutate slices obtained through accessors.
type Value struct {
	Kind Kind
	Data interface{}
}

// MapEntry is one key/value pair of a KindMap payload.
type MapEntry struct {
	Key Value
	Val Value
}

// Tagged is the payload of a tagged element `#tag elem`: a symbol tag plus
// exactly one owned child value.
type Tagged struct {
	Tag  string
	Elem Value
}

// Primitive constructors. Each builds a Value from its natural payload.
func Nil() Value                { return Value{Kind: KindNil} }
func Bool(b bool) Value         { return Value{Kind: KindBool, Data: b} }
func Int(n int32) Value         { return Value{Kind: KindInt, Data: n} }
func Float(f float64) Value     { return Value{Kind: KindFloat, Data: f} }
func Char(r rune) Value         { return Value{Kind: KindChar, Data: r} }
func String(s string) Value     { return Value{Kind: KindString, Data: s} }
func Symbol(name string) Value  { return Value{Kind: KindSymbol, Data: name} }
func Keyword(name string) Value { return Value{Kind: KindKeyword, Data: name} }

// Vector builds an ordered data sequence from its elements.
func Vector(items ...Value) Value { return Value{Kind: KindVector, Data: items} }

// List builds an ordered code sequence from its elements.
func List(items ...Value) Value { return Value{Kind: KindList, Data: items} }

// Set builds an unordered unique collection. Elements are stored sorted by
// Compare; duplicates (Compare == 0) collapse to the first occurrence.
func Set(items ...Value) Value {
	xs := make([]Value, len(items))
	copy(xs, items)
	sort.SliceStable(xs, func(i, j int) bool { return Compare(xs[i], xs[j]) < 0 })
	out := xs[:0]
	for _, x := range xs {
		if len(out) == 0 || Compare(out[len(out)-1], x) != 0 {
			out = append(out, x)
		}
	}
	return Value{Kind: KindSet, Data: out}
}

// Map builds a map from flat key/value pairs: Map(k1, v1, k2, v2, ...).
// It panics on an odd argument count; that is a programming error, the same
// contract class as indexing past the end of a slice.
func Map(pairs ...Value) Value {
	if len(pairs)%2 != 0 {
		panic("edn: Map requires an even number of values")
	}
	var entries []MapEntry
	for i := 0; i < len(pairs); i += 2 {
		entries = insertEntry(entries, pairs[i], pairs[i+1])
	}
	return Value{Kind: KindMap, Data: entries}
}

// MapFromEntries builds a map from prepared entries. Later duplicate keys
// overwrite earlier ones, matching literal map semantics.
func MapFromEntries(entries []MapEntry) Value {
	var out []MapEntry
	for _, e := range entries {
		out = insertEntry(out, e.Key, e.Val)
	}
	return Value{Kind: KindMap, Data: out}
}

// Tag wraps elem in a tagged element `#tag elem`.
func Tag(tag string, elem Value) Value { return Value{Kind: KindTagged, Data: Tagged{Tag: tag, Elem: elem}} }

// Quote wraps elem in a quoted element `'elem` whose evaluation yields elem.
func Quote(elem Value) Value { return Value{Kind: KindQuoted, Data: elem} }

// insertEntry keeps entries sorted by key and replaces on an equal key.
func insertEntry(entries []MapEntry, k, v Value) []MapEntry {
	i := sort.Search(len(entries), func(i int) bool { return Compare(entries[i].Key, k) >= 0 })
	if i < len(entries) && Compare(entries[i].Key, k) == 0 {
		entries[i].Val = v
		return entries
	}
	entries = append(entries, MapEntry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = MapEntry{Key: k, Val: v}
	return entries
}

////////////////////////////////////////////////////////////////////////////////
//                              INTROSPECTION
////////////////////////////////////////////////////////////////////////////////

// IsNil reports whether v is the absence marker.
func (v Value) IsNil() bool { return v.Kind == KindNil }

// The As* accessors are the try-get introspection surface: each returns the
// payload and true when v holds that variant, the zero payload and false
// otherwise. They never fail.

func (v Value) AsBool() (bool, bool) {
	if v.Kind == KindBool {
		return v.Data.(bool), true
	}
	return false, false
}

func (v Value) AsInt() (int32, bool) {
	if v.Kind == KindInt {
		return v.Data.(int32), true
	}
	return 0, false
}

func (v Value) AsFloat() (float64, bool) {
	if v.Kind == KindFloat {
		return v.Data.(float64), true
	}
	return 0, false
}

func (v Value) AsChar() (rune, bool) {
	if v.Kind == KindChar {
		return v.Data.(rune), true
	}
	return 0, false
}

func (v Value) AsString() (string, bool) {
	if v.Kind == KindString {
		return v.Data.(string), true
	}
	return "", false
}

func (v Value) AsSymbol() (string, bool) {
	if v.Kind == KindSymbol {
		return v.Data.(string), true
	}
	return "", false
}

func (v Value) AsKeyword() (string, bool) {
	if v.Kind == KindKeyword {
		return v.Data.(string), true
	}
	return "", false
}

func (v Value) AsVector() ([]Value, bool) {
	if v.Kind == KindVector {
		return v.Data.([]Value), true
	}
	return nil, false
}

func (v Value) AsList() ([]Value, bool) {
	if v.Kind == KindList {
		return v.Data.([]Value), true
	}
	return nil, false
}

func (v Value) AsSet() ([]Value, bool) {
	if v.Kind == KindSet {
		return v.Data.([]Value), true
	}
	return nil, false
}

func (v Value) AsMap() ([]MapEntry, bool) {
	if v.Kind == KindMap {
		return v.Data.([]MapEntry), true
	}
	return nil, false
}

func (v Value) AsTagged() (Tagged, bool) {
	if v.Kind == KindTagged {
		return v.Data.(Tagged), true
	}
	return Tagged{}, false
}

func (v Value) AsQuoted() (Value, bool) {
	if v.Kind == KindQuoted {
		return v.Data.(Value), true
	}
	return Value{}, false
}

func (v Value) AsCallable() (*Callable, bool) {
	if v.Kind == KindCallable {
		return v.Data.(*Callable), true
	}
	return nil, false
}

// KindError reports a variant mismatch from an Expect* accessor or from an
// operation that requires a specific variant (if condition, function
// application).
type KindError struct {
	Want Kind
	Got  Kind
}

func (e *KindError) Error() string { return fmt.Sprintf("expected %s, got %s", e.Want, e.Got) }

// The Expect* accessors fail with a *KindError naming the expected and
// actual variant. They cover the variants the evaluator and codec demand.

func (v Value) ExpectBool() (bool, error) {
	if b, ok := v.AsBool(); ok {
		return b, nil
	}
	return false, &KindError{Want: KindBool, Got: v.Kind}
}

func (v Value) ExpectInt() (int32, error) {
	if n, ok := v.AsInt(); ok {
		return n, nil
	}
	return 0, &KindError{Want: KindInt, Got: v.Kind}
}

func (v Value) ExpectString() (string, error) {
	if s, ok := v.AsString(); ok {
		return s, nil
	}
	return "", &KindError{Want: KindString, Got: v.Kind}
}

func (v Value) ExpectSymbol() (string, error) {
	if s, ok := v.AsSymbol(); ok {
		return s, nil
	}
	return "", &KindError{Want: KindSymbol, Got: v.Kind}
}

func (v Value) ExpectVector() ([]Value, error) {
	if xs, ok := v.AsVector(); ok {
		return xs, nil
	}
	return nil, &KindError{Want: KindVector, Got: v.Kind}
}

func (v Value) ExpectCallable() (*Callable, error) {
	if c, ok := v.AsCallable(); ok {
		return c, nil
	}
	return nil, &KindError{Want: KindCallable, Got: v.Kind}
}

// mapGet looks a key up in sorted map entries.
func mapGet(entries []MapEntry, key Value) (Value, bool) {
	i := sort.Search(len(entries), func(i int) bool { return Compare(entries[i].Key, key) >= 0 })
	if i < len(entries) && Compare(entries[i].Key, key) == 0 {
		return entries[i].Val, true
	}
	return Value{}, false
}

////////////////////////////////////////////////////////////////////////////////
//                              EQUALITY & ORDER
////////////////////////////////////////////////////////////////////////////////

// floatEpsilon is the tolerance for float equality, the double-precision
// machine epsilon. Structural equality of floats is |a-b| < floatEpsilon
// rather than bit-exact comparison; callers comparing very large or very
// small magnitudes should be aware a fixed epsilon is a blunt instrument.
var floatEpsilon = math.Nextafter(1, 2) - 1

// Equal reports structural equality: same variant and recursively equal
// payloads. Floats compare within floatEpsilon. Callables are opaque and
// never equal, not even to themselves.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindBool:
		return a.Data.(bool) == b.Data.(bool)
	case KindInt:
		return a.Data.(int32) == b.Data.(int32)
	case KindFloat:
		return math.Abs(a.Data.(float64)-b.Data.(float64)) < floatEpsilon
	case KindChar:
		return a.Data.(rune) == b.Data.(rune)
	case KindString, KindSymbol, KindKeyword:
		return a.Data.(string) == b.Data.(string)
	case KindVector, KindList, KindSet:
		return equalSlices(a.Data.([]Value), b.Data.([]Value))
	case KindMap:
		ae, be := a.Data.([]MapEntry), b.Data.([]MapEntry)
		if len(ae) != len(be) {
			return false
		}
		for i := range ae {
			if !Equal(ae[i].Key, be[i].Key) || !Equal(ae[i].Val, be[i].Val) {
				return false
			}
		}
		return true
	case KindTagged:
		at, bt := a.Data.(Tagged), b.Data.(Tagged)
		return at.Tag == bt.Tag && Equal(at.Elem, bt.Elem)
	case KindQuoted:
		return Equal(a.Data.(Value), b.Data.(Value))
	default: // KindCallable
		return false
	}
}

func equalSlices(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Compare is the total order over all values: variants order by kind rank
// first, same-variant payloads by natural order (numeric, lexicographic for
// strings and sequences, (tag, elem) for tagged, the child for quoted).
// Callables are mutually unordered and compare as equal. Map and set storage
// use this order as their comparator, so map iteration is value order.
func Compare(a, b Value) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	switch a.Kind {
	case KindNil:
		return 0
	case KindBool:
		ab, bb := a.Data.(bool), b.Data.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case KindInt:
		an, bn := a.Data.(int32), b.Data.(int32)
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	case KindFloat:
		af, bf := a.Data.(float64), b.Data.(float64)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	case KindChar:
		ar, br := a.Data.(rune), b.Data.(rune)
		switch {
		case ar < br:
			return -1
		case ar > br:
			return 1
		default:
			return 0
		}
	case KindString, KindSymbol, KindKeyword:
		return strings.Compare(a.Data.(string), b.Data.(string))
	case KindVector, KindList, KindSet:
		return compareSlices(a.Data.([]Value), b.Data.([]Value))
	case KindMap:
		ae, be := a.Data.([]MapEntry), b.Data.([]MapEntry)
		n := len(ae)
		if len(be) < n {
			n = len(be)
		}
		for i := 0; i < n; i++ {
			if c := Compare(ae[i].Key, be[i].Key); c != 0 {
				return c
			}
			if c := Compare(ae[i].Val, be[i].Val); c != 0 {
				return c
			}
		}
		return len(ae) - len(be)
	case KindTagged:
		at, bt := a.Data.(Tagged), b.Data.(Tagged)
		if c := strings.Compare(at.Tag, bt.Tag); c != 0 {
			return c
		}
		return Compare(at.Elem, bt.Elem)
	case KindQuoted:
		return Compare(a.Data.(Value), b.Data.(Value))
	default: // KindCallable
		return 0
	}
}

func compareSlices(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}
