package edn

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ---- core built-ins ----------------------------------------------------

// registerCoreBuiltins installs the pure native library into Core. The set
// does no I/O; hosts that want printing or file access register their own
// natives through RegisterNative.
func registerCoreBuiltins(ip *Interpreter) {
	// arithmetic
	ip.RegisterNative("+", nativeAdd)
	ip.RegisterNative("-", nativeSub)
	ip.RegisterNative("*", nativeMul)
	ip.RegisterNative("/", nativeDiv)

	// equality and order
	ip.RegisterNative("=", nativeEq)
	ip.RegisterNative("not=", nativeNotEq)
	ip.RegisterNative("<", compareChain("<", func(c int) bool { return c < 0 }))
	ip.RegisterNative("<=", compareChain("<=", func(c int) bool { return c <= 0 }))
	ip.RegisterNative(">", compareChain(">", func(c int) bool { return c > 0 }))
	ip.RegisterNative(">=", compareChain(">=", func(c int) bool { return c >= 0 }))
	ip.RegisterNative("not", nativeNot)

	// collections
	ip.RegisterNative("list", func(args []Value) (Value, error) { return List(args...), nil })
	ip.RegisterNative("vector", func(args []Value) (Value, error) { return Vector(args...), nil })
	ip.RegisterNative("count", nativeCount)
	ip.RegisterNative("first", nativeFirst)
	ip.RegisterNative("rest", nativeRest)
	ip.RegisterNative("cons", nativeCons)
	ip.RegisterNative("concat", nativeConcat)
	ip.RegisterNative("nth", nativeNth)
	ip.RegisterNative("contains?", nativeContains)
	ip.RegisterNative("get", nativeGet)

	// strings and introspection
	ip.RegisterNative("str", nativeStr)
	ip.RegisterNative("type", nativeType)

	// higher-order natives call back through Apply
	ip.RegisterNative("map", func(args []Value) (Value, error) {
		if len(args) != 2 {
			return Value{}, fmt.Errorf("map expects a function and a collection")
		}
		items, err := seqItems("map", args[1])
		if err != nil {
			return Value{}, err
		}
		out := make([]Value, 0, len(items))
		for _, item := range items {
			v, err := ip.Apply(args[0], []Value{item})
			if err != nil {
				return Value{}, err
			}
			out = append(out, v)
		}
		return List(out...), nil
	})
	ip.RegisterNative("filter", func(args []Value) (Value, error) {
		if len(args) != 2 {
			return Value{}, fmt.Errorf("filter expects a predicate and a collection")
		}
		items, err := seqItems("filter", args[1])
		if err != nil {
			return Value{}, err
		}
		var out []Value
		for _, item := range items {
			v, err := ip.Apply(args[0], []Value{item})
			if err != nil {
				return Value{}, err
			}
			keep, err := v.ExpectBool()
			if err != nil {
				return Value{}, err
			}
			if keep {
				out = append(out, item)
			}
		}
		return List(out...), nil
	})
}

// ---- numeric helpers ----------------------------------------------------

// numArg accepts an integer or float argument and yields both views; the
// bool reports which one is authoritative.
func numArg(name string, v Value) (int32, float64, bool, error) {
	switch v.Kind {
	case KindInt:
		n := v.Data.(int32)
		return n, float64(n), false, nil
	case KindFloat:
		return 0, v.Data.(float64), true, nil
	default:
		return 0, 0, false, fmt.Errorf("%s expects numeric arguments, got %s", name, v.Kind)
	}
}

// reduceNumeric folds left to right, staying in int32 until the first
// float argument promotes the whole fold to float64.
func reduceNumeric(name string, args []Value,
	intFn func(a, b int32) (int32, error),
	floatFn func(a, b float64) (float64, error)) (Value, error) {
	if len(args) == 0 {
		return Value{}, fmt.Errorf("%s expects at least one argument", name)
	}
	accI, accF, isFloat, err := numArg(name, args[0])
	if err != nil {
		return Value{}, err
	}
	for _, a := range args[1:] {
		bI, bF, bFloat, err := numArg(name, a)
		if err != nil {
			return Value{}, err
		}
		if bFloat && !isFloat {
			isFloat = true
			accF = float64(accI)
		}
		if isFloat {
			if accF, err = floatFn(accF, bF); err != nil {
				return Value{}, err
			}
		} else {
			if accI, err = intFn(accI, bI); err != nil {
				return Value{}, err
			}
		}
	}
	if isFloat {
		return Float(accF), nil
	}
	return Int(accI), nil
}

func nativeAdd(args []Value) (Value, error) {
	if len(args) == 0 {
		return Int(0), nil
	}
	return reduceNumeric("+", args,
		func(a, b int32) (int32, error) { return a + b, nil },
		func(a, b float64) (float64, error) { return a + b, nil })
}

func nativeMul(args []Value) (Value, error) {
	if len(args) == 0 {
		return Int(1), nil
	}
	return reduceNumeric("*", args,
		func(a, b int32) (int32, error) { return a * b, nil },
		func(a, b float64) (float64, error) { return a * b, nil })
}

// nativeSub negates a single argument, otherwise subtracts the rest from
// the first.
func nativeSub(args []Value) (Value, error) {
	if len(args) == 1 {
		args = []Value{Int(0), args[0]}
	}
	return reduceNumeric("-", args,
		func(a, b int32) (int32, error) { return a - b, nil },
		func(a, b float64) (float64, error) { return a - b, nil })
}

// nativeDiv takes the reciprocal of a single argument, otherwise divides
// the first by the rest. Integer division by zero is an error; float
// division follows IEEE rules.
func nativeDiv(args []Value) (Value, error) {
	if len(args) == 1 {
		args = []Value{Int(1), args[0]}
	}
	return reduceNumeric("/", args,
		func(a, b int32) (int32, error) {
			if b == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return a / b, nil
		},
		func(a, b float64) (float64, error) { return a / b, nil })
}

// numCompare orders two numeric arguments, promoting to float when the
// kinds differ.
func numCompare(name string, a, b Value) (int, error) {
	aI, aF, aFloat, err := numArg(name, a)
	if err != nil {
		return 0, err
	}
	bI, bF, bFloat, err := numArg(name, b)
	if err != nil {
		return 0, err
	}
	if !aFloat && !bFloat {
		switch {
		case aI < bI:
			return -1, nil
		case aI > bI:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if !aFloat {
		aF = float64(aI)
	}
	if !bFloat {
		bF = float64(bI)
	}
	switch {
	case aF < bF:
		return -1, nil
	case aF > bF:
		return 1, nil
	default:
		return 0, nil
	}
}

// compareChain builds a chained numeric comparison: every adjacent pair
// must satisfy ok.
func compareChain(name string, ok func(c int) bool) NativeFunc {
	return func(args []Value) (Value, error) {
		if len(args) == 0 {
			return Value{}, fmt.Errorf("%s expects at least one argument", name)
		}
		for i := 0; i+1 < len(args); i++ {
			c, err := numCompare(name, args[i], args[i+1])
			if err != nil {
				return Value{}, err
			}
			if !ok(c) {
				return Bool(false), nil
			}
		}
		return Bool(true), nil
	}
}

// ---- equality and logic --------------------------------------------------

func nativeEq(args []Value) (Value, error) {
	if len(args) == 0 {
		return Value{}, fmt.Errorf("= expects at least one argument")
	}
	for i := 0; i+1 < len(args); i++ {
		if !Equal(args[i], args[i+1]) {
			return Bool(false), nil
		}
	}
	return Bool(true), nil
}

func nativeNotEq(args []Value) (Value, error) {
	v, err := nativeEq(args)
	if err != nil {
		return Value{}, err
	}
	b, _ := v.AsBool()
	return Bool(!b), nil
}

func nativeNot(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("not expects exactly one argument")
	}
	b, err := args[0].ExpectBool()
	if err != nil {
		return Value{}, err
	}
	return Bool(!b), nil
}

// ---- collections -----------------------------------------------------------

// seqItems views a vector, list, or nil as a slice of elements.
func seqItems(name string, v Value) ([]Value, error) {
	switch v.Kind {
	case KindVector, KindList:
		return v.Data.([]Value), nil
	case KindNil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%s expects a vector or list, got %s", name, v.Kind)
	}
}

func nativeCount(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("count expects exactly one argument")
	}
	switch v := args[0]; v.Kind {
	case KindNil:
		return Int(0), nil
	case KindString:
		return Int(int32(utf8.RuneCountInString(v.Data.(string)))), nil
	case KindVector, KindList, KindSet:
		return Int(int32(len(v.Data.([]Value)))), nil
	case KindMap:
		return Int(int32(len(v.Data.([]MapEntry)))), nil
	default:
		return Value{}, fmt.Errorf("count expects a collection or string, got %s", v.Kind)
	}
}

func nativeFirst(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("first expects exactly one argument")
	}
	items, err := seqItems("first", args[0])
	if err != nil {
		return Value{}, err
	}
	if len(items) == 0 {
		return Nil(), nil
	}
	return items[0], nil
}

func nativeRest(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("rest expects exactly one argument")
	}
	items, err := seqItems("rest", args[0])
	if err != nil {
		return Value{}, err
	}
	if len(items) == 0 {
		return List(), nil
	}
	return List(items[1:]...), nil
}

func nativeCons(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, fmt.Errorf("cons expects a value and a collection")
	}
	items, err := seqItems("cons", args[1])
	if err != nil {
		return Value{}, err
	}
	out := make([]Value, 0, len(items)+1)
	out = append(out, args[0])
	out = append(out, items...)
	return List(out...), nil
}

func nativeConcat(args []Value) (Value, error) {
	var out []Value
	for _, a := range args {
		items, err := seqItems("concat", a)
		if err != nil {
			return Value{}, err
		}
		out = append(out, items...)
	}
	return List(out...), nil
}

func nativeNth(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, fmt.Errorf("nth expects a collection and an index")
	}
	items, err := seqItems("nth", args[0])
	if err != nil {
		return Value{}, err
	}
	idx, err := args[1].ExpectInt()
	if err != nil {
		return Value{}, err
	}
	if idx < 0 || int(idx) >= len(items) {
		return Value{}, fmt.Errorf("index out of range: %d", idx)
	}
	return items[idx], nil
}

func nativeContains(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, fmt.Errorf("contains? expects a collection and a key")
	}
	switch v := args[0]; v.Kind {
	case KindSet:
		for _, item := range v.Data.([]Value) {
			if Equal(item, args[1]) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case KindMap:
		_, ok := mapGet(v.Data.([]MapEntry), args[1])
		return Bool(ok), nil
	default:
		return Value{}, fmt.Errorf("contains? expects a set or map, got %s", v.Kind)
	}
}

// nativeGet looks a key up in a map, with an optional third argument as
// the default instead of nil.
func nativeGet(args []Value) (Value, error) {
	if len(args) != 2 && len(args) != 3 {
		return Value{}, fmt.Errorf("get expects a map, a key, and an optional default")
	}
	entries, ok := args[0].AsMap()
	if !ok {
		return Value{}, fmt.Errorf("get expects a map, got %s", args[0].Kind)
	}
	if v, ok := mapGet(entries, args[1]); ok {
		return v, nil
	}
	if len(args) == 3 {
		return args[2], nil
	}
	return Nil(), nil
}

// ---- strings and introspection ---------------------------------------------

func nativeStr(args []Value) (Value, error) {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(Str(a))
	}
	return String(b.String()), nil
}

func nativeType(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("type expects exactly one argument")
	}
	return Keyword(args[0].Kind.String()), nil
}
