// interpreter.go — the public evaluator surface.
//
// The engine is a tree walk over parsed Values: quoted elements yield their
// child, symbols resolve through the environment chain, lists dispatch to a
// special form or to function application, the remaining collections
// rebuild themselves from evaluated children, and every other value is
// self-evaluating. Evaluation is synchronous and single-threaded;
// environments are created per call and per let block and are never shared
// across concurrent evaluations.
//
// Behavior summary:
//   - EvalSource runs in a **fresh child of Global** (ephemeral).
//   - EvalPersistentSource runs **in Global** (persistent, REPL-style).
//   - Eval runs in the environment you pass.
//   - RegisterNative binds host functions into Core before evaluation.
package edn

import (
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
//                              PUBLIC TYPES & CTORS
////////////////////////////////////////////////////////////////////////////////

// NativeFunc is the host-function contract: evaluated arguments in, one
// value or an error out. Natives get no other side channel into the
// evaluator.
type NativeFunc func(args []Value) (Value, error)

// Overload is one (params, body) arity of a user-defined closure. Params
// are the mandatory parameter names; Variadic, when non-empty, is the
// symbol after `&` that collects the surplus arguments into a list.
type Overload struct {
	Params   []string
	Variadic string
	Body     []Value
}

// Callable is the payload of a KindCallable value: either a registered
// native (Fn non-nil) or a user closure (Overloads in declaration order
// plus the captured defining environment).
type Callable struct {
	Name      string
	Fn        NativeFunc
	Overloads []Overload
	Env       *Env
}

// Native wraps a host function into a callable Value.
func Native(name string, fn NativeFunc) Value {
	return Value{Kind: KindCallable, Data: &Callable{Name: name, Fn: fn}}
}

// EvalError contextualizes a failure with the rendered form that was being
// evaluated. Wrapping happens per enclosing list form as the error
// propagates, so the message reads as a causal chain and Unwrap reaches
// the original cause.
type EvalError struct {
	Form Value
	Err  error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating `%s`: %v", Repr(e.Form), e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Env is a lexical environment frame with an outer link. Lookups walk
// outer-ward; Define always binds in the current frame, shadowing any
// outer binding. Values are immutable, so there is no Set: rebinding is
// always a new Define.
type Env struct {
	outer *Env
	table map[string]Value
}

// NewEnv creates a frame with the given outer frame (which may be nil).
func NewEnv(outer *Env) *Env { return &Env{outer: outer, table: make(map[string]Value)} }

// Define binds name to v in the current frame.
func (e *Env) Define(name string, v Value) {
	e.table[name] = v
}

// Get retrieves the nearest visible binding for name or fails.
func (e *Env) Get(name string) (Value, error) {
	if v, ok := e.table[name]; ok {
		return v, nil
	}
	if e.outer != nil {
		return e.outer.Get(name)
	}
	return Value{}, fmt.Errorf("unrecognized symbol `%s`", name)
}

// Interpreter owns the environment roots: Core holds the builtin natives,
// Global (a child of Core) holds user definitions.
type Interpreter struct {
	Core   *Env
	Global *Env
}

// NewInterpreter constructs an engine with the core natives installed and
// an empty Global inheriting from Core.
func NewInterpreter() *Interpreter {
	ip := &Interpreter{}
	ip.Core = NewEnv(nil)
	ip.Global = NewEnv(ip.Core)
	registerCoreBuiltins(ip)
	return ip
}

// RegisterNative binds a host function into Core under name.
func (ip *Interpreter) RegisterNative(name string, fn NativeFunc) {
	ip.Core.Define(name, Native(name, fn))
}

////////////////////////////////////////////////////////////////////////////////
//                                 EVALUATION
////////////////////////////////////////////////////////////////////////////////

// EvalSource parses and evaluates src in a fresh child of Global: defs land
// in that ephemeral frame and Global stays unchanged.
func (ip *Interpreter) EvalSource(src string) (Value, error) {
	v, err := Parse(src)
	if err != nil {
		return Nil(), err
	}
	return ip.Eval(v, NewEnv(ip.Global))
}

// EvalPersistentSource parses and evaluates src in Global itself, so defs
// persist across calls (REPL semantics).
func (ip *Interpreter) EvalPersistentSource(src string) (Value, error) {
	v, err := Parse(src)
	if err != nil {
		return Nil(), err
	}
	return ip.Eval(v, ip.Global)
}

// Eval evaluates one value in env. Failures surface as *EvalError naming
// the offending form with the underlying cause preserved beneath it.
func (ip *Interpreter) Eval(v Value, env *Env) (Value, error) {
	out, err := ip.eval(v, env)
	if err != nil {
		if _, ok := err.(*EvalError); !ok {
			err = &EvalError{Form: v, Err: err}
		}
		return Nil(), err
	}
	return out, nil
}

// Apply invokes a callable value on already-evaluated arguments. Hosts and
// natives that receive closures call back through it.
func (ip *Interpreter) Apply(fn Value, args []Value) (Value, error) {
	c, err := fn.ExpectCallable()
	if err != nil {
		return Value{}, err
	}
	return ip.apply(c, args)
}

func (ip *Interpreter) eval(v Value, env *Env) (Value, error) {
	switch v.Kind {
	case KindQuoted:
		return v.Data.(Value), nil
	case KindSymbol:
		return env.Get(v.Data.(string))
	case KindList:
		out, err := ip.evalList(v.Data.([]Value), env)
		if err != nil {
			return Value{}, &EvalError{Form: v, Err: err}
		}
		return out, nil
	case KindVector:
		xs, err := ip.evalEach(v.Data.([]Value), env)
		if err != nil {
			return Value{}, err
		}
		return Vector(xs...), nil
	case KindSet:
		xs, err := ip.evalEach(v.Data.([]Value), env)
		if err != nil {
			return Value{}, err
		}
		return Set(xs...), nil
	case KindMap:
		entries := v.Data.([]MapEntry)
		out := make([]MapEntry, 0, len(entries))
		for _, e := range entries {
			k, err := ip.eval(e.Key, env)
			if err != nil {
				return Value{}, err
			}
			val, err := ip.eval(e.Val, env)
			if err != nil {
				return Value{}, err
			}
			out = append(out, MapEntry{Key: k, Val: val})
		}
		return MapFromEntries(out), nil
	default:
		// Scalars, keywords, tagged elements and callables are
		// self-evaluating.
		return v, nil
	}
}

func (ip *Interpreter) evalEach(items []Value, env *Env) ([]Value, error) {
	out := make([]Value, 0, len(items))
	for _, item := range items {
		v, err := ip.eval(item, env)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// evalList dispatches a list form: special form when the head symbol names
// one, function application otherwise. An empty list evaluates to nil.
func (ip *Interpreter) evalList(items []Value, env *Env) (Value, error) {
	if len(items) == 0 {
		return Nil(), nil
	}
	if name, ok := items[0].AsSymbol(); ok {
		if form, ok := specialForms[name]; ok {
			return form(ip, items[1:], env)
		}
	}
	head, err := ip.eval(items[0], env)
	if err != nil {
		return Value{}, err
	}
	callable, err := head.ExpectCallable()
	if err != nil {
		return Value{}, err
	}
	args, err := ip.evalEach(items[1:], env)
	if err != nil {
		return Value{}, err
	}
	return ip.apply(callable, args)
}

// apply resolves a closure overload by arity (declaration order is the
// tie-break) or calls the native directly. Each closure invocation gets one
// fresh frame chained to the closure's captured environment, not the
// caller's.
func (ip *Interpreter) apply(c *Callable, args []Value) (Value, error) {
	if c.Fn != nil {
		return c.Fn(args)
	}
	for _, o := range c.Overloads {
		if !o.matches(len(args)) {
			continue
		}
		frame := NewEnv(c.Env)
		for i, name := range o.Params {
			frame.Define(name, args[i])
		}
		if o.Variadic != "" {
			frame.Define(o.Variadic, List(args[len(o.Params):]...))
		}
		return evalDo(ip, o.Body, frame)
	}
	return Value{}, fmt.Errorf("could not resolve function overload for %d arg(s)", len(args))
}

// matches accepts an exact mandatory count, or strictly more arguments when
// a variadic symbol is declared.
func (o Overload) matches(argc int) bool {
	if o.Variadic != "" {
		return argc > len(o.Params)
	}
	return argc == len(o.Params)
}

////////////////////////////////////////////////////////////////////////////////
//                                SPECIAL FORMS
////////////////////////////////////////////////////////////////////////////////

type specialForm func(ip *Interpreter, args []Value, env *Env) (Value, error)

// specialForms maps head symbols to their structural interpretation. Any
// other head falls through to function application. Populated in init to
// break the initialization cycle between the map and the eval functions.
var specialForms map[string]specialForm

func init() {
	specialForms = map[string]specialForm{
		"quote": evalQuote,
		"let":   evalLet,
		"def":   evalDef,
		"fn":    evalFn,
		"defn":  evalDefn,
		"if":    evalIf,
		"cond":  evalCond,
		"do":    evalDo,
	}
}

func evalQuote(ip *Interpreter, args []Value, env *Env) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("quote expects exactly one form")
	}
	return args[0], nil
}

// evalLet binds a flat [sym val ...] vector sequentially into a new child
// frame; each right-hand side sees the bindings before it. The body
// evaluates in that frame.
func evalLet(ip *Interpreter, args []Value, env *Env) (Value, error) {
	if len(args) == 0 {
		return Value{}, fmt.Errorf("let expects a bindings vector")
	}
	bindings, err := args[0].ExpectVector()
	if err != nil {
		return Value{}, err
	}
	if len(bindings)%2 != 0 {
		return Value{}, fmt.Errorf("let expects an even number of binding forms")
	}
	frame := NewEnv(env)
	for i := 0; i < len(bindings); i += 2 {
		name, err := bindings[i].ExpectSymbol()
		if err != nil {
			return Value{}, err
		}
		bound, err := ip.eval(bindings[i+1], frame)
		if err != nil {
			return Value{}, err
		}
		frame.Define(name, bound)
	}
	return evalDo(ip, args[1:], frame)
}

// evalDef binds in the current frame and returns the bound value.
func evalDef(ip *Interpreter, args []Value, env *Env) (Value, error) {
	if len(args) != 2 {
		return Value{}, fmt.Errorf("def expects a symbol and a value")
	}
	name, err := args[0].ExpectSymbol()
	if err != nil {
		return Value{}, err
	}
	bound, err := ip.eval(args[1], env)
	if err != nil {
		return Value{}, err
	}
	env.Define(name, bound)
	return bound, nil
}

// evalFn builds a closure capturing env: single arity when the first
// argument is a parameter vector, one overload per list otherwise.
func evalFn(ip *Interpreter, args []Value, env *Env) (Value, error) {
	overloads, err := parseOverloads(args)
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: KindCallable, Data: &Callable{Overloads: overloads, Env: env}}, nil
}

func evalDefn(ip *Interpreter, args []Value, env *Env) (Value, error) {
	if len(args) < 2 {
		return Value{}, fmt.Errorf("defn expects a name and a function body")
	}
	name, err := args[0].ExpectSymbol()
	if err != nil {
		return Value{}, err
	}
	fn, err := evalFn(ip, args[1:], env)
	if err != nil {
		return Value{}, err
	}
	if c, ok := fn.AsCallable(); ok {
		c.Name = name
	}
	env.Define(name, fn)
	return fn, nil
}

// evalIf requires a boolean condition; a missing else-branch yields nil.
func evalIf(ip *Interpreter, args []Value, env *Env) (Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return Value{}, fmt.Errorf("if expects a condition, a then form, and an optional else form")
	}
	condVal, err := ip.eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	cond, err := condVal.ExpectBool()
	if err != nil {
		return Value{}, err
	}
	if cond {
		return ip.eval(args[1], env)
	}
	if len(args) == 3 {
		return ip.eval(args[2], env)
	}
	return Nil(), nil
}

// evalCond scans test/result pairs in order. The literal keyword :else
// always matches; other tests must evaluate to booleans. No match is nil.
func evalCond(ip *Interpreter, args []Value, env *Env) (Value, error) {
	if len(args)%2 != 0 {
		return Value{}, fmt.Errorf("cond expects test/result pairs")
	}
	for i := 0; i < len(args); i += 2 {
		if kw, ok := args[i].AsKeyword(); ok && kw == "else" {
			return ip.eval(args[i+1], env)
		}
		tested, err := ip.eval(args[i], env)
		if err != nil {
			return Value{}, err
		}
		match, err := tested.ExpectBool()
		if err != nil {
			return Value{}, err
		}
		if match {
			return ip.eval(args[i+1], env)
		}
	}
	return Nil(), nil
}

func evalDo(ip *Interpreter, args []Value, env *Env) (Value, error) {
	result := Nil()
	for _, form := range args {
		v, err := ip.eval(form, env)
		if err != nil {
			return Value{}, err
		}
		result = v
	}
	return result, nil
}

////////////////////////////////////////////////////////////////////////////////
//                             CLOSURE CONSTRUCTION
////////////////////////////////////////////////////////////////////////////////

// parseOverloads accepts `[params] body...` (single arity) or a run of
// `((params) body...)` lists (one overload each, declaration order kept).
func parseOverloads(args []Value) ([]Overload, error) {
	multi := len(args) > 0
	for _, a := range args {
		if a.Kind != KindList {
			multi = false
			break
		}
	}
	if !multi {
		o, err := parseOverload(args)
		if err != nil {
			return nil, err
		}
		return []Overload{o}, nil
	}
	overloads := make([]Overload, 0, len(args))
	for _, a := range args {
		o, err := parseOverload(a.Data.([]Value))
		if err != nil {
			return nil, err
		}
		overloads = append(overloads, o)
	}
	return overloads, nil
}

// parseOverload reads one parameter vector plus body. Parameters are
// symbols; `&` marks the variadic collector and must be followed by
// exactly one symbol.
func parseOverload(forms []Value) (Overload, error) {
	if len(forms) == 0 {
		return Overload{}, fmt.Errorf("fn expects a parameter vector")
	}
	params, err := forms[0].ExpectVector()
	if err != nil {
		return Overload{}, err
	}
	o := Overload{Body: forms[1:]}
	for i := 0; i < len(params); i++ {
		name, err := params[i].ExpectSymbol()
		if err != nil {
			return Overload{}, err
		}
		if name == "&" {
			if i != len(params)-2 {
				return Overload{}, fmt.Errorf("fn expects exactly one symbol after &")
			}
			rest, err := params[i+1].ExpectSymbol()
			if err != nil {
				return Overload{}, err
			}
			o.Variadic = rest
			return o, nil
		}
		o.Params = append(o.Params, name)
	}
	return o, nil
}
