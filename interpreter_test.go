package edn

import (
	"errors"
	"strings"
	"testing"
)

// --- helpers ---------------------------------------------------------------

func evalSrc(t *testing.T, src string) Value {
	t.Helper()
	ip := NewInterpreter()
	v, err := ip.EvalSource(src)
	if err != nil {
		t.Fatalf("EvalSource error: %v\nsource:\n%s", err, src)
	}
	return v
}

func evalErrSrc(t *testing.T, src string) error {
	t.Helper()
	ip := NewInterpreter()
	if _, err := ip.EvalSource(src); err != nil {
		return err
	}
	t.Fatalf("expected an evaluation error for %q", src)
	return nil
}

func mustEvalPersistent(t *testing.T, ip *Interpreter, src string) Value {
	t.Helper()
	v, err := ip.EvalPersistentSource(src)
	if err != nil {
		t.Fatalf("eval error for %q: %v", src, err)
	}
	return v
}

func wantInt(t *testing.T, v Value, n int32) {
	t.Helper()
	if v.Kind != KindInt || v.Data.(int32) != n {
		t.Fatalf("want int %d, got %s", n, Repr(v))
	}
}

func wantFloat(t *testing.T, v Value, f float64) {
	t.Helper()
	if v.Kind != KindFloat || v.Data.(float64) != f {
		t.Fatalf("want float %g, got %s", f, Repr(v))
	}
}

func wantBool(t *testing.T, v Value, b bool) {
	t.Helper()
	if v.Kind != KindBool || v.Data.(bool) != b {
		t.Fatalf("want bool %v, got %s", b, Repr(v))
	}
}

func wantStr(t *testing.T, v Value, s string) {
	t.Helper()
	if v.Kind != KindString || v.Data.(string) != s {
		t.Fatalf("want string %q, got %s", s, Repr(v))
	}
}

func wantNil(t *testing.T, v Value) {
	t.Helper()
	if v.Kind != KindNil {
		t.Fatalf("want nil, got %s", Repr(v))
	}
}

func wantErrContains(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("error %q does not contain %q", err.Error(), substr)
	}
}

// --- tests -----------------------------------------------------------------

func Test_Interpreter_SelfEvaluating_Scalars(t *testing.T) {
	wantInt(t, evalSrc(t, "42"), 42)
	wantFloat(t, evalSrc(t, "4.5"), 4.5)
	wantStr(t, evalSrc(t, `"hi"`), "hi")
	wantBool(t, evalSrc(t, "true"), true)
	wantNil(t, evalSrc(t, "nil"))
	wantEqual(t, evalSrc(t, ":kw"), Keyword("kw"))
	wantEqual(t, evalSrc(t, `\a`), Char('a'))
	wantEqual(t, evalSrc(t, `#inst "2024-01-01T00:00:00Z"`),
		Tag("inst", String("2024-01-01T00:00:00Z")))
}

func Test_Interpreter_Quote_Suppresses_Evaluation(t *testing.T) {
	wantEqual(t, evalSrc(t, "'x"), Symbol("x"))
	wantEqual(t, evalSrc(t, "'(+ 1 2)"), List(Symbol("+"), Int(1), Int(2)))
	wantEqual(t, evalSrc(t, "(quote (1 2))"), List(Int(1), Int(2)))
	wantErrContains(t, evalErrSrc(t, "(quote 1 2)"), "quote expects exactly one form")
}

func Test_Interpreter_Collections_Evaluate_Elements(t *testing.T) {
	wantEqual(t, evalSrc(t, "[(+ 1 2) 4]"), Vector(Int(3), Int(4)))
	wantEqual(t, evalSrc(t, "{:a (+ 1 2)}"), Map(Keyword("a"), Int(3)))

	// set elements dedupe after evaluation
	wantEqual(t, evalSrc(t, "#{(+ 1 2) 3}"), Set(Int(3)))

	// map keys normalize after evaluation: later duplicate wins
	wantEqual(t, evalSrc(t, "{(+ 1 2) :a (+ 2 1) :b}"), Map(Int(3), Keyword("b")))
}

func Test_Interpreter_Empty_List_Is_Nil(t *testing.T) {
	wantNil(t, evalSrc(t, "()"))
}

func Test_Interpreter_Unrecognized_Symbol(t *testing.T) {
	wantErrContains(t, evalErrSrc(t, "nope"), "unrecognized symbol `nope`")
}

func Test_Interpreter_Let_Binds_Sequentially(t *testing.T) {
	wantInt(t, evalSrc(t, "(let [x 1 y (+ x 1)] (+ x y))"), 3)
	wantInt(t, evalSrc(t, "(let [x 1] (let [x 2] x))"), 2)
	wantNil(t, evalSrc(t, "(let [x 1])")) // empty body
}

func Test_Interpreter_Let_Rejects_Odd_Bindings(t *testing.T) {
	wantErrContains(t, evalErrSrc(t, "(let [x] x)"),
		"let expects an even number of binding forms")
	wantErrContains(t, evalErrSrc(t, "(let (x 1) x)"), "expected vector")
}

func Test_Interpreter_EvalSource_Keeps_Global_Clean(t *testing.T) {
	ip := NewInterpreter()
	v, err := ip.EvalSource("(def x 3) x")
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	wantInt(t, v, 3)

	// the definition must not leak into Global
	if _, err := ip.EvalSource("x"); err == nil {
		t.Fatalf("expected x to be undefined after ephemeral evaluation")
	}
}

func Test_Interpreter_EvalPersistentSource_Persists(t *testing.T) {
	ip := NewInterpreter()
	mustEvalPersistent(t, ip, "(def x 3)")
	wantInt(t, mustEvalPersistent(t, ip, "(+ x 1)"), 4)

	// ephemeral evaluations see persistent definitions
	v, err := ip.EvalSource("(* x 2)")
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	wantInt(t, v, 6)
}

func Test_Interpreter_Def_Returns_The_Bound_Value(t *testing.T) {
	wantInt(t, evalSrc(t, "(def x (+ 1 2))"), 3)
}

func Test_Interpreter_If(t *testing.T) {
	wantInt(t, evalSrc(t, "(if true 1 2)"), 1)
	wantInt(t, evalSrc(t, "(if false 1 2)"), 2)
	wantNil(t, evalSrc(t, "(if false 1)"))
	wantErrContains(t, evalErrSrc(t, "(if 1 2 3)"), "expected boolean, got integer")
	wantErrContains(t, evalErrSrc(t, "(if true)"),
		"if expects a condition, a then form, and an optional else form")
}

func Test_Interpreter_If_Evaluates_Only_Taken_Branch(t *testing.T) {
	// the untaken branch would fail if evaluated
	wantInt(t, evalSrc(t, "(if true 1 (boom))"), 1)
	wantInt(t, evalSrc(t, "(if false (boom) 2)"), 2)
}

func Test_Interpreter_Cond(t *testing.T) {
	wantEqual(t, evalSrc(t, "(cond (= 1 1) :yes :else :no)"), Keyword("yes"))
	wantEqual(t, evalSrc(t, "(cond (= 1 2) :yes :else :no)"), Keyword("no"))
	wantNil(t, evalSrc(t, "(cond false 1)"))
	wantErrContains(t, evalErrSrc(t, "(cond true)"), "cond expects test/result pairs")
	wantErrContains(t, evalErrSrc(t, "(cond 1 2)"), "expected boolean, got integer")
}

func Test_Interpreter_Do_Returns_Last_Form(t *testing.T) {
	wantInt(t, evalSrc(t, "(do 1 2 3)"), 3)
	wantNil(t, evalSrc(t, "(do)"))
}

func Test_Interpreter_Implicit_Do_For_Multiple_TopLevel_Forms(t *testing.T) {
	wantInt(t, evalSrc(t, "(def x 2) (def y 3) (* x y)"), 6)
}

func Test_Interpreter_Fn_Call(t *testing.T) {
	wantInt(t, evalSrc(t, "((fn [x] (* x x)) 5)"), 25)
	wantInt(t, evalSrc(t, "((fn [] 7))"), 7)
}

func Test_Interpreter_Fn_Captures_Defining_Environment(t *testing.T) {
	wantInt(t, evalSrc(t, "(((fn [a] (fn [b] (+ a b))) 2) 5)"), 7)

	// the closure sees its defining frame, not the caller's
	src := "(def n 10) (defn add-n [x] (+ x n)) (let [n 0] (add-n 5))"
	wantInt(t, evalSrc(t, src), 15)
}

func Test_Interpreter_Fn_MultiArity_First_Match_Wins(t *testing.T) {
	src := "(def f (fn ([x] x) ([x y] (+ x y)))) "
	ip := NewInterpreter()
	mustEvalPersistent(t, ip, src)
	wantInt(t, mustEvalPersistent(t, ip, "(f 3)"), 3)
	wantInt(t, mustEvalPersistent(t, ip, "(f 3 4)"), 7)

	_, err := ip.EvalPersistentSource("(f)")
	wantErrContains(t, err, "could not resolve function overload for 0 arg(s)")
}

func Test_Interpreter_Fn_Variadic_Collects_Surplus_As_List(t *testing.T) {
	wantEqual(t, evalSrc(t, "((fn [x & more] more) 1 2 3)"), List(Int(2), Int(3)))
	wantInt(t, evalSrc(t, "((fn [x & more] x) 1 2)"), 1)

	// a variadic overload needs at least one surplus argument
	wantErrContains(t, evalErrSrc(t, "((fn [x & more] more) 1)"),
		"could not resolve function overload for 1 arg(s)")
}

func Test_Interpreter_Fn_Parameter_Vector_Validation(t *testing.T) {
	wantErrContains(t, evalErrSrc(t, "((fn [x & a b] x) 1 2 3 4)"),
		"fn expects exactly one symbol after &")
	wantErrContains(t, evalErrSrc(t, "(fn)"), "fn expects a parameter vector")
}

func Test_Interpreter_Defn_Binds_A_Named_Function(t *testing.T) {
	wantInt(t, evalSrc(t, "(defn twice [x] (* 2 x)) (twice 21)"), 42)

	v := evalSrc(t, "(defn named [x] x)")
	c, ok := v.AsCallable()
	if !ok || c.Name != "named" {
		t.Fatalf("defn should name the callable, got %#v", v.Data)
	}
}

func Test_Interpreter_Calling_A_NonCallable_Fails(t *testing.T) {
	wantErrContains(t, evalErrSrc(t, "(1 2)"), "expected callable, got integer")
}

func Test_Interpreter_Errors_Name_The_Enclosing_Form(t *testing.T) {
	err := evalErrSrc(t, "(+ 1 (nope))")
	wantErrContains(t, err, "evaluating `(+ 1 (nope))`:")
	wantErrContains(t, err, "evaluating `(nope)`:")
	wantErrContains(t, err, "unrecognized symbol `nope`")

	var ee *EvalError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *EvalError, got %T", err)
	}
	// unwrapping walks down to the root cause
	root := err
	for {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}
	if !strings.Contains(root.Error(), "unrecognized symbol") {
		t.Fatalf("root cause lost: %v", root)
	}
}

func Test_Interpreter_RegisterNative_And_Apply(t *testing.T) {
	ip := NewInterpreter()
	ip.RegisterNative("twice", func(args []Value) (Value, error) {
		n, err := args[0].ExpectInt()
		if err != nil {
			return Value{}, err
		}
		return Int(2 * n), nil
	})
	wantInt(t, mustEvalPersistent(t, ip, "(twice 21)"), 42)

	// closures built by fn are callable from the host through Apply
	fn := mustEvalPersistent(t, ip, "(fn [x] (+ x 1))")
	v, err := ip.Apply(fn, []Value{Int(4)})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	wantInt(t, v, 5)

	_, err = ip.Apply(Int(3), nil)
	wantErrContains(t, err, "expected callable, got integer")
}

func Test_Interpreter_Keywords_And_Tagged_Pass_Through_Application(t *testing.T) {
	wantEqual(t, evalSrc(t, "(first [:a :b])"), Keyword("a"))
	v := evalSrc(t, `(first [#uuid "00000000-0000-0000-0000-000000000000"])`)
	if v.Kind != KindTagged {
		t.Fatalf("tagged element should survive evaluation, got %s", Repr(v))
	}
}
