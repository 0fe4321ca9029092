package interpreter_test

import (
	"bytes"
	"errors"
	"reflect"
	"scopevm/pkg/analyzer"
	"scopevm/pkg/diag"
	"scopevm/pkg/interpreter"
	"scopevm/pkg/parser"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

const canonical = `
var a
func f {
	a = 5
	var b
	b = 6
}
func g {
	var c
	c = 7
	f()
}
g()
`

func build(t *testing.T, src string, opts ...interpreter.Option) *interpreter.Interpreter {
	t.Helper()
	prog, _ := parser.Parse(src)
	res := analyzer.Analyze(prog)
	return interpreter.NewInterpreter(prog, res.Globals, res.Functions, opts...)
}

// runChecked steps to completion, checking that global cells are never
// released. It returns the largest memory size seen.
func runChecked(t *testing.T, it *interpreter.Interpreter) (int, error) {
	t.Helper()
	maxLen := 0
	for {
		mem := it.Memory()
		if len(mem) < it.GlobalCount() {
			t.Fatalf("memory shrank below globals: len %d < %d at pc %d", len(mem), it.GlobalCount(), it.PC())
		}
		if len(mem) > maxLen {
			maxLen = len(mem)
		}
		if it.NextFreeAddress() != len(mem) {
			t.Fatalf("next free address %d does not match memory length %d", it.NextFreeAddress(), len(mem))
		}

		halted, err := it.Step()
		if err != nil || halted {
			return maxLen, err
		}
	}
}

// stepUntil steps until the program counter reaches pc
func stepUntil(t *testing.T, it *interpreter.Interpreter, pc int) {
	t.Helper()
	for n := 0; it.PC() != pc; n++ {
		if n > 1000 {
			t.Fatalf("never reached pc %d", pc)
		}
		halted, err := it.Step()
		if err != nil || halted {
			t.Fatalf("halted before pc %d (err %v)", pc, err)
		}
	}
}

func TestCanonicalProgram(t *testing.T) {
	it := build(t, canonical)

	maxLen, err := runChecked(t, it)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := it.State()
	if !reflect.DeepEqual(st.Memory, []int64{5}) {
		t.Errorf("expected memory [5], got %v", st.Memory)
	}
	if len(st.CallStack) != 0 || len(st.Frames) != 0 {
		t.Errorf("expected empty stacks, got %v / %v", st.CallStack, st.Frames)
	}
	if maxLen != 3 {
		t.Errorf("expected peak memory of 3 cells (a, c, b), got %d", maxLen)
	}
	if len(st.Diagnostics) != 0 {
		t.Errorf("expected no runtime diagnostics, got %v", st.Diagnostics)
	}
}

func TestLocalsLiveInTheFrame(t *testing.T) {
	src := "var a\nfunc f {\nvar b\nb = 6\n}\nf()"
	it := build(t, src)

	stepUntil(t, it, 4)

	st := it.State()
	if !reflect.DeepEqual(st.Memory, []int64{0, 6}) {
		t.Errorf("expected memory [0 6] inside f, got %v", st.Memory)
	}
	if !reflect.DeepEqual(st.CallStack, []int{5}) {
		t.Errorf("expected call stack [5], got %v", st.CallStack)
	}
	if len(st.Frames) != 1 || st.Frames[0].Function != "f" || !reflect.DeepEqual(st.Frames[0].Locals, map[string]int{"b": 1}) {
		t.Errorf("unexpected frames %+v", st.Frames)
	}
	if !it.InCall() {
		t.Errorf("expected to be inside a call")
	}

	if err := it.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := it.Memory(); !reflect.DeepEqual(got, []int64{0}) {
		t.Errorf("expected locals released, got %v", got)
	}
}

func TestNestedReturnKeepsCallerActive(t *testing.T) {
	src := "func f {\n}\nfunc g {\nf()\nvar c\nc = 7\n}\ng()"
	it := build(t, src)

	stepUntil(t, it, 6)
	if got := it.Memory(); !reflect.DeepEqual(got, []int64{7}) {
		t.Errorf("expected caller local allocated after inner return, got %v", got)
	}
	if it.Depth() != 1 {
		t.Errorf("expected depth 1 inside g, got %d", it.Depth())
	}

	if _, err := runChecked(t, it); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.InCall() || len(it.Memory()) != 0 {
		t.Errorf("expected clean halt, got depth %d memory %v", it.Depth(), it.Memory())
	}
}

func TestLocalNamedLikeGlobalWritesGlobal(t *testing.T) {
	it := build(t, "var a\nfunc f {\nvar a\na = 4\n}\nf()")

	maxLen, err := runChecked(t, it)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if maxLen != 1 {
		t.Errorf("expected no local allocation, peak %d", maxLen)
	}
	if got := it.Memory(); !reflect.DeepEqual(got, []int64{4}) {
		t.Errorf("expected global written, got %v", got)
	}
}

func TestDuplicateLocalAllocatesOnce(t *testing.T) {
	it := build(t, "func f {\nvar x\nvar x\n}\nf()")

	maxLen, err := runChecked(t, it)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if maxLen != 1 || len(it.Memory()) != 0 {
		t.Errorf("expected one cell allocated and released, peak %d final %v", maxLen, it.Memory())
	}
}

func TestRuntimeDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		kind   diag.Kind
		memory []int64
	}{
		{"malformed literal", "var a\na = x1", diag.MalformedLiteral, []int64{0}},
		{"float literal", "var a\na = 1.5", diag.MalformedLiteral, []int64{0}},
		{"overflowing literal", "var a\na = 99999999999999999999", diag.MalformedLiteral, []int64{0}},
		{"unknown variable in call", "func f {\nz = 1\n}\nf()", diag.UnknownIdentifier, []int64{}},
		{"local of finished call", "func f {\nvar b\n}\nf()\nb = 1", diag.UnknownIdentifier, []int64{}},
		{"unknown function", "var a\ng()\na = 3", diag.UnknownIdentifier, []int64{3}},
	}

	for _, test := range tests {
		it := build(t, test.input)
		if _, err := runChecked(t, it); err != nil {
			t.Errorf("%s: unexpected error %v", test.name, err)
			continue
		}

		ds := it.Diagnostics()
		if len(ds) != 1 || ds[0].Kind != test.kind {
			t.Errorf("%s: expected one %s, got %v", test.name, test.kind, ds)
		}
		if got := it.Memory(); !reflect.DeepEqual(got, test.memory) {
			t.Errorf("%s: expected memory %v, got %v", test.name, test.memory, got)
		}
	}
}

func TestNegativeLiteral(t *testing.T) {
	it := build(t, "var a\na = -12")
	if err := it.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := it.Memory(); got[0] != -12 {
		t.Errorf("expected -12, got %d", got[0])
	}
}

func TestUnresolvedCallFatal(t *testing.T) {
	it := build(t, "var a\ng()\na = 3", interpreter.WithUnresolvedCallPolicy(interpreter.FailUnresolved))

	err := it.Run()
	if !errors.Is(err, interpreter.ErrUnresolvedCall) {
		t.Fatalf("expected ErrUnresolvedCall, got %v", err)
	}
	if got := it.Memory(); !reflect.DeepEqual(got, []int64{0}) {
		t.Errorf("expected execution to stop before the write, got %v", got)
	}
	if it.PC() != 1 {
		t.Errorf("expected pc to stay on the call line, got %d", it.PC())
	}
}

func TestParseUnresolvedCallPolicy(t *testing.T) {
	tests := []struct {
		input    string
		expected interpreter.UnresolvedCallPolicy
		ok       bool
	}{
		{"", interpreter.SkipUnresolved, true},
		{"skip", interpreter.SkipUnresolved, true},
		{"FATAL", interpreter.FailUnresolved, true},
		{"explode", interpreter.SkipUnresolved, false},
	}

	for _, test := range tests {
		got, err := interpreter.ParseUnresolvedCallPolicy(test.input)
		if (err == nil) != test.ok || got != test.expected {
			t.Errorf("Input %q: expected %s (ok=%v), got %s (%v)", test.input, test.expected, test.ok, got, err)
		}
	}
}

func TestRecursionHitsStackOverflow(t *testing.T) {
	src := "var n\nfunc f {\nvar x\nf()\n}\nf()\nn = 1"
	it := build(t, src, interpreter.WithMaxCallDepth(10))

	maxLen, err := runChecked(t, it)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	overflows := diag.OfKind(it.Diagnostics(), diag.StackOverflow)
	if len(overflows) != 1 {
		t.Fatalf("expected one stack overflow, got %v", it.Diagnostics())
	}
	if maxLen != 11 {
		t.Errorf("expected 1 global + 10 frames of one local, peak %d", maxLen)
	}

	st := it.State()
	if !reflect.DeepEqual(st.Memory, []int64{1}) || len(st.CallStack) != 0 || len(st.Frames) != 0 {
		t.Errorf("expected full unwind and continued execution, got %+v", st)
	}
}

func TestMaxSteps(t *testing.T) {
	it := build(t, "func f {\nf()\n}\nf()", interpreter.WithMaxCallDepth(0), interpreter.WithMaxSteps(100))

	if err := it.Run(); !errors.Is(err, interpreter.ErrMaxStepsExceeded) {
		t.Fatalf("expected ErrMaxStepsExceeded, got %v", err)
	}
	if it.Depth() == 0 {
		t.Errorf("expected unbounded recursion to still be in progress")
	}
}

func TestCallBeforeDefinitionRunsWithFullTable(t *testing.T) {
	src := "var a\nf()\nfunc f {\na = 9\n}"
	prog, _ := parser.Parse(src)
	res := analyzer.Analyze(prog)

	if len(diag.OfKind(res.Diagnostics, diag.UnknownIdentifier)) != 1 {
		t.Fatalf("expected analysis to flag the early call, got %v", res.Diagnostics)
	}

	st, err := interpreter.Execute(prog, res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(st.Memory, []int64{9}) {
		t.Errorf("expected the call to run against the complete table, got %v", st.Memory)
	}
}

func TestUnclosedBodyIsSkipped(t *testing.T) {
	it := build(t, "var a\na = 1\nfunc f {\na = 2")

	if err := it.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := it.Memory(); !reflect.DeepEqual(got, []int64{1}) {
		t.Errorf("expected body not to run, got %v", got)
	}
}

func TestResetRestartsExecution(t *testing.T) {
	it := build(t, canonical)
	if err := it.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	it.Reset()
	if got := it.Memory(); !reflect.DeepEqual(got, []int64{0}) || it.PC() != 0 {
		t.Errorf("expected fresh state, got memory %v pc %d", got, it.PC())
	}
	if err := it.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := it.Memory(); !reflect.DeepEqual(got, []int64{5}) {
		t.Errorf("expected same result after reset, got %v", got)
	}
}

func TestResetClearsDiagnostics(t *testing.T) {
	it := build(t, "nope()\nvar a")
	if err := it.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(it.Diagnostics()) != 1 {
		t.Fatalf("expected 1 runtime diagnostic, got %v", it.Diagnostics())
	}
	before := it.Diagnostics()

	it.Reset()
	if len(it.Diagnostics()) != 0 {
		t.Errorf("expected no diagnostics after reset, got %v", it.Diagnostics())
	}
	if err := it.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(before, it.Diagnostics()) {
		t.Errorf("expected the same diagnostics after rerun:\n%v\n%v", before, it.Diagnostics())
	}
}

func TestTraceLogsEachStatement(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	it := build(t, canonical, interpreter.WithTrace(), interpreter.WithLogger(logger))
	if _, err := runChecked(t, it); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := it.Memory(); !reflect.DeepEqual(got, []int64{5}) {
		t.Errorf("expected tracing not to change the result, got %v", got)
	}

	out := buf.String()
	for _, want := range []string{"11: call g", "9: call f", "1: func f (end 5)", "2: a = 5", "5: end (func 1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected trace to contain %q, got:\n%s", want, out)
		}
	}
}
