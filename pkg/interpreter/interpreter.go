package interpreter

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"scopevm/pkg/analyzer"
	"scopevm/pkg/diag"
	"scopevm/pkg/parser"
	"scopevm/pkg/stack"

	"github.com/charmbracelet/log"
)

// DefaultMaxCallDepth bounds recursion unless overridden
const DefaultMaxCallDepth = 256

// UnresolvedCallPolicy decides what a call to an unknown function does at runtime
type UnresolvedCallPolicy int

const (
	SkipUnresolved UnresolvedCallPolicy = iota // report and continue with the next line
	FailUnresolved                             // report and stop with ErrUnresolvedCall
)

func (p UnresolvedCallPolicy) String() string {
	if p == FailUnresolved {
		return "fatal"
	}
	return "skip"
}

// ParseUnresolvedCallPolicy parses "skip" or "fatal"
func ParseUnresolvedCallPolicy(s string) (UnresolvedCallPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return SkipUnresolved, nil
	case "fatal":
		return FailUnresolved, nil
	default:
		return SkipUnresolved, fmt.Errorf("unknown unresolved call policy %q", s)
	}
}

// Interpreter is the execution context: it owns memory, the call stack and
// the activation frame stack for one run of a program.
type Interpreter struct {
	prog      *parser.Program         // statements, one per line
	globals   *analyzer.SymbolTable   // read-only global addresses
	functions *analyzer.FunctionTable // read-only jump table

	memory    []int64              // [0,G) globals, then locals in stack order
	pc        int                  // program counter (statement index)
	callStack *stack.Stack[int]    // saved call lines
	frames    *stack.Stack[*Frame] // activation frames, parallel to callStack

	sink   *diag.Sink // runtime diagnostics
	logger *log.Logger

	// Exec hook, coreStep or traceStep
	execStep func(*Interpreter) (halted bool, err error)

	maxCallDepth int                  // 0 = unlimited
	maxSteps     int                  // 0 = unlimited
	steps        int                  // steps executed
	unresolved   UnresolvedCallPolicy // runtime unknown function handling
}

type Option func(*Interpreter)

// WithMaxCallDepth limits call nesting; exceeding it reports StackOverflow. 0 disables the limit.
func WithMaxCallDepth(n int) Option {
	return func(i *Interpreter) { i.maxCallDepth = n }
}

// WithMaxSteps sets a maximum number of interpreter steps before returning ErrMaxStepsExceeded
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) { i.maxSteps = n }
}

// WithUnresolvedCallPolicy selects how calls to unknown functions are handled
func WithUnresolvedCallPolicy(p UnresolvedCallPolicy) Option {
	return func(i *Interpreter) { i.unresolved = p }
}

// WithLogger sets the logger used for tracing and diagnostics
func WithLogger(l *log.Logger) Option {
	return func(i *Interpreter) { i.logger = l }
}

// WithTrace logs every executed statement at debug level
func WithTrace() Option {
	return func(i *Interpreter) { i.execStep = traceStep }
}

// NewInterpreter creates a new Interpreter over an analyzed program
func NewInterpreter(prog *parser.Program, globals *analyzer.SymbolTable, functions *analyzer.FunctionTable, opts ...Option) *Interpreter {
	if globals == nil {
		globals = analyzer.NewSymbolTable()
	}
	if functions == nil {
		functions = analyzer.NewFunctionTable()
	}

	it := &Interpreter{
		prog:         prog,
		globals:      globals,
		functions:    functions,
		callStack:    stack.NewStack[int](),
		frames:       stack.NewStack[*Frame](),
		maxCallDepth: DefaultMaxCallDepth,
		maxSteps:     0, // 0 => unlimited
		unresolved:   SkipUnresolved,
	}

	for _, o := range opts {
		o(it)
	}

	if it.logger == nil {
		it.logger = log.Default()
	}
	it.logger = it.logger.WithPrefix("EXECUTE")

	if it.execStep == nil {
		it.execStep = coreStep
	}

	it.sink = diag.NewSink("execute", it.logger)
	it.Reset()
	return it
}

// Execute runs prog against the tables of an analysis and returns the final state
func Execute(prog *parser.Program, res *analyzer.Result, opts ...Option) (State, error) {
	it := NewInterpreter(prog, res.Globals, res.Functions, opts...)
	err := it.Run()
	return it.State(), err
}

// Reset clears runtime state (memory, stacks, PC, counters)
func (i *Interpreter) Reset() {
	i.memory = make([]int64, i.globals.Len())
	i.pc = 0
	i.callStack.Clear()
	i.frames.Clear()
	i.steps = 0
	i.sink.Reset()
}

// Step executes a single statement, returning (halted, error)
func (i *Interpreter) Step() (bool, error) {
	if i.maxSteps > 0 && i.steps >= i.maxSteps {
		return false, ErrMaxStepsExceeded
	}

	halted, err := i.execStep(i)
	i.steps++

	return halted, err
}

// Run executes until halt or error
func (i *Interpreter) Run() error {
	for {
		halted, err := i.Step()
		if err != nil {
			return err
		}

		if halted {
			return nil
		}
	}
}

// PC returns the program counter
func (i *Interpreter) PC() int {
	return i.pc
}

// InCall reports whether a call is in progress
func (i *Interpreter) InCall() bool {
	return i.callStack.Size() > 0
}

// Depth returns the number of in-progress calls
func (i *Interpreter) Depth() int {
	return i.callStack.Size()
}

// GlobalCount returns G, the number of cells reserved for globals
func (i *Interpreter) GlobalCount() int {
	return i.globals.Len()
}

// NextFreeAddress is the address the next local will get
func (i *Interpreter) NextFreeAddress() int {
	return len(i.memory)
}

// Memory returns a copy of the memory cells
func (i *Interpreter) Memory() []int64 {
	out := make([]int64, len(i.memory))
	copy(out, i.memory)
	return out
}

// Diagnostics returns the runtime diagnostics so far
func (i *Interpreter) Diagnostics() []diag.Diagnostic {
	return i.sink.Diagnostics()
}

// currentFrame returns the top activation frame, or nil if none
func (i *Interpreter) currentFrame() *Frame {
	f, _ := i.frames.Peek()
	return f
}

// pushCall enters a call made from callLine
func (i *Interpreter) pushCall(funcName string, callLine int) {
	i.frames.Push(newFrame(funcName, callLine))
	i.callStack.Push(callLine)
}

// allocLocal appends a zero cell and binds it in the top frame
func (i *Interpreter) allocLocal(f *Frame, name string) int {
	addr := len(i.memory)
	i.memory = append(i.memory, 0)
	f.bind(name, addr)
	return addr
}

// release truncates n cells from the tail of memory, never into the globals
func (i *Interpreter) release(n int) {
	end := len(i.memory) - n
	if end < i.globals.Len() {
		end = i.globals.Len()
	}
	clear(i.memory[end:])
	i.memory = i.memory[:end]
}

// resolve finds the address of name: top frame first inside a call, then globals
func (i *Interpreter) resolve(name string) (int, bool) {
	if f := i.currentFrame(); f != nil && !i.globals.Contains(name) {
		if addr, ok := f.Lookup(name); ok {
			return addr, true
		}
	}

	return i.globals.Lookup(name)
}

// FrameState is the introspection view of an activation frame
type FrameState struct {
	Function string         `yaml:"function"`
	CallLine int            `yaml:"call_line"`
	Locals   map[string]int `yaml:"locals"`
	Order    []string       `yaml:"-"`
}

// State is the introspection view of an execution
type State struct {
	Memory      []int64           `yaml:"memory"`
	CallStack   []int             `yaml:"call_stack"`
	Frames      []FrameState      `yaml:"activation_frames"`
	PC          int               `yaml:"pc"`
	Steps       int               `yaml:"steps"`
	Diagnostics []diag.Diagnostic `yaml:"-"`
}

// State snapshots the current execution state
func (i *Interpreter) State() State {
	frames := i.frames.Array()
	fs := make([]FrameState, len(frames))
	for n, f := range frames {
		fs[n] = FrameState{
			Function: f.FuncName,
			CallLine: f.CallLine,
			Locals:   maps.Clone(f.Locals),
			Order:    f.Names(),
		}
	}

	return State{
		Memory:      i.Memory(),
		CallStack:   i.callStack.Array(),
		Frames:      fs,
		PC:          i.pc,
		Steps:       i.steps,
		Diagnostics: i.Diagnostics(),
	}
}

var (
	ErrMaxStepsExceeded = errors.New("maximum steps exceeded")
	ErrUnresolvedCall   = errors.New("call to unknown function")
)
