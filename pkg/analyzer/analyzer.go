package analyzer

import (
	"scopevm/pkg/diag"
	"scopevm/pkg/parser"

	"github.com/charmbracelet/log"
)

// Result is everything the analysis exposes
type Result struct {
	Globals     *SymbolTable      // global name -> address
	Functions   *FunctionTable    // function name -> header line
	Diagnostics []diag.Diagnostic // in emission order
}

// HasErrors reports whether the analysis produced any error-severity diagnostic
func (r *Result) HasErrors() bool {
	return diag.CountErrors(r.Diagnostics) > 0
}

// Analyzer is the analysis context: it owns the tables and the diagnostics
// sink for one pass over a program.
type Analyzer struct {
	globals    *SymbolTable   // globals, built incrementally
	locals     *LocalTable    // names declared in the open body
	functions  *FunctionTable // function header lines
	inFunction bool           // inside a function body
	sink       *diag.Sink     // diagnostics
	logger     *log.Logger
}

type Option func(*Analyzer)

// WithLogger sets the logger diagnostics are mirrored to
func WithLogger(l *log.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// New creates a new Analyzer instance
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, o := range opts {
		o(a)
	}

	if a.logger == nil {
		a.logger = log.Default()
	}

	a.sink = diag.NewSink("analyze", a.logger)
	a.reset()
	return a
}

// Analyze runs the analysis over every statement. It never stops early.
func Analyze(prog *parser.Program) *Result {
	return New().Analyze(prog)
}

// Analyze walks the program once, in order. Each call starts from a clean
// state, so repeated runs over the same program give identical results.
func (a *Analyzer) Analyze(prog *parser.Program) *Result {
	a.reset()

	for i := 0; i < prog.Len(); i++ {
		a.analyzeStatement(prog.At(i))
	}
	a.locals.Clear()
	a.inFunction = false

	a.logger.Debug("analysis ended",
		"globals", a.globals.Len(),
		"functions", a.functions.Len(),
		"diagnostics", len(a.sink.Diagnostics()))

	return &Result{
		Globals:     a.globals,
		Functions:   a.functions,
		Diagnostics: a.sink.Diagnostics(),
	}
}

// reset prepares fresh tables and empties the sink
func (a *Analyzer) reset() {
	a.globals = NewSymbolTable()
	a.locals = NewLocalTable()
	a.functions = NewFunctionTable()
	a.inFunction = false
	a.sink.Reset()
}

// analyzeStatement dispatches on the statement kind
func (a *Analyzer) analyzeStatement(st parser.Statement) {
	switch st.Kind {
	case parser.Declare:
		a.declare(st)
	case parser.Assign:
		a.assign(st)
	case parser.FuncStart:
		a.funcStart(st)
	case parser.FuncEnd:
		a.funcEnd(st)
	case parser.Call:
		a.call(st)
	case parser.Invalid:
		a.sink.Errorf(diag.SyntaxError, diag.None, st.Line, st.Pos, "", "unmatched: %s (%s)", st.Text, st.Reason)
	}
}

// declare handles `var <name>` in the current scope
func (a *Analyzer) declare(st parser.Statement) {
	if a.inFunction {
		if a.locals.Contains(st.Name) || a.globals.Contains(st.Name) {
			a.sink.Errorf(diag.DuplicateDeclaration, diag.Variable, st.Line, st.NamePos, st.Name, "variable redefined: %s", st.Name)
			return
		}
		a.locals.Add(st.Name)
		return
	}

	if _, ok := a.globals.Declare(st.Name); !ok {
		a.sink.Errorf(diag.DuplicateDeclaration, diag.Variable, st.Line, st.NamePos, st.Name, "variable redefined: %s", st.Name)
	}
}

// assign checks that the assigned name resolves in the current scope
func (a *Analyzer) assign(st parser.Statement) {
	if a.resolves(st.Name) {
		return
	}
	a.sink.Errorf(diag.UnknownIdentifier, diag.Variable, st.Line, st.NamePos, st.Name, "variable unknown: %s", st.Name)
}

// resolves looks name up locals first, then globals
func (a *Analyzer) resolves(name string) bool {
	if a.inFunction && a.locals.Contains(name) {
		return true
	}
	return a.globals.Contains(name)
}

// funcStart opens a function body and registers the function
func (a *Analyzer) funcStart(st parser.Statement) {
	a.inFunction = true
	a.locals.Clear()

	if _, ok := a.functions.Define(st.Name, st.Line); !ok {
		a.sink.Errorf(diag.DuplicateDeclaration, diag.Function, st.Line, st.NamePos, st.Name, "function redefined: %s", st.Name)
	}

	// the body still runs to the end of the program
	if st.Unclosed {
		a.sink.Errorf(diag.SyntaxError, diag.None, st.Line, st.Pos, "", "unmatched: %s (%s)", st.Text, st.Reason)
	}
}

// funcEnd closes the open body and drops its locals
func (a *Analyzer) funcEnd(st parser.Statement) {
	if a.locals.Len() > 0 {
		names := a.locals.Names()
		a.sink.Infof(diag.LocalsCleared, st.Line, st.Pos, names, "clearing local symbol table: %v", names)
	}
	a.locals.Clear()
	a.inFunction = false
}

// call checks the callee against the functions defined so far
func (a *Analyzer) call(st parser.Statement) {
	if a.functions.Contains(st.Name) {
		return
	}
	a.sink.Errorf(diag.UnknownIdentifier, diag.Function, st.Line, st.NamePos, st.Name, "function unknown: %s", st.Name)
}
