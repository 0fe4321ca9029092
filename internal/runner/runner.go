package runner

import (
	"errors"
	"fmt"
	"io"
	"os"

	"scopevm/internal/config"
	"scopevm/pkg/analyzer"
	"scopevm/pkg/color"
	"scopevm/pkg/diag"
	"scopevm/pkg/interpreter"
	"scopevm/pkg/parser"
	"scopevm/pkg/report"

	"github.com/charmbracelet/log"
)

// ExampleProgram is the program run by -example
const ExampleProgram = `
var a
func f() {
	a = 5
	var b
	b = 6
}
func g() {
	var c
	c = 7
	f()
}
g()
`

var ErrAnalysisFailed = errors.New("analysis reported errors")

type Runner struct {
	Config     config.Config // run options, config.Default() when zero
	Verbose    bool          // print the parsed statement list
	SourceFile string        // path to the source file
	Out        io.Writer     // report destination, stdout when nil
	Logger     *log.Logger   // default logger when nil
}

// RunFile reads SourceFile and runs it
func (r *Runner) RunFile() error {
	r.logger().Info("Processing file", "file", r.SourceFile)

	input, err := os.ReadFile(r.SourceFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", r.SourceFile, err)
	}

	_, err = r.Run(string(input))
	return err
}

// Run parses, analyzes and executes source, then writes the report.
// The returned report is complete even when an error is returned.
func (r *Runner) Run(source string) (*report.Report, error) {
	prog, syntaxErrors := parser.Parse(source)
	for _, e := range syntaxErrors {
		r.logger().Debug("parse", "error", e)
	}

	if r.Verbose {
		r.printStatements(prog)
	}

	cfg := r.config()
	a := analyzer.New(analyzer.WithLogger(r.logger()))
	res := a.Analyze(prog)
	rep := &report.Report{Analysis: report.FromAnalysis(res)}

	var runErr error
	if n := diag.CountErrors(res.Diagnostics); n > 0 && cfg.AbortOnAnalysisErrors {
		rep.Skipped = fmt.Sprintf("analysis reported %d error(s)", n)
		runErr = fmt.Errorf("%w: %d error(s)", ErrAnalysisFailed, n)
	} else {
		opts := append(cfg.InterpreterOptions(), interpreter.WithLogger(r.logger()))
		if r.Verbose {
			opts = append(opts, interpreter.WithTrace())
		}
		st, err := interpreter.Execute(prog, res, opts...)
		rep.Execution = report.FromState(st, err)
		if err != nil {
			runErr = fmt.Errorf("execution failed: %w", err)
		}
	}

	if err := rep.Write(r.out(), cfg.Format()); err != nil {
		return rep, fmt.Errorf("writing report: %w", err)
	}

	return rep, runErr
}

// printStatements lists the parsed program, one statement per line
func (r *Runner) printStatements(prog *parser.Program) {
	out := r.out()
	fmt.Fprintln(out, color.GreenText("=== Statements ==="))
	if prog.Len() == 0 {
		fmt.Fprintln(out, color.GrayText("No statements."))
		return
	}

	for _, st := range prog.Statements {
		detail := st.Name
		switch st.Kind {
		case parser.Assign:
			detail = st.Name + " = " + st.Literal
		case parser.FuncStart, parser.FuncEnd:
			detail = fmt.Sprintf("%s -> %d", st.Name, st.Match)
		case parser.Invalid:
			detail = st.Reason
		}
		fmt.Fprintf(out, "%s: (%s, %s)\n",
			color.CyanText(fmt.Sprintf("%d", st.Line)),
			color.YellowText(st.Kind.String()),
			color.BlueText(detail))
	}
	fmt.Fprintln(out)
}

func (r *Runner) config() config.Config {
	if r.Config == (config.Config{}) {
		return config.Default()
	}
	return r.Config
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}
