package report

import (
	"fmt"
	"io"
	"strings"

	"scopevm/pkg/analyzer"
	"scopevm/pkg/diag"
	"scopevm/pkg/interpreter"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	Text Format = "text"
	YAML Format = "yaml"
)

// ParseFormat validates an output format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case Text, YAML:
		return f, nil
	case "":
		return Text, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

type Symbol struct {
	Name    string `yaml:"name"`
	Address int    `yaml:"address"`
}

type Function struct {
	Name string `yaml:"name"`
	Line int    `yaml:"line"`
}

type Diagnostic struct {
	Kind     string   `yaml:"kind"`
	Severity string   `yaml:"severity"`
	Line     int      `yaml:"line"`
	Column   int      `yaml:"column"`
	Name     string   `yaml:"name,omitempty"`
	Names    []string `yaml:"names,omitempty,flow"`
	Message  string   `yaml:"message"`
}

type Frame struct {
	Function string   `yaml:"function"`
	CallLine int      `yaml:"call_line"`
	Locals   []Symbol `yaml:"locals"`
}

// Analysis is the introspection view after analysis
type Analysis struct {
	Globals     []Symbol     `yaml:"global_symbol_table"`
	Functions   []Function   `yaml:"function_table"`
	Diagnostics []Diagnostic `yaml:"diagnostics"`
}

// Execution is the introspection view after execution
type Execution struct {
	Memory      []int64      `yaml:"final_memory,flow"`
	CallStack   []int        `yaml:"call_stack,flow"`
	Frames      []Frame      `yaml:"activation_frames"`
	Steps       int          `yaml:"steps"`
	Diagnostics []Diagnostic `yaml:"diagnostics"`
	Error       string       `yaml:"error,omitempty"`
}

// Report bundles both phases. Execution is nil when the program did not run.
type Report struct {
	Analysis  *Analysis  `yaml:"analysis"`
	Execution *Execution `yaml:"execution,omitempty"`
	Skipped   string     `yaml:"skipped,omitempty"`
}

// FromAnalysis converts an analysis result
func FromAnalysis(res *analyzer.Result) *Analysis {
	a := &Analysis{
		Globals:     []Symbol{},
		Functions:   []Function{},
		Diagnostics: fromDiagnostics(res.Diagnostics),
	}

	for _, name := range res.Globals.Names() {
		addr, _ := res.Globals.Lookup(name)
		a.Globals = append(a.Globals, Symbol{Name: name, Address: addr})
	}
	for _, name := range res.Functions.Names() {
		line, _ := res.Functions.Lookup(name)
		a.Functions = append(a.Functions, Function{Name: name, Line: line})
	}

	return a
}

// FromState converts an execution state; runErr is the error Run returned, if any
func FromState(st interpreter.State, runErr error) *Execution {
	e := &Execution{
		Memory:      append([]int64{}, st.Memory...),
		CallStack:   append([]int{}, st.CallStack...),
		Frames:      []Frame{},
		Steps:       st.Steps,
		Diagnostics: fromDiagnostics(st.Diagnostics),
	}

	for _, f := range st.Frames {
		fr := Frame{Function: f.Function, CallLine: f.CallLine, Locals: []Symbol{}}
		for _, name := range f.Order {
			fr.Locals = append(fr.Locals, Symbol{Name: name, Address: f.Locals[name]})
		}
		e.Frames = append(e.Frames, fr)
	}

	if runErr != nil {
		e.Error = runErr.Error()
	}

	return e
}

func fromDiagnostics(ds []diag.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(ds))
	for _, d := range ds {
		out = append(out, Diagnostic{
			Kind:     string(d.Kind),
			Severity: d.Severity.String(),
			Line:     d.Pos.Line,
			Column:   d.Pos.Column,
			Name:     d.Name,
			Names:    d.Names,
			Message:  d.Message,
		})
	}
	return out
}

// Write renders the report in the given format
func (r *Report) Write(w io.Writer, format Format) error {
	switch format {
	case YAML:
		return r.writeYAML(w)
	case Text, "":
		return r.writeText(w)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func (r *Report) writeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}
