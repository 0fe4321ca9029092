package report_test

import (
	"bytes"
	"errors"
	"scopevm/pkg/analyzer"
	"scopevm/pkg/color"
	"scopevm/pkg/interpreter"
	"scopevm/pkg/parser"
	"scopevm/pkg/report"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const program = `var a
func f {
	var b
	b = 6
	a = 5
}
f()
f()
var a`

func build(t *testing.T) *report.Report {
	t.Helper()
	prog, _ := parser.Parse(program)
	res := analyzer.Analyze(prog)
	st, err := interpreter.Execute(prog, res)
	return &report.Report{
		Analysis:  report.FromAnalysis(res),
		Execution: report.FromState(st, err),
	}
}

func TestYAMLReport(t *testing.T) {
	var buf bytes.Buffer
	if err := build(t).Write(&buf, report.YAML); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded struct {
		Analysis struct {
			Globals []struct {
				Name    string `yaml:"name"`
				Address int    `yaml:"address"`
			} `yaml:"global_symbol_table"`
			Functions []struct {
				Name string `yaml:"name"`
				Line int    `yaml:"line"`
			} `yaml:"function_table"`
			Diagnostics []struct {
				Kind string `yaml:"kind"`
			} `yaml:"diagnostics"`
		} `yaml:"analysis"`
		Execution struct {
			Memory    []int64 `yaml:"final_memory"`
			CallStack []int   `yaml:"call_stack"`
		} `yaml:"execution"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not valid YAML: %v\n%s", err, buf.String())
	}

	if len(decoded.Analysis.Globals) != 1 || decoded.Analysis.Globals[0].Name != "a" {
		t.Errorf("unexpected globals %+v", decoded.Analysis.Globals)
	}
	if len(decoded.Analysis.Functions) != 1 || decoded.Analysis.Functions[0].Line != 1 {
		t.Errorf("unexpected functions %+v", decoded.Analysis.Functions)
	}

	kinds := make([]string, len(decoded.Analysis.Diagnostics))
	for i, d := range decoded.Analysis.Diagnostics {
		kinds[i] = d.Kind
	}
	if strings.Join(kinds, ",") != "LocalsCleared,DuplicateDeclaration" {
		t.Errorf("unexpected diagnostics %v", kinds)
	}

	if len(decoded.Execution.Memory) != 1 || decoded.Execution.Memory[0] != 5 {
		t.Errorf("unexpected memory %v", decoded.Execution.Memory)
	}
	if len(decoded.Execution.CallStack) != 0 {
		t.Errorf("expected empty call stack, got %v", decoded.Execution.CallStack)
	}
}

func TestTextReport(t *testing.T) {
	prev := color.IsColorEnabled()
	defer color.EnableColor(prev)
	color.EnableColor(false)

	r := build(t)
	r.Execution.Error = errors.New("boom").Error()

	var buf bytes.Buffer
	if err := r.Write(&buf, report.Text); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"=== Analysis ===",
		"global_symbol_table: {a: 0}",
		"function_table: {f: 1}",
		"[DuplicateDeclaration] variable redefined: a at Line: 9, Column 5",
		"=== Execution ===",
		"memory: [5]",
		"call_stack: []",
		"activation_frames: []",
		"Error: boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestSkippedExecution(t *testing.T) {
	prev := color.IsColorEnabled()
	defer color.EnableColor(prev)
	color.EnableColor(false)

	prog, _ := parser.Parse("x = 1")
	r := &report.Report{
		Analysis: report.FromAnalysis(analyzer.Analyze(prog)),
		Skipped:  "analysis reported 1 error(s)",
	}

	var buf bytes.Buffer
	if err := r.Write(&buf, report.Text); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "Execution skipped: analysis reported 1 error(s)") {
		t.Errorf("expected skipped note, got:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "=== Execution ===") {
		t.Errorf("expected no execution section")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := report.ParseFormat("YAML"); err != nil || f != report.YAML {
		t.Errorf("expected yaml, got %q (%v)", f, err)
	}
	if f, err := report.ParseFormat(""); err != nil || f != report.Text {
		t.Errorf("expected text default, got %q (%v)", f, err)
	}
	if _, err := report.ParseFormat("xml"); err == nil {
		t.Errorf("expected error for unknown format")
	}
}
