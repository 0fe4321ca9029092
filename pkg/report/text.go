package report

import (
	"fmt"
	"io"
	"strings"

	"scopevm/pkg/color"
)

// writeText prints the report the way the CLI shows it on a terminal
func (r *Report) writeText(w io.Writer) error {
	var b strings.Builder

	if a := r.Analysis; a != nil {
		b.WriteString(color.GreenText("=== Analysis ===") + "\n")
		writeDiagnostics(&b, a.Diagnostics)

		b.WriteString(color.CyanText("global_symbol_table") + ": ")
		parts := make([]string, len(a.Globals))
		for i, s := range a.Globals {
			parts[i] = fmt.Sprintf("%s: %d", color.BlueText(s.Name), s.Address)
		}
		b.WriteString("{" + strings.Join(parts, ", ") + "}\n")

		b.WriteString(color.CyanText("function_table") + ": ")
		parts = make([]string, len(a.Functions))
		for i, f := range a.Functions {
			parts[i] = fmt.Sprintf("%s: %d", color.BlueText(f.Name), f.Line)
		}
		b.WriteString("{" + strings.Join(parts, ", ") + "}\n")
	}

	if r.Skipped != "" {
		b.WriteString("\n" + color.YellowText("Execution skipped: ") + r.Skipped + "\n")
	}

	if e := r.Execution; e != nil {
		b.WriteString("\n" + color.GreenText("=== Execution ===") + "\n")
		writeDiagnostics(&b, e.Diagnostics)

		fmt.Fprintf(&b, "%s: %v\n", color.CyanText("memory"), e.Memory)
		fmt.Fprintf(&b, "%s: %v\n", color.CyanText("call_stack"), e.CallStack)

		b.WriteString(color.CyanText("activation_frames") + ":")
		if len(e.Frames) == 0 {
			b.WriteString(" []")
		}
		b.WriteString("\n")
		for _, f := range e.Frames {
			parts := make([]string, len(f.Locals))
			for i, s := range f.Locals {
				parts[i] = fmt.Sprintf("%s: %d", color.BlueText(s.Name), s.Address)
			}
			fmt.Fprintf(&b, "  %s (called at %d) {%s}\n", color.YellowText(f.Function), f.CallLine, strings.Join(parts, ", "))
		}

		fmt.Fprintf(&b, "%s: %d\n", color.CyanText("steps"), e.Steps)
		if e.Error != "" {
			b.WriteString(color.Error(e.Error) + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeDiagnostics(b *strings.Builder, ds []Diagnostic) {
	for _, d := range ds {
		loc := color.YellowText(fmt.Sprintf("Line: %d, Column %d", d.Line, d.Column))
		if d.Severity == "info" {
			fmt.Fprintf(b, "%s %s at %s\n", color.BlueText("["+d.Kind+"]"), d.Message, loc)
			continue
		}
		fmt.Fprintf(b, "%s %s at %s\n", color.RedText("["+d.Kind+"]"), d.Message, loc)
	}
}
