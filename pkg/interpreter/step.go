package interpreter

import (
	"fmt"
	"strconv"

	"scopevm/pkg/diag"
	"scopevm/pkg/parser"
)

// coreStep is the main single-step execution function
// it returns (halted, error).
func coreStep(i *Interpreter) (bool, error) {
	pc := i.pc
	if pc < 0 || pc >= i.prog.Len() {
		// halt once PC runs past the last line
		return true, nil
	}

	st := i.prog.At(pc)

	switch st.Kind {
	case parser.Blank:
		i.pc = pc + 1
		return false, nil

	case parser.Invalid:
		// already reported by the analysis
		i.logger.Debug("skipping invalid line", "line", st.Line, "text", st.Text)
		i.pc = pc + 1
		return false, nil

	case parser.Declare:
		i.execDeclare(st)
		i.pc = pc + 1
		return false, nil

	case parser.Assign:
		i.execAssign(st)
		i.pc = pc + 1
		return false, nil

	case parser.FuncStart:
		// bodies only run when entered through a call
		i.pc = st.Match + 1
		return false, nil

	case parser.FuncEnd:
		i.execReturn(st)
		return false, nil

	case parser.Call:
		return i.execCall(st)

	default:
		return true, fmt.Errorf("unhandled statement at %d: %s", pc, st.Kind)
	}
}

// traceStep logs the statement about to run, then runs it
func traceStep(i *Interpreter) (bool, error) {
	if i.pc >= 0 && i.pc < i.prog.Len() {
		st := i.prog.At(i.pc)
		if st.Kind != parser.Blank {
			i.logger.Debug("step", "stmt", st.String(), "depth", i.Depth(), "memory", i.memory)
		}
	}
	return coreStep(i)
}

// execDeclare allocates a local in the top frame. Globals already own their
// cells, so top-level declarations do nothing.
func (i *Interpreter) execDeclare(st parser.Statement) {
	f := i.currentFrame()
	if f == nil || i.globals.Contains(st.Name) {
		return
	}

	if _, ok := f.Lookup(st.Name); ok {
		i.logger.Debug("local already bound", "name", st.Name, "line", st.Line)
		return
	}

	addr := i.allocLocal(f, st.Name)
	i.logger.Debug("alloc", "name", st.Name, "addr", addr, "func", f.FuncName)
}

// execAssign stores an integer literal into the resolved cell
func (i *Interpreter) execAssign(st parser.Statement) {
	addr, ok := i.resolve(st.Name)
	if !ok {
		i.sink.Errorf(diag.UnknownIdentifier, diag.Variable, st.Line, st.NamePos, st.Name, "variable unknown: %s", st.Name)
		return
	}

	v, err := parseLiteral(st.Literal)
	if err != nil {
		i.sink.Errorf(diag.MalformedLiteral, diag.Variable, st.Line, st.NamePos, st.Name, "malformed literal %q for %s", st.Literal, st.Name)
		return
	}

	i.memory[addr] = v
}

// execCall transfers control to the callee body
func (i *Interpreter) execCall(st parser.Statement) (bool, error) {
	header, ok := i.functions.Lookup(st.Name)
	if !ok {
		i.sink.Errorf(diag.UnknownIdentifier, diag.Function, st.Line, st.NamePos, st.Name, "invalid function: %s", st.Name)
		if i.unresolved == FailUnresolved {
			return true, fmt.Errorf("%w: %s at line %d", ErrUnresolvedCall, st.Name, st.Line)
		}
		i.pc = st.Line + 1
		return false, nil
	}

	if i.maxCallDepth > 0 && i.callStack.Size() >= i.maxCallDepth {
		i.sink.Errorf(diag.StackOverflow, diag.Function, st.Line, st.NamePos, st.Name,
			"call depth %d exceeded calling %s", i.maxCallDepth, st.Name)
		i.pc = st.Line + 1
		return false, nil
	}

	i.pushCall(st.Name, st.Line)
	i.logger.Debug("call", "func", st.Name, "from", st.Line, "depth", i.callStack.Size())
	i.pc = header + 1

	return false, nil
}

// execReturn unwinds the top frame and resumes after the call line
func (i *Interpreter) execReturn(st parser.Statement) {
	callLine, ok := i.callStack.Pop()
	if !ok {
		i.sink.Errorf(diag.EmptyCallStack, diag.Function, st.Line, st.Pos, st.Name, "return from %s with an empty call stack", st.Name)
		i.pc = st.Line + 1
		return
	}

	f, ok := i.frames.Pop()
	if !ok {
		i.sink.Errorf(diag.MissingActivationFrame, diag.Function, st.Line, st.Pos, st.Name, "no activation frame for return from %s", st.Name)
	} else {
		i.release(f.Size())
		i.logger.Debug("return", "func", f.FuncName, "to", callLine, "released", f.Size())
	}

	i.pc = callLine + 1
}

// parseLiteral parses a base-10 integer literal
func parseLiteral(lit string) (int64, error) {
	return strconv.ParseInt(lit, 10, 64)
}
