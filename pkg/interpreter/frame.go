package interpreter

// Frame is the activation frame of one in-progress call.
type Frame struct {
	FuncName string         // called function
	CallLine int            // line of the call statement
	Locals   map[string]int // local name -> memory address
	order    []string       // local names in allocation order
}

func newFrame(funcName string, callLine int) *Frame {
	return &Frame{
		FuncName: funcName,
		CallLine: callLine,
		Locals:   make(map[string]int),
	}
}

// bind records a freshly allocated local
func (f *Frame) bind(name string, addr int) {
	f.Locals[name] = addr
	f.order = append(f.order, name)
}

// Lookup returns the address of a local
func (f *Frame) Lookup(name string) (int, bool) {
	addr, ok := f.Locals[name]
	return addr, ok
}

// Size is the number of memory cells the frame owns
func (f *Frame) Size() int {
	return len(f.order)
}

// Names returns the locals in allocation order
func (f *Frame) Names() []string {
	return append([]string(nil), f.order...)
}
