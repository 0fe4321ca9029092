package analyzer

import "maps"

// SymbolTable maps global names to memory addresses. Addresses are handed
// out in declaration order and always form the range [0, Len()).
type SymbolTable struct {
	names []string       // names in declaration order
	addrs map[string]int // name -> address
}

// NewSymbolTable creates an empty symbol table
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		names: make([]string, 0),
		addrs: make(map[string]int),
	}
}

// Declare binds name to the next free address. It returns false and the
// existing address if the name is already bound.
func (t *SymbolTable) Declare(name string) (int, bool) {
	if addr, ok := t.addrs[name]; ok {
		return addr, false
	}

	addr := len(t.names)
	t.names = append(t.names, name)
	t.addrs[name] = addr

	return addr, true
}

// Lookup returns the address bound to name
func (t *SymbolTable) Lookup(name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	addr, ok := t.addrs[name]
	return addr, ok
}

// Contains checks if name is bound
func (t *SymbolTable) Contains(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}

// Len returns the number of bound names
func (t *SymbolTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Names returns the bound names in declaration (address) order
func (t *SymbolTable) Names() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.names...)
}

// Map returns a copy of the name -> address mapping
func (t *SymbolTable) Map() map[string]int {
	if t == nil {
		return map[string]int{}
	}
	return maps.Clone(t.addrs)
}

// LocalTable is the set of names declared in the function body being
// analyzed. It never carries addresses.
type LocalTable struct {
	names []string
	set   map[string]struct{}
}

// NewLocalTable creates an empty local table
func NewLocalTable() *LocalTable {
	return &LocalTable{set: make(map[string]struct{})}
}

// Add inserts name, returning false if it was already present
func (t *LocalTable) Add(name string) bool {
	if _, ok := t.set[name]; ok {
		return false
	}
	t.set[name] = struct{}{}
	t.names = append(t.names, name)
	return true
}

// Contains checks if name is present
func (t *LocalTable) Contains(name string) bool {
	_, ok := t.set[name]
	return ok
}

// Len returns the number of names
func (t *LocalTable) Len() int {
	return len(t.names)
}

// Names returns the names in declaration order
func (t *LocalTable) Names() []string {
	return append([]string(nil), t.names...)
}

// Clear removes all names
func (t *LocalTable) Clear() {
	t.names = t.names[:0]
	clear(t.set)
}

// FunctionTable maps function names to the line index of their header
type FunctionTable struct {
	names []string
	lines map[string]int
}

// NewFunctionTable creates an empty function table
func NewFunctionTable() *FunctionTable {
	return &FunctionTable{lines: make(map[string]int)}
}

// Define registers name at line. The first definition wins; redefinitions
// return false and the original line.
func (t *FunctionTable) Define(name string, line int) (int, bool) {
	if prev, ok := t.lines[name]; ok {
		return prev, false
	}
	t.names = append(t.names, name)
	t.lines[name] = line
	return line, true
}

// Lookup returns the header line of name
func (t *FunctionTable) Lookup(name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	line, ok := t.lines[name]
	return line, ok
}

// Contains checks if name is defined
func (t *FunctionTable) Contains(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}

// Len returns the number of defined functions
func (t *FunctionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Names returns the function names in definition order
func (t *FunctionTable) Names() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.names...)
}

// Map returns a copy of the name -> line mapping
func (t *FunctionTable) Map() map[string]int {
	if t == nil {
		return map[string]int{}
	}
	return maps.Clone(t.lines)
}
