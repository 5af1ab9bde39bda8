package types

// Outline represents the structural parse result for one MATLAB file.
// It is produced by a single Parse call and handed to the symbol index,
// which keeps its own copy scoped to the file. Outlines are replaced
// wholesale on every content change, never patched.
type Outline struct {
	URI         string
	ContentHash uint64 // xxhash of the exact source bytes, used for cache keying

	Functions   []FunctionEntry // Top-level and nested functions (methods excluded)
	Classes     []ClassEntry
	Variables   []VariableEntry
	Comments    []CommentEntry
	Diagnostics []ParseDiagnostic
}

// FunctionEntry represents a MATLAB function definition
type FunctionEntry struct {
	Name      string
	Range     Range
	NameCol   int      // Column of the function name on the declaration line
	Inputs    []string // Parameter names
	Outputs   []string // Return value names
	Depth     int      // Nesting depth, 0 for top level
	Parent    string   // Enclosing function name for nested functions
	Class     string   // Enclosing class name for methods, empty otherwise
	DocString string   // Contiguous comment block immediately preceding the declaration
}

// Signature renders the declaration in MATLAB form,
// e.g. "[q, r] = decompose(m, tol)".
func (f *FunctionEntry) Signature() string {
	sig := f.Name + "(" + joinNames(f.Inputs) + ")"
	switch len(f.Outputs) {
	case 0:
		return sig
	case 1:
		return f.Outputs[0] + " = " + sig
	default:
		return "[" + joinNames(f.Outputs) + "] = " + sig
	}
}

// ClassEntry represents a classdef block
type ClassEntry struct {
	Name       string
	Range      Range
	NameCol    int
	Properties []PropertyEntry
	Methods    []FunctionEntry
	DocString  string
}

// PropertyEntry represents one member of a properties block
type PropertyEntry struct {
	Name string
	Line int
	Col  int
}

// VariableEntry represents a global or persistent variable declaration.
// Ordinary assignment-based locals are deliberately not tracked.
type VariableEntry struct {
	Name       string
	Line       int
	Col        int
	Persistent bool // true for persistent, false for global
}

// CommentEntry represents a single-line or block comment
type CommentEntry struct {
	Text      string
	StartLine int
	EndLine   int
	Col       int
	Block     bool // true for %{ ... %} block comments
}

// ParseDiagnostic reports a structural anomaly found while parsing,
// such as an unmatched block terminator. Parse anomalies never abort
// the pass; they are collected here instead.
type ParseDiagnostic struct {
	Line     int
	Message  string
	Severity Severity
}

// EntryCount returns the total number of structural entries in the outline
func (o *Outline) EntryCount() int {
	n := len(o.Functions) + len(o.Classes) + len(o.Variables)
	for i := range o.Classes {
		n += len(o.Classes[i].Properties) + len(o.Classes[i].Methods)
	}
	return n
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
