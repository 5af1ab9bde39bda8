package parser

// Keywords lists the MATLAB language keywords recognized by the parser and
// offered by completion.
var Keywords = []string{
	"break", "case", "catch", "classdef", "continue", "else", "elseif",
	"end", "enumeration", "events", "for", "function", "global", "if",
	"import", "methods", "otherwise", "parfor", "persistent", "properties",
	"return", "switch", "try", "while",
}

var keywordSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Keywords))
	for _, kw := range Keywords {
		set[kw] = struct{}{}
	}
	return set
}()

// IsKeyword reports whether name is a MATLAB keyword
func IsKeyword(name string) bool {
	_, ok := keywordSet[name]
	return ok
}

// BuiltinDetails maps a curated subset of built-in functions to the short
// description shown in completion and hover results.
var BuiltinDetails = map[string]string{
	"abs":     "absolute value",
	"sin":     "sine",
	"cos":     "cosine",
	"tan":     "tangent",
	"sqrt":    "square root",
	"exp":     "exponential",
	"log":     "natural logarithm",
	"zeros":   "creates zero array",
	"ones":    "creates ones array",
	"eye":     "creates identity matrix",
	"rand":    "uniform random numbers",
	"randn":   "normal random numbers",
	"size":    "array dimensions",
	"length":  "longest array dimension",
	"numel":   "number of array elements",
	"reshape": "reshape array",
	"find":    "indices of nonzero elements",
	"disp":    "display value",
	"fprintf": "formatted print",
	"sprintf": "formatted string",
	"error":   "throw error",
	"warning": "issue warning",
	"input":   "prompt for user input",
	"load":    "load variables from file",
	"save":    "save variables to file",
	"plot":    "2-D line plot",
}

// builtinFunctions is the full table of built-in names recognized for
// completion and hover fallback. The set mirrors the common base MATLAB
// surface rather than any toolbox.
var builtinFunctions = map[string]struct{}{}

func init() {
	names := []string{
		// Elementary math
		"abs", "acos", "asin", "atan", "atan2", "ceil", "cos", "cosh",
		"exp", "factorial", "floor", "gcd", "hypot", "log", "log10",
		"log2", "max", "min", "mod", "nthroot", "pow", "prod", "real",
		"rem", "round", "sec", "sech", "sign", "sin", "sinh", "sqrt",
		"tan", "tanh",
		// Array creation and shaping
		"eye", "ones", "zeros", "rand", "randn", "linspace", "logspace",
		"meshgrid", "ndgrid", "cat", "horzcat", "vertcat", "permute",
		"ipermute", "reshape", "squeeze", "sub2ind", "ind2sub",
		"shiftdim", "circshift", "repmat", "kron", "sparse", "full",
		// Linear algebra and transforms
		"eig", "eigs", "svd", "lu", "qr", "chol", "fft", "ifft", "fft2",
		"ifft2",
		// Reductions and queries
		"find", "cumsum", "cumprod", "diff", "all", "any", "exist",
		"size", "length", "ndims", "numel",
		// Types and conversion
		"cell", "struct", "num2cell", "num2struct", "isa", "isnumeric",
		"ischar", "islogical", "isinteger", "isfloat", "char", "double",
		"single", "int8", "int16", "int32", "int64", "uint8", "uint16",
		"uint32", "uint64", "logical",
		// Strings
		"strfind", "strcmp", "strcmpi", "strncmp", "strrep", "strmatch",
		"sprintf", "lower", "upper",
		// Dates and timing
		"datestr", "datenum", "datevec", "weekday", "calendar", "clock",
		"etime", "cputime", "tic", "toc", "pause", "drawnow",
		// I/O and environment
		"save", "load", "clear", "close", "fopen", "fclose", "fprintf",
		"fscanf", "fgets", "disp", "input", "keyboard", "error",
		"warning", "help", "doc", "which", "type", "ver", "license",
		"version", "plot",
	}
	for _, n := range names {
		builtinFunctions[n] = struct{}{}
	}
}

// IsBuiltin reports whether name is a built-in MATLAB function
func IsBuiltin(name string) bool {
	_, ok := builtinFunctions[name]
	return ok
}

// BuiltinNames returns all built-in function names. The returned slice is
// freshly allocated and safe to modify.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinFunctions))
	for n := range builtinFunctions {
		names = append(names, n)
	}
	return names
}

// BuiltinDetail returns the completion detail text for a built-in name
func BuiltinDetail(name string) string {
	if d, ok := BuiltinDetails[name]; ok {
		return d
	}
	return "built-in function"
}
