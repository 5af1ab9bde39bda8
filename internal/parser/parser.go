package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/codelens/matlab-context-mcp/pkg/types"
)

// Line-oriented recognition patterns. The parser is deliberately heuristic:
// it matches keyword-prefixed statements rather than implementing the MATLAB
// grammar, which is all structural indexing needs.
var (
	// function [out1, out2] = name(in1, in2), with optional outputs and
	// optional argument list
	functionRe = regexp.MustCompile(`^function\s+(?:(\[[^\]]*\]|[A-Za-z]\w*)\s*=\s*)?([A-Za-z]\w*)\s*(?:\(([^)]*)\))?\s*$`)

	// classdef Name, classdef (Sealed) Name < Base
	classdefRe = regexp.MustCompile(`^classdef\s+(?:\([^)]*\)\s*)?([A-Za-z]\w*)`)

	// A bare block terminator. Indexing uses of "end" such as a(end) never
	// stand alone on a line and are not matched.
	endRe = regexp.MustCompile(`^end\s*[;,]?\s*$`)

	controlRe = regexp.MustCompile(`^(if|for|while|switch|try|parfor)\b`)

	// Class section and function argument blocks. These keywords are
	// contextual in MATLAB, so they are only honored inside the matching
	// enclosing block and only when nothing but attributes follows.
	sectionRe = regexp.MustCompile(`^(properties|methods|events|enumeration|arguments)\s*(\([^)]*\))?\s*$`)

	varDeclRe  = regexp.MustCompile(`^(global|persistent)\s+([\w\s,]+?)\s*[;,]?\s*$`)
	identRe    = regexp.MustCompile(`[A-Za-z]\w*`)
	propertyRe = regexp.MustCompile(`^([A-Za-z]\w*)`)
)

type frameKind int

const (
	frameFunction frameKind = iota
	frameClass
	frameControl
	frameSection
)

// frame is one open block on the parse stack
type frame struct {
	kind    frameKind
	keyword string
	line    int
	fn      *types.FunctionEntry // set for frameFunction
	class   *classBuilder        // set for frameClass
	section string               // set for frameSection
}

// classBuilder accumulates a classdef block until its terminator pops
type classBuilder struct {
	entry   *types.ClassEntry
	methods []*types.FunctionEntry
}

// Parser turns MATLAB source text into a structural outline. It holds no
// state between calls; a single instance may be shared freely.
type Parser struct{}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{}
}

// Parse parses MATLAB source content into an Outline. It never fails:
// structural problems are reported as parse diagnostics on the returned
// outline. Identical content always yields an identical outline.
func (p *Parser) Parse(uri, content string) *types.Outline {
	ps := &pass{
		outline: &types.Outline{
			URI:         uri,
			ContentHash: xxhash.Sum64String(content),
		},
		lines: strings.Split(content, "\n"),
	}
	ps.run()
	return ps.outline
}

// pass holds the state of one forward scan over the source lines
type pass struct {
	outline *types.Outline
	lines   []string

	stack     []frame
	functions []*types.FunctionEntry
	classes   []*classBuilder

	// Pending documentation block: consecutive leading comment lines with
	// the line number the block currently ends on. A declaration attaches
	// the block only when it ends on the immediately preceding line.
	docText []string
	docEnd  int

	// Block comment accumulation state
	inBlock    bool
	blockStart int
	blockCol   int
	blockText  []string
}

func (ps *pass) run() {
	i := 0
	for i < len(ps.lines) {
		lineNum := i + 1
		raw := ps.lines[i]
		i++

		if ps.inBlock {
			if isBlockCommentClose(raw) {
				ps.finishBlockComment(lineNum)
			} else {
				ps.blockText = append(ps.blockText, strings.TrimSpace(raw))
			}
			continue
		}
		if isBlockCommentOpen(raw) {
			ps.inBlock = true
			ps.blockStart = lineNum
			ps.blockCol = strings.Index(raw, "%") + 1
			ps.blockText = ps.blockText[:0]
			continue
		}

		code, comment, commentCol := splitComment(raw)
		if comment != "" {
			ps.outline.Comments = append(ps.outline.Comments, types.CommentEntry{
				Text:      strings.TrimSpace(comment),
				StartLine: lineNum,
				EndLine:   lineNum,
				Col:       commentCol,
				Block:     false,
			})
			if strings.TrimSpace(code) == "" {
				// Leading comment line: accumulate for doc association
				if ps.docEnd == lineNum-1 {
					ps.docText = append(ps.docText, strings.TrimSpace(comment))
				} else {
					ps.docText = []string{strings.TrimSpace(comment)}
				}
				ps.docEnd = lineNum
				continue
			}
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}

		// Join continuation lines so a signature split with "..." is seen
		// whole; the construct keeps the first line's number.
		for strings.HasSuffix(trimmed, "...") && i < len(ps.lines) {
			next, _, _ := splitComment(ps.lines[i])
			i++
			trimmed = strings.TrimSuffix(trimmed, "...") + " " + strings.TrimSpace(next)
			trimmed = strings.TrimSpace(trimmed)
		}

		ps.statement(raw, trimmed, lineNum)
	}

	ps.finish(len(ps.lines))
}

// statement dispatches one comment-stripped, continuation-joined line
func (ps *pass) statement(raw, trimmed string, lineNum int) {
	if m := classdefRe.FindStringSubmatch(trimmed); m != nil {
		ps.openClass(m[1], raw, lineNum)
		return
	}
	if m := functionRe.FindStringSubmatch(trimmed); m != nil {
		ps.openFunction(m, raw, lineNum)
		return
	}
	if endRe.MatchString(trimmed) {
		ps.popEnd(lineNum)
		return
	}
	if m := sectionRe.FindStringSubmatch(trimmed); m != nil && ps.sectionAllowed(m[1]) {
		ps.stack = append(ps.stack, frame{kind: frameSection, keyword: m[1], line: lineNum, section: m[1]})
		return
	}
	if m := controlRe.FindStringSubmatch(trimmed); m != nil {
		// One-line forms like "if cond, x = 1; end" are self-contained
		// and never reach the stack.
		if !selfContained(trimmed) {
			ps.stack = append(ps.stack, frame{kind: frameControl, keyword: m[1], line: lineNum})
		}
		return
	}
	if m := varDeclRe.FindStringSubmatch(trimmed); m != nil {
		ps.addVariables(m[1], m[2], raw, lineNum)
		return
	}
	if sec := ps.currentSection(); sec == "properties" {
		if m := propertyRe.FindStringSubmatch(trimmed); m != nil && !IsKeyword(m[1]) {
			ps.addProperty(m[1], raw, lineNum)
		}
	}
}

func (ps *pass) openClass(name, raw string, lineNum int) {
	entry := &types.ClassEntry{
		Name:      name,
		Range:     types.Range{Start: types.Position{Line: lineNum, Column: 1}, End: types.Position{Line: lineNum}},
		NameCol:   columnOf(raw, name),
		DocString: ps.takeDoc(lineNum),
	}
	cb := &classBuilder{entry: entry}
	ps.classes = append(ps.classes, cb)
	ps.stack = append(ps.stack, frame{kind: frameClass, keyword: "classdef", line: lineNum, class: cb})
}

func (ps *pass) openFunction(m []string, raw string, lineNum int) {
	entry := &types.FunctionEntry{
		Name:      m[2],
		Range:     types.Range{Start: types.Position{Line: lineNum, Column: 1}, End: types.Position{Line: lineNum}},
		NameCol:   columnOf(raw, m[2]),
		Outputs:   splitNames(strings.Trim(m[1], "[]")),
		Inputs:    splitNames(m[3]),
		DocString: ps.takeDoc(lineNum),
	}

	if cb := ps.enclosingClass(); cb != nil {
		entry.Class = cb.entry.Name
		cb.methods = append(cb.methods, entry)
	} else {
		if fn := ps.enclosingFunction(); fn != nil {
			entry.Parent = fn.Name
			entry.Depth = fn.Depth + 1
		}
		ps.functions = append(ps.functions, entry)
	}
	ps.stack = append(ps.stack, frame{kind: frameFunction, keyword: "function", line: lineNum, fn: entry})
}

// popEnd closes the innermost open block, or records an unmatched
// terminator when nothing is open
func (ps *pass) popEnd(lineNum int) {
	if len(ps.stack) == 0 {
		ps.outline.Diagnostics = append(ps.outline.Diagnostics, types.ParseDiagnostic{
			Line:     lineNum,
			Message:  "unmatched 'end' with no open block",
			Severity: types.SeverityWarning,
		})
		return
	}
	top := ps.stack[len(ps.stack)-1]
	ps.stack = ps.stack[:len(ps.stack)-1]

	switch top.kind {
	case frameFunction:
		top.fn.Range.End = types.Position{Line: lineNum}
	case frameClass:
		top.class.entry.Range.End = types.Position{Line: lineNum}
	}
}

// finish closes out the pass at EOF, reporting every block still open
func (ps *pass) finish(lastLine int) {
	if lastLine < 1 {
		lastLine = 1
	}
	if ps.inBlock {
		ps.finishBlockComment(lastLine)
	}

	for j := len(ps.stack) - 1; j >= 0; j-- {
		fr := ps.stack[j]
		switch fr.kind {
		case frameFunction:
			fr.fn.Range.End = types.Position{Line: lastLine}
			ps.outline.Diagnostics = append(ps.outline.Diagnostics, types.ParseDiagnostic{
				Line:     fr.line,
				Message:  fmt.Sprintf("function '%s' has no matching 'end'", fr.fn.Name),
				Severity: types.SeverityWarning,
			})
		case frameClass:
			fr.class.entry.Range.End = types.Position{Line: lastLine}
			ps.outline.Diagnostics = append(ps.outline.Diagnostics, types.ParseDiagnostic{
				Line:     fr.line,
				Message:  fmt.Sprintf("classdef '%s' has no matching 'end'", fr.class.entry.Name),
				Severity: types.SeverityWarning,
			})
		case frameControl:
			ps.outline.Diagnostics = append(ps.outline.Diagnostics, types.ParseDiagnostic{
				Line:     fr.line,
				Message:  fmt.Sprintf("'%s' block has no matching 'end'", fr.keyword),
				Severity: types.SeverityWarning,
			})
		}
	}
	ps.stack = nil

	ps.outline.Functions = make([]types.FunctionEntry, len(ps.functions))
	for j, fn := range ps.functions {
		ps.outline.Functions[j] = *fn
	}
	ps.outline.Classes = make([]types.ClassEntry, len(ps.classes))
	for j, cb := range ps.classes {
		entry := *cb.entry
		entry.Methods = make([]types.FunctionEntry, len(cb.methods))
		for k, m := range cb.methods {
			entry.Methods[k] = *m
		}
		ps.outline.Classes[j] = entry
	}
}

func (ps *pass) finishBlockComment(endLine int) {
	ps.inBlock = false
	text := strings.TrimSpace(strings.Join(ps.blockText, "\n"))
	ps.outline.Comments = append(ps.outline.Comments, types.CommentEntry{
		Text:      text,
		StartLine: ps.blockStart,
		EndLine:   endLine,
		Col:       ps.blockCol,
		Block:     true,
	})
	// A block comment directly above a declaration serves as its doc text
	ps.docText = []string{text}
	ps.docEnd = endLine
}

func (ps *pass) addVariables(modifier, names, raw string, lineNum int) {
	persistent := modifier == "persistent"
	for _, name := range strings.FieldsFunc(names, func(r rune) bool { return r == ' ' || r == '\t' || r == ',' }) {
		if !identRe.MatchString(name) || IsKeyword(name) {
			continue
		}
		ps.outline.Variables = append(ps.outline.Variables, types.VariableEntry{
			Name:       name,
			Line:       lineNum,
			Col:        columnOf(raw, name),
			Persistent: persistent,
		})
	}
}

func (ps *pass) addProperty(name, raw string, lineNum int) {
	cb := ps.enclosingClass()
	if cb == nil {
		return
	}
	cb.entry.Properties = append(cb.entry.Properties, types.PropertyEntry{
		Name: name,
		Line: lineNum,
		Col:  columnOf(raw, name),
	})
}

// takeDoc consumes the pending comment block if it ends on the line
// immediately above declLine
func (ps *pass) takeDoc(declLine int) string {
	if ps.docEnd != declLine-1 || len(ps.docText) == 0 {
		return ""
	}
	doc := strings.Join(ps.docText, "\n")
	ps.docText = nil
	ps.docEnd = 0
	return doc
}

// sectionAllowed reports whether a contextual section keyword is valid at
// the current stack position: class sections directly inside a classdef,
// arguments blocks directly inside a function.
func (ps *pass) sectionAllowed(keyword string) bool {
	if len(ps.stack) == 0 {
		return false
	}
	top := ps.stack[len(ps.stack)-1]
	if keyword == "arguments" {
		return top.kind == frameFunction
	}
	return top.kind == frameClass
}

// currentSection returns the name of the innermost open section block
func (ps *pass) currentSection() string {
	for j := len(ps.stack) - 1; j >= 0; j-- {
		switch ps.stack[j].kind {
		case frameSection:
			return ps.stack[j].section
		case frameFunction, frameClass:
			return ""
		}
	}
	return ""
}

func (ps *pass) enclosingClass() *classBuilder {
	for j := len(ps.stack) - 1; j >= 0; j-- {
		if ps.stack[j].kind == frameClass {
			return ps.stack[j].class
		}
		if ps.stack[j].kind == frameFunction {
			// A function below the innermost class owns nested scope
			return nil
		}
	}
	return nil
}

func (ps *pass) enclosingFunction() *types.FunctionEntry {
	for j := len(ps.stack) - 1; j >= 0; j-- {
		if ps.stack[j].kind == frameFunction {
			return ps.stack[j].fn
		}
	}
	return nil
}

// splitComment splits a raw line into code and trailing comment text,
// honoring single- and double-quoted strings so a '%' inside a literal is
// not mistaken for a comment marker. commentCol is the 1-based column of
// the '%' marker, 0 when the line has no comment.
func splitComment(line string) (code, comment string, commentCol int) {
	var quote rune
	for i, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			// A quote after an identifier or closing bracket is the
			// transpose operator, not a string opener
			if r == '\'' && i > 0 && isTransposeContext(rune(line[i-1])) {
				continue
			}
			quote = r
		case r == '%':
			return line[:i], line[i+1:], i + 1
		}
	}
	return line, "", 0
}

func isTransposeContext(prev rune) bool {
	return prev == ')' || prev == ']' || prev == '}' || prev == '.' ||
		(prev >= 'a' && prev <= 'z') || (prev >= 'A' && prev <= 'Z') ||
		(prev >= '0' && prev <= '9') || prev == '_'
}

func isBlockCommentOpen(line string) bool {
	return strings.TrimSpace(line) == "%{"
}

func isBlockCommentClose(line string) bool {
	return strings.TrimSpace(line) == "%}"
}

// selfContained reports whether a control statement closes itself on the
// same line, e.g. "if x, y = 1; end"
func selfContained(trimmed string) bool {
	return strings.HasSuffix(trimmed, " end") || strings.HasSuffix(trimmed, ",end") ||
		strings.HasSuffix(trimmed, ";end") || strings.HasSuffix(trimmed, " end;")
}

// splitNames splits a comma-separated argument list into trimmed names
func splitNames(list string) []string {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// columnOf returns the 1-based column of the first occurrence of name in
// line, defaulting to 1 when not found
func columnOf(line, name string) int {
	if idx := strings.Index(line, name); idx >= 0 {
		return idx + 1
	}
	return 1
}
