// Package types provides shared type definitions for the MATLAB context MCP server.
//
// This package defines domain types used across multiple components,
// including outlines, symbols, and diagnostics.
//
// # Core Types
//
// Outline is the structural parse result for one MATLAB file:
//
//	outline := parser.Parse("file:///proj/rotate.m", content)
//	for _, fn := range outline.Functions {
//	    fmt.Println(fn.Signature())
//	}
//
// Symbol is the index-level unified view of a named entity. Its identity is
// the triple (owning file, qualified name, kind):
//
//	sym := &types.Symbol{
//	    Name:      "decompose",
//	    Kind:      types.KindFunction,
//	    URI:       "file:///proj/decompose.m",
//	    Signature: "[q, r] = decompose(m)",
//	}
//
// Diagnostic is a host-facing analysis finding, produced either by the
// parser (structural anomalies) or by the external mlint analyzer:
//
//	diag := &types.Diagnostic{
//	    URI:      uri,
//	    Severity: types.SeverityWarning,
//	    Message:  "Value assigned to variable might be unused",
//	    Source:   "mlint",
//	    Code:     "NASGU",
//	}
//
// All positions are 1-based lines and columns; conversion to a host
// protocol's coordinate system happens at the protocol boundary.
package types
