// Package mcp implements the Model Context Protocol (MCP) server for the
// MATLAB context engine.
//
// The server exposes the analysis engine to AI coding assistants as a set
// of tools over JSON-RPC 2.0 on stdio:
//
//   - open_document / change_document / close_document: document lifecycle
//   - complete: ranked completion candidates at a cursor position
//   - hover: signature and documentation for the symbol under the cursor
//   - definition: resolve a token to its defining locations
//   - references: find uses of a token across open documents
//   - document_symbols: hierarchical outline of one file
//   - workspace_symbols: fuzzy symbol search across the workspace
//   - index_workspace: scan and index every MATLAB file under the root
//   - get_status: index, cache, and analyzer state
//
// Diagnostics are pushed, not pulled: after a document change settles, the
// engine runs the external analyzer and the server publishes the results
// as a "matlab/diagnostics" notification carrying the file URI and its
// complete current diagnostic set. An empty set retracts earlier
// diagnostics for that file.
//
// All line and column numbers crossing this boundary are 1-based.
//
// The server writes protocol messages to stdout; logging goes to stderr
// so the two streams never interleave.
package mcp
