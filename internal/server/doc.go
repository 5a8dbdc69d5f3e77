// Package server implements an MCP (Model Context Protocol) server for tuning
// the scan slicer.
//
// Finding the right white threshold and size limits for a scanner is a
// trial-and-error job. The server exposes detection, preview and slicing as
// tools so an MCP client can run detection on a scan, look at the annotated
// result, adjust a parameter and run it again without re-decoding the scan.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - slicer_list_images: Catalog of an input directory, oldest first
//   - slicer_detect: Regions, counters, the scanner background and an annotated preview
//   - slicer_sample_background: Lid color and a suggested white_threshold
//   - slicer_preview: Post-processed slices as base64 PNG
//   - slicer_slice: Write the slices of one scan with their final names
//
// Every tool starts from the configuration the server was created with.
// Optional arguments such as white_threshold override a single setting for
// that call only, and the combined settings are validated the same way the
// config file is.
//
// # Image Caching
//
// Scans are cached by path and reused across tool calls. The cache persists
// for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
