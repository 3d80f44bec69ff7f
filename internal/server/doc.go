// Package server implements the MCP (Model Context Protocol) control surface
// for a running quadcam frame loop.
//
// The server exposes read-only views of the loop's published state plus a
// capture command, so an MCP client can watch what the camera sees and what
// the detector found without touching the display path.
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
//   - camera_status: Loop counters, camera statistics, orientation
//   - camera_last_quad: Vertices and areas of the latest detection
//   - camera_capture: Save the displayed frame to disk
//   - camera_sample_color: Color at a pixel of the displayed frame
//   - camera_preview: Displayed frame as base64 PNG
//
// Tools never wait for a frame. Before the loop publishes anything, the
// frame-dependent tools fail with pipeline.ErrNoFrame.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(loop, camera, captureDir)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
