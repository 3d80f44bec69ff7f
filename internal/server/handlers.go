package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ironsheep/quadcam/internal/imaging"
	"github.com/ironsheep/quadcam/internal/pipeline"
	"github.com/ironsheep/quadcam/internal/source"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "camera_status", "camera_capture").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		pipeline.Logger().Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
// Every handler reads the loop's published state; none of them blocks the
// loop.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "camera_status":
		return s.handleCameraStatus(args)
	case "camera_last_quad":
		return s.handleCameraLastQuad(args)
	case "camera_capture":
		return s.handleCameraCapture(args)
	case "camera_sample_color":
		return s.handleCameraSampleColor(args)
	case "camera_preview":
		return s.handleCameraPreview(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Status ===

// StatusResult is the camera_status payload.
type StatusResult struct {
	Loop        pipeline.Stats `json:"loop"`
	Camera      *source.Stats  `json:"camera,omitempty"`
	Orientation int            `json:"orientation_degrees"`
	LastSeq     *uint64        `json:"last_seq,omitempty"`
	LastTraceID string         `json:"last_trace_id,omitempty"`
}

func (s *Server) handleCameraStatus(json.RawMessage) (interface{}, error) {
	res := &StatusResult{
		Loop:        s.loop.Stats(),
		Orientation: int(s.loop.Orientation()),
	}
	if s.camera != nil {
		cs := s.camera.Stats()
		res.Camera = &cs
	}
	if f := s.loop.Current(); f != nil {
		seq := f.Seq
		res.LastSeq = &seq
		res.LastTraceID = f.TraceID
	}
	return res, nil
}

// === Detection ===

// PointResult is one quad vertex in display coordinates.
type PointResult struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// QuadResult is the camera_last_quad payload.
type QuadResult struct {
	Found       bool          `json:"found"`
	Seq         uint64        `json:"seq"`
	TraceID     string        `json:"trace_id,omitempty"`
	PublishedAt time.Time     `json:"published_at"`
	Points      []PointResult `json:"points,omitempty"`
	HullArea    float64       `json:"hull_area,omitempty"`
}

func (s *Server) handleCameraLastQuad(json.RawMessage) (interface{}, error) {
	r := s.loop.Latest()
	if r == nil {
		return nil, pipeline.ErrNoFrame
	}

	res := &QuadResult{
		Seq:         r.Frame.Seq,
		TraceID:     r.Frame.TraceID,
		PublishedAt: r.At,
	}
	if r.Quad == nil {
		return res, nil
	}

	res.Found = true
	res.Points = make([]PointResult, 0, len(r.Quad.Points))
	for _, p := range r.Quad.Points {
		res.Points = append(res.Points, PointResult{X: p.X, Y: p.Y})
	}
	res.HullArea = r.Quad.HullArea()
	return res, nil
}

// === Capture ===

type cameraCaptureArgs struct {
	Dir string `json:"dir"`
}

// CaptureResult is the camera_capture payload.
type CaptureResult struct {
	Path    string `json:"path"`
	Seq     uint64 `json:"seq"`
	TraceID string `json:"trace_id,omitempty"`
}

func (s *Server) handleCameraCapture(args json.RawMessage) (interface{}, error) {
	var a cameraCaptureArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Dir == "" {
		a.Dir = s.captureDir
	}

	path, frame, err := s.loop.Capture(a.Dir)
	if err != nil {
		return nil, err
	}
	return &CaptureResult{Path: path, Seq: frame.Seq, TraceID: frame.TraceID}, nil
}

// === Color ===

type cameraSampleColorArgs struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleCameraSampleColor(args json.RawMessage) (interface{}, error) {
	var a cameraSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	frame := s.loop.Current()
	if frame == nil {
		return nil, pipeline.ErrNoFrame
	}
	return imaging.SampleColor(frame, a.X, a.Y)
}

// === Preview ===

type cameraPreviewArgs struct {
	Scale float64 `json:"scale"`
}

func (s *Server) handleCameraPreview(args json.RawMessage) (interface{}, error) {
	var a cameraPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Scale < 0 || a.Scale > 4 {
		return nil, fmt.Errorf("scale %.2f out of range (0, 4]", a.Scale)
	}
	frame := s.loop.Current()
	if frame == nil {
		return nil, pipeline.ErrNoFrame
	}
	return imaging.EncodePreview(frame, a.Scale)
}
