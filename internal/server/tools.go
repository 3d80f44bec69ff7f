package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Loop state
		{
			Name:        "camera_status",
			Description: "Report frame loop counters, camera statistics and the mounting orientation in degrees.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "camera_last_quad",
			Description: "Return the quadrilateral detected in the most recently published frame, with its four vertices in display coordinates and its hull area.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Frame access
		{
			Name:        "camera_capture",
			Description: "Save the currently displayed frame, overlay included, as IMG_YYYYMMDD_HHMMSS.png and return the file path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Optional directory for the capture. Defaults to the server's capture directory",
					},
				},
			},
		},
		{
			Name:        "camera_sample_color",
			Description: "Get the color at a pixel of the displayed frame in hex, RGBA and HSL.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0 = left edge)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0 = top edge)",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "camera_preview",
			Description: "Return the displayed frame as a base64 PNG, optionally scaled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 0.5 to halve size). Default 1.0",
						"default":     1.0,
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
