package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

// detectionProperties are the overrides every detection-based tool accepts.
func detectionProperties() map[string]interface{} {
	return map[string]interface{}{
		"path":            prop("string", "Absolute path to the scanned image"),
		"white_threshold": prop("integer", "Luminance (0-255) at or below which a pixel belongs to a photo. Match the scanner's natural white."),
		"minimum_size":    prop("number", "Smallest accepted region as % of the scan area (exclusive)"),
		"maximum_size":    prop("number", "Largest accepted region as % of the scan area (exclusive)"),
		"working_width":   prop("integer", "Width of the downscaled copy detection runs on"),
	}
}

// pipelineProperties adds the post-processing overrides to the detection ones.
func pipelineProperties() map[string]interface{} {
	props := detectionProperties()
	props["perspective_fix"] = prop("integer", "Straighten slices tilted between this many degrees and 90 minus it (0-89, 0 = off)")
	props["auto_rotate"] = map[string]interface{}{
		"type":        "string",
		"description": "Turn portrait slices a quarter turn",
		"enum":        []string{"disable", "cw", "ccw"},
	}
	props["scale_factor"] = prop("number", "Scale slices by this factor (0 = off)")
	props["scale_width"] = prop("integer", "Shrink slices to this width in pixels (0 = off)")
	props["scale_height"] = prop("integer", "Shrink slices to this height in pixels (0 = off)")
	props["filter_denoise"] = prop("integer", "Non-local means denoise level (0-5, 0 = off)")
	props["filter_lut_path"] = prop("string", "Path to a .cube 3D LUT")
	props["filter_lut_strength"] = prop("number", "LUT blend strength (0.0-1.0)")
	props["filter_color"] = prop("number", "Color enhancement factor (0.0-2.0, 1.0 = unchanged)")
	props["filter_contrast"] = prop("number", "Contrast factor (0.0-2.0, 1.0 = unchanged)")
	props["filter_brightness"] = prop("number", "Brightness factor (0.0-2.0, 1.0 = unchanged)")
	props["filter_sharpness"] = prop("number", "Sharpness factor (0.0-2.0, 1.0 = unchanged)")
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	slice := pipelineProperties()
	slice["output"] = prop("string", "Directory the slices are written to")
	slice["project_name"] = prop("string", "Name prefix for the slices (default: the scan's directory name)")
	slice["save_format"] = map[string]interface{}{
		"type":        "string",
		"description": "Output format",
		"enum":        []string{"png", "jpeg", "webp"},
	}

	return []Tool{
		{
			Name:        "slicer_list_images",
			Description: "List the scanned images under an input directory in catalog order (oldest first). The IDs match the command-line task IDs.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input": prop("string", "Input directory; defaults to the configured input"),
				},
			},
		},
		{
			Name:        "slicer_detect",
			Description: "Run photo detection on a scan and return every region with its bounds, area percentage and verdict, plus an annotated preview (accepted regions numbered in blue, rejected ones in purple). Call repeatedly with different parameters to tune them; the image is decoded once.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detectionProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "slicer_sample_background",
			Description: "Measure the scanner lid color in the margins of a scan and suggest a white_threshold that keeps the lid out of the detection mask.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   prop("string", "Absolute path to the scanned image"),
					"margin": prop("number", "Width of the sampled border strip in % of the shorter side (default 2)"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "slicer_preview",
			Description: "Cut, straighten, scale, rotate and filter every accepted region of a scan and return the slices as base64 PNG without writing anything.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": pipelineProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "slicer_slice",
			Description: "Slice a scan and write the photos to the output directory with their final sequential names.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": slice,
				"required":   []string{"path", "output"},
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
