package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/ironsheep/scan-slicer/internal/catalog"
	"github.com/ironsheep/scan-slicer/internal/config"
	"github.com/ironsheep/scan-slicer/internal/detection"
	"github.com/ironsheep/scan-slicer/internal/imaging"
	"github.com/ironsheep/scan-slicer/internal/slicer"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "slicer_detect").
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	case "slicer_list_images":
		return s.handleListImages(args)
	case "slicer_detect":
		return s.handleDetect(args)
	case "slicer_sample_background":
		return s.handleSampleBackground(args)
	case "slicer_preview":
		return s.handlePreview(ctx, args)
	case "slicer_slice":
		return s.handleSlice(ctx, args)
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
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// tuningArgs holds the optional per-call overrides. A nil field keeps the
// server's configured value.
type tuningArgs struct {
	Path string `json:"path"`

	WhiteThreshold *int     `json:"white_threshold"`
	MinimumSize    *float64 `json:"minimum_size"`
	MaximumSize    *float64 `json:"maximum_size"`
	WorkingWidth   *int     `json:"working_width"`

	PerspectiveFix *int     `json:"perspective_fix"`
	AutoRotate     *string  `json:"auto_rotate"`
	ScaleFactor    *float64 `json:"scale_factor"`
	ScaleWidth     *int     `json:"scale_width"`
	ScaleHeight    *int     `json:"scale_height"`

	FilterDenoise     *int     `json:"filter_denoise"`
	FilterLUTPath     *string  `json:"filter_lut_path"`
	FilterLUTStrength *float64 `json:"filter_lut_strength"`
	FilterColor       *float64 `json:"filter_color"`
	FilterContrast    *float64 `json:"filter_contrast"`
	FilterBrightness  *float64 `json:"filter_brightness"`
	FilterSharpness   *float64 `json:"filter_sharpness"`

	SaveFormat *string `json:"save_format"`
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// config applies the overrides to a copy of base and validates the result.
func (a *tuningArgs) config(base config.Config) (config.Config, error) {
	cfg := base
	set(&cfg.WhiteThreshold, a.WhiteThreshold)
	set(&cfg.MinimumSize, a.MinimumSize)
	set(&cfg.MaximumSize, a.MaximumSize)
	set(&cfg.WorkingWidth, a.WorkingWidth)
	set(&cfg.PerspectiveFix, a.PerspectiveFix)
	set(&cfg.AutoRotate, a.AutoRotate)
	set(&cfg.ScaleFactor, a.ScaleFactor)
	set(&cfg.ScaleWidth, a.ScaleWidth)
	set(&cfg.ScaleHeight, a.ScaleHeight)
	set(&cfg.FilterDenoise, a.FilterDenoise)
	set(&cfg.FilterLUTPath, a.FilterLUTPath)
	set(&cfg.FilterLUTStrength, a.FilterLUTStrength)
	set(&cfg.FilterColor, a.FilterColor)
	set(&cfg.FilterContrast, a.FilterContrast)
	set(&cfg.FilterBrightness, a.FilterBrightness)
	set(&cfg.FilterSharpness, a.FilterSharpness)
	set(&cfg.SaveFormat, a.SaveFormat)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var errMissingPath = errors.New("path is required")

func (s *Server) decodeTuning(args json.RawMessage, a *tuningArgs) (config.Config, error) {
	if err := json.Unmarshal(args, a); err != nil {
		return config.Config{}, err
	}
	if a.Path == "" {
		return config.Config{}, errMissingPath
	}
	return a.config(s.cfg)
}

// === Catalog ===

type listImagesArgs struct {
	Input string `json:"input"`
}

type listedImage struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Format   string `json:"format"`
	Size     string `json:"size"`
	Modified string `json:"modified"`
}

type listImagesResult struct {
	Input     string        `json:"input"`
	Count     int           `json:"count"`
	TotalSize string        `json:"total_size"`
	Images    []listedImage `json:"images"`
}

func (s *Server) handleListImages(args json.RawMessage) (interface{}, error) {
	var a listImagesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Input == "" {
		a.Input = s.cfg.Input
	}
	if a.Input == "" {
		return nil, errors.New("input is required when no input directory is configured")
	}

	images, err := catalog.Collect(a.Input)
	if err != nil {
		return nil, err
	}
	res := &listImagesResult{
		Input:  a.Input,
		Count:  len(images),
		Images: make([]listedImage, len(images)),
	}
	var total uint64
	for i, img := range images {
		total += uint64(img.Size)
		res.Images[i] = listedImage{
			ID:       img.ID,
			Name:     img.Name,
			Path:     img.Path(),
			Format:   img.Format,
			Size:     humanize.Bytes(uint64(img.Size)),
			Modified: humanize.Time(img.ModTime),
		}
	}
	res.TotalSize = humanize.Bytes(total)
	return res, nil
}

// === Detection ===

type regionSummary struct {
	Index    int              `json:"index"`
	Bounds   detection.Bounds `json:"bounds"`
	AreaPct  float64          `json:"area_pct"`
	Accepted bool             `json:"accepted"`
}

type detectResult struct {
	Image         *imaging.ImageInfo    `json:"image"`
	Params        detection.Params      `json:"params"`
	AcceptedCount int                   `json:"accepted_count"`
	RejectedCount int                   `json:"rejected_count"`
	WorkingWidth  int                   `json:"working_width"`
	WorkingHeight int                   `json:"working_height"`
	Regions       []regionSummary       `json:"regions"`
	Background    *imaging.Background   `json:"background"`
	Annotated     *imaging.EncodedImage `json:"annotated"`
}

func (s *Server) handleDetect(args json.RawMessage) (interface{}, error) {
	var a tuningArgs
	cfg, err := s.decodeTuning(args, &a)
	if err != nil {
		return nil, err
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	params := cfg.Options().Detection
	d, err := detection.Detect(img, params)
	if err != nil {
		return nil, err
	}

	res := &detectResult{
		Image:         info,
		Params:        params,
		AcceptedCount: d.AcceptedCount,
		RejectedCount: d.RejectedCount,
		WorkingWidth:  d.WorkingWidth,
		WorkingHeight: d.WorkingHeight,
		Regions:       make([]regionSummary, len(d.Regions)),
	}
	for i, r := range d.Regions {
		res.Regions[i] = regionSummary{
			Index:    r.Index,
			Bounds:   r.Bounds,
			AreaPct:  r.AreaPct,
			Accepted: r.Accepted,
		}
	}

	res.Background, err = imaging.SampleBackground(img, 0)
	if err != nil {
		return nil, err
	}

	view := imaging.FitView(detection.Annotate(d), cfg.ViewWidth, cfg.ViewHeight)
	res.Annotated, err = imaging.EncodeBase64PNG(view)
	if err != nil {
		return nil, err
	}
	return res, nil
}

type sampleBackgroundArgs struct {
	Path   string  `json:"path"`
	Margin float64 `json:"margin"`
}

type sampleBackgroundResult struct {
	*imaging.Background
	ConfiguredThreshold int    `json:"configured_threshold"`
	Advice              string `json:"advice"`
}

func (s *Server) handleSampleBackground(args json.RawMessage) (interface{}, error) {
	var a sampleBackgroundArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errMissingPath
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	bg, err := imaging.SampleBackground(img, a.Margin)
	if err != nil {
		return nil, err
	}

	res := &sampleBackgroundResult{Background: bg, ConfiguredThreshold: s.cfg.WhiteThreshold}
	switch {
	case s.cfg.WhiteThreshold >= bg.Darkest:
		res.Advice = fmt.Sprintf("white_threshold %d is at or above the lid shade %d; lower it to about %d",
			s.cfg.WhiteThreshold, bg.Darkest, bg.SuggestedThreshold)
	case s.cfg.WhiteThreshold < bg.SuggestedThreshold-40:
		res.Advice = fmt.Sprintf("white_threshold %d is far below the lid shade %d; pale photos may be missed, try about %d",
			s.cfg.WhiteThreshold, bg.Darkest, bg.SuggestedThreshold)
	default:
		res.Advice = "white_threshold suits this scanner"
	}
	return res, nil
}

// === Preview ===

type previewSlice struct {
	Ordinal      int                   `json:"ordinal"`
	Region       int                   `json:"region"`
	Straightened bool                  `json:"straightened"`
	Width        int                   `json:"width"`
	Height       int                   `json:"height"`
	Preview      *imaging.EncodedImage `json:"preview"`
}

type previewResult struct {
	AcceptedCount int            `json:"accepted_count"`
	RejectedCount int            `json:"rejected_count"`
	Slices        []previewSlice `json:"slices"`
}

func (s *Server) handlePreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tuningArgs
	cfg, err := s.decodeTuning(args, &a)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	proc, err := slicer.NewProcessor(cfg.Options(), s.logger, nil)
	if err != nil {
		return nil, err
	}

	slices, d, err := proc.Slices(ctx, img)
	if err != nil {
		return nil, err
	}
	res := &previewResult{
		AcceptedCount: d.AcceptedCount,
		RejectedCount: d.RejectedCount,
		Slices:        make([]previewSlice, len(slices)),
	}
	for i, sl := range slices {
		b := sl.Image.Bounds()
		enc, err := imaging.EncodeBase64PNG(imaging.FitView(sl.Image, cfg.ViewWidth, cfg.ViewHeight))
		if err != nil {
			return nil, err
		}
		res.Slices[i] = previewSlice{
			Ordinal:      sl.Ordinal,
			Region:       sl.Region.Index,
			Straightened: sl.Straightened,
			Width:        b.Dx(),
			Height:       b.Dy(),
			Preview:      enc,
		}
	}
	return res, nil
}

// === Slicing ===

type sliceArgs struct {
	tuningArgs
	Output      string `json:"output"`
	ProjectName string `json:"project_name"`
}

type sliceResult struct {
	Count   int      `json:"count"`
	Skipped int      `json:"skipped"`
	Files   []string `json:"files"`
}

func (s *Server) handleSlice(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sliceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errMissingPath
	}
	cfg, err := a.config(s.cfg)
	if err != nil {
		return nil, err
	}
	if a.Output == "" {
		a.Output = cfg.Output
	}
	if a.Output == "" {
		return nil, errors.New("output is required when no output directory is configured")
	}
	if a.ProjectName == "" {
		a.ProjectName = cfg.ProjectName
	}

	img, err := catalog.Describe(a.Path)
	if err != nil {
		return nil, err
	}
	proc, err := slicer.NewProcessor(cfg.Options(), s.logger, slicer.LogObserver{Logger: s.logger})
	if err != nil {
		return nil, err
	}
	res, err := proc.Process(ctx, img, a.Output)
	if res == nil {
		return nil, err
	}
	// Slices written before a failure get their final names too.
	files, rerr := slicer.Rename([]*slicer.Result{res}, slicer.NamePrefix(a.ProjectName, img.Dir))
	if err = errors.Join(err, rerr); err != nil {
		return nil, err
	}
	// A sliced scan is finished; drop the decode kept for tuning.
	s.cache.Evict(a.Path)

	return &sliceResult{
		Count:   res.Count,
		Skipped: res.Skipped,
		Files:   files,
	}, nil
}
