package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/config"
	"github.com/hpungsan/bottles/internal/errors"
	"github.com/hpungsan/bottles/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	defaults bottle.Collection
}

// NewHandlers creates a new Handlers instance. defaults is the dataset that
// board_reset restores levels from.
func NewHandlers(db *sql.DB, cfg *config.Config, defaults bottle.Collection) *Handlers {
	return &Handlers{db: db, cfg: cfg, defaults: defaults}
}

// Request types for each tool

// EmptyRequest is used by tools that take no arguments.
type EmptyRequest struct{}

// BottleRequest identifies a single bottle.
type BottleRequest struct {
	ID string `json:"id"`
}

// ClickRequest represents the arguments for bottle_click.
type ClickRequest struct {
	ID        string `json:"id"`
	Direction string `json:"direction,omitempty"`
}

// StepRequest represents the arguments for bottle_step.
type StepRequest struct {
	ID    string `json:"id"`
	Delta int    `json:"delta"`
}

// UpdateRequest represents the arguments for bottle_update.
type UpdateRequest struct {
	ID        string   `json:"id"`
	Answer    *string  `json:"answer,omitempty"`
	Level     *float64 `json:"level,omitempty"`
	Color     *string  `json:"color,omitempty"`
	UseGlobal bool     `json:"use_global,omitempty"`
}

// ReorderRequest represents the arguments for bottle_reorder.
type ReorderRequest struct {
	DraggedID string `json:"dragged_id"`
	TargetID  string `json:"target_id"`
}

// SettingsRequest represents the arguments for settings_update.
type SettingsRequest struct {
	Divisions   *int    `json:"divisions,omitempty"`
	GlobalColor *string `json:"global_color,omitempty"`
}

// ExportRequest represents the arguments for board_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
	Text bool   `json:"text,omitempty"`
}

// ImportRequest represents the arguments for board_import.
type ImportRequest struct {
	Path string `json:"path,omitempty"`
	Text string `json:"text,omitempty"`
}

// ReportRequest represents the arguments for board_report.
type ReportRequest struct {
	Path string `json:"path,omitempty"`
}

// Handler implementations

// HandleShow handles the board_show tool call.
func (h *Handlers) HandleShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := decode[EmptyRequest](req); err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Show(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReset handles the board_reset tool call.
func (h *Handlers) HandleReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := decode[EmptyRequest](req); err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Reset(ctx, h.db, ops.ResetInput{Defaults: h.defaults})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the board_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.Text {
		if input.Path != "" {
			return errorResult(errors.NewInvalidRequest("path and text are mutually exclusive")), nil
		}
		result, err := ops.ExportText(ctx, h.db)
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(result)
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the board_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{
		Path: input.Path,
		Text: input.Text,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReport handles the board_report tool call.
func (h *Handlers) HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Report(ctx, h.db, h.cfg, ops.ReportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleClick handles the bottle_click tool call.
func (h *Handlers) HandleClick(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClickRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Click(ctx, h.db, ops.ClickInput{
		ID:        input.ID,
		Direction: bottle.Direction(input.Direction),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStep handles the bottle_step tool call.
func (h *Handlers) HandleStep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StepRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Step(ctx, h.db, ops.StepInput{ID: input.ID, Delta: input.Delta})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleAdd handles the bottle_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := decode[EmptyRequest](req); err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Add(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRemove handles the bottle_remove tool call.
func (h *Handlers) HandleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BottleRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Remove(ctx, h.db, ops.RemoveInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the bottle_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	color := input.Color
	if input.UseGlobal {
		if color != nil {
			return errorResult(errors.NewInvalidRequest("color and use_global are mutually exclusive")), nil
		}
		useGlobal := bottle.UseGlobal
		color = &useGlobal
	}

	result, err := ops.Update(ctx, h.db, ops.UpdateInput{
		ID:     input.ID,
		Answer: input.Answer,
		Level:  input.Level,
		Color:  color,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReorder handles the bottle_reorder tool call.
func (h *Handlers) HandleReorder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReorderRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Reorder(ctx, h.db, ops.ReorderInput{
		DraggedID: input.DraggedID,
		TargetID:  input.TargetID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSelect handles the bottle_select tool call.
func (h *Handlers) HandleSelect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BottleRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Select(ctx, h.db, ops.SelectInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleToggleEdit handles the mode_toggle tool call.
func (h *Handlers) HandleToggleEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := decode[EmptyRequest](req); err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ToggleEdit(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSettings handles the settings_update tool call.
func (h *Handlers) HandleSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SettingsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.UpdateSettings(ctx, h.db, ops.UpdateSettingsInput{
		Divisions:   input.Divisions,
		GlobalColor: input.GlobalColor,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if bErr, ok := errors.As(err); ok && bErr.Code != errors.ErrInternal {
		errorObj := map[string]any{
			"code":    bErr.Code,
			"message": bErr.Message,
			"status":  bErr.Status,
		}
		if bErr.Details != nil {
			errorObj["details"] = bErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
