package mcp

import "github.com/mark3labs/mcp-go/mcp"

var boardShowToolDef = mcp.NewTool("board_show",
	mcp.WithDescription("Show the board: every bottle with its level, step and effective color, the settings, and the current mode."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var boardResetToolDef = mcp.NewTool("board_reset",
	mcp.WithDescription("Restore every bottle's level from the default dataset. Bottles not in the defaults go to 0. Allowed in any mode."),
	mcp.WithIdempotentHintAnnotation(true),
)

var boardExportToolDef = mcp.NewTool("board_export",
	mcp.WithDescription("Export the board as a JSON snapshot. Writes a file (default ~/.bottles/exports/bottles-export.json) or returns the text when text=true."),
	mcp.WithString("path", mcp.Description("Destination .json file")),
	mcp.WithBoolean("text", mcp.Description("Return the snapshot text instead of writing a file")),
)

var boardImportToolDef = mcp.NewTool("board_import",
	mcp.WithDescription("Replace the board with a snapshot and return to view mode. Give path or text, not both. A payload that is not a snapshot leaves the board unchanged and reports imported=false."),
	mcp.WithString("path", mcp.Description("Snapshot .json file to read")),
	mcp.WithString("text", mcp.Description("Snapshot JSON text")),
	mcp.WithDestructiveHintAnnotation(true),
)

var boardReportToolDef = mcp.NewTool("board_report",
	mcp.WithDescription("Write the board as an XLSX workbook (default ~/.bottles/exports/bottles-report.xlsx)."),
	mcp.WithString("path", mcp.Description("Destination .xlsx file")),
)

var bottleClickToolDef = mcp.NewTool("bottle_click",
	mcp.WithDescription("Move a bottle's level one division up (forward) or down (back), clamped to the level bounds. Ignored in edit mode and for unknown ids."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Bottle id")),
	mcp.WithString("direction", mcp.Enum("forward", "back"), mcp.Description("Default: forward")),
)

var bottleStepToolDef = mcp.NewTool("bottle_step",
	mcp.WithDescription("Adjust a bottle's level by whole divisions (edit mode)."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Bottle id")),
	mcp.WithNumber("delta", mcp.Required(), mcp.Description("Number of divisions, negative to lower")),
)

var bottleAddToolDef = mcp.NewTool("bottle_add",
	mcp.WithDescription("Append a new empty bottle with the default answer (edit mode). Returns the new bottle."),
)

var bottleRemoveToolDef = mcp.NewTool("bottle_remove",
	mcp.WithDescription("Remove a bottle (edit mode). Unknown ids are a no-op."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Bottle id")),
	mcp.WithDestructiveHintAnnotation(true),
)

var bottleUpdateToolDef = mcp.NewTool("bottle_update",
	mcp.WithDescription("Edit a bottle's answer, level or color (edit mode). Levels snap to the nearest division. A color equal to the global color, or use_global=true, removes the bottle's own color."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Bottle id")),
	mcp.WithString("answer", mcp.Description("New label")),
	mcp.WithNumber("level", mcp.Description("New level, 0-100")),
	mcp.WithString("color", mcp.Description("CSS color for this bottle")),
	mcp.WithBoolean("use_global", mcp.Description("Inherit the global color")),
)

var bottleReorderToolDef = mcp.NewTool("bottle_reorder",
	mcp.WithDescription("Move a bottle so it sits immediately before another (edit mode)."),
	mcp.WithString("dragged_id", mcp.Required(), mcp.Description("Bottle to move")),
	mcp.WithString("target_id", mcp.Required(), mcp.Description("Bottle to place it before")),
)

var bottleSelectToolDef = mcp.NewTool("bottle_select",
	mcp.WithDescription("Select a bottle for editing, or deselect it if already selected (edit mode)."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Bottle id")),
)

var modeToggleToolDef = mcp.NewTool("mode_toggle",
	mcp.WithDescription("Switch between view and edit mode. Fails with EDIT_DISABLED when the deployment ships without edit mode."),
)

var settingsUpdateToolDef = mcp.NewTool("settings_update",
	mcp.WithDescription("Change the number of divisions (minimum 2, every level re-snaps) and/or the global bottle color (edit mode)."),
	mcp.WithNumber("divisions", mcp.Description("Number of divisions")),
	mcp.WithString("global_color", mcp.Description("CSS color used by bottles without their own color")),
)
