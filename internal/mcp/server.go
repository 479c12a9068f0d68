package mcp

import (
	"context"
	"database/sql"
	"maps"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/config"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"board", "bottle", "mode", "settings"}

// toolHandler is a Handlers method as a method expression.
type toolHandler func(*Handlers, context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// toolEntry pairs a tool definition with the method that serves it.
type toolEntry struct {
	def     mcp.Tool
	handler toolHandler
}

// bind returns the entry's handler closed over h.
func (e toolEntry) bind(h *Handlers) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return e.handler(h, ctx, req)
	}
}

// toolRegistry maps tool names to their definitions and handlers.
var toolRegistry = map[string]toolEntry{
	"board_show":      {boardShowToolDef, (*Handlers).HandleShow},
	"board_reset":     {boardResetToolDef, (*Handlers).HandleReset},
	"board_export":    {boardExportToolDef, (*Handlers).HandleExport},
	"board_import":    {boardImportToolDef, (*Handlers).HandleImport},
	"board_report":    {boardReportToolDef, (*Handlers).HandleReport},
	"bottle_click":    {bottleClickToolDef, (*Handlers).HandleClick},
	"bottle_step":     {bottleStepToolDef, (*Handlers).HandleStep},
	"bottle_add":      {bottleAddToolDef, (*Handlers).HandleAdd},
	"bottle_remove":   {bottleRemoveToolDef, (*Handlers).HandleRemove},
	"bottle_update":   {bottleUpdateToolDef, (*Handlers).HandleUpdate},
	"bottle_reorder":  {bottleReorderToolDef, (*Handlers).HandleReorder},
	"bottle_select":   {bottleSelectToolDef, (*Handlers).HandleSelect},
	"mode_toggle":     {modeToggleToolDef, (*Handlers).HandleToggleEdit},
	"settings_update": {settingsUpdateToolDef, (*Handlers).HandleSettings},
}

// AllToolNames returns every tool name, sorted.
func AllToolNames() []string {
	return slices.Sorted(maps.Keys(toolRegistry))
}

// ValidateDisabledTools returns the names that match no tool.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns the names that are not in KnownTypes.
func ValidateDisabledTypes(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if !slices.Contains(KnownTypes, name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "bottle_click" → "bottle").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	tools := make([]string, 0)
	for _, name := range AllToolNames() {
		if slices.Contains(types, GetTypeForTool(name)) {
			tools = append(tools, name)
		}
	}
	return tools
}

// enabledTools returns the registry minus cfg.DisabledTools and every tool
// of cfg.DisabledTypes.
func enabledTools(cfg *config.Config) map[string]toolEntry {
	disabled := append(ExpandTypesToTools(cfg.DisabledTypes), cfg.DisabledTools...)
	enabled := maps.Clone(toolRegistry)
	for _, name := range disabled {
		delete(enabled, name)
	}
	return enabled
}

// NewServer creates an MCP server exposing the enabled board tools.
func NewServer(db *sql.DB, cfg *config.Config, defaults bottle.Collection, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"bottles",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg, defaults)
	for _, entry := range enabledTools(cfg) {
		s.AddTool(entry.def, entry.bind(h))
	}
	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, defaults bottle.Collection, version string) error {
	s := NewServer(db, cfg, defaults, version)
	return server.ServeStdio(s)
}
