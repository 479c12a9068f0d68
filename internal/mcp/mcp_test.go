package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/config"
	"github.com/hpungsan/bottles/internal/db"
	"github.com/hpungsan/bottles/internal/errors"
	"github.com/hpungsan/bottles/internal/ops"
)

// testDefaults is the board every test database is seeded with.
func testDefaults() bottle.Collection {
	return bottle.Collection{
		Bottles: []bottle.Bottle{
			{ID: "b1", Answer: "Alpha", Level: 50},
			{ID: "b2", Answer: "Beta", Level: 25, Color: "#ef4444"},
			{ID: "b3", Answer: "Gamma", Level: 0},
		},
		Settings: bottle.Settings{Divisions: 4, MaxLevel: 100, MinLevel: 0, GlobalColor: "#3b82f6"},
	}
}

// testSetup creates a seeded temporary database and config for testing.
func testSetup(t *testing.T, editEnabled bool) (*sql.DB, *config.Config, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	if _, err := ops.Seed(context.Background(), database, ops.SeedInput{Defaults: testDefaults(), EditEnabled: editEnabled}); err != nil {
		t.Fatalf("failed to seed db: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	cleanup := func() {
		database.Close()
	}

	return database, cfg, cleanup
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// call invokes a handler and fails the test on a transport-level error.
func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := handler(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return result
}

// enterEdit switches the board into edit mode.
func enterEdit(t *testing.T, h *Handlers) {
	t.Helper()
	out := parseTransition(t, call(t, h.HandleToggleEdit, nil))
	if out.State.Mode != "edit" {
		t.Fatalf("mode = %s, want edit", out.State.Mode)
	}
}

func TestHandleShow(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	h := NewHandlers(database, cfg, testDefaults())

	var state ops.State
	parseInto(t, call(t, h.HandleShow, nil), &state)

	if len(state.Bottles) != 3 {
		t.Fatalf("len(bottles) = %d, want 3", len(state.Bottles))
	}
	if state.Bottles[0].Color != "#3b82f6" || state.Bottles[0].Override {
		t.Errorf("b1 color = %q override=%v, want inherited #3b82f6", state.Bottles[0].Color, state.Bottles[0].Override)
	}
	if state.Bottles[0].Step != 2 {
		t.Errorf("b1 step = %d, want 2", state.Bottles[0].Step)
	}
	if state.Mode != "view" {
		t.Errorf("mode = %s, want view", state.Mode)
	}

	result := call(t, h.HandleShow, map[string]any{"verbose": true})
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleClick(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	h := NewHandlers(database, cfg, testDefaults())

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
		wantLevel float64
		index     int
	}{
		{
			name:      "forward by default",
			args:      map[string]any{"id": "b1"},
			wantLevel: 75,
			index:     0,
		},
		{
			name:      "back",
			args:      map[string]any{"id": "b2", "direction": "back"},
			wantLevel: 0,
			index:     1,
		},
		{
			name:      "back at empty stays empty",
			args:      map[string]any{"id": "b3", "direction": "back"},
			wantLevel: 0,
			index:     2,
		},
		{
			name:      "missing id",
			args:      map[string]any{},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "invalid direction",
			args:      map[string]any{"id": "b1", "direction": "up"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "wrong argument type",
			args:      map[string]any{"id": 7},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := call(t, h.HandleClick, tt.args)

			if tt.wantError {
				if !result.IsError {
					t.Fatalf("expected error result, got success")
				}
				assertErrorCode(t, result, tt.errorCode)
				return
			}

			out := parseTransition(t, result)
			if got := out.State.Bottles[tt.index].Level; got != tt.wantLevel {
				t.Errorf("level = %v, want %v", got, tt.wantLevel)
			}
		})
	}
}

func TestHandleClick_UnknownID(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	h := NewHandlers(database, cfg, testDefaults())

	out := parseTransition(t, call(t, h.HandleClick, map[string]any{"id": "missing"}))
	if out.Changed {
		t.Error("click on unknown id should not change state")
	}
}

func TestEditTools_RequireEditMode(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	h := NewHandlers(database, cfg, testDefaults())

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
	}{
		{"bottle_step", h.HandleStep, map[string]any{"id": "b1", "delta": 1}},
		{"bottle_add", h.HandleAdd, nil},
		{"bottle_remove", h.HandleRemove, map[string]any{"id": "b1"}},
		{"bottle_update", h.HandleUpdate, map[string]any{"id": "b1", "answer": "x"}},
		{"bottle_reorder", h.HandleReorder, map[string]any{"dragged_id": "b2", "target_id": "b1"}},
		{"bottle_select", h.HandleSelect, map[string]any{"id": "b1"}},
		{"settings_update", h.HandleSettings, map[string]any{"divisions": 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := call(t, tt.handler, tt.args)
			if !result.IsError {
				t.Fatalf("expected error result, got success")
			}
			assertErrorCode(t, result, "EDIT_MODE_REQUIRED")
		})
	}
}

func TestHandleToggleEdit_Disabled(t *testing.T) {
	database, cfg, cleanup := testSetup(t, false)
	defer cleanup()

	h := NewHandlers(database, cfg, testDefaults())

	result := call(t, h.HandleToggleEdit, nil)
	if !result.IsError {
		t.Fatal("expected error result when editing is disabled")
	}
	assertErrorCode(t, result, "EDIT_DISABLED")
}

func TestEditWorkflow(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	h := NewHandlers(database, cfg, testDefaults())
	enterEdit(t, h)

	// Step
	out := parseTransition(t, call(t, h.HandleStep, map[string]any{"id": "b1", "delta": -2}))
	if out.State.Bottles[0].Level != 0 {
		t.Errorf("after step level = %v, want 0", out.State.Bottles[0].Level)
	}

	// Add
	var added ops.AddOutput
	parseInto(t, call(t, h.HandleAdd, nil), &added)
	if added.Bottle.ID == "" || added.Bottle.Answer != bottle.DefaultAnswer {
		t.Errorf("added bottle = %+v", added.Bottle)
	}
	if len(added.State.Bottles) != 4 {
		t.Fatalf("len(bottles) = %d, want 4", len(added.State.Bottles))
	}

	// Select and update
	out = parseTransition(t, call(t, h.HandleSelect, map[string]any{"id": added.Bottle.ID}))
	if out.State.EditingTarget != added.Bottle.ID {
		t.Errorf("editing target = %q, want %q", out.State.EditingTarget, added.Bottle.ID)
	}
	out = parseTransition(t, call(t, h.HandleUpdate, map[string]any{
		"id":     added.Bottle.ID,
		"answer": "Delta",
		"level":  60,
		"color":  "#10b981",
	}))
	last := out.State.Bottles[3]
	if last.Answer != "Delta" || last.Level != 50 || last.Color != "#10b981" || !last.Override {
		t.Errorf("updated bottle = %+v", last)
	}

	// use_global clears the override
	out = parseTransition(t, call(t, h.HandleUpdate, map[string]any{"id": added.Bottle.ID, "use_global": true}))
	if out.State.Bottles[3].Override {
		t.Error("use_global should clear the override")
	}

	// Reorder
	out = parseTransition(t, call(t, h.HandleReorder, map[string]any{"dragged_id": added.Bottle.ID, "target_id": "b1"}))
	if got := stateIDs(out.State); got[0] != added.Bottle.ID || got[1] != "b1" {
		t.Errorf("ids after reorder = %v", got)
	}

	// Remove the selected bottle
	out = parseTransition(t, call(t, h.HandleRemove, map[string]any{"id": added.Bottle.ID}))
	if len(out.State.Bottles) != 3 || out.State.EditingTarget != "" {
		t.Errorf("after remove: %d bottles, target %q", len(out.State.Bottles), out.State.EditingTarget)
	}

	// Settings
	out = parseTransition(t, call(t, h.HandleSettings, map[string]any{"divisions": 2, "global_color": "#000000"}))
	if out.State.Settings.Divisions != 2 || out.State.Settings.GlobalColor != "#000000" {
		t.Errorf("settings = %+v", out.State.Settings)
	}

	// Leave edit mode
	out = parseTransition(t, call(t, h.HandleToggleEdit, nil))
	if out.State.Mode != "view" {
		t.Errorf("mode = %s, want view", out.State.Mode)
	}
}

func TestHandleUpdate_Validation(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	h := NewHandlers(database, cfg, testDefaults())
	enterEdit(t, h)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"no fields", map[string]any{"id": "b1"}},
		{"color with use_global", map[string]any{"id": "b1", "color": "#fff", "use_global": true}},
		{"unknown field", map[string]any{"id": "b1", "colour": "#fff"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertErrorCode(t, call(t, h.HandleUpdate, tt.args), "INVALID_REQUEST")
		})
	}
}

func TestHandleSettings_NoFields(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	h := NewHandlers(database, cfg, testDefaults())
	enterEdit(t, h)

	assertErrorCode(t, call(t, h.HandleSettings, map[string]any{}), "INVALID_REQUEST")
}

func TestHandleReset(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	h := NewHandlers(database, cfg, testDefaults())

	call(t, h.HandleClick, map[string]any{"id": "b1"})
	call(t, h.HandleClick, map[string]any{"id": "b3"})

	out := parseTransition(t, call(t, h.HandleReset, nil))
	if !out.Changed {
		t.Error("reset should report a change")
	}
	want := []float64{50, 25, 0}
	for i, b := range out.State.Bottles {
		if b.Level != want[i] {
			t.Errorf("bottle %d level = %v, want %v", i, b.Level, want[i])
		}
	}
}

func TestHandleExportImport(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	h := NewHandlers(database, cfg, testDefaults())
	path := filepath.Join(t.TempDir(), "board.json")

	// Export to a file
	var exported ops.ExportOutput
	parseInto(t, call(t, h.HandleExport, map[string]any{"path": path}), &exported)
	if exported.Path != path || exported.Count != 3 {
		t.Errorf("export = %+v", exported)
	}

	// Change the board, then import the file back
	call(t, h.HandleClick, map[string]any{"id": "b1"})

	var imported ops.ImportOutput
	parseInto(t, call(t, h.HandleImport, map[string]any{"path": path}), &imported)
	if !imported.Imported {
		t.Fatal("expected import to succeed")
	}
	if imported.State.Bottles[0].Level != 50 {
		t.Errorf("level after import = %v, want 50", imported.State.Bottles[0].Level)
	}

	// Text export round-trips through text import
	var text ops.ExportTextOutput
	parseInto(t, call(t, h.HandleExport, map[string]any{"text": true}), &text)
	if text.Filename != bottle.ExportFilename {
		t.Errorf("filename = %q, want %q", text.Filename, bottle.ExportFilename)
	}
	parseInto(t, call(t, h.HandleImport, map[string]any{"text": text.Text}), &imported)
	if !imported.Imported {
		t.Error("expected text import to succeed")
	}

	// Path and text together are rejected
	assertErrorCode(t, call(t, h.HandleExport, map[string]any{"text": true, "path": path}), "INVALID_REQUEST")
	assertErrorCode(t, call(t, h.HandleImport, map[string]any{"text": "{}", "path": path}), "INVALID_REQUEST")
}

func TestHandleImport_Malformed(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	h := NewHandlers(database, cfg, testDefaults())

	for _, args := range []map[string]any{
		{"text": `{"settings": {}}`},
		{"text": ""},
		{},
	} {
		var imported ops.ImportOutput
		parseInto(t, call(t, h.HandleImport, args), &imported)
		if imported.Imported {
			t.Errorf("%v should not import", args)
		}
		if len(imported.State.Bottles) != 3 {
			t.Errorf("%v changed the board: %v", args, stateIDs(imported.State))
		}
	}

	result := call(t, h.HandleImport, map[string]any{"path": "x.json", "text": "{}"})
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleImport_FileNotFound(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	h := NewHandlers(database, cfg, testDefaults())

	result := call(t, h.HandleImport, map[string]any{"path": filepath.Join(t.TempDir(), "missing.json")})
	assertErrorCode(t, result, "FILE_NOT_FOUND")
}

func TestHandleReport(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	h := NewHandlers(database, cfg, testDefaults())
	path := filepath.Join(t.TempDir(), "board.xlsx")

	var report ops.ReportOutput
	parseInto(t, call(t, h.HandleReport, map[string]any{"path": path}), &report)
	if report.Rows != 3 {
		t.Errorf("rows = %d, want 3", report.Rows)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("report file not written: %v", err)
	}

	assertErrorCode(t, call(t, h.HandleReport, map[string]any{"path": filepath.Join(t.TempDir(), "board.csv")}), "INVALID_REQUEST")
}

func TestHandleShow_CancelledContext(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	h := NewHandlers(database, cfg, testDefaults())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := h.HandleShow(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "CANCELLED")
}

func TestServerRegistration(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	s := NewServer(database, cfg, testDefaults(), "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"board_show",
		"board_reset",
		"board_export",
		"board_import",
		"board_report",
		"bottle_click",
		"bottle_step",
		"bottle_add",
		"bottle_remove",
		"bottle_update",
		"bottle_reorder",
		"bottle_select",
		"mode_toggle",
		"settings_update",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}

	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	cfg.DisabledTools = []string{"board_import", "bottle_remove", "bottle_remove"}
	s := NewServer(database, cfg, testDefaults(), "test")
	tools := s.ListTools()

	// Duplicates are handled by the map lookup
	if len(tools) != len(toolRegistry)-2 {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(toolRegistry)-2)
	}

	for _, name := range []string{"board_import", "bottle_remove"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}

	for _, name := range []string{"board_show", "bottle_click"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("core tool %q should be registered", name)
		}
	}
}

func TestServerRegistration_WithDisabledTypes(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	cfg.DisabledTypes = []string{"bottle", "mode"}
	s := NewServer(database, cfg, testDefaults(), "test")
	tools := s.ListTools()

	for name := range tools {
		if typ := GetTypeForTool(name); typ == "bottle" || typ == "mode" {
			t.Errorf("tool %q of disabled type %q should not be registered", name, typ)
		}
	}
	if _, ok := tools["board_show"]; !ok {
		t.Error("board_show should still be registered")
	}
	if _, ok := tools["settings_update"]; !ok {
		t.Error("settings_update should still be registered")
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	database, cfg, cleanup := testSetup(t, true)
	defer cleanup()

	cfg.DisabledTools = AllToolNames()
	s := NewServer(database, cfg, testDefaults(), "test")

	if tools := s.ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"board_reset", "bottle_remove"}, 0},
		{"one unknown", []string{"board_reset", "fake_tool"}, 1},
		{"all unknown", []string{"foo", "bar", "baz"}, 3},
		{"empty list", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestValidateDisabledTypes(t *testing.T) {
	if unknown := ValidateDisabledTypes([]string{"board", "bottle", "mode", "settings"}); len(unknown) != 0 {
		t.Errorf("known types reported unknown: %v", unknown)
	}
	if unknown := ValidateDisabledTypes([]string{"widget"}); len(unknown) != 1 {
		t.Errorf("unknown = %v, want [widget]", unknown)
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()

	if len(names) != len(toolRegistry) {
		t.Errorf("AllToolNames() returned %d names, want %d", len(names), len(toolRegistry))
	}

	// Every tool belongs to a known type
	for _, name := range names {
		if unknown := ValidateDisabledTypes([]string{GetTypeForTool(name)}); len(unknown) != 0 {
			t.Errorf("tool %q has unknown type %q", name, GetTypeForTool(name))
		}
	}

	unknown := ValidateDisabledTools(names)
	if len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_PlainErrorIsInternal(t *testing.T) {
	r := errorResult(fmt.Errorf("disk on fire"))

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if errObj["message"] == "disk on fire" {
		t.Error("plain error text should not be exposed")
	}
}

func TestErrorResult_WrappedErrorPreservesCode(t *testing.T) {
	r := errorResult(fmt.Errorf("bottle_step: %w", errors.NewEditModeRequired("step")))

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrEditModeRequired) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrEditModeRequired)
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	r := errorResult(errors.NewNotFound("abc"))

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

// Helper functions

// parseInto extracts and unmarshals the JSON output from an MCP result.
func parseInto(t *testing.T, result *mcp.CallToolResult, v any) {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), v); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
}

func parseTransition(t *testing.T, result *mcp.CallToolResult) ops.TransitionOutput {
	t.Helper()
	var out ops.TransitionOutput
	parseInto(t, result, &out)
	return out
}

func stateIDs(s ops.State) []string {
	ids := make([]string, len(s.Bottles))
	for i, b := range s.Bottles {
		ids[i] = b.ID
	}
	return ids
}

func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in payload: %v", payload)
	}
	return errObj
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if !result.IsError {
		t.Errorf("expected error %s, got success: %s", expectedCode, extractErrorMessage(result))
		return
	}
	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	code, ok := errorObject(t, result)["code"].(string)
	if !ok {
		t.Errorf("no code in error object")
		return
	}

	if code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
