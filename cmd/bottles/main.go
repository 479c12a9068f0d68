package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/config"
	"github.com/hpungsan/bottles/internal/db"
	"github.com/hpungsan/bottles/internal/logger"
	"github.com/hpungsan/bottles/internal/mcp"
	"github.com/hpungsan/bottles/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"show": true, "click": true, "step": true, "add": true, "remove": true,
	"update": true, "move": true, "select": true, "edit": true,
	"settings": true, "reset": true,
	"export": true, "import": true, "report": true,
	"serve": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _           _   _   _
  | |__   ___ | |_| |_| | ___  ___
  | '_ \ / _ \| __| __| |/ _ \/ __|
  | |_) | (_) | |_| |_| |  __/\__ \
  |_.__/ \___/ \__|\__|_|\___||___/

  Fill-level answer board

  Usage: bottles <command> [options]
         bottles serve      (web UI)
         bottles --help

  MCP server mode requires piped input.`)
}

// loadDefaults resolves the dataset the board is seeded and reset from.
// The config's edit_enabled, when set, overrides the dataset's editMode.
func loadDefaults(cfg *config.Config) (bottle.Defaults, error) {
	defaults, err := bottle.LoadDefaults(cfg.DefaultsPath)
	if err != nil {
		return bottle.Defaults{}, err
	}
	if cfg.EditEnabled != nil {
		defaults.EditEnabled = *cfg.EditEnabled
	}
	return defaults, nil
}

// warnUnknownDisabled logs disabled tool and type names that match nothing.
func warnUnknownDisabled(cfg *config.Config) {
	for _, name := range mcp.ValidateDisabledTools(cfg.DisabledTools) {
		slog.Warn("unknown tool in disabled_tools", "tool", name)
	}
	for _, name := range mcp.ValidateDisabledTypes(cfg.DisabledTypes) {
		slog.Warn("unknown type in disabled_types", "type", name)
	}
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, bottle.Collection{})
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	baseDir, err := ops.BaseDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	workDir, err := os.Getwd()
	if err != nil {
		workDir = filepath.Dir(baseDir)
	}

	cfg, err := config.LoadWithRepo(baseDir, workDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "bottles",
		Version: Version,
	})
	warnUnknownDisabled(cfg)

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	defaults, err := loadDefaults(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load defaults: %v\n", err)
		os.Exit(1)
	}

	seeded, err := ops.Seed(context.Background(), database, ops.SeedInput{
		Defaults:    defaults.Collection,
		EditEnabled: defaults.EditEnabled,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to seed board: %v\n", err)
		os.Exit(1)
	}
	if seeded.Seeded {
		slog.Info("board seeded from defaults", "bottles", len(seeded.State.Bottles))
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(database, cfg, defaults.Collection)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'bottles --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(database, cfg, defaults.Collection, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
