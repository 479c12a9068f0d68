package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/config"
	"github.com/hpungsan/bottles/internal/errors"
	"github.com/hpungsan/bottles/internal/ops"
	"github.com/hpungsan/bottles/internal/web"
)

// newCLIApp creates the CLI application with all commands. defaults is the
// dataset reset restores levels from.
func newCLIApp(db *sql.DB, cfg *config.Config, defaults bottle.Collection) *cli.App {
	app := &cli.App{
		Name:    "bottles",
		Usage:   "Fill-level answer board",
		Version: Version,
		Commands: []*cli.Command{
			showCmd(db),
			clickCmd(db),
			stepCmd(db),
			addCmd(db),
			removeCmd(db),
			updateCmd(db),
			moveCmd(db),
			selectCmd(db),
			editCmd(db),
			settingsCmd(db),
			resetCmd(db, defaults),
			exportCmd(db, cfg),
			importCmd(db, cfg),
			reportCmd(db, cfg),
			serveCmd(db, cfg, defaults),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// showCmd creates the show command.
func showCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print the board state",
		Action: func(c *cli.Context) error {
			output, err := ops.Show(c.Context, db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// clickCmd creates the click command.
func clickCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "click",
		Usage:     "Move a bottle's level one division (view mode)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "back", Aliases: []string{"b"}, Usage: "Move down instead of up"},
		},
		Action: func(c *cli.Context) error {
			dir := bottle.Forward
			if c.Bool("back") {
				dir = bottle.Back
			}
			output, err := ops.Click(c.Context, db, ops.ClickInput{
				ID:        c.Args().First(),
				Direction: dir,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// stepCmd creates the step command.
func stepCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "step",
		Usage:     "Adjust a bottle's level by whole divisions (edit mode)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "delta", Aliases: []string{"d"}, Value: 1, Usage: "Divisions to move, negative for down"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Step(c.Context, db, ops.StepInput{
				ID:    c.Args().First(),
				Delta: c.Int("delta"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// addCmd creates the add command.
func addCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Append a new empty bottle (edit mode)",
		Action: func(c *cli.Context) error {
			output, err := ops.Add(c.Context, db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// removeCmd creates the remove command.
func removeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove a bottle (edit mode)",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Remove(c.Context, db, ops.RemoveInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Edit a bottle's label, level or color (edit mode)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "answer", Aliases: []string{"a"}, Usage: "New label"},
			&cli.Float64Flag{Name: "level", Aliases: []string{"l"}, Usage: "New level (0-100, snapped to a division)"},
			&cli.StringFlag{Name: "color", Aliases: []string{"c"}, Usage: "Color override (hex)"},
			&cli.BoolFlag{Name: "use-global", Usage: "Clear the color override"},
		},
		Action: func(c *cli.Context) error {
			input := ops.UpdateInput{ID: c.Args().First()}

			if c.IsSet("answer") {
				answer := c.String("answer")
				input.Answer = &answer
			}
			if c.IsSet("level") {
				level := c.Float64("level")
				input.Level = &level
			}
			if c.Bool("use-global") {
				if c.IsSet("color") {
					return outputError(errors.NewInvalidRequest("--color and --use-global are mutually exclusive"))
				}
				color := bottle.UseGlobal
				input.Color = &color
			} else if c.IsSet("color") {
				color := c.String("color")
				input.Color = &color
			}

			output, err := ops.Update(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// moveCmd creates the move command.
func moveCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "move",
		Usage:     "Move a bottle to another bottle's position (edit mode)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "before", Aliases: []string{"t", "to"}, Required: true, Usage: "Id of the bottle whose position to take"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Reorder(c.Context, db, ops.ReorderInput{
				DraggedID: c.Args().First(),
				TargetID:  c.String("before"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// selectCmd creates the select command.
func selectCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "select",
		Usage:     "Toggle the editing target (edit mode)",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Select(c.Context, db, ops.SelectInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// editCmd creates the edit command.
func editCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "edit",
		Usage: "Toggle between view and edit mode",
		Action: func(c *cli.Context) error {
			output, err := ops.ToggleEdit(c.Context, db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// settingsCmd creates the settings command.
func settingsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Change divisions or the global color (edit mode)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "divisions", Aliases: []string{"d"}, Usage: "Number of divisions per bottle"},
			&cli.StringFlag{Name: "color", Aliases: []string{"c"}, Usage: "Global fill color (hex)"},
		},
		Action: func(c *cli.Context) error {
			var input ops.UpdateSettingsInput
			if c.IsSet("divisions") {
				d := c.Int("divisions")
				input.Divisions = &d
			}
			if c.IsSet("color") {
				color := c.String("color")
				input.GlobalColor = &color
			}

			output, err := ops.UpdateSettings(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// resetCmd creates the reset command.
func resetCmd(db *sql.DB, defaults bottle.Collection) *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Restore every bottle's default level",
		Action: func(c *cli.Context) error {
			output, err := ops.Reset(c.Context, db, ops.ResetInput{Defaults: defaults})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Save the board as a JSON snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.bottles/exports/" + bottle.ExportFilename + ")"},
			&cli.BoolFlag{Name: "stdout", Usage: "Write the snapshot to stdout instead of a file"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("stdout") {
				if c.IsSet("path") {
					return outputError(errors.NewInvalidRequest("--path and --stdout are mutually exclusive"))
				}
				output, err := ops.ExportText(c.Context, db)
				if err != nil {
					return outputError(err)
				}
				_, err = io.WriteString(os.Stdout, output.Text)
				return err
			}

			output, err := ops.Export(c.Context, db, cfg, ops.ExportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Replace the board with a JSON snapshot (file or stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Snapshot file path (omit to read stdin)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ImportInput{Path: c.String("path")}
			if input.Path == "" {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("provide --path or pipe a snapshot via stdin"))
				}
				text, err := readStdin(ops.MaxImportBytes)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.Text = text
			}

			output, err := ops.Import(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// reportCmd creates the report command.
func reportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Write the board as an XLSX workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Workbook path (default: ~/.bottles/exports/" + ops.ReportFilename + ")"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Report(c.Context, db, cfg, ops.ReportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config, defaults bottle.Collection) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to listen on (overrides web_bind)"},
			&cli.IntFlag{Name: "port", Usage: "Port to listen on (overrides web_port)"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("bind") {
				cfg.WebBind = c.String("bind")
			}
			if c.IsSet("port") {
				cfg.WebPort = c.Int("port")
			}
			if err := config.Validate(cfg); err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			return web.Run(web.NewServer(db, cfg, defaults, Version))
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if bErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", bErr.Code, bErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin, failing if it exceeds limit bytes.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("input exceeds maximum size of %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}
