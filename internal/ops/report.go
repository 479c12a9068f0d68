package ops

import (
	"context"
	"database/sql"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/hpungsan/bottles/internal/config"
	"github.com/hpungsan/bottles/internal/errors"
)

// ReportFilename is the default XLSX report name.
const ReportFilename = "bottles-report.xlsx"

// Report sheet names
const (
	ReportSheetBoard    = "Board"
	ReportSheetSettings = "Settings"
)

// ReportInput contains parameters for the Report operation.
type ReportInput struct {
	Path string // optional, default: ~/.bottles/exports/bottles-report.xlsx
}

// ReportOutput contains the result of the Report operation.
type ReportOutput struct {
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// Report writes the current board as an XLSX workbook.
func Report(ctx context.Context, database *sql.DB, cfg *config.Config, input ReportInput) (*ReportOutput, error) {
	reportPath, err := ResolvePath(input.Path, ReportOut, cfg)
	if err != nil {
		return nil, err
	}

	state, err := Show(ctx, database)
	if err != nil {
		return nil, err
	}

	err = writeFileAtomic(reportPath, ReportOut, func(w io.Writer) error {
		return WriteReport(w, *state)
	})
	if err != nil {
		return nil, err
	}

	return &ReportOutput{Path: reportPath, Rows: len(state.Bottles)}, nil
}

// ReportTo streams the current board as XLSX, for downloads.
func ReportTo(ctx context.Context, database *sql.DB, w io.Writer) error {
	state, err := Show(ctx, database)
	if err != nil {
		return err
	}
	if err := WriteReport(w, *state); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// WriteReport renders a state as a workbook with a Board sheet (one row per
// bottle in display order) and a Settings sheet.
func WriteReport(w io.Writer, state State) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReportSheetBoard); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(ReportSheetBoard)
	if err != nil {
		return err
	}
	header := []interface{}{"position", "id", "answer", "level", "step", "color", "color_override"}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, b := range state.Bottles {
		row := []interface{}{i + 1, b.ID, b.Answer, b.Level, b.Step, b.Color, b.Override}
		cellAddr, _ := excelize.CoordinatesToCellName(1, i+2) // A2, A3, ...
		if err := sw.SetRow(cellAddr, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	if _, err := f.NewSheet(ReportSheetSettings); err != nil {
		return err
	}
	settings := [][]interface{}{
		{"divisions", state.Settings.Divisions},
		{"minLevel", state.Settings.MinLevel},
		{"maxLevel", state.Settings.MaxLevel},
		{"globalColor", state.Settings.GlobalColor},
		{"mode", string(state.Mode)},
	}
	for i, row := range settings {
		cellAddr, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(ReportSheetSettings, cellAddr, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}
