// Package sheets reads and writes the admin XLSX exports.
package sheets

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrBadSheet = errors.New("sheets: unexpected file layout")

// RowError points at a bad cell in an imported file.
type RowError struct {
	Row    int
	Column string
	Value  string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("sheets: row %d: invalid %s %q", e.Row, e.Column, e.Value)
}

func writeTable(sheet string, header []any, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	def := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(def, sheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("sheets: header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return nil, fmt.Errorf("sheets: row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("sheets: write: %w", err)
	}
	return buf.Bytes(), nil
}

func readRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSheet, err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSheet, err)
	}
	return rows, nil
}

// rupees renders paisa as a number of rupees; zero stays empty.
func rupees(paisa int64) any {
	if paisa == 0 {
		return ""
	}
	return float64(paisa) / 100
}

// parsePaisa reads a rupee amount. An empty cell yields 0.
func parsePaisa(s string) (int64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return int64(math.Round(v * 100)), true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
