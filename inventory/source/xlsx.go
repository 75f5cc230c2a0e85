package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXSource converts a workbook fetched from another Source into the comma-delimited
// text the loader expects. Cells spanning several lines are folded onto one line since
// the export is split on newlines.
type XLSXSource struct {
	inner Source
	sheet string
}

// NewXLSXSource wraps inner. An empty sheet selects the first sheet of the workbook.
func NewXLSXSource(inner Source, sheet string) *XLSXSource {
	return &XLSXSource{inner: inner, sheet: sheet}
}

func (x *XLSXSource) Load(ctx context.Context) ([]byte, error) {
	raw, err := x.inner.Load(ctx)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := x.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	var buf bytes.Buffer
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(quoteCell(cell))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

var lineFolder = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func quoteCell(cell string) string {
	cell = lineFolder.Replace(cell)
	if !strings.ContainsAny(cell, `,"`) && strings.TrimSpace(cell) == cell {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}
