package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestXLSXSource_Load(t *testing.T) {
	workbook := newWorkbook(t, [][]any{
		{"id", "name", "price", "description"},
		{"1", "Sedan, Deluxe", "3200", `says "hi"`},
		{"2", "Morning", "900", "line one\nline two"},
	})

	got, err := NewXLSXSource(NewTestSource(workbook), "").Load(context.Background())
	require.NoError(t, err)

	want := "id,name,price,description\n" +
		"1,\"Sedan, Deluxe\",3200,\"says \"\"hi\"\"\"\n" +
		"2,Morning,900,line one line two\n"
	assert.Equal(t, want, string(got))
}

func TestXLSXSource_Errors(t *testing.T) {
	t.Run("inner source fails", func(t *testing.T) {
		_, err := NewXLSXSource(NewTestSourceWithError(), "").Load(context.Background())
		assert.Error(t, err)
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := NewXLSXSource(NewTestSource([]byte("id,name\n")), "").Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open workbook")
	})

	t.Run("unknown sheet", func(t *testing.T) {
		workbook := newWorkbook(t, [][]any{{"id"}})
		_, err := NewXLSXSource(NewTestSource(workbook), "Inventory").Load(context.Background())
		assert.Error(t, err)
	})
}

func TestQuoteCell(t *testing.T) {
	tests := map[string]string{
		"plain":         "plain",
		"a,b":           `"a,b"`,
		`say "x"`:       `"say ""x"""`,
		" padded ":      `" padded "`,
		"two\nlines":    "two lines",
		"":              "",
		"디젤":            "디젤",
	}
	for in, want := range tests {
		assert.Equal(t, want, quoteCell(in), "input %q", in)
	}
}
