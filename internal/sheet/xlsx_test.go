package sheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	err := f.Save(path)
	require.NoError(t, err)
	return path
}

func TestRead_Basic(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Lord ID", "Name", "Power"},
			{"1001", "Alice", "15000000"},
			{"1002", "Bob", "9000000"},
		},
	})

	rows, err := Read(path, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Lord ID", "Name", "Power"}, rows[0])
	assert.Equal(t, []string{"1001", "Alice", "15000000"}, rows[1])
}

func TestRead_SkipRows(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Header1", "Header2"},
			{"a", "b"},
			{"c", "d"},
		},
	})

	rows, err := Read(path, Options{SkipRows: 1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, rows[0])
}

func TestRead_SheetByName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Ignore":  {{"x"}},
		"Players": {{"1001", "Alice"}},
	})

	rows, err := Read(path, Options{SheetName: "Players"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0][1])
}

func TestRead_SheetNameNotFound(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}}})

	_, err := Read(path, Options{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRead_SheetIndexOutOfRange(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}}})

	_, err := Read(path, Options{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestRead_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0644))

	_, err := Read(path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open file")
}

func TestReadBytes(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"header"}, {"1001"}},
	})
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	rows, err := ReadBytes(data, Options{SkipRows: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1001", rows[0][0])
}
