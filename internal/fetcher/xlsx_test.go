package fetcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestReadXLSX_Basic(t *testing.T) {
	data := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"title", "phone", "review_count"},
			{"Warsztat Nowak", "", "3"},
			{"", "", ""},
			{"Bistro Ola", "500600700"},
		},
	})

	set, err := ReadXLSX(data, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "phone", "review_count"}, set.Columns)
	require.Len(t, set.Records, 2)
	assert.Equal(t, Record{"title": "Warsztat Nowak", "review_count": "3"}, set.Records[0])
	assert.Equal(t, Record{"title": "Bistro Ola", "phone": "500600700"}, set.Records[1])
}

func TestReadXLSX_SheetSelection(t *testing.T) {
	data := createTestXLSX(t, map[string][][]string{
		"Leads": {{"title"}, {"A"}},
	})

	set, err := ReadXLSX(data, XLSXOptions{SheetName: "Leads"})
	require.NoError(t, err)
	assert.Len(t, set.Records, 1)

	_, err = ReadXLSX(data, XLSXOptions{SheetName: "Missing"})
	assert.Error(t, err)

	_, err = ReadXLSX(data, XLSXOptions{SheetIndex: 3})
	assert.Error(t, err)
}

func TestReadXLSX_Invalid(t *testing.T) {
	_, err := ReadXLSX([]byte("not a workbook"), XLSXOptions{})
	assert.Error(t, err)
}
