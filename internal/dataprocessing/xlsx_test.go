package dataprocessing

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "salespulse/internal/errors"
)

func workbookBytes(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestTokenizeXLSX(t *testing.T) {
	t.Run("sheet rows resolve like CSV records", func(t *testing.T) {
		buf := workbookBytes(t, [][]interface{}{
			{"Fecha", "Nombre Producto", "Cantidad", "Total"},
			{"2024-01-15", "Widget", "10", "100.00"},
			{"2024-02-01", "Gadget", "5", "50.00"},
		})

		records, err := TokenizeXLSX(buf)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Widget", records[0]["nombre_producto"])
		assert.Equal(t, "50.00", records[1]["total"])

		cols, err := MapColumns(records[0])
		require.NoError(t, err)
		assert.Equal(t, "fecha", cols.Date)
		assert.Equal(t, "total", cols.Revenue)
	})

	t.Run("blank rows are discarded", func(t *testing.T) {
		buf := workbookBytes(t, [][]interface{}{
			{"fecha", "producto", "cantidad", "total"},
			{"", "", "", ""},
			{"2024-01-15", "Widget", "1", "2"},
		})
		records, err := TokenizeXLSX(buf)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("header-only workbook is empty input", func(t *testing.T) {
		buf := workbookBytes(t, [][]interface{}{
			{"fecha", "producto", "cantidad", "total"},
		})
		_, err := TokenizeXLSX(buf)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyInput))
	})

	t.Run("garbage bytes fail as a load error", func(t *testing.T) {
		_, err := TokenizeXLSX(bytes.NewBufferString("not a zip archive"))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLoad))
	})
}
