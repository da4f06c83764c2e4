package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salespulse/internal/errors"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "already canonical",
			input:    "nombre_producto",
			expected: "nombre_producto",
		},
		{
			name:     "uppercase and padding",
			input:    "  Nombre Producto  ",
			expected: "nombre_producto",
		},
		{
			name:     "diacritics stripped",
			input:    "Categoría",
			expected: "categoria",
		},
		{
			name:     "symbols removed",
			input:    "Total ($)",
			expected: "total_",
		},
		{
			name:     "whitespace collapsed",
			input:    "forma   de    pago",
			expected: "forma_de_pago",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeKey(tt.input))
		})
	}
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{
			name:     "comma",
			header:   "fecha,producto,cantidad,total",
			expected: ",",
		},
		{
			name:     "semicolon",
			header:   "fecha;producto;cantidad;total",
			expected: ";",
		},
		{
			name:     "tab",
			header:   "fecha\tproducto\tcantidad\ttotal",
			expected: "\t",
		},
		{
			name:     "pipe",
			header:   "fecha|producto|cantidad|total",
			expected: "|",
		},
		{
			name:     "tie broken by candidate order",
			header:   "fecha",
			expected: ",",
		},
		{
			name:     "comma wins over stray semicolon",
			header:   "fecha,producto,nota;extra,total",
			expected: ",",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectDelimiter(tt.header))
		})
	}
}

func TestTokenize(t *testing.T) {
	t.Run("returns one record per data line with normalized keys", func(t *testing.T) {
		text := "Fecha,Nombre Producto,Cantidad,Total\n2024-01-15,Widget,10,100.00\n2024-02-01,Gadget,5,50.00\n"
		records, err := Tokenize(text)
		require.NoError(t, err)
		require.Len(t, records, 2)

		for _, rec := range records {
			assert.Len(t, rec, 4)
			assert.Contains(t, rec, "fecha")
			assert.Contains(t, rec, "nombre_producto")
			assert.Contains(t, rec, "cantidad")
			assert.Contains(t, rec, "total")
		}
		assert.Equal(t, "Widget", records[0]["nombre_producto"])
		assert.Equal(t, "50.00", records[1]["total"])
	})

	t.Run("strips byte order mark", func(t *testing.T) {
		records, err := Tokenize("\uFEFFfecha,producto,cantidad,total\n2024-01-15,W,1,2\n")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Contains(t, records[0], "fecha")
	})

	t.Run("discards blank lines", func(t *testing.T) {
		text := "fecha,producto,cantidad,total\n\n2024-01-15,W,1,2\n   \n2024-01-16,X,2,4\n\n"
		records, err := Tokenize(text)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("handles CRLF line endings", func(t *testing.T) {
		records, err := Tokenize("fecha,producto,cantidad,total\r\n2024-01-15,W,1,2\r\n")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "2024-01-15", records[0]["fecha"])
	})

	t.Run("pads short lines and ignores excess fields", func(t *testing.T) {
		text := "fecha,producto,cantidad,total\n2024-01-15,W\n2024-01-16,X,2,4,EXTRA,MORE\n"
		records, err := Tokenize(text)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, "", records[0]["cantidad"])
		assert.Equal(t, "", records[0]["total"])
		assert.Len(t, records[1], 4)
		assert.Equal(t, "4", records[1]["total"])
	})

	t.Run("trims cell values", func(t *testing.T) {
		records, err := Tokenize("fecha,producto,cantidad,total\n 2024-01-15 , Widget ,1,2\n")
		require.NoError(t, err)
		assert.Equal(t, "Widget", records[0]["producto"])
	})

	t.Run("empty input is a fatal condition", func(t *testing.T) {
		for _, text := range []string{"", "   \n\n  ", "fecha,producto,cantidad,total\n"} {
			_, err := Tokenize(text)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyInput))
		}
	})
}
