package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

func sampleRecord(keys ...string) domain.RawRecord {
	rec := make(domain.RawRecord, len(keys))
	for _, k := range keys {
		rec[k] = "x"
	}
	return rec
}

func TestMapColumns(t *testing.T) {
	t.Run("resolves first matching alias per slot", func(t *testing.T) {
		rec := sampleRecord("fecha", "nombre_producto", "producto", "cantidad", "total", "metodo_pago", "categoria")
		cols, err := MapColumns(rec)
		require.NoError(t, err)

		// nombre_producto precedes producto in the alias list
		assert.Equal(t, "nombre_producto", cols.Product)
		assert.Equal(t, "cantidad", cols.Qty)
		assert.Equal(t, "total", cols.Revenue)
		assert.Equal(t, "fecha", cols.Date)
		assert.Equal(t, "metodo_pago", cols.Pay)
		assert.Equal(t, "categoria", cols.Category)
		assert.Empty(t, cols.Unit)
		assert.Empty(t, cols.Region)
		assert.Empty(t, cols.Country)
	})

	t.Run("is idempotent for the same sample", func(t *testing.T) {
		rec := sampleRecord("fecha", "producto", "unidades", "importe", "pais")
		first, err := MapColumns(rec)
		require.NoError(t, err)
		second, err := MapColumns(rec)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("accepts unit price in place of revenue", func(t *testing.T) {
		cols, err := MapColumns(sampleRecord("fecha", "producto", "cantidad", "precio_unitario"))
		require.NoError(t, err)
		assert.Empty(t, cols.Revenue)
		assert.Equal(t, "precio_unitario", cols.Unit)
	})

	t.Run("english aliases resolve", func(t *testing.T) {
		cols, err := MapColumns(sampleRecord("fecha", "item", "cant", "total", "country", "category"))
		require.NoError(t, err)
		assert.Equal(t, "item", cols.Product)
		assert.Equal(t, "country", cols.Country)
		assert.Equal(t, "category", cols.Category)
	})

	tests := []struct {
		name    string
		record  domain.RawRecord
		missing string
	}{
		{
			name:    "missing product",
			record:  sampleRecord("fecha", "cantidad", "total"),
			missing: "missing:product",
		},
		{
			name:    "missing qty",
			record:  sampleRecord("fecha", "producto", "total"),
			missing: "missing:qty",
		},
		{
			name:    "missing date",
			record:  sampleRecord("producto", "cantidad", "total"),
			missing: "missing:date",
		},
		{
			name:    "missing both revenue and unit",
			record:  sampleRecord("fecha", "producto", "cantidad"),
			missing: "missing:revenue-or-unit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapColumns(tt.record)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
			assert.Contains(t, err.Error(), tt.missing)

			// Same sample must fail with the same error kind every time.
			_, again := MapColumns(tt.record)
			assert.Equal(t, err.Error(), again.Error())
		})
	}
}
