package dataprocessing

import (
	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// columnAliases is the declarative alias table: for each semantic slot, the
// ordered list of header names (Spanish/English, with and without diacritics)
// that may carry it. Aliases run through NormalizeKey before matching, so the
// accented variants resolve to the same canonical keys as the plain ones.
var columnAliases = map[string][]string{
	"product": {
		"nombre_producto", "producto", "nombre", "item", "articulo", "artículo",
	},
	"qty": {
		"cantidad", "unidades", "cantidad_vendida", "cant", "unidades_vendidas",
	},
	"revenue": {
		"total", "ingresos", "monto_total", "importe", "total_venta", "venta_total",
		"total_clp", "total_$", "total_con_iva", "total_sin_iva", "total_bruto", "total_neto",
	},
	"unit": {
		"precio_unitario", "precio", "valor_unitario", "pu",
	},
	"date": {
		"fecha", "fecha_venta", "dia", "día",
	},
	"pay": {
		"metodo_pago", "metodo", "pago", "forma_de_pago", "tipo_pago",
	},
	"region": {
		"region", "región", "estado", "departamento",
	},
	"country": {
		"pais", "país", "country",
	},
	"category": {
		"categoria", "categoría", "category", "subcategoria", "subcategoría",
	},
}

// firstExistingKey returns the first alias whose normalized form is a key of
// the sample record, or "" when none matches.
func firstExistingKey(sample domain.RawRecord, candidates []string) string {
	for _, c := range candidates {
		key := NormalizeKey(c)
		if _, ok := sample[key]; ok {
			return key
		}
	}
	return ""
}

// MapColumns resolves the semantic column map from the first record of a
// dataset. Product, qty and date are required; at least one of revenue or
// unit price must be present so revenue can be taken or derived. All other
// slots are optional and degrade downstream.
func MapColumns(sample domain.RawRecord) (domain.ColumnMap, error) {
	cols := domain.ColumnMap{
		Product:  firstExistingKey(sample, columnAliases["product"]),
		Qty:      firstExistingKey(sample, columnAliases["qty"]),
		Revenue:  firstExistingKey(sample, columnAliases["revenue"]),
		Unit:     firstExistingKey(sample, columnAliases["unit"]),
		Date:     firstExistingKey(sample, columnAliases["date"]),
		Pay:      firstExistingKey(sample, columnAliases["pay"]),
		Region:   firstExistingKey(sample, columnAliases["region"]),
		Country:  firstExistingKey(sample, columnAliases["country"]),
		Category: firstExistingKey(sample, columnAliases["category"]),
	}

	for _, required := range []struct {
		name string
		key  string
	}{
		{"product", cols.Product},
		{"qty", cols.Qty},
		{"date", cols.Date},
	} {
		if required.key == "" {
			return domain.ColumnMap{}, errors.NewSchemaError(required.name)
		}
	}
	if cols.Revenue == "" && cols.Unit == "" {
		return domain.ColumnMap{}, errors.NewSchemaError("revenue-or-unit")
	}
	return cols, nil
}
