package dataprocessing

import (
	"io"

	"github.com/xuri/excelize/v2"

	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// TokenizeXLSX reads the first sheet of an xlsx workbook and feeds its rows
// through the same header normalization as the CSV path, so spreadsheets and
// CSV exports of the same data resolve to identical records.
func TokenizeXLSX(r io.Reader) ([]domain.RawRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.NewLoadError("failed to open xlsx workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewEmptyInputError()
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.NewParsingError("failed to read xlsx sheet", err)
	}

	// Drop fully blank rows the way the tokenizer drops blank lines.
	filtered := make([][]string, 0, len(rows))
	for _, row := range rows {
		empty := true
		for _, cell := range row {
			if cell != "" {
				empty = false
				break
			}
		}
		if !empty {
			filtered = append(filtered, row)
		}
	}

	return RecordsFromRows(filtered)
}
