package dataprocessing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// delimiterCandidates are tried in order against the header line; the first
// candidate yielding the most fields wins, so comma beats semicolon on ties.
var delimiterCandidates = []string{",", ";", "\t", "|"}

// stripMarks removes combining marks after NFD decomposition, turning
// "categoría" into "categoria".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeKey produces the canonical form of a column header: trimmed,
// lowercased, diacritics stripped, everything outside [a-z0-9_ ] removed,
// and whitespace runs collapsed to a single underscore.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case r == ' ':
			space = true
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			if space {
				b.WriteByte('_')
				space = false
			}
			b.WriteRune(r)
		}
	}
	if space {
		b.WriteByte('_')
	}
	return b.String()
}

// DetectDelimiter picks the delimiter that splits the header line into the
// most fields.
func DetectDelimiter(headerLine string) string {
	best := delimiterCandidates[0]
	max := 0
	for _, d := range delimiterCandidates {
		if n := len(strings.Split(headerLine, d)); n > max {
			max = n
			best = d
		}
	}
	return best
}

// Tokenize parses raw CSV text into header-keyed records. The byte-order mark
// is stripped, blank lines are discarded, and the delimiter is detected from
// the header line. Lines shorter than the header are padded with empty
// strings; excess fields are ignored. Zero data lines is a fatal condition,
// never a silently empty dataset.
func Tokenize(text string) ([]domain.RawRecord, error) {
	text = strings.TrimPrefix(text, "\uFEFF")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil, errors.NewEmptyInputError()
	}

	delim := DetectDelimiter(lines[0])

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, strings.Split(line, delim))
	}
	return RecordsFromRows(rows)
}

// RecordsFromRows builds records from pre-split rows, the first row being the
// header. It is the shared tail of the CSV and XLSX ingestion paths.
func RecordsFromRows(rows [][]string) ([]domain.RawRecord, error) {
	if len(rows) < 2 {
		return nil, errors.NewEmptyInputError()
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = NormalizeKey(h)
	}

	records := make([]domain.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(domain.RawRecord, len(headers))
		for j, key := range headers {
			if j < len(row) {
				record[key] = strings.TrimSpace(row[j])
			} else {
				record[key] = ""
			}
		}
		records = append(records, record)
	}
	return records, nil
}
