// Package bankfile parses bank statement exports (CSV and XLSX) into
// normalized rows. Chilean bank exports are messy: mixed encodings,
// semicolon delimiters, localized headers, thousand dots and comma
// decimals. The parser sniffs all of it instead of demanding a format.
package bankfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Row is one normalized statement line. Amount is always positive; Credit
// reports the sign of the source figure.
type Row struct {
	Date        time.Time
	Amount      decimal.Decimal
	Credit      bool
	Description string
	Reference   string
	RowNumber   int
}

var ErrNoHeader = errors.New("bankfile: no se encontró una fila de encabezado reconocible")

// column synonyms, lowercased. Date and amount are required; the rest are
// optional.
var (
	dateHeaders      = []string{"fecha", "date", "fecha operacion", "fecha operación", "f. operacion"}
	amountHeaders    = []string{"monto", "importe", "amount", "valor", "cargo/abono", "monto ($)"}
	descHeaders      = []string{"descripcion", "descripción", "description", "detalle", "glosa", "concepto"}
	referenceHeaders = []string{"referencia", "reference", "nro. documento", "documento", "n° operacion"}
)

var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"02.01.2006",
}

// Parse detects the file kind by name and returns the normalized rows.
func Parse(filename string, data []byte) ([]Row, error) {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") {
		return parseXLSX(data)
	}
	return parseCSV(data)
}

func parseCSV(data []byte) ([]Row, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed lines rather than aborting the import
		}
		records = append(records, record)
	}
	return normalize(records)
}

func parseXLSX(data []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return normalize(records)
}

// decodeText returns a UTF-8 string, falling back to Latin-1 and then
// Windows-1252 when the bytes are not valid UTF-8.
func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	if decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data); err == nil && utf8.Valid(decoded) {
		return string(decoded), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// sniffDelimiter counts candidates in the first 2KB.
func sniffDelimiter(text string) rune {
	sample := text
	if len(sample) > 2048 {
		sample = sample[:2048]
	}
	if strings.Count(sample, ";") > strings.Count(sample, ",") {
		return ';'
	}
	return ','
}

type headerMap struct {
	date, amount, desc, reference int
}

// findHeader scans the first 30 rows for a row containing a recognizable
// date column and amount column.
func findHeader(records [][]string) (int, headerMap, bool) {
	limit := len(records)
	if limit > 30 {
		limit = 30
	}
	for i := 0; i < limit; i++ {
		hm := headerMap{date: -1, amount: -1, desc: -1, reference: -1}
		for col, cell := range records[i] {
			name := strings.ToLower(strings.TrimSpace(cell))
			switch {
			case hm.date < 0 && matchesAny(name, dateHeaders):
				hm.date = col
			case hm.amount < 0 && matchesAny(name, amountHeaders):
				hm.amount = col
			case hm.desc < 0 && matchesAny(name, descHeaders):
				hm.desc = col
			case hm.reference < 0 && matchesAny(name, referenceHeaders):
				hm.reference = col
			}
		}
		if hm.date >= 0 && hm.amount >= 0 {
			return i, hm, true
		}
	}
	return 0, headerMap{}, false
}

func matchesAny(name string, candidates []string) bool {
	for _, c := range candidates {
		if name == c {
			return true
		}
	}
	return false
}

func normalize(records [][]string) ([]Row, error) {
	headerRow, hm, ok := findHeader(records)
	if !ok {
		return nil, ErrNoHeader
	}

	var rows []Row
	for i := headerRow + 1; i < len(records); i++ {
		record := records[i]
		if hm.date >= len(record) || hm.amount >= len(record) {
			continue
		}
		date, err := ParseDate(strings.TrimSpace(record[hm.date]))
		if err != nil {
			continue
		}
		amount, credit, err := ParseAmount(strings.TrimSpace(record[hm.amount]))
		if err != nil || amount.IsZero() {
			continue
		}

		row := Row{
			Date:      date,
			Amount:    amount,
			Credit:    credit,
			RowNumber: i + 1, // 1-based, as the user sees it in the file
		}
		if hm.desc >= 0 && hm.desc < len(record) {
			row.Description = strings.TrimSpace(record[hm.desc])
		}
		if hm.reference >= 0 && hm.reference < len(record) {
			row.Reference = strings.TrimSpace(record[hm.reference])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseDate tries the supported layouts in order.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("bankfile: fecha no reconocida: " + s)
}

// ParseAmount accepts "$1.234.567,89", "-1234.56", "1,234.56" and similar.
// It returns the absolute value and whether the figure was a credit
// (non-negative).
func ParseAmount(s string) (decimal.Decimal, bool, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return decimal.Zero, false, errors.New("bankfile: monto vacío")
	}

	negative := strings.HasPrefix(cleaned, "-") || (strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")"))
	cleaned = strings.Trim(cleaned, "-+()")

	// When both separators appear, the rightmost one is decimal. A lone
	// comma is a decimal comma; a lone dot followed by exactly three digits
	// is a thousand separator.
	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
		if strings.Count(cleaned, ".") > 1 {
			last := strings.LastIndex(cleaned, ".")
			cleaned = strings.ReplaceAll(cleaned[:last], ".", "") + cleaned[last:]
		}
	case lastDot >= 0:
		if len(cleaned)-lastDot-1 == 3 && strings.Count(cleaned, ".") >= 1 && len(cleaned) > 4 {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		} else if strings.Count(cleaned, ".") > 1 {
			last := strings.LastIndex(cleaned, ".")
			cleaned = strings.ReplaceAll(cleaned[:last], ".", "") + cleaned[last:]
		}
	}

	if _, err := strconv.ParseFloat(cleaned, 64); err != nil {
		return decimal.Zero, false, errors.New("bankfile: monto no reconocido: " + s)
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false, err
	}
	return amount.Abs(), !negative, nil
}
