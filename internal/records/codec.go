package records

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/estate-cli/internal/model"
)

// required columns; city and source may be absent in operator-supplied sheets.
var requiredColumns = []string{
	"locality", "property_type", "bedrooms", "area_sqft",
	"price_per_sqft", "price_total", "transaction_date",
}

var dateLayouts = []string{
	model.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02-01-2006",
}

type columnIndex map[string]int

func indexHeader(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, eris.Errorf("records: missing column %q", col)
		}
	}
	return idx, nil
}

func (c columnIndex) get(row []string, col string) string {
	i, ok := c[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func decodeRow(idx columnIndex, row []string) (model.PropertyRecord, error) {
	var rec model.PropertyRecord
	var err error

	rec.City = idx.get(row, "city")
	rec.Locality = idx.get(row, "locality")
	rec.PropertyType = idx.get(row, "property_type")
	rec.Source = idx.get(row, "source")

	if rec.Bedrooms, err = parseInt(idx.get(row, "bedrooms")); err != nil {
		return rec, eris.Wrap(err, "bedrooms")
	}
	if rec.AreaSqft, err = parseFloat(idx.get(row, "area_sqft")); err != nil {
		return rec, eris.Wrap(err, "area_sqft")
	}
	if rec.PricePerSqft, err = parseFloat(idx.get(row, "price_per_sqft")); err != nil {
		return rec, eris.Wrap(err, "price_per_sqft")
	}
	if rec.PriceTotal, err = parseFloat(idx.get(row, "price_total")); err != nil {
		return rec, eris.Wrap(err, "price_total")
	}
	if rec.TransactionDate, err = parseDate(idx.get(row, "transaction_date")); err != nil {
		return rec, eris.Wrap(err, "transaction_date")
	}
	return rec, nil
}

func parseFloat(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}

// parseInt accepts "2" and "2.0".
func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, eris.Errorf("records: unrecognised date %q", s)
}

func encodeRow(r model.PropertyRecord) []string {
	return []string{
		r.City,
		r.Locality,
		r.PropertyType,
		strconv.Itoa(r.Bedrooms),
		formatFloat(r.AreaSqft),
		formatFloat(r.PricePerSqft),
		formatFloat(r.PriceTotal),
		r.TransactionDate.Format(model.DateLayout),
		r.Source,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// decodeRows turns raw rows into records, skipping rows that do not decode.
func decodeRows(rows [][]string, origin string) ([]model.PropertyRecord, error) {
	if len(rows) == 0 {
		return nil, eris.Errorf("records: %s is empty", origin)
	}
	idx, err := indexHeader(rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]model.PropertyRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec, err := decodeRow(idx, row)
		if err != nil {
			zap.L().Debug("records: skipping row",
				zap.String("file", origin),
				zap.Int("line", i+2),
				zap.Error(err),
			)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadCSV decodes a listing table with a header row.
func ReadCSV(r io.Reader) ([]model.PropertyRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "records: read csv")
	}
	return decodeRows(rows, "csv")
}

// ReadCSVFile decodes a listing table from disk.
func ReadCSVFile(path string) ([]model.PropertyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "records: open csv")
	}
	defer f.Close() //nolint:errcheck

	recs, err := ReadCSV(f)
	if err != nil {
		return nil, eris.Wrapf(err, "records: %s", filepath.Base(path))
	}
	return recs, nil
}

// WriteCSV encodes records with the standard header.
func WriteCSV(w io.Writer, recs []model.PropertyRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.Columns); err != nil {
		return eris.Wrap(err, "records: write header")
	}
	for _, r := range recs {
		if err := cw.Write(encodeRow(r)); err != nil {
			return eris.Wrap(err, "records: write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "records: flush csv")
	}
	return nil
}

// WriteCSVFile writes records to path atomically via a temp file and rename,
// so concurrent readers see either the old or the new table.
func WriteCSVFile(path string, recs []model.PropertyRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "records: create dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.csv.part")
	if err != nil {
		return eris.Wrap(err, "records: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := WriteCSV(tmp, recs); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "records: close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrap(err, "records: rename temp file")
	}
	return nil
}

// ReadXLSX decodes the first sheet of a workbook.
func ReadXLSX(path string) ([]model.PropertyRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "records: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("records: %s has no sheets", filepath.Base(path))
	}

	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return decodeRows(rows, filepath.Base(path))
}

// WriteXLSX writes records to a single-sheet workbook.
func WriteXLSX(path, sheetName string, recs []model.PropertyRecord) error {
	if sheetName == "" {
		sheetName = "listings"
	}
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "records: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range model.Columns {
		header.AddCell().SetString(col)
	}

	for _, r := range recs {
		row := sheet.AddRow()
		row.AddCell().SetString(r.City)
		row.AddCell().SetString(r.Locality)
		row.AddCell().SetString(r.PropertyType)
		row.AddCell().SetInt(r.Bedrooms)
		row.AddCell().SetFloat(r.AreaSqft)
		row.AddCell().SetFloat(r.PricePerSqft)
		row.AddCell().SetFloat(r.PriceTotal)
		row.AddCell().SetString(r.TransactionDate.Format(model.DateLayout))
		row.AddCell().SetString(r.Source)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "records: create dir")
	}
	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "records: save xlsx")
	}
	return nil
}
