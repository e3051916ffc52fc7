package records

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/estate-cli/internal/model"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Export writes recs to path in the given format.
func Export(path, format string, recs []model.PropertyRecord) error {
	switch strings.ToLower(format) {
	case FormatXLSX:
		return ExportXLSX(path, recs)
	case FormatCSV, "":
		return ExportCSV(path, recs)
	default:
		return eris.Errorf("records: unknown export format %q", format)
	}
}

// ExportXLSX writes recs to a workbook.
func ExportXLSX(path string, recs []model.PropertyRecord) error {
	sheet := "listings"
	if len(recs) > 0 && recs[0].City != "" {
		sheet = recs[0].City
	}
	return WriteXLSX(path, sheet, recs)
}

// ExportCSV writes recs to a CSV file, or stdout when path is "-".
func ExportCSV(path string, recs []model.PropertyRecord) error {
	if path == "-" {
		return WriteCSV(os.Stdout, recs)
	}
	return WriteCSVFile(path, recs)
}
