package export

import (
	"bytes"
	"encoding/csv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lead-enrich/internal/model"
)

// SheetName is the worksheet WriteXLSX creates.
const SheetName = "Leads"

// WriteXLSX saves leads to a workbook at path with one header row and the
// same columns as WriteCSV.
func WriteXLSX(path string, leads []model.Lead) error {
	rows, err := records(leads)
	if err != nil {
		return err
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, v := range cells {
			row.AddCell().SetString(v)
		}
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

// ReadXLSX decodes leads from the first worksheet of the workbook at path,
// applying the same header mapping as ReadCSV.
func ReadXLSX(path string) ([]model.Lead, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("xlsx: %s has no sheets", path)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range f.Sheets[0].Rows {
		if row == nil {
			continue
		}
		cells := rowToStrings(row)
		if blank(cells) {
			continue
		}
		if err := w.Write(cells); err != nil {
			return nil, eris.Wrap(err, "xlsx: buffer row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, eris.Wrap(err, "xlsx: buffer rows")
	}
	return ReadCSV(&buf)
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
