package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
)

const utf8BOM = "\ufeff"

// Parse reads data as a table in the declared format. The first row is the
// header; rows with every cell empty are skipped.
func Parse(data []byte, format entity.Format) (*Table, error) {
	switch format {
	case entity.FormatCSV:
		return parseCSV(data)
	case entity.FormatXLSX:
		return parseXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func parseCSV(data []byte) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv: %v", ErrParse, err)
	}

	return buildTable(records)
}

func parseXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx: %v", ErrParse, err)
	}
	//nolint:errcheck // workbook is read-only in memory
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: xlsx: workbook has no sheets", ErrParse)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx: sheet %q: %v", ErrParse, sheets[0], err)
	}

	return buildTable(rows)
}

func buildTable(records [][]string) (*Table, error) {
	records = dropBlankRows(records)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrParse)
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	return fromRaw(header, records[1:])
}

func dropBlankRows(records [][]string) [][]string {
	out := records[:0]
	for _, rec := range records {
		blank := true
		for _, cell := range rec {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out
}
