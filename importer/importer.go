// Package importer reads dated cash flows from CSV and XLS files with a date column
// followed by an amount column.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/jmtruffa/finsim/finance"
)

// ReadFile picks the reader from the file extension.
func ReadFile(path string) ([]finance.DatedCashFlow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xls":
		return ReadXLS(path)
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported cash flow file %q", filepath.Base(path))
	}
}

// ReadCSV reads date,amount records. A first row whose date does not parse is taken as
// a header.
func ReadCSV(r io.Reader) ([]finance.DatedCashFlow, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return parseRows(rows)
}

// ReadXLS reads the first sheet of a legacy Excel workbook.
func ReadXLS(path string) ([]finance.DatedCashFlow, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("%s has no sheets", filepath.Base(path))
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row, ok := sheetRow(sheet, i)
		if !ok {
			continue
		}
		rows = append(rows, []string{row.Col(0), row.Col(1)})
	}
	return parseRows(rows)
}

// sheetRow reports false for rows the workbook never wrote; xls.WorkSheet.Row panics on
// them.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row, ok bool) {
	defer func() {
		if recover() != nil {
			row, ok = nil, false
		}
	}()
	return sheet.Row(i), true
}

// excelEpoch is day zero of the 1900 date system as Excel counts it.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// parseDate accepts YYYY-MM-DD, RFC 3339 and Excel date serials, the forms a date cell
// takes once extrame/xls renders it as text.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(finance.DateFormat, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial < 2958466 {
		return excelEpoch.AddDate(0, 0, int(serial)), nil
	}
	return time.Time{}, fmt.Errorf("%q is not a date", s)
}

func parseRows(rows [][]string) ([]finance.DatedCashFlow, error) {
	var flows []finance.DatedCashFlow
	for i, row := range rows {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("row %d: want date and amount, got %d fields", i+1, len(row))
		}
		date, err := parseDate(row[0])
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		flows = append(flows, finance.DatedCashFlow{Date: date, Amount: amount})
	}
	if len(flows) == 0 {
		return nil, fmt.Errorf("no cash flows found")
	}
	return flows, nil
}
