package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"schoolpulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes view as CSV with a UTF-8 BOM, header row first
func WriteCSV(w io.Writer, view domain.TableView) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(view.Columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, r := range view.Rows {
		if err := writer.Write(csvRecord(r)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// csvRecord follows domain.Columns order
func csvRecord(r domain.Record) []string {
	return []string{
		r.Region,
		r.SchoolName,
		strconv.Itoa(r.Capacity),
		strconv.Itoa(r.FinalApplicants),
		formatFloat(r.FinalRatio),
		strconv.Itoa(r.Year),
	}
}
