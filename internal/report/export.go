package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"library-assessment/internal/model"
	"library-assessment/pkg/utils"
)

// Table is the row/column shape of a delimited export
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// BuildTable lays a ReportSeries out for export. The header is the key column,
// a caption column for classification reports and one column per series key.
func BuildTable(desc model.ReportDescriptor, keyColumn string, rs ReportSeries) Table {
	withCaption := desc.Shape == model.ShapeClassification

	header := []string{keyColumn}
	if withCaption {
		header = append(header, "caption")
	}
	for _, s := range rs.Series {
		header = append(header, s.Key)
	}

	rows := make([][]string, 0, len(rs.Labels))
	for i, label := range rs.Labels {
		row := make([]string, 0, len(header))
		row = append(row, label)
		if withCaption {
			caption := ""
			if i < len(rs.Captions) {
				caption = rs.Captions[i]
			}
			row = append(row, caption)
		}
		for _, s := range rs.Series {
			row = append(row, strconv.FormatInt(s.Values[i], 10))
		}
		rows = append(rows, row)
	}
	return Table{Header: header, Rows: rows}
}

// WriteCSV writes the header and rows and returns the number of data rows
func (t Table) WriteCSV(w io.Writer) (int, error) {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	recordCount := 0
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return recordCount, fmt.Errorf("failed to write row: %w", err)
		}
		recordCount++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return recordCount, fmt.Errorf("failed to flush csv: %w", err)
	}
	return recordCount, nil
}

// ExportResult describes a file written by an ExportManager
type ExportResult struct {
	Path        string    `json:"path"`
	RecordCount int       `json:"record_count"`
	ExportedAt  time.Time `json:"exported_at"`
}

// ExportManager writes export tables below an output directory, one
// subdirectory per session.
type ExportManager struct {
	output *utils.OutputManager
}

func NewExportManager(output *utils.OutputManager) *ExportManager {
	return &ExportManager{output: output}
}

// WriteFile stores table as CSV under the session directory
func (em *ExportManager) WriteFile(sessionID, fileName string, table Table) (ExportResult, error) {
	path, err := em.output.GetOutputFilePath(sessionID, fileName)
	if err != nil {
		return ExportResult{}, err
	}

	file, err := os.Create(path)
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	recordCount, err := table.WriteCSV(file)
	if err != nil {
		return ExportResult{}, err
	}

	return ExportResult{
		Path:        path,
		RecordCount: recordCount,
		ExportedAt:  time.Now().UTC(),
	}, nil
}
