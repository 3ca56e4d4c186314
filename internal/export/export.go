// Package export writes normalized row arrays to disk in the output
// formats spec.md §6 names, selected by filename suffix.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ethpandaops/era-indexer/internal/normalize"
)

// EraInfo is the metadata header every JSON export carries.
type EraInfo struct {
	Network   string `json:"network"`
	EraNumber uint64 `json:"era_number"`
	StartSlot uint64 `json:"start_slot"`
	EndSlot   uint64 `json:"end_slot"`
}

type jsonDocument struct {
	EraInfo        EraInfo          `json:"era_info"`
	DataType       string           `json:"data_type"`
	RecordCount    int              `json:"record_count"`
	ExportTimestamp time.Time       `json:"export_timestamp"`
	Data           []normalize.Row `json:"data"`
}

// Format is inferred from an output path's suffix.
type Format int

const (
	FormatJSON Format = iota
	FormatJSONLines
	FormatCSV
	FormatParquet
)

// FormatFromFilename picks a Format by the conventional suffixes spec.md §6
// names: ".json", ".jsonl"/".ndjson", ".csv", ".parquet".
func FormatFromFilename(path string) Format {
	switch {
	case strings.HasSuffix(path, ".jsonl"), strings.HasSuffix(path, ".ndjson"):
		return FormatJSONLines
	case strings.HasSuffix(path, ".csv"):
		return FormatCSV
	case strings.HasSuffix(path, ".parquet"):
		return FormatParquet
	default:
		return FormatJSON
	}
}

// Write dumps dataset's rows to path in the format its suffix implies.
func Write(path string, eraInfo EraInfo, dataset string, rows []normalize.Row) error {
	switch FormatFromFilename(path) {
	case FormatJSONLines:
		return writeJSONLines(path, eraInfo, dataset, rows)
	case FormatCSV:
		return writeCSV(path, dataset, rows)
	case FormatParquet:
		return writeParquetStub(path, dataset, rows)
	default:
		return writeJSON(path, eraInfo, dataset, rows)
	}
}

// combinedDocument is the all-blocks-without---separate output: every
// dataset's rows nested under its own key in one file.
type combinedDocument struct {
	EraInfo         EraInfo                    `json:"era_info"`
	ExportTimestamp time.Time                  `json:"export_timestamp"`
	Data            map[string][]normalize.Row `json:"data"`
}

// WriteAll writes every dataset in results. JSON output is a single
// combined file; JSON-lines, CSV and Parquet output is one file per
// dataset, named by inserting the dataset before path's extension.
func WriteAll(path string, eraInfo EraInfo, results map[string][]normalize.Row) error {
	switch FormatFromFilename(path) {
	case FormatJSONLines:
		for dataset, rows := range results {
			if err := writeJSONLines(separatedSuffix(path, dataset), eraInfo, dataset, rows); err != nil {
				return err
			}
		}
		return nil
	case FormatCSV, FormatParquet:
		for dataset, rows := range results {
			if err := Write(separatedSuffix(path, dataset), eraInfo, dataset, rows); err != nil {
				return err
			}
		}
		return nil
	default:
		doc := combinedDocument{EraInfo: eraInfo, ExportTimestamp: time.Now().UTC(), Data: results}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("export: marshal combined document: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("export: write %s: %w", path, err)
		}
		return nil
	}
}

func separatedSuffix(base, dataset string) string {
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i] + "." + dataset + base[i:]
		}
		if base[i] == '/' {
			break
		}
	}
	return base + "." + dataset
}

func writeJSON(path string, eraInfo EraInfo, dataset string, rows []normalize.Row) error {
	doc := jsonDocument{
		EraInfo:         eraInfo,
		DataType:        dataset,
		RecordCount:     len(rows),
		ExportTimestamp: time.Now().UTC(),
		Data:            rows,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal %s as json: %w", dataset, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// writeJSONLines writes a metadata line first, then one JSON object per row.
func writeJSONLines(path string, eraInfo EraInfo, dataset string, rows []normalize.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	meta := map[string]interface{}{
		"era_info":         eraInfo,
		"data_type":        dataset,
		"record_count":     len(rows),
		"export_timestamp": time.Now().UTC(),
	}
	metaLine, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("export: marshal %s metadata line: %w", dataset, err)
	}
	if _, err := w.Write(append(metaLine, '\n')); err != nil {
		return fmt.Errorf("export: write %s metadata line: %w", dataset, err)
	}

	for _, row := range rows {
		line, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("export: marshal %s row: %w", dataset, err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("export: write %s row: %w", dataset, err)
		}
	}
	return nil
}

// writeCSV writes comment header lines prefixed "#", then one row per line
// using the union of keys across rows as the column header, sorted for
// determinism.
func writeCSV(path, dataset string, rows []normalize.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "# dataset: %s\n# record_count: %d\n# export_timestamp: %s\n",
		dataset, len(rows), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("export: write %s comment header: %w", path, err)
	}

	columns := unionColumns(rows)
	writer := csv.NewWriter(f)
	defer writer.Flush()

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("export: write %s csv header: %w", path, err)
	}
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = fmt.Sprintf("%v", row[col])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("export: write %s csv row: %w", path, err)
		}
	}
	return nil
}

func unionColumns(rows []normalize.Row) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

// writeParquetStub writes schema-only metadata: full columnar Parquet
// encoding is adjacent to the Non-goals (spec.md §1 names Parquet as an
// external collaborator), so this keeps just enough to name the columns a
// real exporter would need.
func writeParquetStub(path, dataset string, rows []normalize.Row) error {
	schema := map[string]interface{}{
		"dataset":      dataset,
		"record_count": len(rows),
		"columns":      unionColumns(rows),
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal %s parquet schema stub: %w", dataset, err)
	}
	if err := os.WriteFile(path+".schema.json", data, 0o644); err != nil {
		return fmt.Errorf("export: write %s parquet schema stub: %w", path, err)
	}
	return nil
}
