package collector

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/jungho-shin/data-migration-study/internal/datasets"
	"github.com/jungho-shin/data-migration-study/internal/db/models"
	"github.com/jungho-shin/data-migration-study/internal/logger"
)

// normalizeBatchRows bounds how many rows are decoded per batch, so a
// multi-gigabyte file never materializes in memory.
const normalizeBatchRows = 1024

// errConversion marks a failed parquet to CSV conversion. The period is
// recorded as failed but the job continues with the next one.
var errConversion = errors.New("conversion failed")

// Normalize brings a fetched file into the canonical CSV form. Files that
// are already flat text pass through untouched; parquet files are
// converted to an equivalently named CSV sibling. It returns the path and
// on-disk size of the canonical file.
func Normalize(path string, format datasets.SourceFormat) (string, int64, error) {
	if format != datasets.FormatParquet {
		info, err := os.Stat(path)
		if err != nil {
			return "", 0, fmt.Errorf("%w: stat %s: %v", errConversion, path, err)
		}
		return path, info.Size(), nil
	}
	return convertParquet(path)
}

// normalizeDownload converts a freshly downloaded parquet artifact to the
// canonical CSV and re-points the result at it. The parquet source is
// removed once the CSV exists; on a conversion failure it stays on disk
// for inspection and the result is downgraded to failed.
func normalizeDownload(result models.FileResult) models.FileResult {
	if result.SourceFormat != datasets.FormatParquet {
		return result
	}

	csvPath, size, err := Normalize(result.LocalPath, result.SourceFormat)
	if err != nil {
		logger.ErrorWithFields("Conversion failed", map[string]interface{}{
			"path":  result.LocalPath,
			"error": err.Error(),
		})
		result.Outcome = models.OutcomeFailed
		result.Error = err.Error()
		return result
	}

	if err := os.Remove(result.LocalPath); err != nil {
		logger.Warnf("Failed to remove parquet source %s: %v", result.LocalPath, err)
	}
	result.LocalPath = csvPath
	result.Size = size
	result.Converted = true
	return result
}

// convertParquet streams a parquet file into a CSV next to it. The header
// row carries the column names from the parquet schema in file order, and
// every value is rendered as text, with nulls as empty cells.
func convertParquet(parquetPath string) (string, int64, error) {
	csvPath := strings.TrimSuffix(parquetPath, ".parquet") + ".csv"

	src, err := os.Open(parquetPath)
	if err != nil {
		return "", 0, fmt.Errorf("%w: open %s: %v", errConversion, parquetPath, err)
	}
	defer func() {
		_ = src.Close()
	}()

	info, err := src.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("%w: stat %s: %v", errConversion, parquetPath, err)
	}

	pf, err := parquet.OpenFile(src, info.Size())
	if err != nil {
		return "", 0, fmt.Errorf("%w: parse %s: %v", errConversion, parquetPath, err)
	}

	if err := writeCSV(pf, csvPath); err != nil {
		return "", 0, fmt.Errorf("%w: %s: %v", errConversion, parquetPath, err)
	}

	csvInfo, err := os.Stat(csvPath)
	if err != nil {
		return "", 0, fmt.Errorf("%w: stat %s: %v", errConversion, csvPath, err)
	}
	logger.DebugWithFields("Converted parquet to CSV", map[string]interface{}{
		"source": parquetPath,
		"target": csvPath,
		"size":   csvInfo.Size(),
	})
	return csvPath, csvInfo.Size(), nil
}

func writeCSV(pf *parquet.File, csvPath string) error {
	tmpPath := csvPath + partSuffix
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmpPath, err)
	}
	// The temp file is removed on every failure path; after a successful
	// rename both calls are no-ops.
	defer func() {
		_ = out.Close()
		_ = os.Remove(tmpPath)
	}()

	fields := pf.Schema().Fields()
	header := make([]string, len(fields))
	for i, field := range fields {
		header[i] = field.Name()
	}

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rows := make([]parquet.Row, normalizeBatchRows)
	record := make([]string, len(fields))
	for _, rowGroup := range pf.RowGroups() {
		reader := rowGroup.Rows()
		if err := copyRows(w, reader, rows, record); err != nil {
			_ = reader.Close()
			return err
		}
		if err := reader.Close(); err != nil {
			return fmt.Errorf("close row reader: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, csvPath); err != nil {
		return fmt.Errorf("rename %s: %w", tmpPath, err)
	}
	return nil
}

func copyRows(w *csv.Writer, reader parquet.Rows, rows []parquet.Row, record []string) error {
	for {
		n, err := reader.ReadRows(rows)
		for _, row := range rows[:n] {
			for i := range record {
				record[i] = ""
			}
			for _, value := range row {
				if !value.IsNull() {
					record[value.Column()] = value.String()
				}
			}
			if werr := w.Write(record); werr != nil {
				return fmt.Errorf("write row: %w", werr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read rows: %w", err)
		}
	}
}
