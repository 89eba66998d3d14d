package easysqlite

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow/go/v18/arrow/array"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"
)

// maxBindVariables is SQLite's default SQLITE_MAX_VARIABLE_NUMBER. An INSERT
// must never bind more parameters than this.
const maxBindVariables = 32766

// ImportFile loads a CSV, TSV (plain or gz/bz2/xz/zst compressed), XLSX
// (first sheet), or Parquet file into a table and returns the number of rows
// imported. A missing table is created with TEXT columns taken from the file
// header; an existing table is appended to. The first header line of
// delimited files names the columns.
func (d *DB) ImportFile(ctx context.Context, table, path string) (int64, error) {
	if _, err := d.querier(); err != nil {
		return 0, err
	}
	if err := validateTableName(table); err != nil {
		return 0, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: file %s", ErrNotFound, path)
		}
		return 0, fmt.Errorf("%w: stat %s: %w", ErrDatabase, path, err)
	}

	compression := detectCompression(path)
	ext := strings.ToLower(filepath.Ext(stripCompressionExtension(path)))

	var (
		header  []string
		records [][]any
		err     error
	)
	switch ext {
	case ".csv":
		header, records, err = readDelimited(path, ',', compression)
	case ".tsv":
		header, records, err = readDelimited(path, '\t', compression)
	case ".xlsx":
		if compression != CompressionNone {
			return 0, fmt.Errorf("%w: compressed XLSX input is not supported", ErrInvalidArgument)
		}
		header, records, err = readXLSX(path)
	case ".parquet":
		if compression != CompressionNone {
			return 0, fmt.Errorf("%w: compressed Parquet input is not supported", ErrInvalidArgument)
		}
		header, records, err = readParquet(ctx, path)
	default:
		return 0, fmt.Errorf("%w: unsupported import file type %q", ErrInvalidArgument, filepath.Ext(path))
	}
	if err != nil {
		return 0, fmt.Errorf("easysqlite: import %s: %w", path, err)
	}
	if len(header) == 0 {
		return 0, fmt.Errorf("%w: file %s has no header row", ErrInvalidArgument, path)
	}
	for _, col := range header {
		if err := validateColumnName(col); err != nil {
			return 0, err
		}
	}

	exists, err := d.tableExists(ctx, table)
	if err != nil {
		return 0, err
	}
	if !exists {
		columns := make([]Column, len(header))
		for i, col := range header {
			columns[i] = Column{Name: col, Type: "TEXT"}
		}
		if err := d.CreateTable(ctx, table, columns); err != nil {
			return 0, err
		}
	}

	rows := make([]map[string]any, len(records))
	for i, record := range records {
		row := make(map[string]any, len(header))
		for j, col := range header {
			if j < len(record) {
				row[col] = record[j]
			} else {
				row[col] = nil
			}
		}
		rows[i] = row
	}

	// A single INSERT binds rows x columns parameters; large files are
	// inserted in chunks sized to stay under the engine's variable limit.
	chunkRows := maxBindVariables / len(header)
	if chunkRows < 1 {
		chunkRows = 1
	}
	var count int64
	for start := 0; start < len(rows); start += chunkRows {
		end := start + chunkRows
		if end > len(rows) {
			end = len(rows)
		}
		inserted, err := d.AddRows(ctx, table, rows[start:end])
		if err != nil {
			return count, err
		}
		count += inserted
	}
	d.logger.Debug("easysqlite: imported file", "table", table, "path", path, "rows", count)
	return count, nil
}

// readDelimited reads a possibly compressed CSV/TSV file.
func readDelimited(path string, comma rune, compression CompressionType) ([]string, [][]any, error) {
	file, err := os.Open(path) //nolint:gosec // user-provided import path
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	reader, closeCompression, err := newCompressionReader(file, compression)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = closeCompression()
	}()

	cr := csv.NewReader(reader)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	lines, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(lines) == 0 {
		return nil, nil, nil
	}

	header := lines[0]
	records := make([][]any, 0, len(lines)-1)
	for _, line := range lines[1:] {
		record := make([]any, len(line))
		for i, field := range line {
			record[i] = field
		}
		records = append(records, record)
	}
	return header, records, nil
}

// readXLSX reads the first sheet of an XLSX workbook.
func readXLSX(path string) ([]string, [][]any, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("no sheets in workbook")
	}
	lines, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, nil, err
	}
	if len(lines) == 0 {
		return nil, nil, nil
	}

	header := lines[0]
	records := make([][]any, 0, len(lines)-1)
	for _, line := range lines[1:] {
		record := make([]any, len(line))
		for i, field := range line {
			record[i] = field
		}
		records = append(records, record)
	}
	return header, records, nil
}

// readParquet reads a Parquet file through the Arrow table reader, keeping
// NULL cells as nil.
func readParquet(ctx context.Context, path string) ([]string, [][]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided import path
	if err != nil {
		return nil, nil, err
	}

	// Parquet needs random access, so the file is read into memory first.
	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("create parquet reader: %w", err)
	}
	defer func() {
		_ = pqReader.Close()
	}()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create arrow reader: %w", err)
	}

	tbl, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read parquet table: %w", err)
	}
	defer tbl.Release()

	schema := tbl.Schema()
	header := make([]string, schema.NumFields())
	for i, field := range schema.Fields() {
		header[i] = field.Name
	}

	tableReader := array.NewTableReader(tbl, 0)
	defer tableReader.Release()

	var records [][]any
	for tableReader.Next() {
		batch := tableReader.Record()
		for i := int64(0); i < batch.NumRows(); i++ {
			record := make([]any, batch.NumCols())
			for j, col := range batch.Columns() {
				if col.IsNull(int(i)) {
					record[j] = nil
					continue
				}
				record[j] = col.ValueStr(int(i))
			}
			records = append(records, record)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, nil, fmt.Errorf("read parquet records: %w", err)
	}
	return header, records, nil
}
