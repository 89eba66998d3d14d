package easysqlite

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"
)

// OutputFormat selects the dump file format.
type OutputFormat int

const (
	// OutputFormatCSV is comma-separated values (the default)
	OutputFormatCSV OutputFormat = iota
	// OutputFormatTSV is tab-separated values
	OutputFormatTSV
	// OutputFormatParquet is Apache Parquet
	OutputFormatParquet
	// OutputFormatXLSX is Excel XLSX
	OutputFormatXLSX
)

// String returns the string representation of the format.
func (f OutputFormat) String() string {
	switch f {
	case OutputFormatTSV:
		return "tsv"
	case OutputFormatParquet:
		return "parquet"
	case OutputFormatXLSX:
		return "xlsx"
	default:
		return "csv"
	}
}

// Extension returns the file extension for the format.
func (f OutputFormat) Extension() string {
	return "." + f.String()
}

// DumpOptions configures how tables are exported to files.
//
// Example:
//
//	options := easysqlite.NewDumpOptions().
//		WithFormat(easysqlite.OutputFormatTSV).
//		WithCompression(easysqlite.CompressionGZ)
//
//	err := db.Dump(ctx, "./output", options)
type DumpOptions struct {
	// Format specifies the output file format
	Format OutputFormat
	// Compression specifies the compression type (CSV/TSV only)
	Compression CompressionType
}

// NewDumpOptions creates default dump options (CSV, no compression).
func NewDumpOptions() DumpOptions {
	return DumpOptions{
		Format:      OutputFormatCSV,
		Compression: CompressionNone,
	}
}

// WithFormat sets the output file format.
func (o DumpOptions) WithFormat(format OutputFormat) DumpOptions {
	o.Format = format
	return o
}

// WithCompression adds compression to delimited output files. Parquet and
// XLSX have their own internal compression and reject this option.
func (o DumpOptions) WithCompression(compression CompressionType) DumpOptions {
	o.Compression = compression
	return o
}

// FileExtension returns the complete file extension including compression.
func (o DumpOptions) FileExtension() string {
	return o.Format.Extension() + o.Compression.Extension()
}

// validate rejects option combinations that cannot be written.
func (o DumpOptions) validate() error {
	if o.Compression == CompressionBZ2 {
		return fmt.Errorf("%w: bzip2 is read-only, pick another compression for dumping", ErrInvalidArgument)
	}
	if o.Compression != CompressionNone &&
		(o.Format == OutputFormatParquet || o.Format == OutputFormatXLSX) {
		return fmt.Errorf("%w: %s output does not take external compression", ErrInvalidArgument, o.Format)
	}
	return nil
}

// Dump exports every table of the database into outputDir, one file per
// table named "<table><format ext><compression ext>". The directory is
// created when missing.
func (d *DB) Dump(ctx context.Context, outputDir string, opts ...DumpOptions) error {
	tables, err := d.ListTables(ctx)
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err := d.DumpTable(ctx, table, outputDir, opts...); err != nil {
			return err
		}
	}
	return nil
}

// DumpTable exports a single table into outputDir.
func (d *DB) DumpTable(ctx context.Context, table, outputDir string, opts ...DumpOptions) error {
	options := NewDumpOptions()
	if len(opts) > 0 {
		options = opts[0]
	}
	if err := options.validate(); err != nil {
		return err
	}
	if err := validateTableName(table); err != nil {
		return err
	}
	exists, err := d.tableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: table %q does not exist", ErrTable, table)
	}

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return fmt.Errorf("%w: create output directory: %w", ErrDatabase, err)
	}

	columns, data, err := d.readTable(ctx, table)
	if err != nil {
		return err
	}

	outputPath := filepath.Join(outputDir, table+options.FileExtension())
	switch options.Format {
	case OutputFormatCSV:
		err = writeDelimited(outputPath, columns, data, ',', options.Compression)
	case OutputFormatTSV:
		err = writeDelimited(outputPath, columns, data, '\t', options.Compression)
	case OutputFormatParquet:
		err = writeParquet(outputPath, columns, data)
	case OutputFormatXLSX:
		err = writeXLSX(outputPath, columns, data)
	default:
		err = fmt.Errorf("%w: unknown output format %d", ErrInvalidArgument, options.Format)
	}
	if err != nil {
		return fmt.Errorf("easysqlite: dump table %q: %w", table, err)
	}
	d.logger.Debug("easysqlite: dumped table", "table", table, "path", outputPath, "rows", len(data))
	return nil
}

// readTable fetches every row of a table with stable column order.
func (d *DB) readTable(ctx context.Context, table string) ([]string, [][]any, error) {
	q, err := d.querier()
	if err != nil {
		return nil, nil, err
	}

	rows, err := q.QueryContext(ctx, "SELECT * FROM "+quoteIdentifier(table))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read table %q: %w", ErrTable, table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read table %q: %w", ErrTable, table, err)
	}

	var data [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, nil, fmt.Errorf("%w: read table %q: %w", ErrTable, table, err)
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: read table %q: %w", ErrTable, table, err)
	}
	return columns, data, nil
}

// writeDelimited writes CSV or TSV, optionally compressed.
func writeDelimited(path string, columns []string, data [][]any, comma rune, compression CompressionType) error {
	file, err := os.Create(path) //nolint:gosec // path is assembled from a validated table name
	if err != nil {
		return err
	}

	writer, closeCompression, err := newCompressionWriter(file, compression)
	if err != nil {
		_ = file.Close()
		return err
	}

	cw := csv.NewWriter(writer)
	cw.Comma = comma

	writeErr := cw.Write(columns)
	for _, row := range data {
		if writeErr != nil {
			break
		}
		record := make([]string, len(row))
		for i, value := range row {
			record[i] = formatValue(value)
		}
		writeErr = cw.Write(record)
	}
	if writeErr == nil {
		cw.Flush()
		writeErr = cw.Error()
	}

	if err := closeCompression(); err != nil && writeErr == nil {
		writeErr = err
	}
	if err := file.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	return writeErr
}

// writeXLSX writes one sheet named after the default workbook sheet, header
// row first.
func writeXLSX(path string, columns []string, data [][]any) error {
	file := excelize.NewFile()
	defer func() {
		_ = file.Close()
	}()

	sheet := file.GetSheetName(0)
	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	cell, err := excelize.CoordinatesToCellName(1, 1)
	if err != nil {
		return err
	}
	if err := file.SetSheetRow(sheet, cell, &header); err != nil {
		return err
	}

	for i, row := range data {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, value := range row {
			if value == nil {
				values[j] = nil
				continue
			}
			values[j] = formatValue(value)
		}
		if err := file.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return file.SaveAs(path)
}

// writeParquet writes an all-string Parquet file, preserving NULLs.
func writeParquet(path string, columns []string, data [][]any) error {
	fields := make([]arrow.Field, len(columns))
	for i, col := range columns {
		fields[i] = arrow.Field{Name: col, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	for _, row := range data {
		for i, value := range row {
			stringBuilder, ok := builder.Field(i).(*array.StringBuilder)
			if !ok {
				return fmt.Errorf("unexpected arrow builder type for column %q", columns[i])
			}
			if value == nil {
				stringBuilder.AppendNull()
				continue
			}
			stringBuilder.Append(formatValue(value))
		}
	}

	record := builder.NewRecord()
	defer record.Release()

	file, err := os.Create(path) //nolint:gosec // path is assembled from a validated table name
	if err != nil {
		return err
	}

	writer, err := pqarrow.NewFileWriter(schema, file, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	if err != nil {
		_ = file.Close()
		return err
	}

	writeErr := writer.Write(record)
	if err := writer.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	// The parquet writer closes its sink; a second close is fine to ignore.
	if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) && writeErr == nil {
		writeErr = err
	}
	return writeErr
}

// formatValue renders a scan value for text-based outputs.
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
