package export

import (
	"fmt"
	"io"

	"salesetl/internal/table"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// ArrowType maps a column kind onto its Arrow type. Dates become date32.
func ArrowType(k table.Kind) arrow.DataType {
	switch k {
	case table.KindInt:
		return arrow.PrimitiveTypes.Int64
	case table.KindFloat:
		return arrow.PrimitiveTypes.Float64
	case table.KindDate:
		return arrow.FixedWidthTypes.Date32
	default:
		return arrow.BinaryTypes.String
	}
}

// ToArrow copies t into an Arrow record. Every field is nullable. The caller
// must Release the record.
func ToArrow(t table.Reader, mem memory.Allocator) (arrow.Record, error) {
	names := t.Names()
	cols := make([]*table.Column, len(names))
	fields := make([]arrow.Field, len(names))
	for i, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return nil, err
		}
		cols[i] = c
		fields[i] = arrow.Field{Name: n, Type: ArrowType(c.Kind()), Nullable: true}
	}

	rb := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer rb.Release()

	n := t.NumRows()
	for i, c := range cols {
		fb := rb.Field(i)
		fb.Reserve(n)
		for r := 0; r < n; r++ {
			if c.IsNull(r) {
				fb.AppendNull()
				continue
			}
			switch b := fb.(type) {
			case *array.Int64Builder:
				b.Append(c.Int(r))
			case *array.Float64Builder:
				b.Append(c.FloatAt(r))
			case *array.Date32Builder:
				b.Append(arrow.Date32FromTime(c.Date(r)))
			case *array.StringBuilder:
				b.Append(c.Str(r))
			default:
				return nil, fmt.Errorf("export: unsupported arrow builder %T for column %q", fb, c.Name())
			}
		}
	}
	return rb.NewRecord(), nil
}

// Parquet renders t as a Snappy-compressed Parquet file with the Arrow schema
// stored in the metadata.
func Parquet(t table.Reader) WriteFunc {
	return func(w io.Writer) error {
		rec, err := ToArrow(t, memory.DefaultAllocator)
		if err != nil {
			return err
		}
		defer rec.Release()

		props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
		arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
		fw, err := pqarrow.NewFileWriter(rec.Schema(), writeOnly{w}, props, arrowProps)
		if err != nil {
			return fmt.Errorf("create parquet writer: %w", err)
		}
		if err := fw.Write(rec); err != nil {
			_ = fw.Close()
			return fmt.Errorf("write parquet: %w", err)
		}
		return fw.Close()
	}
}

// writeOnly hides any Close method of the wrapped writer; the batch owns the
// underlying file.
type writeOnly struct{ io.Writer }
