package export

import (
	"io"

	csvcodec "salesetl/internal/parser/csv"
	"salesetl/internal/table"
)

// CSV renders t as comma-separated text with a header row.
func CSV(t table.Reader) WriteFunc {
	return func(w io.Writer) error {
		return csvcodec.Encode(w, t)
	}
}
