package fetcher

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	LazyQuotes bool
}

const utf8BOM = "\uFEFF"

// ReadCSV parses a CSV stream whose first row is the header. Empty cells are
// left out of the record, rows shorter than the header miss the trailing
// columns and blank lines are skipped.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) (*RecordSet, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && string(b) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("csv: empty input")
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	set := &RecordSet{Columns: header}
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "csv: context cancelled")
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}

		rec := make(Record, len(header))
		for i, cell := range row {
			if i >= len(header) || cell == "" {
				continue
			}
			rec[header[i]] = cell
		}
		if len(rec) == 0 {
			continue
		}
		set.Records = append(set.Records, rec)
	}

	return set, nil
}
