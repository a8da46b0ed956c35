package fetcher

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures the CSV grid reader.
type CSVOptions struct {
	Delimiter rune // default ','
	// Charset names the source encoding (e.g. "windows-1252"). Empty means
	// UTF-8; a leading BOM is stripped either way. Survey tools export both.
	Charset string
}

// ReadCSVGrid reads a delimited survey export into a raw cell grid. Rows may
// have varying widths; fully blank rows are dropped. Header interpretation is
// left to the survey pipeline.
func ReadCSVGrid(r io.Reader, opts CSVOptions) ([][]string, error) {
	br := bufio.NewReader(r)
	if peeked, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(peeked, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	var src io.Reader = br
	if opts.Charset != "" {
		enc, err := htmlindex.Get(opts.Charset)
		if err != nil {
			return nil, eris.Wrapf(err, "csv: unsupported charset %q", opts.Charset)
		}
		src = enc.NewDecoder().Reader(br)
	}

	reader := csv.NewReader(src)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // ragged exports are expected

	var grid [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		if allBlank(record) {
			continue
		}
		grid = append(grid, record)
	}

	return grid, nil
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if len(bytes.TrimSpace([]byte(c))) > 0 {
			return false
		}
	}
	return true
}
