// Package corpus loads the IRC intervention table from its persisted sources.
package corpus

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/kailas-cloud/roadsafe/internal/domain/record"
)

// DefaultEncodings is the decode order tried for CSV sources.
var DefaultEncodings = []string{"utf-8", "latin-1", "iso-8859-1", "cp1252"}

// Column names. Matching is case-insensitive after trimming.
const (
	ColProblem  = "problem"
	ColType     = "type"
	ColCategory = "category"
	ColData     = "data"
	ColClause   = "clause"
)

var requiredColumns = []string{ColProblem, ColData, ColClause}

var (
	errUnknownEncoding = errors.New("unknown encoding")
	errMissingHeader   = errors.New("missing header row")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeCSV parses raw CSV bytes, trying each encoding in order. It returns
// the records and the encoding that succeeded. An encoding that fails to
// decode or whose text fails to parse moves on to the next one.
func DecodeCSV(raw []byte, encodings []string) ([]record.Record, string, error) {
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}
	var errs []error
	for _, name := range encodings {
		text, err := decodeText(raw, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		records, err := parseCSV(text)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		return records, name, nil
	}
	return nil, "", fmt.Errorf("no encoding could decode the table: %w", errors.Join(errs...))
}

func decodeText(raw []byte, name string) ([]byte, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		raw = bytes.TrimPrefix(raw, utf8BOM)
		out, _, err := transform.Bytes(encoding.UTF8Validator, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid utf-8: %w", err)
		}
		return out, nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

// lookupEncoding resolves an encoding name. UTF-8 resolves to nil.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return nil, nil
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w %q", errUnknownEncoding, name)
	}
	if enc == encoding.Nop {
		return nil, nil
	}
	return enc, nil
}

func parseCSV(text []byte) ([]record.Record, error) {
	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("missing required column %q", c)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []record.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		records = append(records, record.New(
			len(records),
			field(row, ColProblem),
			field(row, ColType),
			field(row, ColCategory),
			field(row, ColData),
			field(row, ColClause),
		))
	}
	return records, nil
}
