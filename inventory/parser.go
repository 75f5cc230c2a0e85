package inventory

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedRow means a row cannot be lined up against the header.
	ErrMalformedRow = errors.New("malformed row")
	// ErrBlankRow means the row is empty or whitespace only and carries no record.
	ErrBlankRow = errors.New("blank row")
)

const (
	fieldDelimiter = ','
	imageDelimiter = ","
	quote          = '"'
)

// ParseHeader splits the header line into field names. Header cells are never typed;
// quotes and a leading byte order mark are stripped.
func ParseHeader(line string) []string {
	line = strings.TrimPrefix(strings.TrimRight(line, "\r"), "\ufeff")
	cells, err := SplitRow(line)
	if err != nil {
		cells = strings.Split(line, string(fieldDelimiter))
	}

	header := make([]string, 0, len(cells))
	for _, c := range cells {
		header = append(header, strings.TrimSpace(strings.ReplaceAll(c, string(quote), "")))
	}
	return header
}

// SplitRow splits one line on the field delimiter. Delimiters inside a quoted span are
// literal, wrapping quotes are stripped and a doubled quote inside a quoted span becomes
// a single quote. Unquoted cells are trimmed; quoted cells are kept verbatim.
func SplitRow(line string) ([]string, error) {
	var (
		cells    []string
		cell     strings.Builder
		started  bool
		quoted   bool
		inQuotes bool
	)

	finish := func() {
		v := cell.String()
		if !quoted {
			v = strings.TrimSpace(v)
		}
		cells = append(cells, v)
		cell.Reset()
		started, quoted, inQuotes = false, false, false
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuotes:
			if c == quote {
				if i+1 < len(line) && line[i+1] == quote {
					cell.WriteByte(quote)
					i++
					continue
				}
				inQuotes = false
				continue
			}
			cell.WriteByte(c)

		case c == fieldDelimiter:
			finish()

		case c == quote && !started:
			started, quoted, inQuotes = true, true, true

		case c == ' ' || c == '\t':
			// whitespace after a closing quote is padding
			if started && !quoted {
				cell.WriteByte(c)
			}

		default:
			started = true
			cell.WriteByte(c)
		}
	}

	if inQuotes {
		return nil, fmt.Errorf("%w: unterminated quoted field", ErrMalformedRow)
	}
	finish()
	return cells, nil
}

// ParseFields lines a data row up against the header and types each cell. Rows shorter
// than the header are padded with empty cells; rows longer than the header are malformed
// unless the surplus cells are all empty.
func ParseFields(header []string, line string) (Fields, error) {
	if strings.TrimSpace(line) == "" {
		return nil, ErrBlankRow
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: empty header", ErrMalformedRow)
	}

	values, err := SplitRow(line)
	if err != nil {
		return nil, err
	}

	if len(values) > len(header) {
		for _, extra := range values[len(header):] {
			if extra != "" {
				return nil, fmt.Errorf("%w: %d values for %d columns", ErrMalformedRow, len(values), len(header))
			}
		}
		values = values[:len(header)]
	}

	fields := make(Fields, len(header))
	for i, name := range header {
		var raw string
		if i < len(values) {
			raw = values[i]
		}
		fields[name] = coerce(name, raw)
	}
	return fields, nil
}

// ParseRow parses one data row into a Record.
func ParseRow(header []string, line string) (Record, error) {
	fields, err := ParseFields(header, line)
	if err != nil {
		return Record{}, err
	}
	return RecordFromFields(fields), nil
}

func coerce(name, raw string) any {
	switch {
	case numericFields[name]:
		return parseLenientInt(raw)
	case name == FieldImages:
		return splitImages(raw)
	default:
		return strings.TrimSpace(raw)
	}
}

// parseLenientInt reads the leading digits of s, skipping digit-grouping commas, and
// yields 0 for anything it cannot read. It never returns a negative number.
func parseLenientInt(s string) int {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")

	var digits strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			digits.WriteByte(c)
			continue
		}
		if c == ',' && digits.Len() > 0 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			continue
		}
		break
	}
	if digits.Len() == 0 {
		return 0
	}

	n, err := strconv.Atoi(digits.String())
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func splitImages(raw string) []string {
	images := make([]string, 0)
	for _, img := range strings.Split(raw, imageDelimiter) {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	return images
}
