// Package csvbatch parses comma-delimited batch uploads against an explicit column schema.
//
// The format is deliberately simple: the first line is a header and is skipped,
// fields are split on commas and quoting is not supported, so a comma inside a
// field shifts the columns and the row is rejected for its column count.
package csvbatch

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"healthcare-crm-backend/pkg/apperr"
	"healthcare-crm-backend/pkg/phone"
)

// Kind is the expected type of a column.
type Kind int

const (
	String Kind = iota
	Int
	Float
	Phone
	Time
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "integer"
	case Float:
		return "number"
	case Phone:
		return "phone"
	case Time:
		return "timestamp"
	default:
		return "text"
	}
}

// Field describes one column.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
}

// Schema is the ordered list of columns a batch type expects.
type Schema struct {
	Name   string
	Fields []Field
}

func (s Schema) index(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// RowError is a row rejected while parsing.
type RowError struct {
	RowNumber int
	Reason    string
}

// Record is one data row that matched the schema's column count and types.
type Record struct {
	RowNumber int
	schema    *Schema
	values    []string
	phones    map[int]string
	times     map[int]time.Time
}

// Batch is the parsed content of an upload.
type Batch struct {
	Records  []Record
	Rejected []RowError
}

// Total is the number of data rows seen, accepted or not.
func (b *Batch) Total() int {
	return len(b.Records) + len(b.Rejected)
}

// Supported timestamp layouts, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ParseTime parses a timestamp in any supported layout. Zone-less values are UTC.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// Parse reads the whole upload. It returns a validation error only when the
// input holds no data rows at all; bad rows are collected in Batch.Rejected.
func Parse(r io.Reader, schema Schema) (*Batch, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	batch := &Batch{}
	lineNo := 0
	sawHeader := false
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if !sawHeader {
			sawHeader = true
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, reason := parseLine(&schema, lineNo, line)
		if reason != "" {
			batch.Rejected = append(batch.Rejected, RowError{RowNumber: lineNo, Reason: reason})
			continue
		}
		batch.Records = append(batch.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "unreadable "+schema.Name+" upload", err)
	}
	if batch.Total() == 0 {
		return nil, apperr.Validation(schema.Name + " upload contains no data rows")
	}
	return batch, nil
}

func parseLine(schema *Schema, lineNo int, line string) (Record, string) {
	values := strings.Split(line, ",")
	if len(values) != len(schema.Fields) {
		return Record{}, fmt.Sprintf("expected %d columns, got %d", len(schema.Fields), len(values))
	}

	rec := Record{RowNumber: lineNo, schema: schema, values: values}
	for i, f := range schema.Fields {
		v := strings.TrimSpace(values[i])
		values[i] = v
		if v == "" {
			if f.Required {
				return Record{}, f.Name + " is required"
			}
			continue
		}
		switch f.Kind {
		case Int:
			if _, err := strconv.Atoi(v); err != nil {
				return Record{}, fmt.Sprintf("%s must be an integer, got %q", f.Name, v)
			}
		case Float:
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return Record{}, fmt.Sprintf("%s must be a number, got %q", f.Name, v)
			}
		case Phone:
			p, err := phone.Normalize(v)
			if err != nil {
				return Record{}, fmt.Sprintf("%s: invalid phone number %q", f.Name, v)
			}
			if rec.phones == nil {
				rec.phones = make(map[int]string)
			}
			rec.phones[i] = p
		case Time:
			t, err := ParseTime(v)
			if err != nil {
				return Record{}, fmt.Sprintf("%s: %v", f.Name, err)
			}
			if rec.times == nil {
				rec.times = make(map[int]time.Time)
			}
			rec.times[i] = t
		}
	}
	return rec, ""
}

// String returns the trimmed raw value of a column.
func (r Record) String(name string) string {
	i := r.schema.index(name)
	if i < 0 {
		return ""
	}
	return r.values[i]
}

// Int returns an integer column, or 0 when empty.
func (r Record) Int(name string) int {
	n, _ := strconv.Atoi(r.String(name))
	return n
}

// Float returns a numeric column and whether it was present.
func (r Record) Float(name string) (float64, bool) {
	v := r.String(name)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}

// Phone returns the canonical form of a phone column, or "" when empty.
func (r Record) Phone(name string) string {
	return r.phones[r.schema.index(name)]
}

// Time returns a timestamp column, or the zero time when empty.
func (r Record) Time(name string) time.Time {
	return r.times[r.schema.index(name)]
}
