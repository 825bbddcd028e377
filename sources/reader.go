package sources

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kcz17/dnslatency/record"
)

// maxLineSize bounds a single JSON line. Browser timing dumps stay far below.
const maxLineSize = 16 * 1024 * 1024

// Reader yields the raw entries of one log file. Next returns io.EOF after the
// last entry. A *record.MalformedEntryError only affects the current entry and
// reading may continue; any other error is fatal for the file.
type Reader interface {
	Next() (entry record.Entry, line int, err error)
}

func malformed(kind Kind, line int, reason string) error {
	return &record.MalformedEntryError{Schema: string(kind), Line: line, Reason: reason}
}

// DelimitedReader reads headerless logs with one entry per line, such as the
// tab separated DNSCrypt proxy query logs.
type DelimitedReader struct {
	scanner   *bufio.Scanner
	delimiter string
	line      int
}

func NewDelimitedReader(r io.Reader, delimiter string) *DelimitedReader {
	if delimiter == "" {
		delimiter = "\t"
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &DelimitedReader{scanner: scanner, delimiter: delimiter}
}

func (d *DelimitedReader) Next() (record.Entry, int, error) {
	for d.scanner.Scan() {
		d.line++
		text := strings.TrimRight(d.scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		return record.Row{Columns: strings.Split(text, d.delimiter)}, d.line, nil
	}
	if err := d.scanner.Err(); err != nil {
		return nil, d.line, fmt.Errorf("DelimitedReader.Next() line %d: %w", d.line+1, err)
	}
	return nil, d.line, io.EOF
}

// CSVReader reads comma separated files whose first row names the columns.
type CSVReader struct {
	reader *csv.Reader
	header map[string]int
}

func NewCSVReader(r io.Reader) (*CSVReader, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	columns, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &CSVReader{reader: reader}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("NewCSVReader() could not read header: %w", err)
	}
	return &CSVReader{reader: reader, header: record.NewHeader(columns)}, nil
}

func (c *CSVReader) Next() (record.Entry, int, error) {
	if c.header == nil {
		return nil, 0, io.EOF
	}
	columns, err := c.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, io.EOF
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return nil, parseErr.Line, malformed(KindCSV, parseErr.Line, parseErr.Err.Error())
	}
	if err != nil {
		return nil, 0, fmt.Errorf("CSVReader.Next(): %w", err)
	}
	line, _ := c.reader.FieldPos(0)
	return record.Row{Columns: columns, Header: c.header}, line, nil
}

// JSONLinesReader reads one JSON object per line.
type JSONLinesReader struct {
	scanner *bufio.Scanner
	line    int
}

func NewJSONLinesReader(r io.Reader) *JSONLinesReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &JSONLinesReader{scanner: scanner}
}

func (j *JSONLinesReader) Next() (record.Entry, int, error) {
	for j.scanner.Scan() {
		j.line++
		data := j.scanner.Bytes()
		if len(strings.TrimSpace(string(data))) == 0 {
			continue
		}
		obj, err := record.DecodeObject(data)
		if err != nil {
			return nil, j.line, malformed(KindJSONLines, j.line, err.Error())
		}
		return obj, j.line, nil
	}
	if err := j.scanner.Err(); err != nil {
		return nil, j.line, fmt.Errorf("JSONLinesReader.Next() line %d: %w", j.line+1, err)
	}
	return nil, j.line, io.EOF
}

// Platform keeps cloud log entries whose logName contains LogName and tags
// them with Name, e.g. "odohserver-gcp" as "gcp".
type Platform struct {
	LogName string
	Name    string
}

type cloudEntry struct {
	LogName     string `json:"logName"`
	TextPayload string `json:"textPayload"`
}

// CloudExportReader reads a JSON array of exported cloud log entries. The
// textPayload of every kept entry is itself a JSON object and is decoded a
// second time. The matched platform is stored under the tag field.
type CloudExportReader struct {
	decoder   *json.Decoder
	platforms []Platform
	tagField  string
	index     int
	started   bool
}

func NewCloudExportReader(r io.Reader, platforms []Platform, tagField string) *CloudExportReader {
	return &CloudExportReader{
		decoder:   json.NewDecoder(r),
		platforms: platforms,
		tagField:  tagField,
	}
}

func (c *CloudExportReader) platform(logName string) (string, bool) {
	for _, p := range c.platforms {
		if strings.Contains(logName, p.LogName) {
			return p.Name, true
		}
	}
	return "", false
}

func (c *CloudExportReader) Next() (record.Entry, int, error) {
	if !c.started {
		token, err := c.decoder.Token()
		if errors.Is(err, io.EOF) {
			return nil, 0, io.EOF
		}
		if err != nil {
			return nil, 0, fmt.Errorf("CloudExportReader.Next() could not read export: %w", err)
		}
		if delim, ok := token.(json.Delim); !ok || delim != '[' {
			return nil, 0, fmt.Errorf("CloudExportReader.Next() expected export to be a JSON array; got %v", token)
		}
		c.started = true
	}

	for c.decoder.More() {
		c.index++
		var entry cloudEntry
		if err := c.decoder.Decode(&entry); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return nil, c.index, malformed(KindCloudExport, c.index, err.Error())
			}
			return nil, c.index, fmt.Errorf("CloudExportReader.Next() entry %d: %w", c.index, err)
		}
		name, ok := c.platform(entry.LogName)
		if !ok {
			continue
		}
		if entry.TextPayload == "" {
			return nil, c.index, malformed(KindCloudExport, c.index, "entry has no textPayload")
		}
		obj, err := record.DecodeObject([]byte(entry.TextPayload))
		if err != nil {
			return nil, c.index, malformed(KindCloudExport, c.index, "textPayload: "+err.Error())
		}
		if c.tagField != "" {
			obj[c.tagField] = name
		}
		return obj, c.index, nil
	}
	return nil, c.index, io.EOF
}
