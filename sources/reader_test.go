package sources

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kcz17/dnslatency/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain reads every entry, collecting malformed entry errors separately.
func drain(t *testing.T, r Reader) (entries []record.Entry, lines []int, malformed []error) {
	t.Helper()
	for {
		entry, line, err := r.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if errors.Is(err, record.ErrMalformedEntry) {
			malformed = append(malformed, err)
			continue
		}
		require.NoError(t, err)
		entries = append(entries, entry)
		lines = append(lines, line)
	}
}

func TestDelimitedReader_SkipsBlankLines(t *testing.T) {
	input := "a\tb\tc\n\n\r\nd\te\r\n"
	entries, lines, malformed := drain(t, NewDelimitedReader(strings.NewReader(input), ""))

	assert.Empty(t, malformed)
	require.Len(t, entries, 2)
	assert.Equal(t, []int{1, 4}, lines)
	assert.Equal(t, []string{"d", "e"}, entries[1].(record.Row).Columns)
}

func TestCSVReader_AddressesColumnsByHeader(t *testing.T) {
	input := "KEM,KDF,AEAD,Time\nX25519,HKDF-SHA256,AES128GCM,41\n"
	reader, err := NewCSVReader(strings.NewReader(input))
	require.NoError(t, err)
	entries, lines, _ := drain(t, reader)
	require.Len(t, entries, 1)
	assert.Equal(t, []int{2}, lines)

	raw, ok := entries[0].Lookup(record.Named("KDF", record.KindString, ""))
	require.True(t, ok)
	assert.Equal(t, "HKDF-SHA256", raw)
}

func TestCSVReader_MalformedRowDoesNotStopReading(t *testing.T) {
	input := "KEM,Time\nX25519,1\nP\"256,2\nP384,3\n"
	reader, err := NewCSVReader(strings.NewReader(input))
	require.NoError(t, err)
	entries, _, malformed := drain(t, reader)
	assert.Len(t, entries, 2)
	assert.Len(t, malformed, 1)
}

func TestCSVReader_EmptyFile(t *testing.T) {
	reader, err := NewCSVReader(strings.NewReader(""))
	require.NoError(t, err)
	entries, _, _ := drain(t, reader)
	assert.Empty(t, entries)
}

func TestJSONLinesReader_MalformedLineKeepsNeighbours(t *testing.T) {
	input := `{"Hostname":"a.com","loadEventEnd":1}
{"Hostname":"b.com",
{"Hostname":"c.com","loadEventEnd":3}
`
	entries, lines, malformed := drain(t, NewJSONLinesReader(strings.NewReader(input)))
	require.Len(t, entries, 2)
	assert.Equal(t, []int{1, 3}, lines)
	require.Len(t, malformed, 1)

	var entryErr *record.MalformedEntryError
	require.True(t, errors.As(malformed[0], &entryErr))
	assert.Equal(t, 2, entryErr.Line)
}

func TestCloudExportReader_FiltersByLogNameAndDecodesPayload(t *testing.T) {
	input := `[
  {"logName": "projects/p/logs/odohserver-gcp", "textPayload": "{\"Resolver\":\"1.1.1.1\",\"Timestamp\":{\"Start\":10}}"},
  {"logName": "projects/p/logs/unrelated", "textPayload": "not json"},
  {"logName": "projects/p/logs/odoh-ingestion", "textPayload": "{broken"},
  {"logName": "projects/p/logs/odoh-ingestion", "textPayload": "{\"Resolver\":\"8.8.8.8\"}"}
]`
	platforms := []Platform{{LogName: "odohserver-gcp", Name: "gcp"}, {LogName: "odoh-ingestion", Name: "rust"}}
	entries, lines, malformed := drain(t, NewCloudExportReader(strings.NewReader(input), platforms, "Platform"))

	require.Len(t, entries, 2)
	assert.Equal(t, []int{1, 4}, lines)
	assert.Len(t, malformed, 1)

	first := entries[0].(record.Object)
	assert.Equal(t, "gcp", first["Platform"])
	start, ok := first.Lookup(record.Named("Start", record.KindNumber, "Timestamp.Start"))
	require.True(t, ok)
	assert.Equal(t, "10", start.(interface{ String() string }).String())
	assert.Equal(t, "rust", entries[1].(record.Object)["Platform"])
}

func TestCloudExportReader_RejectsNonArray(t *testing.T) {
	_, _, err := NewCloudExportReader(strings.NewReader(`{"logName":"x"}`), nil, "Platform").Next()
	require.Error(t, err)
	assert.False(t, errors.Is(err, record.ErrMalformedEntry))
}
