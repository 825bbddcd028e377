package sources

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kcz17/dnslatency/logging"
	"github.com/kcz17/dnslatency/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const dnscryptLog = "2020-07-31T22:16:00\t127.0.0.1\texample.com.\tA\tPASS\t12.3ms\tcloudflare\n" +
	"2020-07-31T22:16:01\t127.0.0.1\texample.org.\tA\tSERVER_FAIL\t800ms\tcloudflare\n" +
	"2020-07-31T22:16:02\t127.0.0.1\texample.net.\tA\tPASS\n" +
	"2020-07-31T22:16:03\t127.0.0.1\texample.net.\tAAAA\tPASS\t4ms\tquad9\n"

func TestLoad_DirectoryWithFilenameTags(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "uw-query.log", dnscryptLog)
	writeFile(t, dir, "gcp-query.log", dnscryptLog)
	writeFile(t, dir, "fetch_logs.sh", "#!/bin/sh\nscp remote:*.log .\n")

	var progress bytes.Buffer
	src := &Source{
		Name:         "dnscrypt",
		Kind:         KindDelimited,
		Path:         dir,
		Schema:       DNSCrypt(),
		Exclude:      []string{"*.sh"},
		Tags:         []record.Tag{{Field: "Protocol", Value: "DNSCrypt"}},
		FilenameTag:  "Client",
		FilenameTrim: "-query.log",
		Progress:     &progress,
	}
	records, stats, err := Load(context.Background(), src, logging.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, Stats{Files: 2, Read: 8, Kept: 6, Skipped: 2}, stats)
	require.Len(t, records, 6)

	// Files are read in lexical order.
	client, err := records[0].Text("Client")
	require.NoError(t, err)
	assert.Equal(t, "gcp", client)
	client, _ = records[5].Text("Client")
	assert.Equal(t, "uw", client)

	protocol, _ := records[0].Text("Protocol")
	assert.Equal(t, "DNSCrypt", protocol)
	assert.True(t, records[0].Success())
	assert.False(t, records[1].Success())
	assert.NotEmpty(t, progress.String())
}

func TestLoad_SingleJSONLinesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "client.log",
		`{"Hostname":"a.com","IngestedFrom":"uw","ProtocolType":"ODOH","Status":true,"Timestamp":{"Start":1596233760000000000,"ClientHashingOverheadTime":1,"ClientQueryEncryptionTime":2,"ClientUpstreamRequestTime":1596233760001000000,"ClientDownstreamResponseTime":1596233760031000000,"ClientAnswerDecryptionTime":1596233760032000000,"EndTime":1596233760033000000}}`+"\n"+
			`{"Hostname":"b.com","IngestedFrom":"uw","ProtocolType":"ODOH","Status":false}`+"\n")

	records, stats, err := Load(context.Background(), &Source{
		Name: "client", Kind: KindJSONLines, Path: path, Schema: ClientResult(),
	}, logging.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Kept)
	assert.Equal(t, 1, stats.Skipped)
	require.Len(t, records, 1)

	v, err := records[0].Number("ClientDownstreamResponseTime")
	require.NoError(t, err)
	i, ok := v.Int()
	require.True(t, ok)
	assert.Equal(t, int64(1596233760031000000), i)
}

func TestLoad_MissingPathFails(t *testing.T) {
	_, _, err := Load(context.Background(), &Source{
		Name: "missing", Kind: KindCSV, Path: filepath.Join(t.TempDir(), "nope.csv"), Schema: Microbench(),
	}, logging.NewNoopLogger())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "KEM,KDF,AEAD,Time\nX25519,HKDF,AES,1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Load(ctx, &Source{Name: "micro", Kind: KindCSV, Path: dir, Schema: Microbench()}, logging.NewNoopLogger())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSource_Validate(t *testing.T) {
	tests := []struct {
		name string
		src  Source
	}{
		{name: "No path", src: Source{Kind: KindCSV, Schema: Microbench()}},
		{name: "No schema", src: Source{Kind: KindCSV, Path: "x"}},
		{name: "Unknown kind", src: Source{Kind: "parquet", Path: "x", Schema: Microbench()}},
		{name: "Cloud without platforms", src: Source{Kind: KindCloudExport, Path: "x", Schema: TargetResult()}},
		{name: "Bad glob", src: Source{Kind: KindCSV, Path: "x", Schema: Microbench(), Exclude: []string{"["}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.src.Validate())
		})
	}
}

func TestBuiltinSchemasAreValid(t *testing.T) {
	for _, name := range BuiltinNames() {
		schema, ok := Builtin(name)
		require.True(t, ok)
		assert.NoError(t, schema.Validate(), "expected built-in schema %s to be valid", name)
	}
	_, ok := Builtin("parquet")
	assert.False(t, ok)
}
