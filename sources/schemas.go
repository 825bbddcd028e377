package sources

import (
	"sort"

	"github.com/kcz17/dnslatency/record"
)

func numbers(names ...string) []record.FieldSpec {
	fields := make([]record.FieldSpec, 0, len(names))
	for _, name := range names {
		fields = append(fields, record.Named(name, record.KindNumber, ""))
	}
	return fields
}

func nested(prefix string, names ...string) []record.FieldSpec {
	fields := make([]record.FieldSpec, 0, len(names))
	for _, name := range names {
		fields = append(fields, record.Named(name, record.KindNumber, prefix+"."+name))
	}
	return fields
}

func optional(f record.FieldSpec) record.FieldSpec {
	f.Optional = true
	return f
}

// DNSCrypt is the dnscrypt-proxy query log format.
func DNSCrypt() *record.Schema {
	return &record.Schema{
		Name: "dnscrypt",
		Fields: []record.FieldSpec{
			record.Col("Timestamp", record.KindString, 0),
			record.Col("Proxy", record.KindString, 1),
			record.Col("Host", record.KindString, 2),
			record.Col("DnsType", record.KindString, 3),
			record.Col("Status", record.KindString, 4),
			record.Col("Time", record.KindDuration, 5),
			optional(record.Col("Target", record.KindString, 6)),
		},
		Status: record.StatusSpec{Field: "Status", Pass: []string{"PASS"}},
	}
}

var navigationTiming = []string{
	"navigationStart", "redirectStart", "redirectEnd", "fetchStart",
	"domainLookupStart", "domainLookupEnd", "connectStart",
	"secureConnectionStart", "connectEnd", "requestStart", "responseStart",
	"responseEnd", "domLoading", "domInteractive",
	"domContentLoadedEventStart", "domContentLoadedEventEnd", "domComplete",
	"loadEventStart", "loadEventEnd",
}

// PageLoad is a browser Navigation Timing dump with the visited Hostname. A
// page whose load event never ended is a failed measurement.
func PageLoad() *record.Schema {
	fields := numbers(navigationTiming...)
	fields = append(fields, record.Named("Hostname", record.KindString, ""))
	return &record.Schema{
		Name:   "pageload",
		Fields: fields,
		Status: record.StatusSpec{Field: "loadEventEnd", NonZero: true},
	}
}

var clientTimestamps = []string{
	"Start", "ClientHashingOverheadTime", "ClientQueryEncryptionTime",
	"ClientUpstreamRequestTime", "ClientDownstreamResponseTime",
	"ClientAnswerDecryptionTime", "EndTime",
}

// ClientResult is one experiment result printed by the measurement client.
// Timestamps are epoch nanoseconds nested under "Timestamp".
func ClientResult() *record.Schema {
	fields := []record.FieldSpec{
		record.Named("Hostname", record.KindString, ""),
		optional(record.Named("Proxy", record.KindString, "")),
		optional(record.Named("Target", record.KindString, "")),
		record.Named("IngestedFrom", record.KindString, ""),
		record.Named("ProtocolType", record.KindString, ""),
		record.Named("Status", record.KindBool, ""),
	}
	fields = append(fields, nested("Timestamp", clientTimestamps...)...)
	return &record.Schema{
		Name:   "client",
		Fields: fields,
		Status: record.StatusSpec{Field: "Status"},
	}
}

// ClientFrame is the flattened CSV form of client results.
func ClientFrame() *record.Schema {
	fields := []record.FieldSpec{
		record.Named("ClientName", record.KindString, ""),
		record.Named("ProtocolType", record.KindString, ""),
		record.Named("TargetUsed", record.KindString, ""),
		record.Named("Status", record.KindBool, ""),
	}
	fields = append(fields, numbers(
		"Start", "ClientQueryEncryptionTime", "ClientUpstreamRequestTime",
		"ClientDownstreamResponseTime", "ClientAnswerDecryptionTime", "EndTime",
	)...)
	return &record.Schema{
		Name:   "client-frame",
		Fields: fields,
		Status: record.StatusSpec{Field: "Status"},
	}
}

var targetTimestamps = []string{
	"Start", "TargetQueryDecryptionTime", "TargetQueryResolutionTime",
	"TargetAnswerEncryptionTime", "EndTime",
}

// TargetResult is the payload a target logs for every query it served. The
// Platform field is set by CloudExportReader.
func TargetResult() *record.Schema {
	fields := []record.FieldSpec{
		record.Named("TargetName", record.KindString, "IngestedFrom"),
		record.Named("ExperimentID", record.KindString, ""),
		record.Named("ProtocolType", record.KindString, ""),
		record.Named("Key", record.KindString, "RequestID"),
		record.Named("Resolver", record.KindString, ""),
		record.Named("Status", record.KindBool, ""),
		record.Named("Platform", record.KindString, ""),
	}
	fields = append(fields, nested("Timestamp", targetTimestamps...)...)
	return &record.Schema{
		Name:   "target",
		Fields: fields,
		Status: record.StatusSpec{Field: "Status"},
	}
}

// TargetFrame is the flattened CSV form of target results.
func TargetFrame() *record.Schema {
	fields := []record.FieldSpec{
		record.Named("LogType", record.KindString, ""),
		record.Named("TargetName", record.KindString, ""),
		record.Named("ExperimentID", record.KindString, ""),
		record.Named("ProtocolType", record.KindString, ""),
		record.Named("Key", record.KindString, ""),
		record.Named("Resolver", record.KindString, ""),
		record.Named("Status", record.KindBool, ""),
	}
	fields = append(fields, numbers(targetTimestamps...)...)
	return &record.Schema{
		Name:   "target-frame",
		Fields: fields,
		Status: record.StatusSpec{Field: "Status"},
	}
}

// Microbench is a key generation microbenchmark dump, one row per HPKE suite
// run.
func Microbench() *record.Schema {
	return &record.Schema{
		Name: "microbench",
		Fields: []record.FieldSpec{
			record.Named("KEM", record.KindString, ""),
			record.Named("KDF", record.KindString, ""),
			record.Named("AEAD", record.KindString, ""),
			record.Named("Time", record.KindNumber, ""),
		},
	}
}

// Encryption is the encryption and decryption microbenchmark dump.
func Encryption() *record.Schema {
	return &record.Schema{
		Name: "encryption",
		Fields: []record.FieldSpec{
			record.Named("Mode", record.KindString, ""),
			record.Named("KEMKDFAEAD", record.KindString, ""),
			record.Named("Time", record.KindNumber, ""),
		},
	}
}

var builtin = map[string]func() *record.Schema{
	"dnscrypt":     DNSCrypt,
	"pageload":     PageLoad,
	"client":       ClientResult,
	"client-frame": ClientFrame,
	"target":       TargetResult,
	"target-frame": TargetFrame,
	"microbench":   Microbench,
	"encryption":   Encryption,
}

// Builtin returns a fresh copy of the named built-in schema.
func Builtin(name string) (*record.Schema, bool) {
	schema, ok := builtin[name]
	if !ok {
		return nil, false
	}
	return schema(), true
}

func BuiltinNames() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
