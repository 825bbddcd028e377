package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kcz17/dnslatency/logging"
	"github.com/kcz17/dnslatency/record"
	"github.com/schollz/progressbar/v3"
)

type Kind string

const (
	KindDelimited   Kind = "delimited"
	KindCSV         Kind = "csv"
	KindJSONLines   Kind = "jsonl"
	KindCloudExport Kind = "cloud"
)

// Source is one log family on disk: a single file or a directory of files
// sharing a schema.
type Source struct {
	Name   string
	Kind   Kind
	Path   string
	Schema *record.Schema

	// Delimiter separates columns of KindDelimited logs. Defaults to a tab.
	Delimiter string
	// Exclude lists file name globs skipped when Path is a directory.
	Exclude []string
	// Tags are attached to every record of the source.
	Tags []record.Tag
	// FilenameTag, if set, names a field receiving the file name with
	// FilenameTrim removed, e.g. client "uw" from "uw-query.log".
	FilenameTag  string
	FilenameTrim string
	// Platforms and PlatformField configure KindCloudExport sources.
	Platforms     []Platform
	PlatformField string

	// Progress receives a progress bar over files. Nil disables it.
	Progress io.Writer
}

func (s *Source) Validate() error {
	if s.Path == "" {
		return fmt.Errorf("Source.Validate() source %s expected a path", s.Name)
	}
	if s.Schema == nil {
		return fmt.Errorf("Source.Validate() source %s expected a schema", s.Name)
	}
	if err := s.Schema.Validate(); err != nil {
		return fmt.Errorf("Source.Validate() source %s: %w", s.Name, err)
	}
	switch s.Kind {
	case KindDelimited, KindCSV, KindJSONLines:
	case KindCloudExport:
		if len(s.Platforms) == 0 {
			return fmt.Errorf("Source.Validate() cloud source %s expected at least one platform", s.Name)
		}
	default:
		return fmt.Errorf("Source.Validate() source %s has unknown kind %q", s.Name, s.Kind)
	}
	for _, pattern := range s.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("Source.Validate() source %s has bad exclude pattern %q: %w", s.Name, pattern, err)
		}
	}
	return nil
}

func (s *Source) newReader(r io.Reader) (Reader, error) {
	switch s.Kind {
	case KindDelimited:
		return NewDelimitedReader(r, s.Delimiter), nil
	case KindCSV:
		return NewCSVReader(r)
	case KindJSONLines:
		return NewJSONLinesReader(r), nil
	case KindCloudExport:
		field := s.PlatformField
		if field == "" {
			field = "Platform"
		}
		return NewCloudExportReader(r, s.Platforms, field), nil
	}
	return nil, fmt.Errorf("unknown source kind %q", s.Kind)
}

func (s *Source) excluded(name string) bool {
	for _, pattern := range s.Exclude {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// files lists the regular files of the source in lexical order.
func (s *Source) files() ([]string, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{s.Path}, nil
	}

	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || s.excluded(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(s.Path, entry.Name()))
	}
	return files, nil
}

// Stats counts entries of a load. Read == Kept + Skipped.
type Stats struct {
	Files   int
	Read    int
	Kept    int
	Skipped int
}

func (s *Stats) add(other Stats) {
	s.Files += other.Files
	s.Read += other.Read
	s.Kept += other.Kept
	s.Skipped += other.Skipped
}

// Load reads and normalizes every entry of the source. Malformed entries are
// reported to logger and skipped; I/O failures abort the load.
func Load(ctx context.Context, src *Source, logger logging.Logger) ([]*record.Record, Stats, error) {
	var total Stats
	if err := src.Validate(); err != nil {
		return nil, total, err
	}
	files, err := src.files()
	if err != nil {
		return nil, total, fmt.Errorf("Load() source %s: %w", src.Name, err)
	}

	progress := src.Progress
	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions(
		len(files),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription(src.Name),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(progress, "\n")
		}),
	)

	var records []*record.Record
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, total, err
		}
		loaded, stats, err := src.loadFile(ctx, path, logger)
		if err != nil {
			return nil, total, fmt.Errorf("Load() source %s: %w", src.Name, err)
		}
		records = append(records, loaded...)
		total.add(stats)
		logger.LogSourceLoaded(filepath.Base(path), stats.Read, stats.Kept, stats.Skipped)
		_ = bar.Add(1)
	}
	return records, total, nil
}

func (s *Source) tags(path string) []record.Tag {
	tags := make([]record.Tag, 0, len(s.Tags)+1)
	tags = append(tags, s.Tags...)
	if s.FilenameTag != "" {
		name := filepath.Base(path)
		if s.FilenameTrim != "" {
			if i := strings.Index(name, s.FilenameTrim); i >= 0 {
				name = name[:i]
			}
		}
		tags = append(tags, record.Tag{Field: s.FilenameTag, Value: name})
	}
	return tags
}

func (s *Source) loadFile(ctx context.Context, path string, logger logging.Logger) ([]*record.Record, Stats, error) {
	stats := Stats{Files: 1}
	f, err := os.Open(path)
	if err != nil {
		return nil, stats, err
	}
	defer f.Close()

	reader, err := s.newReader(f)
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", path, err)
	}
	tags := s.tags(path)

	var records []*record.Record
	for {
		entry, line, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, record.ErrMalformedEntry) {
			stats.Read++
			stats.Skipped++
			logger.LogMalformedEntry(path, err)
			continue
		}
		if err != nil {
			return nil, stats, fmt.Errorf("%s: %w", path, err)
		}
		stats.Read++
		if stats.Read%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		rec, err := record.Normalize(entry, s.Schema, path, line)
		if err != nil {
			stats.Skipped++
			logger.LogMalformedEntry(path, err)
			continue
		}
		records = append(records, rec.WithTags(tags))
		stats.Kept++
	}
	return records, stats, nil
}
