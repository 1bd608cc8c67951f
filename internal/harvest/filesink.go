package harvest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/willowgs/viciharvest/internal/model"
)

// FileSink writes each harvested record to a text file under a base
// directory. Chapter pages land in a subdirectory named after their
// parent work, so an index work's chapters stay together on disk.
type FileSink struct {
	dir string
}

// NewFileSink creates a FileSink rooted at dir, creating it if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Dir returns the base output directory.
func (s *FileSink) Dir() string {
	return s.dir
}

// Store implements Sink. It writes the record as a text file with a
// small metadata header so each file is self-describing.
func (s *FileSink) Store(_ context.Context, record model.ContentRecord) error {
	path := s.recordPath(record)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", record.Title, err)
	}

	var sb strings.Builder
	sb.WriteString("Title: " + record.Title + "\n")
	if record.Parent != "" {
		sb.WriteString("Work: " + record.Parent + "\n")
	}
	sb.WriteString("Source: " + record.SourceURL + "\n")
	sb.WriteString("Retrieved: " + record.RetrievedAt.UTC().Format("2006-01-02T15:04:05Z") + "\n")
	sb.WriteString("\n")
	sb.WriteString(record.Text)
	if !strings.HasSuffix(record.Text, "\n") {
		sb.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

// recordPath maps a record to its on-disk location. Leaf works become
// <dir>/<title>.txt; chapters become <dir>/<parent>/<title>.txt.
func (s *FileSink) recordPath(record model.ContentRecord) string {
	name := sanitizeFilename(record.Title)
	if record.Parent == "" {
		return filepath.Join(s.dir, name+".txt")
	}
	// Chapter titles usually embed the parent ("Aeneis/Liber I");
	// strip it so the file name inside the work directory stays short.
	name = sanitizeFilename(strings.TrimPrefix(record.Title, record.Parent+"/"))
	return filepath.Join(s.dir, sanitizeFilename(record.Parent), name+".txt")
}

// sanitizeFilename makes a wiki title safe to use as a file name.
func sanitizeFilename(title string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name := replacer.Replace(title)
	name = strings.TrimSpace(name)
	if name == "" {
		name = "untitled"
	}
	return name
}
