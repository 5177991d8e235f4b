// Package export streams a user's notes into a zip archive.
package export

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/flate"
	"github.com/mdhub/note-service/internal/models"
)

// compressionLevel is the deflate level used for archive entries
const compressionLevel = 3

// manifestName is the metadata entry written alongside the notes
const manifestName = "manifest.xml"

// NameTable tracks the entry names already used within one export so every
// note gets a distinct filename.
type NameTable struct {
	mu   sync.Mutex
	used map[string]bool
}

// NewNameTable creates an empty name table
func NewNameTable() *NameTable {
	return &NameTable{used: map[string]bool{}}
}

// Reserve marks a name as taken without deriving it from a title
func (t *NameTable) Reserve(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.used[name] = true
}

// Claim derives a unique ".md" filename from a note title and marks it used.
// Forward slashes are replaced with hyphens so a title cannot become a nested
// path inside the archive. The first candidate is "<title>.md"; on collision
// the numeric suffixes start at 0: "<title>-0.md", "<title>-1.md", and so on.
func (t *NameTable) Claim(title string) string {
	basename := strings.ReplaceAll(title, "/", "-")

	t.mu.Lock()
	defer t.mu.Unlock()
	name := basename + ".md"
	for n := 0; t.used[name]; n++ {
		name = fmt.Sprintf("%s-%d.md", basename, n)
	}
	t.used[name] = true
	return name
}

// Write streams the notes into w as a zip archive. Entries are written as
// they are produced; nothing is buffered beyond the current entry, so partial
// output may already have reached the sink when an error is returned.
func Write(w io.Writer, notes []*models.Note) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, compressionLevel)
	})

	names := NewNameTable()
	names.Reserve(manifestName)

	manifest := etree.NewDocument()
	manifest.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := manifest.CreateElement("export")

	for _, note := range notes {
		filename := names.Claim(note.Title)

		header := &zip.FileHeader{
			Name:     filename,
			Method:   zip.Deflate,
			Modified: note.LastchangeAt,
		}
		entry, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", filename, err)
		}
		if _, err := entry.Write([]byte(note.Content)); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", filename, err)
		}

		e := root.CreateElement("note")
		e.CreateAttr("filename", filename)
		e.CreateAttr("lastchange", note.LastchangeAt.Format(time.RFC3339))
		e.SetText(note.Title)
	}

	entry, err := zw.Create(manifestName)
	if err != nil {
		return fmt.Errorf("failed to add manifest to archive: %w", err)
	}
	manifest.Indent(2)
	if _, err := manifest.WriteTo(entry); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}
