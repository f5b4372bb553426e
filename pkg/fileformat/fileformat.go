// Package fileformat is the entry point for working with GnuCash files. It
// detects the on-disk encoding by content signature and dispatches to the
// matching codec.
package fileformat

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnewcash/gnewcash-go/pkg/gnc"
	"github.com/gnewcash/gnewcash-go/pkg/sqliteformat"
	"github.com/gnewcash/gnewcash-go/pkg/xmlformat"
)

// Format identifies a GnuCash on-disk encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatXML
	FormatGzipXML
	FormatSQLite
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatGzipXML:
		return "gzip-xml"
	case FormatSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// ParseFormat converts a format name as accepted on the command line.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "xml":
		return FormatXML, nil
	case "gzip", "gzip-xml":
		return FormatGzipXML, nil
	case "sqlite":
		return FormatSQLite, nil
	default:
		return FormatUnknown, fmt.Errorf("unknown format %q", name)
	}
}

var (
	sqliteSignature = []byte("SQLite format 3\x00")
	gzipSignature   = []byte{0x1f, 0x8b}
)

// Detect reports the encoding of the file at path from its leading bytes.
// Files too short to carry a signature are treated as plain XML.
func Detect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, len(sqliteSignature))
	n, _ := f.Read(header)
	header = header[:n]

	switch {
	case bytes.Equal(header, sqliteSignature):
		return FormatSQLite, nil
	case len(header) >= 2 && bytes.Equal(header[:2], gzipSignature):
		return FormatGzipXML, nil
	default:
		return FormatXML, nil
	}
}

// LoadOptions control how transactions are ordered while loading.
type LoadOptions struct {
	// DisableSort keeps transactions in source order instead of re-sorting
	// them by post date on insert.
	DisableSort bool

	// SortMethod overrides the transaction ordering. Nil means post date
	// ascending with a guid tie-break.
	SortMethod gnc.SortMethod
}

// Load reads the GnuCash file at path, whatever its encoding. A missing file
// is a soft condition: it is logged and an empty document is returned so a
// caller can build a new book and save it to the same path.
func Load(path string, opts LoadOptions) (*gnc.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Warn("gnucash file does not exist, starting from an empty document", "path", path)
		doc := gnc.NewFile()
		doc.FileName = filepath.Base(path)
		return doc, nil
	}

	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatSQLite:
		return sqliteformat.ReadFile(path, sqliteformat.ReadOptions{
			DisableSort: opts.DisableSort,
			SortMethod:  opts.SortMethod,
		})
	default:
		// The XML reader unwraps gzip on its own.
		return xmlformat.ReadFile(path, xmlformat.ReadOptions{
			DisableSort: opts.DisableSort,
			SortMethod:  opts.SortMethod,
		})
	}
}

// SaveOptions control the target encoding of Save.
type SaveOptions struct {
	// Format selects the encoding. FormatUnknown keeps the encoding of an
	// existing destination file and falls back to plain XML for a new one.
	Format Format

	// Pretty indents XML output. Ignored for SQLite targets.
	Pretty bool
}

// Save writes the document to path in the requested encoding.
func Save(doc *gnc.File, path string, opts SaveOptions) error {
	format := opts.Format
	if format == FormatUnknown {
		if _, err := os.Stat(path); err == nil {
			if format, err = Detect(path); err != nil {
				return err
			}
		} else {
			format = FormatXML
		}
	}

	switch format {
	case FormatSQLite:
		return sqliteformat.WriteFile(doc, path)
	case FormatGzipXML:
		return xmlformat.WriteFile(doc, path, xmlformat.WriteOptions{Pretty: opts.Pretty, Compress: true})
	default:
		return xmlformat.WriteFile(doc, path, xmlformat.WriteOptions{Pretty: opts.Pretty})
	}
}
