// Package corpus streams documents from the corpus JSONL file in stable
// order. Documents are read-only to the rest of the system.
package corpus

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/openauslaw/oale/internal/oerrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// IdentifierField is the JSON field naming a document's stable identifier.
// It is the sole basis for change detection.
const IdentifierField = "version_id"

// Document is one corpus record. Known fields are extracted; everything else
// is kept in Extra and copied verbatim into derived fragment metadata.
type Document struct {
	VersionID    string
	Citation     string
	Jurisdiction string
	Type         string
	Text         string
	Extra        map[string]any
}

// Decode parses a corpus line into a Document.
func Decode(line []byte) (*Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	doc := &Document{Extra: make(map[string]any)}
	for k, v := range raw {
		switch k {
		case IdentifierField:
			doc.VersionID, _ = v.(string)
		case "citation":
			doc.Citation, _ = v.(string)
		case "jurisdiction":
			doc.Jurisdiction, _ = v.(string)
		case "type":
			doc.Type, _ = v.(string)
		case "text":
			doc.Text, _ = v.(string)
		default:
			doc.Extra[k] = v
		}
	}

	if doc.VersionID == "" {
		return nil, fmt.Errorf("document missing %s", IdentifierField)
	}
	return doc, nil
}

// Identifier extracts just the identifier from a raw corpus line without
// decoding the full document. Used to skip documents that are not missing.
func Identifier(line []byte) string {
	return jsoniter.Get(line, IdentifierField).ToString()
}

// Reader streams raw corpus lines in file order.
type Reader struct {
	file *bufio.Reader
	f    *os.File
}

// Open opens the corpus for streaming. A missing file is the fatal
// startup error oerrors.ErrMissingCorpus.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oerrors.MissingCorpus(path)
		}
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	return &Reader{file: bufio.NewReaderSize(f, 1<<20), f: f}, nil
}

// Next returns the next raw line without its trailing newline. It returns
// io.EOF after the last line.
func (r *Reader) Next() ([]byte, error) {
	line, err := r.file.ReadBytes('\n')
	if err == io.EOF {
		if len(bytes.TrimSpace(line)) == 0 {
			return nil, io.EOF
		}
		return bytes.TrimRight(line, "\n"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus line: %w", err)
	}
	return bytes.TrimRight(line, "\n"), nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// Identifiers streams the corpus once and returns every document identifier
// in corpus order.
func Identifiers(path string) ([]string, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	var ids []string
	for {
		line, err := r.Next()
		if err == io.EOF {
			return ids, nil
		}
		if err != nil {
			return nil, err
		}
		id := Identifier(line)
		if id == "" {
			return nil, fmt.Errorf("corpus line %d missing %s", len(ids), IdentifierField)
		}
		ids = append(ids, id)
	}
}
