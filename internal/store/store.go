// Package store manages the three line-aligned derived stores: embeddings,
// metadatas and texts. Position i across the three files refers to the same
// fragment. Records are only ever appended (by the pipeline) or removed by
// full atomic rewrite (by the Pruner); they are never mutated in place.
package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/openauslaw/oale/internal/oerrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store file names inside the data directory.
const (
	EmbeddingsFile = "embeddings.jsonl"
	MetadatasFile  = "metadatas.jsonl"
	TextsFile      = "texts.jsonl"
)

// FragmentMeta is the metadata persisted for one fragment. It carries the
// owning document's fields (minus its text), the fragment's position within
// its group, and the passthrough fields copied verbatim from the corpus.
type FragmentMeta struct {
	VersionID      string
	Citation       string
	Jurisdiction   string
	Type           string
	Fragment       int
	IsLastFragment bool
	Extra          map[string]any
}

// MarshalJSON flattens the metadata and its passthrough fields into a single
// object.
func (m FragmentMeta) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(m.Extra)+6)
	for k, v := range m.Extra {
		obj[k] = v
	}
	obj["version_id"] = m.VersionID
	obj["citation"] = m.Citation
	obj["jurisdiction"] = m.Jurisdiction
	obj["type"] = m.Type
	obj["fragment"] = m.Fragment
	obj["is_last_fragment"] = m.IsLastFragment
	return json.Marshal(obj)
}

// UnmarshalJSON splits known fields back out of the flattened object.
func (m *FragmentMeta) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Extra = make(map[string]any)
	for k, v := range raw {
		switch k {
		case "version_id":
			m.VersionID, _ = v.(string)
		case "citation":
			m.Citation, _ = v.(string)
		case "jurisdiction":
			m.Jurisdiction, _ = v.(string)
		case "type":
			m.Type, _ = v.(string)
		case "fragment":
			if f, ok := v.(float64); ok {
				m.Fragment = int(f)
			}
		case "is_last_fragment":
			m.IsLastFragment, _ = v.(bool)
		default:
			m.Extra[k] = v
		}
	}
	return nil
}

// Record is one persisted (vector, metadata, text) triple.
type Record struct {
	Embedding []float32
	Meta      FragmentMeta
	Text      string
}

// Store locates the three derived files inside a data directory.
type Store struct {
	dir string
}

// Open prepares the store rooted at dir, creating empty files as needed so a
// first run starts from three aligned empty stores.
func Open(dir string) (*Store, error) {
	s := &Store{dir: dir}
	for _, path := range s.Paths() {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, oerrors.StoreIO("create", path, err)
		}
		if err := f.Close(); err != nil {
			return nil, oerrors.StoreIO("close", path, err)
		}
	}
	return s, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// EmbeddingsPath returns the embeddings store path.
func (s *Store) EmbeddingsPath() string { return filepath.Join(s.dir, EmbeddingsFile) }

// MetadatasPath returns the metadata store path.
func (s *Store) MetadatasPath() string { return filepath.Join(s.dir, MetadatasFile) }

// TextsPath returns the texts store path.
func (s *Store) TextsPath() string { return filepath.Join(s.dir, TextsFile) }

// Paths returns the three store paths.
func (s *Store) Paths() [3]string {
	return [3]string{s.EmbeddingsPath(), s.MetadatasPath(), s.TextsPath()}
}

// CountLines counts the newline-terminated lines in the file at path.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := bufio.NewReaderSize(f, 1<<20)
	count := 0
	for {
		_, err := r.ReadBytes('\n')
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to count lines in %s: %w", path, err)
		}
		count++
	}
}

// Appender appends records to the three stores in lock-step. Appends are
// buffered; Flush commits a batch so that a crash loses at most the
// in-flight batch, which the next run's scanner detects and re-derives.
type Appender struct {
	files   [3]*os.File
	writers [3]*bufio.Writer
}

// NewAppender opens the three stores for appending.
func (s *Store) NewAppender() (*Appender, error) {
	a := &Appender{}
	for i, path := range s.Paths() {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			for j := 0; j < i; j++ {
				_ = a.files[j].Close()
			}
			return nil, oerrors.StoreIO("open for append", path, err)
		}
		a.files[i] = f
		a.writers[i] = bufio.NewWriterSize(f, 1<<20)
	}
	return a, nil
}

// Append writes one line per record to each store, preserving position
// alignment.
func (a *Appender) Append(records []Record) error {
	for _, rec := range records {
		embedding, err := json.Marshal(rec.Embedding)
		if err != nil {
			return fmt.Errorf("failed to encode embedding: %w", err)
		}
		meta, err := json.Marshal(rec.Meta)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		text, err := json.Marshal(rec.Text)
		if err != nil {
			return fmt.Errorf("failed to encode text: %w", err)
		}

		lines := [3][]byte{embedding, meta, text}
		for i, line := range lines {
			if _, err := a.writers[i].Write(line); err != nil {
				return oerrors.StoreIO("append", a.files[i].Name(), err)
			}
			if err := a.writers[i].WriteByte('\n'); err != nil {
				return oerrors.StoreIO("append", a.files[i].Name(), err)
			}
		}
	}
	return nil
}

// Flush commits buffered records to disk.
func (a *Appender) Flush() error {
	for i, w := range a.writers {
		if err := w.Flush(); err != nil {
			return oerrors.StoreIO("flush", a.files[i].Name(), err)
		}
		if err := a.files[i].Sync(); err != nil {
			return oerrors.StoreIO("sync", a.files[i].Name(), err)
		}
	}
	return nil
}

// Close flushes and closes the three stores.
func (a *Appender) Close() error {
	err := a.Flush()
	for _, f := range a.files {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = oerrors.StoreIO("close", f.Name(), cerr)
		}
	}
	return err
}
