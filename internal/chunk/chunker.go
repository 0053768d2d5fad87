// Package chunk splits documents into token-bounded fragments for embedding.
// Every fragment is prefixed with a short context header derived from the
// document's classification fields; the header is vectorization context only
// and is stripped before the fragment text is persisted.
package chunk

import (
	"fmt"

	"github.com/openauslaw/oale/internal/corpus"
	"github.com/openauslaw/oale/internal/store"
)

// TokenCounter counts text length in the embedding model's native tokens.
type TokenCounter func(text string) int

// TokensPerChar is the rough approximation used by the default counter:
// 4 characters per token.
const TokensPerChar = 4

// EstimateTokens is the default TokenCounter.
func EstimateTokens(text string) int {
	return len(text) / TokensPerChar
}

// jurisdictionNames maps corpus jurisdiction codes to the display names used
// in fragment headers.
var jurisdictionNames = map[string]string{
	"commonwealth":      "Commonwealth of Australia",
	"new_south_wales":   "New South Wales",
	"norfolk_island":    "Norfolk Island",
	"queensland":        "Queensland",
	"south_australia":   "South Australia",
	"tasmania":          "Tasmania",
	"western_australia": "Western Australia",
}

// typeNames maps corpus document types to the display names used in fragment
// headers.
var typeNames = map[string]string{
	"primary_legislation":   "Act",
	"secondary_legislation": "Regulation",
	"bill":                  "Bill",
	"decision":              "Judgment",
}

// Result is the outcome of chunking one document: the fragments submitted to
// the embedding backend (header included), one metadata record per fragment,
// and each fragment's header length in bytes for later stripping.
type Result struct {
	Fragments  []string
	Metas      []store.FragmentMeta
	HeaderLens []int
}

// Chunker splits documents into fragments of at most Size tokens, header
// included. It is stateless and safe for concurrent use.
type Chunker struct {
	size    int
	counter TokenCounter
}

// New creates a Chunker for the given fragment size in tokens. A nil counter
// uses EstimateTokens.
func New(size int, counter TokenCounter) *Chunker {
	if counter == nil {
		counter = EstimateTokens
	}
	return &Chunker{size: size, counter: counter}
}

// Header builds the context header for a document. Unknown jurisdiction or
// type codes fall back to the raw corpus value.
func Header(doc *corpus.Document) string {
	jurisdiction := doc.Jurisdiction
	if name, ok := jurisdictionNames[doc.Jurisdiction]; ok {
		jurisdiction = name
	}
	docType := doc.Type
	if name, ok := typeNames[doc.Type]; ok {
		docType = name
	}
	return fmt.Sprintf("Title: %s\nJurisdiction: %s\nType: %s\n", doc.Citation, jurisdiction, docType)
}

// Chunk splits one document. The header's token count is charged against the
// fragment budget, so header+body never exceeds the configured size. A
// document whose text yields no fragments returns an empty Result, not an
// error.
func (c *Chunker) Chunk(doc *corpus.Document) (*Result, error) {
	header := Header(doc)
	budget := c.size - c.counter(header)
	if budget <= 0 {
		return nil, fmt.Errorf("chunk size %d too small for header of %q", c.size, doc.VersionID)
	}

	bodies := split(doc.Text, budget, c.counter)
	if len(bodies) == 0 {
		return &Result{}, nil
	}

	result := &Result{
		Fragments:  make([]string, len(bodies)),
		Metas:      make([]store.FragmentMeta, len(bodies)),
		HeaderLens: make([]int, len(bodies)),
	}
	for i, body := range bodies {
		result.Fragments[i] = header + body
		result.HeaderLens[i] = len(header)
		result.Metas[i] = store.FragmentMeta{
			VersionID:      doc.VersionID,
			Citation:       doc.Citation,
			Jurisdiction:   doc.Jurisdiction,
			Type:           doc.Type,
			Fragment:       i,
			IsLastFragment: i == len(bodies)-1,
			Extra:          doc.Extra,
		}
	}
	return result, nil
}
