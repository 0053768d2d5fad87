package oerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_FormatsCategoryAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := New(CategoryIO, "writing embeddings", cause)

	assert.Equal(t, "[io] writing embeddings: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestError_FormatsWithoutCause(t *testing.T) {
	err := New(CategoryConfig, "bad chunk size", nil)
	assert.Equal(t, "[config] bad chunk size", err.Error())
}

func TestMissingCorpus_MatchesSentinel(t *testing.T) {
	err := MissingCorpus("/tmp/corpus.jsonl")

	assert.ErrorIs(t, err, ErrMissingCorpus)
	assert.Contains(t, err.Error(), "/tmp/corpus.jsonl")
}

func TestStoreIO_MatchesSentinelAndKeepsCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := StoreIO("open", "/data/texts.jsonl", cause)

	assert.ErrorIs(t, err, ErrStoreIO)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "open /data/texts.jsonl")
}
