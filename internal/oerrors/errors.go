// Package oerrors defines the structured error types used across oale.
package oerrors

import (
	"errors"
	"fmt"
)

// Category classifies an error for handling and presentation.
type Category string

const (
	CategoryConfig Category = "config"
	CategoryCorpus Category = "corpus"
	CategoryIO     Category = "io"
	CategoryEmbed  Category = "embed"
)

// Sentinel errors for errors.Is matching.
var (
	// ErrConfigMismatch indicates the on-disk config snapshot differs from
	// the current run parameters. Recoverable: the derived store is rebuilt
	// from empty.
	ErrConfigMismatch = errors.New("config snapshot mismatch")

	// ErrMissingCorpus indicates the corpus file does not exist. Fatal at
	// startup, before any run state begins.
	ErrMissingCorpus = errors.New("corpus not found")

	// ErrStoreIO indicates an unrecoverable I/O failure while pruning or
	// appending. Fatal for the current run; committed store state is intact.
	ErrStoreIO = errors.New("store I/O failure")
)

// Error carries a category and an optional cause alongside the message.
type Error struct {
	Category Category
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Category, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a categorized error wrapping an optional cause.
func New(category Category, message string, cause error) *Error {
	return &Error{Category: category, Message: message, Cause: cause}
}

// MissingCorpus builds the startup error for an absent corpus file.
func MissingCorpus(path string) error {
	return New(CategoryCorpus, fmt.Sprintf("corpus not found at %s", path), ErrMissingCorpus)
}

// StoreIO wraps an I/O failure on one of the derived stores.
func StoreIO(op, path string, cause error) error {
	return New(CategoryIO, fmt.Sprintf("%s %s", op, path), fmt.Errorf("%w: %w", ErrStoreIO, cause))
}
