package feed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// ParseError means the document is not well-formed XML or is not an Atom
// feed. The rest of the source cannot be trusted.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed feed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EntryError rejects a single entry. Reading may continue with Next.
type EntryError struct {
	OriginID string
	Err      error
}

func (e *EntryError) Error() string {
	if e.OriginID == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("entry %s: %v", e.OriginID, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// SourceUnavailableError means the feed could not be opened or read in
// time.
type SourceUnavailableError struct {
	Source   string
	Location string
	Err      error
}

func (e *SourceUnavailableError) Error() string {
	location := e.Location
	if location == "" {
		location = e.Source
	}
	switch {
	case errors.Is(e.Err, fs.ErrNotExist):
		return fmt.Sprintf("Feed file not found: %s", location)
	case errors.Is(e.Err, context.DeadlineExceeded):
		return fmt.Sprintf("Feed %s timed out while reading", location)
	default:
		return fmt.Sprintf("Feed %s unavailable: %v", location, e.Err)
	}
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }
