package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the pending queue.
var (
	// ErrDuplicate means an equal fingerprint was enqueued within the dedup
	// window. Informational: the caller reports "already queued", not a failure.
	ErrDuplicate = errors.New("duplicate message within dedup window")

	// ErrNotFound means no pending record exists for the given id.
	ErrNotFound = errors.New("pending record not found")

	// ErrAlreadyDecided is returned to the losers of a decide race.
	ErrAlreadyDecided = errors.New("record already decided")

	// ErrNoEntries blocks approval of a record with no valid parsed entries.
	ErrNoEntries = errors.New("record has no valid entries")
)

// ParseError is a line-scoped grammar failure. It is collected per line,
// never raised for the whole message.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Line, e.Reason)
}

// ValidationError is a line-scoped semantic failure: bad amount, unknown
// lookup key, or an expansion with no members.
type ValidationError struct {
	Line   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %q: %s", e.Line, e.Reason)
}

// CommitError means the permanent-store write failed. The record stays
// non-terminal so the operator can retry the approval.
type CommitError struct {
	RecordID string
	Err      error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit record %s: %v", e.RecordID, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
