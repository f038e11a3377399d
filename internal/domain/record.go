package domain

import "time"

// Status is the review state of a staged record. Transitions are monotonic:
// PENDING may become EDITED any number of times; APPROVED and REJECTED are
// terminal and never reversed.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusEdited   Status = "EDITED"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Verdict is a review decision applied to a pending record.
type Verdict string

const (
	VerdictApprove Verdict = "APPROVE"
	VerdictReject  Verdict = "REJECT"
)

// PendingRecord is one staged message awaiting review. Body holds the
// current, possibly edited text; Message preserves the original as received.
type PendingRecord struct {
	ID        string        `json:"id"`
	Message   RawMessage    `json:"message"`
	Body      string        `json:"body"`
	Entries   []ParsedEntry `json:"entries"`
	Issues    []LineIssue   `json:"issues,omitempty"`
	Status    Status        `json:"status"`
	Customer  string        `json:"customer,omitempty"`
	Bazar     string        `json:"bazar,omitempty"`
	Total     int           `json:"total"`
	CreatedAt time.Time     `json:"created_at"`
	DecidedAt *time.Time    `json:"decided_at,omitempty"`
	Committed bool          `json:"committed"`
}

// EntryCount returns the number of concrete stakes across all entries.
func (r *PendingRecord) EntryCount() int {
	n := 0
	for _, e := range r.Entries {
		n += len(e.Stakes)
	}
	return n
}
