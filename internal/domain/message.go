package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// RawMessage is one forwarded stake slip as received from the notifier.
// It is immutable once constructed; edits during review produce a new body
// on the owning PendingRecord, never a mutation of the original.
type RawMessage struct {
	SenderName  string    `json:"sender_name"`
	SenderPhone string    `json:"sender_phone,omitempty"`
	GroupName   string    `json:"group_name"`
	Body        string    `json:"body"`
	ReceivedAt  time.Time `json:"received_at"`
}

// Fingerprint returns the dedup key for this message: a hash of the
// normalized sender, group and body. Normalization lowercases and collapses
// runs of whitespace so that retransmissions with cosmetic differences
// still collide.
func (m RawMessage) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(normalize(m.SenderName)))
	h.Write([]byte{0})
	h.Write([]byte(normalize(m.GroupName)))
	h.Write([]byte{0})
	h.Write([]byte(normalize(m.Body)))
	return hex.EncodeToString(h.Sum(nil))
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
