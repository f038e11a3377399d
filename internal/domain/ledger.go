package domain

import "time"

// LedgerEntry is one permanent row produced by committing an approved
// record. A record commits as a single batch: all of its entries persist
// or none do.
type LedgerEntry struct {
	ID             string    `json:"id"`
	CustomerID     int64     `json:"customer_id"`
	CustomerName   string    `json:"customer_name"`
	Bazar          string    `json:"bazar"`
	Number         int       `json:"number"`
	Amount         int       `json:"amount"`
	EntryDate      time.Time `json:"entry_date"`
	Format         Format    `json:"format"`
	SourceLine     string    `json:"source_line"`
	SourceRecordID string    `json:"source_record_id"`
	CreatedAt      time.Time `json:"created_at"`
}
