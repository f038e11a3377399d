// Package approval turns review decisions into permanent ledger writes.
package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SohamSachinDhore/bet-v2/internal/calc"
	"github.com/SohamSachinDhore/bet-v2/internal/domain"
)

// LedgerStore is the slice of the repository layer the coordinator writes
// through. The production implementation is repository.LedgerRepo.
type LedgerStore interface {
	SaveBatch(entries []domain.LedgerEntry) (int, error)
}

// CustomerStore resolves reviewer-supplied customer names to ids.
type CustomerStore interface {
	GetOrCreate(name string) (*domain.Customer, error)
}

// BazarStore validates reviewer-supplied market names.
type BazarStore interface {
	Exists(name string) (bool, error)
}

// Coordinator implements the queue's decision hook. On approval it
// re-expands the record's current body, resolves the customer and bazar,
// and commits the resulting entries as one batch. Any failure surfaces as
// a CommitError and leaves the record undecided.
type Coordinator struct {
	engine    *calc.Engine
	ledger    LedgerStore
	customers CustomerStore
	bazars    BazarStore
	log       *logrus.Entry
}

func NewCoordinator(engine *calc.Engine, ledger LedgerStore, customers CustomerStore, bazars BazarStore, log *logrus.Logger) *Coordinator {
	return &Coordinator{
		engine:    engine,
		ledger:    ledger,
		customers: customers,
		bazars:    bazars,
		log:       log.WithField("component", "approval"),
	}
}

// Decide commits an approval's entries to the ledger. Rejections have no
// side effects and always succeed.
func (c *Coordinator) Decide(ctx context.Context, rec *domain.PendingRecord, verdict domain.Verdict) error {
	if verdict != domain.VerdictApprove {
		c.log.WithField("record", rec.ID).Info("record rejected, nothing committed")
		return nil
	}

	if err := ctx.Err(); err != nil {
		return &domain.CommitError{RecordID: rec.ID, Err: err}
	}

	if rec.Customer == "" {
		return &domain.CommitError{RecordID: rec.ID, Err: fmt.Errorf("approval requires a customer")}
	}
	known, err := c.bazars.Exists(rec.Bazar)
	if err != nil {
		return &domain.CommitError{RecordID: rec.ID, Err: fmt.Errorf("check bazar: %w", err)}
	}
	if !known {
		return &domain.CommitError{RecordID: rec.ID, Err: fmt.Errorf("unknown bazar %q", rec.Bazar)}
	}

	// Expand the current body, not the staged entries: an edit may have
	// landed since the record was last parsed.
	res := c.engine.Process(rec.Body)
	if len(res.Entries) == 0 {
		return &domain.CommitError{RecordID: rec.ID, Err: domain.ErrNoEntries}
	}

	customer, err := c.customers.GetOrCreate(rec.Customer)
	if err != nil {
		return &domain.CommitError{RecordID: rec.ID, Err: fmt.Errorf("resolve customer: %w", err)}
	}

	entries := buildEntries(rec, customer, res)
	if _, err := c.ledger.SaveBatch(entries); err != nil {
		return &domain.CommitError{RecordID: rec.ID, Err: err}
	}

	c.log.WithFields(logrus.Fields{
		"record":   rec.ID,
		"customer": customer.Name,
		"bazar":    rec.Bazar,
		"entries":  len(entries),
		"total":    res.Total,
	}).Info("record committed to ledger")
	return nil
}

func buildEntries(rec *domain.PendingRecord, customer *domain.Customer, res calc.Result) []domain.LedgerEntry {
	now := time.Now().UTC()
	entryDate := rec.Message.ReceivedAt
	if entryDate.IsZero() {
		entryDate = now
	}

	var entries []domain.LedgerEntry
	for _, parsed := range res.Entries {
		for _, stake := range parsed.Stakes {
			entries = append(entries, domain.LedgerEntry{
				ID:             uuid.NewString(),
				CustomerID:     customer.ID,
				CustomerName:   customer.Name,
				Bazar:          rec.Bazar,
				Number:         stake.Number,
				Amount:         stake.Amount,
				EntryDate:      entryDate,
				Format:         parsed.Format,
				SourceLine:     parsed.Line,
				SourceRecordID: rec.ID,
				CreatedAt:      now,
			})
		}
	}
	return entries
}
