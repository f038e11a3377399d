// Package queue holds parsed messages in memory while they await review.
// Records move PENDING -> EDITED* -> APPROVED|REJECTED; terminal states are
// never left. All operations are safe for concurrent use.
package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/SohamSachinDhore/bet-v2/internal/calc"
	"github.com/SohamSachinDhore/bet-v2/internal/domain"
)

// Decider applies the side effects of an approval before the record is
// marked terminal. A nil return commits the transition; an error leaves the
// record in its prior reviewable state.
type Decider interface {
	Decide(ctx context.Context, rec *domain.PendingRecord, verdict domain.Verdict) error
}

// Options tune the duplicate-suppression window. Zero values fall back to
// the defaults below.
type Options struct {
	DedupWindow time.Duration
	DedupSize   int
}

const (
	defaultDedupWindow = 10 * time.Minute
	defaultDedupSize   = 2048
)

// slot pairs a record with its own mutex so that update and decide calls
// for one record serialize without blocking the rest of the queue.
type slot struct {
	mu  sync.Mutex
	rec domain.PendingRecord
}

// Queue is the staging area between ingestion and the permanent ledger.
type Queue struct {
	engine  *calc.Engine
	decider Decider
	log     *logrus.Entry

	mu    sync.RWMutex
	slots map[string]*slot

	// seenMu makes the fingerprint check-and-reserve atomic; the LRU's own
	// locking only covers single calls, not the Get/Add pair.
	seenMu sync.Mutex
	seen   *expirable.LRU[string, string]
}

// New creates an empty queue. The decider is consulted on every Decide
// call before a record turns terminal.
func New(engine *calc.Engine, decider Decider, log *logrus.Logger, opts Options) *Queue {
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = defaultDedupWindow
	}
	if opts.DedupSize <= 0 {
		opts.DedupSize = defaultDedupSize
	}
	return &Queue{
		engine:  engine,
		decider: decider,
		log:     log.WithField("component", "queue"),
		slots:   make(map[string]*slot),
		seen:    expirable.NewLRU[string, string](opts.DedupSize, nil, opts.DedupWindow),
	}
}

// Enqueue parses the message and stages it for review. A message whose
// fingerprint was seen within the dedup window is dropped with
// domain.ErrDuplicate and the id of the record that absorbed it.
func (q *Queue) Enqueue(msg domain.RawMessage) (domain.PendingRecord, error) {
	fp := msg.Fingerprint()
	id := uuid.NewString()

	// Reserve the fingerprint before parsing so that concurrent identical
	// deliveries collapse onto one record: whoever reserves first stages,
	// everyone else sees the reservation and reports the duplicate.
	q.seenMu.Lock()
	if prior, ok := q.seen.Get(fp); ok {
		q.seenMu.Unlock()
		q.log.WithFields(logrus.Fields{
			"sender": msg.SenderName,
			"record": prior,
		}).Info("duplicate message suppressed")
		return domain.PendingRecord{ID: prior}, domain.ErrDuplicate
	}
	q.seen.Add(fp, id)
	q.seenMu.Unlock()

	res := q.engine.Process(msg.Body)
	rec := domain.PendingRecord{
		ID:        id,
		Message:   msg,
		Body:      msg.Body,
		Entries:   res.Entries,
		Issues:    res.Issues,
		Status:    domain.StatusPending,
		Total:     res.Total,
		CreatedAt: time.Now().UTC(),
	}

	q.mu.Lock()
	q.slots[rec.ID] = &slot{rec: rec}
	q.mu.Unlock()

	q.log.WithFields(logrus.Fields{
		"record":  rec.ID,
		"sender":  msg.SenderName,
		"group":   msg.GroupName,
		"entries": len(rec.Entries),
		"issues":  len(rec.Issues),
		"total":   rec.Total,
	}).Info("message staged")
	return rec, nil
}

// Get returns a copy of one record.
func (q *Queue) Get(id string) (domain.PendingRecord, error) {
	s, err := q.slot(id)
	if err != nil {
		return domain.PendingRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec, nil
}

// Filter restricts List output. Zero fields match everything.
type Filter struct {
	Statuses []domain.Status
	Group    string
}

func (f Filter) matches(rec domain.PendingRecord) bool {
	if f.Group != "" && rec.Message.GroupName != f.Group {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, st := range f.Statuses {
		if rec.Status == st {
			return true
		}
	}
	return false
}

// List returns a snapshot of matching records ordered oldest first.
func (q *Queue) List(f Filter) []domain.PendingRecord {
	q.mu.RLock()
	slots := make([]*slot, 0, len(q.slots))
	for _, s := range q.slots {
		slots = append(slots, s)
	}
	q.mu.RUnlock()

	out := make([]domain.PendingRecord, 0, len(slots))
	for _, s := range slots {
		s.mu.Lock()
		rec := s.rec
		s.mu.Unlock()
		if f.matches(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// PendingCount counts records still awaiting a decision.
func (q *Queue) PendingCount() int {
	n := 0
	for _, rec := range q.List(Filter{}) {
		if !rec.Status.Terminal() {
			n++
		}
	}
	return n
}

// Update replaces the record body and reparses it. The original message is
// preserved; only the working body changes. Terminal records reject edits.
func (q *Queue) Update(id, body string) (domain.PendingRecord, error) {
	s, err := q.slot(id)
	if err != nil {
		return domain.PendingRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec.Status.Terminal() {
		return domain.PendingRecord{}, domain.ErrAlreadyDecided
	}

	res := q.engine.Process(body)
	s.rec.Body = body
	s.rec.Entries = res.Entries
	s.rec.Issues = res.Issues
	s.rec.Total = res.Total
	s.rec.Status = domain.StatusEdited

	q.log.WithFields(logrus.Fields{
		"record":  id,
		"entries": len(res.Entries),
		"issues":  len(res.Issues),
	}).Info("record edited")
	return s.rec, nil
}

// Decide resolves a record. Exactly one caller wins a race for the same
// record; the rest get domain.ErrAlreadyDecided. An approval with no valid
// entries is refused, and a decider failure leaves the record reviewable
// so the decision can be retried.
func (q *Queue) Decide(ctx context.Context, id string, verdict domain.Verdict, customer, bazar string) (domain.PendingRecord, error) {
	s, err := q.slot(id)
	if err != nil {
		return domain.PendingRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec.Status.Terminal() {
		return domain.PendingRecord{}, domain.ErrAlreadyDecided
	}
	if verdict == domain.VerdictApprove && s.rec.EntryCount() == 0 {
		return domain.PendingRecord{}, domain.ErrNoEntries
	}

	candidate := s.rec
	candidate.Customer = customer
	candidate.Bazar = bazar

	if err := q.decider.Decide(ctx, &candidate, verdict); err != nil {
		q.log.WithError(err).WithField("record", id).Error("decision not committed")
		return domain.PendingRecord{}, err
	}

	now := time.Now().UTC()
	candidate.DecidedAt = &now
	switch verdict {
	case domain.VerdictApprove:
		candidate.Status = domain.StatusApproved
		candidate.Committed = true
	default:
		candidate.Status = domain.StatusRejected
	}
	s.rec = candidate

	q.log.WithFields(logrus.Fields{
		"record":  id,
		"verdict": verdict,
		"status":  candidate.Status,
	}).Info("record decided")
	return candidate, nil
}

func (q *Queue) slot(id string) (*slot, error) {
	q.mu.RLock()
	s, ok := q.slots[id]
	q.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}
