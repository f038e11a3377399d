package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SohamSachinDhore/bet-v2/internal/calc"
	"github.com/SohamSachinDhore/bet-v2/internal/domain"
	"github.com/SohamSachinDhore/bet-v2/internal/lookup"
)

type stubDecider struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (d *stubDecider) Decide(_ context.Context, _ *domain.PendingRecord, _ domain.Verdict) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return d.err
}

func newQueue(t *testing.T, d Decider) *Queue {
	t.Helper()
	log := logrus.New()
	log.SetOutput(testWriter{t})
	return New(calc.NewEngine(lookup.New()), d, log, Options{})
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func message(body string) domain.RawMessage {
	return domain.RawMessage{
		SenderName: "Ravi",
		GroupName:  "morning slips",
		Body:       body,
		ReceivedAt: time.Now(),
	}
}

func TestEnqueueParsesAndStages(t *testing.T) {
	q := newQueue(t, &stubDecider{})

	rec, err := q.Enqueue(message("123=100\n1SP=50"))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if rec.Status != domain.StatusPending {
		t.Errorf("status %s, want PENDING", rec.Status)
	}
	if len(rec.Entries) != 2 {
		t.Errorf("%d entries, want 2", len(rec.Entries))
	}
	if rec.Total != 100+12*50 {
		t.Errorf("total %d, want %d", rec.Total, 100+12*50)
	}
	if rec.ID == "" {
		t.Error("record has no id")
	}
}

func TestEnqueueDeduplicates(t *testing.T) {
	q := newQueue(t, &stubDecider{})

	first, err := q.Enqueue(message("123=100"))
	if err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}

	dup, err := q.Enqueue(message("123=100"))
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	if dup.ID != first.ID {
		t.Errorf("duplicate points at %q, want %q", dup.ID, first.ID)
	}

	// Cosmetic differences still collide.
	shouty := message("123=100")
	shouty.SenderName = "  RAVI "
	if _, err := q.Enqueue(shouty); !errors.Is(err, domain.ErrDuplicate) {
		t.Errorf("normalized retransmission: err = %v, want ErrDuplicate", err)
	}

	if _, err := q.Enqueue(message("456=200")); err != nil {
		t.Errorf("distinct body should enqueue: %v", err)
	}
}

func TestEnqueueRaceCreatesOneRecord(t *testing.T) {
	q := newQueue(t, &stubDecider{})

	const senders = 64
	var wg sync.WaitGroup
	ids := make([]string, senders)
	errs := make([]error, senders)
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := q.Enqueue(message("123=100"))
			ids[i], errs[i] = rec.ID, err
		}(i)
	}
	wg.Wait()

	staged := 0
	winner := ""
	for i := range errs {
		switch {
		case errs[i] == nil:
			staged++
			winner = ids[i]
		case errors.Is(errs[i], domain.ErrDuplicate):
		default:
			t.Errorf("unexpected error: %v", errs[i])
		}
	}
	if staged != 1 {
		t.Fatalf("%d records created for identical concurrent deliveries, want 1", staged)
	}
	for i := range ids {
		if ids[i] != winner {
			t.Errorf("delivery %d points at record %q, want %q", i, ids[i], winner)
		}
	}
	if got := len(q.List(Filter{})); got != 1 {
		t.Errorf("%d records staged, want 1", got)
	}
}

func TestDedupWindowExpiry(t *testing.T) {
	log := logrus.New()
	log.SetOutput(testWriter{t})
	q := New(calc.NewEngine(lookup.New()), &stubDecider{}, log, Options{
		DedupWindow: 20 * time.Millisecond,
	})

	if _, err := q.Enqueue(message("123=100")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := q.Enqueue(message("123=100")); err != nil {
		t.Errorf("after window expiry: err = %v, want nil", err)
	}
}

func TestUpdateReparsesBody(t *testing.T) {
	q := newQueue(t, &stubDecider{})

	rec, err := q.Enqueue(message("123=100\nbadline"))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if len(rec.Issues) != 1 {
		t.Fatalf("%d issues before edit, want 1", len(rec.Issues))
	}

	edited, err := q.Update(rec.ID, "123=100\n456=200")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if edited.Status != domain.StatusEdited {
		t.Errorf("status %s, want EDITED", edited.Status)
	}
	if len(edited.Issues) != 0 || len(edited.Entries) != 2 {
		t.Errorf("issues %d entries %d, want 0 and 2", len(edited.Issues), len(edited.Entries))
	}
	if edited.Total != 300 {
		t.Errorf("total %d, want 300", edited.Total)
	}
	if edited.Message.Body != "123=100\nbadline" {
		t.Error("original message body must be preserved")
	}
}

func TestUpdateUnknownRecord(t *testing.T) {
	q := newQueue(t, &stubDecider{})
	if _, err := q.Update("nope", "123=100"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDecideApprove(t *testing.T) {
	d := &stubDecider{}
	q := newQueue(t, d)

	rec, err := q.Enqueue(message("123=100"))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	decided, err := q.Decide(context.Background(), rec.ID, domain.VerdictApprove, "Ravi", "T.O")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Status != domain.StatusApproved || !decided.Committed {
		t.Errorf("got status %s committed %v, want APPROVED committed", decided.Status, decided.Committed)
	}
	if decided.Customer != "Ravi" || decided.Bazar != "T.O" {
		t.Errorf("customer %q bazar %q not applied", decided.Customer, decided.Bazar)
	}
	if decided.DecidedAt == nil {
		t.Error("DecidedAt not set")
	}
	if d.calls != 1 {
		t.Errorf("decider called %d times, want 1", d.calls)
	}

	if _, err := q.Decide(context.Background(), rec.ID, domain.VerdictReject, "", ""); !errors.Is(err, domain.ErrAlreadyDecided) {
		t.Errorf("second decide: err = %v, want ErrAlreadyDecided", err)
	}
	if _, err := q.Update(rec.ID, "456=200"); !errors.Is(err, domain.ErrAlreadyDecided) {
		t.Errorf("edit after decide: err = %v, want ErrAlreadyDecided", err)
	}
}

func TestDecideRejectSkipsCommitFlag(t *testing.T) {
	q := newQueue(t, &stubDecider{})

	rec, err := q.Enqueue(message("123=100"))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	decided, err := q.Decide(context.Background(), rec.ID, domain.VerdictReject, "", "")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Status != domain.StatusRejected || decided.Committed {
		t.Errorf("got status %s committed %v, want REJECTED uncommitted", decided.Status, decided.Committed)
	}
}

func TestApproveWithoutEntriesRefused(t *testing.T) {
	q := newQueue(t, &stubDecider{})

	rec, err := q.Enqueue(message("garbage line"))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := q.Decide(context.Background(), rec.ID, domain.VerdictApprove, "Ravi", "T.O"); !errors.Is(err, domain.ErrNoEntries) {
		t.Errorf("err = %v, want ErrNoEntries", err)
	}

	// Rejection of an unparseable record is still allowed.
	if _, err := q.Decide(context.Background(), rec.ID, domain.VerdictReject, "", ""); err != nil {
		t.Errorf("reject: %v", err)
	}
}

func TestDeciderFailureLeavesRecordReviewable(t *testing.T) {
	d := &stubDecider{err: errors.New("ledger unavailable")}
	q := newQueue(t, d)

	rec, err := q.Enqueue(message("123=100"))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := q.Decide(context.Background(), rec.ID, domain.VerdictApprove, "Ravi", "T.O"); err == nil {
		t.Fatal("want decider error surfaced")
	}

	got, err := q.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.StatusPending || got.Committed || got.Customer != "" {
		t.Errorf("record mutated by failed decide: %+v", got)
	}

	// Retry succeeds once the store recovers.
	d.err = nil
	if _, err := q.Decide(context.Background(), rec.ID, domain.VerdictApprove, "Ravi", "T.O"); err != nil {
		t.Errorf("retry: %v", err)
	}
}

func TestDecideRaceHasOneWinner(t *testing.T) {
	d := &stubDecider{}
	q := newQueue(t, d)

	rec, err := q.Enqueue(message("123=100"))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	const racers = 32
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = q.Decide(context.Background(), rec.ID, domain.VerdictApprove, "Ravi", "T.O")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domain.ErrAlreadyDecided):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("%d winners, want exactly 1", winners)
	}
	if d.calls != 1 {
		t.Errorf("decider called %d times, want 1", d.calls)
	}
}

func TestListFilterAndCount(t *testing.T) {
	q := newQueue(t, &stubDecider{})

	a, _ := q.Enqueue(message("123=100"))
	b := message("456=200")
	b.GroupName = "evening slips"
	enqB, _ := q.Enqueue(b)

	if got := q.PendingCount(); got != 2 {
		t.Errorf("pending count %d, want 2", got)
	}

	if _, err := q.Decide(context.Background(), a.ID, domain.VerdictReject, "", ""); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if got := q.PendingCount(); got != 1 {
		t.Errorf("pending count after decide %d, want 1", got)
	}

	pending := q.List(Filter{Statuses: []domain.Status{domain.StatusPending, domain.StatusEdited}})
	if len(pending) != 1 || pending[0].ID != enqB.ID {
		t.Errorf("pending filter returned %d records", len(pending))
	}

	grouped := q.List(Filter{Group: "evening slips"})
	if len(grouped) != 1 || grouped[0].ID != enqB.ID {
		t.Errorf("group filter returned %d records", len(grouped))
	}
}
