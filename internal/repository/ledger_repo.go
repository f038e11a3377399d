package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/SohamSachinDhore/bet-v2/internal/domain"
)

type LedgerRepo struct {
	db *sql.DB
}

func NewLedgerRepo(db *sql.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// SaveBatch persists every entry of one approved record in a single
// transaction. Either all rows land or none do.
func (r *LedgerRepo) SaveBatch(entries []domain.LedgerEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	sqlTx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare(
		`INSERT INTO ledger_entries
		(id, customer_id, bazar, number, amount, entry_date, format,
		 source_line, source_record_id, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range entries {
		e := &entries[i]
		_, err := stmt.Exec(
			e.ID, e.CustomerID, e.Bazar, e.Number, e.Amount,
			e.EntryDate.Format("2006-01-02"), string(e.Format),
			e.SourceLine, e.SourceRecordID, e.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(entries), nil
}

func (r *LedgerRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM ledger_entries`).Scan(&count)
	return count, err
}

// ListByRecord returns the committed entries of one staged record, in
// insertion order.
func (r *LedgerRepo) ListByRecord(recordID string) ([]domain.LedgerEntry, error) {
	rows, err := r.db.Query(
		selectLedger+` WHERE le.source_record_id = ? ORDER BY le.created_at, le.id`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	return scanLedgerRows(rows)
}

type LedgerFilter struct {
	Customer string
	Bazar    string
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}

func (r *LedgerRepo) List(f LedgerFilter) ([]domain.LedgerEntry, int, error) {
	where, args := buildLedgerWhere(f)

	var total int
	countSQL := `SELECT COUNT(*) FROM ledger_entries le
		JOIN customers c ON c.id = le.customer_id` + where
	if err := r.db.QueryRow(countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	querySQL := selectLedger + where + ` ORDER BY le.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(querySQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	entries, err := scanLedgerRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// BazarVolume is the committed stake volume of one market slot.
type BazarVolume struct {
	Bazar  string `json:"bazar"`
	Count  int    `json:"count"`
	Amount int    `json:"amount"`
}

func (r *LedgerRepo) VolumeByBazar() ([]BazarVolume, error) {
	rows, err := r.db.Query(`
		SELECT bazar, COUNT(*), COALESCE(SUM(amount), 0)
		FROM ledger_entries GROUP BY bazar ORDER BY bazar
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BazarVolume
	for rows.Next() {
		var v BazarVolume
		if err := rows.Scan(&v.Bazar, &v.Count, &v.Amount); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

// CustomerTotal is one customer's committed exposure for a date range.
type CustomerTotal struct {
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Count        int    `json:"count"`
	Amount       int    `json:"amount"`
}

func (r *LedgerRepo) TotalsByCustomer(from, to *time.Time) ([]CustomerTotal, error) {
	where, args := buildLedgerWhere(LedgerFilter{From: from, To: to})

	rows, err := r.db.Query(`
		SELECT c.id, c.name, COUNT(*), COALESCE(SUM(le.amount), 0)
		FROM ledger_entries le
		JOIN customers c ON c.id = le.customer_id`+where+`
		GROUP BY c.id, c.name ORDER BY c.name
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CustomerTotal
	for rows.Next() {
		var t CustomerTotal
		if err := rows.Scan(&t.CustomerID, &t.CustomerName, &t.Count, &t.Amount); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// --- helpers ---

const selectLedger = `SELECT le.id, le.customer_id, c.name, le.bazar, le.number,
	le.amount, le.entry_date, le.format, le.source_line, le.source_record_id,
	le.created_at
	FROM ledger_entries le
	JOIN customers c ON c.id = le.customer_id`

func buildLedgerWhere(f LedgerFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Customer != "" {
		clauses = append(clauses, "c.name = ? COLLATE NOCASE")
		args = append(args, f.Customer)
	}
	if f.Bazar != "" {
		clauses = append(clauses, "le.bazar = ?")
		args = append(args, f.Bazar)
	}
	if f.From != nil {
		clauses = append(clauses, "le.entry_date >= ?")
		args = append(args, f.From.Format("2006-01-02"))
	}
	if f.To != nil {
		clauses = append(clauses, "le.entry_date <= ?")
		args = append(args, f.To.Format("2006-01-02"))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanLedgerRows(rows *sql.Rows) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var format, entryDate, createdAt string
		err := rows.Scan(
			&e.ID, &e.CustomerID, &e.CustomerName, &e.Bazar, &e.Number,
			&e.Amount, &entryDate, &format, &e.SourceLine, &e.SourceRecordID,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		e.Format = domain.Format(format)
		e.EntryDate, _ = time.Parse("2006-01-02", entryDate)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
