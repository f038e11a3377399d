// Package calc expands tokenized stake lines into concrete
// pattern-to-amount breakdowns using the reference lookup tables.
package calc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SohamSachinDhore/bet-v2/internal/domain"
	"github.com/SohamSachinDhore/bet-v2/internal/lookup"
	"github.com/SohamSachinDhore/bet-v2/internal/parser"
)

// Result is the outcome of processing one message body: the expanded
// entries for every line that survived, the line-scoped issues for every
// line that did not, and the grand total across all entries.
type Result struct {
	Entries []domain.ParsedEntry
	Issues  []domain.LineIssue
	Total   int
}

// Engine expands parser output into final entries. Identical input always
// yields an identical, order-stable output: literal formats keep the order
// the line listed, expansions emit members in ascending number order.
type Engine struct {
	tables *lookup.Tables
}

// NewEngine creates an engine over the given lookup tables.
func NewEngine(tables *lookup.Tables) *Engine {
	return &Engine{tables: tables}
}

// Process parses and expands a whole message body. Parse and validation
// failures are collected per line; valid lines always produce entries.
func (e *Engine) Process(body string) Result {
	lines, issues := parser.Parse(body)

	res := Result{Issues: issues}
	for _, line := range lines {
		entry, err := e.Expand(line)
		if err != nil {
			res.Issues = append(res.Issues, domain.LineIssue{
				LineNo: line.LineNo,
				Line:   line.Text,
				Kind:   "validation",
				Reason: err.Reason,
			})
			continue
		}
		res.Entries = append(res.Entries, entry)
		res.Total += entry.Total
	}
	return res
}

// Expand turns one tokenized line into its concrete stake set.
func (e *Engine) Expand(line parser.Line) (domain.ParsedEntry, *domain.ValidationError) {
	var stakes []domain.Stake

	switch line.Format {
	case domain.FormatPana:
		for _, code := range line.Codes {
			if !e.tables.IsPana(code) {
				return domain.ParsedEntry{}, &domain.ValidationError{
					Line:   line.Text,
					Reason: fmt.Sprintf("unknown pana code %03d", code),
				}
			}
			stakes = append(stakes, domain.Stake{Number: code, Amount: line.Amount})
		}

	case domain.FormatTime, domain.FormatJodi, domain.FormatMulti:
		// Literal formats: the grammar already constrains code shape, the
		// amount applies per listed code.
		for _, code := range line.Codes {
			stakes = append(stakes, domain.Stake{Number: code, Amount: line.Amount})
		}

	case domain.FormatType:
		for _, key := range line.Keys {
			members := e.tables.TypeMembers(string(key.Table), key.Column)
			if len(members) == 0 {
				return domain.ParsedEntry{}, &domain.ValidationError{
					Line:   line.Text,
					Reason: fmt.Sprintf("no %s table column %d", key.Table, key.Column),
				}
			}
			for _, code := range members {
				stakes = append(stakes, domain.Stake{Number: code, Amount: line.Amount})
			}
		}

	case domain.FormatFamily:
		members := e.tables.FamilyMembers(line.Family)
		if len(members) == 0 {
			return domain.ParsedEntry{}, &domain.ValidationError{
				Line:   line.Text,
				Reason: fmt.Sprintf("code %d belongs to no family", line.Family),
			}
		}
		for _, code := range members {
			stakes = append(stakes, domain.Stake{Number: code, Amount: line.Amount})
		}

	default:
		return domain.ParsedEntry{}, &domain.ValidationError{
			Line:   line.Text,
			Reason: "unsupported format " + string(line.Format),
		}
	}

	total := 0
	for _, s := range stakes {
		total += s.Amount
	}

	return domain.ParsedEntry{
		Line:   line.Text,
		Format: line.Format,
		Stakes: stakes,
		Total:  total,
	}, nil
}

// CanonicalLine re-serializes an entry into a line that parses back into
// an equivalent stake set. Expansion formats serialize as their expanded
// pana list, which is the form the review display shows.
func CanonicalLine(entry domain.ParsedEntry) string {
	if len(entry.Stakes) == 0 {
		return entry.Line
	}
	amount := strconv.Itoa(entry.Stakes[0].Amount)

	switch entry.Format {
	case domain.FormatTime:
		codes := make([]string, len(entry.Stakes))
		for i, s := range entry.Stakes {
			codes[i] = strconv.Itoa(s.Number)
		}
		return strings.Join(codes, ",") + "=" + amount

	case domain.FormatJodi:
		codes := make([]string, len(entry.Stakes))
		for i, s := range entry.Stakes {
			codes[i] = fmt.Sprintf("%02d", s.Number)
		}
		return strings.Join(codes, "-") + "=" + amount

	case domain.FormatMulti:
		return fmt.Sprintf("%dx%s", entry.Stakes[0].Number, amount)

	default: // PANA, TYPE, FAMILY: slash-joined pana list
		codes := make([]string, len(entry.Stakes))
		for i, s := range entry.Stakes {
			codes[i] = fmt.Sprintf("%03d", s.Number)
		}
		return strings.Join(codes, "/") + "=" + amount
	}
}
