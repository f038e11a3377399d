// Package parser classifies and tokenizes stake slip lines. Each line is
// parsed independently so a malformed line never invalidates its siblings;
// failures are collected as line issues alongside the successes.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/SohamSachinDhore/bet-v2/internal/domain"
)

// TypeKey is one classification table reference from a TYPE line,
// e.g. 1SP or 12CP.
type TypeKey struct {
	Table  domain.TypeTable
	Column int
}

// Line is the raw tokenized form of one input line before expansion.
// Codes carries the literal numbers for PANA/TIME/JODI/MULTI lines, Keys
// the table references for TYPE lines, Family the reference code for
// FAMILY lines.
type Line struct {
	LineNo int
	Text   string
	Format domain.Format
	Amount int
	Codes  []int
	Keys   []TypeKey
	Family int
}

// Grammar patterns, tried in dispatch order. First structural match wins.
var (
	reMultiPana = regexp.MustCompile(`^(\d{3}(?:\s*/\s*\d{3})+)\s*=\s*(\d+)$`)
	rePana      = regexp.MustCompile(`^(\d{3})\s*=\s*(\d+)$`)
	reType      = regexp.MustCompile(`(?i)^(\d+(?:DPT|SP|DP|CP)(?:\s*/\s*\d+(?:DPT|SP|DP|CP))*)\s*=\s*(\d+)$`)
	reTypeKey   = regexp.MustCompile(`(?i)(\d+)(DPT|SP|DP|CP)`)
	reTime      = regexp.MustCompile(`^(\d(?:[\s,]+\d)*)\s*=\s*(\d+)$`)
	reJodi      = regexp.MustCompile(`^(\d{2}(?:\s*[-:]\s*\d{2})*)\s*=\s*(\d+)$`)
	reMulti     = regexp.MustCompile(`(?i)^(\d{1,2})\s*[x*]\s*(\d+)$`)
	reFamily    = regexp.MustCompile(`(?i)^(\d{3})\s*family\s*=\s*(\d+)$`)

	reCurrency  = regexp.MustCompile(`(?i)(=\s*)(?:rs\.{0,2}|₹)\s*`)
	reSpaceRuns = regexp.MustCompile(`\s+`)
)

// Parse splits the message body into lines and tokenizes each one. Blank
// lines are skipped. Line numbers in issues are 1-based positions within
// the original body.
func Parse(body string) ([]Line, []domain.LineIssue) {
	var lines []Line
	var issues []domain.LineIssue

	for i, raw := range strings.Split(body, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}

		line, err := ParseLine(text)
		if err != nil {
			issues = append(issues, domain.LineIssue{
				LineNo: i + 1,
				Line:   text,
				Kind:   "parse",
				Reason: err.Reason,
			})
			continue
		}
		line.LineNo = i + 1
		lines = append(lines, line)
	}

	return lines, issues
}

// ParseLine tokenizes a single trimmed line.
func ParseLine(text string) (Line, *domain.ParseError) {
	clean := normalizeLine(text)

	if m := reMultiPana.FindStringSubmatch(clean); m != nil {
		return literalLine(text, domain.FormatPana, splitCodes(m[1]), m[2])
	}
	if m := rePana.FindStringSubmatch(clean); m != nil {
		return literalLine(text, domain.FormatPana, []string{m[1]}, m[2])
	}
	if m := reType.FindStringSubmatch(clean); m != nil {
		return typeLine(text, m[1], m[2])
	}
	if m := reTime.FindStringSubmatch(clean); m != nil {
		return literalLine(text, domain.FormatTime, splitCodes(m[1]), m[2])
	}
	if m := reJodi.FindStringSubmatch(clean); m != nil {
		return literalLine(text, domain.FormatJodi, splitCodes(m[1]), m[2])
	}
	if m := reMulti.FindStringSubmatch(clean); m != nil {
		return literalLine(text, domain.FormatMulti, []string{m[1]}, m[2])
	}
	if m := reFamily.FindStringSubmatch(clean); m != nil {
		return familyLine(text, m[1], m[2])
	}

	return Line{}, &domain.ParseError{Line: text, Reason: "line matches no known notation"}
}

// normalizeLine applies the cosmetic fixes the notifier's senders are known
// for: double equals, currency markers after the amount sign, and ragged
// whitespace.
func normalizeLine(text string) string {
	s := strings.ReplaceAll(text, "==", "=")
	s = reCurrency.ReplaceAllString(s, "$1")
	s = reSpaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func literalLine(text string, format domain.Format, codeStrs []string, amountStr string) (Line, *domain.ParseError) {
	amount, perr := parseAmount(text, amountStr)
	if perr != nil {
		return Line{}, perr
	}

	codes := make([]int, 0, len(codeStrs))
	for _, cs := range codeStrs {
		n, err := strconv.Atoi(cs)
		if err != nil {
			return Line{}, &domain.ParseError{Line: text, Reason: "invalid number " + cs}
		}
		codes = append(codes, n)
	}

	return Line{Text: text, Format: format, Amount: amount, Codes: codes}, nil
}

func typeLine(text, keysPart, amountStr string) (Line, *domain.ParseError) {
	amount, perr := parseAmount(text, amountStr)
	if perr != nil {
		return Line{}, perr
	}

	matches := reTypeKey.FindAllStringSubmatch(keysPart, -1)
	keys := make([]TypeKey, 0, len(matches))
	for _, m := range matches {
		column, err := strconv.Atoi(m[1])
		if err != nil {
			return Line{}, &domain.ParseError{Line: text, Reason: "invalid table column " + m[1]}
		}
		keys = append(keys, TypeKey{
			Table:  domain.TypeTable(strings.ToUpper(m[2])),
			Column: column,
		})
	}

	return Line{Text: text, Format: domain.FormatType, Amount: amount, Keys: keys}, nil
}

func familyLine(text, refStr, amountStr string) (Line, *domain.ParseError) {
	amount, perr := parseAmount(text, amountStr)
	if perr != nil {
		return Line{}, perr
	}

	ref, err := strconv.Atoi(refStr)
	if err != nil {
		return Line{}, &domain.ParseError{Line: text, Reason: "invalid family reference " + refStr}
	}

	return Line{Text: text, Format: domain.FormatFamily, Amount: amount, Family: ref}, nil
}

func parseAmount(text, s string) (int, *domain.ParseError) {
	amount, err := strconv.Atoi(s)
	if err != nil {
		return 0, &domain.ParseError{Line: text, Reason: "invalid amount " + s}
	}
	if amount <= 0 {
		return 0, &domain.ParseError{Line: text, Reason: "amount must be positive"}
	}
	return amount, nil
}

func splitCodes(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case '/', ',', '-', ':', ' ', '\t':
			return true
		}
		return false
	})
}
