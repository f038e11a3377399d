package domain

// Format identifies which of the shorthand grammars a line was parsed as.
type Format string

const (
	FormatPana   Format = "PANA"
	FormatType   Format = "TYPE"
	FormatTime   Format = "TIME"
	FormatJodi   Format = "JODI"
	FormatMulti  Format = "MULTI"
	FormatFamily Format = "FAMILY"
)

// TypeTable names one of the pana classification tables used by the
// TYPE grammar. DPT is the double-pana table with triplets included.
type TypeTable string

const (
	TableSP  TypeTable = "SP"
	TableDP  TypeTable = "DP"
	TableDPT TypeTable = "DPT"
	TableCP  TypeTable = "CP"
)

// Stake is one concrete pattern-to-amount pair after expansion.
type Stake struct {
	Number int `json:"number"`
	Amount int `json:"amount"`
}

// ParsedEntry is the fully expanded result of one input line. Stakes are
// order-stable: expansion always emits members in ascending number order,
// literal formats in the order the line listed them.
type ParsedEntry struct {
	Line   string  `json:"line"`
	Format Format  `json:"format"`
	Stakes []Stake `json:"stakes"`
	Total  int     `json:"total"`
}

// LineIssue is a line-scoped parse or validation failure collected during
// message processing. Issues never invalidate sibling lines.
type LineIssue struct {
	LineNo int    `json:"line_no"`
	Line   string `json:"line"`
	Kind   string `json:"kind"` // "parse" or "validation"
	Reason string `json:"reason"`
}
