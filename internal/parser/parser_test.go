package parser

import (
	"reflect"
	"testing"

	"github.com/SohamSachinDhore/bet-v2/internal/domain"
)

func TestParseLineFormats(t *testing.T) {
	tests := []struct {
		in     string
		format domain.Format
		codes  []int
		amount int
	}{
		{"123=100", domain.FormatPana, []int{123}, 100},
		{"128/129/120=100", domain.FormatPana, []int{128, 129, 120}, 100},
		{"128 / 129 / 120 = 100", domain.FormatPana, []int{128, 129, 120}, 100},
		{"1=100", domain.FormatTime, []int{1}, 100},
		{"1,2,3=300", domain.FormatTime, []int{1, 2, 3}, 300},
		{"1 2 3=900", domain.FormatTime, []int{1, 2, 3}, 900},
		{"22-24-26=500", domain.FormatJodi, []int{22, 24, 26}, 500},
		{"12:34:56=200", domain.FormatJodi, []int{12, 34, 56}, 200},
		{"38=500", domain.FormatJodi, []int{38}, 500},
		{"38x700", domain.FormatMulti, []int{38}, 700},
		{"38*700", domain.FormatMulti, []int{38}, 700},
		{"456==200", domain.FormatPana, []int{456}, 200},
		{"123=Rs100", domain.FormatPana, []int{123}, 100},
		{"123=Rs. 100", domain.FormatPana, []int{123}, 100},
	}

	for _, tt := range tests {
		line, err := ParseLine(tt.in)
		if err != nil {
			t.Errorf("ParseLine(%q): unexpected error %v", tt.in, err)
			continue
		}
		if line.Format != tt.format {
			t.Errorf("ParseLine(%q): format %s, want %s", tt.in, line.Format, tt.format)
		}
		if !reflect.DeepEqual(line.Codes, tt.codes) {
			t.Errorf("ParseLine(%q): codes %v, want %v", tt.in, line.Codes, tt.codes)
		}
		if line.Amount != tt.amount {
			t.Errorf("ParseLine(%q): amount %d, want %d", tt.in, line.Amount, tt.amount)
		}
	}
}

func TestParseLineTypeKeys(t *testing.T) {
	tests := []struct {
		in     string
		keys   []TypeKey
		amount int
	}{
		{"1SP=100", []TypeKey{{domain.TableSP, 1}}, 100},
		{"5DP=200", []TypeKey{{domain.TableDP, 5}}, 200},
		{"12CP=150", []TypeKey{{domain.TableCP, 12}}, 150},
		{"5DPT=200", []TypeKey{{domain.TableDPT, 5}}, 200},
		{"1sp=100", []TypeKey{{domain.TableSP, 1}}, 100},
		{"1SP/2SP=100", []TypeKey{{domain.TableSP, 1}, {domain.TableSP, 2}}, 100},
		{"1SP/5DP/12CP=50", []TypeKey{{domain.TableSP, 1}, {domain.TableDP, 5}, {domain.TableCP, 12}}, 50},
	}

	for _, tt := range tests {
		line, err := ParseLine(tt.in)
		if err != nil {
			t.Errorf("ParseLine(%q): unexpected error %v", tt.in, err)
			continue
		}
		if line.Format != domain.FormatType {
			t.Errorf("ParseLine(%q): format %s, want TYPE", tt.in, line.Format)
		}
		if !reflect.DeepEqual(line.Keys, tt.keys) {
			t.Errorf("ParseLine(%q): keys %v, want %v", tt.in, line.Keys, tt.keys)
		}
		if line.Amount != tt.amount {
			t.Errorf("ParseLine(%q): amount %d, want %d", tt.in, line.Amount, tt.amount)
		}
	}
}

func TestParseLineFamily(t *testing.T) {
	line, err := ParseLine("678family=200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.Format != domain.FormatFamily || line.Family != 678 || line.Amount != 200 {
		t.Fatalf("got %+v, want FAMILY 678=200", line)
	}

	if _, err := ParseLine("678FAMILY=200"); err != nil {
		t.Errorf("family spelling should be case-insensitive: %v", err)
	}
}

func TestParseLineRejects(t *testing.T) {
	bad := []string{
		"badline",
		"",
		"=100",
		"123=",
		"123=0",
		"123=-50",
		"123=abc",
		"12ZZ=100",
		"1234=100",
		"123/45=100",
	}
	for _, in := range bad {
		if line, err := ParseLine(in); err == nil {
			t.Errorf("ParseLine(%q) = %+v, want parse error", in, line)
		}
	}
}

func TestParseCollectsIssuesPerLine(t *testing.T) {
	lines, issues := Parse("123=100\nbadline\n1SP=50")

	if len(lines) != 2 {
		t.Fatalf("want 2 parsed lines, got %d", len(lines))
	}
	if lines[0].Format != domain.FormatPana || lines[1].Format != domain.FormatType {
		t.Errorf("unexpected formats: %s, %s", lines[0].Format, lines[1].Format)
	}
	if len(issues) != 1 {
		t.Fatalf("want 1 issue, got %d", len(issues))
	}
	if issues[0].LineNo != 2 || issues[0].Line != "badline" || issues[0].Kind != "parse" {
		t.Errorf("unexpected issue: %+v", issues[0])
	}
}

func TestParseSkipsBlankLines(t *testing.T) {
	lines, issues := Parse("\n123=100\n\n   \n456=200\n")
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %d", len(lines))
	}
	if lines[0].LineNo != 2 || lines[1].LineNo != 5 {
		t.Errorf("line numbers %d, %d; want 2, 5", lines[0].LineNo, lines[1].LineNo)
	}
}

func TestDispatchOrder(t *testing.T) {
	// A three-digit code is PANA, never TIME; two-digit with = is JODI,
	// never MULTI; a digit list with commas is TIME even when the digits
	// could pass for jodi halves.
	cases := map[string]domain.Format{
		"120=100":  domain.FormatPana,
		"12=100":   domain.FormatJodi,
		"1,2=100":  domain.FormatTime,
		"12x100":   domain.FormatMulti,
		"12CP=100": domain.FormatType,
	}
	for in, want := range cases {
		line, err := ParseLine(in)
		if err != nil {
			t.Errorf("ParseLine(%q): %v", in, err)
			continue
		}
		if line.Format != want {
			t.Errorf("ParseLine(%q): format %s, want %s", in, line.Format, want)
		}
	}
}
