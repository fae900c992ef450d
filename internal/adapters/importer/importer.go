// Package importer parses the three settlement source formats into
// normalized records. Parsers are pure: they stream line by line, collect
// per-line errors and never abort the remaining file.
package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseError reports one malformed line. The raw content is kept so the
// operator can fix the source file.
type ParseError struct {
	Line int    `json:"line"`
	Raw  string `json:"raw"`
	Err  string `json:"error"`
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Err)
}

func lineError(line int, raw string, err error) ParseError {
	return ParseError{Line: line, Raw: raw, Err: err.Error()}
}

// parseValue parses a decimal-comma monetary value such as "1.234,56".
// Thousands separators are optional; a plain dot decimal is also accepted
// so files re-exported through spreadsheets keep working.
func parseValue(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty value")
	}
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid value %q", s)
	}
	return d, nil
}

// parseDate parses the dd/mm/yyyy dates used across acquirer files,
// falling back to ISO yyyy-mm-dd.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"02/01/2006", "2006-01-02", "02/01/06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// parseCount parses a small positive integer field such as an installment
// count.
func parseCount(s string) (int32, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return int32(n), nil
}

// looksLikeHeader reports whether the first delimited field is
// non-numeric, which is how acquirer exports mark their header row.
func looksLikeHeader(firstField string) bool {
	firstField = strings.TrimSpace(firstField)
	if firstField == "" {
		return true
	}
	_, err := strconv.ParseInt(firstField, 10, 64)
	return err != nil
}
