package importer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
)

// Bank statements arrive as OFX: SGML-style tagged text where closing tags
// are optional. Consumed tags: TRNTYPE, DTPOSTED, TRNAMT, FITID, MEMO.
// Only credit-type or positive-amount transactions are retained.

// StatementImport is the outcome of parsing one OFX bank statement
type StatementImport struct {
	Credits       []*models.BankCredit
	Errors        []ParseError
	Total         decimal.Decimal
	DebitsSkipped int
}

type ofxTxn struct {
	trnType string
	posted  string
	amount  string
	fitID   string
	memo    string
	line    int
	raw     []string
}

// ParseBankStatement streams an OFX statement and returns the credit
// entries. Transactions missing required tags are reported per entry and
// do not abort the file.
func ParseBankStatement(r io.Reader) (*StatementImport, error) {
	result := &StatementImport{Total: decimal.Zero}

	scanner := bufio.NewScanner(r)
	var current *ofxTxn
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case strings.EqualFold(line, "<STMTTRN>"):
			current = &ofxTxn{line: lineNo}
		case strings.EqualFold(line, "</STMTTRN>"):
			if current != nil {
				finishOFXTxn(current, result)
				current = nil
			}
		case current != nil:
			current.raw = append(current.raw, line)
			tag, value := splitOFXTag(line)
			switch tag {
			case "TRNTYPE":
				current.trnType = value
			case "DTPOSTED":
				current.posted = value
			case "TRNAMT":
				current.amount = value
			case "FITID":
				current.fitID = value
			case "MEMO", "NAME":
				if current.memo == "" {
					current.memo = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read bank statement: %w", err)
	}
	// unterminated trailing transaction still counts
	if current != nil {
		finishOFXTxn(current, result)
	}
	return result, nil
}

func finishOFXTxn(t *ofxTxn, result *StatementImport) {
	raw := strings.Join(t.raw, " ")
	if t.amount == "" || t.fitID == "" {
		result.Errors = append(result.Errors, ParseError{
			Line: t.line, Raw: raw, Err: "transaction missing TRNAMT or FITID",
		})
		return
	}
	amount, err := parseOFXAmount(t.amount)
	if err != nil {
		result.Errors = append(result.Errors, ParseError{Line: t.line, Raw: raw, Err: err.Error()})
		return
	}

	if !isOFXCredit(t.trnType, amount) {
		result.DebitsSkipped++
		return
	}

	posted, err := parseOFXDate(t.posted)
	if err != nil {
		result.Errors = append(result.Errors, ParseError{Line: t.line, Raw: raw, Err: err.Error()})
		return
	}

	credit := &models.BankCredit{
		FITID:    t.fitID,
		Type:     strings.ToUpper(t.trnType),
		PostedAt: posted,
		Amount:   amount,
		Memo:     t.memo,
	}
	result.Credits = append(result.Credits, credit)
	result.Total = result.Total.Add(amount)
}

// splitOFXTag breaks "<TAG>value" into its parts. SGML-style OFX omits
// closing tags; when one is present it is stripped from the value.
func splitOFXTag(line string) (tag, value string) {
	if !strings.HasPrefix(line, "<") {
		return "", ""
	}
	end := strings.Index(line, ">")
	if end < 0 {
		return "", ""
	}
	tag = strings.ToUpper(line[1:end])
	value = strings.TrimSpace(line[end+1:])
	if close := strings.Index(value, "</"); close >= 0 {
		value = strings.TrimSpace(value[:close])
	}
	return tag, value
}

// isOFXCredit keeps credit-type or positive-amount transactions. Types the
// banks use for outflows are always dropped; anything else (XFER, untyped,
// OTHER) is decided by the amount's sign.
func isOFXCredit(trnType string, amount decimal.Decimal) bool {
	switch strings.ToUpper(trnType) {
	case "CREDIT", "DEP", "DIRECTDEP", "INT":
		return true
	case "DEBIT", "FEE", "SRVCHG", "CHECK", "PAYMENT", "ATM", "POS", "REPEATPMT":
		return false
	default:
		return amount.IsPositive()
	}
}

// parseOFXAmount accepts both dot and comma decimals; Brazilian banks emit
// either depending on the export tool
func parseOFXAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid TRNAMT %q", s)
	}
	return d, nil
}

// parseOFXDate parses DTPOSTED, which may carry a timezone suffix like
// 20260815120000[-3:BRT]; only the date portion matters here
func parseOFXDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < 8 {
		return time.Time{}, fmt.Errorf("invalid DTPOSTED %q", s)
	}
	t, err := time.Parse("20060102", s[:8])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid DTPOSTED %q", s)
	}
	return t, nil
}
