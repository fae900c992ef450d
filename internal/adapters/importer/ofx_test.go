package importer

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sgmlStatement = `OFXHEADER:100
DATA:OFXSGML
VERSION:102

<OFX>
<BANKMSGSRSV1>
<STMTTRNRS>
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20260815120000[-3:BRT]
<TRNAMT>1500.00
<FITID>TX-001
<MEMO>CIELO REPASSE
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260815
<TRNAMT>-42.90
<FITID>TX-002
<MEMO>TARIFA
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20260816
<TRNAMT>250,50
<FITID>TX-003
</STMTTRN>
</BANKTRANLIST>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`

func TestParseBankStatement_KeepsCreditsOnly(t *testing.T) {
	result, err := ParseBankStatement(strings.NewReader(sgmlStatement))

	require.NoError(t, err)
	require.Len(t, result.Credits, 2)
	assert.Equal(t, 1, result.DebitsSkipped)
	assert.Empty(t, result.Errors)

	first := result.Credits[0]
	assert.Equal(t, "TX-001", first.FITID)
	assert.Equal(t, "CREDIT", first.Type)
	assert.Equal(t, "CIELO REPASSE", first.Memo)
	assert.Equal(t, "2026-08-15", first.PostedAt.Format("2006-01-02"))
	assert.True(t, first.Amount.Equal(decimal.NewFromFloat(1500.00)))

	// comma decimal on TX-003
	assert.True(t, result.Credits[1].Amount.Equal(decimal.NewFromFloat(250.50)))
	assert.True(t, result.Total.Equal(decimal.NewFromFloat(1750.50)))
}

func TestParseBankStatement_XMLStyleClosingTags(t *testing.T) {
	input := `<OFX>
<STMTTRN>
<TRNTYPE>CREDIT</TRNTYPE>
<DTPOSTED>20260815</DTPOSTED>
<TRNAMT>99.90</TRNAMT>
<FITID>TX-010</FITID>
<MEMO>REPASSE</MEMO>
</STMTTRN>
</OFX>
`
	result, err := ParseBankStatement(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, result.Credits, 1)
	assert.Equal(t, "TX-010", result.Credits[0].FITID)
	assert.True(t, result.Credits[0].Amount.Equal(decimal.NewFromFloat(99.90)))
}

func TestParseBankStatement_UnterminatedTrailingTransaction(t *testing.T) {
	input := `<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20260815
<TRNAMT>10.00
<FITID>TX-020
`
	result, err := ParseBankStatement(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, result.Credits, 1)
	assert.Equal(t, "TX-020", result.Credits[0].FITID)
}

func TestParseBankStatement_MissingRequiredTagsCollected(t *testing.T) {
	input := `<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20260815
<TRNAMT>10.00
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20260815
<TRNAMT>20.00
<FITID>TX-030
</STMTTRN>
`
	result, err := ParseBankStatement(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, result.Credits, 1)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Err, "TRNAMT or FITID")
}

func TestParseBankStatement_UntypedPositiveAmountIsCredit(t *testing.T) {
	input := `<STMTTRN>
<DTPOSTED>20260815
<TRNAMT>75.00
<FITID>TX-040
</STMTTRN>
<STMTTRN>
<DTPOSTED>20260815
<TRNAMT>-75.00
<FITID>TX-041
</STMTTRN>
`
	result, err := ParseBankStatement(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, result.Credits, 1)
	assert.Equal(t, "TX-040", result.Credits[0].FITID)
	assert.Equal(t, 1, result.DebitsSkipped)
}

func TestParseBankStatement_PositiveTransferIsRetained(t *testing.T) {
	// inbound settlements often arrive typed XFER; the sign decides
	input := `<STMTTRN>
<TRNTYPE>XFER
<DTPOSTED>20260815
<TRNAMT>150.00
<FITID>TX-050
</STMTTRN>
<STMTTRN>
<TRNTYPE>XFER
<DTPOSTED>20260815
<TRNAMT>-150.00
<FITID>TX-051
</STMTTRN>
`
	result, err := ParseBankStatement(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, result.Credits, 1)
	assert.Equal(t, "TX-050", result.Credits[0].FITID)
	assert.True(t, result.Credits[0].Amount.Equal(decimal.NewFromFloat(150.00)))
	assert.Equal(t, 1, result.DebitsSkipped)
}

func TestParseBankStatement_FeeTypesDroppedEvenWhenPositive(t *testing.T) {
	input := `<STMTTRN>
<TRNTYPE>FEE
<DTPOSTED>20260815
<TRNAMT>12.00
<FITID>TX-060
</STMTTRN>
`
	result, err := ParseBankStatement(strings.NewReader(input))

	require.NoError(t, err)
	assert.Empty(t, result.Credits)
	assert.Equal(t, 1, result.DebitsSkipped)
}

func TestParseBankStatement_DepositTypesAreCredits(t *testing.T) {
	for _, typ := range []string{"DEP", "DIRECTDEP", "INT", "credit"} {
		input := "<STMTTRN>\n<TRNTYPE>" + typ + "\n<DTPOSTED>20260815\n<TRNAMT>1.00\n<FITID>TX\n</STMTTRN>\n"
		result, err := ParseBankStatement(strings.NewReader(input))
		require.NoError(t, err)
		assert.Len(t, result.Credits, 1, "type %s", typ)
	}
}

func TestSplitOFXTag(t *testing.T) {
	tag, value := splitOFXTag("<TRNAMT>1500.00")
	assert.Equal(t, "TRNAMT", tag)
	assert.Equal(t, "1500.00", value)

	tag, value = splitOFXTag("<MEMO>REPASSE</MEMO>")
	assert.Equal(t, "MEMO", tag)
	assert.Equal(t, "REPASSE", value)

	tag, _ = splitOFXTag("no tag here")
	assert.Empty(t, tag)
}
