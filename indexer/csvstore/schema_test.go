package csvstore

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNumeric(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain integer", in: "42", want: "42"},
		{name: "surrounding whitespace", in: " 42 ", want: "42"},
		{name: "thousands separators stripped", in: "1,234,567.89", want: "1234567.89"},
		{name: "negative decimal", in: "-12.5", want: "-12.5"},
		{name: "scientific notation kept", in: "1.5e3", want: "1.5e3"},
		{name: "hex rejected", in: "0x1f", want: ""},
		{name: "uppercase hex rejected", in: "0X1F", want: ""},
		{name: "trailing letters rejected", in: "12abc", want: ""},
		{name: "pure text rejected", in: "abc", want: ""},
		{name: "dangling exponent rejected", in: "1e", want: ""},
		{name: "empty stays empty", in: "", want: ""},
		{name: "whitespace only", in: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeNumeric(tt.in))
		})
	}
}

func TestRowRecordNormalizesNumerics(t *testing.T) {
	row := &Row{
		Block:           17000000,
		Timestamp:       1673481600,
		DatetimeUTC:     "2023-01-12 00:00:00",
		CollateralAsset: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		DebtAsset:       "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		User:            "0x1111111111111111111111111111111111111111",
		Liquidator:      "0x2222222222222222222222222222222222222222",
		CollateralOut:   "1,250.50000000",
		DebtToCover:     "2000.00000000",
		ReceiveAToken:   false,
		CollateralSymbol:   "WETH",
		DebtSymbol:         "DAI",
		CollateralPriceUSD: "1850.00000000",
		DebtPriceUSD:       "1.00000000",
		CollateralValueUSD: "2313425.00",
		DebtValueUSD:       "2000.00",
		Tx:                 "0xdeadbeef",
		BlockBuilder:       "0x3333333333333333333333333333333333333333",
		GasUsed:            "xyz",
		GasPriceGwei:       "30.50",
		EthPriceUSD:        "1850.00000000",
	}
	rec := row.Record()
	require.Equal(t, len(FieldOrder), len(rec))

	idx := HeaderIndex(FieldOrder)
	assert.Equal(t, "17000000", Field(rec, idx, ColBlock))
	assert.Equal(t, "1673481600", Field(rec, idx, ColTimestamp))
	assert.Equal(t, "1250.50000000", Field(rec, idx, ColCollateralOut), "separators stripped")
	assert.Equal(t, "", Field(rec, idx, ColGasUsed), "non-numeric cleared")
	assert.Equal(t, "False", Field(rec, idx, ColReceiveAToken))
	assert.Equal(t, "0xdeadbeef", Field(rec, idx, ColTx))
}

func TestFormatBool(t *testing.T) {
	assert.Equal(t, "True", FormatBool(true))
	assert.Equal(t, "False", FormatBool(false))
}

func TestFormatEventTime(t *testing.T) {
	assert.Equal(t, "2023-01-12 00:00:00", FormatEventTime(1673481600))
	assert.Equal(t, "", FormatEventTime(0))
}

func TestFormatAmount(t *testing.T) {
	weth := new(big.Int)
	weth.SetString("1500000000000000000", 10)
	assert.Equal(t, "1.50000000", FormatAmount(weth, 18))
	assert.Equal(t, "123.45678900", FormatAmount(big.NewInt(123456789), 6))
	assert.Equal(t, "", FormatAmount(nil, 18))
}

func TestFormatValue(t *testing.T) {
	amount := new(big.Rat).SetFloat64(2.5)
	price := new(big.Rat).SetInt64(2000)
	assert.Equal(t, "5000.00", FormatValue(amount, price))
	assert.Equal(t, "", FormatValue(nil, price))
	assert.Equal(t, "", FormatValue(amount, nil))
}

func TestFormatGwei(t *testing.T) {
	wei := new(big.Int)
	wei.SetString("30500000000", 10)
	assert.Equal(t, "30.50", FormatGwei(wei))
	assert.Equal(t, "0", FormatGwei(big.NewInt(0)))
	assert.Equal(t, "0", FormatGwei(nil))
}

func TestHeaderIndexFirstOccurrenceWins(t *testing.T) {
	idx := HeaderIndex([]string{"block", "tx", "block"})
	assert.Equal(t, 0, idx["block"])
	assert.Equal(t, 1, idx["tx"])
}

func TestFieldMissingColumn(t *testing.T) {
	idx := HeaderIndex([]string{"block", "tx"})
	rec := []string{"123"}
	assert.Equal(t, "123", Field(rec, idx, "block"))
	assert.Equal(t, "", Field(rec, idx, "tx"), "short record")
	assert.Equal(t, "", Field(rec, idx, "user"), "unknown column")
}
