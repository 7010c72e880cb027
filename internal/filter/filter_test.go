package filter

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bighogz/insider-ingest/internal/models"
	"github.com/bighogz/insider-ingest/internal/testutil"
)

func trade(ticker, tradeType, qty, value string) models.Record {
	return models.Record{
		FilingDate: "2024-01-05", TradeDate: "2024-01-04", Ticker: ticker,
		CompanyName: "Co", OwnerName: "Owner", Title: "CEO", TradeType: tradeType,
		Price: "$10.00", Qty: qty, Owned: "1,000", ChangePct: "+5%", Value: value,
	}
}

func TestCleanNumeric(t *testing.T) {
	cases := map[string]float64{
		"N/A":       0,
		"n/a":       0,
		"":          0,
		"new":       0,
		"New":       0,
		"$1,234.50": 1234.50,
		"+$50,000":  50000,
		"-$12,345":  -12345,
		"-2,500":    -2500,
		"+12%":      12,
		">999%":     0,
		"  42  ":    42,
		"abc":       0,
		"NaN":       0,
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanNumeric(in), "input %q", in)
	}
}

func TestValueThreshold(t *testing.T) {
	e := New(Criteria{MinTransactionValue: DefaultMinTransactionValue}, nil)
	assert.False(t, e.Accepts(trade("ACME", "P - Purchase", "+100", "$24,999")))
	assert.True(t, e.Accepts(trade("ACME", "P - Purchase", "+100", "$25,000")))
	assert.False(t, e.Accepts(trade("ACME", "P - Purchase", "+100", "N/A")))
}

// Value is compared signed, unlike qty: sales carry a negative value and
// never clear a positive minimum.
func TestNegativeValueSaleRejected(t *testing.T) {
	e := New(Criteria{MinTransactionValue: DefaultMinTransactionValue}, nil)
	assert.False(t, e.Accepts(trade("ACME", "S - Sale", "-5,000", "-$120,000")))
	assert.True(t, e.Accepts(trade("ACME", "P - Purchase", "+5,000", "+$120,000")))
}

func TestSharesThresholdUsesAbsoluteValue(t *testing.T) {
	e := New(Criteria{MinSharesTraded: 1000}, nil)
	assert.True(t, e.Accepts(trade("ACME", "S - Sale", "-1,500", "$1")))
	assert.True(t, e.Accepts(trade("ACME", "P - Purchase", "+1,000", "$1")))
	assert.False(t, e.Accepts(trade("ACME", "S - Sale", "-999", "$1")))
}

func TestTypeAndTickerSets(t *testing.T) {
	e := New(Criteria{
		TransactionTypes: []string{"P - Purchase"},
		ExcludeCompanies: []string{"BAD"},
	}, nil)
	assert.True(t, e.Accepts(trade("ACME", "P - Purchase", "1", "1")))
	assert.False(t, e.Accepts(trade("ACME", "S - Sale", "1", "1")))
	assert.False(t, e.Accepts(trade("BAD", "P - Purchase", "1", "1")))

	incl := New(Criteria{IncludeCompanies: []string{"AAPL", "MSFT"}, ExcludeCompanies: []string{"MSFT"}}, nil)
	assert.True(t, incl.Accepts(trade("AAPL", "S - Sale", "1", "1")))
	assert.False(t, incl.Accepts(trade("MSFT", "S - Sale", "1", "1")))
	assert.False(t, incl.Accepts(trade("GOOG", "S - Sale", "1", "1")))
}

func TestEmptyCriteriaAcceptsEverything(t *testing.T) {
	e := New(Criteria{}, nil)
	assert.True(t, e.Accepts(trade("ANY", "X", "", "")))
}

func TestPanicDuringEvaluationRejects(t *testing.T) {
	logger, logs := testutil.NewLogger(t)
	e := New(Criteria{MinTransactionValue: DefaultMinTransactionValue}, logger)
	e.numeric = func(string) float64 { panic("bad cell") }

	assert.False(t, e.Accepts(trade("ACME", "P - Purchase", "+100", "$90,000")))
	assert.Equal(t, 1, logs.Count(slog.LevelWarn, "filter error"))
}
