package openinsider

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bighogz/insider-ingest/internal/testutil"
)

func TestParse(t *testing.T) {
	a := testutil.Trade("AAPL", "P - Purchase", "$50,000")
	b := testutil.Trade("MSFT", "S - Sale", "-$1,200,000")
	page := testutil.ScreenerPage(testutil.ScreenerRow(a), testutil.ScreenerRow(b))

	records, err := Parse(context.Background(), strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, a, records[0])
	assert.Equal(t, b, records[1])
}

func TestParseTrimsCells(t *testing.T) {
	page := testutil.ScreenerPage(testutil.ScreenerRow(testutil.Trade("AAPL", "P - Purchase", "$50,000")))

	records, err := Parse(context.Background(), strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "AAPL", records[0].Ticker)
	assert.Equal(t, "$50,000", records[0].Value)
}

func TestParseSkipsMalformedRows(t *testing.T) {
	good := testutil.ScreenerRow(testutil.Trade("AAPL", "P - Purchase", "$50,000"))
	short := good[:16]
	long := append(append([]string{}, good...), "extra")
	page := testutil.ScreenerPage(short, good, long, []string{"only one"})

	records, err := Parse(context.Background(), strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "AAPL", records[0].Ticker)
}

func TestParseNoTable(t *testing.T) {
	records, err := Parse(context.Background(), strings.NewReader(testutil.EmptyPage))
	assert.ErrorIs(t, err, ErrNoTable)
	assert.Empty(t, records)
}

func TestParseEmptyTable(t *testing.T) {
	records, err := Parse(context.Background(), strings.NewReader(testutil.ScreenerPage()))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseDropsReturnColumns(t *testing.T) {
	row := testutil.ScreenerRow(testutil.Trade("AAPL", "P - Purchase", "$50,000"))
	row[13], row[14], row[15], row[16] = "+1%", "+2%", "-3%", "+4%"
	page := testutil.ScreenerPage(row)

	records, err := Parse(context.Background(), strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, records, 1)
	for _, f := range records[0].Fields() {
		assert.NotContains(t, []string{"+1%", "+2%", "-3%", "+4%"}, f)
	}
}
