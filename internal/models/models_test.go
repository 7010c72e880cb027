package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(ticker string) Record {
	return Record{
		FilingDate:  "2024-01-05 16:02:11",
		TradeDate:   "2024-01-03",
		Ticker:      ticker,
		CompanyName: "Acme Corp",
		OwnerName:   "Doe John",
		Title:       "CEO",
		TradeType:   "P - Purchase",
		Price:       "$12.50",
		Qty:         "+4,000",
		Owned:       "104,000",
		ChangePct:   "+4%",
		Value:       "+$50,000",
	}
}

func TestRecordFieldsRoundTrip(t *testing.T) {
	r := sampleRecord("ACME")
	fields := r.Fields()
	require.Len(t, fields, len(Columns))
	assert.Equal(t, "ACME", fields[2])
	assert.Equal(t, "+$50,000", fields[11])

	back, err := RecordFromFields(fields)
	require.NoError(t, err)
	assert.Equal(t, r, back)

	_, err = RecordFromFields(fields[:11])
	assert.Error(t, err)
}

func TestRecordSetDedup(t *testing.T) {
	s := NewRecordSet()
	assert.True(t, s.Add(sampleRecord("ACME")))
	assert.False(t, s.Add(sampleRecord("ACME")))
	assert.True(t, s.Add(sampleRecord("BETA")))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains(sampleRecord("BETA")))

	out := s.Slice()
	require.Len(t, out, 2)
	assert.Equal(t, "ACME", out[0].Ticker)
	assert.Equal(t, "BETA", out[1].Ticker)
}

func TestWorkUnitBounds(t *testing.T) {
	cases := []struct {
		unit WorkUnit
		end  string
	}{
		{WorkUnit{2024, time.February}, "2024-02-29"},
		{WorkUnit{2023, time.February}, "2023-02-28"},
		{WorkUnit{2024, time.December}, "2024-12-31"},
		{WorkUnit{2024, time.April}, "2024-04-30"},
	}
	for _, tc := range cases {
		assert.Equal(t, 1, tc.unit.Start().Day(), tc.unit.String())
		assert.Equal(t, tc.end, tc.unit.End().Format("2006-01-02"), tc.unit.String())
	}
	assert.Equal(t, "2024-02", WorkUnit{2024, time.February}.String())
}

func TestUnits(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

	units := Units(2023, time.November, now)
	require.Len(t, units, 5)
	assert.Equal(t, WorkUnit{2023, time.November}, units[0])
	assert.Equal(t, WorkUnit{2023, time.December}, units[1])
	assert.Equal(t, WorkUnit{2024, time.January}, units[2])
	assert.Equal(t, WorkUnit{2024, time.March}, units[4])

	assert.Len(t, Units(2024, time.March, now), 1)
	assert.Empty(t, Units(2025, time.January, now))
	assert.Empty(t, Units(2024, time.April, now))
}
