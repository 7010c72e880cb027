package models

import (
	"fmt"
	"sort"
	"time"
)

// Columns is the fixed output schema, in Record field order.
var Columns = []string{
	"filing_date", "trade_date", "ticker", "company_name",
	"owner_name", "title", "trade_type", "price", "qty",
	"owned", "change_pct", "value",
}

// Record is one insider transaction row as published by the screener.
// All fields keep their raw text; it is comparable so it can key a map.
type Record struct {
	FilingDate  string `json:"filing_date" parquet:"filing_date"`
	TradeDate   string `json:"trade_date" parquet:"trade_date"`
	Ticker      string `json:"ticker" parquet:"ticker"`
	CompanyName string `json:"company_name" parquet:"company_name"`
	OwnerName   string `json:"owner_name" parquet:"owner_name"`
	Title       string `json:"title" parquet:"title"`
	TradeType   string `json:"trade_type" parquet:"trade_type"`
	Price       string `json:"price" parquet:"price"`
	Qty         string `json:"qty" parquet:"qty"`
	Owned       string `json:"owned" parquet:"owned"`
	ChangePct   string `json:"change_pct" parquet:"change_pct"`
	Value       string `json:"value" parquet:"value"`
}

func (r Record) Fields() []string {
	return []string{
		r.FilingDate, r.TradeDate, r.Ticker, r.CompanyName,
		r.OwnerName, r.Title, r.TradeType, r.Price, r.Qty,
		r.Owned, r.ChangePct, r.Value,
	}
}

func RecordFromFields(f []string) (Record, error) {
	if len(f) != len(Columns) {
		return Record{}, fmt.Errorf("record: expected %d fields, got %d", len(Columns), len(f))
	}
	return Record{
		FilingDate:  f[0],
		TradeDate:   f[1],
		Ticker:      f[2],
		CompanyName: f[3],
		OwnerName:   f[4],
		Title:       f[5],
		TradeType:   f[6],
		Price:       f[7],
		Qty:         f[8],
		Owned:       f[9],
		ChangePct:   f[10],
		Value:       f[11],
	}, nil
}

func less(a, b Record) bool {
	fa, fb := a.Fields(), b.Fields()
	for i := range fa {
		if fa[i] != fb[i] {
			return fa[i] < fb[i]
		}
	}
	return false
}

// SortRecords orders records by their fields, left to right.
func SortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool { return less(records[i], records[j]) })
}

// RecordSet holds structurally unique records.
type RecordSet map[Record]struct{}

func NewRecordSet(records ...Record) RecordSet {
	s := make(RecordSet, len(records))
	for _, r := range records {
		s.Add(r)
	}
	return s
}

// Add reports whether r was not already present.
func (s RecordSet) Add(r Record) bool {
	if _, ok := s[r]; ok {
		return false
	}
	s[r] = struct{}{}
	return true
}

func (s RecordSet) Contains(r Record) bool {
	_, ok := s[r]
	return ok
}

func (s RecordSet) Len() int { return len(s) }

// Slice returns the records in deterministic order.
func (s RecordSet) Slice() []Record {
	out := make([]Record, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	SortRecords(out)
	return out
}

// WorkUnit is one calendar month of screener data.
type WorkUnit struct {
	Year  int
	Month time.Month
}

func (u WorkUnit) String() string {
	return fmt.Sprintf("%04d-%02d", u.Year, int(u.Month))
}

func (u WorkUnit) Start() time.Time {
	return time.Date(u.Year, u.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the month: first of next month minus one day.
func (u WorkUnit) End() time.Time {
	return u.Start().AddDate(0, 1, 0).AddDate(0, 0, -1)
}

// Units lists every month from startYear/startMonth through now's month, ascending.
func Units(startYear int, startMonth time.Month, now time.Time) []WorkUnit {
	out := make([]WorkUnit, 0)
	endYear, endMonth := now.Year(), now.Month()
	for year := startYear; year <= endYear; year++ {
		first := time.January
		if year == startYear {
			first = startMonth
		}
		last := time.December
		if year == endYear {
			last = endMonth
		}
		for m := first; m <= last; m++ {
			out = append(out, WorkUnit{Year: year, Month: m})
		}
	}
	return out
}
