package testutil

import (
	"fmt"
	"html"
	"strings"

	"github.com/bighogz/insider-ingest/internal/models"
)

// Trade builds a record with plausible values; value is the Value cell.
func Trade(ticker, tradeType, value string) models.Record {
	return models.Record{
		FilingDate:  "2024-01-16 17:02:11",
		TradeDate:   "2024-01-12",
		Ticker:      ticker,
		CompanyName: ticker + " Inc",
		OwnerName:   "Doe John",
		Title:       "Dir",
		TradeType:   tradeType,
		Price:       "$10.00",
		Qty:         "+5,000",
		Owned:       "50,000",
		ChangePct:   "+11%",
		Value:       value,
	}
}

// ScreenerRow renders r as a 17-cell screener row.
func ScreenerRow(r models.Record) []string {
	cells := []string{"M"}
	cells = append(cells, r.Fields()...)
	return append(cells, "", "", "", "")
}

// ScreenerPage renders rows inside the screener's results table.
func ScreenerPage(rows ...[]string) string {
	var b strings.Builder
	b.WriteString("<html><body><table class=\"tinytable\"><thead><tr><th>X</th></tr></thead><tbody>\n")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, c := range row {
			fmt.Fprintf(&b, "<td> %s </td>", html.EscapeString(c))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody></table></body></html>")
	return b.String()
}

// EmptyPage is a screener response with no results table.
const EmptyPage = "<html><body><p>No results.</p></body></html>"
