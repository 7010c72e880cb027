// Package universe loads the S&P 500 constituent list used to restrict
// the screener results to index members.
package universe

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const DefaultURL = "https://raw.githubusercontent.com/datasets/s-and-p-500-companies/master/data/constituents.csv"

var ErrNoSymbols = errors.New("universe: no symbol column")

type Company struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	SubIndustry string `json:"sub_industry,omitempty"`
}

// Load downloads the constituents CSV from url.
func Load(ctx context.Context, client *resty.Client, url string) ([]Company, error) {
	if url == "" {
		url = DefaultURL
	}
	res, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("universe: GET %s: %w", url, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("universe: GET %s: status %d", url, res.StatusCode())
	}
	return Parse(res.Body())
}

// Parse reads a constituents CSV. Columns are located by header name;
// duplicate and blank symbols are dropped.
func Parse(data []byte) ([]Company, error) {
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("universe: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrNoSymbols
	}
	symIdx, nameIdx, sectorIdx, subIdx := -1, -1, -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "symbol":
			symIdx = i
		case "security":
			nameIdx = i
		case "gics sector":
			sectorIdx = i
		case "gics sub-industry":
			subIdx = i
		}
	}
	if symIdx < 0 {
		return nil, ErrNoSymbols
	}
	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	seen := make(map[string]bool)
	out := make([]Company, 0, len(rows)-1)
	for _, row := range rows[1:] {
		sym := strings.ToUpper(cell(row, symIdx))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		c := Company{
			Symbol:      sym,
			Name:        cell(row, nameIdx),
			Sector:      cell(row, sectorIdx),
			SubIndustry: cell(row, subIdx),
		}
		if c.Sector == "" {
			c.Sector = "Unknown"
		}
		out = append(out, c)
	}
	return out, nil
}

func Symbols(companies []Company) []string {
	out := make([]string, len(companies))
	for i, c := range companies {
		out[i] = c.Symbol
	}
	return out
}
