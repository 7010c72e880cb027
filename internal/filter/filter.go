package filter

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/bighogz/insider-ingest/internal/logging"
	"github.com/bighogz/insider-ingest/internal/models"
)

// DefaultMinTransactionValue is the value threshold when none is configured.
const DefaultMinTransactionValue = 25000

type Criteria struct {
	TransactionTypes    []string
	ExcludeCompanies    []string
	IncludeCompanies    []string
	MinTransactionValue float64
	MinSharesTraded     float64
}

// Engine is a pure predicate over records; its sets are built once and
// only read afterwards, so it is safe for concurrent use.
type Engine struct {
	types   map[string]struct{}
	exclude map[string]struct{}
	include map[string]struct{}
	minVal  float64
	minQty  float64
	numeric func(string) float64
	logger  *slog.Logger
}

func New(c Criteria, logger *slog.Logger) *Engine {
	return &Engine{
		types:   toSet(c.TransactionTypes),
		exclude: toSet(c.ExcludeCompanies),
		include: toSet(c.IncludeCompanies),
		minVal:  c.MinTransactionValue,
		minQty:  c.MinSharesTraded,
		numeric: CleanNumeric,
		logger:  logging.OrDiscard(logger),
	}
}

// Accepts reports whether r passes every configured threshold. Any panic
// while evaluating counts as a rejection.
func (e *Engine) Accepts(r models.Record) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Warn("filter error", "ticker", r.Ticker, "panic", p)
			ok = false
		}
	}()
	return e.accepts(r)
}

func (e *Engine) accepts(r models.Record) bool {
	if len(e.types) > 0 && !has(e.types, r.TradeType) {
		return false
	}
	if has(e.exclude, r.Ticker) {
		return false
	}
	if len(e.include) > 0 && !has(e.include, r.Ticker) {
		return false
	}
	if e.numeric(r.Value) < e.minVal {
		return false
	}
	if math.Abs(e.numeric(r.Qty)) < e.minQty {
		return false
	}
	return true
}

var numericReplacer = strings.NewReplacer("$", "", ",", "", "+", "", "%", "")

// CleanNumeric parses screener numbers such as "+$1,234", "-5%" or "N/A".
// Anything that is not a number yields 0.
func CleanNumeric(s string) float64 {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "n/a", "new":
		return 0
	}
	f, err := strconv.ParseFloat(numericReplacer.Replace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func toSet(vals []string) map[string]struct{} {
	out := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		out[v] = struct{}{}
	}
	return out
}

func has(set map[string]struct{}, v string) bool {
	_, ok := set[v]
	return ok
}
