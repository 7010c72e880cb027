package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Summary is what a run prints when it finishes.
type Summary struct {
	RunID    string
	Units    int
	Failed   int
	Records  int
	Output   string
	Duration time.Duration
}

func PrintSummary(w io.Writer, s Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Run", "Value"})
	t.AppendRows([]table.Row{
		{"run id", s.RunID},
		{"months", s.Units},
		{"failed months", s.Failed},
		{"records", s.Records},
		{"output", s.Output},
		{"duration", s.Duration.Round(time.Millisecond).String()},
	})
	if s.Failed > 0 {
		t.AppendFooter(table.Row{"status", fmt.Sprintf("partial (%d failed)", s.Failed)})
	} else {
		t.AppendFooter(table.Row{"status", "complete"})
	}
	t.Render()
}
