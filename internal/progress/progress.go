// Package progress reports how many work units have finished.
package progress

import (
	"io"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// Reporter tracks completion of a fixed number of units. Increment is
// called once per unit reaching a terminal state, from any goroutine.
type Reporter interface {
	Start(total int)
	Increment()
	Done()
}

// Nop discards progress.
type Nop struct{}

func (Nop) Start(int)  {}
func (Nop) Increment() {}
func (Nop) Done()      {}

// Bar renders a single tracker to w.
type Bar struct {
	message string
	out     *frameWriter
	pw      progress.Writer
	tracker *progress.Tracker
	once    sync.Once
}

func NewBar(w io.Writer, message string) *Bar {
	return &Bar{message: message, out: newFrameWriter(w)}
}

// frameWriter closes drawn on the first write. The renderer only writes
// once its own setup is finished, and Stop must not run before that.
type frameWriter struct {
	w     io.Writer
	drawn chan struct{}
	once  sync.Once
}

func newFrameWriter(w io.Writer) *frameWriter {
	return &frameWriter{w: w, drawn: make(chan struct{})}
}

func (f *frameWriter) Write(p []byte) (int, error) {
	f.once.Do(func() { close(f.drawn) })
	return f.w.Write(p)
}

func (b *Bar) Start(total int) {
	pw := progress.NewWriter()
	pw.SetOutputWriter(b.out)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(30)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Percentage = true
	pw.Style().Visibility.Value = true

	b.tracker = &progress.Tracker{
		Message: b.message,
		Total:   int64(total),
		Units:   progress.UnitsDefault,
	}
	b.pw = pw
	pw.AppendTracker(b.tracker)
	go pw.Render()
}

func (b *Bar) Increment() {
	if b.tracker != nil {
		b.tracker.Increment(1)
	}
}

// Done stops rendering and waits for the final frame.
func (b *Bar) Done() {
	if b.pw == nil {
		return
	}
	b.once.Do(func() {
		b.tracker.MarkAsDone()
		<-b.out.drawn
		b.pw.Stop()
		for b.pw.IsRenderInProgress() {
			time.Sleep(10 * time.Millisecond)
		}
	})
}

// Counter counts increments. Tests use it to check that every unit is
// reported exactly once.
type Counter struct {
	mu      sync.Mutex
	total   int
	count   int
	started bool
	done    bool
}

func (c *Counter) Start(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total, c.started = total, true
}

func (c *Counter) Increment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
}

func (c *Counter) Done() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = true
}

// Snapshot returns total, count and whether Done was called.
func (c *Counter) Snapshot() (total, count int, done bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total, c.count, c.done
}
