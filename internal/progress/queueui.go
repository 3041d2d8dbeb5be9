package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/twinpane/twinpane/internal/events"
)

// QueueUI renders one mpb bar per queue task, driven by task events from
// the bus. On a non-terminal stderr the bars degrade to plain text lines.
type QueueUI struct {
	progress   *mpb.Progress
	bars       sync.Map // task ID -> *taskBar
	isTerminal bool
	done       chan struct{}
}

type taskBar struct {
	bar        *mpb.Bar
	label      string
	lastUpdate time.Time
	lastPct    int
}

func NewQueueUI() *QueueUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		enableWindowsANSI(os.Stderr)
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(80),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &QueueUI{
		progress:   p,
		isTerminal: isTerminal,
		done:       make(chan struct{}),
	}
}

// Run consumes task events from ch until it closes or Stop is called.
// Meant to run on its own goroutine; callers subscribe with SubscribeAll
// before enqueueing work so no lifecycle event is missed.
func (u *QueueUI) Run(ch <-chan events.Event) {
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			te, isTask := ev.(*events.TaskEvent)
			if !isTask {
				continue
			}
			u.handle(te)
		case <-u.done:
			return
		}
	}
}

func (u *QueueUI) handle(te *events.TaskEvent) {
	switch te.Type() {
	case events.EventTaskQueued:
		u.addBar(te)
	case events.EventTaskProgress:
		u.update(te)
	case events.EventTaskCompleted:
		u.complete(te, nil)
	case events.EventTaskFailed, events.EventTaskCancelled:
		u.complete(te, te.Err)
	}
}

func (u *QueueUI) addBar(te *events.TaskEvent) {
	label := fmt.Sprintf("%s %s", te.Kind, te.Label)
	tb := &taskBar{label: label, lastUpdate: time.Now()}

	if u.isTerminal {
		tb.bar = u.progress.New(100,
			mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
			mpb.PrependDecorators(
				decor.Name(label, decor.WCSyncSpaceR),
			),
			mpb.AppendDecorators(
				decor.Percentage(decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaETA(decor.ET_STYLE_GO, 30),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Printf("queued: %s\n", label)
	}
	u.bars.Store(te.TaskID, tb)
}

func (u *QueueUI) update(te *events.TaskEvent) {
	v, ok := u.bars.Load(te.TaskID)
	if !ok {
		return
	}
	tb := v.(*taskBar)
	if tb.bar == nil {
		return
	}
	now := time.Now()
	if delta := te.Percent - tb.lastPct; delta > 0 {
		tb.bar.EwmaIncrBy(delta, now.Sub(tb.lastUpdate))
		tb.lastPct = te.Percent
		tb.lastUpdate = now
	}
}

func (u *QueueUI) complete(te *events.TaskEvent, err error) {
	v, ok := u.bars.Load(te.TaskID)
	if !ok {
		return
	}
	tb := v.(*taskBar)

	var msg string
	if err == nil {
		if tb.bar != nil {
			tb.bar.SetCurrent(100)
			tb.bar.SetTotal(100, true)
		}
		msg = fmt.Sprintf("✓ %s\n", tb.label)
	} else {
		if tb.bar != nil {
			tb.bar.Abort(false)
		}
		msg = fmt.Sprintf("✗ %s: %v\n", tb.label, err)
	}

	// Write through mpb's writer so the message lands above live bars
	// instead of tearing them.
	if u.isTerminal && u.progress != nil {
		u.progress.Write([]byte(msg))
	} else {
		fmt.Print(msg)
	}
}

// Stop ends event consumption. Call Wait afterwards to let mpb flush.
func (u *QueueUI) Stop() {
	close(u.done)
}

// Wait blocks until all bars have rendered their final state.
func (u *QueueUI) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}
