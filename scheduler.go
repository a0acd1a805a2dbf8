package netqsim

// scheduler.go holds the future event list (FEL).  Pending events are kept
// in a min-heap keyed on (time, insertion sequence) so that equal-time events
// come out in the order they went in.  The Scheduler also owns the
// simulation clock, which it advances as events are removed

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"
)

// evtHeap and its methods implement a min-priority heap on event time
type evtHeap []*Event

func (h evtHeap) Len() int { return len(h) }
func (h evtHeap) Less(i, j int) bool {
	if h[i].time == h[j].time {
		return h[i].seq < h[j].seq
	}
	return h[i].time < h[j].time
}
func (h evtHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *evtHeap) Push(x any) {
	*h = append(*h, x.(*Event))
}

func (h *evtHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// Scheduler holds the FEL and the clock
type Scheduler struct {
	pending evtHeap
	now     float64
	nxtSeq  uint64
	numDisp int
	log     *logrus.Logger
}

// CreateScheduler is a constructor.  log receives a Debug line for every
// schedule call, and may be nil
func CreateScheduler(log *logrus.Logger) *Scheduler {
	fel := new(Scheduler)
	fel.pending = evtHeap{}
	heap.Init(&fel.pending)
	fel.log = log
	return fel
}

// Now is the current simulation time, the time of the most recently dequeued event
func (fel *Scheduler) Now() float64 {
	return fel.now
}

// Len gives the number of pending events
func (fel *Scheduler) Len() int {
	return len(fel.pending)
}

// Dispatched gives the number of events handed to handlers so far
func (fel *Scheduler) Dispatched() int {
	return fel.numDisp
}

// Schedule tags evt with its handler and inserts it into the FEL.
// An event dated before the current time is refused with a panic
func (fel *Scheduler) Schedule(hdlr Handler, evt *Event) {
	if evt.time < fel.now {
		panic(fmt.Errorf("event %s scheduled at %g precedes current time %g", evt.kind, evt.time, fel.now))
	}
	if hdlr == nil {
		panic(fmt.Errorf("event %s scheduled at %g without a handler", evt.kind, evt.time))
	}

	if fel.log != nil && fel.log.IsLevelEnabled(logrus.DebugLevel) {
		fel.log.Debugf("[%s %g]", evt.kind, evt.time)
	}

	fel.nxtSeq += 1
	evt.seq = fel.nxtSeq
	evt.handler = hdlr
	heap.Push(&fel.pending, evt)
}

// DequeueNext removes the imminent event and advances the clock to its time.
// It returns nil if the FEL is empty
func (fel *Scheduler) DequeueNext() *Event {
	if len(fel.pending) == 0 {
		return nil
	}
	evt := heap.Pop(&fel.pending).(*Event)
	if evt.time < fel.now {
		panic(fmt.Errorf("event %s at %g dequeued after clock reached %g", evt.kind, evt.time, fel.now))
	}
	fel.now = evt.time
	return evt
}

// Dispatch hands evt to the handler it was scheduled with
func (fel *Scheduler) Dispatch(sim *SimContext, evt *Event) {
	fel.numDisp += 1
	evt.handler.Handle(sim, evt)
}

// Drain discards every pending event and reports how many there were
func (fel *Scheduler) Drain() int {
	n := len(fel.pending)
	for idx := range fel.pending {
		fel.pending[idx] = nil
	}
	fel.pending = fel.pending[:0]
	return n
}
