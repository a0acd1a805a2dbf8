package netqsim

// stats.go gathers the cross-cutting metrics of a run and renders the report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

const ruler = "========================================================="

// streamStats tracks one input stream as seen by the router
type streamStats struct {
	served    int
	lastEntry float64
	meanGap   float64
}

// Stats holds metrics that span nodes
type Stats struct {
	totalArrivals int
	totalWaiting  float64
	streams       map[StreamID]*streamStats
}

// CreateStats is a constructor
func CreateStats() *Stats {
	st := new(Stats)
	st.streams = map[StreamID]*streamStats{StreamPx: {}, StreamPy: {}}
	return st
}

// stream returns the counters of a stream, zero for one not seen
func (st *Stats) stream(id StreamID) streamStats {
	ss, present := st.streams[id]
	if !present {
		return streamStats{}
	}
	return *ss
}

// routerCompletion is called when the router finishes pckt at time now.
// The interarrival mean of the packet's stream is updated from the router's
// point of view: the sample is the gap between the network entry times of
// successive packets of the stream leaving the router, so the mean always
// equals the latest entry time divided by the router's count for the stream
func (st *Stats) routerCompletion(pckt *Packet, now float64) {
	st.totalArrivals += 1
	st.totalWaiting += now - pckt.EntryTime

	ss, present := st.streams[pckt.Stream]
	if !present {
		ss = new(streamStats)
		st.streams[pckt.Stream] = ss
	}
	ss.served += 1
	gap := pckt.EntryTime - ss.lastEntry
	ss.lastEntry = pckt.EntryTime
	ss.meanGap += (gap - ss.meanGap) / float64(ss.served)
}

// TotalArrivals gives the number of packets the router has completed
func (st *Stats) TotalArrivals() int {
	return st.totalArrivals
}

// TotalWaitingTime sums, over packets the router completed, the time from network entry to router completion
func (st *Stats) TotalWaitingTime() float64 {
	return st.totalWaiting
}

// MeanInterarrival gives the running interarrival mean of a stream
func (st *Stats) MeanInterarrival(id StreamID) float64 {
	return st.stream(id).meanGap
}

// ServedByRouter gives the number of packets of a stream the router has completed
func (st *Stats) ServedByRouter(id StreamID) int {
	return st.stream(id).served
}

// fmtReport renders a value in the report with six significant digits
func fmtReport(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// meanStd summarizes samples, with zeros standing in when there are too few
func meanStd(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0.0, 0.0
	}
	if len(x) == 1 {
		return x[0], 0.0
	}
	mean, std := stat.MeanStdDev(x, nil)
	if math.IsNaN(std) {
		std = 0.0
	}
	return mean, std
}

// Report writes the performance metrics of the run to w.  With verbosity
// above 1 router counts and a per-node summary are included
func (st *Stats) Report(w io.Writer, sim *SimContext, verbosity int) error {
	var sb strings.Builder
	now := sim.Now()

	if verbosity > 0 {
		sb.WriteString("\n" + ruler + "\n\n")
	}

	sb.WriteString("Performance metrics for the simulation:\n" + ruler + "\n\n")
	fmt.Fprintf(&sb, "Total simulated time = %s sec\n", fmtReport(now))
	fmt.Fprintf(&sb, "Mean interarrival time for Px = %s sec\n", fmtReport(st.MeanInterarrival(StreamPx)))
	fmt.Fprintf(&sb, "Mean interarrival time for Py = %s sec\n", fmtReport(st.MeanInterarrival(StreamPy)))

	if verbosity > 1 {
		fmt.Fprintf(&sb, "R (Router):\nTotal Px served by R = %d, Total Py served by R = %d\n",
			st.ServedByRouter(StreamPx), st.ServedByRouter(StreamPy))
	}
	fmt.Fprintf(&sb, "Mean service time for R = %s sec\n", fmtReport(sim.router.service.MeanServiceTime()))

	if verbosity > 1 {
		sb.WriteString("S1 (Server 1):\n\n")
	}
	fmt.Fprintf(&sb, "Total Px served by S1 = %d\n", sim.server1.service.TotalPackets())
	fmt.Fprintf(&sb, "Mean service time for S1 = %s sec\n", fmtReport(sim.server1.service.MeanServiceTime()))

	if verbosity > 1 {
		sb.WriteString("S2 (Server 2):\n\n")
	}
	fmt.Fprintf(&sb, "Total Py served by S2 = %d\n", sim.server2.service.TotalPackets())
	fmt.Fprintf(&sb, "Mean service time for S2 = %s sec\n\n", fmtReport(sim.server2.service.MeanServiceTime()))

	if verbosity > 1 {
		fmt.Fprintf(&sb, "Total waiting time at R = %s sec\n", fmtReport(st.totalWaiting))
		for _, nd := range sim.nodes() {
			waitMean, waitStd := meanStd(nd.waits)
			sysMean, sysStd := meanStd(nd.inSystem)
			util := 0.0
			if now > 0.0 {
				util = nd.service.TotalServiceTime() / now
			}
			fmt.Fprintf(&sb, "%s: wait %s (sd %s) sec, in system %s (sd %s) sec, queue empty %s sec, max queue %d, utilization %s\n",
				nd.name, fmtReport(waitMean), fmtReport(waitStd), fmtReport(sysMean), fmtReport(sysStd),
				fmtReport(nd.queue.EmptyTime(now)), nd.queue.MaxLen(), fmtReport(util))
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
