// Package netqsim is a discrete-event simulation of a small packet network:
// two packet streams, Px and Py, share a router that forwards Px packets to
// server S1 and Py packets to server S2.  Events are kept on a future event
// list ordered by time, and handed one at a time to the arrival and
// departure handlers, which move packets between queues and gather the
// statistics the final report is built from.
package netqsim

// netqsim.go builds the run-time structures of a simulation from a SimCfg
// and drives the event loop

import (
	"fmt"
	"io"

	"github.com/iti/rngstream"
	"github.com/sirupsen/logrus"
)

// stream is the run-time representation of an input packet stream
type stream struct {
	id       StreamID
	kind     EventKind
	dst      string
	rng      *RandomStream
	sample   sampler
	params   []float64
	numPckts int
}

// createStream is a constructor
func createStream(id StreamID, kind EventKind, sd StreamDesc, deterministic bool) (*stream, error) {
	dist := sd.Dist
	if deterministic {
		dist = "const"
	}
	smpl, err := interarrivalSampler(dist)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", id, err)
	}
	strm := new(stream)
	strm.id = id
	strm.kind = kind
	strm.dst = sd.Dst
	strm.rng = CreateRandomStream(string(id), deterministic)
	strm.sample = smpl
	strm.params = []float64{sd.Interarrival}
	return strm, nil
}

// interarrival draws the time to the stream's next arrival
func (strm *stream) interarrival() float64 {
	return strm.sample(strm.rng, strm.params)
}

// SimContext bundles everything one run mutates: clock and FEL, nodes,
// streams, statistics and trace.  Handlers receive it by reference
type SimContext struct {
	Cfg   *SimCfg
	Stop  StopCondition
	FEL   *Scheduler
	Stats *Stats
	Trace *TraceManager
	Topo  *Topology
	Log   *logrus.Logger

	router, server1, server2 *node
	nodeByName               map[string]*node
	nodeByDeparture          map[EventKind]*node
	streams                  map[EventKind]*stream
	streamByID               map[StreamID]*stream

	arrivals   ArrivalHandler
	departures DepartureHandler

	lastEventTime float64
	initialized   bool
	stopped       bool
}

// BuildSimulation checks cfg and assembles the structures of a run.  trace
// receives every completion; log receives diagnostics and may be nil, in
// which case they are discarded
func BuildSimulation(cfg *SimCfg, stop StopCondition, trace *TraceManager, log *logrus.Logger) (*SimContext, error) {
	if cfg == nil {
		return nil, fmt.Errorf("empty configuration given to BuildSimulation")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	if trace == nil {
		trace = CreateTraceManager(cfg.Name, false, nil)
	}

	sim := new(SimContext)
	sim.Cfg = cfg
	sim.Stop = stop
	sim.Log = log
	sim.Trace = trace
	sim.FEL = CreateScheduler(log)
	sim.Stats = CreateStats()
	sim.Topo = BuildTopology()

	// every node and stream draws its rngstream after the master seed is set
	if cfg.Seed > 0 {
		rngstream.SetRngStreamMasterSeed(cfg.Seed)
	}

	var errs []error
	var err error

	sim.router, err = createNode(RouterName, RouterDeparture, cfg.Router.Mean, cfg.Router.Sigma, cfg.Router.Dist, cfg.Deterministic)
	errs = append(errs, err)
	sim.server1, err = createNode(Server1Name, Server1Departure, cfg.Server1.Mean, cfg.Server1.Sigma, cfg.Server1.Dist, cfg.Deterministic)
	errs = append(errs, err)
	sim.server2, err = createNode(Server2Name, Server2Departure, cfg.Server2.Mean, cfg.Server2.Sigma, cfg.Server2.Dist, cfg.Deterministic)
	errs = append(errs, err)

	px, err := createStream(StreamPx, ArrivalA, cfg.Px, cfg.Deterministic)
	errs = append(errs, err)
	py, err := createStream(StreamPy, ArrivalB, cfg.Py, cfg.Deterministic)
	errs = append(errs, err)

	if err := ReportErrs(errs); err != nil {
		return nil, err
	}

	sim.nodeByName = make(map[string]*node)
	sim.nodeByDeparture = make(map[EventKind]*node)
	for _, nd := range []*node{sim.router, sim.server1, sim.server2} {
		sim.nodeByName[nd.name] = nd
		sim.nodeByDeparture[nd.departure] = nd
	}

	sim.streams = map[EventKind]*stream{ArrivalA: px, ArrivalB: py}
	sim.streamByID = map[StreamID]*stream{StreamPx: px, StreamPy: py}

	// every stream must reach its destination through the router
	for _, strm := range []*stream{px, py} {
		route, err := sim.Topo.Route(string(strm.id), strm.dst)
		if err != nil {
			return nil, err
		}
		if len(route) != 3 || route[1] != RouterName {
			return nil, fmt.Errorf("stream %s does not reach %s through the router", strm.id, strm.dst)
		}
	}

	return sim, nil
}

// Now is the current simulation time
func (sim *SimContext) Now() float64 {
	return sim.FEL.Now()
}

// LastEventTime is the time of the event handled before the current one
func (sim *SimContext) LastEventTime() float64 {
	return sim.lastEventTime
}

// Stopped reports whether the stop condition has ended the run
func (sim *SimContext) Stopped() bool {
	return sim.stopped
}

// nodes lists router, S1 and S2, in that order
func (sim *SimContext) nodes() []*node {
	return []*node{sim.router, sim.server1, sim.server2}
}

// Service returns the Service of the named node, or nil
func (sim *SimContext) Service(name string) *Service {
	nd, present := sim.nodeByName[name]
	if !present {
		return nil
	}
	return nd.service
}

// Queue returns the PacketQueue of the named node, or nil
func (sim *SimContext) Queue(name string) *PacketQueue {
	nd, present := sim.nodeByName[name]
	if !present {
		return nil
	}
	return nd.queue
}

// scheduleArrival creates the next packet of strm and schedules its arrival at time t
func (sim *SimContext) scheduleArrival(strm *stream, t float64) {
	strm.numPckts += 1
	pckt := &Packet{Number: strm.numPckts, Stream: strm.id, EntryTime: t, ArrivalTime: t}
	sim.FEL.Schedule(sim.arrivals, CreateEvent(strm.kind, t, pckt))
}

// Initialize puts the first arrival of each stream on the FEL
func (sim *SimContext) Initialize() {
	if sim.initialized {
		return
	}
	sim.initialized = true
	sim.Log.Debugf("%g (initialize simulation)", sim.Now())

	for _, kind := range []EventKind{ArrivalA, ArrivalB} {
		strm := sim.streams[kind]
		sim.scheduleArrival(strm, sim.Now()+strm.interarrival())
	}
}

// Step removes the imminent event from the FEL, advancing the clock to its
// time, and dispatches it.  It returns false if the FEL was empty
func (sim *SimContext) Step() bool {
	evt := sim.FEL.DequeueNext()
	if evt == nil {
		return false
	}
	sim.Log.Debugf("%g (Event %s)", sim.Now(), evt.kind)
	sim.FEL.Dispatch(sim, evt)
	return true
}

// Run executes events until the stop condition holds, then discards
// whatever remains on the FEL
func (sim *SimContext) Run() {
	sim.Initialize()
	sim.Log.Debugf("endtime: %g", sim.Stop.EndTime)
	sim.Log.Debugf("endpx: %d", sim.Stop.EndCount)

	for !sim.stopped {
		if !sim.Step() {
			break
		}
		if sim.Stop.Reached(sim.Now(), sim.server1.service.TotalPackets()) {
			sim.stopped = true
		}
	}

	discarded := sim.FEL.Drain()
	sim.Log.WithFields(logrus.Fields{"time": sim.Now(), "events": sim.FEL.Dispatched(), "discarded": discarded}).Debug("simulation ended")
}

// Report writes the performance metrics of the run
func (sim *SimContext) Report(w io.Writer, verbosity int) error {
	return sim.Stats.Report(w, sim, verbosity)
}
