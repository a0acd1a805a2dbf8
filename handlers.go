package netqsim

// handlers.go holds the two event handlers, which carry all of the
// transition logic of the network.  Each node is either Idle or Busy;
// the B-events are
//
//	B1, B2  a Px or Py packet arrives at the router queue
//	B3      the router completes a packet and hands it to a server queue
//	B4, B5  S1 or S2 completes a packet, which leaves the network
//
// and the C-events (start of service at an idle node with a non-empty
// queue) are carried out inline by whichever B-event makes them possible.

import (
	"fmt"
)

// ArrivalHandler processes B1 and B2 events
type ArrivalHandler struct{}

// Handle puts the arriving packet in the router queue, starts the router if
// it is idle, and schedules the next arrival of the same stream
func (ArrivalHandler) Handle(sim *SimContext, evt *Event) {
	now := sim.Now()
	sim.Log.Tracef("ArrivalHandler: %s", evt.kind)

	pckt := evt.Packet()
	if pckt == nil {
		panic(fmt.Errorf("arrival %s at %g carries no packet", evt.kind, evt.time))
	}
	strm, present := sim.streams[evt.kind]
	if !present {
		panic(fmt.Errorf("arrival handler given %s event", evt.kind))
	}

	rtr := sim.router
	rtr.queue.Enqueue(pckt, now)

	// C-event: packet in router queue and router idle, so the router starts work
	if rtr.service.State() == Idle {
		sim.Log.Tracef("{%s starts work}", rtr.name)
		sim.startService(rtr)
	} else {
		sim.Log.Tracef("{STATE: %s BUSY'}", rtr.name)
	}

	// the stream never starves the FEL, its next arrival is always on the list
	interval := strm.interarrival()
	sim.scheduleArrival(strm, now+interval)

	sim.lastEventTime = now
}

// DepartureHandler processes B3, B4 and B5 events
type DepartureHandler struct{}

// Handle removes the finished packet from the departing node's queue,
// re-arms the node or lets it go idle, and records the completion.  A packet
// finished by the router is passed on to its destination server; a packet
// finished by a server leaves the network
func (DepartureHandler) Handle(sim *SimContext, evt *Event) {
	now := sim.Now()
	sim.Log.Tracef("DepartureHandler: %s", evt.kind)

	nd, present := sim.nodeByDeparture[evt.kind]
	if !present {
		panic(fmt.Errorf("departure handler given %s event", evt.kind))
	}

	ok, finished := nd.queue.Dequeue(now)
	if !ok {
		panic(fmt.Errorf("%s departs at %g from node %s with an empty queue", evt.kind, now, nd.name))
	}

	if nd.queue.Len() > 0 {
		sim.Log.Tracef("{STATE: %s BUSY}", nd.name)
		sim.startService(nd)
	} else {
		nd.service.SetState(Idle)
		sim.Log.Tracef("{STATE: %s IDLE}", nd.name)
	}

	sim.Log.Tracef("SimulationTime=%g LastEventTime=%g finished=%s", now, sim.lastEventTime, finished)

	if nd == sim.router {
		sim.Stats.routerCompletion(finished, now)
		cmp := nd.complete(finished.ArrivalTime, now)
		sim.record(nd, finished, cmp)
		sim.forward(finished)
	} else {
		cmp := nd.complete(finished.ArrivalTime, now)
		sim.record(nd, finished, cmp)
	}

	sim.lastEventTime = now
}

// startService draws a service time for nd, schedules its departure and marks it busy
func (sim *SimContext) startService(nd *node) {
	st := nd.serviceTime()
	sim.FEL.Schedule(sim.departures, CreateEvent(nd.departure, sim.Now()+st, nil))
	nd.service.SetState(Busy)
}

// forward hands a packet the router has finished to the next node toward
// its stream's destination.  The packet's arrival time becomes the hand-off
// time, so waiting at the server is measured from its own queue
func (sim *SimContext) forward(pckt *Packet) {
	now := sim.Now()
	strm := sim.streamByID[pckt.Stream]

	nxtName, err := sim.Topo.NextHop(RouterName, strm.dst)
	if err != nil {
		panic(err)
	}
	nxt := sim.nodeByName[nxtName]

	pckt.ArrivalTime = now
	nxt.queue.Enqueue(pckt, now)

	// C-event: packet in server queue and server idle, so the server starts work
	if nxt.service.State() == Idle {
		sim.Log.Tracef("{%s starts work}", nxt.name)
		sim.startService(nxt)
	}
}

// record emits the trace line and diagnostics of a completion
func (sim *SimContext) record(nd *node, pckt *Packet, cmp Completion) {
	sim.Trace.AddTrace(nd.name, sim.Stats.TotalArrivals(), pckt.Stream, cmp)
	sim.Log.Tracef("ArrivalTime=%g TimeServiceBegin=%g ServiceTime=%g TimeServiceEnd=%g TimePktWaitsInQueue=%g TimePktSpendsInSystem=%g IdleTimeOfService=%g",
		cmp.Arrival, cmp.Begin, cmp.Service, cmp.End, cmp.Wait, cmp.InSystem, cmp.Idle)
}
