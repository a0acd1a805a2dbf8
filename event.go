package netqsim

import (
	"fmt"
	"strconv"
)

// EventKind identifies the B-event types of the network
type EventKind int

const (
	ArrivalA         EventKind = iota + 1 // B1, a Px packet arrives at the router queue
	ArrivalB                              // B2, a Py packet arrives at the router queue
	RouterDeparture                       // B3, the router finishes a packet and forwards it
	Server1Departure                      // B4, S1 finishes a Px packet, which leaves the network
	Server2Departure                      // B5, S2 finishes a Py packet, which leaves the network
)

// String gives the classical B-event label, e.g. "B3"
func (ek EventKind) String() string {
	return "B" + strconv.Itoa(int(ek))
}

// IsArrival is true for B1 and B2
func (ek EventKind) IsArrival() bool {
	return ek == ArrivalA || ek == ArrivalB
}

// Handler is the capability an Event points back to; the Scheduler calls
// Handle when the event's time comes up
type Handler interface {
	Handle(sim *SimContext, evt *Event)
}

// StreamID names one of the input packet streams
type StreamID string

const (
	StreamPx StreamID = "Px"
	StreamPy StreamID = "Py"
)

// Packet is the in-flight record carried by events.  arrivalTime is when
// the packet joined the queue of the node currently holding it, entryTime
// is when it entered the network
type Packet struct {
	Number      int
	Stream      StreamID
	EntryTime   float64
	ArrivalTime float64
}

// String is used in diagnostics
func (pckt *Packet) String() string {
	return fmt.Sprintf("%s#%d@%g", pckt.Stream, pckt.Number, pckt.ArrivalTime)
}

// Event describes something that happens at a definite simulation time.
// Fields are fixed at construction; seq is assigned by the Scheduler
type Event struct {
	kind    EventKind
	time    float64
	handler Handler
	packet  *Packet
	seq     uint64
}

// CreateEvent is a constructor.  pckt may be nil for departures, which
// find their packet at the head of the departing node's queue
func CreateEvent(kind EventKind, time float64, pckt *Packet) *Event {
	return &Event{kind: kind, time: time, packet: pckt}
}

// Kind returns the event type
func (evt *Event) Kind() EventKind {
	return evt.kind
}

// Time returns the scheduled time of the event
func (evt *Event) Time() float64 {
	return evt.time
}

// Handler returns the handler the event was scheduled with
func (evt *Event) Handler() Handler {
	return evt.handler
}

// Packet returns the payload, if any
func (evt *Event) Packet() *Packet {
	return evt.packet
}

// Seq is the insertion order of the event in the Scheduler
func (evt *Event) Seq() uint64 {
	return evt.seq
}
